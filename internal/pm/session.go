package pm

import "fmt"

// SessionState is the state of the single form session. It is one of Idle,
// Creating, Editing or ConfirmingDelete, so that combinations such as editing
// while confirming a delete cannot be represented.
type SessionState interface {
	fmt.Stringer
	sessionState()
}

// Idle means no form is open.
type Idle struct{}

// Creating means a fresh, empty form is open for a new record.
type Creating struct{}

// Editing means a form pre-populated from record ID is open.
type Editing struct {
	ID string
}

// ConfirmingDelete means the user is asked to confirm deletion of record ID.
type ConfirmingDelete struct {
	ID string
}

func (Idle) sessionState()             {}
func (Creating) sessionState()         {}
func (Editing) sessionState()          {}
func (ConfirmingDelete) sessionState() {}

func (Idle) String() string               { return "idle" }
func (Creating) String() string           { return "creating" }
func (s Editing) String() string          { return "editing(" + s.ID + ")" }
func (s ConfirmingDelete) String() string { return "confirming-delete(" + s.ID + ")" }
