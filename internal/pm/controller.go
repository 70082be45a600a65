package pm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pm-go/internal/model"
)

// Controller applies create, update and delete intents through a single form
// session. Every write goes through the Repository, which reloads its
// snapshot afterwards. A failed write leaves the session open with its form
// intact so the user can retry or cancel.
type Controller struct {
	repo       *Repository
	clock      Clock
	idgen      IDGenerator
	visibility *Visibility
	logger     Logger

	mu    sync.Mutex
	state SessionState
	form  model.RecordFields

	// inflight guards against a second submit while one is running.
	inflight sync.Mutex
}

// NewController creates a Controller in the Idle state. A nil visibility
// starts with every password hidden.
func NewController(repo *Repository, clock Clock, idgen IDGenerator, visibility *Visibility, logger Logger) *Controller {
	if visibility == nil {
		visibility = NewVisibility()
	}
	return &Controller{
		repo:       repo,
		clock:      clock,
		idgen:      idgen,
		visibility: visibility,
		logger:     logger,
		state:      Idle{},
	}
}

// Load refreshes the repository snapshot and drops visibility flags of
// records that no longer exist.
func (c *Controller) Load(ctx context.Context) error {
	records, err := c.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	c.pruneVisibility(records)
	return nil
}

// View derives the display list from the current snapshot.
func (c *Controller) View(query ViewQuery) []model.DisplayRecord {
	return View(c.repo.Records(), query, c.visibility)
}

// TogglePasswordVisibility flips the visible flag of record id.
func (c *Controller) TogglePasswordVisibility(id string) bool {
	return c.visibility.Toggle(id)
}

// State returns the current session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Form returns the fields of the open form.
func (c *Controller) Form() model.RecordFields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// BeginCreate opens an empty form for a new record.
func (c *Controller) BeginCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Idle); !ok {
		return fmt.Errorf("new entry while %s: %w", c.state, ErrInvalidTransition)
	}
	c.state = Creating{}
	c.form = model.RecordFields{}
	c.logger.Debug("session opened", "state", c.state.String())
	return nil
}

// BeginEdit opens a form pre-populated with the current values of record id,
// including its password.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Idle); !ok {
		return fmt.Errorf("edit while %s: %w", c.state, ErrInvalidTransition)
	}
	rec, ok := c.repo.Find(id)
	if !ok {
		return fmt.Errorf("editing %s: %w", id, ErrNotFound)
	}
	c.state = Editing{ID: id}
	c.form = rec.Fields()
	c.logger.Debug("session opened", "state", c.state.String())
	return nil
}

// SetForm replaces the fields of the open form.
func (c *Controller) SetForm(fields model.RecordFields) error {
	return c.EditForm(func(f *model.RecordFields) { *f = fields })
}

// EditForm applies fn to the fields of the open form.
func (c *Controller) EditForm(fn func(*model.RecordFields)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.formOpen() {
		return ErrNoSession
	}
	fn(&c.form)
	return nil
}

// FillGeneratedPassword puts a generated password into the open form and
// returns it. Nothing is persisted until Submit.
func (c *Controller) FillGeneratedPassword() (string, error) {
	password, err := GeneratePassword()
	if err != nil {
		return "", err
	}
	if err := c.EditForm(func(f *model.RecordFields) { f.Password = password }); err != nil {
		return "", err
	}
	return password, nil
}

// Cancel closes any open form or delete confirmation without writing.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.(Idle); !ok {
		c.logger.Debug("session cancelled", "state", c.state.String())
	}
	c.reset()
}

// Submit writes the open form. In Creating it assigns a new id and sets both
// timestamps to now; in Editing it replaces the mutable fields and sets
// updated_at to now, leaving id and created_at untouched. It returns the id
// of the written record. On success the session returns to Idle. The session
// also closes when the write was committed but the reload failed
// (ErrStaleSnapshot), so a retry cannot store the record twice.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	if !c.inflight.TryLock() {
		return "", ErrBusy
	}
	defer c.inflight.Unlock()

	c.mu.Lock()
	state, form := c.state, c.form
	c.mu.Unlock()

	var (
		id  string
		err error
	)
	switch s := state.(type) {
	case Creating:
		id = c.idgen.New()
		now := FormatTimestamp(c.clock.Now())
		rec := model.CredentialRecord{
			ID:        id,
			Title:     form.Title,
			Username:  form.Username,
			Password:  form.Password,
			Website:   form.Website,
			Email:     form.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = c.repo.Create(ctx, rec); err != nil {
			err = fmt.Errorf("saving new entry: %w", err)
		}
	case Editing:
		id = s.ID
		now := FormatTimestamp(c.clock.Now())
		if err = c.repo.Update(ctx, id, form, now); err != nil {
			err = fmt.Errorf("saving entry %s: %w", id, err)
		}
	default:
		return "", fmt.Errorf("submit while %s: %w", state, ErrNoSession)
	}
	if err != nil && !errors.Is(err, ErrStaleSnapshot) {
		return "", err
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
	return id, err
}

// RequestDelete asks for confirmation before deleting record id.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Idle); !ok {
		return fmt.Errorf("delete while %s: %w", c.state, ErrInvalidTransition)
	}
	c.state = ConfirmingDelete{ID: id}
	c.logger.Debug("session opened", "state", c.state.String())
	return nil
}

// ConfirmDelete deletes the record awaiting confirmation and clears its
// visibility flag. The session returns to Idle once the id is known to be
// gone: on success, on ErrNotFound and on ErrStaleSnapshot.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	if !c.inflight.TryLock() {
		return ErrBusy
	}
	defer c.inflight.Unlock()

	c.mu.Lock()
	s, ok := c.state.(ConfirmingDelete)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("confirm delete: %w", ErrNoSession)
	}

	err := c.repo.Delete(ctx, s.ID)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		c.visibility.Forget(s.ID)
		c.pruneVisibility(c.repo.Records())
	case errors.Is(err, ErrStaleSnapshot):
		c.visibility.Forget(s.ID)
	default:
		return fmt.Errorf("deleting entry %s: %w", s.ID, err)
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting entry %s: %w", s.ID, err)
	}
	return nil
}

func (c *Controller) formOpen() bool {
	switch c.state.(type) {
	case Creating, Editing:
		return true
	}
	return false
}

// reset must be called with c.mu held.
func (c *Controller) reset() {
	c.state = Idle{}
	c.form = model.RecordFields{}
}

func (c *Controller) pruneVisibility(records []model.CredentialRecord) {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	c.visibility.Prune(ids)
}
