package pm

import "sync"

// Visibility tracks which records currently show their password.
// It lives beside the records, keyed by id, and is never persisted.
// A nil *Visibility reports every password as hidden.
type Visibility struct {
	mu      sync.Mutex
	visible map[string]bool
}

// NewVisibility creates an empty visibility mapping.
func NewVisibility() *Visibility {
	return &Visibility{visible: make(map[string]bool)}
}

// Toggle flips the flag for id and returns the new value.
func (v *Visibility) Toggle(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.visible[id] {
		delete(v.visible, id)
		return false
	}
	v.visible[id] = true
	return true
}

// Show marks id as visible.
func (v *Visibility) Show(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible[id] = true
}

// Visible reports whether id is marked visible.
func (v *Visibility) Visible(id string) bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible[id]
}

// Forget drops the flag for id.
func (v *Visibility) Forget(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.visible, id)
}

// Prune drops every flag whose id is not in live.
func (v *Visibility) Prune(live []string) {
	keep := make(map[string]struct{}, len(live))
	for _, id := range live {
		keep[id] = struct{}{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for id := range v.visible {
		if _, ok := keep[id]; !ok {
			delete(v.visible, id)
		}
	}
}

// Clear drops every flag.
func (v *Visibility) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.visible)
}
