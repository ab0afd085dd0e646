package notes

import "sync"

// EditTarget is the one note, if any, currently open for editing.
//
// Beginning an edit on another note replaces the previous target.
type EditTarget struct {
	mu     sync.Mutex
	id     int64
	active bool
}

// Begin marks id as the note being edited.
func (e *EditTarget) Begin(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id, e.active = id, true
}

// End clears the target.
func (e *EditTarget) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id, e.active = 0, false
}

// Current returns the note being edited and whether there is one.
func (e *EditTarget) Current() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id, e.active
}

// Is reports whether id is the note being edited.
func (e *EditTarget) Is(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && e.id == id
}
