package display

import "sync"

// Fake records every frame shown.
type Fake struct {
	mu     sync.Mutex
	frames []Frame

	// ShowError, if set, will be returned by Show.
	ShowError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake display.
func NewFake() *Fake {
	return &Fake{}
}

// Show records the frame.
func (f *Fake) Show(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ShowError != nil {
		return f.ShowError
	}
	f.frames = append(f.frames, fr)
	return nil
}

// Frames returns a copy of the frames shown.
func (f *Fake) Frames() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Frame(nil), f.frames...)
}

// Last returns the most recent frame and whether there was one.
func (f *Fake) Last() (Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return Frame{}, false
	}
	return f.frames[len(f.frames)-1], true
}

// Close marks the display as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
