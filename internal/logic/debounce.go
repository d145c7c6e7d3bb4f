package logic

import "time"

// DefaultQuietInterval is the default debounce window per button.
const DefaultQuietInterval = 50 * time.Millisecond

// Debouncer turns raw button edges into logical presses. An edge is accepted
// only if the quiet interval has elapsed since the previous accepted edge on
// the same button.
type Debouncer struct {
	quiet    time.Duration
	last     map[Button]time.Time
	accepted int
	bounced  int
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		last:  make(map[Button]time.Time),
	}
}

// Accept reports whether edge counts as a press.
func (d *Debouncer) Accept(edge Edge) bool {
	if prev, ok := d.last[edge.Button]; ok && edge.At.Sub(prev) < d.quiet {
		d.bounced++
		return false
	}
	d.last[edge.Button] = edge.At
	d.accepted++
	return true
}

// Filter returns the presses among edges, in order.
func (d *Debouncer) Filter(edges []Edge) []Button {
	var presses []Button
	for _, e := range edges {
		if d.Accept(e) {
			presses = append(presses, e.Button)
		}
	}
	return presses
}

// Counts returns the number of accepted and rejected edges since creation.
func (d *Debouncer) Counts() (accepted, bounced int) {
	return d.accepted, d.bounced
}
