package schedule

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two half-open windows intersect. A window that
// merely touches another's boundary does not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// AnyConflict reports whether candidate overlaps any of the existing windows,
// short-circuiting on the first hit.
func AnyConflict(candidate Window, existing []Window) bool {
	for _, w := range existing {
		if candidate.Overlaps(w) {
			return true
		}
	}
	return false
}
