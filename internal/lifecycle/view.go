package lifecycle

import "fmt"

// View selects one of the two item lists: items still in progress, or
// items whose buyer has received them.
type View string

const (
	ViewActive    View = "active"
	ViewCompleted View = "completed"
)

// ParseView parses a view name. An empty name selects ViewActive.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewCompleted:
		return ViewCompleted, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Includes reports whether an item in stage s belongs in the view.
// Unknown stages are never completed, so they show up as active.
func (v View) Includes(s Stage) bool {
	if v == ViewCompleted {
		return IsCompleted(s)
	}
	return !IsCompleted(s)
}
