// Package lifecycle defines the fixed sequence of listing stages an item
// moves through, from preparation to the buyer receiving it.
package lifecycle

import (
	"errors"
	"fmt"
)

// Stage is a listing stage as stored in the database.
type Stage string

// Stages, in order.
const (
	Preparing         Stage = "preparing"
	Listed            Stage = "listed"
	PreparingShipment Stage = "preparing_shipment"
	Shipped           Stage = "shipped"
	Received          Stage = "received"
)

var stages = [...]Stage{Preparing, Listed, PreparingShipment, Shipped, Received}

var labels = map[Stage]string{
	Preparing:         "Preparing to list",
	Listed:            "Listed",
	PreparingShipment: "Preparing to ship",
	Shipped:           "Shipped",
	Received:          "Received",
}

// ErrUnknownStage is returned when a stage is not part of the sequence.
var ErrUnknownStage = errors.New("unknown stage")

// Direction selects which neighbouring stage Move goes to.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// All returns the stages in order.
func All() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages[:])
	return out
}

// First returns the stage new items start in.
func First() Stage { return stages[0] }

// Last returns the terminal stage.
func Last() Stage { return stages[len(stages)-1] }

// Index returns the position of s in the sequence.
func Index(s Stage) (int, bool) {
	for i, st := range stages {
		if st == s {
			return i, true
		}
	}
	return -1, false
}

// Valid reports whether s is one of the known stages.
func Valid(s Stage) bool {
	_, ok := Index(s)
	return ok
}

// Label returns the display name of s, or the raw value for unknown stages.
func Label(s Stage) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Advance returns the stage after s. The terminal stage advances to itself.
func Advance(s Stage) (Stage, error) {
	return Move(s, Forward)
}

// Retreat returns the stage before s. The first stage retreats to itself.
// Retreating from the terminal stage is allowed.
func Retreat(s Stage) (Stage, error) {
	return Move(s, Backward)
}

// Move returns the neighbour of s in the given direction, or s itself when
// there is none.
func Move(s Stage, d Direction) (Stage, error) {
	i, ok := Index(s)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}

	switch d {
	case Forward:
		if i < len(stages)-1 {
			return stages[i+1], nil
		}
	case Backward:
		if i > 0 {
			return stages[i-1], nil
		}
	default:
		return s, fmt.Errorf("invalid direction %v", d)
	}
	return s, nil
}

// Next returns the stage after s, if any.
func Next(s Stage) (Stage, bool) {
	i, ok := Index(s)
	if !ok || i+1 >= len(stages) {
		return "", false
	}
	return stages[i+1], true
}

// NextLabel returns the display name of the stage after s. It is empty for
// the terminal stage and for unknown stages.
func NextLabel(s Stage) (string, bool) {
	next, ok := Next(s)
	if !ok {
		return "", false
	}
	return Label(next), true
}

// IsCompleted reports whether s is the terminal stage.
func IsCompleted(s Stage) bool {
	return s == Last()
}

// IsActive reports whether s is a known stage short of the terminal one.
func IsActive(s Stage) bool {
	return Valid(s) && !IsCompleted(s)
}
