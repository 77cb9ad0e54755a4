package motion

import (
	"fmt"

	"github.com/lgbarn/escort-chess-go/internal/board"
)

// EventKind classifies a motion event.
type EventKind int

const (
	EventCommitted EventKind = iota
	EventStepStarted
	EventStepCompleted
	EventHalted
	EventCompleted
	EventReleased
	EventCascadeIssued
	EventCascadeSkipped
)

var eventNames = [...]string{
	EventCommitted:      "committed",
	EventStepStarted:    "step_started",
	EventStepCompleted:  "step_completed",
	EventHalted:         "halted",
	EventCompleted:      "completed",
	EventReleased:       "released",
	EventCascadeIssued:  "cascade_issued",
	EventCascadeSkipped: "cascade_skipped",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *EventKind) UnmarshalText(text []byte) error {
	for i, name := range eventNames {
		if name == string(text) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event reports one transition of a motion task.
//
// X and Y are the piece's tile after the transition. Step is the index into
// Path the event refers to. For cascade events Piece is the escort and Cause
// is the piece whose motion triggered it.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Piece  board.PieceID `json:"piece"`
	X      int           `json:"x"`
	Y      int           `json:"y"`
	Step   int           `json:"step"`
	Path   []board.Coord `json:"path,omitempty"`
	Cause  board.PieceID `json:"cause,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// Observer receives events synchronously, in emission order.
type Observer func(Event)
