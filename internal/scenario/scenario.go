// Package scenario runs scripted sequences of commands against a session.
//
// A scenario is a JSON document naming a starting board, a list of steps and
// the expected final placement:
//
//	{
//	  "name": "rook crosses",
//	  "layout": "4/4/4/R3",
//	  "steps": [
//	    {"op": "mode", "at": [0, 0], "mode": "offence"},
//	    {"op": "move", "at": [0, 0], "to": [3, 3]},
//	    {"op": "settle"}
//	  ],
//	  "expect": {"layout": "3R/4/4/4"}
//	}
//
// Pieces are addressed by the tile they stand on when the step runs.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/layout"
)

// Operations understood by Run.
const (
	OpMove   = "move"
	OpMode   = "mode"
	OpToggle = "toggle"
	OpDefend = "defend"
	OpTick   = "tick"
	OpSettle = "settle"
	OpAdd    = "add"
	OpRemove = "remove"
	OpSelect = "select"
	OpClick  = "click"
)

// Point is a tile address written as [x, y].
type Point [2]int

// X returns the column.
func (p Point) X() int { return p[0] }

// Y returns the row.
func (p Point) Y() int { return p[1] }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p[0], p[1]) }

// Step is one scripted command.
type Step struct {
	Op    string `json:"op"`
	At    *Point `json:"at,omitempty"`
	To    *Point `json:"to,omitempty"`
	Ally  *Point `json:"ally,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Team  string `json:"team,omitempty"`
	Ticks int    `json:"ticks,omitempty"`
	// Fails marks a step whose command is expected to be rejected.
	Fails bool `json:"fails,omitempty"`
}

// Expect is checked once every step has run and motion has settled.
type Expect struct {
	Layout string `json:"layout,omitempty"`
}

// Scenario is a parsed script.
type Scenario struct {
	Name   string `json:"name"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Layout string `json:"layout,omitempty"`
	Steps  []Step `json:"steps"`
	Expect Expect `json:"expect"`

	// Source is the file the scenario was read from, if any.
	Source string `json:"-"`
}

// Load decodes and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %v: %w", err, errors.ErrInvalidScenario)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads a scenario from a file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Source = path
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Validate checks the board description and every step's arguments.
func (sc *Scenario) Validate() error {
	if sc.Layout != "" {
		w, h, _, err := layout.Scan(sc.Layout)
		if err != nil {
			return invalid("layout: %v", err)
		}
		if (sc.Width != 0 && sc.Width != w) || (sc.Height != 0 && sc.Height != h) {
			return invalid("layout is %dx%d, scenario says %dx%d", w, h, sc.Width, sc.Height)
		}
	} else if sc.Width < 1 || sc.Height < 1 {
		return invalid("need a layout or a positive width and height")
	} else if sc.Width > board.MaxSize || sc.Height > board.MaxSize {
		return invalid("board %dx%d exceeds %dx%d", sc.Width, sc.Height, board.MaxSize, board.MaxSize)
	}
	if sc.Expect.Layout != "" {
		if _, _, _, err := layout.Scan(sc.Expect.Layout); err != nil {
			return invalid("expect.layout: %v", err)
		}
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return invalid("step %d (%s): %v", i+1, st.Op, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	need := func(p *Point, name string) error {
		if p == nil {
			return fmt.Errorf("missing %q", name)
		}
		return nil
	}
	switch st.Op {
	case OpMove:
		if err := need(st.At, "at"); err != nil {
			return err
		}
		return need(st.To, "to")
	case OpMode:
		if _, ok := board.ParseMode(st.Mode); !ok {
			return fmt.Errorf("unknown mode %q", st.Mode)
		}
		return need(st.At, "at")
	case OpToggle, OpDefend, OpRemove, OpSelect, OpClick:
		return need(st.At, "at")
	case OpAdd:
		if _, ok := board.ParseKind(st.Kind); !ok {
			return fmt.Errorf("unknown kind %q", st.Kind)
		}
		if _, ok := board.ParseTeam(st.Team); !ok {
			return fmt.Errorf("unknown team %q", st.Team)
		}
		return need(st.At, "at")
	case OpTick, OpSettle:
		if st.Ticks < 0 {
			return fmt.Errorf("negative ticks")
		}
		return nil
	}
	return fmt.Errorf("unknown op; want one of %s", strings.Join(ops, ", "))
}

var ops = []string{OpMove, OpMode, OpToggle, OpDefend, OpTick, OpSettle, OpAdd, OpRemove, OpSelect, OpClick}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errors.ErrInvalidScenario)
}
