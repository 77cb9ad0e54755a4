package motion

import (
	"fmt"
	"math"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/route"
)

// Phase is the lifecycle state of one commit.
type Phase int

const (
	Idle Phase = iota
	PathValidated
	Reserved
	Moving
	Halted
	Completed
	Released
	CascadeEvaluated
)

var phaseNames = [...]string{
	Idle:             "idle",
	PathValidated:    "path_validated",
	Reserved:         "reserved",
	Moving:           "moving",
	Halted:           "halted",
	Completed:        "completed",
	Released:         "released",
	CascadeEvaluated: "cascade_evaluated",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Done reports whether the traversal is over.
func (p Phase) Done() bool {
	return p >= Halted
}

// Task is the in-flight traversal of one piece along a committed path.
type Task struct {
	piece board.PieceID
	kind  board.Kind
	path  route.Path

	phase Phase
	step  int // index of the tile being entered, or next to enter

	from      board.Coord // tile the current step leaves
	inStep    bool
	travelled float64 // tiles covered in the current step
}

// Piece returns the moving piece's id.
func (t *Task) Piece() board.PieceID { return t.piece }

// Phase returns the task's lifecycle state.
func (t *Task) Phase() Phase { return t.phase }

// Step returns the index of the path tile being entered, or the number of
// tiles reached once the task is done.
func (t *Task) Step() int { return t.step }

// Path returns the committed moves.
func (t *Task) Path() []board.Coord { return t.path.Coords() }

// Position returns the display position of the piece in tile units,
// interpolated along the current step.
func (t *Task) Position() (x, y float64) {
	fx, fy := float64(t.from.X), float64(t.from.Y)
	if !t.inStep || t.step >= len(t.path) {
		return fx, fy
	}
	to := t.path[t.step]
	d := stepLength(t.from, to.Coord())
	if d == 0 {
		return fx, fy
	}
	f := math.Min(t.travelled/d, 1)
	return fx + (float64(to.X)-fx)*f, fy + (float64(to.Y)-fy)*f
}

func stepLength(a, b board.Coord) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
