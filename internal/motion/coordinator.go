// Package motion runs committed paths as stepwise traversals. It owns tile
// reservations for the lifetime of a traversal and re-paths escorts once the
// piece they defend has come to rest.
package motion

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/route"
)

// DefaultSpeed is the traversal speed in tiles per second.
const DefaultSpeed = 3.0

// Coordinator advances every in-flight task of one board. It is driven by
// Tick and is not safe for concurrent use.
type Coordinator struct {
	board    *board.Board
	speed    float64
	log      zerolog.Logger
	observer Observer

	tasks []*Task // in commit order
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSpeed sets the traversal speed in tiles per second.
func WithSpeed(tilesPerSecond float64) Option {
	return func(c *Coordinator) {
		if tilesPerSecond > 0 {
			c.speed = tilesPerSecond
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithObserver registers the event sink.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// NewCoordinator returns a coordinator for b.
func NewCoordinator(b *board.Board, opts ...Option) *Coordinator {
	c := &Coordinator{
		board: b,
		speed: DefaultSpeed,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether any task is in flight.
func (c *Coordinator) Busy() bool {
	return len(c.tasks) > 0
}

// Tasks returns the in-flight tasks in commit order.
func (c *Coordinator) Tasks() []*Task {
	out := make([]*Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Active returns the in-flight task of a piece, or nil.
func (c *Coordinator) Active(id board.PieceID) *Task {
	for _, t := range c.tasks {
		if t.piece == id && t.phase != CascadeEvaluated {
			return t
		}
	}
	return nil
}

// Commit validates path for p and reserves every tile of it. A tile is
// acceptable when it is empty or holds p's ward, and is unreserved or
// reserved by the ward. Any failure rejects the whole commit and leaves the
// board untouched. The returned task starts moving on the next Tick.
func (c *Coordinator) Commit(p *board.Piece, path route.Path) (*Task, error) {
	if p == nil || c.board.Piece(p.ID) != p {
		return nil, errors.ErrUnknownPiece
	}
	if len(path) == 0 {
		return nil, errors.ErrNoPath
	}
	if c.Active(p.ID) != nil {
		return nil, errors.ErrMotionInFlight
	}

	ward := board.NoPiece
	if w := c.board.Ward(p); w != nil {
		ward = w.ID
	}
	for _, tile := range path {
		if tile == nil || c.board.TileAt(tile.X, tile.Y) != tile {
			return nil, errors.ErrOutOfBounds
		}
		if occ := tile.Occupant(); occ != board.NoPiece && occ != ward {
			c.logPiece(c.log.Info(), p).
				Int("tile_x", tile.X).Int("tile_y", tile.Y).
				Int("occupant", int(occ)).
				Msg("commit rejected: tile occupied")
			return nil, fmt.Errorf("tile (%d,%d) occupied by #%d: %w", tile.X, tile.Y, occ, errors.ErrPathBlocked)
		}
		if r := tile.ReservedBy(); r != board.NoPiece && r != ward && r != p.ID {
			c.logPiece(c.log.Info(), p).
				Int("tile_x", tile.X).Int("tile_y", tile.Y).
				Int("reserved_by", int(r)).
				Msg("commit rejected: tile reserved")
			return nil, fmt.Errorf("tile (%d,%d) reserved by #%d: %w", tile.X, tile.Y, r, errors.ErrPathBlocked)
		}
	}

	t := &Task{
		piece: p.ID,
		kind:  p.Kind,
		path:  append(route.Path(nil), path...),
		phase: PathValidated,
		from:  p.Coord(),
	}
	for _, tile := range t.path {
		c.board.Reserve(tile, p.ID)
	}
	t.phase = Reserved
	c.tasks = append(c.tasks, t)

	c.logPiece(c.log.Debug(), p).Int("len", len(path)).Msg("path reserved")
	c.emit(Event{Kind: EventCommitted, Piece: p.ID, X: p.X(), Y: p.Y(), Path: t.path.Coords()})
	return t, nil
}

// Tick advances every task that was in flight when the call began by dt
// seconds. A task takes at most one step per tick; tasks committed during the
// tick, cascades included, begin on the next one.
func (c *Coordinator) Tick(dt float64) {
	if dt <= 0 || len(c.tasks) == 0 {
		return
	}
	for _, t := range c.Tasks() {
		if t.phase.Done() {
			continue
		}
		c.advance(t, dt)
		if t.phase.Done() {
			c.finish(t)
		}
	}
	c.prune()
}

// RunUntilIdle ticks with dt until no task is in flight or maxTicks is spent,
// and returns the number of ticks used.
func (c *Coordinator) RunUntilIdle(dt float64, maxTicks int) int {
	n := 0
	for c.Busy() && n < maxTicks {
		c.Tick(dt)
		n++
	}
	return n
}

// Abort drops a piece's task without releasing or cascading. It is used when
// the piece leaves the board; the board clears its reservations itself.
func (c *Coordinator) Abort(id board.PieceID) bool {
	for i, t := range c.tasks {
		if t.piece == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Coordinator) advance(t *Task, dt float64) {
	p := c.board.Piece(t.piece)
	if p == nil {
		t.phase = Halted
		return
	}
	if t.phase == Reserved {
		t.phase = Moving
	}

	if !t.inStep {
		if t.step >= len(t.path) {
			t.phase = Completed
			return
		}
		next := t.path[t.step]
		if c.blocked(p, next) {
			c.halt(t, p, next)
			return
		}
		t.from = p.Coord()
		t.inStep = true
		t.travelled = 0
		c.emit(Event{Kind: EventStepStarted, Piece: p.ID, X: p.X(), Y: p.Y(), Step: t.step})
	}

	next := t.path[t.step]
	t.travelled += c.speed * dt
	if t.travelled < stepLength(t.from, next.Coord()) {
		return
	}

	if c.blocked(p, next) {
		c.halt(t, p, next)
		return
	}
	c.board.Relocate(p, next)
	t.inStep = false
	t.from = p.Coord()
	c.logPiece(c.log.Debug(), p).Int("step", t.step).Msg("step reached")
	c.emit(Event{Kind: EventStepCompleted, Piece: p.ID, X: p.X(), Y: p.Y(), Step: t.step})
	t.step++
	if t.step == len(t.path) {
		t.phase = Completed
	}
}

// blocked reports whether next holds a piece other than the mover. The ward
// counts: an escort never displaces the piece it defends.
func (c *Coordinator) blocked(p *board.Piece, next *board.Tile) bool {
	occ := next.Occupant()
	return occ != board.NoPiece && occ != p.ID
}

func (c *Coordinator) halt(t *Task, p *board.Piece, next *board.Tile) {
	t.inStep = false
	t.from = p.Coord()
	t.phase = Halted
	c.logPiece(c.log.Debug(), p).
		Int("step", t.step).
		Int("blocker", int(next.Occupant())).
		Msg("motion halted")
	c.emit(Event{Kind: EventHalted, Piece: p.ID, X: p.X(), Y: p.Y(), Step: t.step, Cause: next.Occupant()})
}

// finish releases the task's reservations and evaluates escorts of the
// piece at its resting tile.
func (c *Coordinator) finish(t *Task) {
	p := c.board.Piece(t.piece)
	if p == nil {
		t.phase = CascadeEvaluated
		return
	}
	if t.phase == Completed {
		c.logPiece(c.log.Debug(), p).Int("len", len(t.path)).Msg("motion completed")
		c.emit(Event{Kind: EventCompleted, Piece: p.ID, X: p.X(), Y: p.Y(), Step: t.step})
	}

	released := 0
	for _, tile := range t.path {
		if c.board.Release(tile, p.ID) {
			released++
		}
	}
	t.phase = Released
	c.logPiece(c.log.Debug(), p).Int("released", released).Msg("reservations released")
	c.emit(Event{Kind: EventReleased, Piece: p.ID, X: p.X(), Y: p.Y(), Step: t.step})

	c.cascade(p)
	t.phase = CascadeEvaluated
}

// cascade re-paths every escort of mover, in placement order, towards the
// mover's resting tile with defence trimming.
func (c *Coordinator) cascade(mover *board.Piece) {
	rest := c.board.TileOf(mover)
	for _, escort := range c.board.Escorts(mover.ID) {
		skip := func(reason string) {
			c.logPiece(c.log.Debug(), escort).Int("ward", int(mover.ID)).Str("reason", reason).Msg("escort not moved")
			c.emit(Event{Kind: EventCascadeSkipped, Piece: escort.ID, X: escort.X(), Y: escort.Y(), Cause: mover.ID, Reason: reason})
		}
		if c.Active(escort.ID) != nil {
			skip("in flight")
			continue
		}
		path := route.Resolve(c.board, escort, rest, true)
		if len(path) == 0 {
			skip("no path")
			continue
		}
		if _, err := c.Commit(escort, path); err != nil {
			skip(err.Error())
			continue
		}
		c.logPiece(c.log.Debug(), escort).Int("ward", int(mover.ID)).Int("len", len(path)).Msg("escort following")
		c.emit(Event{Kind: EventCascadeIssued, Piece: escort.ID, X: escort.X(), Y: escort.Y(), Path: path.Coords(), Cause: mover.ID})
	}
}

func (c *Coordinator) prune() {
	live := c.tasks[:0]
	for _, t := range c.tasks {
		if t.phase != CascadeEvaluated {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(c.tasks); i++ {
		c.tasks[i] = nil
	}
	c.tasks = live
}

func (c *Coordinator) emit(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}

func (c *Coordinator) logPiece(e *zerolog.Event, p *board.Piece) *zerolog.Event {
	return e.Int("piece", int(p.ID)).
		Str("kind", p.Kind.String()).
		Str("team", p.Team.String()).
		Int("x", p.X()).
		Int("y", p.Y())
}
