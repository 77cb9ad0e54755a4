// Package session owns one board together with its motion coordinator and
// the selection state a presentation layer works against. Every exported
// method is safe for concurrent use.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/layout"
	"github.com/lgbarn/escort-chess-go/internal/motion"
	"github.com/lgbarn/escort-chess-go/internal/movement"
	"github.com/lgbarn/escort-chess-go/internal/route"
)

// Session is an explicitly owned game context.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	created time.Time
	log     zerolog.Logger
	board   *board.Board
	coord   *motion.Coordinator

	selected   board.PieceID
	highlights []board.Coord
	pending    []motion.Event
}

// Option configures a Session.
type Option func(*options)

type options struct {
	id     uuid.UUID
	speed  float64
	logger zerolog.Logger
}

// WithID fixes the session id instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}

// WithSpeed sets the traversal speed in tiles per second.
func WithSpeed(tilesPerSecond float64) Option {
	return func(o *options) { o.speed = tilesPerSecond }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New wraps an existing board in a session.
func New(b *board.Board, opts ...Option) *Session {
	o := options{speed: motion.DefaultSpeed, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}
	s := &Session{
		id:      o.id,
		created: time.Now(),
		board:   b,
	}
	s.log = o.logger.With().Str("session", s.id.String()).Logger()
	s.coord = motion.NewCoordinator(b,
		motion.WithSpeed(o.speed),
		motion.WithLogger(s.log),
		motion.WithObserver(func(e motion.Event) { s.pending = append(s.pending, e) }),
	)
	return s
}

// NewFromLayout builds a board from a layout string and wraps it.
func NewFromLayout(s string, opts ...Option) (*Session, error) {
	b, err := layout.Parse(s)
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}

// NewEmpty builds an empty width x height board and wraps it.
func NewEmpty(width, height int, opts ...Option) (*Session, error) {
	b, err := board.GenerateBoard(width, height)
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Created returns when the session was created.
func (s *Session) Created() time.Time { return s.created }

// Size returns the board dimensions.
func (s *Session) Size() (width, height int) {
	return s.board.Width(), s.board.Height()
}

// GetTile returns a copy of the tile at (x, y). ok is false out of bounds.
func (s *Session) GetTile(x, y int) (info TileInfo, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.board.TileAt(x, y)
	if t == nil {
		return TileInfo{}, false
	}
	return tileInfo(t), true
}

// Piece returns a copy of a live piece.
func (s *Session) Piece(id board.PieceID) (PieceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.piece(id)
	if err != nil {
		return PieceInfo{}, err
	}
	return pieceInfo(p), nil
}

// PieceAt returns the piece standing on (x, y).
func (s *Session) PieceAt(x, y int) (PieceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.board.TileAt(x, y)
	if t == nil {
		return PieceInfo{}, fmt.Errorf("(%d,%d): %w", x, y, errors.ErrOutOfBounds)
	}
	p := s.board.Occupant(t)
	if p == nil {
		return PieceInfo{}, fmt.Errorf("no piece at (%d,%d): %w", x, y, errors.ErrUnknownPiece)
	}
	return pieceInfo(p), nil
}

// Pieces returns copies of every live piece in placement order.
func (s *Session) Pieces() []PieceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pieces()
}

func (s *Session) pieces() []PieceInfo {
	ps := s.board.Pieces()
	out := make([]PieceInfo, len(ps))
	for i, p := range ps {
		out[i] = pieceInfo(p)
	}
	return out
}

// SelectOutcome tells what a selection did.
type SelectOutcome int

const (
	// Selected means the piece became the current selection.
	Selected SelectOutcome = iota
	// DefendAssigned means the piece became the defend target of the
	// current selection, which is unchanged.
	DefendAssigned
)

func (o SelectOutcome) String() string {
	if o == DefendAssigned {
		return "defend_assigned"
	}
	return "selected"
}

// SelectPiece handles a direct selection of a piece. When the current
// selection is in Defence mode and id is a different piece of its team, id
// becomes the selection's defend target. Otherwise id becomes the selection,
// its defend target is cleared and its legal moves are highlighted.
func (s *Session) SelectPiece(id board.PieceID) (SelectOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPiece(id)
}

func (s *Session) selectPiece(id board.PieceID) (SelectOutcome, error) {
	p, err := s.piece(id)
	if err != nil {
		return Selected, err
	}

	if cur := s.board.Piece(s.selected); cur != nil && cur.ID != p.ID &&
		cur.Mode() == board.Defence && cur.Team == p.Team {
		if err := s.board.SetDefendTarget(cur.ID, p.ID); err != nil {
			return Selected, err
		}
		s.debugPiece(cur).Int("ward", int(p.ID)).Msg("defend target assigned")
		return DefendAssigned, nil
	}

	p.ClearDefendTarget()
	s.selected = p.ID
	s.refreshHighlights()
	s.debugPiece(p).Int("moves", len(s.highlights)).Msg("piece selected")
	return Selected, nil
}

// SelectPieceByKind selects the first White piece of the kind in placement
// order.
func (s *Session) SelectPieceByKind(kind board.Kind) (SelectOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.board.FirstOfKind(kind, board.White)
	if p == nil {
		return Selected, fmt.Errorf("no White %s: %w", kind, errors.ErrUnknownPiece)
	}
	return s.selectPiece(p.ID)
}

// Selected returns the current selection.
func (s *Session) Selected() (PieceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.board.Piece(s.selected)
	if p == nil {
		return PieceInfo{}, false
	}
	return pieceInfo(p), true
}

// Highlights returns the legal moves of the current selection.
func (s *Session) Highlights() []board.Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]board.Coord(nil), s.highlights...)
}

// ClearSelection drops the selection and its highlights.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = board.NoPiece
	s.highlights = nil
}

// GetLegalMoves returns the one-move reachable set of a piece.
func (s *Session) GetLegalMoves(id board.PieceID) ([]board.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.piece(id)
	if err != nil {
		return nil, err
	}
	return coords(movement.LegalMoves(s.board, p)), nil
}

// RequestMove resolves a path for the piece to (x, y) and commits it. The
// piece's defend target is cleared first; Defence mode trims the path by one
// move. The call returns once the path is reserved; motion happens on Tick.
func (s *Session) RequestMove(id board.PieceID, x, y int) ([]board.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestMove(id, x, y)
}

func (s *Session) requestMove(id board.PieceID, x, y int) ([]board.Coord, error) {
	p, err := s.piece(id)
	if err != nil {
		return nil, err
	}
	moveErr := func(err error) error {
		return &errors.MoveError{
			Err:   err,
			Piece: int(p.ID),
			Kind:  p.Kind.String(),
			FromX: p.X(), FromY: p.Y(),
			ToX: x, ToY: y,
		}
	}

	target := s.board.TileAt(x, y)
	if target == nil {
		return nil, moveErr(errors.ErrOutOfBounds)
	}
	if s.coord.Active(p.ID) != nil {
		return nil, moveErr(errors.ErrMotionInFlight)
	}

	p.ClearDefendTarget()
	path := route.Resolve(s.board, p, target, p.Mode() == board.Defence)
	if len(path) == 0 {
		s.log.Info().Int("piece", int(p.ID)).Int("to_x", x).Int("to_y", y).Msg("no path")
		return nil, moveErr(errors.ErrNoPath)
	}
	if _, err := s.coord.Commit(p, path); err != nil {
		return nil, moveErr(err)
	}
	s.debugPiece(p).Int("len", len(path)).Str("mode", p.Mode().String()).Msg("move requested")
	return path.Coords(), nil
}

// MoveSelected moves the current selection to (x, y) and clears the
// selection once the move is committed.
func (s *Session) MoveSelected(x, y int) ([]board.Coord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveSelected(x, y)
}

func (s *Session) moveSelected(x, y int) ([]board.Coord, error) {
	if s.board.Piece(s.selected) == nil {
		return nil, errors.ErrNoSelection
	}
	path, err := s.requestMove(s.selected, x, y)
	if err != nil {
		return nil, err
	}
	s.selected = board.NoPiece
	s.highlights = nil
	return path, nil
}

// ClickResult reports what a tile click did.
type ClickResult struct {
	Outcome string        `json:"outcome"`
	Piece   board.PieceID `json:"piece,omitempty"`
	Path    []board.Coord `json:"path,omitempty"`
}

// Click handles a click on tile (x, y): a piece on the tile is selected,
// an empty tile is the destination of the current selection.
func (s *Session) Click(x, y int) (ClickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.board.TileAt(x, y)
	if t == nil {
		return ClickResult{}, fmt.Errorf("click (%d,%d): %w", x, y, errors.ErrOutOfBounds)
	}
	if p := s.board.Occupant(t); p != nil {
		out, err := s.selectPiece(p.ID)
		if err != nil {
			return ClickResult{}, err
		}
		return ClickResult{Outcome: out.String(), Piece: p.ID}, nil
	}
	mover := s.selected
	path, err := s.moveSelected(x, y)
	if err != nil {
		return ClickResult{}, err
	}
	return ClickResult{Outcome: "moved", Piece: mover, Path: path}, nil
}

// ToggleMode flips a piece's mode and clears its defend target.
func (s *Session) ToggleMode(id board.PieceID) (board.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.piece(id)
	if err != nil {
		return board.Defence, err
	}
	m := p.ToggleMode()
	p.ClearDefendTarget()
	s.debugPiece(p).Str("mode", m.String()).Msg("mode toggled")
	return m, nil
}

// SetMode sets a piece's mode and clears its defend target.
func (s *Session) SetMode(id board.PieceID, m board.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.piece(id)
	if err != nil {
		return err
	}
	p.SetMode(m)
	p.ClearDefendTarget()
	s.debugPiece(p).Str("mode", m.String()).Msg("mode set")
	return nil
}

// SetDefendTarget assigns ally as the piece's escort target; NoPiece clears it.
func (s *Session) SetDefendTarget(id, ally board.PieceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.board.SetDefendTarget(id, ally); err != nil {
		return err
	}
	if p := s.board.Piece(id); p != nil {
		s.debugPiece(p).Int("ward", int(ally)).Msg("defend target set")
	}
	return nil
}

// AddPiece places a new piece on an empty tile.
func (s *Session) AddPiece(kind board.Kind, team board.Team, x, y int) (PieceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.board.Place(kind, team, x, y)
	if err != nil {
		return PieceInfo{}, err
	}
	s.refreshHighlights()
	s.debugPiece(p).Msg("piece added")
	return pieceInfo(p), nil
}

// RemovePiece takes a piece off the board. Its traversal, if any, stops
// without a cascade; its reservations, the selection and every escort
// assignment naming it are cleared.
func (s *Session) RemovePiece(id board.PieceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.piece(id)
	if err != nil {
		return err
	}
	s.debugPiece(p).Msg("piece removed")
	s.coord.Abort(id)
	if err := s.board.Remove(id); err != nil {
		return err
	}
	if s.selected == id {
		s.selected = board.NoPiece
	}
	s.refreshHighlights()
	return nil
}

// Tick advances motion by dt seconds and returns the events emitted since
// the previous call, command-triggered ones included.
func (s *Session) Tick(dt float64) []motion.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord.Busy() {
		s.coord.Tick(dt)
		s.refreshHighlights()
	}
	return s.drain()
}

// Settle ticks with dt until no motion is in flight or maxTicks is spent.
func (s *Session) Settle(dt float64, maxTicks int) ([]motion.Event, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.coord.RunUntilIdle(dt, maxTicks)
	s.refreshHighlights()
	return s.drain(), n
}

// Busy reports whether any piece is moving.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord.Busy()
}

// Layout returns the placement in layout notation.
func (s *Session) Layout() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.Format(s.board)
}

// State returns a copy of the whole session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:         s.id,
		Width:      s.board.Width(),
		Height:     s.board.Height(),
		Layout:     layout.Format(s.board),
		Pieces:     s.pieces(),
		Selected:   s.selected,
		Highlights: append([]board.Coord(nil), s.highlights...),
	}
	for _, t := range s.coord.Tasks() {
		st.Motions = append(st.Motions, motionInfo(t))
	}
	return st
}

// Inspect runs fn with the board under the session lock. fn must not keep
// the board or mutate it.
func (s *Session) Inspect(fn func(b *board.Board)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.board)
}

// CheckInvariants verifies the board's occupancy bookkeeping.
func (s *Session) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.CheckInvariants()
}

func (s *Session) piece(id board.PieceID) (*board.Piece, error) {
	p := s.board.Piece(id)
	if p == nil {
		return nil, fmt.Errorf("piece #%d: %w", id, errors.ErrUnknownPiece)
	}
	return p, nil
}

func (s *Session) refreshHighlights() {
	p := s.board.Piece(s.selected)
	if p == nil {
		s.selected = board.NoPiece
		s.highlights = nil
		return
	}
	s.highlights = coords(movement.LegalMoves(s.board, p))
}

func (s *Session) drain() []motion.Event {
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) debugPiece(p *board.Piece) *zerolog.Event {
	return s.log.Debug().
		Int("piece", int(p.ID)).
		Str("kind", p.Kind.String()).
		Str("team", p.Team.String()).
		Int("x", p.X()).
		Int("y", p.Y())
}

func coords(tiles []*board.Tile) []board.Coord {
	out := make([]board.Coord, len(tiles))
	for i, t := range tiles {
		out[i] = t.Coord()
	}
	return out
}
