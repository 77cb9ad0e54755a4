package testutil

import (
	"testing"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/layout"
	"github.com/lgbarn/escort-chess-go/internal/motion"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

// Tick is the time step fixtures settle motion with.
const Tick = 1.0 / 60

// MustLayout builds a board from a layout string.
// It calls t.Fatal if the layout does not parse.
func MustLayout(t testing.TB, s string) *board.Board {
	t.Helper()
	b, err := layout.Parse(s)
	if err != nil {
		t.Fatalf("layout %q: %v", s, err)
	}
	return b
}

// MustSession builds a session from a layout string.
func MustSession(t testing.TB, s string, opts ...session.Option) *session.Session {
	t.Helper()
	sess, err := session.NewFromLayout(s, opts...)
	if err != nil {
		t.Fatalf("session %q: %v", s, err)
	}
	return sess
}

// PieceAt returns the piece on (x, y) of b, failing the test if the tile is
// empty.
func PieceAt(t testing.TB, b *board.Board, x, y int) *board.Piece {
	t.Helper()
	p := b.Occupant(b.TileAt(x, y))
	if p == nil {
		t.Fatalf("no piece at (%d,%d)", x, y)
	}
	return p
}

// SessionPiece returns the id of the piece on (x, y) of a session.
func SessionPiece(t testing.TB, s *session.Session, x, y int) board.PieceID {
	t.Helper()
	info, err := s.PieceAt(x, y)
	if err != nil {
		t.Fatalf("piece at (%d,%d): %v", x, y, err)
	}
	return info.ID
}

// Settle ticks a session until motion stops and returns the events.
// It calls t.Fatal if motion is still in flight after maxTicks.
func Settle(t testing.TB, s *session.Session, maxTicks int) []motion.Event {
	t.Helper()
	events, n := s.Settle(Tick, maxTicks)
	if s.Busy() {
		t.Fatalf("motion still in flight after %d ticks", n)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("invariants after settling: %v", err)
	}
	return events
}
