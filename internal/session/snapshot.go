package session

import (
	"fmt"
	"time"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/layout"
)

// Snapshot captures the settled session. It fails with ErrMotionInFlight
// while any piece is moving.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord.Busy() {
		return Snapshot{}, errors.ErrMotionInFlight
	}
	return Snapshot{
		ID:       s.id,
		Width:    s.board.Width(),
		Height:   s.board.Height(),
		Layout:   layout.Format(s.board),
		Pieces:   s.pieces(),
		Selected: s.selected,
		SavedAt:  time.Now().UTC(),
	}, nil
}

// Restore rebuilds a session from a snapshot. The snapshot's id is kept
// unless an option overrides it.
func Restore(snap Snapshot, opts ...Option) (*Session, error) {
	b, err := board.GenerateBoard(snap.Width, snap.Height)
	if err != nil {
		return nil, err
	}
	for _, pi := range snap.Pieces {
		kind, ok := board.ParseKind(pi.Kind)
		if !ok {
			return nil, fmt.Errorf("piece #%d kind %q: %w", pi.ID, pi.Kind, errors.ErrInvalidLayout)
		}
		team, ok := board.ParseTeam(pi.Team)
		if !ok {
			return nil, fmt.Errorf("piece #%d team %q: %w", pi.ID, pi.Team, errors.ErrInvalidLayout)
		}
		mode, ok := board.ParseMode(pi.Mode)
		if !ok {
			return nil, fmt.Errorf("piece #%d mode %q: %w", pi.ID, pi.Mode, errors.ErrInvalidLayout)
		}
		if _, err := b.Restore(pi.ID, kind, team, pi.X, pi.Y, mode, board.NoPiece); err != nil {
			return nil, err
		}
	}
	// Escort links are set once every piece exists.
	for _, pi := range snap.Pieces {
		if pi.DefendTarget == board.NoPiece || b.Piece(pi.DefendTarget) == nil {
			continue
		}
		if err := b.SetDefendTarget(pi.ID, pi.DefendTarget); err != nil {
			return nil, err
		}
	}
	if snap.Layout != "" {
		if got := layout.Format(b); got != snap.Layout {
			return nil, fmt.Errorf("snapshot layout %q does not match pieces %q: %w", snap.Layout, got, errors.ErrInvalidLayout)
		}
	}

	s := New(b, append([]Option{WithID(snap.ID)}, opts...)...)
	if b.Piece(snap.Selected) != nil {
		s.selected = snap.Selected
		s.refreshHighlights()
	}
	return s, nil
}
