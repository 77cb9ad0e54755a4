package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/lgbarn/escort-chess-go/internal/board"
	escerr "github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/layout"
	"github.com/lgbarn/escort-chess-go/internal/motion"
)

const dt = 1.0 / 60

func newSession(t *testing.T, s string) *Session {
	t.Helper()
	sess, err := NewFromLayout(s)
	if err != nil {
		t.Fatalf("NewFromLayout(%q) error: %v", s, err)
	}
	return sess
}

func idAt(t *testing.T, s *Session, x, y int) board.PieceID {
	t.Helper()
	p, err := s.PieceAt(x, y)
	if err != nil {
		t.Fatalf("PieceAt(%d,%d) error: %v", x, y, err)
	}
	return p.ID
}

func settle(t *testing.T, s *Session) []motion.Event {
	t.Helper()
	events, n := s.Settle(dt, 5000)
	if s.Busy() {
		t.Fatalf("session still busy after %d ticks", n)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("invariants after settle: %v", err)
	}
	return events
}

func TestGetTile(t *testing.T) {
	s := newSession(t, layout.Default)

	tile, ok := s.GetTile(0, 0)
	if !ok {
		t.Fatal("GetTile(0,0) not found")
	}
	if tile.Shade != "light" || tile.Occupant == board.NoPiece {
		t.Errorf("GetTile(0,0) = %+v, want light and occupied", tile)
	}
	if tile, _ := s.GetTile(1, 0); tile.Shade != "dark" {
		t.Errorf("GetTile(1,0).Shade = %q, want dark", tile.Shade)
	}
	for _, c := range [][2]int{{-1, 0}, {8, 0}, {0, 8}} {
		if _, ok := s.GetTile(c[0], c[1]); ok {
			t.Errorf("GetTile(%d,%d) found, want none", c[0], c[1])
		}
	}
}

func TestSelectPiece(t *testing.T) {
	// White rook (0,0), knight (3,0); black pawn (5,5).
	const setup = "8/8/5p2/8/8/8/8/R2N4"

	t.Run("selection highlights legal moves", func(t *testing.T) {
		s := newSession(t, setup)
		rook := idAt(t, s, 0, 0)
		out, err := s.SelectPiece(rook)
		if err != nil || out != Selected {
			t.Fatalf("SelectPiece() = %v, %v", out, err)
		}
		moves, _ := s.GetLegalMoves(rook)
		if diff := cmp.Diff(moves, s.Highlights()); diff != "" {
			t.Errorf("highlights mismatch (-legal +highlights):\n%s", diff)
		}
	})

	t.Run("defender selecting an ally assigns it", func(t *testing.T) {
		s := newSession(t, setup)
		rook, knight := idAt(t, s, 0, 0), idAt(t, s, 3, 0)
		if _, err := s.SelectPiece(rook); err != nil {
			t.Fatal(err)
		}
		out, err := s.SelectPiece(knight)
		if err != nil || out != DefendAssigned {
			t.Fatalf("SelectPiece(ally) = %v, %v; want defend_assigned", out, err)
		}
		sel, _ := s.Selected()
		if sel.ID != rook || sel.DefendTarget != knight {
			t.Errorf("selection = %+v, want rook escorting #%d", sel, knight)
		}
	})

	t.Run("attacker selecting an ally switches selection", func(t *testing.T) {
		s := newSession(t, setup)
		rook, knight := idAt(t, s, 0, 0), idAt(t, s, 3, 0)
		if err := s.SetMode(rook, board.Offence); err != nil {
			t.Fatal(err)
		}
		if _, err := s.SelectPiece(rook); err != nil {
			t.Fatal(err)
		}
		if out, _ := s.SelectPiece(knight); out != Selected {
			t.Errorf("outcome = %v, want selected", out)
		}
		if sel, _ := s.Selected(); sel.ID != knight {
			t.Errorf("selected #%d, want #%d", sel.ID, knight)
		}
	})

	t.Run("defender selecting an enemy switches selection", func(t *testing.T) {
		s := newSession(t, setup)
		rook, pawn := idAt(t, s, 0, 0), idAt(t, s, 5, 5)
		if _, err := s.SelectPiece(rook); err != nil {
			t.Fatal(err)
		}
		if out, _ := s.SelectPiece(pawn); out != Selected {
			t.Errorf("outcome = %v, want selected", out)
		}
	})

	t.Run("black defender selecting a black ally assigns it", func(t *testing.T) {
		s := newSession(t, "8/8/5pk1/8/8/8/8/R2N4")
		pawn, king := idAt(t, s, 5, 5), idAt(t, s, 6, 5)
		if _, err := s.SelectPiece(pawn); err != nil {
			t.Fatal(err)
		}
		out, err := s.SelectPiece(king)
		if err != nil || out != DefendAssigned {
			t.Fatalf("SelectPiece(ally) = %v, %v; want defend_assigned", out, err)
		}
		if p, _ := s.Piece(pawn); p.DefendTarget != king {
			t.Errorf("defend target = #%d, want #%d", p.DefendTarget, king)
		}
	})

	t.Run("direct selection clears own defend target", func(t *testing.T) {
		s := newSession(t, setup)
		rook, knight := idAt(t, s, 0, 0), idAt(t, s, 3, 0)
		if err := s.SetDefendTarget(rook, knight); err != nil {
			t.Fatal(err)
		}
		if _, err := s.SelectPiece(rook); err != nil {
			t.Fatal(err)
		}
		if p, _ := s.Piece(rook); p.DefendTarget != board.NoPiece {
			t.Errorf("defend target = #%d after selection, want none", p.DefendTarget)
		}
	})

	t.Run("unknown piece", func(t *testing.T) {
		s := newSession(t, setup)
		if _, err := s.SelectPiece(99); !errors.Is(err, escerr.ErrUnknownPiece) {
			t.Errorf("SelectPiece(99) error = %v, want ErrUnknownPiece", err)
		}
	})
}

func TestSelectPieceByKind(t *testing.T) {
	s := newSession(t, layout.Default)
	tests := []struct {
		kind board.Kind
		want board.Coord
	}{
		{board.Pawn, board.Coord{X: 0, Y: 1}},
		{board.Rook, board.Coord{X: 0, Y: 0}},
		{board.Knight, board.Coord{X: 1, Y: 0}},
		{board.Bishop, board.Coord{X: 2, Y: 0}},
		{board.King, board.Coord{X: 4, Y: 0}},
	}
	for _, tt := range tests {
		s.ClearSelection()
		if _, err := s.SelectPieceByKind(tt.kind); err != nil {
			t.Fatalf("SelectPieceByKind(%s) error: %v", tt.kind, err)
		}
		sel, _ := s.Selected()
		if got := (board.Coord{X: sel.X, Y: sel.Y}); got != tt.want || sel.Team != "White" {
			t.Errorf("SelectPieceByKind(%s) selected %s at %v, want White at %v", tt.kind, sel.Team, got, tt.want)
		}
	}

	empty := newSession(t, "8/8/8/8/8/8/8/8")
	if _, err := empty.SelectPieceByKind(board.King); !errors.Is(err, escerr.ErrUnknownPiece) {
		t.Errorf("SelectPieceByKind on empty board error = %v", err)
	}
}

func TestRequestMove(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		from     board.Coord
		offence  bool
		to       board.Coord
		wantPath []board.Coord
		wantEnd  board.Coord
	}{
		{
			name:   "offence reaches the target",
			layout: "8/8/8/8/8/8/8/K7", from: board.Coord{X: 0, Y: 0}, offence: true,
			to:       board.Coord{X: 2, Y: 2},
			wantPath: []board.Coord{{X: 1, Y: 1}, {X: 2, Y: 2}},
			wantEnd:  board.Coord{X: 2, Y: 2},
		},
		{
			name:   "defence stops one move short",
			layout: "8/8/8/8/8/8/8/K7", from: board.Coord{X: 0, Y: 0},
			to:       board.Coord{X: 2, Y: 2},
			wantPath: []board.Coord{{X: 1, Y: 1}},
			wantEnd:  board.Coord{X: 1, Y: 1},
		},
		{
			name:   "rook slides in one move",
			layout: "8/8/8/8/8/8/8/R7", from: board.Coord{X: 0, Y: 0}, offence: true,
			to:       board.Coord{X: 0, Y: 7},
			wantPath: []board.Coord{{X: 0, Y: 7}},
			wantEnd:  board.Coord{X: 0, Y: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newSession(t, tt.layout)
			id := idAt(t, s, tt.from.X, tt.from.Y)
			if tt.offence {
				if err := s.SetMode(id, board.Offence); err != nil {
					t.Fatal(err)
				}
			}
			path, err := s.RequestMove(id, tt.to.X, tt.to.Y)
			if err != nil {
				t.Fatalf("RequestMove() error: %v", err)
			}
			if diff := cmp.Diff(tt.wantPath, path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
			if !s.Busy() {
				t.Error("RequestMove did not leave motion in flight")
			}
			settle(t, s)
			p, _ := s.Piece(id)
			if got := (board.Coord{X: p.X, Y: p.Y}); got != tt.wantEnd {
				t.Errorf("piece rests at %v, want %v", got, tt.wantEnd)
			}
		})
	}
}

func TestRequestMove_Errors(t *testing.T) {
	tests := []struct {
		name    string
		layout  string
		from    board.Coord
		to      board.Coord
		prepare func(t *testing.T, s *Session)
		wantErr error
	}{
		{
			name:   "out of bounds",
			layout: "8/8/8/8/8/8/8/K7", from: board.Coord{X: 0, Y: 0}, to: board.Coord{X: 8, Y: 0},
			wantErr: escerr.ErrOutOfBounds,
		},
		{
			name:   "unreachable",
			layout: "8/8/8/8/8/8/PP6/KP6", from: board.Coord{X: 0, Y: 0}, to: board.Coord{X: 5, Y: 5},
			wantErr: escerr.ErrNoPath,
		},
		{
			name:   "single defence move trims to nothing",
			layout: "8/8/8/8/8/8/8/K7", from: board.Coord{X: 0, Y: 0}, to: board.Coord{X: 1, Y: 0},
			wantErr: escerr.ErrNoPath,
		},
		{
			name:   "path reserved by another mover",
			layout: "8/8/8/8/8/8/8/R6R", from: board.Coord{X: 0, Y: 0}, to: board.Coord{X: 5, Y: 0},
			prepare: func(t *testing.T, s *Session) {
				for _, id := range []board.PieceID{idAt(t, s, 0, 0), idAt(t, s, 7, 0)} {
					if err := s.SetMode(id, board.Offence); err != nil {
						t.Fatal(err)
					}
				}
				if _, err := s.RequestMove(idAt(t, s, 7, 0), 5, 0); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: escerr.ErrPathBlocked,
		},
		{
			name:   "piece already moving",
			layout: "8/8/8/8/8/8/8/R7", from: board.Coord{X: 0, Y: 0}, to: board.Coord{X: 0, Y: 3},
			prepare: func(t *testing.T, s *Session) {
				rook := idAt(t, s, 0, 0)
				if err := s.SetMode(rook, board.Offence); err != nil {
					t.Fatal(err)
				}
				if _, err := s.RequestMove(rook, 0, 6); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: escerr.ErrMotionInFlight,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newSession(t, tt.layout)
			if tt.prepare != nil {
				tt.prepare(t, s)
			}
			id := idAt(t, s, tt.from.X, tt.from.Y)
			_, err := s.RequestMove(id, tt.to.X, tt.to.Y)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestMove() error = %v, want %v", err, tt.wantErr)
			}
			var me *escerr.MoveError
			if !errors.As(err, &me) {
				t.Fatalf("error %T is not a MoveError", err)
			}
			if me.Piece != int(id) || me.ToX != tt.to.X || me.ToY != tt.to.Y {
				t.Errorf("MoveError = %+v, want piece #%d to (%d,%d)", me, id, tt.to.X, tt.to.Y)
			}
		})
	}
}

func TestRequestMove_ClearsDefendTarget(t *testing.T) {
	s := newSession(t, "8/8/8/8/8/8/8/K1N5")
	king, knight := idAt(t, s, 0, 0), idAt(t, s, 2, 0)
	if err := s.SetDefendTarget(king, knight); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RequestMove(king, 0, 3); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Piece(king); p.DefendTarget != board.NoPiece {
		t.Errorf("defend target = #%d after a direct move, want none", p.DefendTarget)
	}
}

func TestMoveSelectedAndClick(t *testing.T) {
	s := newSession(t, "8/8/8/8/8/8/8/K7")
	if _, err := s.MoveSelected(3, 3); !errors.Is(err, escerr.ErrNoSelection) {
		t.Fatalf("MoveSelected without selection error = %v", err)
	}

	res, err := s.Click(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != "selected" {
		t.Errorf("click on piece outcome = %q", res.Outcome)
	}
	res, err = s.Click(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != "moved" || len(res.Path) != 2 {
		t.Errorf("click on tile = %+v, want moved with two moves", res)
	}
	if _, ok := s.Selected(); ok {
		t.Error("selection kept after a committed move")
	}
	if len(s.Highlights()) != 0 {
		t.Error("highlights kept after a committed move")
	}
	if _, err := s.Click(9, 9); !errors.Is(err, escerr.ErrOutOfBounds) {
		t.Errorf("Click off board error = %v", err)
	}
}

func TestModes(t *testing.T) {
	s := newSession(t, "8/8/8/8/8/8/8/K1N5")
	king, knight := idAt(t, s, 0, 0), idAt(t, s, 2, 0)

	if err := s.SetDefendTarget(king, knight); err != nil {
		t.Fatal(err)
	}
	m, err := s.ToggleMode(king)
	if err != nil || m != board.Offence {
		t.Fatalf("ToggleMode() = %v, %v; want Offence", m, err)
	}
	p, _ := s.Piece(king)
	if p.DefendTarget != board.NoPiece {
		t.Error("ToggleMode kept the defend target")
	}

	if err := s.SetDefendTarget(king, knight); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(king, board.Defence); err != nil {
		t.Fatal(err)
	}
	p, _ = s.Piece(king)
	if p.Mode != "Defence" || p.DefendTarget != board.NoPiece {
		t.Errorf("after SetMode: %+v", p)
	}

	if err := s.SetDefendTarget(king, king); !errors.Is(err, escerr.ErrSelfDefence) {
		t.Errorf("self defence error = %v", err)
	}
}

func TestEscortCascade(t *testing.T) {
	// D: knight (1,0) escorting M: king (4,3).
	s := newSession(t, "8/8/8/8/4K3/8/8/1N6")
	m, d := idAt(t, s, 4, 3), idAt(t, s, 1, 0)
	if err := s.SetDefendTarget(d, m); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(m, board.Offence); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RequestMove(m, 5, 5); err != nil {
		t.Fatal(err)
	}

	target := board.Coord{X: 5, Y: 5}
	var events []motion.Event
	for i := 0; s.Busy(); i++ {
		if i == 5000 {
			t.Fatal("did not settle")
		}
		events = append(events, s.Tick(dt)...)
		if p, _ := s.Piece(d); p.X == target.X && p.Y == target.Y {
			t.Fatal("escort occupied the ward's tile")
		}
	}

	var issued *motion.Event
	for i := range events {
		if events[i].Kind == motion.EventCascadeIssued && events[i].Piece == d {
			issued = &events[i]
		}
	}
	if issued == nil {
		t.Fatal("no cascade for the escort")
	}
	if issued.Cause != m {
		t.Errorf("cascade cause #%d, want #%d", issued.Cause, m)
	}
	if got := issued.Path[len(issued.Path)-1]; got == target {
		t.Error("escort path ends on the ward's tile")
	}
	if p, _ := s.Piece(d); p.DefendTarget != m {
		t.Error("cascade dropped the escort assignment")
	}
}

func TestRemovePiece(t *testing.T) {
	s := newSession(t, "8/8/8/8/8/8/8/K1N5")
	king, knight := idAt(t, s, 0, 0), idAt(t, s, 2, 0)
	if err := s.SetDefendTarget(king, knight); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SelectPiece(knight); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(knight, board.Offence); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RequestMove(knight, 3, 2); err != nil {
		t.Fatal(err)
	}

	if err := s.RemovePiece(knight); err != nil {
		t.Fatalf("RemovePiece() error: %v", err)
	}
	if s.Busy() {
		t.Error("removed piece still moving")
	}
	if _, ok := s.Selected(); ok {
		t.Error("removed piece still selected")
	}
	if p, _ := s.Piece(king); p.DefendTarget != board.NoPiece {
		t.Error("escort still names the removed piece")
	}
	if tile, _ := s.GetTile(3, 2); tile.ReservedBy != board.NoPiece {
		t.Error("reservation of the removed piece survived")
	}
	if err := s.CheckInvariants(); err != nil {
		t.Error(err)
	}
	if err := s.RemovePiece(knight); !errors.Is(err, escerr.ErrUnknownPiece) {
		t.Errorf("second RemovePiece() error = %v", err)
	}
}

func TestAddPiece(t *testing.T) {
	s := newSession(t, "8/8/8/8/8/8/8/K7")
	p, err := s.AddPiece(board.Rook, board.Black, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != "Rook" || p.Team != "Black" || p.Mode != "Defence" {
		t.Errorf("AddPiece() = %+v", p)
	}
	if _, err := s.AddPiece(board.Pawn, board.White, 5, 5); !errors.Is(err, escerr.ErrTileOccupied) {
		t.Errorf("AddPiece on occupied tile error = %v", err)
	}
	if _, err := s.AddPiece(board.Pawn, board.White, 9, 5); !errors.Is(err, escerr.ErrOutOfBounds) {
		t.Errorf("AddPiece off board error = %v", err)
	}
	if got := s.Layout(); got != "8/8/5r2/8/8/8/8/K7" {
		t.Errorf("Layout() = %q", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := newSession(t, layout.Default)
	rook := idAt(t, s, 0, 0)
	knight := idAt(t, s, 1, 0)
	if err := s.SetDefendTarget(rook, knight); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(knight, board.Offence); err != nil {
		t.Fatal(err)
	}

	if _, err := s.RequestMove(knight, 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, escerr.ErrMotionInFlight) {
		t.Fatalf("Snapshot() while moving error = %v", err)
	}
	settle(t, s)

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(snap)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if restored.ID() != s.ID() {
		t.Errorf("restored id %s, want %s", restored.ID(), s.ID())
	}
	if diff := cmp.Diff(s.Pieces(), restored.Pieces()); diff != "" {
		t.Errorf("pieces mismatch (-original +restored):\n%s", diff)
	}

	added, err := restored.AddPiece(board.Pawn, board.White, 7, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range s.Pieces() {
		if p.ID == added.ID {
			t.Errorf("new piece reuses id #%d", added.ID)
		}
	}

	other := uuid.New()
	if r, _ := Restore(snap, WithID(other)); r.ID() != other {
		t.Error("WithID did not override the snapshot id")
	}

	bad := snap
	bad.Layout = "8/8/8/8/8/8/8/8"
	if _, err := Restore(bad); !errors.Is(err, escerr.ErrInvalidLayout) {
		t.Errorf("Restore with mismatched layout error = %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newSession(t, layout.Default)
	knight := idAt(t, s, 1, 0)
	if err := s.SetMode(knight, board.Offence); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RequestMove(knight, 2, 2); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Tick(dt)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.State()
			_, _ = s.GetTile(2, 2)
		}
	}()
	wg.Wait()

	if err := s.CheckInvariants(); err != nil {
		t.Error(err)
	}
}
