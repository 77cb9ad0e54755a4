package movement

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/layout"
)

func mustLayout(t *testing.T, s string) *board.Board {
	t.Helper()
	b, err := layout.Parse(s)
	if err != nil {
		t.Fatalf("layout.Parse(%q) error: %v", s, err)
	}
	return b
}

func pieceAt(t *testing.T, b *board.Board, x, y int) *board.Piece {
	t.Helper()
	p := b.Occupant(b.TileAt(x, y))
	if p == nil {
		t.Fatalf("no piece at (%d,%d)", x, y)
	}
	return p
}

func coords(tiles []*board.Tile) []board.Coord {
	out := make([]board.Coord, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, t.Coord())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func contains(cs []board.Coord, c board.Coord) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}

func TestLegalMoves_RookStopsAtFirstOccupied(t *testing.T) {
	// Rook (0,0), enemy (0,5), friendly (0,7).
	b := mustLayout(t, "R7/8/r7/8/8/8/8/R7")
	rook := pieceAt(t, b, 0, 0)

	got := coords(LegalMoves(b, rook))

	for y := 1; y <= 5; y++ {
		if !contains(got, board.Coord{X: 0, Y: y}) {
			t.Errorf("legal moves missing (0,%d): %v", y, got)
		}
	}
	for _, c := range []board.Coord{{X: 0, Y: 6}, {X: 0, Y: 7}} {
		if contains(got, c) {
			t.Errorf("legal moves include %v beyond the enemy: %v", c, got)
		}
	}
	if len(got) != 12 {
		t.Errorf("len(legal moves) = %d, want 12 (5 file + 7 rank)", len(got))
	}
}

func TestLegalMoves_Pawn(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		x, y   int
		want   []board.Coord
	}{
		{
			name:   "white double step from start rank",
			layout: "8/8/8/8/8/8/2P5/8",
			x:      2, y: 1,
			want: []board.Coord{{X: 2, Y: 2}, {X: 2, Y: 3}},
		},
		{
			name:   "blocked pawn cannot jump",
			layout: "8/8/8/8/8/2p5/2P5/8",
			x:      2, y: 1,
			want: []board.Coord{},
		},
		{
			name:   "second tile blocked",
			layout: "8/8/8/8/2N5/8/2P5/8",
			x:      2, y: 1,
			want: []board.Coord{{X: 2, Y: 2}},
		},
		{
			name:   "single step off start rank",
			layout: "8/8/8/8/8/2P5/8/8",
			x:      2, y: 2,
			want: []board.Coord{{X: 2, Y: 3}},
		},
		{
			name:   "diagonal captures only enemies",
			layout: "8/8/8/8/8/1p1N4/2P5/8",
			x:      2, y: 1,
			want: []board.Coord{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 3}},
		},
		{
			name:   "black moves down from its start rank",
			layout: "8/3p4/8/8/8/8/8/8",
			x:      3, y: 6,
			want: []board.Coord{{X: 3, Y: 4}, {X: 3, Y: 5}},
		},
		{
			name:   "pawn on the far edge has no moves",
			layout: "2P5/8/8/8/8/8/8/8",
			x:      2, y: 7,
			want: []board.Coord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := mustLayout(t, tt.layout)
			got := coords(LegalMoves(b, pieceAt(t, b, tt.x, tt.y)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLegalMoves_KnightIgnoresInterveningPieces(t *testing.T) {
	// Knight at (1,1) boxed in by pieces of both teams.
	b := mustLayout(t, "8/8/8/8/8/ppp5/pNp5/ppp5")
	knight := pieceAt(t, b, 1, 1)

	got := coords(LegalMoves(b, knight))
	want := []board.Coord{{X: 0, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 0}, {X: 3, Y: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
	}

	// Own team on a landing tile removes exactly that tile; an enemy does not.
	b = mustLayout(t, "8/8/8/8/2p5/3P4/1N6/8")
	got = coords(LegalMoves(b, pieceAt(t, b, 1, 1)))
	want = []board.Coord{{X: 0, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LegalMoves with blockers mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalMoves_King(t *testing.T) {
	b := mustLayout(t, "8/8/8/8/8/8/Pp6/K7")
	got := coords(LegalMoves(b, pieceAt(t, b, 0, 0)))
	want := []board.Coord{{X: 1, Y: 0}, {X: 1, Y: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalMoves_Bishop(t *testing.T) {
	b := mustLayout(t, "8/8/5p2/8/3B4/8/1P6/8")
	got := coords(LegalMoves(b, pieceAt(t, b, 3, 3)))
	want := []board.Coord{
		{X: 0, Y: 6}, {X: 1, Y: 5}, {X: 2, Y: 2}, {X: 2, Y: 4},
		{X: 4, Y: 2}, {X: 4, Y: 4}, {X: 5, Y: 1}, {X: 5, Y: 5}, {X: 6, Y: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalMoves_Idempotent(t *testing.T) {
	b := mustLayout(t, layout.Default)
	for _, p := range b.Pieces() {
		first := coords(LegalMoves(b, p))
		second := coords(LegalMoves(b, p))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s #%d: LegalMoves not idempotent (-first +second):\n%s", p.Kind, p.ID, diff)
		}
	}
}

// TestSliderRays checks every ray of every slider on a crowded board: no
// tile past the first occupied one, and that tile only when it is an enemy.
func TestSliderRays(t *testing.T) {
	layouts := []string{
		layout.Default,
		"r2b3R/1P3n2/3R4/p6k/2B1p3/8/1N2b1P1/R3K2r",
		"B1R/1r1/b1P",
	}
	for _, s := range layouts {
		b := mustLayout(t, s)
		for _, p := range b.Pieces() {
			var dirs [][2]int
			switch p.Kind {
			case board.Rook:
				dirs = orthogonal
			case board.Bishop:
				dirs = diagonals
			default:
				continue
			}
			got := coords(LegalMoves(b, p))
			for _, d := range dirs {
				x, y := p.X(), p.Y()
				stopped := false
				for {
					x += d[0]
					y += d[1]
					tile := b.TileAt(x, y)
					if tile == nil {
						break
					}
					in := contains(got, tile.Coord())
					occ := b.Occupant(tile)
					switch {
					case stopped && in:
						t.Errorf("%q: %s at (%d,%d) reaches (%d,%d) beyond a blocker", s, p.Kind, p.X(), p.Y(), x, y)
					case !stopped && occ == nil && !in:
						t.Errorf("%q: %s at (%d,%d) misses empty (%d,%d)", s, p.Kind, p.X(), p.Y(), x, y)
					case !stopped && occ != nil:
						if enemy := occ.Team != p.Team; enemy != in {
							t.Errorf("%q: %s at (%d,%d) first blocker (%d,%d) included=%v enemy=%v", s, p.Kind, p.X(), p.Y(), x, y, in, enemy)
						}
						stopped = true
					}
				}
			}
		}
	}
}

func TestNeighbors_WardIsReachable(t *testing.T) {
	// Rook (0,0) escorting a friendly knight on (0,4).
	b := mustLayout(t, "8/8/8/N7/8/8/8/R7")
	rook := pieceAt(t, b, 0, 0)
	knight := pieceAt(t, b, 0, 4)

	without := coords(Neighbors(b, rook, board.NoPiece, b.TileOf(rook)))
	if contains(without, knight.Coord()) {
		t.Error("friendly knight reachable without ward")
	}
	with := coords(Neighbors(b, rook, knight.ID, b.TileOf(rook)))
	if !contains(with, knight.Coord()) {
		t.Error("ward not reachable when set")
	}
	if contains(with, board.Coord{X: 0, Y: 5}) {
		t.Error("ray continued past the ward")
	}
}

func TestIsValidStep(t *testing.T) {
	tests := []struct {
		kind     board.Kind
		from, to board.Coord
		want     bool
	}{
		{board.Rook, board.Coord{X: 0, Y: 0}, board.Coord{X: 0, Y: 7}, true},
		{board.Rook, board.Coord{X: 0, Y: 0}, board.Coord{X: 5, Y: 0}, true},
		{board.Rook, board.Coord{X: 0, Y: 0}, board.Coord{X: 1, Y: 1}, false},
		{board.Rook, board.Coord{X: 2, Y: 2}, board.Coord{X: 2, Y: 2}, false},
		{board.Bishop, board.Coord{X: 0, Y: 0}, board.Coord{X: 5, Y: 5}, true},
		{board.Bishop, board.Coord{X: 3, Y: 3}, board.Coord{X: 1, Y: 5}, true},
		{board.Bishop, board.Coord{X: 0, Y: 0}, board.Coord{X: 0, Y: 5}, false},
		{board.Knight, board.Coord{X: 1, Y: 1}, board.Coord{X: 3, Y: 2}, true},
		{board.Knight, board.Coord{X: 1, Y: 1}, board.Coord{X: 0, Y: 3}, true},
		{board.Knight, board.Coord{X: 1, Y: 1}, board.Coord{X: 3, Y: 3}, false},
		{board.King, board.Coord{X: 4, Y: 4}, board.Coord{X: 5, Y: 5}, true},
		{board.King, board.Coord{X: 4, Y: 4}, board.Coord{X: 4, Y: 5}, true},
		{board.King, board.Coord{X: 4, Y: 4}, board.Coord{X: 4, Y: 6}, false},
		{board.King, board.Coord{X: 4, Y: 4}, board.Coord{X: 4, Y: 4}, false},
		{board.Pawn, board.Coord{X: 2, Y: 1}, board.Coord{X: 2, Y: 3}, true},
	}
	for _, tt := range tests {
		if got := IsValidStep(tt.kind, tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidStep(%s, %v, %v) = %v, want %v", tt.kind, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestFor_CoversEveryKind(t *testing.T) {
	for k := board.Kind(0); k < board.NumKinds; k++ {
		if For(k) == nil {
			t.Errorf("no policy for %s", k)
		}
	}
}
