package movement

import "github.com/lgbarn/escort-chess-go/internal/board"

var (
	orthogonal = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonals  = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

	knightOffsets = [][2]int{{2, 1}, {1, 2}, {-1, 2}, {-2, 1}, {-2, -1}, {-1, -2}, {1, -2}, {2, -1}}
	kingOffsets   = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// slider covers rooks and bishops. Each ray runs until the board edge or the
// first occupied tile; that tile is included only if it is an enemy (or the
// ward), and the ray stops there either way.
type slider struct {
	dirs     [][2]int
	diagonal bool
}

func (s slider) Neighbors(v View, from *board.Tile) []*board.Tile {
	var out []*board.Tile
	for _, d := range s.dirs {
		x, y := from.X, from.Y
		for {
			x += d[0]
			y += d[1]
			t := v.Board.TileAt(x, y)
			if t == nil {
				break
			}
			occ := v.classify(t)
			if occ == vacant {
				out = append(out, t)
				continue
			}
			if occ == hostile || occ == warded {
				out = append(out, t)
			}
			break
		}
	}
	return out
}

// IsValidStep treats a whole ray as one move: rooks on a shared rank or
// file, bishops on a shared diagonal.
func (s slider) IsValidStep(from, to board.Coord) bool {
	dx := abs(to.X - from.X)
	dy := abs(to.Y - from.Y)
	if dx == 0 && dy == 0 {
		return false
	}
	if s.diagonal {
		return dx == dy
	}
	return dx == 0 || dy == 0
}

// leaper covers knights and kings: fixed offsets, filtered only by board
// bounds and own-team occupancy.
type leaper struct {
	offsets [][2]int
	step    func(dx, dy int) bool
}

func (l leaper) Neighbors(v View, from *board.Tile) []*board.Tile {
	var out []*board.Tile
	for _, o := range l.offsets {
		t := v.Board.TileAt(from.X+o[0], from.Y+o[1])
		if t == nil || v.classify(t) == friendly {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (l leaper) IsValidStep(from, to board.Coord) bool {
	return l.step(abs(to.X-from.X), abs(to.Y-from.Y))
}

func isKnightStep(dx, dy int) bool {
	return (dx == 1 && dy == 2) || (dx == 2 && dy == 1)
}

// isKingStep is Chebyshev distance exactly 1.
func isKingStep(dx, dy int) bool {
	return max(dx, dy) == 1
}

// pawn moves one tile forward onto an open tile, two from its team's
// starting rank when both tiles are open, and diagonally forward only onto
// an enemy.
type pawn struct{}

func (pawn) Neighbors(v View, from *board.Tile) []*board.Tile {
	var out []*board.Tile
	dir := v.Piece.Team.Forward()
	open := func(t *board.Tile) bool {
		if t == nil {
			return false
		}
		occ := v.classify(t)
		return occ == vacant || occ == warded
	}

	first := v.Board.TileAt(from.X, from.Y+dir)
	if open(first) {
		out = append(out, first)
		if from.Y == startRank(v.Piece.Team, v.Board.Height()) {
			second := v.Board.TileAt(from.X, from.Y+2*dir)
			if open(second) {
				out = append(out, second)
			}
		}
	}

	for _, dx := range [2]int{-1, 1} {
		t := v.Board.TileAt(from.X+dx, from.Y+dir)
		if t != nil && v.classify(t) == hostile {
			out = append(out, t)
		}
	}
	return out
}

// IsValidStep is unconditionally true: every pawn edge is already one move.
func (pawn) IsValidStep(from, to board.Coord) bool {
	return true
}

// startRank returns the row a team's pawns start on.
func startRank(team board.Team, height int) int {
	if team == board.Black {
		return height - 2
	}
	return 1
}
