// Package route resolves a piece's path to a target tile: a breadth-first
// search over its movement graph, folded into discrete moves and optionally
// trimmed for defence mode.
package route

import (
	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/movement"
)

// Path is an ordered list of tiles, one per discrete move.
type Path []*board.Tile

// Last returns the final tile of the path, or nil for an empty path.
func (p Path) Last() *board.Tile {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Coords returns the tile addresses of the path.
func (p Path) Coords() []board.Coord {
	out := make([]board.Coord, len(p))
	for i, t := range p {
		out[i] = t.Coord()
	}
	return out
}

// Resolve returns the discrete moves that take p from its tile to target.
// An empty result means there is no path; it is not an error. With defence
// set the final move is dropped (see TrimDefence).
func Resolve(b *board.Board, p *board.Piece, target *board.Tile, defence bool) Path {
	raw := Search(b, p, target)
	if len(raw) == 0 {
		return nil
	}
	moves := ConvertPathToMoves(p.Kind, p.Coord(), raw)
	if defence {
		moves = TrimDefence(moves)
	}
	return moves
}

// Search runs the breadth-first search and returns the raw tile path,
// excluding the start tile. Frontier order is FIFO and the first predecessor
// to reach a tile wins. A neighbor is only expanded when it is empty, is the
// target, or holds the piece's ward, which makes the ward transparent to its
// escort's search.
func Search(b *board.Board, p *board.Piece, target *board.Tile) Path {
	start := b.TileOf(p)
	if start == nil || target == nil || start == target {
		return nil
	}

	ward := board.NoPiece
	if w := b.Ward(p); w != nil {
		ward = w.ID
	}

	cameFrom := map[*board.Tile]*board.Tile{start: nil}
	frontier := []*board.Tile{start}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if current == target {
			break
		}
		for _, n := range movement.Neighbors(b, p, ward, current) {
			if _, seen := cameFrom[n]; seen {
				continue
			}
			if n.Empty() || n == target || (ward != board.NoPiece && n.Occupant() == ward) {
				cameFrom[n] = current
				frontier = append(frontier, n)
			}
		}
	}

	if _, ok := cameFrom[target]; !ok {
		return nil
	}

	var path Path
	for t := target; t != start; t = cameFrom[t] {
		path = append(path, t)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ConvertPathToMoves folds a raw tile path into discrete moves. A cursor
// starts at from; each raw tile is kept when cursor->tile is a valid single
// step for the kind, and the cursor advances to the tile either way.
func ConvertPathToMoves(kind board.Kind, from board.Coord, raw Path) Path {
	moves := make(Path, 0, len(raw))
	cursor := from
	for _, t := range raw {
		if movement.IsValidStep(kind, cursor, t.Coord()) {
			moves = append(moves, t)
		}
		cursor = t.Coord()
	}
	return moves
}

// TrimDefence drops the final move so a defending piece stops one discrete
// move short of its destination. The rule is unconditional: a single move
// trims to nothing and an empty path stays empty.
func TrimDefence(moves Path) Path {
	if len(moves) == 0 {
		return moves
	}
	return moves[:len(moves)-1]
}
