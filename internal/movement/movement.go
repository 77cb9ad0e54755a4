// Package movement implements the per-kind movement rules: which tiles are
// edges of a piece's movement graph and which transitions count as one
// discrete move.
package movement

import (
	"fmt"

	"github.com/lgbarn/escort-chess-go/internal/board"
)

// Policy is the movement rule set of one piece kind.
type Policy interface {
	// Neighbors returns the tiles reachable from `from` in one edge of the
	// movement graph, in a fixed order.
	Neighbors(v View, from *board.Tile) []*board.Tile

	// IsValidStep reports whether from->to is exactly one discrete move.
	IsValidStep(from, to board.Coord) bool
}

// View is the board as seen by a moving piece. The mover's own tile reads
// as vacant. When Ward is set, the ward's tile is reachable the way an enemy
// tile is (a terminal edge for sliders, a landing tile for leapers, an open
// tile for a pawn's forward step) so an escort can path towards it.
type View struct {
	Board *board.Board
	Piece *board.Piece
	Ward  board.PieceID
}

type occupancy int

const (
	vacant occupancy = iota
	friendly
	hostile
	warded
)

func (v View) classify(t *board.Tile) occupancy {
	id := t.Occupant()
	if id == board.NoPiece || id == v.Piece.ID {
		return vacant
	}
	if v.Ward != board.NoPiece && id == v.Ward {
		return warded
	}
	occ := v.Board.Piece(id)
	if occ == nil {
		return vacant
	}
	if occ.Team == v.Piece.Team {
		return friendly
	}
	return hostile
}

var policies = [board.NumKinds]Policy{
	board.Pawn:   pawn{},
	board.Rook:   slider{dirs: orthogonal, diagonal: false},
	board.Bishop: slider{dirs: diagonals, diagonal: true},
	board.Knight: leaper{offsets: knightOffsets, step: isKnightStep},
	board.King:   leaper{offsets: kingOffsets, step: isKingStep},
}

func init() {
	for k, p := range policies {
		if p == nil {
			panic(fmt.Sprintf("movement: no policy for %s", board.Kind(k)))
		}
	}
}

// For returns the policy of a kind. It panics on an undefined kind.
func For(k board.Kind) Policy {
	return policies[k]
}

// Neighbors returns the movement-graph neighbors of from for piece p,
// treating ward as reachable. Pass board.NoPiece for no ward.
func Neighbors(b *board.Board, p *board.Piece, ward board.PieceID, from *board.Tile) []*board.Tile {
	if from == nil {
		return nil
	}
	return For(p.Kind).Neighbors(View{Board: b, Piece: p, Ward: ward}, from)
}

// LegalMoves returns the one-move reachable set of p from where it stands.
// It is the set a presentation layer highlights.
func LegalMoves(b *board.Board, p *board.Piece) []*board.Tile {
	return Neighbors(b, p, board.NoPiece, b.TileOf(p))
}

// IsValidStep reports whether from->to is one discrete move for kind k.
func IsValidStep(k board.Kind, from, to board.Coord) bool {
	return For(k).IsValidStep(from, to)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
