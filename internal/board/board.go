package board

import (
	"fmt"

	"github.com/lgbarn/escort-chess-go/internal/errors"
)

// Board owns the tile grid and the living pieces. It is the only place
// occupancy and reservations are mutated. A Board is not safe for concurrent
// use; the session that owns it serializes access.
type Board struct {
	width  int
	height int
	tiles  [][]*Tile // tiles[x][y]

	pieces map[PieceID]*Piece
	order  []PieceID // placement order of live pieces
	nextID PieceID
}

// MaxSize is the largest width or height GenerateBoard accepts.
const MaxSize = 256

// GenerateBoard allocates a width x height grid. Tile shades follow (x+y) mod 2.
func GenerateBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 || width > MaxSize || height > MaxSize {
		return nil, fmt.Errorf("board size %dx%d: %w", width, height, errors.ErrInvalidConfig)
	}
	b := &Board{
		width:  width,
		height: height,
		tiles:  make([][]*Tile, width),
		pieces: make(map[PieceID]*Piece),
		nextID: 1,
	}
	for x := 0; x < width; x++ {
		b.tiles[x] = make([]*Tile, height)
		for y := 0; y < height; y++ {
			b.tiles[x][y] = &Tile{X: x, Y: y, Shade: ShadeAt(x, y)}
		}
	}
	return b, nil
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// InBounds reports whether (x, y) addresses a tile.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// TileAt returns the tile at (x, y), or nil when out of bounds.
func (b *Board) TileAt(x, y int) *Tile {
	if !b.InBounds(x, y) {
		return nil
	}
	return b.tiles[x][y]
}

// Tiles returns every tile, column by column.
func (b *Board) Tiles() []*Tile {
	out := make([]*Tile, 0, b.width*b.height)
	for x := 0; x < b.width; x++ {
		out = append(out, b.tiles[x]...)
	}
	return out
}

// Piece returns the live piece with the given id, or nil.
func (b *Board) Piece(id PieceID) *Piece {
	if id == NoPiece {
		return nil
	}
	return b.pieces[id]
}

// Pieces returns the live pieces in placement order.
func (b *Board) Pieces() []*Piece {
	out := make([]*Piece, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.pieces[id])
	}
	return out
}

// Occupant returns the piece standing on t, or nil.
func (b *Board) Occupant(t *Tile) *Piece {
	if t == nil {
		return nil
	}
	return b.Piece(t.occupant)
}

// TileOf returns the tile the piece stands on.
func (b *Board) TileOf(p *Piece) *Tile {
	return b.TileAt(p.x, p.y)
}

// Ward returns the live piece p escorts, or nil. A defend target that has
// been removed from the board resolves to nil.
func (b *Board) Ward(p *Piece) *Piece {
	if p == nil {
		return nil
	}
	return b.Piece(p.defendTarget)
}

// Place puts a new piece on an empty tile and returns it.
func (b *Board) Place(kind Kind, team Team, x, y int) (*Piece, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("kind %d: %w", kind, errors.ErrInvalidLayout)
	}
	t := b.TileAt(x, y)
	if t == nil {
		return nil, fmt.Errorf("place %s at (%d,%d): %w", kind, x, y, errors.ErrOutOfBounds)
	}
	if !t.Empty() {
		return nil, fmt.Errorf("place %s at (%d,%d): %w", kind, x, y, errors.ErrTileOccupied)
	}
	p := &Piece{ID: b.nextID, Kind: kind, Team: team, x: x, y: y}
	b.nextID++
	b.pieces[p.ID] = p
	b.order = append(b.order, p.ID)
	t.occupant = p.ID
	return p, nil
}

// Remove takes a piece off the board: its tile is cleared, every reservation
// it holds is released and every escort assigned to it loses its target.
func (b *Board) Remove(id PieceID) error {
	p := b.Piece(id)
	if p == nil {
		return fmt.Errorf("remove #%d: %w", id, errors.ErrUnknownPiece)
	}
	if t := b.TileOf(p); t != nil && t.occupant == id {
		t.occupant = NoPiece
	}
	for _, col := range b.tiles {
		for _, t := range col {
			if t.reservedBy == id {
				t.reservedBy = NoPiece
			}
		}
	}
	for _, other := range b.pieces {
		if other.defendTarget == id {
			other.defendTarget = NoPiece
		}
	}
	delete(b.pieces, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Relocate moves p onto t as one atomic bookkeeping step: the old tile is
// cleared, the piece's coordinates change and t records the piece.
func (b *Board) Relocate(p *Piece, t *Tile) {
	if old := b.TileOf(p); old != nil && old.occupant == p.ID {
		old.occupant = NoPiece
	}
	p.x, p.y = t.X, t.Y
	t.occupant = p.ID
}

// Reserve marks t as locked by id.
func (b *Board) Reserve(t *Tile, id PieceID) {
	t.reservedBy = id
}

// Release drops t's reservation if id holds it, and reports whether it did.
func (b *Board) Release(t *Tile, id PieceID) bool {
	if t.reservedBy != id {
		return false
	}
	t.reservedBy = NoPiece
	return true
}

// SetDefendTarget assigns ally as the piece's escort target.
func (b *Board) SetDefendTarget(id, ally PieceID) error {
	p := b.Piece(id)
	if p == nil {
		return fmt.Errorf("defender #%d: %w", id, errors.ErrUnknownPiece)
	}
	if ally == NoPiece {
		p.defendTarget = NoPiece
		return nil
	}
	if ally == id {
		return fmt.Errorf("defender #%d: %w", id, errors.ErrSelfDefence)
	}
	a := b.Piece(ally)
	if a == nil {
		return fmt.Errorf("ally #%d: %w", ally, errors.ErrUnknownPiece)
	}
	if a.Team != p.Team {
		return fmt.Errorf("ally #%d: %w", ally, errors.ErrNotAlly)
	}
	p.defendTarget = ally
	return nil
}

// Escorts returns, in placement order, the pieces whose defend target is id.
func (b *Board) Escorts(id PieceID) []*Piece {
	var out []*Piece
	for _, pid := range b.order {
		if p := b.pieces[pid]; p.defendTarget == id {
			out = append(out, p)
		}
	}
	return out
}

// FirstOfKind returns the first piece of the given kind and team in
// placement order, or nil.
func (b *Board) FirstOfKind(kind Kind, team Team) *Piece {
	for _, pid := range b.order {
		if p := b.pieces[pid]; p.Kind == kind && p.Team == team {
			return p
		}
	}
	return nil
}

// Restore places a piece with a known id and state. It is used to rebuild a
// board from a snapshot; ids handed out afterwards never collide with it.
func (b *Board) Restore(id PieceID, kind Kind, team Team, x, y int, mode Mode, defendTarget PieceID) (*Piece, error) {
	if id == NoPiece || b.pieces[id] != nil {
		return nil, fmt.Errorf("restore #%d: %w", id, errors.ErrInvalidLayout)
	}
	t := b.TileAt(x, y)
	if t == nil {
		return nil, fmt.Errorf("restore #%d at (%d,%d): %w", id, x, y, errors.ErrOutOfBounds)
	}
	if !t.Empty() {
		return nil, fmt.Errorf("restore #%d at (%d,%d): %w", id, x, y, errors.ErrTileOccupied)
	}
	p := &Piece{ID: id, Kind: kind, Team: team, x: x, y: y, mode: mode, defendTarget: defendTarget}
	b.pieces[id] = p
	b.order = append(b.order, id)
	t.occupant = id
	if id >= b.nextID {
		b.nextID = id + 1
	}
	return p, nil
}

// CheckInvariants verifies the dual bookkeeping between pieces and tiles:
// every live piece is the occupant of exactly the tile at its coordinates,
// and no tile names a piece that is not live.
func (b *Board) CheckInvariants() error {
	seen := make(map[PieceID]int, len(b.pieces))
	for _, col := range b.tiles {
		for _, t := range col {
			if t.occupant != NoPiece {
				p := b.pieces[t.occupant]
				if p == nil {
					return fmt.Errorf("tile (%d,%d) names missing piece #%d", t.X, t.Y, t.occupant)
				}
				if p.x != t.X || p.y != t.Y {
					return fmt.Errorf("piece #%d at (%d,%d) is occupant of (%d,%d)", p.ID, p.x, p.y, t.X, t.Y)
				}
				seen[p.ID]++
			}
			if t.reservedBy != NoPiece && b.pieces[t.reservedBy] == nil {
				return fmt.Errorf("tile (%d,%d) reserved by missing piece #%d", t.X, t.Y, t.reservedBy)
			}
		}
	}
	for id := range b.pieces {
		if seen[id] != 1 {
			return fmt.Errorf("piece #%d occupies %d tiles", id, seen[id])
		}
	}
	return nil
}
