package board

// Tile is one addressable cell. Tiles are allocated once by GenerateBoard;
// only the occupant and the reservation change afterwards, and only
// through the owning Board.
type Tile struct {
	X     int
	Y     int
	Shade Shade

	occupant   PieceID
	reservedBy PieceID
}

// Coord returns the tile's address.
func (t *Tile) Coord() Coord { return Coord{X: t.X, Y: t.Y} }

// Occupant returns the id of the piece standing on the tile, or NoPiece.
func (t *Tile) Occupant() PieceID { return t.occupant }

// ReservedBy returns the id of the piece holding the tile's reservation, or NoPiece.
func (t *Tile) ReservedBy() PieceID { return t.reservedBy }

// Empty reports whether nothing stands on the tile.
func (t *Tile) Empty() bool { return t.occupant == NoPiece }

// Piece is a single piece on the board. Its coordinates always equal the
// coordinates of the tile whose occupant it is.
type Piece struct {
	ID   PieceID
	Kind Kind
	Team Team

	x, y         int
	mode         Mode
	defendTarget PieceID
}

// X returns the piece's column.
func (p *Piece) X() int { return p.x }

// Y returns the piece's row.
func (p *Piece) Y() int { return p.y }

// Coord returns the piece's position.
func (p *Piece) Coord() Coord { return Coord{X: p.x, Y: p.y} }

// Mode returns the piece's movement mode.
func (p *Piece) Mode() Mode { return p.mode }

// SetMode sets the movement mode. It does not touch the defend target.
func (p *Piece) SetMode(m Mode) { p.mode = m }

// ToggleMode flips the movement mode and returns the new one. It does not
// touch the defend target.
func (p *Piece) ToggleMode() Mode {
	p.mode = p.mode.Toggle()
	return p.mode
}

// DefendTarget returns the id of the ally this piece escorts, or NoPiece.
func (p *Piece) DefendTarget() PieceID { return p.defendTarget }

// ClearDefendTarget drops the escort assignment.
func (p *Piece) ClearDefendTarget() { p.defendTarget = NoPiece }
