package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/motion"
)

// TileInfo is a copy of one tile's state.
type TileInfo struct {
	X          int           `json:"x"`
	Y          int           `json:"y"`
	Shade      string        `json:"shade"`
	Occupant   board.PieceID `json:"occupant,omitempty"`
	ReservedBy board.PieceID `json:"reservedBy,omitempty"`
}

func tileInfo(t *board.Tile) TileInfo {
	return TileInfo{
		X:          t.X,
		Y:          t.Y,
		Shade:      t.Shade.String(),
		Occupant:   t.Occupant(),
		ReservedBy: t.ReservedBy(),
	}
}

// PieceInfo is a copy of one piece's state.
type PieceInfo struct {
	ID           board.PieceID `json:"id"`
	Kind         string        `json:"kind"`
	Team         string        `json:"team"`
	X            int           `json:"x"`
	Y            int           `json:"y"`
	Mode         string        `json:"mode"`
	DefendTarget board.PieceID `json:"defendTarget,omitempty"`
}

func pieceInfo(p *board.Piece) PieceInfo {
	return PieceInfo{
		ID:           p.ID,
		Kind:         p.Kind.String(),
		Team:         p.Team.String(),
		X:            p.X(),
		Y:            p.Y(),
		Mode:         p.Mode().String(),
		DefendTarget: p.DefendTarget(),
	}
}

// MotionInfo describes one in-flight traversal.
type MotionInfo struct {
	Piece board.PieceID `json:"piece"`
	Phase string        `json:"phase"`
	Step  int           `json:"step"`
	Path  []board.Coord `json:"path"`
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
}

func motionInfo(t *motion.Task) MotionInfo {
	x, y := t.Position()
	return MotionInfo{
		Piece: t.Piece(),
		Phase: t.Phase().String(),
		Step:  t.Step(),
		Path:  t.Path(),
		X:     x,
		Y:     y,
	}
}

// State is a point-in-time copy of a session.
type State struct {
	ID         uuid.UUID     `json:"id"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Layout     string        `json:"layout"`
	Pieces     []PieceInfo   `json:"pieces"`
	Selected   board.PieceID `json:"selected,omitempty"`
	Highlights []board.Coord `json:"highlights,omitempty"`
	Motions    []MotionInfo  `json:"motions,omitempty"`
}

// Snapshot is the persistent form of a settled session. Piece ids and escort
// assignments survive a round trip.
type Snapshot struct {
	ID       uuid.UUID     `json:"id"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Layout   string        `json:"layout"`
	Pieces   []PieceInfo   `json:"pieces"`
	Selected board.PieceID `json:"selected,omitempty"`
	SavedAt  time.Time     `json:"savedAt"`
}
