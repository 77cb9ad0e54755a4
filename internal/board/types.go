// Package board provides the grid, tile and piece model of escort chess.
package board

import "strings"

// Team identifies one of the two sides.
type Team int

const (
	White Team = iota // team A, pawns advance towards higher y
	Black             // team B, pawns advance towards lower y
)

// String returns the string representation of a team.
func (t Team) String() string {
	if t == Black {
		return "Black"
	}
	return "White"
}

// Opposite returns the other team.
func (t Team) Opposite() Team {
	if t == White {
		return Black
	}
	return White
}

// Forward returns the y direction pawns of this team advance in.
func (t Team) Forward() int {
	if t == Black {
		return -1
	}
	return 1
}

// ParseTeam converts a team name into a Team.
func ParseTeam(s string) (Team, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w", "a":
		return White, true
	case "black", "b":
		return Black, true
	}
	return White, false
}

// Kind represents a piece kind.
type Kind int

const (
	Pawn Kind = iota
	Rook
	Bishop
	Knight
	King
	NumKinds
)

var kindNames = [NumKinds]string{"Pawn", "Rook", "Bishop", "Knight", "King"}

var kindLetters = [NumKinds]byte{'P', 'R', 'B', 'N', 'K'}

// String returns the string representation of a kind.
func (k Kind) String() string {
	if k >= 0 && k < NumKinds {
		return kindNames[k]
	}
	return "Unknown"
}

// Letter returns the single uppercase letter for a kind.
func (k Kind) Letter() byte {
	if k >= 0 && k < NumKinds {
		return kindLetters[k]
	}
	return '?'
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < NumKinds
}

// ParseKind converts a kind name (any case) into a Kind.
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimSpace(s)
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), true
		}
	}
	if len(s) == 1 {
		return KindFromLetter(s[0])
	}
	return Pawn, false
}

// KindFromLetter converts a piece letter (either case) into a Kind.
func KindFromLetter(c byte) (Kind, bool) {
	switch c {
	case 'P', 'p':
		return Pawn, true
	case 'R', 'r':
		return Rook, true
	case 'B', 'b':
		return Bishop, true
	case 'N', 'n':
		return Knight, true
	case 'K', 'k':
		return King, true
	}
	return Pawn, false
}

// Mode is the movement mode of a piece.
type Mode int

const (
	Defence Mode = iota // default: stop one discrete move short of the target
	Offence
)

// String returns the string representation of a mode.
func (m Mode) String() string {
	if m == Offence {
		return "Offence"
	}
	return "Defence"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Offence {
		return Defence
	}
	return Offence
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offence", "offense", "attack", "a":
		return Offence, true
	case "defence", "defense", "defend", "d":
		return Defence, true
	}
	return Defence, false
}

// Shade is the parity-derived color tag of a tile.
type Shade int

const (
	Light Shade = iota
	Dark
)

// String returns the string representation of a shade.
func (s Shade) String() string {
	if s == Dark {
		return "dark"
	}
	return "light"
}

// ShadeAt returns the shade of the tile at (x, y).
func ShadeAt(x, y int) Shade {
	if (x+y)%2 == 1 {
		return Dark
	}
	return Light
}

// Coord is a tile address.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PieceID identifies a piece on a board. The zero value means "no piece".
type PieceID int

// NoPiece is the zero PieceID.
const NoPiece PieceID = 0
