// Package layout reads and writes piece placements in a FEN-like notation
// generalised to boards of any size.
//
// Rows are separated by '/', the top row (y = height-1) comes first, runs of
// empty tiles are written as decimal numbers and pieces as letters
// P R B N K. Uppercase letters are White, lowercase Black.
package layout

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
)

// Default is the 8x8 setup used for manual play: rook, knight, bishop and
// king on the back rank with three pawns in front, mirrored for Black.
const Default = "rnb1k3/ppp5/8/8/8/8/PPP5/RNB1K3"

// Placement is a single piece parsed from a layout string.
type Placement struct {
	Kind board.Kind
	Team board.Team
	X    int
	Y    int
}

// Parse builds a fresh board from a layout string. The board size is taken
// from the string: one row per '/'-separated field, every row the same width.
func Parse(s string) (*board.Board, error) {
	width, height, placements, err := Scan(s)
	if err != nil {
		return nil, err
	}
	b, err := board.GenerateBoard(width, height)
	if err != nil {
		return nil, err
	}
	if err := Apply(b, placements); err != nil {
		return nil, err
	}
	return b, nil
}

// Apply places every placement on b in order.
func Apply(b *board.Board, placements []Placement) error {
	for _, pl := range placements {
		if _, err := b.Place(pl.Kind, pl.Team, pl.X, pl.Y); err != nil {
			return err
		}
	}
	return nil
}

// Scan parses a layout string without building a board. Placements are
// returned in reading order.
func Scan(s string) (width, height int, placements []Placement, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil, fmt.Errorf("empty layout: %w", errors.ErrInvalidLayout)
	}
	rows := strings.Split(s, "/")
	height = len(rows)
	if height > board.MaxSize {
		return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: height, Got: fmt.Sprintf("%d rows, max %d", height, board.MaxSize)}
	}

	type cell struct {
		kind board.Kind
		team board.Team
		x    int
	}
	parsed := make([][]cell, height)

	for r, row := range rows {
		col := 0
		for i := 0; i < len(row); {
			c := rune(row[i])
			switch {
			case c >= '0' && c <= '9':
				j := i
				for j < len(row) && row[j] >= '0' && row[j] <= '9' {
					j++
				}
				n, err := strconv.Atoi(row[i:j])
				if err != nil || n > board.MaxSize-col {
					return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: r + 1, Column: col + 1, Got: fmt.Sprintf("run %s past width %d", row[i:j], board.MaxSize)}
				}
				if n == 0 {
					return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: r + 1, Column: col + 1, Got: "zero-length run"}
				}
				col += n
				i = j
				continue
			default:
				if col >= board.MaxSize {
					return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: r + 1, Column: col + 1, Got: fmt.Sprintf("past width %d", board.MaxSize)}
				}
				kind, ok := board.KindFromLetter(byte(c))
				if !ok {
					return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: r + 1, Column: col + 1, Got: strconv.QuoteRune(c)}
				}
				team := board.White
				if unicode.IsLower(c) {
					team = board.Black
				}
				parsed[r] = append(parsed[r], cell{kind: kind, team: team, x: col})
				col++
			}
			i++
		}
		if r == 0 {
			width = col
		} else if col != width {
			return 0, 0, nil, &errors.LayoutError{Err: errors.ErrInvalidLayout, Row: r + 1, Got: fmt.Sprintf("width %d, want %d", col, width)}
		}
	}
	if width == 0 {
		return 0, 0, nil, fmt.Errorf("zero-width layout: %w", errors.ErrInvalidLayout)
	}

	for r, cells := range parsed {
		y := height - 1 - r
		for _, c := range cells {
			placements = append(placements, Placement{Kind: c.kind, Team: c.team, X: c.x, Y: y})
		}
	}
	return width, height, placements, nil
}

// Format writes the current placement of b as a layout string.
func Format(b *board.Board) string {
	var sb strings.Builder
	for y := b.Height() - 1; y >= 0; y-- {
		run := 0
		for x := 0; x < b.Width(); x++ {
			p := b.Occupant(b.TileAt(x, y))
			if p == nil {
				run++
				continue
			}
			if run > 0 {
				sb.WriteString(strconv.Itoa(run))
				run = 0
			}
			sb.WriteByte(Letter(p))
		}
		if run > 0 {
			sb.WriteString(strconv.Itoa(run))
		}
		if y > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// Letter returns the layout letter for a piece: uppercase for White.
func Letter(p *board.Piece) byte {
	c := p.Kind.Letter()
	if p.Team == board.Black {
		c = byte(unicode.ToLower(rune(c)))
	}
	return c
}
