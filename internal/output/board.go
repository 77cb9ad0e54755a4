// Package output renders boards and scenario results for terminals and files.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/layout"
)

// Cell markers used when a tile holds no piece.
const (
	markEmpty     = "."
	markHighlight = "+"
	markReserved  = "*"
)

// BoardOptions controls RenderBoard.
type BoardOptions struct {
	// Color enables ANSI colors regardless of the terminal.
	Color bool
	// Highlights are marked with '+' when empty.
	Highlights []board.Coord
	// Reservations marks empty reserved tiles with '*'.
	Reservations bool
}

type palette struct {
	white, black, dark, light, mark *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		white: color.New(color.FgHiWhite, color.Bold),
		black: color.New(color.FgRed, color.Bold),
		dark:  color.New(color.BgBlack),
		light: color.New(color.BgHiBlack),
		mark:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.white, p.black, p.dark, p.light, p.mark} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// RenderBoard writes b as a grid, top row first, with row numbers on the
// left and column numbers underneath.
func RenderBoard(w io.Writer, b *board.Board, opts BoardOptions) error {
	pal := newPalette(opts.Color)
	highlight := make(map[board.Coord]bool, len(opts.Highlights))
	for _, c := range opts.Highlights {
		highlight[c] = true
	}

	for y := b.Height() - 1; y >= 0; y-- {
		if _, err := fmt.Fprintf(w, "%2d ", y); err != nil {
			return err
		}
		for x := 0; x < b.Width(); x++ {
			t := b.TileAt(x, y)
			bg := pal.light
			if t.Shade == board.Dark {
				bg = pal.dark
			}
			text, fg := cell(b, t, highlight, opts.Reservations, pal)
			if _, err := bg.Fprint(w, " "+fg.Sprint(text)+" "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(w, "   "); err != nil {
		return err
	}
	for x := 0; x < b.Width(); x++ {
		if _, err := fmt.Fprintf(w, "%2d ", x); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func cell(b *board.Board, t *board.Tile, highlight map[board.Coord]bool, reservations bool, pal palette) (string, *color.Color) {
	if p := b.Occupant(t); p != nil {
		fg := pal.white
		if p.Team == board.Black {
			fg = pal.black
		}
		return string(layout.Letter(p)), fg
	}
	switch {
	case highlight[t.Coord()]:
		return markHighlight, pal.mark
	case reservations && t.ReservedBy() != board.NoPiece:
		return markReserved, pal.mark
	}
	return markEmpty, pal.mark
}

// RenderLayout parses a layout string and renders it.
func RenderLayout(w io.Writer, s string, opts BoardOptions) error {
	b, err := layout.Parse(s)
	if err != nil {
		return err
	}
	return RenderBoard(w, b, opts)
}
