package config

import (
	"fmt"
	"time"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/layout"
)

// BoardConfig holds the construction inputs of a board.
type BoardConfig struct {
	// Width and Height are the grid dimensions in tiles
	Width  int
	Height int

	// TileSize is the world size of one tile, used by presentation layers
	TileSize float64

	// Layout is the initial placement in layout notation; its dimensions
	// must match Width and Height
	Layout string
}

// NewBoardConfig creates a BoardConfig with default values.
func NewBoardConfig() *BoardConfig {
	return &BoardConfig{
		Width:    8,
		Height:   8,
		TileSize: 1.0,
		Layout:   layout.Default,
	}
}

// Validate checks that the board configuration is valid.
func (b *BoardConfig) Validate() error {
	if b.Width <= 0 || b.Height <= 0 || b.Width > board.MaxSize || b.Height > board.MaxSize {
		return fmt.Errorf("board size %dx%d: %w", b.Width, b.Height, errors.ErrInvalidConfig)
	}
	if b.TileSize <= 0 {
		return fmt.Errorf("tile size %g: %w", b.TileSize, errors.ErrInvalidConfig)
	}
	if b.Layout == "" {
		return nil
	}
	w, h, _, err := layout.Scan(b.Layout)
	if err != nil {
		return fmt.Errorf("layout: %v: %w", err, errors.ErrInvalidConfig)
	}
	if w != b.Width || h != b.Height {
		return fmt.Errorf("layout is %dx%d, board is %dx%d: %w", w, h, b.Width, b.Height, errors.ErrInvalidConfig)
	}
	return nil
}

// MotionConfig holds traversal timing.
type MotionConfig struct {
	// Speed is the traversal speed in tiles per second
	Speed float64

	// TickInterval is how often the server advances motion
	TickInterval time.Duration
}

// NewMotionConfig creates a MotionConfig with default values.
func NewMotionConfig() *MotionConfig {
	return &MotionConfig{
		Speed:        3.0,
		TickInterval: 16 * time.Millisecond,
	}
}

// Validate checks that the motion configuration is valid.
func (m *MotionConfig) Validate() error {
	if m.Speed <= 0 {
		return fmt.Errorf("speed %g: %w", m.Speed, errors.ErrInvalidConfig)
	}
	if m.TickInterval <= 0 {
		return fmt.Errorf("tick interval %s: %w", m.TickInterval, errors.ErrInvalidConfig)
	}
	return nil
}
