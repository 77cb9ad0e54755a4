// Package errors provides sentinel errors and error types for the escort chess engine.
// It defines the conditions a move request can end in and structured error types
// that preserve context while allowing inspection with errors.Is() and errors.As().
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions.
// Use these with errors.Is() to check for specific error types.
var (
	// ErrNoPath indicates the target tile is unreachable on the movement graph.
	ErrNoPath = errors.New("no path")

	// ErrPathBlocked indicates a commit was rejected because a path tile
	// is occupied or reserved by another piece.
	ErrPathBlocked = errors.New("path blocked")

	// ErrOutOfBounds indicates coordinates outside the board.
	ErrOutOfBounds = errors.New("coordinates out of bounds")

	// ErrUnknownPiece indicates a piece id that is not on the board.
	ErrUnknownPiece = errors.New("unknown piece")

	// ErrTileOccupied indicates a placement onto an occupied tile.
	ErrTileOccupied = errors.New("tile occupied")

	// ErrSelfDefence indicates an attempt to make a piece defend itself.
	ErrSelfDefence = errors.New("piece cannot defend itself")

	// ErrNotAlly indicates a defend target on the opposing team.
	ErrNotAlly = errors.New("defend target is not an ally")

	// ErrNoSelection indicates a command that needs a selected piece.
	ErrNoSelection = errors.New("no piece selected")

	// ErrMotionInFlight indicates an operation that needs a settled board.
	ErrMotionInFlight = errors.New("motion in flight")

	// ErrInvalidLayout indicates a malformed placement string.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrInvalidConfig indicates invalid configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSnapshotNotFound indicates no stored snapshot for a session id.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidScenario indicates a malformed scenario script.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// MoveError wraps errors with move request context: the piece that was asked
// to move, where it stood and where it was sent. It supports unwrapping via
// errors.Is() and errors.As().
type MoveError struct {
	Err   error  // The underlying error
	Piece int    // Piece id (0 if not known)
	Kind  string // Piece kind name (if known)
	FromX int
	FromY int
	ToX   int
	ToY   int
}

// Error returns a formatted error message including all available context.
func (e *MoveError) Error() string {
	var parts []string

	if e.Kind != "" {
		parts = append(parts, fmt.Sprintf("%s #%d", e.Kind, e.Piece))
	} else if e.Piece != 0 {
		parts = append(parts, fmt.Sprintf("piece #%d", e.Piece))
	}
	parts = append(parts, fmt.Sprintf("(%d,%d)->(%d,%d)", e.FromX, e.FromY, e.ToX, e.ToY))

	context := strings.Join(parts, " ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", context, e.Err)
	}
	return context
}

// Unwrap returns the underlying error, enabling errors.Is() and errors.As()
// to work through the MoveError wrapper.
func (e *MoveError) Unwrap() error {
	return e.Err
}

// LayoutError represents a placement parsing error with its location.
type LayoutError struct {
	Err    error  // The underlying error
	Row    int    // Row in reading order (1-based, top row first)
	Column int    // Column (1-based)
	Got    string // What was found instead
}

// Error returns a formatted error message with location and context.
func (e *LayoutError) Error() string {
	var parts []string

	if e.Row > 0 {
		loc := fmt.Sprintf("row %d", e.Row)
		if e.Column > 0 {
			loc += fmt.Sprintf(" col %d", e.Column)
		}
		parts = append(parts, loc)
	}
	if e.Got != "" {
		parts = append(parts, fmt.Sprintf("unexpected %s", e.Got))
	}

	if e.Err != nil {
		if len(parts) > 0 {
			return fmt.Sprintf("%s: %v", strings.Join(parts, ": "), e.Err)
		}
		return e.Err.Error()
	}

	if len(parts) > 0 {
		return strings.Join(parts, ": ")
	}
	return "layout error"
}

// Unwrap returns the underlying error.
func (e *LayoutError) Unwrap() error {
	return e.Err
}

// Wrap adds context to an error while preserving the underlying error
// for inspection with errors.Is() and errors.As().
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf adds formatted context to an error while preserving the underlying
// error for inspection with errors.Is() and errors.As().
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}
