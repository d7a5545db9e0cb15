package landmarks

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("landmarks: source closed")

	// ErrEndOfStream is returned by finite sources once exhausted.
	ErrEndOfStream = errors.New("landmarks: end of stream")
)

// Source is the interface for landmark providers.
// Implementations wrap an external face-mesh model; the drowsiness core
// never talks to the model directly.
type Source interface {
	// Next blocks until the next frame result is available.
	// A frame without a face is a valid result, not an error.
	Next(ctx context.Context) (Frame, error)

	// Close releases resources
	Close() error
}
