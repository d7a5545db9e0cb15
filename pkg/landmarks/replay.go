package landmarks

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// maxLineSize fits a refined mesh frame with generous float formatting.
const maxLineSize = 1 << 20

// ReplaySource plays back a JSON-lines recording, one frame per line.
type ReplaySource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int

	// Pace sleeps between frames by their timestamp difference so the
	// recording plays at the speed it was captured.
	Pace   bool
	lastTS float64
	hasTS  bool
	closed bool
}

// OpenReplay opens a recording file.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplaySource(f), nil
}

// NewReplaySource reads frames from r. If r is an io.Closer it is closed by Close.
func NewReplaySource(r io.Reader) *ReplaySource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	src := &ReplaySource{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// Next returns the next recorded frame or ErrEndOfStream.
func (r *ReplaySource) Next(ctx context.Context) (Frame, error) {
	if r.closed {
		return Frame{}, ErrClosed
	}

	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		frame, err := DecodeFrame(line)
		if err != nil {
			return Frame{}, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		if err := r.pace(ctx, frame.Timestamp); err != nil {
			return Frame{}, err
		}
		return frame, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("replay line %d: %w", r.line+1, err)
	}
	return Frame{}, ErrEndOfStream
}

func (r *ReplaySource) pace(ctx context.Context, ts float64) error {
	defer func() {
		r.lastTS = ts
		r.hasTS = true
	}()

	if !r.Pace || !r.hasTS || ts <= r.lastTS {
		return ctx.Err()
	}

	wait := time.Duration((ts - r.lastTS) * float64(time.Second))
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the underlying reader.
func (r *ReplaySource) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
