package landmarks

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-neurodrive/internal/log"
)

// HoldLast wraps a Source and re-serves the last detected face for up to
// MaxMisses consecutive frames without a face. Short detector dropouts
// (motion blur, a hand passing) then do not reset the eye state.
type HoldLast struct {
	src       Source
	maxMisses int
	logger    *slog.Logger

	last   *Frame
	misses int
}

// NewHoldLast wraps src. maxMisses <= 0 disables holding.
func NewHoldLast(src Source, maxMisses int) *HoldLast {
	return &HoldLast{
		src:       src,
		maxMisses: maxMisses,
		logger:    log.With("component", "landmarks.hold"),
	}
}

// Next implements Source.
func (h *HoldLast) Next(ctx context.Context) (Frame, error) {
	frame, err := h.src.Next(ctx)
	if err != nil {
		return frame, err
	}

	if frame.FacePresent {
		h.misses = 0
		if h.maxMisses > 0 {
			kept := frame
			h.last = &kept
		}
		return frame, nil
	}

	h.misses++
	if h.last == nil || h.misses > h.maxMisses {
		// Expired: forget the cached face entirely
		h.last = nil
		return frame, nil
	}

	h.logger.Debug("reusing cached face", "misses", h.misses)

	held := *h.last
	held.Timestamp = frame.Timestamp
	held.ProcessingTime = frame.ProcessingTime
	held.Confidence = CachedConfidence
	if frame.Width > 0 && frame.Height > 0 {
		held.Width, held.Height = frame.Width, frame.Height
	}
	return held, nil
}

// Misses returns the current run of frames without a detected face.
func (h *HoldLast) Misses() int {
	return h.misses
}

// Close implements Source.
func (h *HoldLast) Close() error {
	return h.src.Close()
}
