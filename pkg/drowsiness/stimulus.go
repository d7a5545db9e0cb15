package drowsiness

import (
	"log/slog"

	"github.com/teslashibe/go-neurodrive/internal/log"
)

// StimulusChannel records stimulus-response latencies from an external
// prompt (e.g. a wearable vibration the driver must acknowledge).
// Latencies are retained for future use and do not affect the attention
// estimate yet.
type StimulusChannel struct {
	pending    float64
	hasPending bool
	latencies  *History
	logger     *slog.Logger
}

// NewStimulusChannel creates a channel retaining up to size latencies.
func NewStimulusChannel(size int) *StimulusChannel {
	return &StimulusChannel{
		latencies: NewHistory(size),
		logger:    log.With("component", "drowsiness.stimulus"),
	}
}

// RegisterStimulus marks a stimulus as sent at ts. A newer stimulus
// replaces an unanswered one.
func (s *StimulusChannel) RegisterStimulus(ts float64) {
	s.pending = ts
	s.hasPending = true
}

// RegisterResponse consumes the pending stimulus and returns the latency.
// Without a pending stimulus the call only logs a warning and returns false.
func (s *StimulusChannel) RegisterResponse(ts float64) (float64, bool) {
	if !s.hasPending {
		s.logger.Warn("response registered without a pending stimulus", "timestamp", ts)
		return 0, false
	}

	latency := max(0, ts-s.pending)
	s.latencies.Push(latency)
	s.hasPending = false
	return latency, true
}

// Pending returns the timestamp of the unanswered stimulus, if any.
func (s *StimulusChannel) Pending() (float64, bool) {
	return s.pending, s.hasPending
}

// Latencies returns retained latencies, oldest first.
func (s *StimulusChannel) Latencies() []float64 {
	return s.latencies.Values()
}
