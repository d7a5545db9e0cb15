package drowsiness

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/measure"
)

// Events are edge-triggered: each flag is true only on the frame its
// condition is confirmed.
type Events struct {
	Blink      bool `json:"blink"`
	Microsleep bool `json:"microsleep"`
	Yawn       bool `json:"yawn"`
	HeadNod    bool `json:"head_nod"`
}

// Any reports whether at least one event fired.
func (e Events) Any() bool {
	return e.Blink || e.Microsleep || e.Yawn || e.HeadNod
}

// Result is the per-frame output of the aggregator.
type Result struct {
	Timestamp float64   `json:"timestamp"`
	Eye       EyeStatus `json:"eye"`
	Events    Events    `json:"events"`
	Attention Attention `json:"attention"`
}

// Aggregator is the single entry point of the detection core. It owns one
// tracker per channel and must be driven from one goroutine; independent
// faces need independent aggregators.
type Aggregator struct {
	cfg    Config
	logger *slog.Logger

	eyes     *EyeTracker
	mouth    *MouthTracker
	head     *HeadTracker
	stimulus *StimulusChannel

	lastTS float64
	hasTS  bool
	frames int
}

// New creates an aggregator. The config is validated once here.
func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Aggregator{
		cfg:    cfg,
		logger: log.With("component", "drowsiness"),
	}
	a.build()
	return a, nil
}

func (a *Aggregator) build() {
	a.eyes = NewEyeTracker(a.cfg)
	a.mouth = NewMouthTracker(a.cfg)
	a.head = NewHeadTracker(a.cfg)
	a.stimulus = NewStimulusChannel(a.cfg.LatencyHistorySize)
	a.lastTS, a.hasTS = 0, false
	a.frames = 0
}

// Process runs one frame through the trackers in fixed order (eyes,
// mouth, head) and estimates attention. dt is the time since the previous
// call, clamped to zero for the first call and for out-of-order
// timestamps. A malformed snapshot is rejected before any state changes.
func (a *Aggregator) Process(ts float64, snap measure.Snapshot) (Result, error) {
	if err := snap.Validate(); err != nil {
		return Result{}, fmt.Errorf("process frame at %.3f: %w", ts, err)
	}

	dt := 0.0
	if a.hasTS {
		dt = max(0, ts-a.lastTS)
	}
	a.lastTS, a.hasTS = ts, true
	a.frames++

	// Without a face every channel is absent, whatever its flag says
	var ear, mar, nose, chin *float64
	headValid := false
	if snap.FacePresent {
		ear = snap.Eyes.EAR()
		mar = snap.Mouth.Ratio()
		headValid = snap.Head.Valid
		nose, chin = snap.Head.NoseHeight, snap.Head.ChinHeight
	}

	var ev Events
	eye := a.eyes.Update(ts, dt, ear)
	ev.Blink = eye.Blink
	ev.Microsleep = eye.Microsleep
	ev.Yawn = a.mouth.Update(dt, mar)
	ev.HeadNod = a.head.Update(dt, nose, chin, headValid)

	if ev.Any() {
		a.logger.Debug("drowsiness events",
			"ts", ts, "blink", ev.Blink, "microsleep", ev.Microsleep,
			"yawn", ev.Yawn, "head_nod", ev.HeadNod)
	}

	return Result{
		Timestamp: ts,
		Eye:       a.eyes.Status(),
		Events:    ev,
		Attention: EstimateAttention(a.Counters(), a.eyes.InterBlinks(), a.cfg),
	}, nil
}

// Counters returns cumulative event totals.
func (a *Aggregator) Counters() Counters {
	return Counters{
		Blinks:      a.eyes.Blinks(),
		Microsleeps: a.eyes.Microsleeps(),
		Yawns:       a.mouth.Yawns(),
		HeadNods:    a.head.Nods(),
	}
}

// InterBlinks returns the bounded inter-blink history, oldest first.
func (a *Aggregator) InterBlinks() []float64 {
	return a.eyes.InterBlinks()
}

// Attention re-estimates attention from the current counters.
func (a *Aggregator) Attention() Attention {
	return EstimateAttention(a.Counters(), a.eyes.InterBlinks(), a.cfg)
}

// HeadBaseline exposes the head tracker baseline for diagnostics.
func (a *Aggregator) HeadBaseline() (HeadBaseline, bool) {
	return a.head.Baseline()
}

// Frames returns how many frames were processed since creation or Reset.
func (a *Aggregator) Frames() int {
	return a.frames
}

// Config returns the active configuration.
func (a *Aggregator) Config() Config {
	return a.cfg
}

// RegisterStimulus forwards to the stimulus-response channel.
func (a *Aggregator) RegisterStimulus(ts float64) {
	a.stimulus.RegisterStimulus(ts)
}

// RegisterResponse forwards to the stimulus-response channel.
func (a *Aggregator) RegisterResponse(ts float64) (float64, bool) {
	return a.stimulus.RegisterResponse(ts)
}

// Latencies returns the retained stimulus-response latencies.
func (a *Aggregator) Latencies() []float64 {
	return a.stimulus.Latencies()
}

// Reset discards all tracker state and counters, keeping the config.
func (a *Aggregator) Reset() {
	a.build()
	a.logger.Info("detector state reset")
}
