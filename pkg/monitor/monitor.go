// Package monitor runs the drowsiness pipeline: it pulls landmark frames
// from a source, turns them into measures and feeds the aggregator, one
// frame at a time.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/debug"
	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/landmarks"
	"github.com/teslashibe/go-neurodrive/pkg/measure"
)

// Publisher receives every processed frame (e.g. the dashboard)
type Publisher interface {
	Publish(u Update)
}

// Update is the per-frame payload handed to the Publisher.
type Update struct {
	Session     string              `json:"session"`
	FacePresent bool                `json:"face_present"`
	Result      drowsiness.Result   `json:"result"`
	Counters    drowsiness.Counters `json:"counters"`
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Session   string                  `json:"session"`
	Started   time.Time               `json:"started"`
	Running   bool                    `json:"running"`
	Frames    int                     `json:"frames"`
	Rejected  int                     `json:"rejected"`
	Counters  drowsiness.Counters     `json:"counters"`
	Attention drowsiness.Attention    `json:"attention"`
	Last      *drowsiness.Result      `json:"last,omitempty"`
	Latencies []float64               `json:"stimulus_latencies"`
	Detector  landmarks.MetricsReport `json:"detector"`
}

// Config holds the runtime loop settings
type Config struct {
	// MaxConsecutiveErrors stops Run after this many source errors in a row.
	// Zero or less never gives up.
	MaxConsecutiveErrors int
}

// DefaultConfig returns the loop defaults
func DefaultConfig() Config {
	return Config{MaxConsecutiveErrors: 100}
}

// Monitor wires a landmark source to the drowsiness aggregator. Run owns
// the frame loop; every other method is safe to call concurrently.
type Monitor struct {
	config   Config
	source   landmarks.Source
	provider measure.Provider
	logger   *slog.Logger
	metrics  *landmarks.Metrics

	mu        sync.Mutex
	agg       *drowsiness.Aggregator
	publisher Publisher
	session   string
	started   time.Time
	running   bool
	rejected  int
	last      *drowsiness.Result
	lastTS    float64
	category  drowsiness.Category
}

// New creates a monitor. The aggregator must not be used elsewhere.
func New(config Config, source landmarks.Source, provider measure.Provider, agg *drowsiness.Aggregator) *Monitor {
	return &Monitor{
		config:   config,
		source:   source,
		provider: provider,
		agg:      agg,
		logger:   log.With("component", "monitor"),
		metrics:  &landmarks.Metrics{},
		session:  uuid.New().String(),
		started:  time.Now(),
	}
}

// SetPublisher sets the per-frame publisher
func (m *Monitor) SetPublisher(p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = p
}

// Session returns the current session id
func (m *Monitor) Session() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Run processes frames until the context is cancelled or the source ends.
// Cancellation and end of stream return nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("monitor: already running")
	}
	m.running = true
	session := m.session
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.logger.Info("monitor started", "session", session)

	failures := 0
	for {
		frame, err := m.source.Next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				m.logger.Info("monitor stopped", "reason", ctx.Err())
				return nil
			case errors.Is(err, landmarks.ErrEndOfStream), errors.Is(err, landmarks.ErrClosed):
				m.logger.Info("landmark source finished", "reason", err)
				return nil
			}

			m.metrics.ObserveError()
			failures++
			m.logger.Warn("landmark source error", "error", err, "consecutive", failures)
			if m.config.MaxConsecutiveErrors > 0 && failures >= m.config.MaxConsecutiveErrors {
				return fmt.Errorf("monitor: %d consecutive source errors: %w", failures, err)
			}
			continue
		}
		failures = 0

		m.metrics.Observe(frame)
		m.step(frame)
	}
}

// step runs one frame through the measure provider and the aggregator.
func (m *Monitor) step(frame landmarks.Frame) {
	snap := m.provider.Compute(frame)

	m.mu.Lock()
	res, err := m.agg.Process(frame.Timestamp, snap)
	if err != nil {
		m.rejected++
		m.mu.Unlock()
		m.logger.Warn("frame rejected", "ts", frame.Timestamp, "error", err)
		return
	}
	m.last = &res
	m.lastTS = frame.Timestamp
	counters := m.agg.Counters()
	prevCategory := m.category
	m.category = res.Attention.Category
	publisher := m.publisher
	session := m.session
	m.mu.Unlock()

	debug.FrameLog("frame",
		"ts", frame.Timestamp,
		"face", snap.FacePresent,
		"ear", optional(snap.Eyes.EAR()),
		"mar", optional(snap.Mouth.Ratio()),
		"eye_state", res.Eye.State,
		"eye_duration", res.Eye.Duration)

	m.logEvents(res, counters)
	if prevCategory != "" && prevCategory != res.Attention.Category {
		m.logger.Info("attention changed",
			"from", prevCategory, "to", res.Attention.Category,
			"level", res.Attention.Level, "reason", res.Attention.Reason)
	}

	if publisher != nil {
		publisher.Publish(Update{
			Session:     session,
			FacePresent: snap.FacePresent,
			Result:      res,
			Counters:    counters,
		})
	}
}

// optional unwraps a measure for logging; absent values log as null.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (m *Monitor) logEvents(res drowsiness.Result, c drowsiness.Counters) {
	ev := res.Events
	if ev.Blink {
		debug.Log("blink", "ts", res.Timestamp, "total", c.Blinks)
	}
	if ev.Microsleep {
		m.logger.Warn("microsleep detected", "ts", res.Timestamp, "total", c.Microsleeps)
	}
	if ev.Yawn {
		m.logger.Info("yawn detected", "ts", res.Timestamp, "total", c.Yawns)
	}
	if ev.HeadNod {
		m.logger.Warn("head nod detected", "ts", res.Timestamp, "total", c.HeadNods)
	}
}

// Status returns a snapshot of the session
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Session:   m.session,
		Started:   m.started,
		Running:   m.running,
		Frames:    m.agg.Frames(),
		Rejected:  m.rejected,
		Counters:  m.agg.Counters(),
		Attention: m.agg.Attention(),
		Latencies: m.agg.Latencies(),
		Detector:  m.metrics.Report(),
	}
	if m.last != nil {
		last := *m.last
		s.Last = &last
	}
	return s
}

// Attention returns the current attention estimate
func (m *Monitor) Attention() drowsiness.Attention {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg.Attention()
}

// RegisterStimulus records a stimulus at ts, or at the last frame
// timestamp when ts is nil. It returns the timestamp used.
func (m *Monitor) RegisterStimulus(ts *float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.stamp(ts)
	m.agg.RegisterStimulus(at)
	m.logger.Info("stimulus registered", "ts", at)
	return at
}

// RegisterResponse records a response at ts, or at the last frame
// timestamp when ts is nil.
func (m *Monitor) RegisterResponse(ts *float64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latency, ok := m.agg.RegisterResponse(m.stamp(ts))
	if ok {
		m.logger.Info("stimulus response", "latency", latency)
	}
	return latency, ok
}

func (m *Monitor) stamp(ts *float64) float64 {
	if ts != nil {
		return *ts
	}
	return m.lastTS
}

// TuningParams returns the current tunable thresholds
func (m *Monitor) TuningParams() drowsiness.TuningParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg.TuningParams()
}

// SetTuningParams applies new thresholds without resetting state
func (m *Monitor) SetTuningParams(p drowsiness.TuningParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg.SetTuningParams(p)
}

// Reset clears detector state and detector metrics and starts a new session.
func (m *Monitor) Reset() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.agg.Reset()
	m.metrics.Reset()
	m.session = uuid.New().String()
	m.started = time.Now()
	m.rejected = 0
	m.last = nil
	m.lastTS = 0
	m.category = ""
	m.logger.Info("session reset", "session", m.session)
	return m.session
}
