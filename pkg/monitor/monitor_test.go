package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/landmarks"
	"github.com/teslashibe/go-neurodrive/pkg/measure"
)

const fps = 30.0

// scripted returns one snapshot per Compute call, repeating the last.
type scripted struct {
	snaps []measure.Snapshot
	i     int
}

func (s *scripted) Compute(landmarks.Frame) measure.Snapshot {
	snap := s.snaps[min(s.i, len(s.snaps)-1)]
	s.i++
	return snap
}

// recorder is a Publisher that keeps every update.
type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) Publish(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// blockingSource never yields a frame.
type blockingSource struct{}

func (blockingSource) Next(ctx context.Context) (landmarks.Frame, error) {
	<-ctx.Done()
	return landmarks.Frame{}, ctx.Err()
}

func (blockingSource) Close() error { return nil }

func eyes(ear float64) measure.Snapshot {
	return measure.Snapshot{
		FacePresent: true,
		Eyes:        measure.Eyes(ear, ear),
		Mouth:       measure.Mouth(20, 100),
		Head:        measure.Head(0.5, 0.7, 96),
	}
}

// blinkScript is one second open, a 0.2s closure, then one second open.
func blinkScript() []measure.Snapshot {
	var out []measure.Snapshot
	for i := 0; i < 30; i++ {
		out = append(out, eyes(0.30))
	}
	for i := 0; i < 6; i++ {
		out = append(out, eyes(0.10))
	}
	for i := 0; i < 30; i++ {
		out = append(out, eyes(0.30))
	}
	return out
}

func frames(n int) []landmarks.Frame {
	out := make([]landmarks.Frame, n)
	for i := range out {
		out[i] = landmarks.Frame{
			Timestamp:   float64(i) / fps,
			Width:       640,
			Height:      480,
			FacePresent: true,
		}
	}
	return out
}

func newMonitor(t *testing.T, cfg Config, src landmarks.Source, snaps []measure.Snapshot) *Monitor {
	t.Helper()
	dc := drowsiness.DefaultConfig()
	dc.EARSmoothing = 0
	agg, err := drowsiness.New(dc)
	require.NoError(t, err)
	return New(cfg, src, &scripted{snaps: snaps}, agg)
}

func TestMonitor_RunUntilEndOfStream(t *testing.T) {
	script := blinkScript()
	src := landmarks.NewMockSource(frames(len(script))...)
	m := newMonitor(t, DefaultConfig(), src, script)
	rec := &recorder{}
	m.SetPublisher(rec)

	require.NoError(t, m.Run(context.Background()))

	st := m.Status()
	assert.False(t, st.Running)
	assert.Equal(t, len(script), st.Frames)
	assert.Equal(t, 1, st.Counters.Blinks)
	assert.Zero(t, st.Rejected)
	assert.Equal(t, len(script), st.Detector.Frames)
	assert.Equal(t, 100.0, st.Detector.DetectionRate)
	require.NotNil(t, st.Last)
	assert.InDelta(t, float64(len(script)-1)/fps, st.Last.Timestamp, 1e-9)

	updates := rec.all()
	require.Len(t, updates, len(script))
	blinks := 0
	for _, u := range updates {
		assert.Equal(t, m.Session(), u.Session)
		assert.True(t, u.FacePresent)
		if u.Result.Events.Blink {
			blinks++
		}
	}
	assert.Equal(t, 1, blinks)
	assert.Equal(t, 1, updates[len(updates)-1].Counters.Blinks)
}

func TestMonitor_SkipsTransientSourceErrors(t *testing.T) {
	script := blinkScript()
	src := landmarks.NewMockSource(frames(len(script))...).FailAt(3, errors.New("decode failed"))
	m := newMonitor(t, DefaultConfig(), src, script)

	require.NoError(t, m.Run(context.Background()))

	st := m.Status()
	assert.Equal(t, len(script), st.Frames)
	assert.Equal(t, 1, st.Detector.Errors)
	assert.Equal(t, 1, st.Counters.Blinks)
}

func TestMonitor_GivesUpAfterConsecutiveErrors(t *testing.T) {
	boom := errors.New("connection refused")
	src := landmarks.NewMockSource(frames(10)...).FailAt(0, boom).FailAt(1, boom).FailAt(2, boom)
	m := newMonitor(t, Config{MaxConsecutiveErrors: 3}, src, blinkScript())

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "3 consecutive")
	assert.Zero(t, m.Status().Frames)
}

func TestMonitor_RejectsMalformedSnapshot(t *testing.T) {
	script := blinkScript()
	bad := eyes(0.3)
	bad.Head.NoseHeight = nil
	script[10] = bad

	src := landmarks.NewMockSource(frames(len(script))...)
	m := newMonitor(t, DefaultConfig(), src, script)

	require.NoError(t, m.Run(context.Background()))

	st := m.Status()
	assert.Equal(t, 1, st.Rejected)
	assert.Equal(t, len(script)-1, st.Frames)
	assert.Equal(t, len(script), st.Detector.Frames)
}

func TestMonitor_StopsOnCancel(t *testing.T) {
	m := newMonitor(t, DefaultConfig(), blockingSource{}, blinkScript())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Status().Running }, time.Second, 5*time.Millisecond)
	assert.Error(t, m.Run(ctx), "second Run must be refused")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, m.Status().Running)
}

func TestMonitor_StimulusUsesFrameClock(t *testing.T) {
	script := blinkScript()
	src := landmarks.NewMockSource(frames(len(script))...)
	m := newMonitor(t, DefaultConfig(), src, script)
	require.NoError(t, m.Run(context.Background()))

	at := m.RegisterStimulus(nil)
	assert.InDelta(t, float64(len(script)-1)/fps, at, 1e-9)

	respond := at + 0.45
	latency, ok := m.RegisterResponse(&respond)
	require.True(t, ok)
	assert.InDelta(t, 0.45, latency, 1e-9)

	_, ok = m.RegisterResponse(nil)
	assert.False(t, ok)

	st := m.Status()
	require.Len(t, st.Latencies, 1)
	assert.Equal(t, drowsiness.AttentionMedium, st.Attention.Category)
}

func TestMonitor_TuningAndReset(t *testing.T) {
	script := blinkScript()
	src := landmarks.NewMockSource(frames(len(script))...)
	m := newMonitor(t, DefaultConfig(), src, script)
	require.NoError(t, m.Run(context.Background()))

	require.NoError(t, m.SetTuningParams(drowsiness.TuningParams{YawnMARThreshold: 0.55}))
	assert.Equal(t, 0.55, m.TuningParams().YawnMARThreshold)
	assert.Error(t, m.SetTuningParams(drowsiness.TuningParams{EARCloseThreshold: 0.5}))

	old := m.Session()
	session := m.Reset()
	assert.NotEqual(t, old, session)
	assert.Equal(t, session, m.Session())

	st := m.Status()
	assert.Zero(t, st.Frames)
	assert.Equal(t, drowsiness.Counters{}, st.Counters)
	assert.Nil(t, st.Last)
	assert.Zero(t, st.Detector.Frames)

	// Tuning survives a reset
	assert.Equal(t, 0.55, m.TuningParams().YawnMARThreshold)
}
