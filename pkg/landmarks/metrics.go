package landmarks

import (
	"math"
	"sync"
	"time"
)

// Metrics tracks detector throughput for on-device monitoring.
type Metrics struct {
	mu              sync.Mutex
	frames          int
	withFace        int
	withoutFace     int
	errors          int
	totalProcessing time.Duration
}

// MetricsReport is a point-in-time view of Metrics.
type MetricsReport struct {
	Frames         int     `json:"frames"`
	FramesWithFace int     `json:"frames_with_face"`
	FramesNoFace   int     `json:"frames_no_face"`
	Errors         int     `json:"errors"`
	DetectionRate  float64 `json:"detection_rate_pct"`
	MeanProcessMS  float64 `json:"mean_processing_ms"`
	ProcessingFPS  float64 `json:"processing_fps"`
}

// Observe records one frame result.
func (m *Metrics) Observe(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames++
	if f.FacePresent {
		m.withFace++
	} else {
		m.withoutFace++
	}
	m.totalProcessing += f.ProcessingTime
}

// ObserveError records a frame that failed to produce a result.
func (m *Metrics) ObserveError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	m.errors++
}

// Report summarizes the counters. Rates are rounded to two decimals.
func (m *Metrics) Report() MetricsReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := MetricsReport{
		Frames:         m.frames,
		FramesWithFace: m.withFace,
		FramesNoFace:   m.withoutFace,
		Errors:         m.errors,
	}
	if m.frames == 0 {
		return r
	}

	r.DetectionRate = round2(float64(m.withFace) / float64(m.frames) * 100)
	mean := m.totalProcessing.Seconds() / float64(m.frames)
	r.MeanProcessMS = round2(mean * 1000)
	if mean > 0 {
		r.ProcessingFPS = round2(1 / mean)
	}
	return r
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames, m.withFace, m.withoutFace, m.errors = 0, 0, 0, 0
	m.totalProcessing = 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
