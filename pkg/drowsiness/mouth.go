package drowsiness

// MouthTracker measures how long the mouth stays open and reports a yawn
// when a long enough open run closes.
type MouthTracker struct {
	cfg      Config
	open     bool
	openTime float64
	yawns    int
}

// NewMouthTracker creates a tracker with a closed mouth.
func NewMouthTracker(cfg Config) *MouthTracker {
	return &MouthTracker{cfg: cfg}
}

// Update advances the tracker and reports whether a yawn just ended.
// A nil mar freezes the accumulator without resetting it.
func (m *MouthTracker) Update(dt float64, mar *float64) bool {
	if mar == nil {
		return false
	}
	if dt < 0 {
		dt = 0
	}

	if *mar >= m.cfg.YawnMARThreshold {
		m.openTime += dt
		m.open = true
		return false
	}

	if !m.open {
		return false
	}

	yawn := m.openTime >= m.cfg.YawnMinDuration
	if yawn {
		m.yawns++
	}
	m.open = false
	m.openTime = 0
	return yawn
}

// Yawns returns the number of confirmed yawns.
func (m *MouthTracker) Yawns() int { return m.yawns }

// Open reports whether the mouth is currently above the yawn threshold.
func (m *MouthTracker) Open() bool { return m.open }

// OpenDuration returns the accumulated open time of the current run.
func (m *MouthTracker) OpenDuration() float64 { return m.openTime }

func (m *MouthTracker) setConfig(cfg Config) { m.cfg = cfg }
