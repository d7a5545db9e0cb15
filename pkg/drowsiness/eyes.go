package drowsiness

// EyeState is the qualitative eye state.
type EyeState string

const (
	EyeUnknown EyeState = "unknown"
	EyeOpen    EyeState = "open"
	EyeClosed  EyeState = "closed"
)

// EyeStatus is the reportable eye state after a frame.
type EyeStatus struct {
	State    EyeState `json:"state"`
	Duration float64  `json:"duration"` // seconds in the current state
	EAR      *float64 `json:"ear"`      // smoothed EAR, nil when the frame had no reading

	// BelowClosedThreshold compares the smoothed EAR with the nominal
	// closed level. It is informational and does not drive transitions.
	BelowClosedThreshold bool `json:"below_closed_threshold"`
}

// EyeUpdate is the outcome of one EyeTracker.Update call.
type EyeUpdate struct {
	Changed    bool
	Blink      bool
	Microsleep bool
}

// EyeTracker smooths EAR, classifies open/closed with hysteresis and
// turns finished closed runs into blink or microsleep events.
type EyeTracker struct {
	cfg    Config
	status EyeStatus

	filtered    float64
	hasFiltered bool

	blinks       int
	microsleeps  int
	lastBlink    float64
	hasLastBlink bool
	interBlinks  *History
}

// NewEyeTracker creates a tracker in the unknown state.
func NewEyeTracker(cfg Config) *EyeTracker {
	return &EyeTracker{
		cfg:         cfg,
		status:      EyeStatus{State: EyeUnknown},
		interBlinks: NewHistory(cfg.InterBlinkHistorySize),
	}
}

// Update advances the tracker by dt seconds. now is the frame timestamp,
// used for the blink refractory period and inter-blink intervals. A nil
// ear means no reliable reading: the state becomes unknown and neither
// the filter nor the duration moves.
func (t *EyeTracker) Update(now, dt float64, ear *float64) EyeUpdate {
	if dt < 0 {
		dt = 0
	}

	if ear == nil {
		changed := t.status.State != EyeUnknown
		t.status.State = EyeUnknown
		t.status.EAR = nil
		t.status.BelowClosedThreshold = false
		return EyeUpdate{Changed: changed}
	}

	// First sample seeds the filter directly
	if !t.hasFiltered {
		t.filtered = *ear
		t.hasFiltered = true
	} else {
		a := t.cfg.EARSmoothing
		t.filtered = a*t.filtered + (1-a)*(*ear)
	}
	smoothed := t.filtered
	t.status.EAR = &smoothed
	t.status.BelowClosedThreshold = smoothed < t.cfg.EARClosedThreshold

	prev := t.status.State
	next := t.classify(prev, smoothed)

	if next == prev {
		t.status.Duration += dt
		return EyeUpdate{}
	}

	up := EyeUpdate{Changed: true}
	if prev == EyeClosed {
		t.closedRunEnded(now, t.status.Duration, &up)
	}

	// The current tick's time belongs to the new state
	t.status.State = next
	t.status.Duration = dt
	return up
}

// classify applies the hysteresis band.
func (t *EyeTracker) classify(prev EyeState, ear float64) EyeState {
	if prev == EyeClosed {
		if ear > t.cfg.EAROpenThreshold {
			return EyeOpen
		}
		return EyeClosed
	}
	if ear < t.cfg.EARCloseThreshold {
		return EyeClosed
	}
	return EyeOpen
}

// closedRunEnded classifies a finished closed run. Runs between the blink
// maximum and the microsleep minimum produce nothing.
func (t *EyeTracker) closedRunEnded(now, d float64, up *EyeUpdate) {
	switch {
	case d >= t.cfg.BlinkMinDuration && d <= t.cfg.BlinkMaxDuration:
		if t.hasLastBlink && now-t.lastBlink < t.cfg.BlinkRefractory {
			return
		}
		up.Blink = true
		t.blinks++
		if t.hasLastBlink {
			t.interBlinks.Push(max(0, now-t.lastBlink))
		}
		t.lastBlink = now
		t.hasLastBlink = true

	case d >= t.cfg.MicrosleepMinDuration:
		up.Microsleep = true
		t.microsleeps++
	}
}

// Status returns the current eye status.
func (t *EyeTracker) Status() EyeStatus {
	s := t.status
	if s.EAR != nil {
		v := *s.EAR
		s.EAR = &v
	}
	return s
}

// Blinks returns the number of confirmed blinks.
func (t *EyeTracker) Blinks() int { return t.blinks }

// Microsleeps returns the number of confirmed microsleeps.
func (t *EyeTracker) Microsleeps() int { return t.microsleeps }

// InterBlinks returns the retained inter-blink intervals, oldest first.
func (t *EyeTracker) InterBlinks() []float64 { return t.interBlinks.Values() }

// LastBlink returns the timestamp of the last confirmed blink.
func (t *EyeTracker) LastBlink() (float64, bool) { return t.lastBlink, t.hasLastBlink }

func (t *EyeTracker) setConfig(cfg Config) { t.cfg = cfg }
