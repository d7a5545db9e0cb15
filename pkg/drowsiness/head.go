package drowsiness

// HeadBaseline is the reference nose and chin height.
type HeadBaseline struct {
	Nose float64 `json:"nose"`
	Chin float64 `json:"chin"`
}

// HeadTracker detects sustained downward head displacement (a nod) against
// a slowly adapting postural baseline.
type HeadTracker struct {
	cfg Config

	baseline    HeadBaseline
	hasBaseline bool

	downTime float64
	active   bool
	nods     int
}

// NewHeadTracker creates a tracker without a baseline.
func NewHeadTracker(cfg Config) *HeadTracker {
	return &HeadTracker{cfg: cfg}
}

// Update advances the tracker and reports whether a nod was just
// confirmed. Heights are normalized by frame height, larger is lower.
// The first valid sample only seeds the baseline.
func (h *HeadTracker) Update(dt float64, nose, chin *float64, valid bool) bool {
	if !valid || nose == nil || chin == nil {
		return false
	}
	if dt < 0 {
		dt = 0
	}

	n, c := *nose, *chin
	if !h.hasBaseline {
		h.baseline = HeadBaseline{Nose: n, Chin: c}
		h.hasBaseline = true
		return false
	}

	dNose := n - h.baseline.Nose
	dChin := c - h.baseline.Chin

	// Follow slow posture changes, but never chase a confirmed nod
	if !h.active {
		r := h.cfg.HeadBaselineRate
		h.baseline.Nose = (1-r)*h.baseline.Nose + r*n
		h.baseline.Chin = (1-r)*h.baseline.Chin + r*c
	}

	down := dNose > h.cfg.HeadDropThreshold && dChin > h.cfg.HeadDropThreshold
	if !down {
		h.downTime = 0
		h.active = false
		return false
	}

	h.downTime += dt
	if h.downTime >= h.cfg.HeadNodMinDuration && !h.active {
		h.active = true
		h.nods++
		return true
	}
	return false
}

// Nods returns the number of confirmed nods.
func (h *HeadTracker) Nods() int { return h.nods }

// Active reports whether a confirmed nod is still in progress.
func (h *HeadTracker) Active() bool { return h.active }

// DownDuration returns how long the head has been down in the current run.
func (h *HeadTracker) DownDuration() float64 { return h.downTime }

// Baseline returns the current baseline, if one has been established.
func (h *HeadTracker) Baseline() (HeadBaseline, bool) { return h.baseline, h.hasBaseline }

func (h *HeadTracker) setConfig(cfg Config) { h.cfg = cfg }
