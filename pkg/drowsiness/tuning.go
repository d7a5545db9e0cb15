package drowsiness

// TuningParams holds the thresholds that can be adjusted at runtime.
// These can be modified via the dashboard API without restarting the monitor.
type TuningParams struct {
	// Eyes
	EARSmoothing          float64 `json:"ear_smoothing"`
	EARCloseThreshold     float64 `json:"ear_close_threshold"`
	EAROpenThreshold      float64 `json:"ear_open_threshold"`
	BlinkMaxDuration      float64 `json:"blink_max_duration"`
	MicrosleepMinDuration float64 `json:"microsleep_min_duration"`

	// Mouth
	YawnMARThreshold float64 `json:"yawn_mar_threshold"`
	YawnMinDuration  float64 `json:"yawn_min_duration"`

	// Head
	HeadDropThreshold  float64 `json:"head_drop_threshold"`
	HeadNodMinDuration float64 `json:"head_nod_min_duration"`

	// Attention
	InattentionInterBlink float64 `json:"inattention_inter_blink"`
}

// TuningParams returns the current tunable parameters.
func (a *Aggregator) TuningParams() TuningParams {
	return TuningParams{
		EARSmoothing:          a.cfg.EARSmoothing,
		EARCloseThreshold:     a.cfg.EARCloseThreshold,
		EAROpenThreshold:      a.cfg.EAROpenThreshold,
		BlinkMaxDuration:      a.cfg.BlinkMaxDuration,
		MicrosleepMinDuration: a.cfg.MicrosleepMinDuration,
		YawnMARThreshold:      a.cfg.YawnMARThreshold,
		YawnMinDuration:       a.cfg.YawnMinDuration,
		HeadDropThreshold:     a.cfg.HeadDropThreshold,
		HeadNodMinDuration:    a.cfg.HeadNodMinDuration,
		InattentionInterBlink: a.cfg.InattentionInterBlink,
	}
}

// SetTuningParams updates parameters at runtime. Only positive values are
// applied. The merged config is validated first; on error nothing changes.
// Tracker state (durations, baselines, counters) is kept.
func (a *Aggregator) SetTuningParams(p TuningParams) error {
	cfg := a.cfg

	if p.EARSmoothing > 0 {
		cfg.EARSmoothing = p.EARSmoothing
	}
	if p.EARCloseThreshold > 0 {
		cfg.EARCloseThreshold = p.EARCloseThreshold
	}
	if p.EAROpenThreshold > 0 {
		cfg.EAROpenThreshold = p.EAROpenThreshold
	}
	if p.BlinkMaxDuration > 0 {
		cfg.BlinkMaxDuration = p.BlinkMaxDuration
	}
	if p.MicrosleepMinDuration > 0 {
		cfg.MicrosleepMinDuration = p.MicrosleepMinDuration
	}
	if p.YawnMARThreshold > 0 {
		cfg.YawnMARThreshold = p.YawnMARThreshold
	}
	if p.YawnMinDuration > 0 {
		cfg.YawnMinDuration = p.YawnMinDuration
	}
	if p.HeadDropThreshold > 0 {
		cfg.HeadDropThreshold = p.HeadDropThreshold
	}
	if p.HeadNodMinDuration > 0 {
		cfg.HeadNodMinDuration = p.HeadNodMinDuration
	}
	if p.InattentionInterBlink > 0 {
		cfg.InattentionInterBlink = p.InattentionInterBlink
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.eyes.setConfig(cfg)
	a.mouth.setConfig(cfg)
	a.head.setConfig(cfg)
	a.logger.Info("tuning updated",
		"ear_close", cfg.EARCloseThreshold, "ear_open", cfg.EAROpenThreshold,
		"yawn_mar", cfg.YawnMARThreshold, "head_drop", cfg.HeadDropThreshold)
	return nil
}
