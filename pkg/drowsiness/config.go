// Package drowsiness detects blink, microsleep, yawn and head-nod events
// from per-frame face measures and estimates driver attention.
//
// The package is synchronous and allocation-light: callers feed one
// measurement snapshot per frame through Aggregator.Process and receive
// edge-triggered events plus an attention estimate. It performs no I/O and
// never reads the clock; all time comes from the caller's timestamps.
package drowsiness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("drowsiness: invalid config")

// Config holds all tunable thresholds and time windows.
// Durations are in seconds.
type Config struct {
	// Eyes
	EARSmoothing       float64 // EMA weight of the previous value (0 = no smoothing)
	EARCloseThreshold  float64 // smoothed EAR below this closes an open eye
	EAROpenThreshold   float64 // smoothed EAR above this opens a closed eye
	EARClosedThreshold float64 // nominal "closed" level, reporting only

	BlinkMinDuration      float64 // shortest closed run counted as a blink
	BlinkMaxDuration      float64 // longest closed run counted as a blink
	BlinkRefractory       float64 // minimum time between confirmed blinks
	MicrosleepMinDuration float64 // shortest closed run counted as a microsleep

	// Mouth
	YawnMARThreshold float64 // MAR at or above this counts as mouth open
	YawnMinDuration  float64 // shortest open run counted as a yawn

	// Head
	HeadDropThreshold  float64 // nose and chin drop, fraction of frame height
	HeadNodMinDuration float64 // how long the head must stay down
	HeadBaselineRate   float64 // per-frame baseline adaptation weight

	// Attention
	InterBlinkHistorySize int     // bounded inter-blink interval history
	InterBlinkMinSamples  int     // samples needed before judging blink pattern
	InattentionInterBlink float64 // mean inter-blink above this suggests a fixed stare

	// Stimulus-response hook
	LatencyHistorySize int
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		EARSmoothing:       0.5,
		EARCloseThreshold:  0.18,
		EAROpenThreshold:   0.22, // 0.04 hysteresis band
		EARClosedThreshold: 0.20,

		BlinkMinDuration:      0.10,
		BlinkMaxDuration:      0.40,
		BlinkRefractory:       0.25,
		MicrosleepMinDuration: 1.0,

		YawnMARThreshold: 0.6,
		YawnMinDuration:  1.0,

		HeadDropThreshold:  0.10, // 10% of frame height
		HeadNodMinDuration: 1.0,
		HeadBaselineRate:   0.005,

		InterBlinkHistorySize: 100,
		InterBlinkMinSamples:  3,
		InattentionInterBlink: 8.0,

		LatencyHistorySize: 50,
	}
}

// SensitiveConfig flags drowsiness earlier at the cost of false positives
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.EARCloseThreshold = 0.20
	cfg.EAROpenThreshold = 0.24
	cfg.EARClosedThreshold = 0.22
	cfg.MicrosleepMinDuration = 0.7
	cfg.YawnMARThreshold = 0.5
	cfg.YawnMinDuration = 0.8
	cfg.HeadDropThreshold = 0.07
	cfg.HeadNodMinDuration = 0.7
	cfg.InattentionInterBlink = 6.0
	return cfg
}

// RelaxedConfig suppresses borderline detections (glasses, low light)
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.EARSmoothing = 0.6 // More smoothing
	cfg.EARCloseThreshold = 0.16
	cfg.EAROpenThreshold = 0.20
	cfg.EARClosedThreshold = 0.18
	cfg.MicrosleepMinDuration = 1.5
	cfg.YawnMARThreshold = 0.7
	cfg.YawnMinDuration = 1.5
	cfg.HeadDropThreshold = 0.13
	cfg.HeadNodMinDuration = 1.5
	cfg.InattentionInterBlink = 10.0
	return cfg
}

// ConfigByName returns a preset by name: default, sensitive or relaxed.
func ConfigByName(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultConfig(), nil
	case "sensitive":
		return SensitiveConfig(), nil
	case "relaxed":
		return RelaxedConfig(), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.EARSmoothing < 0 || c.EARSmoothing >= 1:
		return fmt.Errorf("%w: EAR smoothing %.3f outside [0, 1)", ErrInvalidConfig, c.EARSmoothing)
	case c.EARCloseThreshold >= c.EAROpenThreshold:
		return fmt.Errorf("%w: close threshold %.3f must be below open threshold %.3f",
			ErrInvalidConfig, c.EARCloseThreshold, c.EAROpenThreshold)
	case c.BlinkMinDuration < 0 || c.BlinkMinDuration > c.BlinkMaxDuration:
		return fmt.Errorf("%w: blink window [%.3f, %.3f]", ErrInvalidConfig, c.BlinkMinDuration, c.BlinkMaxDuration)
	case c.BlinkRefractory < 0 || c.MicrosleepMinDuration <= 0 ||
		c.YawnMinDuration < 0 || c.HeadNodMinDuration < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	case c.HeadDropThreshold <= 0:
		return fmt.Errorf("%w: head drop threshold must be positive", ErrInvalidConfig)
	case c.HeadBaselineRate < 0 || c.HeadBaselineRate > 1:
		return fmt.Errorf("%w: head baseline rate %.4f outside [0, 1]", ErrInvalidConfig, c.HeadBaselineRate)
	case c.InterBlinkHistorySize <= 0 || c.LatencyHistorySize <= 0:
		return fmt.Errorf("%w: history sizes must be positive", ErrInvalidConfig)
	case c.InterBlinkMinSamples <= 0:
		return fmt.Errorf("%w: inter-blink sample minimum must be positive", ErrInvalidConfig)
	}
	return nil
}
