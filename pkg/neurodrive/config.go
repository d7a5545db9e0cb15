// Package neurodrive assembles the landmark source, drowsiness monitor and
// dashboard into one runnable application.
package neurodrive

import (
	"errors"

	"github.com/teslashibe/go-neurodrive/internal/config"
	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/neurodrive/main.go; this struct is data only.
type Config struct {
	// Debug enables event debug logs, DebugFrames per-frame measure logs.
	Debug       bool
	DebugFrames bool

	// Landmark input. ReplayFile takes precedence over LandmarkURL.
	LandmarkURL string
	ReplayFile  string
	Pace        bool // play recordings in real time
	HoldFrames  int

	// Detector threshold preset: default, sensitive, relaxed.
	Preset string

	// Dashboard
	HTTPPort    string
	NoDashboard bool
}

// FromEnv builds a Config from the process-level settings.
func FromEnv(env config.Config) Config {
	return Config{
		LandmarkURL: env.LandmarkURL,
		ReplayFile:  env.ReplayFile,
		HoldFrames:  env.HoldFrames,
		Preset:      env.Preset,
		HTTPPort:    env.HTTPPort,
	}
}

// Validate checks that the configuration can be started.
func (c Config) Validate() error {
	if c.LandmarkURL == "" && c.ReplayFile == "" {
		return errors.New("neither a landmark URL nor a replay file is set")
	}
	if !c.NoDashboard && c.HTTPPort == "" {
		return errors.New("dashboard enabled without an HTTP port")
	}
	if _, err := drowsiness.ConfigByName(c.Preset); err != nil {
		return err
	}
	return nil
}
