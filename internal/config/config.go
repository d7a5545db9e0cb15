// Package config loads runtime configuration for go-neurodrive commands.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-neurodrive/internal/log"
)

// Defaults used when neither the environment nor a .env file set a value.
const (
	DefaultLandmarkURL = "ws://127.0.0.1:8765/landmarks"
	DefaultHTTPPort    = "8090"
	DefaultLogLevel    = "info"
	DefaultPreset      = "default"
	DefaultHoldFrames  = 5
)

// Config holds process-level settings. Detector thresholds live in
// drowsiness.Config and are selected through Preset.
type Config struct {
	LandmarkURL string // face-mesh sidecar websocket
	ReplayFile  string // JSON-lines recording; takes precedence over LandmarkURL
	HTTPPort    string
	LogLevel    string
	Preset      string // default, sensitive, relaxed
	HoldFrames  int    // frames to reuse the last face after a miss
	Environment string
}

// Load reads an optional .env file from the working directory and then
// the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		// Missing .env is the normal case outside development
		log.Debug("no .env file, using process environment")
	}

	return Config{
		LandmarkURL: getEnv("NEURODRIVE_LANDMARK_URL", DefaultLandmarkURL),
		ReplayFile:  getEnv("NEURODRIVE_REPLAY_FILE", ""),
		HTTPPort:    getEnv("NEURODRIVE_HTTP_PORT", DefaultHTTPPort),
		LogLevel:    getEnv("NEURODRIVE_LOG_LEVEL", DefaultLogLevel),
		Preset:      getEnv("NEURODRIVE_PRESET", DefaultPreset),
		HoldFrames:  getEnvInt("NEURODRIVE_HOLD_FRAMES", DefaultHoldFrames),
		Environment: getEnv("NEURODRIVE_ENV", "development"),
	}
}

// IsProduction reports whether the process runs in the vehicle.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn("ignoring non-integer env value", "key", key, "value", v)
	}
	return defaultVal
}
