// NeuroDrive - driver drowsiness monitor
// Consumes face-mesh landmarks and reports blinks, microsleeps, yawns and head nods
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-neurodrive/internal/config"
	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/neurodrive"
)

func main() {
	env := config.Load()
	cfg, level := parseFlags(env)
	log.Init(level)

	app, err := neurodrive.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags over the environment settings.
func parseFlags(env config.Config) (neurodrive.Config, string) {
	cfg := neurodrive.FromEnv(env)

	debug := flag.Bool("debug", false, "Enable event debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log per-frame measures (very verbose)")
	url := flag.String("url", cfg.LandmarkURL, "Face-mesh sidecar websocket URL (NEURODRIVE_LANDMARK_URL)")
	replay := flag.String("replay", cfg.ReplayFile, "Replay a JSON-lines recording instead of streaming (NEURODRIVE_REPLAY_FILE)")
	pace := flag.Bool("pace", false, "Play recordings at capture speed")
	port := flag.String("port", cfg.HTTPPort, "Dashboard HTTP port (NEURODRIVE_HTTP_PORT)")
	noDashboard := flag.Bool("no-dashboard", false, "Disable the web dashboard")
	preset := flag.String("preset", cfg.Preset, "Detector preset: default, sensitive, relaxed (NEURODRIVE_PRESET)")
	hold := flag.Int("hold-frames", cfg.HoldFrames, "Reuse the last face for this many missed frames (NEURODRIVE_HOLD_FRAMES)")
	level := flag.String("log-level", env.LogLevel, "Log level: debug, info, warn, error (NEURODRIVE_LOG_LEVEL)")
	flag.Parse()

	cfg.Debug, cfg.DebugFrames = *debug, *debugFrames
	cfg.LandmarkURL, cfg.ReplayFile, cfg.Pace = *url, *replay, *pace
	cfg.HTTPPort, cfg.NoDashboard = *port, *noDashboard
	cfg.Preset, cfg.HoldFrames = *preset, *hold

	lvl := *level
	if cfg.Debug || cfg.DebugFrames {
		lvl = "debug"
	}
	return cfg, lvl
}
