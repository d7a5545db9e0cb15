package neurodrive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/debug"
	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/landmarks"
	"github.com/teslashibe/go-neurodrive/pkg/measure"
	"github.com/teslashibe/go-neurodrive/pkg/monitor"
	"github.com/teslashibe/go-neurodrive/pkg/web"
)

// App is the running drowsiness monitor
type App struct {
	config Config
	logger *slog.Logger

	source    landmarks.Source
	monitor   *monitor.Monitor
	webServer *web.Server
}

// New creates a new application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	return &App{
		config: cfg,
		logger: log.With("component", "app"),
	}, nil
}

// Init opens the landmark source and builds the pipeline.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.logger.Info("NeuroDrive drowsiness monitor", "preset", a.config.Preset, "debug", debug.Enabled)

	src, err := a.openSource()
	if err != nil {
		return fmt.Errorf("landmark source: %w", err)
	}
	a.source = landmarks.NewHoldLast(src, a.config.HoldFrames)

	// Validated in New
	dcfg, _ := drowsiness.ConfigByName(a.config.Preset)
	agg, err := drowsiness.New(dcfg)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	a.monitor = monitor.New(monitor.DefaultConfig(), a.source,
		measure.NewCalculator(measure.FaceMeshIndices()), agg)

	if !a.config.NoDashboard {
		a.webServer = web.NewServer(a.config.HTTPPort, a.monitor)
		a.monitor.SetPublisher(a.webServer)
	}
	return nil
}

func (a *App) openSource() (landmarks.Source, error) {
	if a.config.ReplayFile != "" {
		r, err := landmarks.OpenReplay(a.config.ReplayFile)
		if err != nil {
			return nil, err
		}
		r.Pace = a.config.Pace
		a.logger.Info("replaying recording", "file", a.config.ReplayFile, "paced", r.Pace)
		return r, nil
	}

	a.logger.Info("streaming landmarks", "url", a.config.LandmarkURL)
	return landmarks.NewStreamSource(landmarks.DefaultStreamConfig(a.config.LandmarkURL)), nil
}

// Run processes frames until the context is cancelled or a recording ends.
func (a *App) Run(ctx context.Context) error {
	if a.monitor == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	err := a.monitor.Run(ctx)

	st := a.monitor.Status()
	a.logger.Info("session summary",
		"session", st.Session,
		"frames", st.Frames,
		"blinks", st.Counters.Blinks,
		"microsleeps", st.Counters.Microsleeps,
		"yawns", st.Counters.Yawns,
		"head_nods", st.Counters.HeadNods,
		"attention", st.Attention.Category,
		"detection_rate_pct", st.Detector.DetectionRate)
	return err
}

// Monitor returns the pipeline monitor, nil before Init.
func (a *App) Monitor() *monitor.Monitor {
	return a.monitor
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warn("close landmark source", "error", err)
		}
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("stop web server", "error", err)
		}
	}
	a.logger.Info("goodbye")
}
