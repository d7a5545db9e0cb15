// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-neurodrive/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame measurement logs are shown (EAR, MAR, head heights).
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log emits a debug message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// FrameLog emits a message only if per-frame debug mode is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		log.Info(msg, args...)
	}
}
