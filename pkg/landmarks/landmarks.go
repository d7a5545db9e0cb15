// Package landmarks defines the per-frame facial landmark stream consumed by
// the drowsiness pipeline and the sources that produce it.
package landmarks

import (
	"encoding/json"
	"fmt"
	"time"
)

// FaceMesh model sizes. The refined mesh adds ten iris points.
const (
	FaceMeshPoints        = 468
	FaceMeshRefinedPoints = 478
)

// CachedConfidence is reported for frames re-served by HoldLast.
const CachedConfidence = 0.8

// Point is a landmark in normalized image coordinates (0-1, origin top left).
// Z is relative depth as reported by the mesh model.
type Point struct {
	X, Y, Z float64
}

// Pixel is a landmark in integer pixel coordinates.
type Pixel struct {
	X, Y int
}

// Frame is one detector result for a single video frame.
type Frame struct {
	Timestamp      float64       // seconds, external clock
	Width, Height  int           // frame resolution in pixels
	FacePresent    bool          // false means Points is empty
	Points         []Point       // normalized landmarks of the first face
	Confidence     float64       // 0-1
	ProcessingTime time.Duration // detector time spent on this frame
}

// Pixels converts the normalized points to pixel coordinates, clipped to
// the frame bounds.
func (f Frame) Pixels() []Pixel {
	if !f.FacePresent || len(f.Points) == 0 || f.Width <= 0 || f.Height <= 0 {
		return nil
	}

	out := make([]Pixel, len(f.Points))
	for i, p := range f.Points {
		out[i] = Pixel{
			X: clampInt(int(p.X*float64(f.Width)), 0, f.Width-1),
			Y: clampInt(int(p.Y*float64(f.Height)), 0, f.Height-1),
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wireFrame is the JSON shape pushed by the face-mesh sidecar and stored
// in replay recordings. Points are [x, y, z] triples.
type wireFrame struct {
	Timestamp    float64      `json:"timestamp"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	FacePresent  bool         `json:"face_present"`
	Confidence   float64      `json:"confidence"`
	ProcessingMS float64      `json:"processing_ms,omitempty"`
	Points       [][3]float64 `json:"points,omitempty"`
}

// DecodeFrame parses one JSON-encoded frame.
func DecodeFrame(data []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if w.FacePresent && len(w.Points) == 0 {
		return Frame{}, fmt.Errorf("decode frame: face present without points")
	}

	f := Frame{
		Timestamp:      w.Timestamp,
		Width:          w.Width,
		Height:         w.Height,
		FacePresent:    w.FacePresent,
		Confidence:     w.Confidence,
		ProcessingTime: time.Duration(w.ProcessingMS * float64(time.Millisecond)),
	}
	if w.FacePresent {
		f.Points = make([]Point, len(w.Points))
		for i, p := range w.Points {
			f.Points[i] = Point{X: p[0], Y: p[1], Z: p[2]}
		}
	}
	return f, nil
}

// EncodeFrame is the inverse of DecodeFrame.
func EncodeFrame(f Frame) ([]byte, error) {
	w := wireFrame{
		Timestamp:    f.Timestamp,
		Width:        f.Width,
		Height:       f.Height,
		FacePresent:  f.FacePresent,
		Confidence:   f.Confidence,
		ProcessingMS: float64(f.ProcessingTime) / float64(time.Millisecond),
	}
	if f.FacePresent {
		w.Points = make([][3]float64, len(f.Points))
		for i, p := range f.Points {
			w.Points[i] = [3]float64{p.X, p.Y, p.Z}
		}
	}
	return json.Marshal(w)
}
