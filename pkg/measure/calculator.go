package measure

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/landmarks"
)

// Provider turns a landmark frame into a measurement snapshot.
type Provider interface {
	Compute(frame landmarks.Frame) Snapshot
}

// Indices selects the mesh points used by each measure.
type Indices struct {
	// Eye points in EAR order: p0/p3 horizontal corners, p1-p5 and p2-p4 vertical pairs
	LeftEye  [6]int
	RightEye [6]int

	MouthLeft  int // left corner
	MouthRight int // right corner
	UpperLip   int
	LowerLip   int

	Nose int
	Chin int
}

// FaceMeshIndices returns the MediaPipe FaceMesh (468/478 point) indices.
func FaceMeshIndices() Indices {
	return Indices{
		LeftEye:    [6]int{33, 160, 158, 133, 153, 144},
		RightEye:   [6]int{362, 385, 387, 263, 373, 380},
		MouthLeft:  78,
		MouthRight: 308,
		UpperLip:   13,
		LowerLip:   14,
		Nose:       1,
		Chin:       152,
	}
}

// Calculator computes EAR, MAR and head heights in pixel space.
type Calculator struct {
	idx    Indices
	logger *slog.Logger
}

// NewCalculator creates a calculator for the given mesh layout.
func NewCalculator(idx Indices) *Calculator {
	return &Calculator{
		idx:    idx,
		logger: log.With("component", "measure"),
	}
}

// Compute derives all measures for one frame. Failures are reported per
// channel; a failed channel never invalidates the others.
func (c *Calculator) Compute(frame landmarks.Frame) Snapshot {
	s := Snapshot{FacePresent: frame.FacePresent}

	if !frame.FacePresent {
		s.Reasons = append(s.Reasons, "no face detected in frame")
		return s
	}

	pts := frame.Pixels()
	if pts == nil {
		s.Reasons = append(s.Reasons, "landmarks or resolution unavailable")
		return s
	}

	var err error
	if s.Eyes, err = c.eyes(pts); err != nil {
		c.logger.Warn("eye measures unavailable", "error", err)
		s.Eyes = EyeMeasures{Err: err.Error()}
	}
	if s.Mouth, err = c.mouth(pts); err != nil {
		c.logger.Warn("mouth measures unavailable", "error", err)
		s.Mouth = MouthMeasures{Err: err.Error()}
	}
	if s.Head, err = c.head(pts, frame.Height); err != nil {
		c.logger.Warn("head measures unavailable", "error", err)
		s.Head = HeadMeasures{Err: err.Error()}
	}

	if !s.Eyes.Valid && !s.Mouth.Valid && !s.Head.Valid {
		s.Reasons = append(s.Reasons, "no eye, mouth or head measure could be computed")
	}
	return s
}

func (c *Calculator) eyes(pts []landmarks.Pixel) (EyeMeasures, error) {
	left, err := eyeAspectRatio(pts, c.idx.LeftEye, "left")
	if err != nil {
		return EyeMeasures{}, err
	}
	right, err := eyeAspectRatio(pts, c.idx.RightEye, "right")
	if err != nil {
		return EyeMeasures{}, err
	}
	return Eyes(left, right), nil
}

// eyeAspectRatio is (|p1-p5| + |p2-p4|) / (2 |p0-p3|).
func eyeAspectRatio(pts []landmarks.Pixel, idx [6]int, side string) (float64, error) {
	var p [6]r2.Vec
	for i, j := range idx {
		v, err := point(pts, j)
		if err != nil {
			return 0, err
		}
		p[i] = v
	}

	den := 2 * dist(p[0], p[3])
	if den <= 0 {
		return 0, fmt.Errorf("%s eye horizontal distance is zero", side)
	}
	return (dist(p[1], p[5]) + dist(p[2], p[4])) / den, nil
}

func (c *Calculator) mouth(pts []landmarks.Pixel) (MouthMeasures, error) {
	left, err := point(pts, c.idx.MouthLeft)
	if err != nil {
		return MouthMeasures{}, err
	}
	right, err := point(pts, c.idx.MouthRight)
	if err != nil {
		return MouthMeasures{}, err
	}
	upper, err := point(pts, c.idx.UpperLip)
	if err != nil {
		return MouthMeasures{}, err
	}
	lower, err := point(pts, c.idx.LowerLip)
	if err != nil {
		return MouthMeasures{}, err
	}

	width := dist(left, right)
	if width <= 0 {
		return MouthMeasures{}, fmt.Errorf("mouth width is zero")
	}
	return Mouth(dist(upper, lower), width), nil
}

func (c *Calculator) head(pts []landmarks.Pixel, height int) (HeadMeasures, error) {
	nose, err := point(pts, c.idx.Nose)
	if err != nil {
		return HeadMeasures{}, err
	}
	chin, err := point(pts, c.idx.Chin)
	if err != nil {
		return HeadMeasures{}, err
	}
	if height <= 0 {
		return HeadMeasures{}, fmt.Errorf("invalid frame height %d", height)
	}

	h := float64(height)
	return Head(nose.Y/h, chin.Y/h, dist(nose, chin)), nil
}

func point(pts []landmarks.Pixel, i int) (r2.Vec, error) {
	if i < 0 || i >= len(pts) {
		return r2.Vec{}, fmt.Errorf("landmark index %d out of range (len=%d)", i, len(pts))
	}
	return r2.Vec{X: float64(pts[i].X), Y: float64(pts[i].Y)}, nil
}

func dist(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
