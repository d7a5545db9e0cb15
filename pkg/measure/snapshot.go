// Package measure computes per-frame geometric face measures (EAR, MAR,
// normalized head heights) from landmark frames. Each channel is tagged
// valid or invalid; numeric fields of an invalid channel are absent (nil),
// never zero.
package measure

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is returned when a channel's validity flag
// contradicts the presence of its numeric fields.
var ErrMalformedSnapshot = errors.New("measure: malformed snapshot")

// EyeMeasures holds eye-aspect-ratios for one frame.
type EyeMeasures struct {
	LeftEAR    *float64 `json:"left_ear"`
	RightEAR   *float64 `json:"right_ear"`
	AverageEAR *float64 `json:"average_ear"`
	Valid      bool     `json:"valid"`
	Err        string   `json:"error,omitempty"`
}

// EAR returns the averaged EAR, or nil when the channel is invalid.
func (m EyeMeasures) EAR() *float64 {
	if !m.Valid {
		return nil
	}
	return m.AverageEAR
}

// MouthMeasures holds the mouth-aspect-ratio for one frame.
type MouthMeasures struct {
	MAR              *float64 `json:"mar"`
	VerticalAperture *float64 `json:"vertical_aperture_px"`
	Width            *float64 `json:"width_px"`
	Valid            bool     `json:"valid"`
	Err              string   `json:"error,omitempty"`
}

// Ratio returns the MAR, or nil when the channel is invalid.
func (m MouthMeasures) Ratio() *float64 {
	if !m.Valid {
		return nil
	}
	return m.MAR
}

// HeadMeasures holds nose and chin vertical positions normalized by frame
// height (0 = top, 1 = bottom).
type HeadMeasures struct {
	NoseHeight   *float64 `json:"nose_height"`
	ChinHeight   *float64 `json:"chin_height"`
	NoseChinDist *float64 `json:"nose_chin_px"`
	Valid        bool     `json:"valid"`
	Err          string   `json:"error,omitempty"`
}

// Snapshot is the full measurement set for one frame.
type Snapshot struct {
	Eyes        EyeMeasures   `json:"eyes"`
	Mouth       MouthMeasures `json:"mouth"`
	Head        HeadMeasures  `json:"head"`
	FacePresent bool          `json:"face_present"`
	Reasons     []string      `json:"reasons,omitempty"`
}

// AnyValid reports whether at least one channel carries data.
func (s Snapshot) AnyValid() bool {
	return s.FacePresent && (s.Eyes.Valid || s.Mouth.Valid || s.Head.Valid)
}

// Validate checks that every channel's numeric fields agree with its
// validity flag.
func (s Snapshot) Validate() error {
	if err := checkChannel("eyes", s.Eyes.Valid,
		s.Eyes.LeftEAR, s.Eyes.RightEAR, s.Eyes.AverageEAR); err != nil {
		return err
	}
	if err := checkChannel("mouth", s.Mouth.Valid,
		s.Mouth.MAR, s.Mouth.VerticalAperture, s.Mouth.Width); err != nil {
		return err
	}
	return checkChannel("head", s.Head.Valid,
		s.Head.NoseHeight, s.Head.ChinHeight, s.Head.NoseChinDist)
}

func checkChannel(name string, valid bool, fields ...*float64) error {
	for _, f := range fields {
		if valid && f == nil {
			return fmt.Errorf("%w: %s marked valid with missing values", ErrMalformedSnapshot, name)
		}
		if !valid && f != nil {
			return fmt.Errorf("%w: %s marked invalid but carries values", ErrMalformedSnapshot, name)
		}
	}
	return nil
}

// Float returns a pointer to v, for building snapshots by hand.
func Float(v float64) *float64 {
	return &v
}

// Eyes builds a valid eye channel from both ratios.
func Eyes(left, right float64) EyeMeasures {
	return EyeMeasures{
		LeftEAR:    Float(left),
		RightEAR:   Float(right),
		AverageEAR: Float((left + right) / 2),
		Valid:      true,
	}
}

// Mouth builds a valid mouth channel from pixel distances.
func Mouth(vertical, width float64) MouthMeasures {
	return MouthMeasures{
		MAR:              Float(vertical / width),
		VerticalAperture: Float(vertical),
		Width:            Float(width),
		Valid:            true,
	}
}

// Head builds a valid head channel.
func Head(nose, chin, distPx float64) HeadMeasures {
	return HeadMeasures{
		NoseHeight:   Float(nose),
		ChinHeight:   Float(chin),
		NoseChinDist: Float(distPx),
		Valid:        true,
	}
}
