package drowsiness

import "github.com/teslashibe/go-neurodrive/pkg/measure"

// unsmoothed makes the eye state follow raw EAR directly.
func unsmoothed() Config {
	cfg := DefaultConfig()
	cfg.EARSmoothing = 0
	return cfg
}

// eyeFeeder drives an EyeTracker at a fixed frame interval.
type eyeFeeder struct {
	tr      *EyeTracker
	ts      float64
	dt      float64
	blinkTS []float64
	sleeps  int
	blinks  int
}

func newEyeFeeder(cfg Config, dt float64) *eyeFeeder {
	return &eyeFeeder{tr: NewEyeTracker(cfg), dt: dt}
}

// feed sends n frames with the given EAR and returns the last update.
func (f *eyeFeeder) feed(ear float64, n int) EyeUpdate {
	var up EyeUpdate
	for i := 0; i < n; i++ {
		f.ts += f.dt
		v := ear
		up = f.tr.Update(f.ts, f.dt, &v)
		if up.Blink {
			f.blinks++
			f.blinkTS = append(f.blinkTS, f.ts)
		}
		if up.Microsleep {
			f.sleeps++
		}
	}
	return up
}

func (f *eyeFeeder) absent(n int) {
	for i := 0; i < n; i++ {
		f.ts += f.dt
		f.tr.Update(f.ts, f.dt, nil)
	}
}

const (
	openEAR   = 0.30
	closedEAR = 0.10
)

// face builds a snapshot with every channel valid.
func face(ear, mar, nose, chin float64) measure.Snapshot {
	return measure.Snapshot{
		FacePresent: true,
		Eyes:        measure.Eyes(ear, ear),
		Mouth:       measure.Mouth(mar*100, 100),
		Head:        measure.Head(nose, chin, (chin-nose)*480),
	}
}

// neutral is an attentive driver: eyes open, mouth closed, head level.
func neutral() measure.Snapshot {
	return face(openEAR, 0.3, 0.5, 0.7)
}
