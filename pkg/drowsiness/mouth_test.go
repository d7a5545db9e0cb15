package drowsiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedMouth(m *MouthTracker, dt, mar float64, n int) int {
	yawns := 0
	for i := 0; i < n; i++ {
		v := mar
		if m.Update(dt, &v) {
			yawns++
		}
	}
	return yawns
}

func TestMouthTracker_Yawn(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		yawns  int
	}{
		{"17 frames (~1.13s) open is a yawn", 17, 1},
		{"12 frames (~0.8s) open is not", 12, 0},
		{"15 frames (~1.0s) open is a yawn", 15, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMouthTracker(DefaultConfig())

			assert.Zero(t, feedMouth(m, 0.0667, 0.7, tt.frames))
			assert.True(t, m.Open())

			assert.Equal(t, tt.yawns, feedMouth(m, 0.0667, 0.3, 1))
			assert.Equal(t, tt.yawns, m.Yawns())

			// Closed regardless of the outcome
			assert.False(t, m.Open())
			assert.Zero(t, m.OpenDuration())
		})
	}
}

func TestMouthTracker_ThresholdIsInclusive(t *testing.T) {
	m := NewMouthTracker(DefaultConfig())
	feedMouth(m, 0.1, 0.6, 1)
	assert.True(t, m.Open())
}

func TestMouthTracker_AbsentFreezes(t *testing.T) {
	m := NewMouthTracker(DefaultConfig())

	feedMouth(m, 0.1, 0.7, 6)
	for i := 0; i < 20; i++ {
		assert.False(t, m.Update(0.1, nil))
	}
	assert.InDelta(t, 0.6, m.OpenDuration(), 1e-9)
	assert.True(t, m.Open())

	feedMouth(m, 0.1, 0.7, 5)
	assert.Equal(t, 1, feedMouth(m, 0.1, 0.2, 1))
}

func TestMouthTracker_ClosedStaysQuiet(t *testing.T) {
	m := NewMouthTracker(DefaultConfig())
	assert.Zero(t, feedMouth(m, 0.1, 0.2, 50))
	assert.Zero(t, m.Yawns())
	assert.Zero(t, m.OpenDuration())
}
