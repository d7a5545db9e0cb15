package landmarks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func face(ts float64) Frame {
	return Frame{Timestamp: ts, Width: 640, Height: 480, FacePresent: true,
		Confidence: 1, Points: []Point{{X: 0.5, Y: 0.5}}}
}

func noFace(ts float64) Frame {
	return Frame{Timestamp: ts, Width: 640, Height: 480}
}

func TestHoldLast_ReusesWithinLimit(t *testing.T) {
	src := NewMockSource(face(0), noFace(0.1), noFace(0.2), noFace(0.3), face(0.4), noFace(0.5))
	h := NewHoldLast(src, 2)
	ctx := context.Background()

	want := []struct {
		ts         float64
		present    bool
		confidence float64
	}{
		{0, true, 1},
		{0.1, true, CachedConfidence},
		{0.2, true, CachedConfidence},
		{0.3, false, 0},
		{0.4, true, 1},
		{0.5, true, CachedConfidence},
	}

	for i, w := range want {
		f, err := h.Next(ctx)
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, w.ts, f.Timestamp, "frame %d", i)
		assert.Equal(t, w.present, f.FacePresent, "frame %d", i)
		assert.Equal(t, w.confidence, f.Confidence, "frame %d", i)
	}
	assert.Equal(t, 1, h.Misses())
}

func TestHoldLast_ExpiredCacheIsForgotten(t *testing.T) {
	src := NewMockSource(face(0), noFace(0.1), noFace(0.2), noFace(0.3))
	h := NewHoldLast(src, 1)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := h.Next(ctx)
		require.NoError(t, err)
	}
	assert.Nil(t, h.last)
	assert.Equal(t, 3, h.Misses())
}

func TestHoldLast_Disabled(t *testing.T) {
	h := NewHoldLast(NewMockSource(face(0), noFace(0.1)), 0)
	ctx := context.Background()

	_, err := h.Next(ctx)
	require.NoError(t, err)
	f, err := h.Next(ctx)
	require.NoError(t, err)
	assert.False(t, f.FacePresent)
}

func TestHoldLast_PropagatesErrors(t *testing.T) {
	boom := errors.New("camera unplugged")
	h := NewHoldLast(NewMockSource(face(0)).FailAt(0, boom), 3)

	_, err := h.Next(context.Background())
	assert.ErrorIs(t, err, boom)

	f, err := h.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, f.FacePresent)

	require.NoError(t, h.Close())
	_, err = h.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
