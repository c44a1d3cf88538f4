package car

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLapCompletionForward(t *testing.T) {
	c := New(1, 0, nil)
	start := time.Now()
	lapStart := start.Add(-90 * time.Second)
	c.LapStart = &lapStart
	c.NextCheckpoint = 0
	c.VelAngleToTrack = 10

	result := c.OnCheckpointEnter(start, 0, 4)

	assert.True(t, result.LapCompleted)
	assert.Equal(t, 1, c.Laps)
	assert.Len(t, c.LapTimes, 1)
	assert.Equal(t, 1, c.NextCheckpoint)
}

func TestLapDecrementBackward(t *testing.T) {
	c := New(1, 0, nil)
	c.Laps = 2
	lapStart := time.Now()
	c.LapStart = &lapStart
	c.VelAngleToTrack = 180

	result := c.OnCheckpointEnter(time.Now(), 0, 4)

	assert.True(t, result.LapDecremented)
	assert.Equal(t, 1, c.Laps)
	assert.Nil(t, c.LapStart)
	assert.Empty(t, c.LapTimes)
}

func TestIntermediateCheckpointAdvances(t *testing.T) {
	c := New(1, 0, nil)
	c.NextCheckpoint = 1

	result := c.OnCheckpointEnter(time.Now(), 1, 4)

	assert.False(t, result.LapCompleted)
	assert.Equal(t, 1, c.ActiveCheckpoint)
	assert.Equal(t, 2, c.NextCheckpoint)
}

func TestSetSizeAlwaysOverridesToFixed(t *testing.T) {
	c := New(1, 0, nil)
	c.HalfExtents.X = 99
	c.ApplySetSize()
	assert.Equal(t, FixedHalfExtents, c.HalfExtents)
}

func TestFastestLap(t *testing.T) {
	c := New(1, 0, nil)
	_, ok := c.FastestLap()
	require.False(t, ok)

	c.LapTimes = []time.Duration{90 * time.Second, 75 * time.Second, 82 * time.Second}
	best, ok := c.FastestLap()
	require.True(t, ok)
	assert.Equal(t, 75*time.Second, best)
}
