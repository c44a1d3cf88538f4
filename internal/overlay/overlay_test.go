package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUnsignedCodes(t *testing.T) {
	assert.Equal(t, []byte("L3"), BuildLap(3))
	assert.Equal(t, []byte("M5"), BuildMaxLaps(5))
	assert.Equal(t, []byte("S1"), BuildPhase(1))
	assert.Equal(t, []byte("C5"), BuildCountdown(5))
	assert.Equal(t, []byte("A2"), BuildPosition(2))
	assert.Equal(t, []byte("B4"), BuildFieldSize(4))
}

func TestFormatLapTime(t *testing.T) {
	assert.Equal(t, "01:15.000", FormatLapTime(75000))
	assert.Equal(t, "00:00.500", FormatLapTime(500))
	assert.Equal(t, "10:00.001", FormatLapTime(600001))
}

func TestBuildLapHistoryJoinsWithDash(t *testing.T) {
	got := BuildLapHistory([]string{"01:15.000", "01:14.500"})
	assert.Equal(t, "Q01:15.000-01:14.500", string(got))
}

func TestBuildLapHistoryEmpty(t *testing.T) {
	assert.Equal(t, "Q", string(BuildLapHistory(nil)))
}
