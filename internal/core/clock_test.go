package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulationClock_Scaling(t *testing.T) {
	c := NewSimulationClock(60)
	base := c.realStart
	c.now = func() time.Time { return base.Add(10 * time.Second) }

	// 10 real seconds at scale 60 = 600 simulated seconds past the epoch.
	assert.Equal(t, simulationEpoch.Add(10*time.Minute), c.Now())
	assert.Equal(t, "2025-01-01 09:10:00", c.NowString())
	assert.Equal(t, "2025-01-01", c.DayString())
}

func TestSimulationClock_WholeSecondGranularity(t *testing.T) {
	c := NewSimulationClock(60)
	base := c.realStart
	c.now = func() time.Time { return base.Add(1500 * time.Millisecond) }

	// Sub-second real time does not advance the simulated clock.
	assert.Equal(t, simulationEpoch.Add(time.Minute), c.Now())
}

func TestSimulationClock_InvalidScaleDefaultsToRealTime(t *testing.T) {
	c := NewSimulationClock(0)
	assert.Equal(t, 1, c.Scale())
}
