package core

import (
	"time"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

// simulationEpoch is where market time starts for every run.
var simulationEpoch = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

// SimulationClock derives an accelerated market clock from real elapsed time:
// one real second advances simulated time by scale seconds. Monotonic for the
// process lifetime, nothing is persisted or adjusted.
type SimulationClock struct {
	epoch     time.Time
	realStart time.Time
	scale     int
	now       func() time.Time
}

// NewSimulationClock builds a clock with the given scale factor. Scale 60
// compresses one simulated hour into one real minute.
func NewSimulationClock(scale int) *SimulationClock {
	if scale <= 0 {
		scale = 1
	}
	return &SimulationClock{
		epoch:     simulationEpoch,
		realStart: time.Now(),
		scale:     scale,
		now:       time.Now,
	}
}

// Now returns the current simulated instant, advanced in whole simulated
// seconds so timestamps stay stable within one real second.
func (c *SimulationClock) Now() time.Time {
	elapsed := int64(c.now().Sub(c.realStart) / time.Second)
	return c.epoch.Add(time.Duration(elapsed*int64(c.scale)) * time.Second)
}

func (c *SimulationClock) NowString() string {
	return c.Now().Format(domain.ArchiveTimeLayout)
}

func (c *SimulationClock) DayString() string {
	return c.Now().Format(domain.ArchiveDayLayout)
}

func (c *SimulationClock) Scale() int { return c.scale }
