package clock

import (
	"time"

	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

var _ ports.Clock = (*RealClock)(nil)

// RealClock implements ports.Clock using the system clock.
type RealClock struct{}

// New creates a new RealClock.
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time { return time.Now() }

// Elapsed returns the time since start as measured by clk, rounded to milliseconds.
func Elapsed(clk ports.Clock, start time.Time) time.Duration {
	return clk.Now().Sub(start).Round(time.Millisecond)
}
