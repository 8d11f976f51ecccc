package clock

import "time"

// Clock allows injecting time into services and the tier engine.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a UTC clock truncated to microseconds, the precision
// both tiers persist.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock frozen at t, in UTC and truncated to
// microseconds like the system clock.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC().Truncate(time.Microsecond)}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
