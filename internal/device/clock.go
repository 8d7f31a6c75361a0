package device

import "time"

// Clock samples host time lazily, on every read, so two back-to-back
// reads may observe the same or a strictly greater value. No background
// goroutine is needed.
type Clock struct {
	start time.Time
}

func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// MillisSinceStart is monotonic non-decreasing within a run.
func (c *Clock) MillisSinceStart() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c *Clock) UnixSeconds() uint32 {
	return uint32(time.Now().Unix())
}

// Nanos returns the nanosecond-within-second component, 0..999_999_999.
func (c *Clock) Nanos() uint32 {
	return uint32(time.Now().Nanosecond())
}
