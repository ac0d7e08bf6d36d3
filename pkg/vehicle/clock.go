package vehicle

import "time"

// TimeSource provides the local monotonic time in microseconds since boot
// and the time the current scheduler iteration started.
type TimeSource interface {
	Micros() uint64
	LoopStart() uint64
}

// MonotonicClock implements TimeSource on top of the Go monotonic clock.
type MonotonicClock struct {
	boot      time.Time
	loopStart uint64
}

// NewMonotonicClock creates a clock starting at zero now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{boot: time.Now()}
}

// Micros implements TimeSource.
func (c *MonotonicClock) Micros() uint64 {
	return uint64(time.Since(c.boot) / time.Microsecond)
}

// LoopStart implements TimeSource.
func (c *MonotonicClock) LoopStart() uint64 {
	return c.loopStart
}

// MarkLoopStart records the start of a scheduler iteration.
func (c *MonotonicClock) MarkLoopStart() {
	c.loopStart = c.Micros()
}
