package lifecycle

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing unix-millisecond timestamps, so that
// messages emitted within the same millisecond still order correctly.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource returns a Clock backed by the given time source.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current wall time of the underlying source.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Next returns a timestamp greater than every value previously returned.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
