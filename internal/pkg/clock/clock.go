package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Sleeper abstracts backoff waits so retry schedules are testable without
// real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type RealClock struct{}

func NewRealClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

type RealSleeper struct{}

func NewRealSleeper() Sleeper {
	return &RealSleeper{}
}

func (s *RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type MockClock struct {
	currentTime time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Set(t time.Time) {
	c.currentTime = t
}

func (c *MockClock) Add(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}
