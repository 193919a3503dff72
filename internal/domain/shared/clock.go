package shared

import "time"

// Clock abstracts the current time so durations and timestamps can be
// driven deterministically in tests. Loop cadence uses real timers; only
// time reads go through the clock.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using system time
type RealClock struct{}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}

// Now returns the current system time in UTC
func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock implements Clock with controllable time for tests
type MockClock struct {
	CurrentTime time.Time
}

// NewMockClock creates a MockClock starting at the given time, or at the
// current time if zero
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{CurrentTime: start}
}

// Now returns the mock's current time
func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

// Advance moves the mock clock forward
func (m *MockClock) Advance(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}
