package clock

import "time"

// Clocker abstracts the time source so tests can pin the current time.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the real system clock.
type TimeClocker struct{}

// New returns a production clock backed by time.Now.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// FixedClocker always reports the same instant. Test helper.
type FixedClocker struct {
	T time.Time
}

// Now returns the fixed instant.
func (f FixedClocker) Now() time.Time {
	return f.T
}
