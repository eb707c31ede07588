package clock

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/anakalachikova-cmd/sterladometr-bot/internal/common/clock Clock
type Clock interface {
	Now() time.Time
}

// DefaultClock reads the system clock.
type DefaultClock struct{}

// Now returns the current time.
func (c *DefaultClock) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. Handy for wiring jobs in tests.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
