package clock

import (
	"time"

	"folio/internal/port"
)

type realClock struct{}

// New returns a port.Clock backed by the time package.
func New() port.Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
