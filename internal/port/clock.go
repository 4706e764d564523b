package port

import "time"

// Clock is the time source used by the conversion poll loop and caches.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
