package port

import "time"

// Clock lets timer-driven code run against a fake clock in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
