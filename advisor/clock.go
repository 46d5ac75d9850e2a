package advisor

import "time"

// Clock supplies the current time in seconds since the Unix epoch.
// The ledger takes a Clock rather than calling time.Now directly so that
// backoff decisions are deterministic under test.
type Clock interface {
	Now() int64
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current Unix time in seconds.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}
