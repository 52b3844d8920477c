package poller

import "time"

// Backoff doubles Base for every consecutive failure, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the next attempt after failures failures.
func (b Backoff) Delay(failures int) time.Duration {
	if failures <= 0 || b.Base <= 0 {
		return b.Base
	}
	max := b.Max
	if max < b.Base {
		max = b.Base
	}
	d := b.Base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}
