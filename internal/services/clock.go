package services

import "time"

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now()
}

// wallTime reads c as UTC truncated to whole seconds, the resolution at
// which sessions are stored and durations computed.
func wallTime(c Clock) time.Time {
	return c().UTC().Truncate(time.Second)
}
