package entities

import "time"

// Timestamp returns the current UTC time at the microsecond precision
// every backend can store and return unchanged.
func Timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
