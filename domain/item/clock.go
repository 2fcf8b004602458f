package item

import (
	"time"
)

// Clock is the auction time source
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock reads the wall clock in UTC
func SystemClock() Clock {
	return systemClock{}
}
