package recorder

import "time"

// Timer is the handle of a scheduled callback
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the debounce window can be driven in tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }
