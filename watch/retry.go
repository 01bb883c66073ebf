package watch

import "time"

// Retry calls op up to attempts times sleeping delay between calls. The
// last error is returned when every attempt fails.
func Retry[T any](attempts int, delay time.Duration, op func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		v   T
		err error
	)
	for i := range attempts {
		if i > 0 {
			time.Sleep(delay)
		}
		if v, err = op(); err == nil {
			return v, nil
		}
	}
	return v, err
}
