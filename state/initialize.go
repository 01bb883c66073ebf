package state

import (
	"time"

	"qtsass/watch"
)

// newLocalEnv creates a new LocalEnv instance with default values, logger is
// set once configuration is loaded.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		Loop:  watch.NewLoop(),
		start: time.Now(),
	}
}
