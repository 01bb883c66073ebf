package watch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultInterval = time.Second
	DefaultDepth    = 2
	DefaultDebounce = 100 * time.Millisecond
	DefaultAttempts = 5
	DefaultDelay    = 100 * time.Millisecond
)

var ErrUnavailable = errors.New("watch backend is not available")

// Kind identifies change detection backend.
type Kind int

const (
	Auto Kind = iota
	Native
	Marshaled
	Polling
)

func (k Kind) String() string {
	switch k {
	case Auto:
		return "auto"
	case Native:
		return "native"
	case Marshaled:
		return "marshaled"
	case Polling:
		return "polling"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts backend name from configuration.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "native":
		return Native, nil
	case "marshaled":
		return Marshaled, nil
	case "polling":
		return Polling, nil
	}
	return Auto, fmt.Errorf("unknown watch backend %q", name)
}

// Options tune watcher. Zero values select defaults, negative Debounce
// disables debouncing of native events.
type Options struct {
	Backend  Kind
	Executor Executor // required for Marshaled backend

	Interval time.Duration // polling interval
	Depth    int           // polling depth below root
	Debounce time.Duration // native events coalescing window

	Attempts int // compile attempts per change
	Delay    time.Duration

	// Ignore excludes paths from change detection. It receives absolute clean
	// path of every changed file or directory.
	Ignore func(path string) bool

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

func (o Options) ignored(path string) bool {
	if o.Ignore == nil {
		return false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return o.Ignore(filepath.Clean(path))
}

// probeNative reports whether OS change notifications could be used.
var probeNative = func() bool {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	w.Close()
	return true
}

// Probe returns usable backends, most preferred first. Polling is always
// available.
func Probe(opts Options) []Kind {
	var kinds []Kind
	if probeNative() {
		kinds = append(kinds, Native)
	}
	if opts.Executor != nil {
		kinds = append(kinds, Marshaled)
	}
	return append(kinds, Polling)
}

// selectKind picks requested backend if it is in ranking or the first
// ranked one for Auto.
func selectKind(requested Kind, ranking []Kind) (Kind, error) {
	if requested == Auto {
		return ranking[0], nil
	}
	for _, k := range ranking {
		if k == requested {
			return k, nil
		}
	}
	return Auto, fmt.Errorf("%s: %w", requested, ErrUnavailable)
}
