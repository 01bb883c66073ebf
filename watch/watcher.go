// Package watch recompiles style sheets when files under a watched root
// change and hands results to connected callbacks.
package watch

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var ErrNotIdle = errors.New("watcher is not idle")

// State of watcher lifecycle.
type State int

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Callback receives compiled output.
type Callback interface {
	Compiled(css string)
}

type funcCallback struct {
	fn func(string)
}

func (c *funcCallback) Compiled(css string) { c.fn(css) }

// NewCallback wraps function. Every call returns distinct callback, keep it
// to disconnect later.
func NewCallback(fn func(css string)) Callback {
	return &funcCallback{fn: fn}
}

// CompileFunc produces output for current state of watched files.
type CompileFunc func() (string, error)

// Watcher detects changes under root, recompiles and dispatches output to
// connected callbacks. Watcher is never restarted, create new one instead.
type Watcher struct {
	root     string
	compile  CompileFunc
	opts     Options
	kind     Kind
	detector Detector
	log      *zap.Logger

	mu        sync.Mutex
	state     State
	callbacks map[Callback]struct{}
	stopped   chan struct{}
}

// New creates idle watcher. Backend is chosen once here from Probe results.
func New(root string, compile CompileFunc, opts Options) (*Watcher, error) {
	opts = opts.withDefaults()
	log := opts.Log.Named("watch")

	ranking := Probe(opts)
	kind, err := selectKind(opts.Backend, ranking)
	if err != nil {
		return nil, err
	}

	var detector Detector
	switch kind {
	case Native:
		detector, err = newNative(root, opts, log)
	case Polling:
		detector, err = newPolling(root, opts, log)
	case Marshaled:
		var inner Detector
		if slices.Contains(ranking, Native) {
			inner, err = newNative(root, opts, log)
		} else {
			inner, err = newPolling(root, opts, log)
		}
		if err == nil {
			detector = newMarshaled(inner, opts.Executor)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("unable to watch %q: %w", root, err)
	}

	log.Debug("Watcher created", zap.String("root", root), zap.Stringer("backend", kind), zap.Stringers("available", ranking))
	return &Watcher{
		root:      root,
		compile:   compile,
		opts:      opts,
		kind:      kind,
		detector:  detector,
		log:       log,
		callbacks: make(map[Callback]struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Kind returns selected backend.
func (w *Watcher) Kind() Kind {
	return w.kind
}

// State returns current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start begins watching. Only idle watcher could be started.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Idle {
		return fmt.Errorf("unable to start %s watcher: %w", w.state, ErrNotIdle)
	}
	if err := w.detector.Start(w.onChange); err != nil {
		return err
	}
	w.state = Running
	w.log.Info("Watching", zap.String("root", w.root), zap.Stringer("backend", w.kind))

	go func() {
		<-w.detector.Done()
		w.mu.Lock()
		w.state = Stopped
		w.mu.Unlock()
		close(w.stopped)
	}()
	return nil
}

// Stop ends watching and waits for detection to finish. It is safe to call
// repeatedly but not from callbacks invoked on detection goroutine.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	switch w.state {
	case Idle:
		w.state = Stopped
		close(w.stopped)
		w.mu.Unlock()
		return w.detector.Stop()
	case Running:
		w.state = Stopping
		w.mu.Unlock()
		err := w.detector.Stop()
		<-w.stopped
		w.log.Debug("Watcher stopped", zap.String("root", w.root))
		return err
	}
	w.mu.Unlock()
	<-w.stopped
	return nil
}

// Join blocks until watcher is stopped.
func (w *Watcher) Join() {
	<-w.stopped
}

// Connect adds callback, connecting the same callback again has no effect.
func (w *Watcher) Connect(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks[cb] = struct{}{}
}

// Disconnect removes callback.
func (w *Watcher) Disconnect(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.callbacks, cb)
}

// Compile runs compile function retrying failures.
func (w *Watcher) Compile() (string, error) {
	return Retry(w.opts.Attempts, w.opts.Delay, func() (string, error) {
		w.log.Debug("Compiling", zap.String("root", w.root))
		return w.compile()
	})
}

func (w *Watcher) onChange() {
	w.log.Debug("Change detected", zap.String("root", w.root))
	css, err := w.Compile()
	if err != nil {
		w.log.Error("Failed to compile", zap.String("root", w.root), zap.Int("attempts", w.opts.Attempts), zap.Error(err))
		return
	}
	w.dispatch(css)
}

func (w *Watcher) dispatch(css string) {
	w.mu.Lock()
	callbacks := make([]Callback, 0, len(w.callbacks))
	for cb := range w.callbacks {
		callbacks = append(callbacks, cb)
	}
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb.Compiled(css)
	}
}
