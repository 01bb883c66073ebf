package watch

import (
	"context"
	"errors"
	"sync"
)

var ErrLoopRunning = errors.New("loop is already running")

// Executor runs posted work on its designated goroutine.
type Executor interface {
	// Post queues fn and reports whether it was accepted. Accepted work
	// runs exactly once, rejected work is never run by executor.
	Post(fn func()) bool
}

// Loop is Executor bound to goroutine calling Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	wake    chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post implements Executor. Work is rejected when Run is not active.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return false
	}
	l.queue = append(l.queue, fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Active reports whether Run is processing work.
func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Run processes posted work on calling goroutine until ctx is done. Work
// accepted before that is finished before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	l.running = true
	l.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			l.drain()
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}
