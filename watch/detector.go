package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"qtsass/snapshot"
)

// Detector notices changes under watched root.
type Detector interface {
	// Start begins detection, onChange is called for every detected change.
	Start(onChange func()) error
	// Stop ends detection and waits for it to finish. It may be called
	// without Start to release resources.
	Stop() error
	// Done is closed when started detector finishes.
	Done() <-chan struct{}
}

type lifecycle struct {
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

func (l *lifecycle) init() {
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
}

func (l *lifecycle) Done() <-chan struct{} { return l.done }

// halt signals quit and waits for started goroutine.
func (l *lifecycle) halt() {
	l.once.Do(func() { close(l.quit) })
	if l.started.Load() {
		<-l.done
	}
}

// pollingDetector compares snapshots on fixed interval. Stored snapshot is
// only touched by its own goroutine once started.
type pollingDetector struct {
	lifecycle
	root     string
	depth    int
	interval time.Duration
	ignored  func(string) bool
	current  snapshot.Snapshot
	log      *zap.Logger
}

func newPolling(root string, opts Options, log *zap.Logger) (*pollingDetector, error) {
	s, err := snapshot.Take(root, opts.Depth)
	if err != nil {
		return nil, err
	}
	p := &pollingDetector{
		root:     root,
		depth:    opts.Depth,
		interval: opts.Interval,
		ignored:  opts.ignored,
		current:  s,
		log:      log.Named("polling"),
	}
	p.init()
	return p, nil
}

func (p *pollingDetector) Start(onChange func()) error {
	p.started.Store(true)
	go p.run(onChange)
	return nil
}

func (p *pollingDetector) Stop() error {
	p.halt()
	return nil
}

func (p *pollingDetector) run(onChange func()) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.quit:
			return
		case <-ticker.C:
			if p.check() {
				onChange()
			}
		}
	}
}

// check takes new snapshot and replaces stored one when anything changed.
// It reports changes of paths which are not ignored.
func (p *pollingDetector) check() bool {
	next, err := snapshot.Take(p.root, p.depth)
	if err != nil {
		p.log.Warn("Unable to take snapshot", zap.String("root", p.root), zap.Error(err))
		return false
	}
	changes := snapshot.Diff(p.current, next)
	if len(changes) == 0 {
		return false
	}
	p.current = next

	relevant := false
	for path, kind := range changes {
		path = filepath.FromSlash(path)
		if p.ignored(path) {
			continue
		}
		// directory time moves with its entries, those are reported on their own
		if kind == snapshot.Changed {
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				continue
			}
		}
		relevant = true
		p.log.Debug("Change detected", zap.String("path", path), zap.Stringer("kind", kind))
	}
	return relevant
}

// nativeDetector uses OS notifications for root and every directory below
// it, directories created later are added as they appear.
type nativeDetector struct {
	lifecycle
	root     string
	debounce time.Duration
	ignored  func(string) bool
	fsw      *fsnotify.Watcher
	log      *zap.Logger
}

func newNative(root string, opts Options, log *zap.Logger) (*nativeDetector, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &nativeDetector{
		root:     root,
		debounce: opts.Debounce,
		ignored:  opts.ignored,
		fsw:      fsw,
		log:      log.Named("native"),
	}
	n.init()
	if err := n.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return n, nil
}

func (n *nativeDetector) addTree(root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return n.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := n.fsw.Add(path); err != nil {
			return err
		}
		n.log.Debug("Watch added", zap.String("path", path))
		return nil
	})
}

func (n *nativeDetector) Start(onChange func()) error {
	n.started.Store(true)
	go n.run(onChange)
	return nil
}

func (n *nativeDetector) Stop() error {
	n.halt()
	return n.fsw.Close()
}

func (n *nativeDetector) run(onChange func()) {
	defer close(n.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-n.quit:
			return
		case event, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			if n.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := n.addTree(event.Name); err != nil {
						n.log.Warn("Unable to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			n.log.Debug("Change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			if n.debounce < 0 {
				onChange()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(n.debounce)
			} else {
				timer.Reset(n.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.log.Warn("Watch error", zap.Error(err))
		}
	}
}

// marshaledDetector hands changes detected by inner detector to executor,
// running them in place when executor does not accept work.
type marshaledDetector struct {
	inner Detector
	exec  Executor
}

func newMarshaled(inner Detector, exec Executor) *marshaledDetector {
	return &marshaledDetector{inner: inner, exec: exec}
}

func (m *marshaledDetector) Start(onChange func()) error {
	return m.inner.Start(func() {
		if !m.exec.Post(onChange) {
			onChange()
		}
	})
}

func (m *marshaledDetector) Stop() error { return m.inner.Stop() }

func (m *marshaledDetector) Done() <-chan struct{} { return m.inner.Done() }
