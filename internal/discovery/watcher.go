package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/cmdhub/internal/logging"
)

// Watcher watches the scanner's paths for manifest changes and triggers a
// rescan after a quiet period. Editors fire bursts of writes for one save,
// so events are debounced rather than acted on individually.
type Watcher struct {
	scanner   *Scanner
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	logger    logging.Logger

	mu     sync.Mutex
	closed bool
}

// debouncer groups rapid manifest changes into a single flush.
type debouncer struct {
	delay  time.Duration
	events chan string
	flush  chan []string

	mu      sync.Mutex
	timer   *time.Timer
	pending []string
}

// NewWatcher creates a watcher over the scanner's paths.
func NewWatcher(scanner *Scanner, debounceDelay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		scanner: scanner,
		watcher: fsw,
		logger:  scanner.logger,
		debouncer: &debouncer{
			delay:  debounceDelay,
			events: make(chan string, 64),
			flush:  make(chan []string, 4),
		},
	}

	for _, path := range scanner.Paths() {
		if err := fsw.Add(path); err != nil {
			w.logger.Warn(context.Background(), err, "cannot watch path", "path", path)
		}
	}

	return w, nil
}

// Start begins watching. It returns immediately; rescans run in the
// background until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.debouncer.run(ctx)
	go w.watchLoop(ctx)
	go w.rescanLoop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "filesystem watch error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !isManifestFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	select {
	case w.debouncer.events <- event.Name:
	default:
		// Channel full under an event storm; the pending flush already
		// covers a rescan.
	}
}

func (w *Watcher) rescanLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case paths := <-w.debouncer.flush:
			w.logger.Info(ctx, "manifests changed, rescanning", "changed", len(paths))
			if _, err := w.scanner.Rescan(ctx); err != nil {
				w.logger.Error(ctx, err, "manifest rescan failed")
			}
		}
	}
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			if d.timer != nil {
				d.timer.Stop()
			}
			d.mu.Unlock()
			return
		case path := <-d.events:
			d.add(path)
		}
	}
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, path)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.emit)
}

func (d *debouncer) emit() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	select {
	case d.flush <- pending:
	default:
	}
}
