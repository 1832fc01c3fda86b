package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
)

// DefaultTimeout bounds how long an operation waits for a remote file to
// materialize before reporting the file as unavailable.
const DefaultTimeout = 30 * time.Second

// ChangeFunc is invoked when a path's transient download state changes,
// so the catalog's flags can be updated without a full reconciliation
// pass. It must not block.
type ChangeFunc func(path string, downloading bool)

// Tracker watches the storage tree for materialization completions and
// coordinates bounded waits on remote-only files. It is safe for
// concurrent use.
type Tracker struct {
	prober       Prober
	materializer Materializer
	watcher      *fsnotify.Watcher
	onChange     ChangeFunc

	mu          sync.Mutex
	downloading map[string]bool
	waiters     map[string][]chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewTracker creates a tracker and starts its event loop. Close must be
// called to release the watcher.
func NewTracker(prober Prober, materializer Materializer, onChange ChangeFunc) (*Tracker, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	t := &Tracker{
		prober:       prober,
		materializer: materializer,
		watcher:      watcher,
		onChange:     onChange,
		downloading:  make(map[string]bool),
		waiters:      make(map[string][]chan struct{}),
		done:         make(chan struct{}),
	}

	t.wg.Add(1)
	go t.run()

	return t, nil
}

// Watch adds a directory (typically a year partition) to the set of
// watched paths. Watching the same directory twice is harmless.
func (t *Tracker) Watch(dir string) error {
	if err := t.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

// Probe reports the current availability of a path.
func (t *Tracker) Probe(path string) (model.Availability, error) {
	return t.prober.Probe(path)
}

// Downloading reports whether a materialization is in flight for path.
func (t *Tracker) Downloading(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.downloading[path]
}

// TriggerDownload requests materialization of a remote-only file and
// marks it downloading. Repeated calls while a download is already in
// flight are no-ops.
func (t *Tracker) TriggerDownload(path string) error {
	t.mu.Lock()
	if t.downloading[path] {
		t.mu.Unlock()
		return nil
	}
	t.downloading[path] = true
	t.mu.Unlock()

	t.notify(path, true)

	if err := t.materializer.RequestDownload(path); err != nil {
		t.clearDownloading(path)
		return fmt.Errorf("failed to request download of %s: %w", path, err)
	}

	slog.Info("Requested file materialization", "path", path)
	return nil
}

// EnsureAvailable blocks until the file at path is local or the timeout
// elapses. A zero timeout uses DefaultTimeout. On timeout the downloading
// flag is cleared (the catalog never shows a stuck download) and
// common.ErrTimeout is returned for the caller to surface as "file
// unavailable".
func (t *Tracker) EnsureAvailable(ctx context.Context, path string, timeout time.Duration) error {
	state, err := t.prober.Probe(path)
	if err != nil {
		return err
	}
	if state.Local() {
		return nil
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ready := make(chan struct{})
	t.mu.Lock()
	t.waiters[path] = append(t.waiters[path], ready)
	t.mu.Unlock()

	if err := t.TriggerDownload(path); err != nil {
		t.removeWaiter(path, ready)
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		t.removeWaiter(path, ready)
		t.clearDownloading(path)
		t.notify(path, false)
		return ctx.Err()
	case <-timer.C:
		t.removeWaiter(path, ready)
		t.clearDownloading(path)
		t.notify(path, false)
		return fmt.Errorf("%w: %s after %s", common.ErrTimeout, path, timeout)
	}
}

// Close stops the event loop and releases the watcher.
func (t *Tracker) Close() error {
	close(t.done)
	err := t.watcher.Close()
	t.wg.Wait()
	return err
}

// run consumes filesystem events until Close. A create or write on a
// watched directory may be a completed materialization: if the path now
// probes local, every waiter is released.
func (t *Tracker) run() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			t.resolve(event.Name)
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Filesystem watcher error", "error", err)
		}
	}
}

// resolve releases waiters for a path that has become local.
func (t *Tracker) resolve(path string) {
	t.mu.Lock()
	pending := t.waiters[path]
	interested := len(pending) > 0 || t.downloading[path]
	t.mu.Unlock()

	if !interested {
		return
	}

	state, err := t.prober.Probe(path)
	if err != nil || !state.Local() {
		return
	}

	t.mu.Lock()
	pending = t.waiters[path]
	delete(t.waiters, path)
	delete(t.downloading, path)
	t.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}

	t.notify(path, false)
	slog.Info("File materialized", "path", path)
}

func (t *Tracker) clearDownloading(path string) {
	t.mu.Lock()
	delete(t.downloading, path)
	t.mu.Unlock()
}

func (t *Tracker) removeWaiter(path string, ch chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.waiters[path]
	for i, w := range pending {
		if w == ch {
			t.waiters[path] = append(pending[:i], pending[i+1:]...)
			break
		}
	}
	if len(t.waiters[path]) == 0 {
		delete(t.waiters, path)
	}
}

func (t *Tracker) notify(path string, downloading bool) {
	if t.onChange != nil {
		t.onChange(path, downloading)
	}
}
