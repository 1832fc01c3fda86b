package availability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
)

// fakeProber serves availability states from a map, defaulting to
// not-downloaded.
type fakeProber struct {
	mu     sync.Mutex
	states map[string]model.Availability
}

func (p *fakeProber) Probe(path string) (model.Availability, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.states[path]; ok {
		return state, nil
	}
	return model.AvailabilityNotDownloaded, nil
}

func (p *fakeProber) set(path string, state model.Availability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.states == nil {
		p.states = make(map[string]model.Availability)
	}
	p.states[path] = state
}

// fakeMaterializer records download requests.
type fakeMaterializer struct {
	mu    sync.Mutex
	calls []string
}

func (m *fakeMaterializer) RequestDownload(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	return nil
}

func (m *fakeMaterializer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestTracker(t *testing.T, prober Prober, mat Materializer, onChange ChangeFunc) *Tracker {
	t.Helper()
	tracker, err := NewTracker(prober, mat, onChange)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracker.Close() })
	return tracker
}

func TestEnsureAvailable_AlreadyLocal(t *testing.T) {
	prober := &fakeProber{}
	prober.set("/r/2024/w2.pdf", model.AvailabilityCurrent)
	mat := &fakeMaterializer{}
	tracker := newTestTracker(t, prober, mat, nil)

	err := tracker.EnsureAvailable(context.Background(), "/r/2024/w2.pdf", time.Second)
	require.NoError(t, err)
	assert.Zero(t, mat.callCount(), "no download needed for a local file")
}

func TestEnsureAvailable_Timeout(t *testing.T) {
	prober := &fakeProber{}
	mat := &fakeMaterializer{}
	tracker := newTestTracker(t, prober, mat, nil)

	path := "/r/2024/evicted.pdf"
	err := tracker.EnsureAvailable(context.Background(), path, 50*time.Millisecond)
	assert.True(t, errors.Is(err, common.ErrTimeout))
	assert.Equal(t, 1, mat.callCount())
	assert.False(t, tracker.Downloading(path), "timeout clears the downloading flag")
}

func TestEnsureAvailable_CancelledContext(t *testing.T) {
	prober := &fakeProber{}
	tracker := newTestTracker(t, prober, &fakeMaterializer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- tracker.EnsureAvailable(ctx, "/r/2024/evicted.pdf", time.Minute)
	}()

	// Give the wait time to register, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("EnsureAvailable did not return after cancellation")
	}
}

func TestEnsureAvailable_ReleasedByResolution(t *testing.T) {
	prober := &fakeProber{}
	mat := &fakeMaterializer{}
	tracker := newTestTracker(t, prober, mat, nil)

	path := "/r/2024/evicted.pdf"
	errCh := make(chan error, 1)
	go func() {
		errCh <- tracker.EnsureAvailable(context.Background(), path, 5*time.Second)
	}()

	// Wait for the download request, then simulate the sync agent
	// finishing and the watcher observing it.
	require.Eventually(t, func() bool { return mat.callCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	prober.set(path, model.AvailabilityCurrent)
	tracker.resolve(path)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("EnsureAvailable did not return after resolution")
	}
	assert.False(t, tracker.Downloading(path))
}

func TestTriggerDownload_Idempotent(t *testing.T) {
	prober := &fakeProber{}
	mat := &fakeMaterializer{}
	tracker := newTestTracker(t, prober, mat, nil)

	path := "/r/2024/evicted.pdf"
	require.NoError(t, tracker.TriggerDownload(path))
	require.NoError(t, tracker.TriggerDownload(path))
	require.NoError(t, tracker.TriggerDownload(path))

	assert.Equal(t, 1, mat.callCount(), "in-flight downloads are not re-requested")
	assert.True(t, tracker.Downloading(path))
}

func TestTracker_NotifiesStateChanges(t *testing.T) {
	prober := &fakeProber{}
	mat := &fakeMaterializer{}

	type change struct {
		path        string
		downloading bool
	}
	var mu sync.Mutex
	var changes []change
	tracker := newTestTracker(t, prober, mat, func(path string, downloading bool) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{path, downloading})
	})

	path := "/r/2024/evicted.pdf"
	require.NoError(t, tracker.TriggerDownload(path))
	prober.set(path, model.AvailabilityCurrent)
	tracker.resolve(path)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, change{path, true}, changes[0])
	assert.Equal(t, change{path, false}, changes[1])
}

func TestTracker_WatcherReleasesWaiter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evicted.pdf")
	require.NoError(t, os.WriteFile(MarkerPath(path), nil, 0o600))

	tracker := newTestTracker(t, MarkerProber{}, &fakeMaterializer{}, nil)
	require.NoError(t, tracker.Watch(dir))

	errCh := make(chan error, 1)
	go func() {
		errCh <- tracker.EnsureAvailable(context.Background(), path, 5*time.Second)
	}()

	// Let the waiter register, then materialize the file for real so the
	// filesystem watcher picks it up.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o600))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(4 * time.Second):
		t.Fatal("watcher did not release the waiter")
	}
}
