// Package registry manages the user-owned, ordered set of document
// statuses. The registry is independent of any document: it is persisted
// as a small JSON file and only grows (via auto-discovery) or is
// explicitly edited. Its first entry is the default status for new records.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
)

// DefaultStatuses seeds the registry on first run.
var DefaultStatuses = []model.Status{"Todo", "In Progress", "Done"}

// ErrLastStatus is returned when removing a status would empty the registry.
var ErrLastStatus = errors.New("cannot remove the last status")

// ReassignFunc moves every document currently on the removed status to
// the replacement before the removal is committed.
type ReassignFunc = func(from, to model.Status) error

// Registry is a flat ordered list of status strings, safe for concurrent
// use. Every mutation is persisted immediately.
type Registry struct {
	path     string
	statuses []model.Status
	mu       sync.RWMutex
}

// Load reads the registry from the given file, seeding it with the
// default statuses if the file does not exist yet.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, common.WrapIO("read status registry", path, err)
		}
		r.statuses = append([]model.Status(nil), DefaultStatuses...)
		if err := r.persistLocked(); err != nil {
			return nil, err
		}
		return r, nil
	}

	if err := json.Unmarshal(data, &r.statuses); err != nil {
		return nil, fmt.Errorf("failed to decode status registry %s: %w", path, err)
	}
	if len(r.statuses) == 0 {
		r.statuses = append([]model.Status(nil), DefaultStatuses...)
	}
	return r, nil
}

// List returns the statuses in user order.
func (r *Registry) List() []model.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Status(nil), r.statuses...)
}

// Default returns the registry's first entry, used for newly created
// records and as the reassignment target on removal.
func (r *Registry) Default() model.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statuses[0]
}

// Contains reports whether the given status is registered.
func (r *Registry) Contains(status model.Status) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(status) >= 0
}

// Add appends a new status. Blank names and duplicates (after trimming)
// are no-ops.
func (r *Registry) Add(name string) error {
	status, ok := model.NewStatus(name)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(status) >= 0 {
		return nil
	}
	r.statuses = append(r.statuses, status)
	return r.persistLocked()
}

// Discover registers a status observed on a loaded sidecar that is not
// yet known. Unlike Add it takes an already-validated status and is
// called from reconciliation; blank statuses are ignored.
func (r *Registry) Discover(status model.Status) error {
	if status.IsZero() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(status) >= 0 {
		return nil
	}
	r.statuses = append(r.statuses, status)
	slog.Info("Discovered new status from sidecar", "status", status.String())
	return r.persistLocked()
}

// Remove deletes a status from the registry. Removing the last remaining
// status is forbidden. Documents currently on the removed status are
// reassigned to the registry default via the callback before the removal
// is committed; if reassignment fails the registry is unchanged.
func (r *Registry) Remove(name string, reassign ReassignFunc) error {
	status, ok := model.NewStatus(name)
	if !ok {
		return fmt.Errorf("invalid status name %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(status)
	if idx < 0 {
		return fmt.Errorf("status %q %w", name, common.ErrNotFound)
	}
	if len(r.statuses) == 1 {
		return ErrLastStatus
	}

	replacement := r.statuses[0]
	if replacement == status {
		replacement = r.statuses[1]
	}

	if reassign != nil {
		if err := reassign(status, replacement); err != nil {
			return fmt.Errorf("failed to reassign documents from %q: %w", name, err)
		}
	}

	r.statuses = append(r.statuses[:idx], r.statuses[idx+1:]...)
	return r.persistLocked()
}

// Reorder replaces the registry order. The new order must contain exactly
// the current statuses.
func (r *Registry) Reorder(newOrder []model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(newOrder) != len(r.statuses) {
		return fmt.Errorf("%w: reorder must include every status exactly once", common.ErrInvalidConfig)
	}
	seen := make(map[model.Status]bool, len(newOrder))
	for _, status := range newOrder {
		if seen[status] {
			return fmt.Errorf("%w: duplicate status %q in new order", common.ErrInvalidConfig, status)
		}
		seen[status] = true
		if r.indexLocked(status) < 0 {
			return fmt.Errorf("%w: unknown status %q in new order", common.ErrInvalidConfig, status)
		}
	}

	r.statuses = append([]model.Status(nil), newOrder...)
	return r.persistLocked()
}

func (r *Registry) indexLocked(status model.Status) int {
	for i, s := range r.statuses {
		if s == status {
			return i
		}
	}
	return -1
}

// persistLocked writes the registry atomically. Callers hold the lock.
func (r *Registry) persistLocked() error {
	data, err := json.MarshalIndent(r.statuses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return common.WrapIO("create directory", dir, err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return common.WrapIO("write status registry", tmpPath, err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return common.WrapIO("rename status registry", r.path, err)
	}
	return nil
}
