// Package service defines the interfaces and shared types that connect
// the application's components.
package service

import (
	"context"
	"time"

	"github.com/Halewood/shoebox/internal/model"
)

// StatusRegistry is the contract for the user-owned ordered status set.
type StatusRegistry interface {
	List() []model.Status
	Default() model.Status
	Contains(status model.Status) bool
	Add(name string) error
	Discover(status model.Status) error
	Remove(name string, reassign func(from, to model.Status) error) error
	Reorder(newOrder []model.Status) error
}

// Availability is the contract for the remote-storage offload tracker.
type Availability interface {
	Probe(path string) (model.Availability, error)
	Downloading(path string) bool
	TriggerDownload(path string) error
	EnsureAvailable(ctx context.Context, path string, timeout time.Duration) error
	Watch(dir string) error
}

// ImportMode selects what happens to source files on import.
type ImportMode int

const (
	// ModeCopy leaves the originals untouched (the default, safer mode).
	ModeCopy ImportMode = iota
	// ModeMove removes each original after a successful copy.
	ModeMove
)

// String returns the configuration spelling of the mode.
func (m ImportMode) String() string {
	if m == ModeMove {
		return "move"
	}
	return "copy"
}

// ParseImportMode maps the configuration spelling to a mode, defaulting
// to copy for anything unrecognized.
func ParseImportMode(s string) ImportMode {
	if s == "move" {
		return ModeMove
	}
	return ModeCopy
}

// ImportOptions modifies a single import call.
type ImportOptions struct {
	// Target, when set, appends the files to an existing record instead
	// of creating a new one.
	Target *model.Entry
	// Mode overrides the configured copy/move preference when non-nil.
	Mode *ImportMode
}

// FileFailure records one file that could not contribute to a batch.
type FileFailure struct {
	Err  error
	Path string
}

// ImportResult is the aggregate outcome of one import: which files made
// it, which did not, and where the record now lives. Batches are
// best-effort, so both lists can be non-empty.
type ImportResult struct {
	RecordPath  string
	SidecarPath string
	Imported    []string
	Failures    []FileFailure
}

// BatchResult is the aggregate outcome of a multi-record operation.
// Individual failures never abort the batch.
type BatchResult struct {
	Succeeded int
	Failures  []FileFailure
}
