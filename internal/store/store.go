// Package store implements the mutation operations on the storage tree:
// import, placeholder creation, record updates, deletion, and attachment
// removal. Every operation is a plain-filesystem transaction with a
// best-effort contract: batches continue past individual failures and
// report an aggregate outcome instead of rolling back.
package store

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Halewood/shoebox/internal/access"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/service"
)

// Store performs filesystem mutations under a revocable access scope.
type Store struct {
	scope    *access.Scope
	registry service.StatusRegistry
	mode     service.ImportMode

	// dirLocks serializes destination-name selection and the write that
	// follows it, per target directory. Two concurrent imports into the
	// same directory must never race on the same deduplicated name.
	dirMu    sync.Mutex
	dirLocks map[string]*sync.Mutex
}

// New creates a store writing under the given scope. mode is the
// persistent copy-vs-move preference.
func New(scope *access.Scope, registry service.StatusRegistry, mode service.ImportMode) *Store {
	return &Store{
		scope:    scope,
		registry: registry,
		mode:     mode,
		dirLocks: make(map[string]*sync.Mutex),
	}
}

// Root returns the storage root the store writes under.
func (s *Store) Root() string {
	return s.scope.Root()
}

// yearDir returns the partition directory for a year.
func (s *Store) yearDir(year int) string {
	return filepath.Join(s.scope.Root(), strconv.Itoa(year))
}

// lockDir serializes writes into one directory. The returned function
// releases the lock.
func (s *Store) lockDir(dir string) func() {
	s.dirMu.Lock()
	lock, ok := s.dirLocks[dir]
	if !ok {
		lock = &sync.Mutex{}
		s.dirLocks[dir] = lock
	}
	s.dirMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// effectiveMode resolves the copy/move mode for one operation.
func (s *Store) effectiveMode(opts service.ImportOptions) service.ImportMode {
	if opts.Mode != nil {
		return *opts.Mode
	}
	return s.mode
}

// fillDraft applies defaults to user-entered draft fields: the registry
// default status, the current year, and a name derived from the first
// source file.
func (s *Store) fillDraft(draft model.DraftMeta, firstFile string) model.DraftMeta {
	if draft.Status.IsZero() {
		draft.Status = s.registry.Default()
	}
	if draft.Year == 0 {
		draft.Year = time.Now().Year()
	}
	if draft.Name == "" && firstFile != "" {
		base := filepath.Base(firstFile)
		if ext := filepath.Ext(base); ext != "" && ext != base {
			base = strings.TrimSuffix(base, ext)
		}
		draft.Name = base
	}
	return draft
}

// sanitizeName makes a display name safe to use as a filesystem entry
// name.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '-'
		default:
			return r
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "Document"
	}
	return name
}

func validateFiles(files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to import")
	}
	return nil
}
