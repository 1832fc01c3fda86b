// Package access models storage permission as a revocable capability.
//
// The surrounding application owns the actual permission plumbing (OS
// bookmarks, folder pickers); the core only knows it holds a handle that
// may stop working. Once a permission-class failure is observed the scope
// flips to revoked, mutations pause, and the user is asked to re-grant
// access to the storage root.
package access

import (
	"sync"

	"github.com/Halewood/shoebox/internal/common"
)

// Scope is a revocable capability over a storage root.
type Scope struct {
	root    string
	revoked bool
	mu      sync.RWMutex
}

// NewScope creates a capability over the given root path.
func NewScope(root string) *Scope {
	return &Scope{root: root}
}

// Root returns the storage root this scope covers.
func (s *Scope) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Revoked reports whether access has been lost.
func (s *Scope) Revoked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revoked
}

// WithAccess runs fn under this capability. If the scope is already
// revoked it fails fast with ErrMutationsPaused; if fn fails with a
// permission-class error the scope flips to revoked and the error is
// surfaced as a PermissionError for the caller to show the user.
func (s *Scope) WithAccess(fn func(root string) error) error {
	s.mu.RLock()
	if s.revoked {
		s.mu.RUnlock()
		return common.ErrMutationsPaused
	}
	root := s.root
	s.mu.RUnlock()

	err := fn(root)
	if err == nil {
		return nil
	}

	if common.IsPermission(err) {
		s.mu.Lock()
		s.revoked = true
		s.mu.Unlock()
	}
	return err
}

// Restore re-grants access, optionally pointing the scope at a newly
// selected root. An empty newRoot keeps the current one.
func (s *Scope) Restore(newRoot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newRoot != "" {
		s.root = newRoot
	}
	s.revoked = false
}
