// Package scan discovers document candidates in the storage tree.
//
// The walk is exactly two levels deep: the root's immediate children that
// parse as integer years, then each year's immediate children. Scanning
// never mutates the filesystem, and a read failure on any subtree skips
// that subtree rather than aborting the pass.
package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Halewood/shoebox/internal/availability"
	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// Candidate is one document-bearing entry found in a year partition:
// either a standalone file or a document-folder.
type Candidate struct {
	Path     string
	Year     int
	IsFolder bool
}

// Scanner walks a storage root for document candidates.
type Scanner struct{}

// New creates a scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan enumerates all document candidates under root. The root itself
// being unreadable is an error (classified, so permission failures are
// distinguishable); anything below that is logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Candidate, error) {
	rootEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, common.WrapIO("scan root", root, err)
	}

	var candidates []Candidate
	for _, yearEntry := range rootEntries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !yearEntry.IsDir() {
			continue
		}
		name := yearEntry.Name()
		if sidecar.IsHidden(name) {
			continue
		}

		year, err := strconv.Atoi(name)
		if err != nil {
			// Not a year partition.
			continue
		}

		yearDir := filepath.Join(root, name)
		children, err := os.ReadDir(yearDir)
		if err != nil {
			slog.Warn("Skipping unreadable year directory",
				"path", yearDir,
				"error", err)
			continue
		}

		// An evicted file leaves only its hidden marker behind; the
		// document it stands for is still known and visible, just not
		// yet downloaded. Collect real entries first, then fill in
		// marker-only ones.
		seen := make(map[string]bool)
		for _, child := range children {
			childName := child.Name()
			if skipEntry(childName) {
				continue
			}
			seen[childName] = true
			candidates = append(candidates, Candidate{
				Year:     year,
				Path:     filepath.Join(yearDir, childName),
				IsFolder: child.IsDir(),
			})
		}
		for _, child := range children {
			childName := child.Name()
			if !availability.IsMarker(childName) {
				continue
			}
			target := availability.MarkerTarget(childName)
			if target == "" || seen[target] || skipEntry(target) {
				continue
			}
			candidates = append(candidates, Candidate{
				Year:     year,
				Path:     filepath.Join(yearDir, target),
				IsFolder: false,
			})
		}
	}

	return candidates, nil
}

// ListAttachmentFiles returns the sorted direct children of a
// document-folder that are attachment files, skipping sidecars, hidden
// entries, and nested directories.
func ListAttachmentFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, common.WrapIO("list document folder", folder, err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if skipEntry(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !availability.IsMarker(name) {
			continue
		}
		target := availability.MarkerTarget(name)
		if target == "" || seen[target] || skipEntry(target) {
			continue
		}
		names = append(names, target)
	}
	sort.Strings(names)
	return names, nil
}

// skipEntry filters out everything that can never be a document:
// hidden entries, sidecars, and leftover temp files from atomic writes.
func skipEntry(name string) bool {
	return sidecar.IsHidden(name) ||
		sidecar.IsSidecar(name) ||
		strings.HasSuffix(name, ".tmp")
}
