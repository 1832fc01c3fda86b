package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Halewood/shoebox/internal/availability"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// UniqueName resolves a desired entry name within a directory to one
// that is free, appending -1, -2, ... until no entry of that name exists.
// For files the suffix goes before the extension (receipt.pdf,
// receipt-1.pdf, receipt-2.pdf); for directories after the bare name.
// Placeholder files keep their marker extension outermost
// (receipt.pdf.placeholder, receipt-1.pdf.placeholder).
func UniqueName(dir, desired string) (string, error) {
	marker := ""
	if sidecar.IsPlaceholder(desired) {
		marker = sidecar.PlaceholderExt
		desired = strings.TrimSuffix(desired, sidecar.PlaceholderExt)
	}

	stem := desired
	ext := filepath.Ext(desired)
	if ext != "" && ext != desired {
		stem = strings.TrimSuffix(desired, ext)
	} else {
		ext = ""
	}

	for i := 0; ; i++ {
		name := stem
		if i > 0 {
			name = fmt.Sprintf("%s-%d", stem, i)
		}
		name += ext + marker

		if free, err := nameFree(dir, name); err != nil {
			return "", err
		} else if free {
			return name, nil
		}
	}
}

// UniqueDirName resolves a desired directory name within a directory:
// the numeric suffix goes after the whole name, never splitting what
// merely looks like an extension ("Tax Docs 2.0" becomes
// "Tax Docs 2.0-1").
func UniqueDirName(dir, desired string) (string, error) {
	for i := 0; ; i++ {
		name := desired
		if i > 0 {
			name = fmt.Sprintf("%s-%d", desired, i)
		}

		if free, err := nameFree(dir, name); err != nil {
			return "", err
		} else if free {
			return name, nil
		}
	}
}

// nameFree reports whether a candidate entry name is usable: neither the
// entry itself nor the sidecar that would accompany it may exist.
func nameFree(dir, name string) (bool, error) {
	path := filepath.Join(dir, name)
	if exists, err := entryExists(path); err != nil || exists {
		return false, err
	}
	if exists, err := entryExists(sidecar.PathFor(path)); err != nil || exists {
		return false, err
	}
	return true, nil
}

// entryExists reports whether any filesystem entry occupies the path,
// counting an eviction marker as occupancy so an evicted file is never
// silently overwritten.
func entryExists(path string) (bool, error) {
	if _, err := os.Lstat(path); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if _, err := os.Lstat(availability.MarkerPath(path)); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return false, nil
}
