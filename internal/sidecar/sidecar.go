// Package sidecar reads and writes the metadata files stored next to each
// document. A sidecar is the single source of truth for everything the
// user entered about a document; the catalog is only ever derived from it.
// All writes are atomic: temp file, fsync, rename.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
)

// Suffix is appended to a document's path to form its sidecar path.
const Suffix = ".meta.json"

// PlaceholderExt marks a zero-byte placeholder document.
const PlaceholderExt = ".placeholder"

func init() {
	// Sidecar amounts are plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PathFor returns the sidecar path for a document path.
// Example: "/root/2024/w2.pdf" -> "/root/2024/w2.pdf.meta.json"
func PathFor(entryPath string) string {
	return entryPath + Suffix
}

// EntryPathFor returns the document path for a sidecar path.
func EntryPathFor(sidecarPath string) string {
	return strings.TrimSuffix(sidecarPath, Suffix)
}

// IsSidecar reports whether the given name or path is a sidecar file.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// IsPlaceholder reports whether the given name or path is a placeholder
// document.
func IsPlaceholder(name string) bool {
	return strings.HasSuffix(name, PlaceholderExt)
}

// IsHidden reports whether the entry name is hidden and should be skipped
// by scans.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Encode serializes a document to its on-disk sidecar form. Encoding is
// deterministic: struct field order is fixed and timestamps use RFC 3339,
// so repeated saves of unchanged data produce byte-identical output.
func Encode(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sidecar: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses sidecar bytes. Unknown fields are ignored so newer
// sidecars remain readable. A structurally corrupt payload returns
// common.ErrDecodeFailure; callers treat that the same as a missing
// sidecar and synthesize a default record.
func Decode(data []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecodeFailure, err)
	}
	return &doc, nil
}

// Read loads and decodes the sidecar at the given path. A missing file
// returns common.ErrNotFound; corrupt contents return
// common.ErrDecodeFailure. Neither is fatal to callers.
func Read(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, path)
		}
		return nil, common.WrapIO("read sidecar", path, err)
	}
	return Decode(data)
}

// Write atomically persists a document's sidecar: encode, write to a temp
// file in the same directory, fsync, rename over the destination.
func Write(path string, doc *model.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return common.WrapIO("create directory", dir, err)
	}

	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return common.WrapIO("create temp sidecar", tmpPath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return common.WrapIO("write sidecar", tmpPath, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return common.WrapIO("sync sidecar", tmpPath, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return common.WrapIO("close sidecar", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return common.WrapIO("rename sidecar", path, err)
	}

	return nil
}

// Remove deletes a sidecar file. A missing file is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return common.WrapIO("remove sidecar", path, err)
	}
	return nil
}
