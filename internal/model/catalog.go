package model

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Availability describes where a backing file's bytes currently live.
type Availability int

const (
	// AvailabilityCurrent means the file is local and fresh.
	AvailabilityCurrent Availability = iota
	// AvailabilityDownloaded means the file is local.
	AvailabilityDownloaded
	// AvailabilityNotDownloaded means the file is remote-only and must be
	// materialized before its contents can be read.
	AvailabilityNotDownloaded
)

// String returns a human-readable representation of the availability state.
func (a Availability) String() string {
	switch a {
	case AvailabilityCurrent:
		return "current"
	case AvailabilityDownloaded:
		return "downloaded"
	case AvailabilityNotDownloaded:
		return "not downloaded"
	default:
		return "unknown"
	}
}

// Local reports whether the file's bytes are available on disk.
func (a Availability) Local() bool {
	return a != AvailabilityNotDownloaded
}

// Entry is one resolved document in the in-memory catalog: a Document
// joined with its storage location and transient availability state.
//
// The ID is process-local and stable only for the lifetime of one catalog
// generation. A full reconciliation pass replaces entries wholesale, so
// the ID is not a cross-session key.
type Entry struct {
	Document         *Document
	Path             string
	ID               uuid.UUID
	DownloadProgress float64
	Availability     Availability
	IsFolder         bool
	IsPlaceholder    bool
	IsDownloading    bool
}

// NewEntry assigns a fresh process-local identity to a resolved document.
func NewEntry(doc *Document, path string, isFolder bool) Entry {
	return Entry{
		ID:       uuid.New(),
		Document: doc,
		Path:     path,
		IsFolder: isFolder,
	}
}

// DisplayFilename returns the on-disk base name used for sorting and
// display.
func (e *Entry) DisplayFilename() string {
	return filepath.Base(e.Path)
}

// Catalog is the in-memory view of the storage tree, rebuilt wholesale by
// each reconciliation pass. It is never persisted.
type Catalog struct {
	Entries      []Entry
	Years        []int
	SelectedYear int
	Generation   uint64
}

// Sort orders entries case-insensitively by on-disk filename so repeated
// passes over an unchanged tree produce the same display order.
func (c *Catalog) Sort() {
	sort.SliceStable(c.Entries, func(i, j int) bool {
		a := strings.ToLower(c.Entries[i].DisplayFilename())
		b := strings.ToLower(c.Entries[j].DisplayFilename())
		if a == b {
			return c.Entries[i].Path < c.Entries[j].Path
		}
		return a < b
	})
}

// DeriveYears rebuilds the year list from the current entries: only years
// with at least one resolved entry appear, most recent first. The
// selected year is kept if still present, otherwise reset to the most
// recent year.
func (c *Catalog) DeriveYears() {
	seen := make(map[int]bool)
	for i := range c.Entries {
		seen[c.Entries[i].Document.Year] = true
	}

	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	c.Years = years

	if len(years) == 0 {
		c.SelectedYear = 0
		return
	}
	for _, year := range years {
		if year == c.SelectedYear {
			return
		}
	}
	c.SelectedYear = years[0]
}

// EntriesForYear returns the entries belonging to one year partition.
func (c *Catalog) EntriesForYear(year int) []Entry {
	var out []Entry
	for i := range c.Entries {
		if c.Entries[i].Document.Year == year {
			out = append(out, c.Entries[i])
		}
	}
	return out
}

// Filter returns entries whose name, notes, or filename contains the
// given substring, case-insensitively. An empty filter matches everything.
func (c *Catalog) Filter(substr string) []Entry {
	if substr == "" {
		return c.Entries
	}
	needle := strings.ToLower(substr)

	var out []Entry
	for i := range c.Entries {
		e := &c.Entries[i]
		if strings.Contains(strings.ToLower(e.Document.Name), needle) ||
			strings.Contains(strings.ToLower(e.Document.Notes), needle) ||
			strings.Contains(strings.ToLower(e.DisplayFilename()), needle) {
			out = append(out, *e)
		}
	}
	return out
}

// FindByID looks up an entry by its process-local id.
func (c *Catalog) FindByID(id uuid.UUID) *Entry {
	for i := range c.Entries {
		if c.Entries[i].ID == id {
			return &c.Entries[i]
		}
	}
	return nil
}

// FindByName returns the first entry whose document name matches exactly,
// preferring the selected year.
func (c *Catalog) FindByName(name string) *Entry {
	var fallback *Entry
	for i := range c.Entries {
		if c.Entries[i].Document.Name != name {
			continue
		}
		if c.Entries[i].Document.Year == c.SelectedYear {
			return &c.Entries[i]
		}
		if fallback == nil {
			fallback = &c.Entries[i]
		}
	}
	return fallback
}
