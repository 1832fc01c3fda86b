// Package engine implements the reconciliation engine: it rebuilds the
// in-memory catalog from the authoritative filesystem state.
//
// A pass never mutates the filesystem. Sidecars are loaded or defaulted,
// legacy records are migrated in memory, unknown statuses are discovered,
// and the finished catalog is published atomically: callers never observe
// a partially rebuilt view.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/scan"
	"github.com/Halewood/shoebox/internal/service"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// Scanner produces document candidates from a storage root.
type Scanner interface {
	Scan(ctx context.Context, root string) ([]scan.Candidate, error)
}

// Config holds configuration options for the engine.
type Config struct {
	// Workers bounds the number of candidates resolved concurrently.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Workers: 8}
}

// Engine converts raw scan results into the in-memory catalog. The
// catalog is owned exclusively by the engine; mutation operations feed
// their effects back through ApplyUpdate and RemoveEntries between full
// passes.
type Engine struct {
	scanner  Scanner
	registry service.StatusRegistry
	avail    service.Availability
	root     string
	workers  int

	mu      sync.RWMutex
	catalog *model.Catalog

	// passMu serializes full passes; concurrent Reconcile calls run one
	// after another rather than interleaving.
	passMu sync.Mutex
}

// New creates an engine with the default configuration. The availability
// tracker may be nil, in which case every file is treated as local.
func New(scanner Scanner, registry service.StatusRegistry, avail service.Availability, root string) *Engine {
	return NewWithConfig(scanner, registry, avail, root, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(scanner Scanner, registry service.StatusRegistry, avail service.Availability, root string, config Config) *Engine {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		scanner:  scanner,
		registry: registry,
		avail:    avail,
		root:     root,
		workers:  workers,
		catalog:  &model.Catalog{},
	}
}

// Snapshot returns the last published catalog. The returned value is
// shared; callers must treat it as read-only.
func (e *Engine) Snapshot() *model.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

// Reconcile runs one full pass: scan, resolve every candidate, publish.
// It is idempotent: two passes over an unchanged tree yield catalogs with
// identical record content (entry identities are fresh each pass).
func (e *Engine) Reconcile(ctx context.Context) (*model.Catalog, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	slog.Info("Starting reconciliation", "root", e.root)

	candidates, err := e.scanner.Scan(ctx, e.root)
	if err != nil {
		return nil, err
	}

	entries, err := e.resolveAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	prev := e.Snapshot()
	catalog := &model.Catalog{
		Entries:      entries,
		SelectedYear: prev.SelectedYear,
		Generation:   prev.Generation + 1,
	}
	catalog.Sort()
	catalog.DeriveYears()

	e.watchPartitions(catalog.Years)

	e.mu.Lock()
	e.catalog = catalog
	e.mu.Unlock()

	slog.Info("Reconciliation complete",
		"entries", len(catalog.Entries),
		"years", len(catalog.Years),
		"generation", catalog.Generation)

	return catalog, nil
}

// resolveAll fans candidates out to a bounded worker pool. Order of
// resolution does not matter; the final sort makes the result
// deterministic.
func (e *Engine) resolveAll(ctx context.Context, candidates []scan.Candidate) ([]model.Entry, error) {
	jobs := make(chan scan.Candidate)
	results := make(chan *model.Entry)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range jobs {
				entry := e.resolve(candidate)
				select {
				case results <- entry:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, candidate := range candidates {
			select {
			case jobs <- candidate:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	entries := make([]model.Entry, 0, len(candidates))
	for entry := range results {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// resolve turns one candidate into a catalog entry, or nil when the
// candidate is not a document after all. Sidecar problems are recovered
// locally and never fail the pass.
func (e *Engine) resolve(candidate scan.Candidate) *model.Entry {
	sidecarPath := sidecar.PathFor(candidate.Path)

	doc, err := sidecar.Read(sidecarPath)
	switch {
	case err == nil:
		if discoverErr := e.registry.Discover(doc.Status); discoverErr != nil {
			slog.Warn("Failed to register discovered status",
				"status", doc.Status.String(),
				"error", discoverErr)
		}
		if doc.IsLegacy() {
			e.migrateLegacy(doc, candidate)
		}
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrDecodeFailure):
		doc = e.synthesizeDefault(candidate)
		if doc == nil {
			return nil
		}
	default:
		slog.Warn("Skipping entry with unreadable sidecar",
			"path", candidate.Path,
			"error", err)
		return nil
	}

	entry := model.NewEntry(doc, candidate.Path, candidate.IsFolder)
	entry.IsPlaceholder = sidecar.IsPlaceholder(candidate.Path)
	e.applyAvailability(&entry)
	return &entry
}

// migrateLegacy synthesizes the one-element attachment list for a record
// that predates the multi-attachment model. In-memory only: the sidecar
// on disk stays untouched until the record is next saved.
func (e *Engine) migrateLegacy(doc *model.Document, candidate scan.Candidate) {
	if candidate.IsFolder {
		// A legacy sidecar attached to a document-folder: derive the
		// list from the folder's live contents instead.
		names, err := scan.ListAttachmentFiles(candidate.Path)
		if err != nil || len(names) == 0 {
			doc.Attachments = []model.Attachment{}
			return
		}
		doc.Attachments = make([]model.Attachment, 0, len(names))
		for i, name := range names {
			att := model.Attachment{
				Filename:         name,
				OriginalFilename: name,
				FileSize:         fileSize(filepath.Join(candidate.Path, name)),
				DateAdded:        doc.CreatedAt,
				IsOriginalFile:   i == 0,
			}
			doc.Attachments = append(doc.Attachments, att)
		}
		return
	}

	doc.MigrateLegacy(filepath.Base(candidate.Path), fileSize(candidate.Path))
}

// synthesizeDefault builds a record for a document with no usable
// sidecar: name from the filename, default status, year from the
// partition. Returns nil for a folder with no attachment files (an empty
// directory is not a document).
func (e *Engine) synthesizeDefault(candidate scan.Candidate) *model.Document {
	doc := &model.Document{
		Name:      displayName(candidate.Path),
		Status:    e.registry.Default(),
		Year:      candidate.Year,
		CreatedAt: modTime(candidate.Path),
	}

	if candidate.IsFolder {
		names, err := scan.ListAttachmentFiles(candidate.Path)
		if err != nil {
			slog.Warn("Skipping unreadable document folder",
				"path", candidate.Path,
				"error", err)
			return nil
		}
		if len(names) == 0 {
			return nil
		}
		doc.Attachments = make([]model.Attachment, 0, len(names))
		for i, name := range names {
			doc.Attachments = append(doc.Attachments, model.Attachment{
				Filename:         name,
				OriginalFilename: name,
				FileSize:         fileSize(filepath.Join(candidate.Path, name)),
				DateAdded:        doc.CreatedAt,
				IsOriginalFile:   i == 0,
			})
		}
		return doc
	}

	filename := filepath.Base(candidate.Path)
	doc.Attachments = []model.Attachment{
		{
			Filename:         filename,
			OriginalFilename: filename,
			FileSize:         fileSize(candidate.Path),
			DateAdded:        doc.CreatedAt,
			IsOriginalFile:   true,
		},
	}
	return doc
}

// applyAvailability records whether the entry's backing files are local.
// Entries that are not fully local stay in the catalog, flagged for
// on-demand materialization.
func (e *Engine) applyAvailability(entry *model.Entry) {
	if e.avail == nil {
		entry.Availability = model.AvailabilityCurrent
		return
	}

	paths := []string{entry.Path}
	if entry.IsFolder {
		paths = paths[:0]
		for _, att := range entry.Document.Attachments {
			paths = append(paths, filepath.Join(entry.Path, att.Filename))
		}
	}

	entry.Availability = model.AvailabilityCurrent
	for _, path := range paths {
		state, err := e.avail.Probe(path)
		if err != nil {
			continue
		}
		if !state.Local() {
			entry.Availability = model.AvailabilityNotDownloaded
		}
		if e.avail.Downloading(path) {
			entry.IsDownloading = true
		}
	}
}

// watchPartitions keeps the availability tracker's watch list aligned
// with the year partitions that actually exist. Best effort.
func (e *Engine) watchPartitions(years []int) {
	if e.avail == nil {
		return
	}
	for _, year := range years {
		dir := filepath.Join(e.root, strconv.Itoa(year))
		if err := e.avail.Watch(dir); err != nil {
			slog.Warn("Failed to watch year partition", "dir", dir, "error", err)
		}
	}
}

// ApplyUpdate replaces the catalog entry with the same id, keeping the
// UI responsive after an edit without a full pass. Unknown ids are
// ignored (the next reconciliation will pick the change up anyway).
func (e *Engine) ApplyUpdate(entry model.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cloneCatalogLocked()
	for i := range next.Entries {
		if next.Entries[i].ID == entry.ID {
			next.Entries[i] = entry
			break
		}
	}
	next.Sort()
	next.DeriveYears()
	e.catalog = next
}

// AddEntries inserts freshly created entries (from an import or
// placeholder creation) into the published catalog.
func (e *Engine) AddEntries(entries ...model.Entry) {
	if len(entries) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cloneCatalogLocked()
	next.Entries = append(next.Entries, entries...)
	next.Sort()
	next.DeriveYears()
	e.catalog = next
}

// RemoveEntries drops the entries with the given ids from the published
// catalog immediately, without a rescan.
func (e *Engine) RemoveEntries(ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cloneCatalogLocked()
	kept := next.Entries[:0]
	for _, entry := range next.Entries {
		if !drop[entry.ID] {
			kept = append(kept, entry)
		}
	}
	next.Entries = kept
	next.DeriveYears()
	e.catalog = next
}

// SetDownloading updates the transient download flag for the entry
// backing the given path. Used as the availability tracker's change
// callback so downloads complete without a full pass.
//
// A cleared flag does not by itself mean the file arrived: abandoned
// waits (timeout, cancellation) also clear it. Availability is only
// upgraded when the file actually probes local.
func (e *Engine) SetDownloading(path string, downloading bool) {
	local := true
	if !downloading && e.avail != nil {
		state, err := e.avail.Probe(path)
		local = err == nil && state.Local()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cloneCatalogLocked()
	dir := filepath.Dir(path)
	for i := range next.Entries {
		entry := &next.Entries[i]
		if entry.Path != path && entry.Path != dir {
			continue
		}
		entry.IsDownloading = downloading
		if !downloading && local {
			entry.Availability = model.AvailabilityDownloaded
		}
	}
	e.catalog = next
}

// SelectYear changes the catalog's selected year if that year exists.
func (e *Engine) SelectYear(year int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, y := range e.catalog.Years {
		if y == year {
			next := e.cloneCatalogLocked()
			next.SelectedYear = year
			e.catalog = next
			return
		}
	}
}

// cloneCatalogLocked copies the published catalog so in-place edits are
// atomic swaps: readers holding the old snapshot never see it change.
func (e *Engine) cloneCatalogLocked() *model.Catalog {
	prev := e.catalog
	next := &model.Catalog{
		Entries:      make([]model.Entry, len(prev.Entries)),
		Years:        append([]int(nil), prev.Years...),
		SelectedYear: prev.SelectedYear,
		Generation:   prev.Generation,
	}
	copy(next.Entries, prev.Entries)
	return next
}

// displayName derives a default record name from an entry path: the base
// name with the placeholder marker and one extension stripped.
func displayName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, sidecar.PlaceholderExt)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC()
	}
	return info.ModTime().UTC()
}
