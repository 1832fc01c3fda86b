package store

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/service"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// CreatePlaceholder writes a zero-byte marker file plus its sidecar for a
// document the user expects but does not have yet.
func (s *Store) CreatePlaceholder(draft model.DraftMeta) (*model.Entry, error) {
	var entry *model.Entry

	err := s.scope.WithAccess(func(string) error {
		created, err := s.createPlaceholder(draft)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created placeholder", "path", entry.Path, "name", entry.Document.Name)
	return entry, nil
}

// CreateBulkPlaceholders applies CreatePlaceholder to every draft inside
// a single access check. Individual failures are collected, not fatal;
// the caller runs one reconciliation (or catalog insertion) at the end
// rather than one per row.
func (s *Store) CreateBulkPlaceholders(drafts []model.DraftMeta) ([]model.Entry, *service.BatchResult, error) {
	var entries []model.Entry
	result := &service.BatchResult{}

	err := s.scope.WithAccess(func(string) error {
		for _, draft := range drafts {
			entry, err := s.createPlaceholder(draft)
			if err != nil {
				result.Failures = append(result.Failures, service.FileFailure{
					Path: draft.Name,
					Err:  err,
				})
				continue
			}
			entries = append(entries, *entry)
			result.Succeeded++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Created placeholders",
		"succeeded", result.Succeeded,
		"failed", len(result.Failures))
	return entries, result, nil
}

// createPlaceholder does the work for one draft. Callers hold the access
// scope.
func (s *Store) createPlaceholder(draft model.DraftMeta) (*model.Entry, error) {
	draft = s.fillDraft(draft, "")
	if draft.Name == "" {
		draft.Name = "Document"
	}

	dir := s.yearDir(draft.Year)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	unlock := s.lockDir(dir)
	defer unlock()

	destName, err := UniqueName(dir, sanitizeName(draft.Name)+sidecar.PlaceholderExt)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(dir, destName)

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, common.WrapIO("create placeholder", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return nil, common.WrapIO("create placeholder", destPath, err)
	}

	doc := model.NewDocument(draft, "")
	doc.Attachments = []model.Attachment{}

	if err := sidecar.Write(sidecar.PathFor(destPath), doc); err != nil {
		os.Remove(destPath)
		return nil, err
	}

	entry := model.NewEntry(doc, destPath, false)
	entry.IsPlaceholder = true
	return &entry, nil
}
