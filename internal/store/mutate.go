package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Halewood/shoebox/internal/availability"
	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/service"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// Update re-encodes and saves the record's sidecar. Attached files are
// untouched; the caller updates the one catalog entry in place instead of
// forcing a full reconciliation.
func (s *Store) Update(entry *model.Entry) error {
	err := s.scope.WithAccess(func(string) error {
		return sidecar.Write(sidecar.PathFor(entry.Path), entry.Document)
	})
	if err != nil {
		return err
	}

	slog.Info("Updated record", "path", entry.Path)
	return nil
}

// Delete removes the record's backing file (or whole document-folder)
// and its sidecar. File removal is the primary effect: a sidecar that
// cannot be removed is logged and tolerated.
func (s *Store) Delete(entry *model.Entry) error {
	err := s.scope.WithAccess(func(string) error {
		if err := removeBacking(entry.Path, entry.IsFolder); err != nil {
			return err
		}
		if err := sidecar.Remove(sidecar.PathFor(entry.Path)); err != nil {
			slog.Warn("Failed to remove sidecar after deletion",
				"path", sidecar.PathFor(entry.Path),
				"error", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted record", "path", entry.Path)
	return nil
}

// DeleteMany deletes each record independently. Per-record failures are
// logged and reported in the aggregate outcome; the batch never aborts.
// The returned ids identify the records that were actually removed so
// the catalog can drop exactly those.
func (s *Store) DeleteMany(entries []model.Entry) ([]uuid.UUID, *service.BatchResult) {
	result := &service.BatchResult{}
	deleted := make([]uuid.UUID, 0, len(entries))

	for i := range entries {
		if err := s.Delete(&entries[i]); err != nil {
			slog.Warn("Failed to delete record",
				"path", entries[i].Path,
				"error", err)
			result.Failures = append(result.Failures, service.FileFailure{
				Path: entries[i].Path,
				Err:  err,
			})
			continue
		}
		deleted = append(deleted, entries[i].ID)
		result.Succeeded++
	}

	return deleted, result
}

// RemoveAttachment removes one physical file from a record and its
// descriptor from the attachment list.
//
// Removing the last attachment deletes the whole record (nil entry is
// returned). Leaving exactly one attachment collapses the document-folder
// back to a single-file record. Otherwise the sidecar is re-saved with
// the descriptor gone.
func (s *Store) RemoveAttachment(entry *model.Entry, filename string) (*model.Entry, error) {
	var updated *model.Entry

	err := s.scope.WithAccess(func(string) error {
		doc := entry.Document.Clone()
		if !doc.RemoveAttachment(filename) {
			return fmt.Errorf("attachment %q %w", filename, common.ErrNotFound)
		}

		if !entry.IsFolder {
			// A single-file record losing its only file is a full delete.
			if len(doc.Attachments) > 0 {
				return fmt.Errorf("single-file record %s cannot keep attachments after removal", entry.Path)
			}
			return s.deleteLocked(entry)
		}

		filePath := filepath.Join(entry.Path, filename)
		if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return common.WrapIO("remove attachment", filePath, err)
		}
		os.Remove(availability.MarkerPath(filePath))

		switch len(doc.Attachments) {
		case 0:
			return s.deleteLocked(entry)
		case 1:
			demoted, err := s.demote(entry, doc)
			if err != nil {
				return err
			}
			updated = demoted
			return nil
		default:
			if err := sidecar.Write(sidecar.PathFor(entry.Path), doc); err != nil {
				return err
			}
			next := *entry
			next.Document = doc
			updated = &next
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	if updated == nil {
		slog.Info("Removed last attachment, record deleted", "path", entry.Path)
	} else {
		slog.Info("Removed attachment", "path", entry.Path, "filename", filename)
	}
	return updated, nil
}

// demote collapses a document-folder with one remaining attachment back
// into a single-file record in the parent directory.
func (s *Store) demote(entry *model.Entry, doc *model.Document) (*model.Entry, error) {
	remaining := doc.Attachments[0]
	parent := filepath.Dir(entry.Path)

	unlock := s.lockDir(parent)
	defer unlock()

	destName, err := UniqueName(parent, remaining.Filename)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(parent, destName)

	if err := renameEntry(filepath.Join(entry.Path, remaining.Filename), destPath); err != nil {
		return nil, err
	}

	doc.Attachments[0].Filename = destName
	doc.Attachments[0].IsOriginalFile = true

	if err := sidecar.Write(sidecar.PathFor(destPath), doc); err != nil {
		return nil, err
	}

	if err := sidecar.Remove(sidecar.PathFor(entry.Path)); err != nil {
		slog.Warn("Failed to remove folder sidecar after demotion",
			"path", sidecar.PathFor(entry.Path),
			"error", err)
	}
	if err := removeIfEmpty(entry.Path); err != nil {
		slog.Warn("Failed to remove empty document folder",
			"path", entry.Path,
			"error", err)
	}

	demoted := *entry
	demoted.Document = doc
	demoted.Path = destPath
	demoted.IsFolder = false

	slog.Info("Collapsed document folder to single file",
		"from", entry.Path,
		"to", destPath)
	return &demoted, nil
}

// deleteLocked removes a record's backing entry and sidecar. Callers
// hold the access scope.
func (s *Store) deleteLocked(entry *model.Entry) error {
	if err := removeBacking(entry.Path, entry.IsFolder); err != nil {
		return err
	}
	if err := sidecar.Remove(sidecar.PathFor(entry.Path)); err != nil {
		slog.Warn("Failed to remove sidecar after deletion",
			"path", sidecar.PathFor(entry.Path),
			"error", err)
	}
	return nil
}

// removeBacking deletes the physical file or document-folder, tolerating
// an already-missing entry and cleaning up any eviction marker.
func removeBacking(path string, isFolder bool) error {
	var err error
	if isFolder {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
	}
	if err != nil {
		return common.WrapIO("delete", path, err)
	}
	os.Remove(availability.MarkerPath(path))
	return nil
}

// ReassignStatus rewrites every document currently on one status to
// another, saving each affected sidecar. Used by the status registry's
// remove operation. Failures are collected per record.
func (s *Store) ReassignStatus(entries []model.Entry, from, to model.Status) error {
	return s.scope.WithAccess(func(string) error {
		var firstErr error
		for i := range entries {
			doc := entries[i].Document
			if !doc.Status.Equal(from) {
				continue
			}
			updated := doc.Clone()
			updated.Status = to
			if err := sidecar.Write(sidecar.PathFor(entries[i].Path), updated); err != nil {
				slog.Warn("Failed to reassign document status",
					"path", entries[i].Path,
					"error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			entries[i].Document = updated
		}
		return firstErr
	})
}
