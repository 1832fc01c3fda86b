package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/service"
	"github.com/Halewood/shoebox/internal/sidecar"
)

// Import brings files into the storage tree. With a target it appends
// the files to that existing record (promoting a single-file record to a
// document-folder first); with exactly one file it creates a simple
// single-file record; with several it creates a new document-folder.
//
// The batch is best-effort: a per-file failure drops that file's
// contribution and is reported in the result, it does not abort the rest.
func (s *Store) Import(ctx context.Context, files []string, draft model.DraftMeta, opts service.ImportOptions) (*model.Entry, *service.ImportResult, error) {
	if err := validateFiles(files); err != nil {
		return nil, nil, err
	}

	if opts.Target != nil {
		return s.appendToRecord(ctx, files, *opts.Target, opts)
	}

	draft = s.fillDraft(draft, files[0])
	if len(files) == 1 {
		return s.importSingle(files[0], draft, opts)
	}
	return s.importMulti(ctx, files, draft, opts)
}

// importSingle creates a simple single-file record in the year partition.
func (s *Store) importSingle(file string, draft model.DraftMeta, opts service.ImportOptions) (*model.Entry, *service.ImportResult, error) {
	var entry *model.Entry
	var result *service.ImportResult

	err := s.scope.WithAccess(func(string) error {
		dir := s.yearDir(draft.Year)
		if err := ensureDir(dir); err != nil {
			return err
		}

		unlock := s.lockDir(dir)
		defer unlock()

		destName, err := UniqueName(dir, filepath.Base(file))
		if err != nil {
			return err
		}
		destPath := filepath.Join(dir, destName)

		size, err := transferFile(file, destPath, s.effectiveMode(opts))
		if err != nil {
			return err
		}

		doc := model.NewDocument(draft, file)
		att := model.NewAttachment(destName, size, true)
		att.OriginalFilename = filepath.Base(file)
		doc.Attachments = []model.Attachment{att}

		sidecarPath := sidecar.PathFor(destPath)
		if err := sidecar.Write(sidecarPath, doc); err != nil {
			return err
		}

		e := model.NewEntry(doc, destPath, false)
		entry = &e
		result = &service.ImportResult{
			RecordPath:  destPath,
			SidecarPath: sidecarPath,
			Imported:    []string{file},
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Imported document", "path", result.RecordPath, "name", entry.Document.Name)
	return entry, result, nil
}

// importMulti creates a document-folder holding every file that could be
// brought in. The sidecar reflects only the files that succeeded.
func (s *Store) importMulti(ctx context.Context, files []string, draft model.DraftMeta, opts service.ImportOptions) (*model.Entry, *service.ImportResult, error) {
	var entry *model.Entry
	var result *service.ImportResult

	err := s.scope.WithAccess(func(string) error {
		dir := s.yearDir(draft.Year)
		if err := ensureDir(dir); err != nil {
			return err
		}

		unlock := s.lockDir(dir)
		defer unlock()

		folderName, err := UniqueDirName(dir, sanitizeName(draft.Name))
		if err != nil {
			return err
		}
		folderPath := filepath.Join(dir, folderName)
		if err := ensureDir(folderPath); err != nil {
			return err
		}

		doc := model.NewDocument(draft, files[0])
		doc.Attachments = []model.Attachment{}
		res := &service.ImportResult{
			RecordPath:  folderPath,
			SidecarPath: sidecar.PathFor(folderPath),
		}

		mode := s.effectiveMode(opts)
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return err
			}

			destName, nameErr := UniqueName(folderPath, filepath.Base(file))
			if nameErr != nil {
				res.Failures = append(res.Failures, service.FileFailure{Path: file, Err: nameErr})
				continue
			}

			size, copyErr := transferFile(file, filepath.Join(folderPath, destName), mode)
			if copyErr != nil {
				slog.Warn("Skipping file that could not be imported",
					"file", file,
					"error", copyErr)
				res.Failures = append(res.Failures, service.FileFailure{Path: file, Err: copyErr})
				continue
			}

			att := model.NewAttachment(destName, size, len(doc.Attachments) == 0)
			att.OriginalFilename = filepath.Base(file)
			doc.Attachments = append(doc.Attachments, att)
			res.Imported = append(res.Imported, file)
		}

		if len(doc.Attachments) == 0 {
			os.Remove(folderPath)
			if len(res.Failures) > 0 {
				return fmt.Errorf("no files could be imported: %w", res.Failures[0].Err)
			}
			return fmt.Errorf("no files could be imported")
		}

		if err := sidecar.Write(res.SidecarPath, doc); err != nil {
			return err
		}

		e := model.NewEntry(doc, folderPath, true)
		entry = &e
		result = res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Imported document folder",
		"path", result.RecordPath,
		"files", len(result.Imported),
		"failed", len(result.Failures))
	return entry, result, nil
}

// appendToRecord adds files as new attachments to an existing record,
// promoting it to a document-folder first if needed.
func (s *Store) appendToRecord(ctx context.Context, files []string, target model.Entry, opts service.ImportOptions) (*model.Entry, *service.ImportResult, error) {
	var entry *model.Entry
	var result *service.ImportResult

	err := s.scope.WithAccess(func(string) error {
		current := target
		if !current.IsFolder {
			promoted, err := s.promote(current)
			if err != nil {
				return err
			}
			current = *promoted
		}

		unlock := s.lockDir(current.Path)
		defer unlock()

		doc := current.Document.Clone()
		res := &service.ImportResult{
			RecordPath:  current.Path,
			SidecarPath: sidecar.PathFor(current.Path),
		}

		mode := s.effectiveMode(opts)
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return err
			}

			destName, nameErr := UniqueName(current.Path, filepath.Base(file))
			if nameErr != nil {
				res.Failures = append(res.Failures, service.FileFailure{Path: file, Err: nameErr})
				continue
			}

			size, copyErr := transferFile(file, filepath.Join(current.Path, destName), mode)
			if copyErr != nil {
				res.Failures = append(res.Failures, service.FileFailure{Path: file, Err: copyErr})
				continue
			}

			att := model.NewAttachment(destName, size, len(doc.Attachments) == 0)
			att.OriginalFilename = filepath.Base(file)
			doc.Attachments = append(doc.Attachments, att)
			res.Imported = append(res.Imported, file)
		}

		if len(res.Imported) > 0 {
			if err := sidecar.Write(res.SidecarPath, doc); err != nil {
				return err
			}
			current.IsPlaceholder = false
		}

		current.Document = doc
		entry = &current
		result = res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Appended attachments",
		"path", result.RecordPath,
		"added", len(result.Imported),
		"failed", len(result.Failures))
	return entry, result, nil
}

// promote converts a single-file record into a document-folder: a new
// folder named after the record, the lone file moved inside, the sidecar
// rewritten at the folder's path. A placeholder has no real file to
// carry over; its marker is deleted instead of moved, leaving an empty
// folder for the incoming attachments. Callers hold the access scope.
func (s *Store) promote(target model.Entry) (*model.Entry, error) {
	dir := filepath.Dir(target.Path)

	unlock := s.lockDir(dir)
	defer unlock()

	folderName, err := UniqueDirName(dir, sanitizeName(target.Document.Name))
	if err != nil {
		return nil, err
	}
	folderPath := filepath.Join(dir, folderName)
	if err := ensureDir(folderPath); err != nil {
		return nil, err
	}

	doc := target.Document.Clone()
	if doc.IsLegacy() {
		doc.MigrateLegacy(filepath.Base(target.Path), fileSize(target.Path))
	}

	if target.IsPlaceholder {
		if err := os.Remove(target.Path); err != nil {
			os.Remove(folderPath)
			return nil, common.WrapIO("remove placeholder marker", target.Path, err)
		}
	} else {
		filename := filepath.Base(target.Path)
		if err := renameEntry(target.Path, filepath.Join(folderPath, filename)); err != nil {
			os.Remove(folderPath)
			return nil, err
		}

		// The physical name inside the folder is the old on-disk name.
		for i := range doc.Attachments {
			if doc.Attachments[i].IsOriginalFile {
				doc.Attachments[i].Filename = filename
				break
			}
		}
	}

	if err := sidecar.Write(sidecar.PathFor(folderPath), doc); err != nil {
		return nil, err
	}
	if err := sidecar.Remove(sidecar.PathFor(target.Path)); err != nil {
		slog.Warn("Failed to remove old sidecar after promotion",
			"path", sidecar.PathFor(target.Path),
			"error", err)
	}

	promoted := target
	promoted.Document = doc
	promoted.Path = folderPath
	promoted.IsFolder = true

	slog.Info("Promoted record to document folder",
		"from", target.Path,
		"to", folderPath)
	return &promoted, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
