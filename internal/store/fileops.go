package store

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/service"
)

// transferFile copies src to dst, and removes src afterwards in move
// mode. The destination is synced before the source is touched, so a
// failed move never loses the original. Returns the destination size.
func transferFile(src, dst string, mode service.ImportMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, common.WrapIO("open source", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, common.WrapIO("stat source", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, common.WrapIO("create destination", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return 0, common.WrapIO("copy", dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return 0, common.WrapIO("sync", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, common.WrapIO("close", dst, err)
	}

	if mode == service.ModeMove {
		if err := os.Remove(src); err != nil {
			// The copy succeeded; a leftover original is preferable to
			// failing the import.
			slog.Warn("Failed to remove original after move",
				"file", src,
				"error", err)
		}
	}
	return info.Size(), nil
}

// renameEntry moves an entry within the same volume.
func renameEntry(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return common.WrapIO("rename", src, err)
	}
	return nil
}

// removeIfEmpty deletes a directory only when it has no entries left.
func removeIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return common.WrapIO("read directory", dir, err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil {
		return common.WrapIO("remove directory", dir, err)
	}
	return nil
}

// ensureDir creates a directory if needed.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return common.WrapIO("create directory", dir, err)
	}
	return nil
}
