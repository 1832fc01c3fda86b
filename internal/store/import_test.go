package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halewood/shoebox/internal/access"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/registry"
	"github.com/Halewood/shoebox/internal/service"
	"github.com/Halewood/shoebox/internal/sidecar"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	reg, err := registry.Load(filepath.Join(t.TempDir(), "statuses.json"))
	require.NoError(t, err)
	return New(access.NewScope(root), reg, service.ModeCopy), root
}

func sourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImport_SingleFile(t *testing.T) {
	s, root := newTestStore(t)
	src := sourceFile(t, "W2 Acme.pdf", "pdf bytes")

	entry, result, err := s.Import(context.Background(), []string{src},
		model.DraftMeta{Name: "W-2 Acme", Year: 2024}, service.ImportOptions{})
	require.NoError(t, err)

	wantPath := filepath.Join(root, "2024", "W2 Acme.pdf")
	assert.Equal(t, wantPath, entry.Path)
	assert.False(t, entry.IsFolder)
	assert.Equal(t, []string{src}, result.Imported)
	assert.Empty(t, result.Failures)

	// Physical file landed and the source is untouched in copy mode.
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
	_, err = os.Stat(src)
	assert.NoError(t, err)

	// Sidecar is complete.
	doc, err := sidecar.Read(result.SidecarPath)
	require.NoError(t, err)
	assert.Equal(t, "W-2 Acme", doc.Name)
	assert.Equal(t, model.Status("Todo"), doc.Status, "default status applied")
	assert.Equal(t, src, doc.SourcePath)
	require.Len(t, doc.Attachments, 1)
	assert.Equal(t, "W2 Acme.pdf", doc.Attachments[0].Filename)
	assert.Equal(t, "W2 Acme.pdf", doc.Attachments[0].OriginalFilename)
	assert.Equal(t, int64(len("pdf bytes")), doc.Attachments[0].FileSize)
	assert.True(t, doc.Attachments[0].IsOriginalFile)
}

func TestImport_MoveMode(t *testing.T) {
	s, root := newTestStore(t)
	src := sourceFile(t, "receipt.pdf", "bytes")

	mode := service.ModeMove
	_, _, err := s.Import(context.Background(), []string{src},
		model.DraftMeta{Year: 2024}, service.ImportOptions{Mode: &mode})
	require.NoError(t, err)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "move removes the source")
	_, err = os.Stat(filepath.Join(root, "2024", "receipt.pdf"))
	assert.NoError(t, err)
}

func TestImport_NameDefaultsFromFile(t *testing.T) {
	s, _ := newTestStore(t)
	src := sourceFile(t, "bank statement.pdf", "x")

	entry, _, err := s.Import(context.Background(), []string{src},
		model.DraftMeta{Year: 2024}, service.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "bank statement", entry.Document.Name)
}

func TestImport_CollidingNamesDeduplicated(t *testing.T) {
	s, root := newTestStore(t)

	var imported []string
	for _, content := range []string{"first", "second", "third"} {
		src := sourceFile(t, "receipt.pdf", content)
		entry, _, err := s.Import(context.Background(), []string{src},
			model.DraftMeta{Year: 2024}, service.ImportOptions{})
		require.NoError(t, err)
		imported = append(imported, filepath.Base(entry.Path))
	}
	assert.Equal(t, []string{"receipt.pdf", "receipt-1.pdf", "receipt-2.pdf"}, imported)

	entries, err := os.ReadDir(filepath.Join(root, "2024"))
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if !sidecar.IsSidecar(e.Name()) {
			names = append(names, e.Name())
		}
	}
	assert.ElementsMatch(t, []string{"receipt.pdf", "receipt-1.pdf", "receipt-2.pdf"}, names)

	// Every record kept its own content.
	data, err := os.ReadFile(filepath.Join(root, "2024", "receipt-2.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "third", string(data))
}

func TestImport_MultiFileCreatesFolder(t *testing.T) {
	s, root := newTestStore(t)
	first := sourceFile(t, "statement.pdf", "aaa")
	second := sourceFile(t, "appraisal.pdf", "bb")

	entry, result, err := s.Import(context.Background(), []string{first, second},
		model.DraftMeta{Name: "Mortgage docs", Year: 2024}, service.ImportOptions{})
	require.NoError(t, err)

	folder := filepath.Join(root, "2024", "Mortgage docs")
	assert.Equal(t, folder, entry.Path)
	assert.True(t, entry.IsFolder)
	assert.Len(t, result.Imported, 2)

	doc, err := sidecar.Read(sidecar.PathFor(folder))
	require.NoError(t, err)
	require.Len(t, doc.Attachments, 2)
	assert.True(t, doc.Attachments[0].IsOriginalFile, "first successful file is the original")
	assert.False(t, doc.Attachments[1].IsOriginalFile)

	for _, att := range doc.Attachments {
		_, err := os.Stat(filepath.Join(folder, att.Filename))
		assert.NoError(t, err)
	}
}

func TestImport_MultiFilePartialFailure(t *testing.T) {
	s, root := newTestStore(t)
	good := sourceFile(t, "statement.pdf", "aaa")
	missing := filepath.Join(t.TempDir(), "gone.pdf")

	entry, result, err := s.Import(context.Background(), []string{good, missing},
		model.DraftMeta{Name: "Partial", Year: 2024}, service.ImportOptions{})
	require.NoError(t, err, "one failed file does not abort the batch")

	assert.Equal(t, []string{good}, result.Imported)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, missing, result.Failures[0].Path)

	doc, err := sidecar.Read(sidecar.PathFor(filepath.Join(root, "2024", "Partial")))
	require.NoError(t, err)
	assert.Len(t, doc.Attachments, 1, "sidecar reflects only successful files")
	_ = entry
}

func TestImport_MultiFileAllFail(t *testing.T) {
	s, root := newTestStore(t)
	missing1 := filepath.Join(t.TempDir(), "a.pdf")
	missing2 := filepath.Join(t.TempDir(), "b.pdf")

	_, _, err := s.Import(context.Background(), []string{missing1, missing2},
		model.DraftMeta{Name: "Nothing", Year: 2024}, service.ImportOptions{})
	require.Error(t, err)

	// The provisional folder was cleaned up.
	_, statErr := os.Stat(filepath.Join(root, "2024", "Nothing"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestImport_NoFiles(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.Import(context.Background(), nil, model.DraftMeta{}, service.ImportOptions{})
	assert.Error(t, err)
}

func TestImport_AppendPromotesSingleFileRecord(t *testing.T) {
	s, root := newTestStore(t)

	src := sourceFile(t, "w2.pdf", "page one")
	entry, _, err := s.Import(context.Background(), []string{src},
		model.DraftMeta{Name: "W-2 Acme", Year: 2024}, service.ImportOptions{})
	require.NoError(t, err)

	extra := sourceFile(t, "correction.pdf", "page two")
	updated, result, err := s.Import(context.Background(), []string{extra},
		model.DraftMeta{}, service.ImportOptions{Target: entry})
	require.NoError(t, err)

	folder := filepath.Join(root, "2024", "W-2 Acme")
	assert.Equal(t, folder, updated.Path)
	assert.True(t, updated.IsFolder)
	assert.Len(t, result.Imported, 1)

	// The original file moved inside; the old flat record is gone.
	_, err = os.Stat(filepath.Join(folder, "w2.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "2024", "w2.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "2024", "w2.pdf.meta.json"))
	assert.True(t, os.IsNotExist(err), "old sidecar removed after promotion")

	doc, err := sidecar.Read(sidecar.PathFor(folder))
	require.NoError(t, err)
	require.Len(t, doc.Attachments, 2)
	assert.Equal(t, "w2.pdf", doc.Attachments[0].Filename)
	assert.True(t, doc.Attachments[0].IsOriginalFile)
	assert.Equal(t, "correction.pdf", doc.Attachments[1].Filename)
	assert.False(t, doc.Attachments[1].IsOriginalFile)

	// Metadata survived the promotion.
	assert.Equal(t, "W-2 Acme", doc.Name)
}

func TestImport_AppendFillsPlaceholder(t *testing.T) {
	s, root := newTestStore(t)

	placeholder, err := s.CreatePlaceholder(model.DraftMeta{Name: "Expected 1099", Year: 2024})
	require.NoError(t, err)

	src := sourceFile(t, "1099-int.pdf", "interest")
	updated, result, err := s.Import(context.Background(), []string{src},
		model.DraftMeta{}, service.ImportOptions{Target: placeholder})
	require.NoError(t, err)

	folder := filepath.Join(root, "2024", "Expected 1099")
	assert.Equal(t, folder, updated.Path)
	assert.False(t, updated.IsPlaceholder, "a record with a real file is no longer a placeholder")
	assert.Len(t, result.Imported, 1)

	// The zero-byte marker and its sidecar are gone, wherever they were.
	_, err = os.Stat(filepath.Join(root, "2024", "Expected 1099.placeholder"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(folder, "Expected 1099.placeholder"))
	assert.True(t, os.IsNotExist(err), "marker must not travel into the folder")
	_, err = os.Stat(sidecar.PathFor(filepath.Join(root, "2024", "Expected 1099.placeholder")))
	assert.True(t, os.IsNotExist(err))

	doc, err := sidecar.Read(sidecar.PathFor(folder))
	require.NoError(t, err)
	require.Len(t, doc.Attachments, 1)
	assert.Equal(t, "1099-int.pdf", doc.Attachments[0].Filename)
	assert.True(t, doc.Attachments[0].IsOriginalFile, "first real file becomes the original")

	assert.Equal(t, "Expected 1099", doc.Name)
}

func TestImport_AppendToFolder(t *testing.T) {
	s, _ := newTestStore(t)

	first := sourceFile(t, "a.pdf", "a")
	second := sourceFile(t, "b.pdf", "b")
	entry, _, err := s.Import(context.Background(), []string{first, second},
		model.DraftMeta{Name: "Bundle", Year: 2024}, service.ImportOptions{})
	require.NoError(t, err)

	// Appending a file whose name collides gets a deduplicated name.
	dup := sourceFile(t, "a.pdf", "another a")
	updated, result, err := s.Import(context.Background(), []string{dup},
		model.DraftMeta{}, service.ImportOptions{Target: entry})
	require.NoError(t, err)

	assert.Len(t, result.Imported, 1)
	require.Len(t, updated.Document.Attachments, 3)
	assert.Equal(t, "a-1.pdf", updated.Document.Attachments[2].Filename)
	assert.Equal(t, "a.pdf", updated.Document.Attachments[2].OriginalFilename)
}

func TestImport_RevokedScopeFailsFast(t *testing.T) {
	root := t.TempDir()
	reg, err := registry.Load(filepath.Join(t.TempDir(), "statuses.json"))
	require.NoError(t, err)

	scope := access.NewScope(root)
	s := New(scope, reg, service.ModeCopy)

	// Simulate a prior permission failure.
	require.Error(t, scope.WithAccess(func(string) error {
		return os.ErrPermission
	}))

	src := sourceFile(t, "w2.pdf", "x")
	_, _, err = s.Import(context.Background(), []string{src},
		model.DraftMeta{Year: 2024}, service.ImportOptions{})
	require.Error(t, err)

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no writes while access is revoked")
}
