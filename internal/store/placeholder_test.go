package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/sidecar"
)

func TestCreatePlaceholder(t *testing.T) {
	s, root := newTestStore(t)

	entry, err := s.CreatePlaceholder(model.DraftMeta{Name: "Expected 1099", Year: 2024})
	require.NoError(t, err)

	wantPath := filepath.Join(root, "2024", "Expected 1099.placeholder")
	assert.Equal(t, wantPath, entry.Path)
	assert.True(t, entry.IsPlaceholder)
	assert.False(t, entry.IsFolder)

	info, err := os.Stat(wantPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "placeholder file is empty")

	doc, err := sidecar.Read(sidecar.PathFor(wantPath))
	require.NoError(t, err)
	assert.Equal(t, "Expected 1099", doc.Name)
	assert.Equal(t, model.Status("Todo"), doc.Status)
	require.NotNil(t, doc.Attachments)
	assert.Empty(t, doc.Attachments, "placeholder has an explicit empty attachment list")
}

func TestCreatePlaceholder_NameDeduplicated(t *testing.T) {
	s, root := newTestStore(t)

	first, err := s.CreatePlaceholder(model.DraftMeta{Name: "1099", Year: 2024})
	require.NoError(t, err)
	second, err := s.CreatePlaceholder(model.DraftMeta{Name: "1099", Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "2024", "1099.placeholder"), first.Path)
	assert.Equal(t, filepath.Join(root, "2024", "1099-1.placeholder"), second.Path)
}

func TestCreatePlaceholder_SanitizesName(t *testing.T) {
	s, root := newTestStore(t)

	entry, err := s.CreatePlaceholder(model.DraftMeta{Name: "Q1/Q2 estimate", Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024", "Q1-Q2 estimate.placeholder"), entry.Path)
	assert.Equal(t, "Q1/Q2 estimate", entry.Document.Name, "display name keeps the original spelling")
}

func TestCreateBulkPlaceholders(t *testing.T) {
	s, _ := newTestStore(t)

	drafts := []model.DraftMeta{
		{Name: "W-2", Year: 2024},
		{Name: "1099-INT", Year: 2024},
		{Name: "Property tax", Year: 2023},
	}

	entries, result, err := s.CreateBulkPlaceholders(drafts)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Succeeded)
	assert.Empty(t, result.Failures)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.True(t, entry.IsPlaceholder)
		_, statErr := os.Stat(entry.Path)
		assert.NoError(t, statErr)
	}
}

func TestCreateBulkPlaceholders_DuplicateNamesSuffixed(t *testing.T) {
	s, _ := newTestStore(t)

	entries, result, err := s.CreateBulkPlaceholders([]model.DraftMeta{
		{Name: "1099", Year: 2024},
		{Name: "1099", Year: 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].Path, entries[1].Path)
}
