package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestUniqueName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		desired  string
		want     string
	}{
		{
			name:    "free name unchanged",
			desired: "receipt.pdf",
			want:    "receipt.pdf",
		},
		{
			name:     "suffix before extension",
			existing: []string{"receipt.pdf"},
			desired:  "receipt.pdf",
			want:     "receipt-1.pdf",
		},
		{
			name:     "counter keeps climbing",
			existing: []string{"receipt.pdf", "receipt-1.pdf"},
			desired:  "receipt.pdf",
			want:     "receipt-2.pdf",
		},
		{
			name:     "no extension",
			existing: []string{"README"},
			desired:  "README",
			want:     "README-1",
		},
		{
			name:     "placeholder marker stays outermost",
			existing: []string{"1099.pdf.placeholder"},
			desired:  "1099.pdf.placeholder",
			want:     "1099-1.pdf.placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.existing {
				touch(t, filepath.Join(dir, name))
			}
			got, err := UniqueName(dir, tt.desired)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUniqueName_ReservedBySidecar(t *testing.T) {
	dir := t.TempDir()
	// Only the sidecar exists; the name is still taken, a new file named
	// receipt.pdf would adopt a stranger's metadata.
	touch(t, filepath.Join(dir, "receipt.pdf.meta.json"))

	got, err := UniqueName(dir, "receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "receipt-1.pdf", got)
}

func TestUniqueName_ReservedByEvictionMarker(t *testing.T) {
	dir := t.TempDir()
	// The real file is offloaded; only its marker remains. The name must
	// not be reused.
	touch(t, filepath.Join(dir, ".receipt.pdf.icloud"))

	got, err := UniqueName(dir, "receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "receipt-1.pdf", got)
}

func TestUniqueDirName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		desired  string
		want     string
	}{
		{
			name:    "free name unchanged",
			desired: "Mortgage docs",
			want:    "Mortgage docs",
		},
		{
			name:     "suffix after whole name",
			existing: []string{"Mortgage docs"},
			desired:  "Mortgage docs",
			want:     "Mortgage docs-1",
		},
		{
			name:     "dotted name not split",
			existing: []string{"Tax Docs 2.0"},
			desired:  "Tax Docs 2.0",
			want:     "Tax Docs 2.0-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.existing {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o750))
			}
			got, err := UniqueDirName(dir, tt.desired)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "W-2 Acme", want: "W-2 Acme"},
		{input: "a/b\\c:d", want: "a-b-c-d"},
		{input: "..hidden", want: "hidden"},
		{input: "   ", want: "Document"},
		{input: "...", want: "Document"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.input), "sanitizeName(%q)", tt.input)
	}
}
