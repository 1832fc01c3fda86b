package access

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halewood/shoebox/internal/common"
)

func TestWithAccess_PassesRoot(t *testing.T) {
	scope := NewScope("/storage")

	var got string
	err := scope.WithAccess(func(root string) error {
		got = root
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/storage", got)
	assert.False(t, scope.Revoked())
}

func TestWithAccess_PermissionFailureRevokes(t *testing.T) {
	scope := NewScope("/storage")

	permErr := common.WrapIO("write", "/storage/2024/w2.pdf", fs.ErrPermission)
	err := scope.WithAccess(func(string) error { return permErr })
	require.Error(t, err)
	assert.True(t, common.IsPermission(err))
	assert.True(t, scope.Revoked())

	// Further mutations fail fast without touching the filesystem.
	called := false
	err = scope.WithAccess(func(string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, common.ErrMutationsPaused)
	assert.False(t, called)
}

func TestWithAccess_OrdinaryFailureDoesNotRevoke(t *testing.T) {
	scope := NewScope("/storage")

	err := scope.WithAccess(func(string) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.False(t, scope.Revoked())
}

func TestRestore(t *testing.T) {
	scope := NewScope("/storage")
	require.Error(t, scope.WithAccess(func(string) error {
		return common.WrapIO("write", "/storage", fs.ErrPermission)
	}))
	require.True(t, scope.Revoked())

	scope.Restore("")
	assert.False(t, scope.Revoked())
	assert.Equal(t, "/storage", scope.Root())

	scope.Restore("/new-root")
	assert.Equal(t, "/new-root", scope.Root())
}
