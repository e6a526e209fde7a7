package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := NewFileTokenStore(dir)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc.def.ghi"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
