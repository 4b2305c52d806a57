package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	t.Run("creates with mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "www.key")

		require.NoError(t, WriteFile(path, []byte("key"), 0600))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "key", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("narrows a wider existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "www.key")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		require.NoError(t, os.Chmod(path, 0644))

		require.NoError(t, WriteFile(path, []byte("new"), 0600))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("leftover temp file does not leak its mode", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "www.key")
		stale := path + ".tmp"
		require.NoError(t, os.WriteFile(stale, []byte("stale"), 0644))
		require.NoError(t, os.Chmod(stale, 0644))

		require.NoError(t, WriteFile(path, []byte("key"), 0600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		data, err := os.ReadFile(stale)
		require.NoError(t, err)
		assert.Equal(t, "stale", string(data))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "inventory.json")

		require.NoError(t, WriteFile(path, []byte("{}"), 0600))
		require.NoError(t, WriteFile(path, []byte("{\"version\":1}"), 0600))

		entries, err := os.ReadDir(tmpDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "inventory.json", entries[0].Name())
	})

	t.Run("missing directory fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "no", "such", "dir", "www.key")
		require.Error(t, WriteFile(path, []byte("key"), 0600))
	})
}
