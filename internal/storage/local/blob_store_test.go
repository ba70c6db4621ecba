package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/indexnow-notifier/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "public")
		store, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		assert.NotNil(t, store)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsAFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestPutObject(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)

	t.Run("WritesKeyFile", func(t *testing.T) {
		uri, err := store.PutObject(context.Background(), "abc123.txt", "text/plain", strings.NewReader("abc123\n"))
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.Join(dir, "abc123.txt"), uri)

		// #nosec G304 -- test reads from the controlled temp directory.
		data, err := os.ReadFile(filepath.Join(dir, "abc123.txt"))
		require.NoError(t, err)
		assert.Equal(t, "abc123\n", string(data))
	})

	t.Run("OverwritesExisting", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "k.txt", "", strings.NewReader("old\n"))
		require.NoError(t, err)
		_, err = store.PutObject(context.Background(), "k.txt", "", strings.NewReader("new\n"))
		require.NoError(t, err)
		// #nosec G304 -- test reads from the controlled temp directory.
		data, err := os.ReadFile(filepath.Join(dir, "k.txt"))
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(data))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".indexnow-"), "temp file left behind: %s", e.Name())
		}
	})

	t.Run("NestedPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "a/b/k.txt", "", strings.NewReader("k\n"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "a", "b", "k.txt"))
		require.NoError(t, err)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "", "", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("Traversal", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../escape.txt", "", strings.NewReader("x"))
		assert.ErrorContains(t, err, "escapes base directory")
	})
}
