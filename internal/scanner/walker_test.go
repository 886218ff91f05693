package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomchars42/Sortingshop/internal/logger"
)

func TestWalker_List(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, ".b.jpg"))
	touch(t, filepath.Join(dir, "nested", "c.jpg"))

	entries, err := NewWalker(logger.Discard().Logger).List(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "a.jpg", entries[0].Name)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), entries[0].Path)
	assert.EqualValues(t, 1, entries[0].Size)
	assert.True(t, entries[0].Writable)
	assert.False(t, entries[0].ModTime.IsZero())
}

func TestWalker_List_EmptyDirectory(t *testing.T) {
	entries, err := NewWalker(logger.Discard().Logger).List(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWalker_List_MissingDirectory(t *testing.T) {
	_, err := NewWalker(logger.Discard().Logger).List(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
