package metadata_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/metadata/metadatatest"
)

const tagField = "Subject"

func setupStore(t *testing.T) (*metadata.Store, *metadatatest.Backend, *media.File) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	sidecar := media.SidecarPath(path)
	require.NoError(t, os.WriteFile(path, []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(sidecar, []byte("xmp"), 0o644))

	backend := metadatatest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return metadata.NewStore(backend, tagField, logger), backend, media.NewFile(path, sidecar)
}

func TestStore_Load(t *testing.T) {
	store, backend, file := setupStore(t)
	backend.Set(file.Path, metadata.Fields{tagField: []string{"from file"}})
	backend.Set(file.Sidecars[0], metadata.Fields{
		tagField:                  []string{"Event|Wedding"},
		metadata.FieldRating:      float64(4),
		metadata.FieldOrientation: float64(6),
	})

	record, err := store.Load(context.Background(), file, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Event|Wedding"}, record.Tags)
	assert.Equal(t, 4, record.Rating)
	assert.Equal(t, 90, record.Rotation)

	record, err = store.Load(context.Background(), file, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"from file"}, record.Tags)
}

func TestStore_Save(t *testing.T) {
	store, backend, file := setupStore(t)
	backend.Set(file.Sidecars[0], metadata.Fields{"Make": "Camera"})

	record := &metadata.Record{Tags: []string{"a", "b"}, Rejected: true, Rotation: 180}
	require.NoError(t, store.Save(context.Background(), file, 1, record))

	fields := backend.Get(file.Sidecars[0])
	assert.Equal(t, []string{"a", "b"}, fields[tagField])
	assert.Equal(t, -1, fields[metadata.FieldRating])
	assert.Equal(t, 3, fields[metadata.FieldOrientation])
	assert.Equal(t, "Camera", fields["Make"])

	loaded, err := store.Load(context.Background(), file, 1)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestStore_Errors(t *testing.T) {
	store, backend, file := setupStore(t)

	_, err := store.Load(context.Background(), file, 2)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	err = store.Save(context.Background(), file, 5, &metadata.Record{})
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	require.NoError(t, os.Remove(file.Sidecars[0]))
	_, err = store.Load(context.Background(), file, 1)
	assert.Equal(t, domainerrors.CodeMetadata, domainerrors.CodeOf(err))

	backend.Failures[file.Path] = errors.New("exiftool crashed")
	_, err = store.Load(context.Background(), file, 0)
	assert.Equal(t, domainerrors.CodeMetadata, domainerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "exiftool crashed")
}
