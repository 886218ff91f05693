package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata/metadatatest"
)

func TestDelete_DeferredUntilFinalize(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg")
	original := f.files[0].Path
	sidecar := f.sidecar(0)

	fb := f.run(t, "d")
	assert.True(t, fb.MarkedDeleted)
	assert.FileExists(t, original)
	assert.FileExists(t, sidecar)

	report := f.session.Finalize(context.Background())
	require.Empty(t, report.Failed)

	deleted := filepath.Join(f.dir, media.DeletedDir, "a.jpg")
	assert.Equal(t, []Move{{From: original, To: deleted}}, report.Deleted)
	assert.NoFileExists(t, original)
	assert.NoFileExists(t, sidecar)
	assert.FileExists(t, deleted)
	assert.FileExists(t, deleted+".xmp")
	assert.Equal(t, media.StateDeleted, f.files[0].State)
	assert.Equal(t, []string{deleted + ".xmp"}, f.files[0].Sidecars)
	assert.FileExists(t, f.files[1].Path)
}

func TestDelete_ToggledOffBeforeFinalize(t *testing.T) {
	f := newFixture(t, "a.jpg")
	f.run(t, "d")
	fb := f.run(t, "d")
	assert.False(t, fb.MarkedDeleted)

	report := f.session.Finalize(context.Background())
	assert.Empty(t, report.Deleted)
	assert.FileExists(t, f.files[0].Path)
}

func TestFinalize_RestoresUnmarkedFiles(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, filepath.Join(dir, media.DeletedDir, "a.jpg"))
	file := media.NewFile(path, touch(t, path+".xmp"))
	file.MarkedDeleted = true
	f := &fixture{dir: dir, backend: metadatatest.New(), files: []*media.File{file}}
	f.session = newSession(dir, f.files, f.backend, defaultPolicy(), nil)

	fb := f.run(t, "d")
	assert.False(t, fb.MarkedDeleted)

	report := f.session.Finalize(context.Background())
	restored := filepath.Join(dir, "a.jpg")
	assert.Equal(t, []Move{{From: path, To: restored}}, report.Restored)
	assert.FileExists(t, restored)
	assert.FileExists(t, restored+".xmp")
}

func TestFinalize_NeverOverwrites(t *testing.T) {
	f := newFixture(t, "a.jpg")
	occupied := touch(t, filepath.Join(f.dir, media.DeletedDir, "a.jpg"))

	f.run(t, "d")
	report := f.session.Finalize(context.Background())
	require.Empty(t, report.Failed)

	want := filepath.Join(f.dir, media.DeletedDir, "a_001.jpg")
	assert.Equal(t, want, f.files[0].Path)
	assert.FileExists(t, occupied)
	assert.FileExists(t, want+".xmp")
}

func TestFinalize_CollisionsFollowCounterPolicy(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, filepath.Join(dir, "20200101_120000_001.jpg"))
	file := media.NewFile(path, touch(t, path+".xmp"))
	file.State = media.StatePrepared
	file.Source = 1
	touch(t, filepath.Join(dir, media.DeletedDir, "20200101_120000_001.jpg"))

	policy := defaultPolicy()
	policy.NameHasCounter = true
	f := &fixture{dir: dir, backend: metadatatest.New(), files: []*media.File{file}}
	f.session = newSession(dir, f.files, f.backend, policy, nil)

	f.run(t, "d")
	report := f.session.Finalize(context.Background())
	require.Empty(t, report.Failed)

	want := filepath.Join(dir, media.DeletedDir, "20200101_120000_002.jpg")
	assert.Equal(t, want, file.Path)
	assert.FileExists(t, want+".xmp")
}

func TestFinalize_Interrupted(t *testing.T) {
	f := newFixture(t, "a.jpg")
	f.run(t, "d")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.session.Finalize(ctx)
	assert.True(t, report.Interrupted)
	assert.FileExists(t, f.files[0].Path)
}
