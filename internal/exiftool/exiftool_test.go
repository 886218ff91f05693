package exiftool

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/metadata"
)

// fakeBinary writes a shell script standing in for exiftool.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "exiftool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestProposeName(t *testing.T) {
	bin := fakeBinary(t, `echo "20200101_120000"`)
	b := New(bin, time.Second, logger.Discard().Logger)

	stem, err := b.ProposeName(context.Background(), touch(t, t.TempDir(), "IMG_1.JPG"), "${DateTimeOriginal}")
	require.NoError(t, err)
	assert.Equal(t, "20200101_120000", stem)
}

func TestProposeName_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "empty output", script: "true"},
		{name: "path output", script: `echo "a/b"`},
		{name: "tool failure", script: `echo "Error: unknown tag" >&2; exit 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(fakeBinary(t, tt.script), time.Second, logger.Discard().Logger)
			_, err := b.ProposeName(context.Background(), touch(t, t.TempDir(), "a.jpg"), "$X")
			require.Error(t, err)
			assert.Equal(t, domainerrors.CodeMetadata, domainerrors.CodeOf(err))
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	b := New(fakeBinary(t, "exec sleep 5"), 100*time.Millisecond, logger.Discard().Logger)

	start := time.Now()
	_, err := b.ProposeName(context.Background(), touch(t, t.TempDir(), "a.jpg"), "$X")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCreateSidecar_WithoutFields(t *testing.T) {
	dir := t.TempDir()
	b := New(fakeBinary(t, "exit 1"), time.Second, logger.Discard().Logger)
	source := touch(t, dir, "a.jpg")
	target := source + ".xmp"

	require.NoError(t, b.CreateSidecar(context.Background(), source, target, nil))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x:xmpmeta")

	err = b.CreateSidecar(context.Background(), source, target, nil)
	assert.Equal(t, domainerrors.CodeMetadata, domainerrors.CodeOf(err))
}

func TestCreateSidecar_Arguments(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	bin := fakeBinary(t, `printf '%s\n' "$@" > `+argsFile)
	b := New(bin, time.Second, logger.Discard().Logger)

	source := touch(t, dir, "a.jpg")
	require.NoError(t, b.CreateSidecar(context.Background(), source, source+".xmp", []string{"DateTimeOriginal", "Make"}))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t,
		"-q\n-o\n"+source+".xmp\n-tagsFromFile\n"+source+"\n-DateTimeOriginal\n-Make\n"+source+"\n",
		string(data))
}

func TestCall_MissingFile(t *testing.T) {
	b := New("exiftool", time.Second, logger.Discard().Logger)
	_, err := b.Read(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeMetadata, domainerrors.CodeOf(err))
}

func TestToFileMetadata(t *testing.T) {
	fm := toFileMetadata("/p/a.jpg", metadata.Fields{
		"HierarchicalSubject": []string{"Event|Wedding", "People|Anna"},
		"Subject":             []string{},
		"Rating":              -1,
		"Orientation#":        6,
		"Title":               "Beach",
	})

	assert.Equal(t, "/p/a.jpg", fm.File)
	assert.Equal(t, []any{"Event|Wedding", "People|Anna"}, fm.Fields["HierarchicalSubject"])
	assert.Nil(t, fm.Fields["Subject"])
	assert.Contains(t, fm.Fields, "Subject")
	assert.EqualValues(t, -1, fm.Fields["Rating"])
	assert.EqualValues(t, 6, fm.Fields["Orientation#"])
	assert.Equal(t, "Beach", fm.Fields["Title"])
}

func TestCheckStem(t *testing.T) {
	assert.NoError(t, checkStem("20200101_120000"))
	assert.Error(t, checkStem(""))
	assert.Error(t, checkStem(".."))
	assert.Error(t, checkStem(`a\b`))
}

// TestBackend_RoundTrip exercises the real tool when it is installed.
func TestBackend_RoundTrip(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	dir := t.TempDir()
	b := New("exiftool", 10*time.Second, logger.Discard().Logger)
	t.Cleanup(func() { _ = b.Close() })

	sidecar := filepath.Join(dir, "a.jpg.xmp")
	require.NoError(t, os.WriteFile(sidecar, []byte(emptySidecar), 0o644))

	ctx := context.Background()
	require.NoError(t, b.Write(ctx, sidecar, metadata.Fields{
		"HierarchicalSubject": []string{"Event|Wedding", "People|Anna"},
		"Rating":              3,
	}))

	fields, err := b.Read(ctx, sidecar)
	require.NoError(t, err)
	assert.Equal(t, []string{"Event|Wedding", "People|Anna"}, fields.Strings("HierarchicalSubject"))
	rating, ok := fields.Int("Rating")
	require.True(t, ok)
	assert.Equal(t, 3, rating)

	require.NoError(t, b.Remove(ctx, sidecar, []string{"Rating"}))
	fields, err = b.Read(ctx, sidecar)
	require.NoError(t, err)
	_, ok = fields.Int("Rating")
	assert.False(t, ok)
}
