package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// isolate points the user config at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return home
}

func writeINI(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	wd := t.TempDir()

	cfg, err := Load([]string{wd}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, wd, cfg.Paths.WorkingDir)
	assert.Empty(t, cfg.Paths.Tagsets)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".cr2", ".tif", ".tiff"}, cfg.Paths.MediaExtensions)
	assert.True(t, cfg.Renaming.RenameFiles)
	assert.Equal(t, 3, cfg.Renaming.CounterLength)
	assert.Equal(t, "HierarchicalSubject", cfg.Metadata.FieldTags)
	assert.Equal(t, []string{"DateTimeOriginal", "CreateDate", "Make", "Model"}, cfg.Metadata.MandatoryMetadata)
	assert.Equal(t, "HierarchicalSubject", cfg.Sorting.SortingField)
	assert.Equal(t, filepath.Dir(wd), cfg.Sorting.TargetDir)
	assert.Equal(t, 30*time.Second, cfg.Exiftool.Timeout)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, "127.0.0.1:8642", cfg.Server.Listen)

	require.NotNil(t, cfg.Renaming.DetectScheme)
	assert.True(t, cfg.Renaming.DetectScheme.MatchString("20200101_120000.jpg"))
	assert.True(t, cfg.Renaming.DetectScheme.MatchString("20200101_120000_002.jpg"))
	assert.False(t, cfg.Renaming.DetectScheme.MatchString("IMG_0001.JPG"))

	require.NotNil(t, cfg.Sorting.SortingTagRegex)
	assert.Equal(t, `\1`, cfg.Sorting.SortingTagSub)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	writeINI(t, path, `
[Paths]
working_dir = `+dir+`
path_tagsets = `+filepath.Join(dir, "tagsets")+`

[Renaming]
rename_files = no
counter_length = 4

[Metadata]
field_tags = XMP:HierarchicalSubject
use_sidecar = off
remove_metadata = XMP:Subject IPTC:Keywords

[Sorting]
sorting_tag_regex = ^Event\|(.+)$
target_dir = `+filepath.Join(dir, "sorted")+`
`)

	cfg, err := Load([]string{"-config", path}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Paths.WorkingDir)
	assert.Equal(t, filepath.Join(dir, "tagsets"), cfg.Paths.Tagsets)
	assert.False(t, cfg.Renaming.RenameFiles)
	assert.Equal(t, 4, cfg.Renaming.CounterLength)
	assert.False(t, cfg.Metadata.UseSidecar)
	assert.Equal(t, []string{"XMP:Subject", "IPTC:Keywords"}, cfg.Metadata.RemoveMetadata)
	assert.Equal(t, "XMP:HierarchicalSubject", cfg.Sorting.SortingField)
	assert.Equal(t, filepath.Join(dir, "sorted"), cfg.Sorting.TargetDir)
	assert.True(t, cfg.Sorting.SortingTagRegex.MatchString("Event|Wedding"))
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()

	explicit := filepath.Join(dir, "config.ini")
	writeINI(t, explicit, "[Renaming]\ncounter_length = 2\n[App]\nlog_level = error\n")

	// The user config overrides the explicit file.
	writeINI(t, filepath.Join(home, "sortingshop", "config.ini"), "[Renaming]\ncounter_length = 5\n")

	cfg, err := Load([]string{"-config", explicit, dir}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Renaming.CounterLength)
	assert.Equal(t, "error", cfg.App.LogLevel)

	// Environment overrides both files.
	t.Setenv("SORTINGSHOP_RENAMING_COUNTER_LENGTH", "6")
	t.Setenv("SORTINGSHOP_APP_LOG_LEVEL", "warn")
	cfg, err = Load([]string{"-config", explicit, dir}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Renaming.CounterLength)
	assert.Equal(t, "warn", cfg.App.LogLevel)

	// Flags override the environment.
	cfg, err = Load([]string{"-config", explicit, "-log-level", "DEBUG", "-serve", dir}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.Server.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		args []string
	}{
		{name: "malformed boolean", ini: "[Metadata]\nuse_sidecar = maybe\n"},
		{name: "malformed integer", ini: "[Renaming]\ncounter_length = three\n"},
		{name: "counter too long", ini: "[Renaming]\ncounter_length = 12\n"},
		{name: "malformed duration", ini: "[Exiftool]\ntimeout = soon\n"},
		{name: "malformed regexp", ini: "[Sorting]\nsorting_tag_regex = ([0-9\n"},
		{name: "empty sort regexp", ini: "[Sorting]\nsorting_tag_regex =\n"},
		{name: "unknown environment", ini: "[App]\nenvironment = staging\n"},
		{name: "empty tag field", ini: "[Metadata]\nfield_tags =\n"},
		{name: "no media extensions", ini: "[Paths]\nmedia_extensions =\n"},
		{name: "missing config file", args: []string{"-config", "/nonexistent/config.ini"}},
		{name: "unknown flag", args: []string{"-frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			args := tt.args
			if tt.ini != "" {
				path := filepath.Join(dir, "config.ini")
				writeINI(t, path, tt.ini)
				args = []string{"-config", path, dir}
			}

			_, err := Load(args, io.Discard)
			require.Error(t, err)
			assert.Equal(t, domainerrors.CodeConfig, domainerrors.CodeOf(err))
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/pictures", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "pictures"), got)

	got, err = expandPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
