package media

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSidecar(t *testing.T) {
	assert.True(t, IsSidecar("a.jpg.xmp"))
	assert.True(t, IsSidecar("a.jpg.XMP"))
	assert.False(t, IsSidecar("a.jpg"))
	assert.False(t, IsSidecar("xmp"))
}

func TestSidecarPaths(t *testing.T) {
	assert.Equal(t, "/w/a.jpg.xmp", SidecarPath("/w/a.jpg"))
	assert.Equal(t, filepath.Join("/w", "a_01.jpg.xmp"), NumberedSidecarPath("/w/a.jpg", 1))
	assert.Equal(t, filepath.Join("/w", "a_12.jpg.xmp"), NumberedSidecarPath("/w/a.jpg", 12))
}

func TestNextSidecarPath(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "a.jpg")

	assert.Equal(t, media+".xmp", NextSidecarPath(media))

	touch(t, media+".xmp")
	assert.Equal(t, filepath.Join(dir, "a_01.jpg.xmp"), NextSidecarPath(media))

	touch(t, filepath.Join(dir, "a_01.jpg.xmp"))
	assert.Equal(t, filepath.Join(dir, "a_02.jpg.xmp"), NextSidecarPath(media))
}

func TestSidecarParent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "IMG_001.jpg"))

	tests := []struct {
		sidecar     string
		wantParent  string
		wantCounter string
		wantOK      bool
	}{
		{"a.jpg.xmp", "a.jpg", "", true},
		{"a_01.jpg.xmp", "a.jpg", "01", true},
		{"IMG_001.jpg.xmp", "IMG_001.jpg", "", true},
		{"IMG_001_02.jpg.xmp", "IMG_001.jpg", "02", true},
		{"b.jpg.xmp", "", "", false},
		{"b_01.jpg.xmp", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.sidecar, func(t *testing.T) {
			parent, counter, ok := SidecarParent(filepath.Join(dir, tt.sidecar))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, filepath.Join(dir, tt.wantParent), parent)
			}
			assert.Equal(t, tt.wantCounter, counter)
		})
	}
}

func TestRelocateSidecar(t *testing.T) {
	tests := []struct {
		name    string
		sidecar string
		want    string
	}{
		{"primary", "/w/a.jpg.xmp", "/s/b.jpg.xmp"},
		{"numbered", "/w/a_01.jpg.xmp", "/s/b_01.jpg.xmp"},
		{"foreign name", "/w/other.xmp", "/s/other.xmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelocateSidecar("/w/a.jpg", "/s/b.jpg", tt.sidecar))
		})
	}
}
