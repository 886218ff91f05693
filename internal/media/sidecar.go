package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/randomchars42/Sortingshop/internal/naming"
)

// SidecarExt is the extension appended to a media file's name to form its sidecar.
const SidecarExt = ".xmp"

// sidecarCounterWidth is the width of counters of additional sidecars (image_01.jpg.xmp).
const sidecarCounterWidth = 2

// IsSidecar reports whether path names a sidecar file.
func IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SidecarExt)
}

// SidecarPath returns the primary sidecar path of a media file: image.jpg -> image.jpg.xmp.
func SidecarPath(mediaPath string) string {
	return mediaPath + SidecarExt
}

// NumberedSidecarPath returns the path of an additional sidecar:
// image.jpg, 1 -> image_01.jpg.xmp.
func NumberedSidecarPath(mediaPath string, counter int) string {
	dir, name := filepath.Split(mediaPath)
	n := naming.Split(name)
	n.Counter = naming.Pad(counter, sidecarCounterWidth)
	return filepath.Join(dir, n.String()+SidecarExt)
}

// NextSidecarPath returns the first sidecar path for mediaPath that does not exist yet.
func NextSidecarPath(mediaPath string) string {
	candidate := SidecarPath(mediaPath)
	if !exists(candidate) {
		return candidate
	}
	for counter := 1; counter < 100; counter++ {
		candidate = NumberedSidecarPath(mediaPath, counter)
		if !exists(candidate) {
			return candidate
		}
	}
	return candidate
}

// SidecarParent finds the media file a sidecar belongs to. Sidecars are named
// either parent.SUFFIX.xmp or parent_COUNTER.SUFFIX.xmp. The returned counter
// is empty for the first form.
func SidecarParent(sidecarPath string) (parent, counter string, ok bool) {
	dir := filepath.Dir(sidecarPath)
	base := filepath.Base(sidecarPath)
	stripped := base[:len(base)-len(filepath.Ext(base))]

	candidate := filepath.Join(dir, stripped)
	if exists(candidate) {
		return candidate, "", true
	}

	n := naming.SplitCounter(stripped)
	if n.Counter == "" {
		return "", "", false
	}
	candidate = filepath.Join(dir, n.Stem+n.Suffix)
	if exists(candidate) {
		return candidate, n.Counter, true
	}
	return "", "", false
}

// RelocateSidecar computes where a sidecar goes when its media file moves
// from oldMedia to newMedia, keeping a sidecar counter if it had one.
func RelocateSidecar(oldMedia, newMedia, sidecar string) string {
	if sidecar == SidecarPath(oldMedia) {
		return SidecarPath(newMedia)
	}

	oldName := naming.Split(filepath.Base(oldMedia))
	sidecarBase := filepath.Base(sidecar)
	prefix := oldName.Stem + naming.Separator
	wantSuffix := oldName.Suffix + SidecarExt
	if strings.HasPrefix(sidecarBase, prefix) && strings.HasSuffix(sidecarBase, wantSuffix) {
		counter := strings.TrimSuffix(strings.TrimPrefix(sidecarBase, prefix), wantSuffix)
		newName := naming.Split(filepath.Base(newMedia))
		newName.Counter = counter
		return filepath.Join(filepath.Dir(newMedia), newName.String()+SidecarExt)
	}

	return filepath.Join(filepath.Dir(newMedia), sidecarBase)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
