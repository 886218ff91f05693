// Package scanner enumerates the media files of a working directory together
// with their sidecars.
//
// The working directory and its deleted subdirectory are listed as one
// collection ordered by file name, so moving a file into or out of deleted/
// keeps its position.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
)

// Scanner finds media files and attaches their sidecars.
type Scanner struct {
	walker     *Walker
	extensions []string
	logger     *slog.Logger
}

// Result is the outcome of a scan.
type Result struct {
	// Files are ordered by name regardless of the folder they live in.
	Files []*media.File
	// Orphans are sidecars without a media file.
	Orphans []string
	// Inaccessible are media files and sidecars that cannot be written.
	Inaccessible []string
	// Duplicates are names present both in the working directory and in
	// deleted/. Only the copy in the working directory is listed.
	Duplicates []string
}

// New creates a scanner accepting the given lower-case extensions (".jpg").
func New(extensions []string, logger *slog.Logger) *Scanner {
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &Scanner{
		walker:     NewWalker(logger),
		extensions: exts,
		logger:     logger,
	}
}

// IsMedia reports whether name carries one of the accepted extensions.
func (s *Scanner) IsMedia(name string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(name)))
}

// Scan lists dir and dir/deleted.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domainerrors.NotFoundf("no such directory %s", dir)
		}
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "access %s", dir)
	}
	if !info.IsDir() {
		return nil, domainerrors.NotFoundf("%s is not a directory", dir)
	}

	folders := []string{dir}
	deletedDir := filepath.Join(dir, media.DeletedDir)
	if info, err := os.Stat(deletedDir); err == nil && info.IsDir() {
		folders = append(folders, deletedDir)
	}

	result := &Result{}
	byName := make(map[string]*media.File)
	shadowed := make(map[string]bool)
	var sidecars []Entry

	for _, folder := range folders {
		entries, err := s.walker.List(ctx, folder)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "list %s", folder)
		}

		for _, entry := range entries {
			isSidecar := media.IsSidecar(entry.Name)
			if !isSidecar && !s.IsMedia(entry.Name) {
				continue
			}
			if !entry.Writable {
				result.Inaccessible = append(result.Inaccessible, entry.Path)
				continue
			}
			if isSidecar {
				sidecars = append(sidecars, entry)
				continue
			}

			if existing, ok := byName[entry.Name]; ok {
				s.logger.Warn("same file name in working directory and deleted directory",
					"file", entry.Name, "kept", existing.Path, "ignored", entry.Path)
				result.Duplicates = append(result.Duplicates, entry.Name)
				shadowed[entry.Path] = true
				continue
			}

			file := media.NewFile(entry.Path)
			file.MarkedDeleted = folder == deletedDir
			byName[entry.Name] = file
		}
	}

	slices.SortFunc(sidecars, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	for _, sidecar := range sidecars {
		parent, _, ok := media.SidecarParent(sidecar.Path)
		if ok && shadowed[parent] {
			continue
		}
		file, found := byName[filepath.Base(parent)]
		if !ok || !found || file.Path != parent {
			s.logger.Warn("sidecar without media file", "sidecar", sidecar.Path)
			result.Orphans = append(result.Orphans, sidecar.Path)
			continue
		}
		file.AddSidecar(sidecar.Path)
	}

	result.Files = make([]*media.File, 0, len(byName))
	for _, file := range byName {
		result.Files = append(result.Files, file)
	}
	slices.SortFunc(result.Files, func(a, b *media.File) int { return strings.Compare(a.Name(), b.Name()) })

	s.logger.Info("scan complete",
		"dir", dir,
		"files", len(result.Files),
		"orphans", len(result.Orphans),
		"inaccessible", len(result.Inaccessible),
		"duplicates", len(result.Duplicates))

	return result, nil
}
