package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Walker lists the regular files of a single folder.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{
		logger: logger,
	}
}

// Entry is a file found in a folder.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	// Writable is false when the file cannot be opened for writing.
	Writable bool
}

// List returns the non-hidden regular files of folderPath, non-recursively.
// Entries whose info cannot be read are logged and skipped.
func (w *Walker) List(ctx context.Context, folderPath string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(folderPath, entry.Name())

		info, err := entry.Info()
		if err != nil {
			w.logger.Error("failed to get file info", "path", path, "error", err)
			continue
		}

		entries = append(entries, Entry{
			Path:     path,
			Name:     entry.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Writable: writable(path),
		})
	}

	return entries, nil
}

// writable reports whether path can be opened for writing. The file is not
// modified.
func writable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0) //#nosec G304 -- path comes from listing the working directory
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
