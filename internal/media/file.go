// Package media models the media files under management and their sidecars.
package media

import (
	"fmt"
	"os"
	"path/filepath"
)

// DeletedDir is the holding directory for files marked as deleted.
const DeletedDir = "deleted"

// State is the processing state of a media file.
type State int

const (
	// StateDiscovered means the file was enumerated but not yet prepared.
	StateDiscovered State = iota
	// StatePrepared means renaming, sidecar creation and pruning are done.
	StatePrepared
	// StatePreparationFailed means a backend step failed during preparation.
	StatePreparationFailed
	// StateDeleted means the file was moved into the deleted directory.
	StateDeleted
	// StateSorted means the file was moved into its sort directory.
	StateSorted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StatePrepared:
		return "prepared"
	case StatePreparationFailed:
		return "preparation_failed"
	case StateDeleted:
		return "deleted"
	case StateSorted:
		return "sorted"
	default:
		return "unknown"
	}
}

// File is one physical asset together with its sidecars.
type File struct {
	// Path is the absolute path of the media file.
	Path string
	// Sidecars are ordered; the order defines navigation among metadata sources.
	Sidecars []string
	State    State
	// Source is the active metadata source: 0 is the file itself, 1..n the sidecars.
	Source int
	// MarkedDeleted requests a move into the deleted directory at batch end.
	MarkedDeleted bool
}

// NewFile creates a file in the discovered state.
func NewFile(path string, sidecars ...string) *File {
	return &File{
		Path:     path,
		Sidecars: append([]string(nil), sidecars...),
		State:    StateDiscovered,
	}
}

// Name returns the file name without directory.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Dir returns the directory containing the file.
func (f *File) Dir() string {
	return filepath.Dir(f.Path)
}

// Sources lists all metadata sources: the file followed by its sidecars.
func (f *File) Sources() []string {
	sources := make([]string, 0, len(f.Sidecars)+1)
	sources = append(sources, f.Path)
	return append(sources, f.Sidecars...)
}

// SourcePath returns the path of the metadata source at index.
func (f *File) SourcePath(index int) (string, bool) {
	if index < 0 || index > len(f.Sidecars) {
		return "", false
	}
	if index == 0 {
		return f.Path, true
	}
	return f.Sidecars[index-1], true
}

// HasSidecar reports whether at least one sidecar is associated.
func (f *File) HasSidecar() bool {
	return len(f.Sidecars) > 0
}

// AddSidecar appends a sidecar to the navigation order.
func (f *File) AddSidecar(path string) {
	f.Sidecars = append(f.Sidecars, path)
}

// InDeletedDir reports whether the file currently lives in a deleted directory.
func (f *File) InDeletedDir() bool {
	return filepath.Base(f.Dir()) == DeletedDir
}

// Exists reports whether the media file is still present on disk.
func (f *File) Exists() bool {
	info, err := os.Stat(f.Path)
	return err == nil && info.Mode().IsRegular()
}

// Move relocates the file and all its sidecars to target, renaming the
// sidecars so they keep matching the media file. Nothing is overwritten: if
// any destination already exists, nothing is moved. A failure halfway rolls
// back the moves already done.
func (f *File) Move(target string) error {
	if filepath.Clean(target) == filepath.Clean(f.Path) {
		return nil
	}

	type step struct{ from, to string }
	steps := []step{{from: f.Path, to: target}}
	for _, sidecar := range f.Sidecars {
		steps = append(steps, step{from: sidecar, to: RelocateSidecar(f.Path, target, sidecar)})
	}

	for _, s := range steps {
		if _, err := os.Lstat(s.to); err == nil {
			return fmt.Errorf("move %s: destination %s already exists", filepath.Base(s.from), s.to)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(target), err)
	}

	for i, s := range steps {
		if err := os.Rename(s.from, s.to); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = os.Rename(steps[j].to, steps[j].from)
			}
			return fmt.Errorf("move %s to %s: %w", s.from, s.to, err)
		}
	}

	f.Path = target
	for i := range f.Sidecars {
		f.Sidecars[i] = steps[i+1].to
	}
	return nil
}
