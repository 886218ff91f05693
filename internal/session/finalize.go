package session

import (
	"context"
	"path/filepath"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/naming"
)

// Move records a file moved by Finalize.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Failure records a file Finalize could not move.
type Failure struct {
	File  string            `json:"file"`
	Code  domainerrors.Code `json:"code"`
	Error string            `json:"error"`
}

// FinalizeReport summarizes the deletion moves at batch end.
type FinalizeReport struct {
	Deleted     []Move    `json:"deleted"`
	Restored    []Move    `json:"restored"`
	Failed      []Failure `json:"failed"`
	Interrupted bool      `json:"interrupted"`
}

// Finalize applies deletion marks: marked files move with their sidecars
// into the deleted directory, unmarked files found there move back into the
// working directory. Files are never overwritten; a taken name gets a
// counter.
func (s *Session) Finalize(ctx context.Context) FinalizeReport {
	var report FinalizeReport
	deletedDir := filepath.Join(s.workingDir, media.DeletedDir)

	for _, file := range s.files {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		var target string
		switch {
		case file.MarkedDeleted && !file.InDeletedDir():
			target = deletedDir
		case !file.MarkedDeleted && file.InDeletedDir():
			target = s.workingDir
		default:
			continue
		}

		from := file.Path
		if err := s.relocate(file, target); err != nil {
			s.logger.Warn("moving file failed", "file", file.Name(), "target", target, "error", err)
			report.Failed = append(report.Failed, Failure{
				File:  from,
				Code:  domainerrors.CodeOf(err),
				Error: err.Error(),
			})
			continue
		}

		move := Move{From: from, To: file.Path}
		if target == deletedDir {
			file.State = media.StateDeleted
			report.Deleted = append(report.Deleted, move)
		} else {
			report.Restored = append(report.Restored, move)
		}
	}

	clear(s.cache)
	s.logger.Info("deletions applied",
		"deleted", len(report.Deleted),
		"restored", len(report.Restored),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return report
}

// relocate moves file and its sidecars into dir under the first free name.
func (s *Session) relocate(file *media.File, dir string) error {
	inDirs := naming.InDirs([]string{dir}, file.Sources()...)
	taken := func(name string) bool {
		return inDirs(name) || inDirs(name+media.SidecarExt)
	}

	name, err := s.resolver.Resolve(file.Name(), s.hasCounter, taken)
	if err != nil {
		return err
	}
	if err := file.Move(filepath.Join(dir, name)); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "move %s", file.Name())
	}
	return nil
}
