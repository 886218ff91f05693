// Package session interprets tagging commands against the files of one
// working directory.
//
// A session holds everything that changes while tagging: the active file,
// each file's active metadata source, the last toggled tags and the records
// of the active file. Records are cached per source and dropped whenever the
// active file changes, so at most one file's records are held at a time.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randomchars42/Sortingshop/internal/command"
	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/naming"
	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/tagset"
)

// Deps are the collaborators of a session.
type Deps struct {
	Store    *metadata.Store
	Preparer *prepare.Engine
	Tagsets  *tagset.Tagsets
	Logger   *slog.Logger
}

// Session is the interactive state of one working directory. It is not safe
// for concurrent use.
type Session struct {
	id         string
	workingDir string
	files      []*media.File
	index      int

	cache      map[int]*metadata.Record
	lastToggle []string

	store      *metadata.Store
	preparer   *prepare.Engine
	tagsets    *tagset.Tagsets
	resolver   *naming.Resolver
	hasCounter bool
	logger     *slog.Logger
}

// New creates a session over files, which must be ordered for display.
func New(id, workingDir string, files []*media.File, deps Deps) *Session {
	tagsets := deps.Tagsets
	if tagsets == nil {
		tagsets = tagset.Empty()
	}
	return &Session{
		id:         id,
		workingDir: workingDir,
		files:      files,
		cache:      make(map[int]*metadata.Record),
		store:      deps.Store,
		preparer:   deps.Preparer,
		tagsets:    tagsets,
		resolver:   naming.NewResolver(deps.Preparer.Policy().CounterLength),
		hasCounter: deps.Preparer.Policy().NameHasCounter,
		logger:     deps.Logger.With("session", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// WorkingDir returns the directory the session works on.
func (s *Session) WorkingDir() string {
	return s.workingDir
}

// Files returns the files of the session in display order.
func (s *Session) Files() []*media.File {
	return s.files
}

// Tagsets returns the tagsets the session resolves abbreviations with.
func (s *Session) Tagsets() *tagset.Tagsets {
	return s.tagsets
}

// LastToggle returns the tags of the last toggle.
func (s *Session) LastToggle() []string {
	return append([]string(nil), s.lastToggle...)
}

// Active returns the active file, or nil if the session has no files.
func (s *Session) Active() *media.File {
	if len(s.files) == 0 {
		return nil
	}
	return s.files[s.index]
}

// Run parses line and executes it.
func (s *Session) Run(ctx context.Context, line string) (*Feedback, error) {
	cmd, err := command.Parse(line)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, cmd)
}

// State describes the active file without changing anything.
func (s *Session) State(ctx context.Context) *Feedback {
	return s.feedback(ctx, "")
}

// Execute applies cmd. A failing command leaves the session and the cached
// record as they were.
func (s *Session) Execute(ctx context.Context, cmd command.Command) (*Feedback, error) {
	if _, ok := cmd.(command.Help); ok {
		fb := s.feedback(ctx, "")
		fb.Help = command.HelpEntries()
		return fb, nil
	}

	if s.Active() == nil {
		return nil, domainerrors.NotFound("no media files in the working directory")
	}

	switch c := cmd.(type) {
	case command.Toggle:
		tags := s.tagsets.Expand(c.Args)
		if len(tags) == 0 {
			return nil, domainerrors.Validation("no tags to toggle")
		}
		return s.toggle(ctx, tags)

	case command.Repeat:
		if len(s.lastToggle) == 0 {
			return nil, domainerrors.ErrNoPriorCommand
		}
		return s.toggle(ctx, s.lastToggle)

	case command.Next:
		return s.moveTo(ctx, s.index+1), nil

	case command.Previous:
		return s.moveTo(ctx, s.index-1), nil

	case command.Jump:
		idx, err := s.find(c)
		if err != nil {
			return nil, err
		}
		return s.moveTo(ctx, idx), nil

	case command.Rate:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.SetRating(c.Value)
			return fmt.Sprintf("rated %d", r.Rating)
		})

	case command.Reject:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.Reject()
			return "rejected"
		})

	case command.RotateClockwise:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.Rotate(90)
			return fmt.Sprintf("rotated to %d°", r.Rotation)
		})

	case command.RotateCounterClockwise:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.Rotate(-90)
			return fmt.Sprintf("rotated to %d°", r.Rotation)
		})

	case command.FlipHorizontal:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.ToggleFlipHorizontal()
			return onOff("horizontal flip", r.FlipHorizontal)
		})

	case command.FlipVertical:
		return s.mutate(ctx, func(r *metadata.Record) string {
			r.ToggleFlipVertical()
			return onOff("vertical flip", r.FlipVertical)
		})

	case command.Delete:
		file := s.Active()
		file.MarkedDeleted = !file.MarkedDeleted
		msg := "marked for deletion"
		if !file.MarkedDeleted {
			msg = "deletion mark removed"
		}
		s.logger.Info(msg, "file", file.Name())
		return s.feedback(ctx, msg), nil

	case command.NextSource:
		return s.switchSource(ctx, 1), nil

	case command.PreviousSource:
		return s.switchSource(ctx, -1), nil
	}

	return nil, domainerrors.UnknownCommandf("unsupported command %q", cmd.Directive())
}

func (s *Session) toggle(ctx context.Context, tags []string) (*Feedback, error) {
	fb, err := s.mutate(ctx, func(r *metadata.Record) string {
		added, removed := r.Toggle(tags)
		return describeToggle(added, removed)
	})
	if err != nil {
		return nil, err
	}
	s.lastToggle = append([]string(nil), tags...)
	return fb, nil
}

// mutate loads the active record, applies fn to a copy, saves the copy and
// only then replaces the cached record.
func (s *Session) mutate(ctx context.Context, fn func(*metadata.Record) string) (*Feedback, error) {
	file := s.Active()

	if file.State != media.StatePrepared {
		if err := s.preparer.EnsurePrepared(ctx, file); err != nil {
			return nil, err
		}
		// preparation may rename the file or add a sidecar
		clear(s.cache)
	}

	current, err := s.record(ctx)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	msg := fn(next)
	if err := s.store.Save(ctx, file, file.Source, next); err != nil {
		s.logger.Warn("saving metadata failed", "file", file.Name(), "source", file.Source, "error", err)
		return nil, err
	}
	s.cache[file.Source] = next

	return s.feedbackFor(file, next, msg), nil
}

// record returns the cached record of the active source, loading it on first use.
func (s *Session) record(ctx context.Context) (*metadata.Record, error) {
	file := s.Active()
	if r, ok := s.cache[file.Source]; ok {
		return r, nil
	}
	r, err := s.store.Load(ctx, file, file.Source)
	if err != nil {
		return nil, err
	}
	s.cache[file.Source] = r
	return r, nil
}

// moveTo activates the file at idx, clamped to the file list.
func (s *Session) moveTo(ctx context.Context, idx int) *Feedback {
	idx = max(0, min(idx, len(s.files)-1))
	if idx != s.index {
		s.index = idx
		clear(s.cache)
	}
	return s.feedback(ctx, "")
}

// find resolves a jump target: a 1-based position, an exact file name, or
// the first file whose name contains the argument ignoring case.
func (s *Session) find(jump command.Jump) (int, error) {
	if jump.Position >= 1 && jump.Position <= len(s.files) {
		return jump.Position - 1, nil
	}
	if jump.Name == "" {
		return 0, domainerrors.NotFoundf("no file at position %d of %d", jump.Position, len(s.files))
	}

	for i, file := range s.files {
		if file.Name() == jump.Name {
			return i, nil
		}
	}
	needle := strings.ToLower(jump.Name)
	for i, file := range s.files {
		if strings.Contains(strings.ToLower(file.Name()), needle) {
			return i, nil
		}
	}
	if jump.Position > 0 {
		return 0, domainerrors.NotFoundf("no file at position %d of %d and none matches %q", jump.Position, len(s.files), jump.Name)
	}
	return 0, domainerrors.NotFoundf("no file matches %q", jump.Name)
}

// switchSource moves the active source by delta, clamped to the file and its
// sidecars.
func (s *Session) switchSource(ctx context.Context, delta int) *Feedback {
	file := s.Active()
	file.Source = max(0, min(file.Source+delta, len(file.Sidecars)))
	return s.feedback(ctx, "")
}

// feedback describes the active file, loading its record if needed. A
// record that cannot be read is reported in the message.
func (s *Session) feedback(ctx context.Context, msg string) *Feedback {
	file := s.Active()
	if file == nil {
		return &Feedback{SessionID: s.id, Message: "no media files in the working directory"}
	}

	record, err := s.record(ctx)
	if err != nil {
		s.logger.Warn("loading metadata failed", "file", file.Name(), "source", file.Source, "error", err)
		fb := s.feedbackFor(file, nil, msg)
		fb.Message = strings.TrimSpace(msg + " (metadata unavailable: " + err.Error() + ")")
		return fb
	}
	return s.feedbackFor(file, record, msg)
}

func describeToggle(added, removed []string) string {
	var parts []string
	if len(added) > 0 {
		parts = append(parts, "added "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "removed "+strings.Join(removed, ", "))
	}
	return strings.Join(parts, "; ")
}

func onOff(what string, on bool) string {
	if on {
		return what + " on"
	}
	return what + " off"
}
