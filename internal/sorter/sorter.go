package sorter

import (
	"context"
	"log/slog"
	"path/filepath"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/naming"
)

// Reasons a file is skipped.
const (
	ReasonNotPrepared   = "not prepared"
	ReasonDeleted       = "marked for deletion"
	ReasonAlreadySorted = "already sorted"
	ReasonNoMatchingTag = "no matching tag"
)

// Move records a sorted file.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
	Key  string `json:"key"`
}

// Skip records a file left where it is.
type Skip struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Failure records a file that could not be sorted.
type Failure struct {
	File  string            `json:"file"`
	Code  domainerrors.Code `json:"code"`
	Error string            `json:"error"`
}

// Report summarizes a sort run.
type Report struct {
	Sorted      []Move    `json:"sorted"`
	Skipped     []Skip    `json:"skipped"`
	Failed      []Failure `json:"failed"`
	Interrupted bool      `json:"interrupted"`
}

// Engine sorts files into subdirectories of a root directory.
type Engine struct {
	rule     Rule
	root     string
	backend  metadata.Backend
	resolver *naming.Resolver
	logger   *slog.Logger

	// hasCounter makes collisions count up a trailing counter in place, as
	// renaming does.
	hasCounter bool
}

// NewEngine creates a sort engine moving files below root. Name collisions
// resolve like renaming does: counterLength digits, and with hasCounter set
// an existing counter is counted up instead of appending a second one.
func NewEngine(rule Rule, root string, backend metadata.Backend, counterLength int, hasCounter bool, logger *slog.Logger) *Engine {
	return &Engine{
		rule:       rule,
		root:       root,
		backend:    backend,
		resolver:   naming.NewResolver(counterLength),
		hasCounter: hasCounter,
		logger:     logger,
	}
}

// Root returns the directory sort directories are created in.
func (e *Engine) Root() string {
	return e.root
}

// Sort moves every prepared, non-deleted file with a matching tag into
// root/<key>/ together with its sidecars. A failing file does not stop the
// run; cancellation does, between files.
func (e *Engine) Sort(ctx context.Context, files []*media.File) Report {
	var report Report
	for _, file := range files {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		if reason := skipReason(file); reason != "" {
			report.Skipped = append(report.Skipped, Skip{File: file.Path, Reason: reason})
			continue
		}

		from := file.Path
		key, err := e.sortFile(ctx, file)
		switch {
		case err != nil:
			e.logger.Warn("sorting failed", "file", file.Name(), "error", err)
			report.Failed = append(report.Failed, Failure{
				File:  from,
				Code:  domainerrors.CodeOf(err),
				Error: err.Error(),
			})
		case key == "":
			report.Skipped = append(report.Skipped, Skip{File: from, Reason: ReasonNoMatchingTag})
		default:
			report.Sorted = append(report.Sorted, Move{From: from, To: file.Path, Key: key})
		}
	}

	e.logger.Info("sorting finished",
		"root", e.root,
		"sorted", len(report.Sorted),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return report
}

// sortFile moves file into the directory of its key. An empty key means no
// tag matched and nothing was moved.
func (e *Engine) sortFile(ctx context.Context, file *media.File) (string, error) {
	ctx = context.WithoutCancel(ctx)
	source, ok := file.SourcePath(file.Source)
	if !ok {
		source = file.Path
	}

	fields, err := e.backend.Read(ctx, source)
	if err != nil {
		if domainerrors.CodeOf(err) == domainerrors.CodeMetadata {
			return "", err
		}
		return "", domainerrors.Wrapf(err, domainerrors.CodeMetadata, "read tags of %s", file.Name())
	}

	key, ok := e.rule.Key(fields.Strings(e.rule.Field))
	if !ok {
		return "", nil
	}

	dir := filepath.Join(e.root, key)
	inDirs := naming.InDirs([]string{dir}, file.Sources()...)
	taken := func(name string) bool {
		return inDirs(name) || inDirs(name+media.SidecarExt)
	}

	name, err := e.resolver.Resolve(file.Name(), e.hasCounter, taken)
	if err != nil {
		return "", err
	}

	from := file.Name()
	if err := file.Move(filepath.Join(dir, name)); err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeInternal, "move %s", from)
	}
	file.State = media.StateSorted
	e.logger.Debug("sorted", "file", from, "key", key, "to", file.Path)
	return key, nil
}

func skipReason(file *media.File) string {
	switch {
	case file.State == media.StateSorted:
		return ReasonAlreadySorted
	case file.MarkedDeleted || file.State == media.StateDeleted || file.InDeletedDir():
		return ReasonDeleted
	case file.State != media.StatePrepared:
		return ReasonNotPrepared
	}
	return ""
}
