// Package prepare brings media files into a canonical, taggable state:
// renamed after their metadata, accompanied by a sidecar, pruned of fields
// that would conflict between file and sidecar, and carrying the default
// tagset.
package prepare

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/randomchars42/Sortingshop/internal/config"
	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/naming"
	"github.com/randomchars42/Sortingshop/internal/tagset"
)

// Policy decides which preparation steps run. It is immutable once built.
type Policy struct {
	RenameFiles        bool
	UseSidecar         bool
	SoftCheck          bool
	PruneMetadata      bool
	ApplyDefaultTagset bool
	// DetectScheme matches names that are already in the canonical form.
	DetectScheme *regexp.Regexp
	// RenameTemplate is handed to the backend to propose a new stem.
	RenameTemplate  string
	MandatoryFields []string
	RemoveFields    []string
	CounterLength   int
	// NameHasCounter makes every renamed file carry a counter.
	NameHasCounter bool
}

// NewPolicy derives the policy from the configuration.
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		RenameFiles:        cfg.Renaming.RenameFiles,
		UseSidecar:         cfg.Metadata.UseSidecar,
		SoftCheck:          cfg.Metadata.SoftCheck,
		PruneMetadata:      cfg.Metadata.PruneMetadata,
		ApplyDefaultTagset: cfg.Metadata.ApplyDefaultTagset,
		DetectScheme:       cfg.Renaming.DetectScheme,
		RenameTemplate:     cfg.Renaming.RenameCommand,
		MandatoryFields:    append([]string(nil), cfg.Metadata.MandatoryMetadata...),
		RemoveFields:       append([]string(nil), cfg.Metadata.RemoveMetadata...),
		CounterLength:      cfg.Renaming.CounterLength,
		NameHasCounter:     cfg.Renaming.NameHasCounter,
	}
}

// Engine prepares files according to a policy.
type Engine struct {
	policy   Policy
	store    *metadata.Store
	backend  metadata.Backend
	tagsets  *tagset.Tagsets
	resolver *naming.Resolver
	logger   *slog.Logger
}

// NewEngine creates a preparation engine. tagsets may be nil.
func NewEngine(policy Policy, store *metadata.Store, tagsets *tagset.Tagsets, logger *slog.Logger) *Engine {
	if tagsets == nil {
		tagsets = tagset.Empty()
	}
	return &Engine{
		policy:   policy,
		store:    store,
		backend:  store.Backend(),
		tagsets:  tagsets,
		resolver: naming.NewResolver(policy.CounterLength),
		logger:   logger,
	}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// IsPrepared reports whether renaming and sidecar creation can be skipped:
// the name matches the detection scheme (or renaming is off) and a sidecar
// exists (or sidecars are off).
func (e *Engine) IsPrepared(file *media.File) bool {
	named := !e.policy.RenameFiles ||
		(e.policy.DetectScheme != nil && e.policy.DetectScheme.MatchString(file.Name()))
	sidecar := !e.policy.UseSidecar || file.HasSidecar()
	return named && sidecar
}

// PrepareFile runs all preparation steps on one file. On failure the file is
// marked as failed and the error is a metadata or collision error.
func (e *Engine) PrepareFile(ctx context.Context, file *media.File) error {
	_, err := e.prepare(ctx, file)
	return err
}

// EnsurePrepared prepares file unless that already happened.
func (e *Engine) EnsurePrepared(ctx context.Context, file *media.File) error {
	if file.State == media.StatePrepared {
		return nil
	}
	return e.PrepareFile(ctx, file)
}

// outcome describes what prepare did to a file.
type outcome struct {
	skipped bool
	from    string
}

func (e *Engine) prepare(ctx context.Context, file *media.File) (outcome, error) {
	// A started file always runs to completion; backend calls stay bounded
	// by the backend's own timeout.
	ctx = context.WithoutCancel(ctx)
	out := outcome{from: file.Path}
	log := e.logger.With("file", file.Name())

	fail := func(err error) (outcome, error) {
		file.State = media.StatePreparationFailed
		log.Warn("preparation failed", "error", err)
		return out, err
	}

	out.skipped = e.policy.SoftCheck && e.IsPrepared(file)
	if !out.skipped {
		if e.policy.RenameFiles {
			if err := e.rename(ctx, file); err != nil {
				return fail(err)
			}
		}
		if e.policy.UseSidecar && !file.HasSidecar() {
			if err := e.createSidecar(ctx, file); err != nil {
				return fail(err)
			}
		}
	}

	if e.policy.UseSidecar && file.HasSidecar() && file.Source == 0 {
		file.Source = 1
	}

	if e.policy.PruneMetadata {
		if err := e.prune(ctx, file); err != nil {
			return fail(err)
		}
	}

	if e.policy.ApplyDefaultTagset {
		if err := e.applyDefaultTagset(ctx, file); err != nil {
			return fail(err)
		}
	}

	file.State = media.StatePrepared
	log.Debug("file prepared", "skipped", out.skipped, "sidecars", len(file.Sidecars))
	return out, nil
}

// rename asks the backend for a new stem and moves the file and its sidecars.
func (e *Engine) rename(ctx context.Context, file *media.File) error {
	stem, err := e.backend.ProposeName(ctx, file.Path, e.policy.RenameTemplate)
	if err != nil {
		return asMetadataError(err, "propose name for %s", file.Name())
	}

	ext := strings.ToLower(filepath.Ext(file.Name()))
	candidate := stem + ext
	if e.policy.NameHasCounter && naming.SplitCounter(candidate).Counter == "" {
		candidate = naming.Split(candidate).WithCounter(1, e.resolver.CounterLength).String()
	}

	inDirs := naming.InDirs(siblingDirs(file), file.Sources()...)
	taken := func(name string) bool {
		return inDirs(name) || inDirs(name+media.SidecarExt)
	}

	name, err := e.resolver.Resolve(candidate, e.policy.NameHasCounter, taken)
	if err != nil {
		return err
	}
	if name == file.Name() {
		return nil
	}

	from := file.Name()
	if err := file.Move(filepath.Join(file.Dir(), name)); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "rename %s", from)
	}
	e.logger.Info("renamed", "from", from, "to", name)
	return nil
}

func (e *Engine) createSidecar(ctx context.Context, file *media.File) error {
	target := media.NextSidecarPath(file.Path)
	if err := e.backend.CreateSidecar(ctx, file.Path, target, e.policy.MandatoryFields); err != nil {
		return asMetadataError(err, "create sidecar for %s", file.Name())
	}
	file.AddSidecar(target)
	e.logger.Info("sidecar created", "file", file.Name(), "sidecar", filepath.Base(target))
	return nil
}

// prune removes the configured fields from the file and, when sidecars are
// in use, from every sidecar.
func (e *Engine) prune(ctx context.Context, file *media.File) error {
	if len(e.policy.RemoveFields) == 0 {
		return nil
	}

	targets := []string{file.Path}
	if e.policy.UseSidecar {
		targets = append(targets, file.Sidecars...)
	}
	for _, target := range targets {
		if err := e.backend.Remove(ctx, target, e.policy.RemoveFields); err != nil {
			return asMetadataError(err, "prune %s", filepath.Base(target))
		}
	}
	return nil
}

// applyDefaultTagset adds the ALL_PICTURES tags to the active source. Tags
// already present stay.
func (e *Engine) applyDefaultTagset(ctx context.Context, file *media.File) error {
	tags, ok := e.tagsets.Default()
	if !ok || len(tags) == 0 {
		return nil
	}

	record, err := e.store.Load(ctx, file, file.Source)
	if err != nil {
		return err
	}
	if added := record.Ensure(tags); len(added) == 0 {
		return nil
	}
	return e.store.Save(ctx, file, file.Source, record)
}

// siblingDirs returns the directories whose names count as taken for file:
// its own directory and its working directory's deleted/ counterpart.
func siblingDirs(file *media.File) []string {
	dir := file.Dir()
	if file.InDeletedDir() {
		return []string{dir, filepath.Dir(dir)}
	}
	return []string{dir, filepath.Join(dir, media.DeletedDir)}
}

func asMetadataError(err error, format string, args ...any) error {
	if domainerrors.CodeOf(err) == domainerrors.CodeMetadata {
		return err
	}
	return domainerrors.Wrapf(err, domainerrors.CodeMetadata, format, args...)
}

// Renamed records a file that got a new name.
type Renamed struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Failure records a file that could not be prepared.
type Failure struct {
	File  string            `json:"file"`
	Code  domainerrors.Code `json:"code"`
	Error string            `json:"error"`
}

// Report summarizes a batch preparation. Paths are the files' final paths.
type Report struct {
	Prepared []string  `json:"prepared"`
	Skipped  []string  `json:"skipped"`
	Renamed  []Renamed `json:"renamed"`
	Failed   []Failure `json:"failed"`
	// Interrupted is set when the context ended before all files were seen.
	Interrupted bool `json:"interrupted"`
}

// Prepare prepares every file in order. A failing file does not stop the
// batch; cancellation does, between files.
func (e *Engine) Prepare(ctx context.Context, files []*media.File) Report {
	var report Report
	for _, file := range files {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		out, err := e.prepare(ctx, file)
		if err != nil {
			report.Failed = append(report.Failed, Failure{
				File:  file.Path,
				Code:  domainerrors.CodeOf(err),
				Error: err.Error(),
			})
			continue
		}

		if out.from != file.Path {
			report.Renamed = append(report.Renamed, Renamed{From: out.from, To: file.Path})
		}
		if out.skipped {
			report.Skipped = append(report.Skipped, file.Path)
		} else {
			report.Prepared = append(report.Prepared, file.Path)
		}
	}

	e.logger.Info("preparation finished",
		"prepared", len(report.Prepared),
		"skipped", len(report.Skipped),
		"renamed", len(report.Renamed),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return report
}
