// Package service combines the session, preparation and sorting engines into
// the operations the presentation layers offer.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/randomchars42/Sortingshop/internal/id"
	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
)

// Shop serializes all operations on one working directory. The console and
// the HTTP surface may share it.
type Shop struct {
	mu       sync.Mutex
	session  *session.Session
	preparer *prepare.Engine
	sorter   *sorter.Engine
	logger   *slog.Logger
}

// NewShop creates the service.
func NewShop(sess *session.Session, preparer *prepare.Engine, sorter *sorter.Engine, logger *slog.Logger) *Shop {
	return &Shop{
		session:  sess,
		preparer: preparer,
		sorter:   sorter,
		logger:   logger,
	}
}

// SessionID returns the identifier of the session.
func (s *Shop) SessionID() string {
	return s.session.ID()
}

// State describes the active file.
func (s *Shop) State(ctx context.Context) *session.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State(ctx)
}

// Run executes one command line.
func (s *Shop) Run(ctx context.Context, line string) (*session.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb, err := s.session.Run(ctx, line)
	if err != nil {
		s.logger.Debug("command failed", "line", line, "error", err)
		return nil, err
	}
	return fb, nil
}

// Prepare prepares all files of the session.
func (s *Shop) Prepare(ctx context.Context) prepare.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.batchLogger("prepare")
	report := s.preparer.Prepare(ctx, s.session.Files())
	log.Info("batch done",
		"prepared", len(report.Prepared),
		"skipped", len(report.Skipped),
		"renamed", len(report.Renamed),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return report
}

// Finalize applies the deletion marks.
func (s *Shop) Finalize(ctx context.Context) session.FinalizeReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalize(ctx, s.batchLogger("finalize"))
}

func (s *Shop) finalize(ctx context.Context, log *slog.Logger) session.FinalizeReport {
	report := s.session.Finalize(ctx)
	log.Info("deletion marks applied",
		"deleted", len(report.Deleted),
		"restored", len(report.Restored),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return report
}

// Sort moves the prepared files into their sort directories. Deletion marks
// are applied first so marked files never end up sorted.
func (s *Shop) Sort(ctx context.Context) (session.FinalizeReport, sorter.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.batchLogger("sort")
	finalized := s.finalize(ctx, log)
	if finalized.Interrupted {
		return finalized, sorter.Report{Interrupted: true}
	}

	report := s.sorter.Sort(ctx, s.session.Files())
	log.Info("batch done",
		"sorted", len(report.Sorted),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
		"interrupted", report.Interrupted)
	return finalized, report
}

// batchLogger tags the log lines of one batch operation.
func (s *Shop) batchLogger(operation string) *slog.Logger {
	return s.logger.With("batch", id.MustGenerate(id.PrefixBatch), "operation", operation)
}

// Tagset is one abbreviation and the tags it expands to.
type Tagset struct {
	Abbreviation string   `json:"abbreviation"`
	Tags         []string `json:"tags"`
}

// Tagsets lists the tagsets of the session ordered by abbreviation.
func (s *Shop) Tagsets() []Tagset {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := s.session.Tagsets()
	out := make([]Tagset, 0, sets.Len())
	for _, key := range sets.Keys() {
		tags, _ := sets.Lookup(key)
		out = append(out, Tagset{Abbreviation: key, Tags: tags})
	}
	return out
}

// Summary counts the files of the session by state.
type Summary struct {
	SessionID  string         `json:"session_id"`
	WorkingDir string         `json:"working_dir"`
	Files      int            `json:"files"`
	States     map[string]int `json:"states"`
	// Pending counts deletion marks not applied yet.
	Pending int `json:"pending_deletions"`
}

// Summary returns counts over the session's files.
func (s *Shop) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := s.session.Files()
	summary := Summary{
		SessionID:  s.session.ID(),
		WorkingDir: s.session.WorkingDir(),
		Files:      len(files),
		States:     make(map[string]int),
	}
	for _, f := range files {
		summary.States[f.State.String()]++
		if f.MarkedDeleted && !f.InDeletedDir() {
			summary.Pending++
		}
	}
	return summary
}
