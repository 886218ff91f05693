package session

import (
	"github.com/randomchars42/Sortingshop/internal/command"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
)

// Feedback is what the presentation layer shows after a command.
type Feedback struct {
	SessionID string `json:"session_id"`
	File      string `json:"file,omitempty"`
	Path      string `json:"path,omitempty"`
	// Position is 1-based.
	Position   int    `json:"position"`
	Total      int    `json:"total"`
	State      string `json:"state,omitempty"`
	Source     int    `json:"source"`
	Sources    int    `json:"sources"`
	SourcePath string `json:"source_path,omitempty"`

	Tags           []string `json:"tags"`
	Rating         int      `json:"rating"`
	Rejected       bool     `json:"rejected"`
	Rotation       int      `json:"rotation"`
	FlipHorizontal bool     `json:"flip_horizontal"`
	FlipVertical   bool     `json:"flip_vertical"`
	MarkedDeleted  bool     `json:"marked_deleted"`

	Message string              `json:"message,omitempty"`
	Help    []command.HelpEntry `json:"help,omitempty"`
}

// feedbackFor describes file with record, which may be nil.
func (s *Session) feedbackFor(file *media.File, record *metadata.Record, msg string) *Feedback {
	sourcePath, _ := file.SourcePath(file.Source)
	fb := &Feedback{
		SessionID:     s.id,
		File:          file.Name(),
		Path:          file.Path,
		Position:      s.index + 1,
		Total:         len(s.files),
		State:         file.State.String(),
		Source:        file.Source,
		Sources:       len(file.Sidecars) + 1,
		SourcePath:    sourcePath,
		Tags:          []string{},
		MarkedDeleted: file.MarkedDeleted,
		Message:       msg,
	}
	if record != nil {
		fb.Tags = append(fb.Tags, record.Tags...)
		fb.Rating = record.Rating
		fb.Rejected = record.Rejected
		fb.Rotation = record.Rotation
		fb.FlipHorizontal = record.FlipHorizontal
		fb.FlipVertical = record.FlipVertical
	}
	return fb
}
