package metadata

import (
	"context"
	"log/slog"
	"os"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/media"
)

// Store loads and saves records of a media file's metadata sources.
type Store struct {
	backend  Backend
	tagField string
	logger   *slog.Logger
}

// NewStore creates a store reading tags from tagField.
func NewStore(backend Backend, tagField string, logger *slog.Logger) *Store {
	return &Store{
		backend:  backend,
		tagField: tagField,
		logger:   logger,
	}
}

// TagField returns the field tags are read from and written to.
func (s *Store) TagField() string {
	return s.tagField
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Load reads the record of source (0 = the file, 1..n = its sidecars).
func (s *Store) Load(ctx context.Context, file *media.File, source int) (*Record, error) {
	path, err := s.sourcePath(file, source)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeMetadata, "cannot read metadata of %s", path)
	}

	fields, err := s.backend.Read(ctx, path)
	if err != nil {
		return nil, asMetadataError(err, "read metadata of %s", path)
	}

	record := RecordFromFields(fields, s.tagField)
	s.logger.Debug("loaded metadata", "path", path, "tags", len(record.Tags), "rating", record.Rating)
	return record, nil
}

// Save writes the whole record back to source. The target must exist.
func (s *Store) Save(ctx context.Context, file *media.File, source int, record *Record) error {
	path, err := s.sourcePath(file, source)
	if err != nil {
		return err
	}

	if err := s.backend.Write(ctx, path, record.Fields(s.tagField)); err != nil {
		return asMetadataError(err, "write metadata of %s", path)
	}

	s.logger.Debug("saved metadata", "path", path, "tags", len(record.Tags))
	return nil
}

func (s *Store) sourcePath(file *media.File, source int) (string, error) {
	path, ok := file.SourcePath(source)
	if !ok {
		return "", domainerrors.NotFoundf("%s has no metadata source %d", file.Name(), source)
	}
	return path, nil
}

// asMetadataError keeps coded errors from the backend and wraps everything
// else as a metadata error.
func asMetadataError(err error, format string, args ...any) error {
	if domainerrors.CodeOf(err) == domainerrors.CodeMetadata {
		return err
	}
	return domainerrors.Wrapf(err, domainerrors.CodeMetadata, format, args...)
}
