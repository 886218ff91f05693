// Package exiftool implements the metadata backend on top of the exiftool
// command-line program.
//
// Reads, writes and removals go through one long-running exiftool process
// (-stay_open). Name proposals and sidecar creation need options the
// long-running process does not offer and run a one-shot process each.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goexiftool "github.com/barasher/go-exiftool"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/metadata"
)

// DefaultTimeout bounds every call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// emptySidecar is written when a sidecar is created without seeded fields.
const emptySidecar = `<?xpacket begin='' id='W5M0MpCehiHzreSzNTczkc9d'?>
<x:xmpmeta xmlns:x='adobe:ns:meta/'>
<rdf:RDF xmlns:rdf='http://www.w3.org/1999/02/22-rdf-syntax-ns#'>
</rdf:RDF>
</x:xmpmeta>
<?xpacket end='w'?>
`

// Backend talks to exiftool. It is safe for use by one goroutine at a time
// per call; concurrent calls are serialized.
type Backend struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	process *goexiftool.Exiftool
}

var _ metadata.Backend = (*Backend)(nil)

// New creates a backend running binary. The long-running process is started
// on first use.
func New(binary string, timeout time.Duration, logger *slog.Logger) *Backend {
	if binary == "" {
		binary = "exiftool"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Backend{
		binary:  binary,
		timeout: timeout,
		logger:  logger,
	}
}

// Close stops the long-running process.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.process == nil {
		return nil
	}
	err := b.process.Close()
	b.process = nil
	return err
}

// Read implements metadata.Backend.
func (b *Backend) Read(ctx context.Context, path string) (metadata.Fields, error) {
	var fields metadata.Fields
	err := b.call(ctx, "read", path, func(et *goexiftool.Exiftool) error {
		results := et.ExtractMetadata(path)
		if len(results) == 0 {
			return errors.New("no result")
		}
		if results[0].Err != nil {
			return results[0].Err
		}
		fields = metadata.Fields(results[0].Fields)
		delete(fields, "SourceFile")
		return nil
	})
	return fields, err
}

// Write implements metadata.Backend.
func (b *Backend) Write(ctx context.Context, path string, fields metadata.Fields) error {
	fm := toFileMetadata(path, fields)
	return b.call(ctx, "write", path, func(et *goexiftool.Exiftool) error {
		batch := []goexiftool.FileMetadata{fm}
		et.WriteMetadata(batch)
		return batch[0].Err
	})
}

// Remove implements metadata.Backend.
func (b *Backend) Remove(ctx context.Context, path string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	fm := goexiftool.EmptyFileMetadata()
	fm.File = path
	for _, name := range names {
		fm.Clear(name)
	}
	return b.call(ctx, "remove fields of", path, func(et *goexiftool.Exiftool) error {
		batch := []goexiftool.FileMetadata{fm}
		et.WriteMetadata(batch)
		return batch[0].Err
	})
}

// ProposeName implements metadata.Backend by printing template with -p.
func (b *Backend) ProposeName(ctx context.Context, path, template string) (string, error) {
	out, err := b.run(ctx, "-q", "-q", "-p", template, path)
	if err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeMetadata, "propose name for %s", path)
	}

	stem, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	stem = strings.TrimSpace(stem)
	if err := checkStem(stem); err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeMetadata, "propose name for %s", path)
	}
	return stem, nil
}

// CreateSidecar implements metadata.Backend. The sidecar receives copies of
// fields taken from source.
func (b *Backend) CreateSidecar(ctx context.Context, source, target string, fields []string) error {
	if _, err := os.Lstat(target); err == nil {
		return domainerrors.Metadataf("sidecar %s already exists", target)
	}

	if len(fields) == 0 {
		if err := os.WriteFile(target, []byte(emptySidecar), 0o644); err != nil { //nolint:gosec // sidecars are as readable as the media files
			return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "create sidecar %s", target)
		}
		return nil
	}

	args := []string{"-q", "-o", target, "-tagsFromFile", source}
	for _, field := range fields {
		args = append(args, "-"+field)
	}
	args = append(args, source)

	if _, err := b.run(ctx, args...); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "create sidecar %s", target)
	}
	return nil
}

// call runs fn against the long-running process, bounded by the timeout.
// A call that times out leaves the process in an unknown state, so it is
// discarded and restarted on the next call.
func (b *Backend) call(ctx context.Context, op, path string, fn func(et *goexiftool.Exiftool) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "%s %s", op, path)
	}

	et, err := b.ensureProcess()
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "start %s", b.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(et) }()

	select {
	case err := <-done:
		if err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "%s %s", op, path)
		}
		return nil
	case <-ctx.Done():
		b.logger.Warn("exiftool call abandoned, restarting process", "op", op, "file", path, "error", ctx.Err())
		b.process = nil
		go func() { _ = et.Close() }()
		return domainerrors.Wrapf(ctx.Err(), domainerrors.CodeMetadata, "%s %s", op, path)
	}
}

func (b *Backend) ensureProcess() (*goexiftool.Exiftool, error) {
	if b.process != nil {
		return b.process, nil
	}

	et, err := goexiftool.NewExiftool(
		goexiftool.SetExiftoolBinaryPath(b.binary),
		goexiftool.NoPrintConversion(),
		goexiftool.Charset("filename=utf8"),
	)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("exiftool process started", "binary", b.binary)
	b.process = et
	return et, nil
}

// run executes a one-shot exiftool process and returns its standard output.
func (b *Backend) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.binary, args...) //nolint:gosec // binary comes from the user's configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out after %s: %w", filepath.Base(b.binary), b.timeout, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", filepath.Base(b.binary), err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", filepath.Base(b.binary), err, msg)
	}
	return stdout.Bytes(), nil
}

// toFileMetadata converts fields into a write request. Empty lists clear the
// field.
func toFileMetadata(path string, fields metadata.Fields) goexiftool.FileMetadata {
	fm := goexiftool.EmptyFileMetadata()
	fm.File = path

	for key, value := range fields {
		switch v := value.(type) {
		case nil:
			fm.Clear(key)
		case []string:
			if len(v) == 0 {
				fm.Clear(key)
			} else {
				fm.SetStrings(key, v)
			}
		case string:
			fm.SetString(key, v)
		case int:
			fm.SetInt(key, int64(v))
		case int64:
			fm.SetInt(key, v)
		case float64:
			fm.SetFloat(key, v)
		default:
			fm.SetString(key, fmt.Sprint(v))
		}
	}
	return fm
}

// checkStem rejects proposals that cannot serve as a file stem.
func checkStem(stem string) error {
	switch {
	case stem == "":
		return errors.New("template produced an empty name")
	case stem == "." || stem == "..":
		return fmt.Errorf("template produced %q", stem)
	case strings.ContainsAny(stem, `/\`):
		return fmt.Errorf("template produced a path %q", stem)
	}
	return nil
}
