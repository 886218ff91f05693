// Package metadatatest provides an in-memory metadata backend for tests.
package metadatatest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/metadata"
)

// Backend keeps metadata in memory. Files must exist on disk to be read or
// written, mirroring the real tool.
type Backend struct {
	mu     sync.Mutex
	fields map[string]metadata.Fields

	// Names maps a file path to the stem ProposeName returns. Unlisted paths
	// keep their current stem.
	Names map[string]string
	// Failures makes every call on the listed paths fail.
	Failures map[string]error
	// Hook, when set, runs at the start of every call with the operation
	// name ("read", "write", "remove", "propose", "sidecar") and path.
	Hook func(op, path string)

	Reads, Writes, Removes, Proposals, Sidecars int
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		fields:   make(map[string]metadata.Fields),
		Names:    make(map[string]string),
		Failures: make(map[string]error),
	}
}

// Set stores fields for path, replacing previous ones.
func (b *Backend) Set(path string, fields metadata.Fields) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields[path] = fields.Clone()
}

// Get returns a copy of the fields stored for path.
func (b *Backend) Get(path string) metadata.Fields {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fields[path].Clone()
}

// Read implements metadata.Backend.
func (b *Backend) Read(ctx context.Context, path string) (metadata.Fields, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reads++
	if err := b.check(ctx, "read", path); err != nil {
		return nil, err
	}
	return b.lookup(path).Clone(), nil
}

// Write implements metadata.Backend.
func (b *Backend) Write(ctx context.Context, path string, fields metadata.Fields) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Writes++
	if err := b.check(ctx, "write", path); err != nil {
		return err
	}
	current := b.lookup(path)
	for k, v := range fields {
		current[strings.TrimSuffix(k, "#")] = v
	}
	b.fields[path] = current
	return nil
}

// Remove implements metadata.Backend.
func (b *Backend) Remove(ctx context.Context, path string, names []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Removes++
	if err := b.check(ctx, "remove", path); err != nil {
		return err
	}
	current := b.lookup(path)
	for _, name := range names {
		delete(current, name)
	}
	b.fields[path] = current
	return nil
}

// ProposeName implements metadata.Backend.
func (b *Backend) ProposeName(ctx context.Context, path, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Proposals++
	if err := b.check(ctx, "propose", path); err != nil {
		return "", err
	}
	if stem, ok := b.Names[path]; ok {
		return stem, nil
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name)), nil
}

// CreateSidecar implements metadata.Backend. The sidecar is created on disk.
func (b *Backend) CreateSidecar(ctx context.Context, source, target string, fields []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sidecars++
	if err := b.check(ctx, "sidecar", source); err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil {
		return domainerrors.Metadataf("sidecar %s already exists", target)
	}
	if err := os.WriteFile(target, []byte("<x:xmpmeta/>\n"), 0o644); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "create sidecar %s", target)
	}

	src := b.lookup(source)
	seeded := metadata.Fields{}
	for _, name := range fields {
		if v, ok := src[name]; ok {
			seeded[name] = v
		}
	}
	b.fields[target] = seeded
	return nil
}

// Rename moves stored fields along with a renamed file.
func (b *Backend) Rename(from, to string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.fields[from]; ok {
		b.fields[to] = f
		delete(b.fields, from)
	}
}

// check fails like the real tool does: on a canceled context, on an injected
// failure and on a missing file.
func (b *Backend) check(ctx context.Context, op, path string) error {
	if b.Hook != nil {
		b.Hook(op, path)
	}
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "%s %s", op, path)
	}
	if err, ok := b.Failures[path]; ok {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "backend failed on %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeMetadata, "cannot access %s", path)
	}
	return nil
}

func (b *Backend) lookup(path string) metadata.Fields {
	if f, ok := b.fields[path]; ok {
		return f
	}
	return metadata.Fields{}
}
