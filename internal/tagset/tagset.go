// Package tagset loads abbreviation files and expands abbreviations into tags.
//
// A tagset file holds one abbreviation per line:
//
//	we Event|Wedding,People|Family
//	ALL_PICTURES Source|Camera
//
// The abbreviation ends at the first blank; the rest is a comma separated tag
// list. A local file replaces global entries with the same abbreviation
// entirely.
package tagset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/metadata"
)

// DefaultKey names the tagset applied to every picture during preparation.
const DefaultKey = "ALL_PICTURES"

// LocalFileName is the name of the tagset file inside a working directory.
const LocalFileName = "tagsets"

// Tagsets maps abbreviations to ordered tag lists. It is immutable once built.
type Tagsets struct {
	sets map[string][]string
}

// New creates tagsets from a map. The map is copied.
func New(sets map[string][]string) *Tagsets {
	copied := make(map[string][]string, len(sets))
	for k, v := range sets {
		copied[k] = slices.Clone(v)
	}
	return &Tagsets{sets: copied}
}

// Empty returns tagsets without any abbreviation.
func Empty() *Tagsets {
	return New(nil)
}

// Parse reads tagset lines from r. Malformed lines are skipped and reported
// as TagsetParse errors; source names the input in those reports.
func Parse(r io.Reader, source string) (map[string][]string, []error) {
	sets := make(map[string][]string)
	var warnings []error

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		abbr, rest, found := strings.Cut(line, " ")
		if !found || abbr == "" {
			warnings = append(warnings, domainerrors.TagsetParsef("%s:%d: invalid line %q", source, lineNum, line).
				WithDetails(map[string]any{"source": source, "line": lineNum}))
			continue
		}

		var tags []string
		for _, tag := range strings.Split(rest, ",") {
			tag = metadata.NormalizeTag(tag)
			if tag == "" || slices.Contains(tags, tag) {
				continue
			}
			tags = append(tags, tag)
		}
		sets[abbr] = tags
	}

	if err := scanner.Err(); err != nil {
		warnings = append(warnings, domainerrors.Wrapf(err, domainerrors.CodeTagsetParse, "read %s", source))
	}

	return sets, warnings
}

// LoadFile parses the tagset file at path. A missing file yields no tagsets
// and no error.
func LoadFile(path string) (map[string][]string, []error, error) {
	f, err := os.Open(path) //#nosec G304 -- tagset paths come from the user's configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string][]string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("open tagsets %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat tagsets %s: %w", path, err)
	}
	if info.IsDir() {
		return map[string][]string{}, nil, nil
	}

	sets, warnings := Parse(f, path)
	return sets, warnings, nil
}

// Merge starts from global and lets every abbreviation of local replace the
// global entry. Tags are never unioned.
func Merge(global, local map[string][]string) *Tagsets {
	merged := make(map[string][]string, len(global)+len(local))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range local {
		merged[k] = v
	}
	return New(merged)
}

// Resolve loads the global and the local file and merges them. Any failure
// to load degrades to fewer tagsets; all problems are returned as warnings.
func Resolve(globalPath, localPath string, logger *slog.Logger) (*Tagsets, []error) {
	var warnings []error

	load := func(path, scope string) map[string][]string {
		if path == "" {
			return nil
		}
		sets, parseWarnings, err := LoadFile(path)
		warnings = append(warnings, parseWarnings...)
		if err != nil {
			warnings = append(warnings, domainerrors.Wrapf(err, domainerrors.CodeTagsetParse, "load %s tagsets", scope))
			return nil
		}
		logger.Info("tagsets loaded", "scope", scope, "path", path, "count", len(sets))
		return sets
	}

	global := load(globalPath, "global")
	local := load(localPath, "local")

	for _, w := range warnings {
		logger.Warn("tagset problem", "error", w)
	}

	return Merge(global, local), warnings
}

// LocalPath returns the local tagset file of a working directory.
func LocalPath(workingDir string) string {
	return filepath.Join(workingDir, LocalFileName)
}

// Lookup returns the tags of an abbreviation.
func (t *Tagsets) Lookup(abbr string) ([]string, bool) {
	tags, ok := t.sets[abbr]
	if !ok {
		return nil, false
	}
	return slices.Clone(tags), true
}

// Expand turns tokens into literal tags. Known abbreviations expand into their
// tags; unknown tokens are taken as tag names. The result has no duplicates.
func (t *Tagsets) Expand(tokens []string) []string {
	var out []string
	add := func(tag string) {
		tag = metadata.NormalizeTag(tag)
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if tags, ok := t.sets[token]; ok {
			for _, tag := range tags {
				add(tag)
			}
			continue
		}
		add(token)
	}
	return out
}

// Default returns the tags applied automatically to every picture.
func (t *Tagsets) Default() ([]string, bool) {
	return t.Lookup(DefaultKey)
}

// Keys returns all abbreviations in sorted order.
func (t *Tagsets) Keys() []string {
	keys := make([]string, 0, len(t.sets))
	for k := range t.sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of abbreviations.
func (t *Tagsets) Len() int {
	return len(t.sets)
}
