// Package naming resolves file name collisions with zero-padded counters.
//
// A name is split into a stem and a suffix at its first dot, so sidecars keep
// their compound suffix:
//
//	IMG_X_001.jpg.xmp -> stem "IMG_X_001", suffix ".jpg.xmp"
//
// Counters are always separated from the stem by an underscore.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// Separator joins a stem and its counter.
const Separator = "_"

// Name is a file name split into its parts.
type Name struct {
	Stem string
	// Counter holds the digits of a trailing counter, empty if the stem has none.
	Counter string
	Suffix  string
}

// Split separates name into stem and suffix. The counter is left attached to
// the stem; use SplitCounter to detach it.
func Split(name string) Name {
	idx := strings.Index(name, ".")
	if idx <= 0 {
		return Name{Stem: name}
	}
	return Name{Stem: name[:idx], Suffix: name[idx:]}
}

// SplitCounter separates name into stem, trailing counter and suffix.
// "IMG_20200101_003.jpg" yields stem "IMG_20200101", counter "003", suffix ".jpg".
func SplitCounter(name string) Name {
	n := Split(name)
	idx := strings.LastIndex(n.Stem, Separator)
	if idx < 1 || idx == len(n.Stem)-1 {
		return n
	}
	digits := n.Stem[idx+1:]
	if !isDigits(digits) {
		return n
	}
	return Name{Stem: n.Stem[:idx], Counter: digits, Suffix: n.Suffix}
}

// String reassembles the name.
func (n Name) String() string {
	if n.Counter == "" {
		return n.Stem + n.Suffix
	}
	return n.Stem + Separator + n.Counter + n.Suffix
}

// WithCounter returns the name carrying value as a counter of the given width.
func (n Name) WithCounter(value, width int) Name {
	n.Counter = Pad(value, width)
	return n
}

// Pad formats value as a zero-padded counter of the given width.
func Pad(value, width int) string {
	return fmt.Sprintf("%0*d", width, value)
}

// Taken reports whether a candidate file name is unavailable.
type Taken func(name string) bool

// InDirs returns a Taken that checks whether the name exists in any of dirs.
// Paths listed in own are never considered taken, so a file may keep its own name.
func InDirs(dirs []string, own ...string) Taken {
	return func(name string) bool {
		for _, dir := range dirs {
			candidate := filepath.Join(dir, name)
			if containsPath(own, candidate) {
				continue
			}
			if _, err := os.Lstat(candidate); err == nil {
				return true
			}
		}
		return false
	}
}

// Resolver finds free names for files.
type Resolver struct {
	// CounterLength is the number of digits of a generated counter.
	CounterLength int
}

// NewResolver creates a resolver producing counters of the given width.
func NewResolver(counterLength int) *Resolver {
	if counterLength < 1 {
		counterLength = 1
	}
	return &Resolver{CounterLength: counterLength}
}

// Resolve returns name itself if it is free, otherwise the first free
// variant carrying a counter.
//
// If hasCounter is set and name already ends in a counter, that counter is
// counted up in place instead of appending a second one. Given IMG_X.jpg and
// IMG_X_001.jpg both taken, IMG_X.jpg resolves to IMG_X_002.jpg.
func (r *Resolver) Resolve(name string, hasCounter bool, taken Taken) (string, error) {
	if !taken(name) {
		return name, nil
	}

	base := Split(name)
	width := r.CounterLength
	start := 1
	if hasCounter {
		if parsed := SplitCounter(name); parsed.Counter != "" {
			base = Name{Stem: parsed.Stem, Suffix: parsed.Suffix}
			width = len(parsed.Counter)
			value, err := strconv.Atoi(parsed.Counter)
			if err == nil {
				start = value + 1
			}
		}
	}

	limit := maxCounter(width)
	for value := start; value <= limit; value++ {
		candidate := base.WithCounter(value, width).String()
		if !taken(candidate) {
			return candidate, nil
		}
	}

	return "", domainerrors.CollisionExhaustedf("no free name for %q with a %d-digit counter", name, width)
}

// maxCounter is the largest value a counter of width digits can hold.
func maxCounter(width int) int {
	limit := 1
	for range width {
		limit *= 10
	}
	return limit - 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if filepath.Clean(p) == filepath.Clean(path) {
			return true
		}
	}
	return false
}
