// Package sorter moves tagged media files into directories named after one
// of their tags.
package sorter

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// backref matches a backslash group reference such as \1.
var backref = regexp.MustCompile(`\\([0-9]+)`)

// Rule derives a sort key from a tag.
type Rule struct {
	// Field is the metadata field tags are read from.
	Field   string
	Pattern *regexp.Regexp
	// template is the substitution in regexp.Expand syntax.
	template string
}

// NewRule creates a rule. The substitution may refer to groups as \1 or ${1}.
func NewRule(field string, pattern *regexp.Regexp, substitution string) (Rule, error) {
	if pattern == nil {
		return Rule{}, domainerrors.Config("sorting rule needs a pattern")
	}
	if strings.TrimSpace(substitution) == "" {
		return Rule{}, domainerrors.Config("sorting rule needs a substitution")
	}
	if field == "" {
		return Rule{}, domainerrors.Config("sorting rule needs a field")
	}
	return Rule{
		Field:    field,
		Pattern:  pattern,
		template: backref.ReplaceAllString(substitution, `$${$1}`),
	}, nil
}

// Key returns the sort key of the first tag the pattern matches non-emptily
// and whose substitution leaves a usable directory name.
func (r Rule) Key(tags []string) (string, bool) {
	for _, tag := range tags {
		match := r.Pattern.FindStringSubmatchIndex(tag)
		if match == nil || match[0] == match[1] {
			continue
		}
		key := Sanitize(string(r.Pattern.ExpandString(nil, r.template, tag, match)))
		if key != "" {
			return key, true
		}
	}
	return "", false
}

// Sanitize turns a key into a single directory name: path separators become
// dashes, surrounding blanks and dots are trimmed, and the result is NFC.
func Sanitize(key string) string {
	key = strings.NewReplacer("/", "-", `\`, "-", "\x00", "").Replace(key)
	key = strings.Trim(strings.TrimSpace(key), ".")
	return norm.NFC.String(strings.TrimSpace(key))
}
