package metadata

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names written next to the configurable tag field.
const (
	FieldRating = "Rating"
	// FieldOrientation is read numerically; the '#' suffix makes exiftool write
	// the raw number instead of the printed description.
	FieldOrientation      = "Orientation"
	fieldOrientationWrite = "Orientation#"
)

// ratingRejected is how a rejected record is stored in the Rating field.
const ratingRejected = -1

// MaxRating is the highest numeric rating.
const MaxRating = 5

// Record is the tag, rating and orientation payload of one metadata source.
//
// Rating and Rejected are independent fields: rejecting clears the rating and
// rating clears the rejection, so at most one of them is set.
type Record struct {
	Tags           []string
	Rating         int
	Rejected       bool
	Rotation       int
	FlipHorizontal bool
	FlipVertical   bool
}

// NormalizeTag trims a tag and brings it into Unicode NFC so that equal tags
// typed on different systems compare equal.
func NormalizeTag(tag string) string {
	return norm.NFC.String(strings.TrimSpace(tag))
}

// RecordFromFields builds a record from backend fields.
func RecordFromFields(fields Fields, tagField string) *Record {
	r := &Record{}
	r.Ensure(fields.Strings(tagField))

	if rating, ok := fields.Int(FieldRating); ok {
		switch {
		case rating < 0:
			r.Rejected = true
		case rating > MaxRating:
			r.Rating = MaxRating
		default:
			r.Rating = rating
		}
	}

	if orientation, ok := fields.Int(FieldOrientation); ok {
		r.Rotation, r.FlipHorizontal, r.FlipVertical = DecodeOrientation(orientation)
	}
	return r
}

// Fields encodes the record for a whole-record write.
func (r *Record) Fields(tagField string) Fields {
	rating := r.Rating
	if r.Rejected {
		rating = ratingRejected
	}
	return Fields{
		tagField:              slices.Clone(r.Tags),
		FieldRating:           rating,
		fieldOrientationWrite: EncodeOrientation(r.Rotation, r.FlipHorizontal, r.FlipVertical),
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	return &c
}

// HasTag reports whether tag is present (exact match).
func (r *Record) HasTag(tag string) bool {
	return slices.Contains(r.Tags, NormalizeTag(tag))
}

// Toggle removes each tag that is present and adds each tag that is absent.
// Duplicate input tags are toggled once. Applying the same list twice
// restores the original tags. Tags are matched as whole strings, so parent
// levels of a hierarchical tag are neither added nor pruned.
func (r *Record) Toggle(tags []string) (added, removed []string) {
	for _, tag := range uniqueTags(tags) {
		if idx := slices.Index(r.Tags, tag); idx >= 0 {
			r.Tags = slices.Delete(r.Tags, idx, idx+1)
			removed = append(removed, tag)
			continue
		}
		r.Tags = append(r.Tags, tag)
		added = append(added, tag)
	}
	return added, removed
}

// Ensure adds the tags that are not present yet and leaves present ones alone.
func (r *Record) Ensure(tags []string) (added []string) {
	for _, tag := range uniqueTags(tags) {
		if slices.Contains(r.Tags, tag) {
			continue
		}
		r.Tags = append(r.Tags, tag)
		added = append(added, tag)
	}
	return added
}

// SetRating sets a numeric rating and clears a rejection.
func (r *Record) SetRating(rating int) {
	r.Rating = min(max(rating, 0), MaxRating)
	r.Rejected = false
}

// Reject marks the record as rejected and clears the numeric rating.
func (r *Record) Reject() {
	r.Rejected = true
	r.Rating = 0
}

// Rotate turns the orientation by degrees (positive is clockwise).
func (r *Record) Rotate(degrees int) {
	r.Rotation = NormalizeRotation(r.Rotation + degrees)
}

// ToggleFlipHorizontal mirrors the image horizontally.
func (r *Record) ToggleFlipHorizontal() {
	r.FlipHorizontal = !r.FlipHorizontal
}

// ToggleFlipVertical mirrors the image vertically.
func (r *Record) ToggleFlipVertical() {
	r.FlipVertical = !r.FlipVertical
}

// uniqueTags normalizes tags, drops empty ones and removes duplicates while
// keeping the first occurrence's position.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = NormalizeTag(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
