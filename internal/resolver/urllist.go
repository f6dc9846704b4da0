package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/checksum"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/videoid"
)

// URLListTitle prefixes the index title of ad-hoc lists of videos.
const URLListTitle = "Videos"

// URLList resolves a whitespace or comma separated list of video URLs or
// IDs without any remote call.
type URLList struct{}

func (URLList) Resolve(_ context.Context, ref string) (*Listing, error) {
	fields := SplitRefs(ref)
	if len(fields) == 0 {
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionMalformed, Ref: ref, Err: fmt.Errorf("empty reference")}
	}
	refs := make([]models.VideoReference, 0, len(fields))
	ids := make([]string, 0, len(fields))
	for i, f := range fields {
		id, err := videoid.FromURL(f)
		if err != nil {
			return nil, &apperr.ResolutionError{Kind: apperr.ResolutionMalformed, Ref: ref, Err: err}
		}
		refs = append(refs, models.VideoReference{URL: f, Position: i})
		ids = append(ids, id)
	}
	seq := func(yield func(models.VideoReference, error) bool) {
		for _, r := range refs {
			if !yield(r, nil) {
				return
			}
		}
	}
	key := urlListKey(ids)
	return NewListing("", URLListTitle+" "+key, ref, len(refs), seq, nil), nil
}

// urlListKey names a list by its set of videos: the same videos in any order
// or URL form share one index, different sets get their own.
func urlListKey(ids []string) string {
	set := slices.Clone(ids)
	slices.Sort(set)
	set = slices.Compact(set)
	return checksum.Sum([]byte(strings.Join(set, ",")))[:8]
}

// SplitRefs splits ref on whitespace and commas.
func SplitRefs(ref string) []string {
	return strings.FieldsFunc(ref, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}
