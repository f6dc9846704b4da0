// Package resolver turns a playlist reference into an ordered, lazily
// produced sequence of video references.
package resolver

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/starford/tubenotes/internal/models"
)

// UnknownTotal is the Listing.Total of a listing whose size is not known up front.
const UnknownTotal = -1

// ErrListingConsumed is yielded when a Listing is iterated a second time.
var ErrListingConsumed = errors.New("resolver: listing already consumed")

// Resolver resolves playlist references. Implementations never fetch
// per-video metadata.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*Listing, error)
}

// Listing is a resolved playlist. Its members are produced lazily, in
// playlist order, and can be iterated once.
type Listing struct {
	ID     string
	Title  string
	Source string
	Total  int

	seq       iter.Seq2[models.VideoReference, error]
	used      atomic.Bool
	closeOnce sync.Once
	closer    func()
}

// NewListing wraps seq. closer, when non-nil, releases whatever backs the
// sequence and runs at most once.
func NewListing(id, title, source string, total int, seq iter.Seq2[models.VideoReference, error], closer func()) *Listing {
	return &Listing{ID: id, Title: title, Source: source, Total: total, seq: seq, closer: closer}
}

// All returns the member sequence. An error element ends the sequence.
func (l *Listing) All() iter.Seq2[models.VideoReference, error] {
	return func(yield func(models.VideoReference, error) bool) {
		if !l.used.CompareAndSwap(false, true) {
			yield(models.VideoReference{}, ErrListingConsumed)
			return
		}
		defer l.Close()
		l.seq(yield)
	}
}

// Close releases the listing without iterating it.
func (l *Listing) Close() {
	l.closeOnce.Do(func() {
		if l.closer != nil {
			l.closer()
		}
	})
}

// KnownTotal returns Total as a pointer, nil when unknown.
func (l *Listing) KnownTotal() *int {
	if l.Total < 0 {
		return nil
	}
	n := l.Total
	return &n
}

// Collect drains a listing into a slice, stopping at the first error.
func Collect(l *Listing) ([]models.VideoReference, error) {
	var out []models.VideoReference
	for ref, err := range l.All() {
		if err != nil {
			return out, err
		}
		out = append(out, ref)
	}
	return out, nil
}
