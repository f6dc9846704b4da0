package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/resolver"
	"github.com/starford/tubenotes/internal/videoid"
)

// Video builds metadata with the fields most tests care about.
func Video(id, title string, durationSeconds int) models.VideoMetadata {
	d := durationSeconds
	pub := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.VideoMetadata{
		ID:              id,
		Title:           title,
		Channel:         "Channel " + id[:3],
		PublishedAt:     &pub,
		DurationSeconds: &d,
		Tags:            []string{"test"},
	}
}

// FakeProvider serves metadata from memory and counts calls.
type FakeProvider struct {
	mu     sync.Mutex
	videos map[string]models.VideoMetadata
	errs   map[string]error
	calls  map[string]int

	// Delay, when set, is how long a fetch of id takes. The wait honours ctx.
	Delay func(id string) time.Duration
}

// NewFakeProvider returns a provider serving videos.
func NewFakeProvider(videos ...models.VideoMetadata) *FakeProvider {
	f := &FakeProvider{
		videos: make(map[string]models.VideoMetadata),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for _, v := range videos {
		f.videos[v.ID] = v
	}
	return f
}

// Set adds or replaces the metadata served for v.ID.
func (f *FakeProvider) Set(v models.VideoMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.ID] = v
}

// Fail makes fetches of id return err.
func (f *FakeProvider) Fail(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = err
}

// Calls returns how often id was fetched.
func (f *FakeProvider) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// TotalCalls returns the number of fetches.
func (f *FakeProvider) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeProvider) Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	id, err := videoid.FromURL(videoURL)
	if err != nil {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderInvalid, URL: videoURL, Err: err}
	}

	f.mu.Lock()
	f.calls[id]++
	delay := f.Delay
	f.mu.Unlock()

	if delay != nil {
		if d := delay(id); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, &apperr.ProviderError{Kind: apperr.ProviderNetwork, URL: videoURL, Err: ctx.Err()}
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderDeleted, URL: videoURL, Err: errors.New("no such video")}
	}
	return &v, nil
}

// StaticResolver resolves every reference to a fixed list of URLs.
type StaticResolver struct {
	ID    string
	Title string
	URLs  []string

	// Err is returned by Resolve.
	Err error
	// MidErr, with FailAfter members produced, ends the sequence with an error.
	MidErr    error
	FailAfter int

	mu       sync.Mutex
	resolves int
}

func (s *StaticResolver) Resolve(_ context.Context, ref string) (*resolver.Listing, error) {
	s.mu.Lock()
	s.resolves++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	urls := append([]string(nil), s.URLs...)
	seq := func(yield func(models.VideoReference, error) bool) {
		for i, u := range urls {
			if s.MidErr != nil && i == s.FailAfter {
				yield(models.VideoReference{}, s.MidErr)
				return
			}
			if !yield(models.VideoReference{URL: u, Position: i}, nil) {
				return
			}
		}
	}
	return resolver.NewListing(s.ID, s.Title, ref, len(urls), seq, nil), nil
}

// Resolves returns how many times Resolve was called.
func (s *StaticResolver) Resolves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolves
}

// IDs returns n distinct valid video IDs.
func IDs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("vid%08d", i)
	}
	return out
}

// WatchURLs maps IDs to watch URLs.
func WatchURLs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = videoid.WatchURL(id)
	}
	return out
}
