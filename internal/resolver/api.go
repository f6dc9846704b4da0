package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/videoid"
)

const apiPageSize = 50

// API lists playlists through the YouTube Data API v3.
type API struct {
	svc *youtube.Service
}

// NewAPI creates an API resolver authenticated with an API key. Extra
// client options are appended (endpoint overrides in tests).
func NewAPI(ctx context.Context, apiKey string, opts ...option.ClientOption) (*API, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("resolver: youtube service: %w", err)
	}
	return &API{svc: svc}, nil
}

// NewAPIFromService wraps an existing service.
func NewAPIFromService(svc *youtube.Service) *API {
	return &API{svc: svc}
}

func (a *API) Resolve(ctx context.Context, ref string) (*Listing, error) {
	id, ok := videoid.PlaylistID(ref)
	if !ok {
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionMalformed, Ref: ref, Err: fmt.Errorf("no playlist id")}
	}

	resp, err := a.svc.Playlists.List([]string{"snippet", "contentDetails"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogle(ref, err)
	}
	if len(resp.Items) == 0 {
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionNotFound, Ref: ref, Err: fmt.Errorf("playlist %s", id)}
	}
	pl := resp.Items[0]
	title := id
	if pl.Snippet != nil && pl.Snippet.Title != "" {
		title = pl.Snippet.Title
	}
	total := UnknownTotal
	if pl.ContentDetails != nil {
		total = int(pl.ContentDetails.ItemCount)
	}

	seq := func(yield func(models.VideoReference, error) bool) {
		pos := 0
		token := ""
		for {
			call := a.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
				PlaylistId(id).
				MaxResults(apiPageSize).
				Context(ctx)
			if token != "" {
				call = call.PageToken(token)
			}
			page, err := call.Do()
			if err != nil {
				yield(models.VideoReference{}, classifyGoogle(ref, err))
				return
			}
			for _, item := range page.Items {
				vid := itemVideoID(item)
				if vid == "" {
					continue
				}
				if !yield(models.VideoReference{URL: videoid.WatchURL(vid), Position: pos}, nil) {
					return
				}
				pos++
			}
			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
	return NewListing(id, title, ref, total, seq, nil), nil
}

func itemVideoID(item *youtube.PlaylistItem) string {
	if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
		return item.ContentDetails.VideoId
	}
	if item.Snippet != nil && item.Snippet.ResourceId != nil {
		return item.Snippet.ResourceId.VideoId
	}
	return ""
}

func classifyGoogle(ref string, err error) error {
	kind := apperr.ResolutionNetwork
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			kind = apperr.ResolutionNotFound
		case http.StatusForbidden:
			if !quotaReason(gerr) {
				kind = apperr.ResolutionAccessDenied
			}
		case http.StatusBadRequest:
			kind = apperr.ResolutionMalformed
		}
	}
	return &apperr.ResolutionError{Kind: kind, Ref: ref, Err: err}
}

func quotaReason(gerr *googleapi.Error) bool {
	for _, e := range gerr.Errors {
		switch e.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}
