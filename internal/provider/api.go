package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/videoid"
)

// API fetches metadata through the YouTube Data API v3.
type API struct {
	svc *youtube.Service
	// Region is an ISO 3166-1 alpha-2 code. When set, videos restricted in
	// that region fail with region_blocked.
	Region string
}

// NewAPI creates an API provider authenticated with an API key.
func NewAPI(ctx context.Context, apiKey, region string, opts ...option.ClientOption) (*API, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("provider: youtube service: %w", err)
	}
	return &API{svc: svc, Region: strings.ToUpper(region)}, nil
}

// NewAPIFromService wraps an existing service.
func NewAPIFromService(svc *youtube.Service, region string) *API {
	return &API{svc: svc, Region: strings.ToUpper(region)}
}

func (a *API) Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	id, err := videoid.FromURL(videoURL)
	if err != nil {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderInvalid, URL: videoURL, Err: err}
	}

	resp, err := a.svc.Videos.List([]string{"snippet", "contentDetails", "status"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogle(ctx, videoURL, err)
	}
	if len(resp.Items) == 0 {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderDeleted, URL: videoURL, Err: errors.New("video not returned by api")}
	}
	v := resp.Items[0]

	if v.Status != nil && v.Status.PrivacyStatus == "private" {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderPrivate, URL: videoURL, Err: errors.New("video is private")}
	}
	if v.ContentDetails != nil && blockedIn(v.ContentDetails.RegionRestriction, a.Region) {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderRegionBlocked, URL: videoURL, Err: fmt.Errorf("video blocked in %s", a.Region)}
	}

	m := &models.VideoMetadata{ID: v.Id}
	if m.ID == "" {
		m.ID = id
	}
	if s := v.Snippet; s != nil {
		m.Title = s.Title
		m.Channel = s.ChannelTitle
		m.Tags = models.NormalizeTags(s.Tags)
		m.ThumbnailURL = bestThumbnail(s.Thumbnails)
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			t = t.UTC()
			m.PublishedAt = &t
		}
	}
	if v.ContentDetails != nil {
		if secs, err := ParseISODuration(v.ContentDetails.Duration); err == nil && secs > 0 {
			m.DurationSeconds = &secs
		}
	}
	return m, nil
}

func blockedIn(rr *youtube.VideoContentDetailsRegionRestriction, region string) bool {
	if rr == nil || region == "" {
		return false
	}
	if slices.Contains(rr.Blocked, region) {
		return true
	}
	return len(rr.Allowed) > 0 && !slices.Contains(rr.Allowed, region)
}

func bestThumbnail(td *youtube.ThumbnailDetails) string {
	if td == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{td.Maxres, td.Standard, td.High, td.Medium, td.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

func classifyGoogle(ctx context.Context, videoURL string, err error) error {
	kind := apperr.ProviderNetwork
	var gerr *googleapi.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = apperr.ProviderTimeout
	case errors.As(err, &gerr):
		kind = googleKind(gerr)
	}
	return &apperr.ProviderError{Kind: kind, URL: videoURL, Err: err}
}

// googleKind maps an API error to a failure kind. The reason is checked
// before the status: quota exhaustion and key problems both arrive as 403.
func googleKind(gerr *googleapi.Error) apperr.ProviderKind {
	for _, e := range gerr.Errors {
		switch e.Reason {
		case "quotaExceeded", "dailyLimitExceeded":
			return apperr.ProviderQuotaExceeded
		case "rateLimitExceeded", "userRateLimitExceeded":
			return apperr.ProviderRateLimited
		case "keyInvalid", "keyExpired", "accessNotConfigured", "ipRefererBlocked", "forbiddenByRulesetPolicy":
			return apperr.ProviderAccessDenied
		case "forbidden", "videoForbidden":
			return apperr.ProviderPrivate
		case "videoNotFound":
			return apperr.ProviderDeleted
		}
	}
	switch gerr.Code {
	case http.StatusTooManyRequests:
		return apperr.ProviderRateLimited
	case http.StatusNotFound:
		return apperr.ProviderDeleted
	case http.StatusForbidden, http.StatusUnauthorized:
		return apperr.ProviderAccessDenied
	case http.StatusBadRequest:
		return apperr.ProviderInvalid
	}
	return apperr.ProviderNetwork
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`)

// ParseISODuration converts an ISO-8601 duration such as PT1H2M3S to seconds.
func ParseISODuration(s string) (int, error) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("provider: invalid duration %q", s)
	}
	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("provider: invalid duration %q", s)
		}
		total += n * unit
	}
	return total, nil
}
