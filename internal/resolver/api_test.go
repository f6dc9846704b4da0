package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/starford/tubenotes/internal/apperr"
)

func apiResolver(t *testing.T, h http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a, err := NewAPI(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return a
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func item(id string) map[string]any {
	return map[string]any{"contentDetails": map[string]any{"videoId": id}}
}

func TestAPIResolvePaged(t *testing.T) {
	var pages int
	a := apiResolver(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/playlists"):
			writeJSON(w, 200, map[string]any{"items": []any{map[string]any{
				"id":             "PLtest000001",
				"snippet":        map[string]any{"title": "API List"},
				"contentDetails": map[string]any{"itemCount": 3},
			}}})
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			pages++
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(w, 200, map[string]any{"items": []any{item("aaaaaaaaaaa"), item("bbbbbbbbbbb")}, "nextPageToken": "p2"})
				return
			}
			writeJSON(w, 200, map[string]any{"items": []any{item("ccccccccccc")}})
		default:
			http.NotFound(w, r)
		}
	})

	l, err := a.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLtest000001")
	require.NoError(t, err)
	assert.Equal(t, "API List", l.Title)
	assert.Equal(t, 3, l.Total)
	assert.Equal(t, 0, pages, "members must not be fetched before iteration")

	refs, err := Collect(l)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "https://www.youtube.com/watch?v=ccccccccccc", refs[2].URL)
	assert.Equal(t, 2, refs[2].Position)
	assert.Equal(t, 2, pages)
}

func TestAPIResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reason string
		want   apperr.ResolutionKind
	}{
		{"not found", 404, "playlistNotFound", apperr.ResolutionNotFound},
		{"forbidden", 403, "playlistForbidden", apperr.ResolutionAccessDenied},
		{"quota", 403, "quotaExceeded", apperr.ResolutionNetwork},
		{"daily limit", 403, "dailyLimitExceeded", apperr.ResolutionNetwork},
		{"server", 500, "backendError", apperr.ResolutionNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := apiResolver(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"error": map[string]any{
					"code":    tt.status,
					"message": tt.reason,
					"errors":  []any{map[string]any{"reason": tt.reason}},
				}})
			})
			_, err := a.Resolve(context.Background(), "PLtest000001")
			require.Error(t, err)
			assert.Equal(t, tt.want, resolutionKind(t, err))
		})
	}
}

func TestAPIResolveEmptyResult(t *testing.T) {
	a := apiResolver(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"items": []any{}})
	})
	_, err := a.Resolve(context.Background(), "PLtest000001")
	assert.Equal(t, apperr.ResolutionNotFound, resolutionKind(t, err))
}

func TestAPIResolveNotAPlaylist(t *testing.T) {
	a := apiResolver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := a.Resolve(context.Background(), "https://www.youtube.com/watch?v=aaaaaaaaaaa")
	assert.Equal(t, apperr.ResolutionMalformed, resolutionKind(t, err))
}
