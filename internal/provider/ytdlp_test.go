package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tubenotes/internal/apperr"
)

func fakeYtdlp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestYtdlpFetch(t *testing.T) {
	script := `cat <<'JSON'
{"id":"dQw4w9WgXcQ","title":"Never Gonna Give You Up","channel":"Rick Astley","uploader":"RickAstleyVEVO","duration":212.4,"upload_date":"20091025","timestamp":1256453463,"thumbnail":"https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg","tags":["pop","rick astley","pop"]}
JSON`
	y := NewYtdlp(fakeYtdlp(t, script))
	m, err := y.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", m.ID)
	assert.Equal(t, "Rick Astley", m.Channel)
	require.NotNil(t, m.DurationSeconds)
	assert.Equal(t, 212, *m.DurationSeconds)
	require.NotNil(t, m.PublishedAt)
	assert.Equal(t, time.Unix(1256453463, 0).UTC(), *m.PublishedAt)
	assert.Equal(t, []string{"pop", "rick astley"}, m.Tags)
}

func TestYtdlpFetchFallbacks(t *testing.T) {
	script := `echo '{"id":"aaaaaaaaaaa","title":"Live","uploader":"Someone","upload_date":"20240102"}'`
	m, err := NewYtdlp(fakeYtdlp(t, script)).Fetch(context.Background(), "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "Someone", m.Channel)
	assert.Nil(t, m.DurationSeconds)
	require.NotNil(t, m.PublishedAt)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), *m.PublishedAt)
}

func TestYtdlpFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   apperr.ProviderKind
	}{
		{"private", "ERROR: [youtube] aaaaaaaaaaa: Private video. Sign in if you've been granted access to this video", apperr.ProviderPrivate},
		{"deleted", "ERROR: [youtube] aaaaaaaaaaa: Video unavailable. This video has been removed by the uploader", apperr.ProviderDeleted},
		{"region", "ERROR: [youtube] aaaaaaaaaaa: The uploader has not made this video available in your country", apperr.ProviderRegionBlocked},
		{"rate limited", "ERROR: [youtube] aaaaaaaaaaa: HTTP Error 429: Too Many Requests", apperr.ProviderRateLimited},
		{"invalid", "ERROR: [youtube] Incomplete YouTube ID aaa", apperr.ProviderInvalid},
		{"network", "ERROR: Unable to download API page: <urlopen error [Errno -3]>", apperr.ProviderNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := NewYtdlp(fakeYtdlp(t, "echo \""+tt.stderr+"\" >&2\nexit 1"))
			_, err := y.Fetch(context.Background(), "aaaaaaaaaaa")
			assert.Equal(t, tt.want, providerKind(t, err))
		})
	}
}

func TestYtdlpFetchBadOutput(t *testing.T) {
	_, err := NewYtdlp(fakeYtdlp(t, "echo 'not json'")).Fetch(context.Background(), "aaaaaaaaaaa")
	assert.Equal(t, apperr.ProviderInvalid, providerKind(t, err))
}

func TestYtdlpFetchTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewYtdlp(fakeYtdlp(t, "exec sleep 5")).Fetch(ctx, "aaaaaaaaaaa")
	assert.Equal(t, apperr.ProviderTimeout, providerKind(t, err))
}
