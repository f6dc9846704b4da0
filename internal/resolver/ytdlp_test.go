package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tubenotes/internal/apperr"
)

// fakeYtdlp writes an executable shell script standing in for yt-dlp.
func fakeYtdlp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

const flatOutput = `cat <<'EOF'
{"_type":"url","id":"aaaaaaaaaaa","url":"https://www.youtube.com/watch?v=aaaaaaaaaaa","title":"One","playlist_id":"PLtest000001","playlist_title":"Test List","playlist_count":3}

{"_type":"url","id":"bbbbbbbbbbb","url":"bbbbbbbbbbb","title":"Two","playlist_id":"PLtest000001","playlist_title":"Test List","playlist_count":3}
{"_type":"url","id":"ccccccccccc","title":"Three","playlist_id":"PLtest000001","playlist_title":"Test List","playlist_count":3}
EOF`

func TestYtdlpResolve(t *testing.T) {
	y := NewYtdlp(fakeYtdlp(t, flatOutput))
	l, err := y.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLtest000001")
	require.NoError(t, err)
	assert.Equal(t, "PLtest000001", l.ID)
	assert.Equal(t, "Test List", l.Title)
	assert.Equal(t, 3, l.Total)

	refs, err := Collect(l)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", refs[0].URL)
	assert.Equal(t, "https://www.youtube.com/watch?v=bbbbbbbbbbb", refs[1].URL)
	assert.Equal(t, "https://www.youtube.com/watch?v=ccccccccccc", refs[2].URL)
	for i, r := range refs {
		assert.Equal(t, i, r.Position)
	}
}

func TestYtdlpResolveEarlyStop(t *testing.T) {
	y := NewYtdlp(fakeYtdlp(t, flatOutput))
	l, err := y.Resolve(context.Background(), "PLtest000001")
	require.NoError(t, err)
	for range l.All() {
		break
	}
	l.Close()
}

func TestYtdlpResolveEmptyPlaylist(t *testing.T) {
	y := NewYtdlp(fakeYtdlp(t, "exit 0"))
	l, err := y.Resolve(context.Background(), "PLtest000001")
	require.NoError(t, err)
	assert.Equal(t, "PLtest000001", l.Title)
	refs, err := Collect(l)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestYtdlpResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   apperr.ResolutionKind
	}{
		{"missing", "ERROR: [youtube:tab] PLtest000001: The playlist does not exist.", apperr.ResolutionNotFound},
		{"private", "ERROR: [youtube:tab] PLtest000001: This playlist is private", apperr.ResolutionAccessDenied},
		{"unsupported", "ERROR: Unsupported URL: https://example.com", apperr.ResolutionMalformed},
		{"network", "ERROR: Unable to download webpage: <urlopen error timed out>", apperr.ResolutionNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := NewYtdlp(fakeYtdlp(t, "echo '"+tt.stderr+"' >&2\nexit 1"))
			_, err := y.Resolve(context.Background(), "PLtest000001")
			require.Error(t, err)
			assert.Equal(t, tt.want, resolutionKind(t, err))
		})
	}
}

func TestYtdlpResolveMidStreamFailure(t *testing.T) {
	script := `echo '{"id":"aaaaaaaaaaa","playlist_title":"Broken"}'
echo 'ERROR: HTTP Error 500: Internal Server Error' >&2
exit 1`
	y := NewYtdlp(fakeYtdlp(t, script))
	l, err := y.Resolve(context.Background(), "PLtest000001")
	require.NoError(t, err)
	assert.Equal(t, UnknownTotal, l.Total)

	refs, err := Collect(l)
	require.Len(t, refs, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.ResolutionNetwork, resolutionKind(t, err))
}

func TestYtdlpResolveEmptyRef(t *testing.T) {
	_, err := NewYtdlp("yt-dlp").Resolve(context.Background(), " ")
	assert.Equal(t, apperr.ResolutionMalformed, resolutionKind(t, err))
}
