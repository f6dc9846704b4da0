// Package videoid extracts canonical YouTube video and playlist identifiers
// from the many URL shapes users paste.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid is returned when no video ID can be extracted.
var ErrInvalid = errors.New("videoid: not a youtube video reference")

var (
	videoIDRe    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDRe = regexp.MustCompile(`^(PL|UU|LL|FL|OL|RD|OLAK5uy_)[A-Za-z0-9_-]{10,}$`)
)

var youtubeHosts = map[string]struct{}{
	"youtube.com":              {},
	"www.youtube.com":          {},
	"m.youtube.com":            {},
	"music.youtube.com":        {},
	"youtube-nocookie.com":     {},
	"www.youtube-nocookie.com": {},
}

// FromURL returns the canonical 11-character video ID for raw, which may be a
// bare ID or any watch, short, embed, live or youtu.be URL. Tracking parameters
// and timestamps do not affect the result.
func FromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDRe.MatchString(raw) {
		return raw, nil
	}
	u, err := parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	host := strings.ToLower(u.Hostname())

	var candidate string
	switch {
	case host == "youtu.be" || host == "www.youtu.be":
		candidate = firstSegment(u.Path)
	case isYouTubeHost(host):
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(segs) >= 1 && segs[0] == "watch":
			candidate = u.Query().Get("v")
		case len(segs) >= 2 && (segs[0] == "shorts" || segs[0] == "embed" || segs[0] == "live" || segs[0] == "v"):
			candidate = segs[1]
		}
	}
	if !videoIDRe.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return candidate, nil
}

// PlaylistID returns the playlist ID carried by raw: either the list
// parameter of a YouTube URL or a bare playlist ID.
func PlaylistID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if playlistIDRe.MatchString(raw) {
		return raw, true
	}
	u, err := parse(raw)
	if err != nil || !isYouTubeHost(strings.ToLower(u.Hostname())) {
		return "", false
	}
	id := u.Query().Get("list")
	if id == "" || !validPlaylistChars(id) {
		return "", false
	}
	return id, true
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// PlaylistURL returns the canonical playlist URL for a playlist ID.
func PlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}

// DefaultThumbnail is the thumbnail YouTube serves for every public video.
func DefaultThumbnail(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/default.jpg"
}

func parse(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, ErrInvalid
	}
	return u, nil
}

func isYouTubeHost(host string) bool {
	_, ok := youtubeHosts[host]
	return ok
}

func firstSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		p = p[:i]
	}
	return p
}

func validPlaylistChars(id string) bool {
	for _, r := range id {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
