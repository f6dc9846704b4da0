package resolver

import (
	"context"

	"github.com/starford/tubenotes/internal/videoid"
)

// Auto sends references carrying a playlist ID to Playlist and everything
// else to URLs.
type Auto struct {
	Playlist Resolver
	URLs     Resolver
}

// NewAuto routes playlists to playlist and video lists to URLList.
func NewAuto(playlist Resolver) *Auto {
	return &Auto{Playlist: playlist, URLs: URLList{}}
}

func (a *Auto) Resolve(ctx context.Context, ref string) (*Listing, error) {
	if _, ok := videoid.PlaylistID(ref); ok && len(SplitRefs(ref)) == 1 {
		return a.Playlist.Resolve(ctx, ref)
	}
	return a.URLs.Resolve(ctx, ref)
}
