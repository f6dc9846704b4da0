package resolver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/videoid"
)

const defaultYtdlpPath = "yt-dlp"

// Ytdlp lists playlists with `yt-dlp --flat-playlist -j`, which prints one
// JSON object per entry as the playlist pages are fetched.
type Ytdlp struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// ExtraArgs are passed before the playlist URL.
	ExtraArgs []string
}

// NewYtdlp creates a yt-dlp backed resolver.
func NewYtdlp(path string) *Ytdlp {
	return &Ytdlp{Path: path}
}

// flatEntry is one line of yt-dlp's flat playlist output.
type flatEntry struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	PlaylistID    string `json:"playlist_id"`
	PlaylistTitle string `json:"playlist_title"`
	PlaylistCount *int   `json:"playlist_count"`
}

func (e flatEntry) videoURL() string {
	if e.URL != "" && strings.Contains(e.URL, "://") {
		return e.URL
	}
	return videoid.WatchURL(e.ID)
}

func (y *Ytdlp) Resolve(ctx context.Context, ref string) (*Listing, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionMalformed, Ref: ref, Err: fmt.Errorf("empty reference")}
	}
	target := ref
	listID, isPlaylist := videoid.PlaylistID(ref)
	if isPlaylist {
		target = videoid.PlaylistURL(listID)
	}

	args := []string{"--flat-playlist", "-j", "--no-warnings"}
	args = append(args, y.ExtraArgs...)
	args = append(args, target)

	cmdCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cmdCtx, y.path(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionNetwork, Ref: ref, Err: err}
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionNetwork, Ref: ref, Err: fmt.Errorf("start yt-dlp: %w", err)}
	}

	var waitOnce sync.Once
	var waitErr error
	wait := func() error {
		waitOnce.Do(func() {
			// Drain so the process is never blocked on a full pipe.
			_, _ = io.Copy(io.Discard, stdout)
			waitErr = cmd.Wait()
			cancel()
		})
		return waitErr
	}
	stop := func() {
		cancel()
		_ = wait()
	}

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	// The first entry is read eagerly so listing failures surface here and
	// the playlist title is known before any member is consumed.
	first, ok, err := nextEntry(sc)
	if err != nil {
		stop()
		return nil, &apperr.ResolutionError{Kind: apperr.ResolutionNetwork, Ref: ref, Err: err}
	}
	if !ok {
		if werr := wait(); werr != nil {
			return nil, y.classify(ctx, ref, werr, stderr.String())
		}
		return NewListing(listID, fallbackTitle(listID, ref), ref, 0, func(func(models.VideoReference, error) bool) {}, nil), nil
	}

	id := first.PlaylistID
	if id == "" {
		id = listID
	}
	title := first.PlaylistTitle
	if title == "" {
		title = fallbackTitle(id, ref)
	}
	total := UnknownTotal
	if first.PlaylistCount != nil {
		total = *first.PlaylistCount
	}

	seq := func(yield func(models.VideoReference, error) bool) {
		pos := 0
		entry := first
		for {
			if !yield(models.VideoReference{URL: entry.videoURL(), Position: pos}, nil) {
				stop()
				return
			}
			pos++
			var more bool
			entry, more, err = nextEntry(sc)
			if err != nil {
				stop()
				yield(models.VideoReference{}, &apperr.ResolutionError{Kind: apperr.ResolutionNetwork, Ref: ref, Err: err})
				return
			}
			if !more {
				break
			}
		}
		if werr := wait(); werr != nil {
			yield(models.VideoReference{}, y.classify(ctx, ref, werr, stderr.String()))
		}
	}
	return NewListing(id, title, ref, total, seq, stop), nil
}

// nextEntry decodes the next non-empty line. ok is false at end of output.
func nextEntry(sc *bufio.Scanner) (flatEntry, bool, error) {
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e flatEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return flatEntry{}, false, fmt.Errorf("parse yt-dlp output: %w", err)
		}
		if e.ID == "" && e.URL == "" {
			continue
		}
		return e, true, nil
	}
	return flatEntry{}, false, sc.Err()
}

func (y *Ytdlp) classify(ctx context.Context, ref string, err error, stderr string) error {
	if ctx.Err() != nil {
		return &apperr.ResolutionError{Kind: apperr.ResolutionNetwork, Ref: ref, Err: ctx.Err()}
	}
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	kind := apperr.ResolutionNetwork
	switch {
	case strings.Contains(lower, "unsupported url") || strings.Contains(lower, "is not a valid url"):
		kind = apperr.ResolutionMalformed
	case strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found") || strings.Contains(lower, "404"):
		kind = apperr.ResolutionNotFound
	case strings.Contains(lower, "private") || strings.Contains(lower, "sign in") ||
		strings.Contains(lower, "members-only") || strings.Contains(lower, "403"):
		kind = apperr.ResolutionAccessDenied
	}
	if msg != "" {
		err = fmt.Errorf("yt-dlp failed: %w: %s", err, lastLine(msg))
	} else {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			err = fmt.Errorf("yt-dlp failed: %w", err)
		}
	}
	return &apperr.ResolutionError{Kind: kind, Ref: ref, Err: err}
}

func (y *Ytdlp) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}

func fallbackTitle(id, ref string) string {
	if id != "" {
		return id
	}
	return ref
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
