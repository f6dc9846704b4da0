package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
)

const defaultYtdlpPath = "yt-dlp"

// Ytdlp fetches metadata with `yt-dlp -J` without downloading media.
type Ytdlp struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// ExtraArgs are passed before the video URL.
	ExtraArgs []string
}

// NewYtdlp creates a yt-dlp backed provider.
func NewYtdlp(path string) *Ytdlp {
	return &Ytdlp{Path: path}
}

// ytdlpVideo is the subset of yt-dlp's info JSON used for notes.
type ytdlpVideo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Channel    string   `json:"channel"`
	Uploader   string   `json:"uploader"`
	Duration   float64  `json:"duration"`
	UploadDate string   `json:"upload_date"` // YYYYMMDD
	Timestamp  int64    `json:"timestamp"`
	Thumbnail  string   `json:"thumbnail"`
	Tags       []string `json:"tags"`
}

func (y *Ytdlp) Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	args := []string{"-J", "--skip-download", "--no-playlist", "--no-warnings"}
	args = append(args, y.ExtraArgs...)
	args = append(args, videoURL)

	cmd := exec.CommandContext(ctx, y.path(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyYtdlp(ctx, videoURL, err, stderr.String())
	}

	var v ytdlpVideo
	if err := json.Unmarshal(stdout.Bytes(), &v); err != nil {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderInvalid, URL: videoURL, Err: fmt.Errorf("parse yt-dlp output: %w", err)}
	}
	if v.ID == "" {
		return nil, &apperr.ProviderError{Kind: apperr.ProviderInvalid, URL: videoURL, Err: errors.New("yt-dlp output has no id")}
	}
	return v.metadata(), nil
}

func (v ytdlpVideo) metadata() *models.VideoMetadata {
	m := &models.VideoMetadata{
		ID:           v.ID,
		Title:        v.Title,
		Channel:      v.Channel,
		ThumbnailURL: v.Thumbnail,
		Tags:         models.NormalizeTags(v.Tags),
	}
	if m.Channel == "" {
		m.Channel = v.Uploader
	}
	switch {
	case v.Timestamp > 0:
		t := time.Unix(v.Timestamp, 0).UTC()
		m.PublishedAt = &t
	case v.UploadDate != "":
		if t, err := time.Parse("20060102", v.UploadDate); err == nil {
			m.PublishedAt = &t
		}
	}
	if v.Duration > 0 {
		d := int(math.Round(v.Duration))
		m.DurationSeconds = &d
	}
	return m
}

// classifyYtdlp maps a failed yt-dlp run onto a ProviderError kind.
func classifyYtdlp(ctx context.Context, videoURL string, err error, stderr string) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return &apperr.ProviderError{Kind: apperr.ProviderTimeout, URL: videoURL, Err: ctx.Err()}
	case context.Canceled:
		return &apperr.ProviderError{Kind: apperr.ProviderNetwork, URL: videoURL, Err: ctx.Err()}
	}

	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	kind := apperr.ProviderNetwork
	switch {
	case strings.Contains(lower, "private video") || strings.Contains(lower, "sign in to confirm your age") ||
		strings.Contains(lower, "members-only"):
		kind = apperr.ProviderPrivate
	case strings.Contains(lower, "not available in your country") || strings.Contains(lower, "blocked it in your country"):
		kind = apperr.ProviderRegionBlocked
	case strings.Contains(lower, "http error 429") || strings.Contains(lower, "too many requests"):
		kind = apperr.ProviderRateLimited
	case strings.Contains(lower, "video unavailable") || strings.Contains(lower, "has been removed") ||
		strings.Contains(lower, "has been terminated"):
		kind = apperr.ProviderDeleted
	case strings.Contains(lower, "unsupported url") || strings.Contains(lower, "is not a valid url") ||
		strings.Contains(lower, "incomplete youtube id"):
		kind = apperr.ProviderInvalid
	}
	if msg != "" {
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = msg[i+1:]
		}
		err = fmt.Errorf("yt-dlp failed: %w: %s", err, msg)
	}
	return &apperr.ProviderError{Kind: kind, URL: videoURL, Err: err}
}

func (y *Ytdlp) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}
