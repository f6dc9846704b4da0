// Package provider fetches per-video metadata from YouTube.
package provider

import (
	"context"

	"github.com/starford/tubenotes/internal/models"
)

// Provider fetches metadata for a single video. Calls are independent and
// read-only; failures are *apperr.ProviderError.
type Provider interface {
	Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error)
}

// Func adapts a function to Provider.
type Func func(ctx context.Context, videoURL string) (*models.VideoMetadata, error)

func (f Func) Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	return f(ctx, videoURL)
}
