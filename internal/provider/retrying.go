package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/retry"
)

// Retrying bounds every attempt of the wrapped provider with a deadline and
// retries transient failures with exponential backoff.
type Retrying struct {
	inner   Provider
	cfg     retry.Config
	timeout time.Duration
	logger  *slog.Logger
}

// NewRetrying wraps inner. A zero timeout leaves attempts unbounded.
func NewRetrying(inner Provider, cfg retry.Config, timeout time.Duration, logger *slog.Logger) *Retrying {
	return &Retrying{inner: inner, cfg: cfg, timeout: timeout, logger: logger}
}

func (r *Retrying) Fetch(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	var out *models.VideoMetadata
	attempt := 0
	err := retry.Do(ctx, r.cfg, retry.IsRetryable, func(ctx context.Context) error {
		attempt++
		actx, cancel := r.attemptContext(ctx)
		defer cancel()

		m, err := r.inner.Fetch(actx, videoURL)
		if err != nil {
			if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
				err = &apperr.ProviderError{Kind: apperr.ProviderTimeout, URL: videoURL, Err: err}
			}
			if attempt <= r.cfg.MaxRetries && retry.IsRetryable(err) {
				r.logger.Debug("provider: retrying fetch",
					slog.String("url", videoURL),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
			}
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Retrying) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
