// Package scheduler re-syncs configured playlists on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
)

// Runner performs one synchronous run.
type Runner interface {
	RunSync(ctx context.Context, ref string, force bool) (*models.RunReport, error)
}

// Scheduler runs every configured playlist each time the schedule fires.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	playlists []string
	runner    Runner
	logger    *slog.Logger
	location  *time.Location
}

// New creates a Scheduler. spec is a standard five-field cron expression or
// a descriptor such as "@daily", evaluated in timezone.
func New(spec, timezone string, playlists []string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: loading timezone %q: %w", timezone, err)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: parsing %q: %w", spec, err)
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:      spec,
		playlists: append([]string(nil), playlists...),
		runner:    runner,
		logger:    logger,
		location:  loc,
	}, nil
}

// Run starts the schedule and blocks until ctx is done and the running
// tick, if any, has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("scheduler: adding cron entry: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("cron", s.spec),
		slog.String("timezone", s.location.String()),
		slog.Int("playlists", len(s.playlists)),
	)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Next returns the next activation time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(s.location))
}

// Tick syncs each playlist in order. A playlist whose run fails does not
// stop the others; a run already in progress skips that playlist.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, ref := range s.playlists {
		if ctx.Err() != nil {
			return
		}
		report, err := s.runner.RunSync(ctx, ref, false)
		switch {
		case errors.Is(err, apperr.ErrRunInProgress):
			s.logger.Warn("scheduled run skipped, another run is active", slog.String("ref", ref))
		case err != nil:
			s.logger.Error("scheduled run failed", slog.String("ref", ref), slog.String("error", err.Error()))
		default:
			s.logger.Info("scheduled run finished",
				slog.String("ref", ref),
				slog.Int("processed", report.Processed),
				slog.Int("skipped", report.Skipped),
				slog.Int("failed", len(report.Failed)),
			)
		}
	}
}
