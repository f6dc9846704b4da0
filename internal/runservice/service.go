// Package runservice serializes sync runs started from the HTTP API, the MCP
// server and the scheduler: at most one run is active at a time.
package runservice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
)

// RunFunc performs one run. force requests a full refresh.
type RunFunc func(ctx context.Context, ref string, force bool) (*models.RunReport, error)

// Status describes the current and the last finished run.
type Status struct {
	Running   bool              `json:"running"`
	Ref       string            `json:"ref,omitempty"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	Last      *models.RunReport `json:"last,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

// Service owns the single run slot.
type Service struct {
	run    RunFunc
	logger *slog.Logger
	base   context.Context

	mu        sync.Mutex
	running   bool
	ref       string
	startedAt time.Time
	cancel    context.CancelFunc
	last      *models.RunReport
	lastErr   error

	wg sync.WaitGroup
}

// New creates a Service. Background runs inherit base, so cancelling it
// stops them.
func New(base context.Context, run RunFunc, logger *slog.Logger) *Service {
	return &Service{run: run, logger: logger, base: base}
}

func (s *Service) acquire(parent context.Context, ref string) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, apperr.ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.ref = ref
	s.startedAt = time.Now()
	s.cancel = cancel
	return ctx, nil
}

func (s *Service) release(report *models.RunReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
	s.ref = ""
	s.cancel = nil
	if report != nil {
		s.last = report
	}
	s.lastErr = err
}

// Start launches a run in the background. It fails with
// apperr.ErrRunInProgress while another run is active.
func (s *Service) Start(ref string, force bool) error {
	ctx, err := s.acquire(s.base, ref)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report, err := s.run(ctx, ref, force)
		if err != nil {
			s.logger.Error("runservice: run failed", slog.String("ref", ref), slog.String("error", err.Error()))
		}
		s.release(report, err)
	}()
	return nil
}

// RunSync performs a run and waits for it. ctx cancels only this run.
func (s *Service) RunSync(ctx context.Context, ref string, force bool) (*models.RunReport, error) {
	runCtx, err := s.acquire(ctx, ref)
	if err != nil {
		return nil, err
	}
	report, err := s.run(runCtx, ref, force)
	s.release(report, err)
	return report, err
}

// Cancel stops the active run. It returns false when nothing is running.
func (s *Service) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Status returns a snapshot of the service state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Running: s.running, Ref: s.ref, Last: s.last}
	if s.running {
		t := s.startedAt
		st.StartedAt = &t
	}
	if s.lastErr != nil && !errors.Is(s.lastErr, context.Canceled) {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Wait blocks until background runs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
