// Package engine runs one synthesis pass over a playlist: resolve, skip what
// is already on disk, fetch and render the rest, then regenerate the index.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/notefmt"
	"github.com/starford/tubenotes/internal/progress"
	"github.com/starford/tubenotes/internal/provider"
	"github.com/starford/tubenotes/internal/resolver"
	"github.com/starford/tubenotes/internal/videoid"
)

// NoteStore is the persistence the engine needs.
type NoteStore interface {
	Exists(videoID string) (bool, error)
	ReadRecord(videoID string) (*models.NoteRecord, error)
	ReadNote(videoID string) ([]byte, error)
	Write(videoID string, content []byte) (*models.NoteRecord, bool, error)
	WriteIndex(idx models.IndexNote) (string, error)
}

// Config controls one engine.
type Config struct {
	// ForceRefresh re-fetches and re-renders every video, even ones on record.
	ForceRefresh bool
	// Concurrency bounds in-flight fetches. Values below 1 mean 1.
	Concurrency int
}

// Engine synthesizes notes for playlists.
type Engine struct {
	resolver resolver.Resolver
	provider provider.Provider
	store    NoteStore
	cfg      Config

	reporter progress.Reporter
	drain    time.Duration
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Reporters run behind a queue of eventQueueSize events. At the end of a run
// the queue gets defaultReporterDrain to empty before Run returns.
const (
	eventQueueSize       = 256
	defaultReporterDrain = 2 * time.Second
)

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sets the progress reporter.
func WithReporter(r progress.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithReporterDrain bounds how long Run waits for the reporter to take the
// remaining events.
func WithReporterDrain(d time.Duration) Option {
	return func(e *Engine) { e.drain = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunID overrides run ID generation.
func WithRunID(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an Engine.
func New(r resolver.Resolver, p provider.Provider, store NoteStore, cfg Config, opts ...Option) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	e := &Engine{
		resolver: r,
		provider: p,
		store:    store,
		cfg:      cfg,
		reporter: progress.Nop{},
		drain:    defaultReporterDrain,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// slot holds the result for one reference. Slots are allocated in playlist
// order, so reading them back in order is independent of completion order.
type slot struct {
	ref       models.VideoReference
	id        string
	outcome   models.Outcome
	reason    string
	link      models.IndexLink
	abandoned bool
}

func (s *slot) fail(reason string) {
	s.outcome = models.OutcomeFailed
	s.reason = reason
}

func (s *slot) failureRef() string {
	if s.id != "" {
		return s.id
	}
	return s.ref.URL
}

// run is the state of one Run call.
type run struct {
	*Engine
	id  string
	rep *progress.Async
}

func (r *run) emit(ev progress.Event) {
	r.rep.Emit(ev)
}

func (r *run) emitItem(s *slot) {
	r.emit(progress.Item(r.id, s.id, s.ref.URL, s.ref.Position, s.outcome, s.reason))
}

// Run synthesizes notes for every member of the playlist ref and rewrites
// its index note. A cancelled ctx stops dispatching and yields a partial
// report with a nil error. Resolution failures return a
// *apperr.ResolutionError and leave the index untouched; an index write
// failure returns a *apperr.StoreError.
func (e *Engine) Run(ctx context.Context, ref string) (*models.RunReport, error) {
	r := &run{
		Engine: e,
		id:     e.newID(),
		rep:    progress.NewAsync(progress.Safe{Inner: e.reporter, Logger: e.logger}, eventQueueSize, e.logger),
	}
	defer r.rep.Close(e.drain)
	report := &models.RunReport{RunID: r.id, Playlist: ref, StartedAt: e.now()}
	logger := e.logger.With(slog.String("run_id", r.id))

	finish := func() {
		report.FinishedAt = e.now()
		r.emit(progress.Finished(report))
	}

	listing, err := e.resolver.Resolve(ctx, ref)
	if err != nil {
		report.Fatal = "resolve: " + err.Error()
		finish()
		return report, err
	}
	defer listing.Close()

	logger.Info("engine: resolved",
		slog.String("playlist", listing.ID),
		slog.String("title", listing.Title),
		slog.Int("total", listing.Total))
	r.emit(progress.Started(r.id, ref, listing.KnownTotal()))

	var (
		slots      []*slot
		seen       = make(map[string]struct{})
		sem        = semaphore.NewWeighted(int64(e.cfg.Concurrency))
		g          errgroup.Group
		resolveErr error
	)

	for vref, err := range listing.All() {
		if err != nil {
			resolveErr = err
			break
		}
		// Waiting for a free slot first means a cancellation observed by the
		// previous reference is seen before this one is dispatched.
		if err := sem.Acquire(ctx, 1); err != nil {
			report.Partial = true
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			report.Partial = true
			break
		}

		s := &slot{ref: vref}
		id, err := videoid.FromURL(vref.URL)
		if err != nil {
			s.fail(err.Error())
			slots = append(slots, s)
			r.emitItem(s)
			sem.Release(1)
			continue
		}
		if _, dup := seen[id]; dup {
			logger.Debug("engine: duplicate entry ignored", slog.String("video_id", id), slog.Int("position", vref.Position))
			sem.Release(1)
			continue
		}
		seen[id] = struct{}{}
		s.id = id
		slots = append(slots, s)

		if !e.cfg.ForceRefresh {
			exists, err := e.store.Exists(id)
			if err != nil {
				s.fail(err.Error())
				r.emitItem(s)
				sem.Release(1)
				continue
			}
			if exists {
				r.skipExisting(s)
				r.emitItem(s)
				sem.Release(1)
				continue
			}
		}

		g.Go(func() error {
			defer sem.Release(1)
			r.synthesize(ctx, s)
			if !s.abandoned {
				r.emitItem(s)
			}
			return nil
		})
	}
	_ = g.Wait()

	if resolveErr != nil && ctx.Err() != nil {
		resolveErr = nil
		report.Partial = true
	}
	if ctx.Err() != nil {
		report.Partial = true
	}

	var links []models.IndexLink
	for _, s := range slots {
		switch {
		case s.abandoned:
		case s.outcome == models.OutcomeProcessed:
			report.Processed++
			links = append(links, s.link)
		case s.outcome == models.OutcomeSkipped:
			report.Skipped++
			links = append(links, s.link)
		case s.outcome == models.OutcomeFailed:
			report.Failed = append(report.Failed, models.Failure{Ref: s.failureRef(), Reason: s.reason})
		}
	}

	if resolveErr != nil {
		report.Fatal = "resolve: " + resolveErr.Error()
		logger.Error("engine: resolution failed mid-stream", slog.String("error", resolveErr.Error()))
		finish()
		return report, resolveErr
	}

	idx := models.IndexNote{
		Title:      listing.Title,
		PlaylistID: listing.ID,
		Source:     ref,
		Links:      links,
	}
	if idx.Title == "" {
		idx.Title = ref
	}
	path, err := e.store.WriteIndex(idx)
	if err != nil {
		var se *apperr.StoreError
		if !errors.As(err, &se) {
			err = &apperr.StoreError{Op: "write index", Err: err}
		}
		report.Fatal = "index: " + err.Error()
		logger.Error("engine: index write failed", slog.String("error", err.Error()))
		finish()
		return report, err
	}
	report.IndexPath = path

	finish()
	return report, nil
}

// skipExisting fills s from the note already on disk.
func (r *run) skipExisting(s *slot) {
	rec, err := r.store.ReadRecord(s.id)
	if err != nil || rec == nil {
		if err == nil {
			err = apperr.ErrNotFound
		}
		s.fail(err.Error())
		return
	}
	s.outcome = models.OutcomeSkipped
	s.link = models.IndexLink{VideoID: s.id, Path: rec.FilePath, Title: s.id}

	data, err := r.store.ReadNote(s.id)
	if err != nil {
		r.logger.Warn("engine: read existing note failed",
			slog.String("video_id", s.id),
			slog.String("error", err.Error()))
		return
	}
	meta, err := notefmt.Parse(data)
	if err != nil {
		r.logger.Warn("engine: existing note unreadable",
			slog.String("video_id", s.id),
			slog.String("path", rec.FilePath),
			slog.String("error", err.Error()))
		return
	}
	s.link = linkFor(*meta, rec.FilePath)
	s.link.VideoID = s.id
}

// synthesize fetches, renders and stores the note for s.
func (r *run) synthesize(ctx context.Context, s *slot) {
	meta, err := r.provider.Fetch(ctx, s.ref.URL)
	if err != nil {
		if ctx.Err() != nil {
			s.abandoned = true
			return
		}
		s.fail(err.Error())
		return
	}

	m := *meta
	m.ID = s.id
	if m.Title == "" {
		m.Title = s.id
	}
	if m.ThumbnailURL == "" {
		m.ThumbnailURL = videoid.DefaultThumbnail(s.id)
	}

	rec, changed, err := r.store.Write(s.id, notefmt.Render(m))
	if err != nil {
		s.fail(err.Error())
		return
	}
	s.outcome = models.OutcomeSkipped
	if changed || r.cfg.ForceRefresh {
		s.outcome = models.OutcomeProcessed
	}
	s.link = linkFor(m, rec.FilePath)
}

func linkFor(m models.VideoMetadata, path string) models.IndexLink {
	title := m.Title
	if title == "" {
		title = m.ID
	}
	return models.IndexLink{
		VideoID:         m.ID,
		Path:            path,
		Title:           title,
		DurationSeconds: m.DurationSeconds,
		ThumbnailURL:    m.ThumbnailURL,
	}
}
