package progress

import (
	"log/slog"
)

// Log writes events to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Emit(e Event) {
	switch e.Kind {
	case KindStarted:
		attrs := []any{slog.String("run_id", e.RunID), slog.String("playlist", e.Playlist)}
		if e.TotalKnown != nil {
			attrs = append(attrs, slog.Int("total", *e.TotalKnown))
		}
		l.Logger.Info("run: started", attrs...)
	case KindItem:
		attrs := []any{
			slog.String("run_id", e.RunID),
			slog.String("video_id", e.VideoID),
			slog.Int("position", e.Position),
			slog.String("outcome", string(e.Outcome)),
		}
		if e.Reason != "" {
			attrs = append(attrs, slog.String("reason", e.Reason))
			l.Logger.Warn("run: item", attrs...)
			return
		}
		l.Logger.Debug("run: item", attrs...)
	case KindFinished:
		r := e.Report
		if r == nil {
			return
		}
		attrs := []any{
			slog.String("run_id", r.RunID),
			slog.Int("processed", r.Processed),
			slog.Int("skipped", r.Skipped),
			slog.Int("failed", len(r.Failed)),
			slog.Bool("partial", r.Partial),
		}
		if r.Fatal != "" {
			l.Logger.Error("run: finished", append(attrs, slog.String("fatal", r.Fatal))...)
			return
		}
		l.Logger.Info("run: finished", attrs...)
	}
}
