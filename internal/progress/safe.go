package progress

import (
	"fmt"
	"log/slog"
)

// Safe shields the caller from a misbehaving reporter: a panic inside Emit
// is recovered and logged.
type Safe struct {
	Inner  Reporter
	Logger *slog.Logger
}

func (s Safe) Emit(e Event) {
	if s.Inner == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && s.Logger != nil {
			s.Logger.Error("progress: reporter panicked",
				slog.String("event", string(e.Kind)),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	s.Inner.Emit(e)
}
