package internal

import (
	"io"

	"github.com/starford/tubenotes/internal/progress"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	reporter  progress.Reporter
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects the JSON log stream. The default is stdout for
// serve and stderr for sync and mcp.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithReporter adds a progress reporter to sync runs.
func WithReporter(r progress.Reporter) Option {
	return func(a *application) {
		a.reporter = r
	}
}
