package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh/spinner"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tubenotes/internal"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/progress"
	pkgconfig "github.com/starford/tubenotes/pkg/config"
)

func loadConfig(cmd *cli.Command, optional bool) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.Load[internal.Config]
	if optional {
		load = pkgconfig.LoadOptional[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if len(refs) == 0 {
		return errors.New("sync: at least one playlist URL, playlist ID or video URL is required")
	}

	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	if dir := cmd.String("notes-dir"); dir != "" {
		cfg.Notes.Directory = dir
		cfg.SQLite.Path = ""
	}

	ref := strings.Join(refs, " ")
	force := cmd.Bool("force")

	opts := []internal.Option{internal.WithConfig(cfg)}
	plain := cmd.Bool("plain")
	if plain {
		opts = append(opts, internal.WithReporter(progress.Func(printItem(os.Stdout))))
	}

	sync := func(ctx context.Context) (*models.RunReport, error) {
		return internal.Sync(ctx, ref, force, opts...)
	}

	var report *models.RunReport
	if plain {
		report, err = sync(ctx)
	} else {
		report, err = syncWithSpinner(ctx, sync, func(ctx context.Context, wait func(context.Context) error) error {
			return spinner.New().Title("Syncing " + ref + "...").Context(ctx).ActionWithErr(wait).Run()
		})
	}

	if report != nil {
		printReport(os.Stdout, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncWithSpinner runs sync in the background while spin animates. spin may
// return as soon as ctx is cancelled; the run still finishes its own shutdown
// (partial index included) before syncWithSpinner returns.
func syncWithSpinner(
	ctx context.Context,
	sync func(context.Context) (*models.RunReport, error),
	spin func(ctx context.Context, wait func(context.Context) error) error,
) (*models.RunReport, error) {
	var (
		report *models.RunReport
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = sync(ctx)
	}()

	spinErr := spin(ctx, func(ctx context.Context) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	<-done

	if runErr != nil {
		return report, runErr
	}
	if spinErr != nil && !errors.Is(spinErr, context.Canceled) && !errors.Is(spinErr, context.DeadlineExceeded) {
		return report, spinErr
	}
	return report, nil
}

// printItem writes one line per handled video.
func printItem(w io.Writer) func(progress.Event) {
	return func(e progress.Event) {
		if e.Kind != progress.KindItem {
			return
		}
		line := fmt.Sprintf("%4d  %-9s  %s", e.Position+1, e.Outcome, e.VideoID)
		if e.VideoID == "" {
			line = fmt.Sprintf("%4d  %-9s  %s", e.Position+1, e.Outcome, e.Ref)
		}
		if e.Reason != "" {
			line += "  (" + e.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func printReport(w io.Writer, r *models.RunReport) {
	fmt.Fprintf(w, "Run %s: %d processed, %d skipped, %d failed\n",
		r.RunID, r.Processed, r.Skipped, len(r.Failed))
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  failed %s: %s\n", f.Ref, f.Reason)
	}
	if r.IndexPath != "" {
		fmt.Fprintf(w, "Index: %s\n", r.IndexPath)
	}
	if r.Partial {
		fmt.Fprintln(w, "Run was interrupted; the index lists only the videos handled so far.")
	}
	if r.Fatal != "" {
		fmt.Fprintf(w, "Fatal: %s\n", r.Fatal)
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "tubenotes",
		Usage: "Turn YouTube playlists into linked Markdown notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "sync",
				Usage:     "Synthesize notes for a playlist or a list of video URLs",
				ArgsUsage: "REF...",
				Action:    runSync,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-fetch and rewrite notes that already exist",
					},
					&cli.StringFlag{
						Name:    "notes-dir",
						Usage:   "Notes directory (overrides notes.directory)",
						Sources: cli.EnvVars("TUBENOTES_NOTES_DIR"),
					},
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Disable the progress spinner",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP control API, notes watcher and scheduler",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
