package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"AgenticDigest/internal/app"
	"AgenticDigest/internal/config"
	"AgenticDigest/internal/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage: digest [-config path] <command> [flags]

commands:
  ingest       fetch feeds and store new articles        [--limit N]
  summarize    summarize pending articles                [--limit N] [--category C]
  render       render the digest                         [--limit N] [--format html|pdf|markdown] [--output path]
  resummarize  reset and re-summarize recent articles    [--limit N]
  schedule     run ingest, summarize and render on cron  [--once]
  serve        serve the digest over HTTP                [--addr :8080]
  stats        print record store counts

Flag defaults come from the config file (ingest.limit, summarize.limit,
render.limit, render.format, render.output, server.addr).
`

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("digest", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "path to config.yaml")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "digest: %v\n", err)
		return exitFailure
	}

	// Flag defaults come from the loaded config.
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	exec := cmd(fs, cfg)
	if err := fs.Parse(rest); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "%s: unexpected arguments %v\n", name, fs.Args())
		return exitUsage
	}

	logger := logging.NewWithFormat(stderr, cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return exitFailure
	}
	defer application.Close()

	if err := exec(ctx, application, stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return exitUsage
		}
		logger.Error("command failed", "command", name, "error", err)
		return exitFailure
	}
	return exitOK
}

type action func(ctx context.Context, a *app.Application, out io.Writer) error

// commands registers each subcommand's flags, defaulted from cfg, and
// returns its action.
var commands = map[string]func(fs *flag.FlagSet, cfg config.Config) action{
	"ingest": func(fs *flag.FlagSet, cfg config.Config) action {
		limit := fs.Int("limit", cfg.Ingest.Limit, "entries per feed")
		return func(ctx context.Context, a *app.Application, out io.Writer) error {
			if *limit < 0 {
				return fmt.Errorf("%w: --limit must be >= 0", errUsage)
			}
			report, err := a.Ingest(ctx, *limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "run %s: %d entries, %d stored, %d duplicates, %d skipped\n",
				report.RunID, report.Entries, report.Inserted, report.Duplicates, report.Skipped)
			return nil
		}
	},
	"summarize": func(fs *flag.FlagSet, cfg config.Config) action {
		limit := fs.Int("limit", cfg.Summarize.Limit, "articles to summarize")
		category := fs.String("category", "", "only summarize this category")
		return func(ctx context.Context, a *app.Application, out io.Writer) error {
			if *limit < 0 {
				return fmt.Errorf("%w: --limit must be >= 0", errUsage)
			}
			report, err := a.Summarize(ctx, *limit, *category)
			if err != nil {
				return err
			}
			printSummarize(out, report.RunID, report.Pending, report.Summarized, report.Failed)
			return nil
		}
	},
	"render": func(fs *flag.FlagSet, cfg config.Config) action {
		limit := fs.Int("limit", cfg.Render.Limit, "summarized articles to include")
		format := fs.String("format", cfg.Render.Format, "html, pdf or markdown")
		output := fs.String("output", cfg.Render.Output, "output path (default output.<format>)")
		return func(ctx context.Context, a *app.Application, out io.Writer) error {
			if *limit < 0 {
				return fmt.Errorf("%w: --limit must be >= 0", errUsage)
			}
			path, err := a.Render(ctx, *limit, *format, *output)
			if path != "" {
				fmt.Fprintf(out, "digest written to %s\n", path)
			}
			return err
		}
	},
	"resummarize": func(fs *flag.FlagSet, cfg config.Config) action {
		limit := fs.Int("limit", cfg.Summarize.Limit, "most recent articles to reset")
		return func(ctx context.Context, a *app.Application, out io.Writer) error {
			if *limit < 0 {
				return fmt.Errorf("%w: --limit must be >= 0", errUsage)
			}
			report, err := a.Resummarize(ctx, *limit)
			if err != nil {
				return err
			}
			printSummarize(out, report.RunID, report.Pending, report.Summarized, report.Failed)
			return nil
		}
	},
	"schedule": func(fs *flag.FlagSet, _ config.Config) action {
		once := fs.Bool("once", false, "run the pipeline once and exit")
		return func(ctx context.Context, a *app.Application, _ io.Writer) error {
			return a.Schedule(ctx, *once)
		}
	},
	"serve": func(fs *flag.FlagSet, cfg config.Config) action {
		addr := fs.String("addr", cfg.Server.Addr, "listen address")
		return func(ctx context.Context, a *app.Application, _ io.Writer) error {
			return a.Serve(ctx, *addr)
		}
	},
	"stats": func(_ *flag.FlagSet, _ config.Config) action {
		return func(ctx context.Context, a *app.Application, out io.Writer) error {
			stats, err := a.Stats(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
	},
}

func printSummarize(out io.Writer, runID string, pending, summarized, failed int) {
	fmt.Fprintf(out, "run %s: %d pending, %d summarized, %d failed\n", runID, pending, summarized, failed)
}
