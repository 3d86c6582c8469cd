package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/unity-analyzer/pkg/analysis"
	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/finder"
	"github.com/ritzau/unity-analyzer/pkg/logging"
	"github.com/ritzau/unity-analyzer/pkg/output"
	"github.com/ritzau/unity-analyzer/pkg/watcher"
	"github.com/ritzau/unity-analyzer/pkg/web"
)

const (
	quietPeriod = 1500 * time.Millisecond
	maxWait     = 10 * time.Second
)

func main() {
	f := pflag.NewFlagSet("unity-analyzer", pflag.ExitOnError)
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unity-analyzer [flags] [file.cs ...]\n\n")
		f.PrintDefaults()
	}

	configPath := f.String("config", config.FileName, "Path to the TOML config file")
	f.StringP("workspace", "w", ".", "Path to the Unity project root")
	f.StringSlice("include", []string{"**/*.cs"}, "Glob patterns of scripts to analyze")
	f.StringSlice("exclude", nil, "Glob patterns of scripts to skip")
	f.Int("workers", runtime.NumCPU(), "Number of files analyzed in parallel")
	f.StringP("format", "f", config.FormatText, "Report format: text, json or yaml")
	f.StringP("output", "o", "", "Write the report to a file instead of stdout")
	f.Bool("web", false, "Start web server instead of printing a report")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.Bool("watch", false, "Re-analyze when scripts change")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("log-format", "text", "Log format: text or json")
	f.StringSlice("base-types", nil, "Base types that make a class a component")
	f.StringSlice("asset-base-types", nil, "Base types that make a class a data asset")

	// ExitOnError handles bad flags
	_ = f.Parse(os.Args[1:])

	cfg, err := config.LoadFile(f, *configPath)
	if err != nil {
		logging.Fatal("failed to load configuration", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Configure(cfg.VerboseCnt, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	actx := config.NewContext(cfg)
	files := f.Args()

	switch {
	case cfg.WebMode:
		err = serve(ctx, cfg, actx, files)
	case cfg.Watch:
		err = watch(ctx, cfg, analysis.NewRunner(actx, nil), actx, files)
	default:
		err = report(ctx, cfg, analysis.NewRunner(actx, nil), files)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("unity-analyzer failed", "error", err)
		os.Exit(1)
	}
}

// report runs once and writes the report
func report(ctx context.Context, cfg *config.Config, runner *analysis.Runner, files []string) error {
	res, err := runner.Run(ctx, analysis.Options{Reason: "command line", Files: files})
	if err != nil {
		return err
	}
	return writeReport(cfg, res)
}

func writeReport(cfg *config.Config, res *analysis.Result) error {
	if cfg.Output == "" {
		return output.Write(os.Stdout, cfg.Workspace, res, cfg.Format)
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := output.Write(out, cfg.Workspace, res, cfg.Format); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logging.Info("report written", "path", cfg.Output, "format", cfg.Format)
	return nil
}

// serve starts the web server first, then analyzes in the background so the
// page can follow progress over the status stream
func serve(ctx context.Context, cfg *config.Config, actx *config.Context, files []string) error {
	server := web.NewServer()
	runner := analysis.NewRunner(actx, server)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, cfg.Port)
	})
	g.Go(func() error {
		if cfg.Watch {
			return watch(ctx, cfg, runner, actx, files)
		}
		if _, err := runner.Run(ctx, analysis.Options{Reason: "startup", Files: files}); err != nil {
			// Stays up so the failure is visible in the page
			logging.Warn("initial analysis failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}

// watch analyzes once, then again after every settled burst of script
// changes whose content differs from the previous run
func watch(ctx context.Context, cfg *config.Config, runner *analysis.Runner, actx *config.Context, files []string) error {
	detector := watcher.NewChangeDetector()

	run := func(reason string) {
		res, err := runner.Run(ctx, analysis.Options{Reason: reason, Files: files})
		if err != nil {
			logging.Warn("analysis failed", "reason", reason, "error", err)
			return
		}
		detector.Record(res.Files)
		if !cfg.WebMode {
			if err := writeReport(cfg, res); err != nil {
				logging.Error("could not write report", "error", err)
			}
		}
	}

	fw, err := watcher.NewFileWatcher(actx.Workspace, finder.NewMatcher(actx.Include, actx.Exclude))
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	run("startup")

	for event := range debouncer.Output() {
		change := detector.AnalyzeChanges(event)
		if !change.NeedAnalysis {
			logging.Debug("ignoring unchanged scripts", "paths", len(event.Paths))
			continue
		}
		logging.Info("scripts changed",
			"type", event.Type.String(),
			"changed", len(change.ChangedFiles),
			"removed", len(change.RemovedFiles),
		)
		run("file change")
	}

	<-fw.Done()
	return ctx.Err()
}
