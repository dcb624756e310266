package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rohelgravityer/marketeers-login-check/internal/checker"
	"github.com/rohelgravityer/marketeers-login-check/internal/config"
	"github.com/rohelgravityer/marketeers-login-check/internal/history"
	"github.com/rohelgravityer/marketeers-login-check/internal/report"
)

// errCheckFailed makes the process exit non-zero when any target fails,
// without dumping a stack trace on what is an expected outcome.
var errCheckFailed = errors.New("login check failed")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [config-file...]",
		Short: "Run the login check against one or more configured targets",
		Long: `Check opens the configured login page in Chrome, submits the
known-good credential pair, and classifies the result.

Each positional argument is a YAML config file describing one target.
With no arguments, ` + config.DefaultConfigFile + ` is read if present,
and otherwise the built-in staging defaults are used. LOGINCHECK_*
environment variables override both.

Examples:
  # Check the default staging target
  logincheck check

  # Check a specific target with a Markdown report
  logincheck check staging.yaml --markdown

  # Check several deployments concurrently
  logincheck check eu.yaml us.yaml ap.yaml --batch 3`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().IntP("batch", "b", 1, "Number of concurrent checks")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("exec-path", "",
		"Chrome binary to launch (default: chromedp's lookup)")
	cmd.Flags().Bool("no-headless", false, "Show the browser window")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	configs, err := loadConfigs(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	if batch < 1 {
		batch = 1
	}
	execPath, err := cmd.Flags().GetString("exec-path")
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var failed, inconclusive int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)
	for _, cfg := range configs {
		g.Go(func() error {
			c := checker.New(cfg, logger)
			c.ExecPath = execPath
			run, runErr := c.Run(gctx)

			mu.Lock()
			defer mu.Unlock()
			switch run.Verdict {
			case report.VerdictFail:
				failed++
			case report.VerdictInconclusive:
				inconclusive++
			}
			if runErr != nil {
				logger.Error("check did not complete", "target", run.Target, "error", runErr)
			}
			if err := outputReport(cmd, run); err != nil {
				return err
			}
			return recordRun(gctx, cfg, run, logger)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d targets failed", errCheckFailed, failed, len(configs))
	}
	if inconclusive > 0 {
		return fmt.Errorf("%d of %d targets were inconclusive", inconclusive, len(configs))
	}
	return nil
}

// loadConfigs resolves the target configs from positional args, the default
// config file, or built-in defaults, with environment overrides on top.
func loadConfigs(cmd *cobra.Command, args []string) ([]*config.Config, error) {
	var configs []*config.Config

	if len(args) == 0 {
		cfg, err := config.Load(config.DefaultConfigFile)
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg = config.New()
		} else if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		configs = append(configs, cfg)
	}

	noHeadless, err := cmd.Flags().GetBool("no-headless")
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
		if noHeadless {
			cfg.Headless = false
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}
	return configs, nil
}

// outputReport renders a run in the selected format. Reports go to stdout
// unless --output names a file; concurrent checks append to the same
// writer under the caller's lock.
func outputReport(cmd *cobra.Command, run *report.Run) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch {
	case jsonOut:
		return report.NewJSONWriter(w).Write(run)
	case markdownOut:
		return report.NewMarkdownWriter(w).Write(run)
	default:
		_, err := fmt.Fprintf(w, "%s %s (%s, run %s)\n",
			run.Verdict, run.Target, run.Duration.Round(time.Millisecond), run.ID)
		return err
	}
}

// recordRun appends the run to the history database when one is configured.
func recordRun(ctx context.Context, cfg *config.Config, run *report.Run, logger *slog.Logger) error {
	if cfg.HistoryDB == "" {
		return nil
	}
	db, err := history.Open(cfg.HistoryDB, history.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Save(ctx, run); err != nil {
		return err
	}
	if run.Verdict == report.VerdictFail {
		count, err := db.ConsecutiveFailures(ctx, run.Target)
		if err == nil && count > 1 {
			logger.Warn("target has failed repeatedly", "target", run.Target, "consecutiveFailures", count)
		}
	}
	return nil
}
