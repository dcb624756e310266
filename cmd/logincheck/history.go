package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohelgravityer/marketeers-login-check/internal/config"
	"github.com/rohelgravityer/marketeers-login-check/internal/history"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent check runs for a target",
		Long: `History lists the recorded runs for a target, newest first, so a
failing check can be compared against the recent record before anyone
gets paged.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Config file naming the target and history directory (default: "+config.DefaultConfigFile+")")
	cmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to list (0 for all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigFile
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigNotFound) && !explicit {
		cfg = config.New()
	} else if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if cfg.HistoryDB == "" {
		return errors.New("no history directory configured (set historyDB in the config file)")
	}

	db, err := history.Open(cfg.HistoryDB, history.Options{CreateIfNotExists: false})
	if err != nil {
		return err
	}
	defer db.Close()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runs, err := db.Recent(cmd.Context(), cfg.LoginURL(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no recorded runs for %s\n", cfg.LoginURL())
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s  %8s  %s\n",
			run.StartedAt.Local().Format(time.RFC3339),
			run.Verdict,
			run.Duration.Round(time.Millisecond),
			run.ID,
		)
		if run.Error != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", run.Error)
		}
	}
	return nil
}
