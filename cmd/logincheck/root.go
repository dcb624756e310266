// Package main provides the entry point for the logincheck CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohelgravityer/marketeers-login-check/internal/log"
)

// NewRootCmd creates the root command for logincheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logincheck",
		Short: "End-to-end login flow checker for the Marketeers agency portal",
		Long: `logincheck drives a real Chrome instance against the agency login
page, submits the configured credential pair, and reports whether the
flow still reaches the dashboard.

A check has three possible verdicts: pass (dashboard reached), fail
(the application rejected or mishandled the login), and inconclusive
(the environment prevented evaluation, e.g. the page never loaded).
Inconclusive runs do not implicate the product.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger creates the credential-masking structured logger.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			verbose = false
		}
	}
	return log.NewLogger(os.Stderr, verbose)
}
