package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/syncer"
)

// ErrSyncFailed is returned when the sync ran but did not succeed. The
// outcome has been printed already.
var ErrSyncFailed = errors.New("sync did not succeed")

func newSyncCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one calendar provider sync and print the outcome",
		Long: `Sign in as the configured user, run one bidirectional sync with the
calendar provider and print the outcome as JSON.

The command exits non-zero unless the sync succeeded. Conflicts are printed
but not resolved; use the MCP conflict tools for that.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runSync(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Collaborator API base URL. Overrides PLANNER_API_URL.")
	cmd.Flags().Int64Var(&opts.userID, "user-id", 0, "User to sync for. Overrides PLANNER_USER_ID.")
	cmd.Flags().StringVar(&opts.username, "username", "", "Username of the user. Overrides PLANNER_USERNAME.")

	return cmd
}

func runSync(ctx context.Context, opts serveOptions, out io.Writer) error {
	logger := logging.NewSlogAdapter(logging.New(os.Stderr, opts.debug))

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.HasUser() {
		return fmt.Errorf("no user configured: set PLANNER_USER_ID or --user-id")
	}

	sc, err := server.NewServerContext(ctx, server.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = sc.Shutdown()
	}()

	if err := sc.BeginConfiguredSession(ctx); err != nil {
		return err
	}

	outcome, err := sc.Session().Sync(ctx)
	if err != nil {
		return err
	}
	return printOutcome(out, outcome)
}

// printOutcome writes the outcome and returns ErrSyncFailed for anything
// but a success.
func printOutcome(out io.Writer, outcome syncer.Outcome) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(syncer.Encode(outcome)); err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	if syncer.Failed(outcome) {
		return ErrSyncFailed
	}
	return nil
}
