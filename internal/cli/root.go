// Package cli implements the reconcile command line.
//
// Usage:
//
//	reconcile serve                                  # run the HTTP API
//	reconcile import --account acc-1 --file oct.ofx  # import a statement
//	reconcile lines --account acc-1 --month 2025-10  # list statement lines
//	reconcile candidates <statement-line-id>         # rank candidates
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconcile/internal/application/reconciliation"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

// app carries the global flags shared by every subcommand
type app struct {
	configPath string
	verbose    bool
	out        io.Writer
	logOut     io.Writer
}

// NewRootCmd builds the command tree. Command output goes to out, logs to
// stderr.
func NewRootCmd(out io.Writer) *cobra.Command {
	return newRootCmd(&app{out: out, logOut: os.Stderr})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "reconcile",
		Short: "Bank statement reconciliation",
		Long: `reconcile matches imported bank statement lines against ledger
transactions, lets an operator explain each line with one or more
transactions plus interest, penalty or discount, and commits the result
atomically. Unexplained residuals can be filled with a new transaction or
accepted as an open difference.`,
		SilenceUsage: true,
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "Path to a YAML or TOML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.newServeCmd(),
		a.newImportCmd(),
		a.newLinesCmd(),
		a.newCandidatesCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error
func Execute() {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config. An explicitly passed file must load; the
// default path falls back to environment variables when absent.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadOrEnv_WithPath(a.configPath), nil
}

func (a *app) logger(cfg *config.Config, system string) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if a.verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerTo(a.logOut, loggingCfg).With("system", system)
}

// openService opens the store named in cfg and wraps it in a service. The
// returned func closes the store.
func (a *app) openService(cfg *config.Config, system string) (*reconciliation.Service, *slog.Logger, func(), error) {
	logger := a.logger(cfg, system)
	store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger.With("system", "store"))
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}
	return reconciliation.NewService(store, logger), logger, closeFn, nil
}
