// Package cli implements ledgerctl, the operator command line for the time
// ledger.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/app"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/config"
	"github.com/spf13/cobra"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the hooks commands use to reach the
// application. Tests replace Open and LoadConfig.
type RootOptions struct {
	Verbose bool
	Format  string

	LoadConfig func() (*config.Config, error)
	Open       func(ctx context.Context, cfg *config.Config) (svc *app.Services, closeFn func(), err error)
}

func defaultOpen(verbose bool) func(ctx context.Context, cfg *config.Config) (*app.Services, func(), error) {
	return func(ctx context.Context, cfg *config.Config) (*app.Services, func(), error) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		svc, err := app.New(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc.Close, nil
	}
}

// services loads configuration and opens the application.
func (o *RootOptions) services(ctx context.Context) (*app.Services, func(), error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	open := o.Open
	if open == nil {
		open = defaultOpen(o.Verbose)
	}
	svc, closeFn, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	return svc, closeFn, nil
}

// NewRootCommand creates the ledgerctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the time ledger",
		Long:  "Verify employee chains, inspect work periods and compliance, manage the offline queue and mint test tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewPeriodsCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
