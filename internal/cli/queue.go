package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
	"github.com/spf13/cobra"
)

type QueueOptions struct {
	*RootOptions
	Path   string
	Status string
	Limit  int
}

func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain the offline clock-action queue",
	}
	cmd.PersistentFlags().StringVar(&opts.Path, "queue", "", "queue database path (defaults to OFFLINE_QUEUE_PATH)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count pending and failed actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueStats(cmd, opts)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List queued actions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(cmd, opts)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "pending|failed")
	list.Flags().IntVar(&opts.Limit, "limit", 50, "maximum actions to list (0 for all)")

	drain := &cobra.Command{
		Use:   "drain",
		Short: "Replay pending actions into the ledger now",
		Long: `Replay pending actions into the ledger in queue order. The drain stops at
the first storage failure; actions the ledger rejects are marked failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueDrain(cmd, opts)
		},
	}

	cmd.AddCommand(stats, list, drain)
	return cmd
}

func (o *QueueOptions) open() (*offline.Queue, error) {
	path := o.Path
	if path == "" {
		cfg, err := o.LoadConfig()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.Offline.QueuePath
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no queue configured: pass --queue or set OFFLINE_QUEUE_PATH")
	}
	q, err := offline.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open queue", err)
	}
	return q, nil
}

func runQueueStats(cmd *cobra.Command, opts *QueueOptions) error {
	q, err := opts.open()
	if err != nil {
		return err
	}
	defer q.Close()

	stats, err := q.Stats(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}
	return emit(cmd.OutOrStdout(), opts.Format, stats, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "pending\t%d\n", stats.Pending)
		fmt.Fprintf(tw, "failed\t%d\n", stats.Failed)
	})
}

func runQueueList(cmd *cobra.Command, opts *QueueOptions) error {
	var status *offline.Status
	switch opts.Status {
	case "":
	case string(offline.StatusPending), string(offline.StatusFailed):
		s := offline.Status(opts.Status)
		status = &s
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be pending or failed", opts.Status))
	}

	q, err := opts.open()
	if err != nil {
		return err
	}
	defer q.Close()

	actions, err := q.List(cmd.Context(), status, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}
	return emit(cmd.OutOrStdout(), opts.Format, actions, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tEMPLOYEE\tKIND\tTIMESTAMP\tSTATUS\tATTEMPTS\tLAST ERROR")
		for _, a := range actions {
			lastErr := ""
			if a.LastError != nil {
				lastErr = *a.LastError
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
				a.ID, a.EmployeeID, a.Kind, a.Timestamp.Format(time.RFC3339), a.Status, a.Attempts, lastErr)
		}
	})
}

func runQueueDrain(cmd *cobra.Command, opts *QueueOptions) error {
	ctx := cmd.Context()
	svc, closeFn, err := opts.services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	q := svc.Queue
	if opts.Path != "" {
		if q, err = opts.open(); err != nil {
			return err
		}
		defer q.Close()
	}
	if q == nil {
		return NewExitError(ExitCommandError, "no queue configured: pass --queue or set OFFLINE_QUEUE_PATH")
	}

	res, err := cron.NewOfflineJobs(q, svc.Ledger).Replay(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "drain failed", err)
	}

	err = emit(cmd.OutOrStdout(), opts.Format, res, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "submitted\t%d\n", res.Submitted)
		fmt.Fprintf(tw, "failed\t%d\n", res.Failed)
		fmt.Fprintf(tw, "stopped\t%t\n", res.Stopped)
	})
	if err != nil {
		return err
	}
	if res.Stopped {
		return NewExitError(ExitFailure, "storage unavailable; pending actions kept")
	}
	return nil
}
