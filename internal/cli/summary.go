package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/spf13/cobra"
)

type SummaryOptions struct {
	*RootOptions
	CompanyID string
	From      string
	To        string
}

func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Evaluate compliance for a company",
		Long: `Evaluate recorded and planned work of every active employee of a company
against its policy. Dates default to the current week.

Examples:
  ledgerctl summary --company co-1
  ledgerctl summary --company co-1 --from 2026-03-02 --to 2026-03-08 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD")

	return cmd
}

func runSummary(cmd *cobra.Command, opts *SummaryOptions) error {
	ctx := cmd.Context()
	svc, closeFn, err := opts.services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	dates, loc, err := resolveDates(cmd, svc, opts.CompanyID, opts.From, opts.To)
	if err != nil {
		return err
	}

	eval, err := svc.Compliance.GetComplianceSummary(ctx, opts.CompanyID, dates)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to evaluate compliance", err)
	}

	return emit(cmd.OutOrStdout(), opts.Format, compliance.ToSummaryResponse(eval), func(tw *tabwriter.Writer) {
		s := eval.Summary
		fmt.Fprintf(tw, "%s %s: %d findings (%d waived)\n\n", opts.CompanyID, dates, s.Total, s.Waived)
		if len(eval.Findings) == 0 {
			return
		}
		fmt.Fprintln(tw, "EMPLOYEE\tRULE\tSEVERITY\tWINDOW\tOVERAGE\tWAIVED")
		for _, f := range eval.Findings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s - %s\t%d %s\t%t\n",
				f.EmployeeID, f.Type, f.Severity,
				f.WindowStart.In(loc).Format("2006-01-02 15:04"), f.WindowEnd.In(loc).Format("2006-01-02 15:04"),
				f.Overage, f.Unit, f.Waived)
		}
	})
}
