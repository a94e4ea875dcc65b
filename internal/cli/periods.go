package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/app"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/spf13/cobra"
)

type PeriodsOptions struct {
	*RootOptions
	From string
	To   string
}

func NewPeriodsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PeriodsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "periods <employee-id>",
		Short: "List corrected work periods of an employee",
		Long: `List the work periods built from an employee's chain with approved
corrections applied. Dates are interpreted in the company's policy time zone
and default to the current week.

Examples:
  ledgerctl periods emp-1 --from 2026-03-02 --to 2026-03-08`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriods(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD")

	return cmd
}

func runPeriods(cmd *cobra.Command, opts *PeriodsOptions, employeeID string) error {
	ctx := cmd.Context()
	svc, closeFn, err := opts.services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	emp, err := svc.Employees.GetByID(ctx, employeeID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load employee", err)
	}
	dates, loc, err := resolveDates(cmd, svc, emp.CompanyID, opts.From, opts.To)
	if err != nil {
		return err
	}

	periods, err := svc.WorkPeriod.BuildPeriods(ctx, employeeID, dates.In(loc))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build periods", err)
	}

	out := make([]workperiod.WorkPeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, workperiod.ToResponse(p))
	}

	return emit(cmd.OutOrStdout(), opts.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "START\tEND\tMINUTES\tSOURCE\tCORRECTED")
		for _, p := range periods {
			end := "open"
			if p.EndTime != nil {
				end = p.EndTime.In(loc).Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\n",
				p.StartTime.In(loc).Format(time.DateTime), end, p.DurationMinutes, p.Source, len(p.Overrides) > 0)
		}
	})
}

// resolveDates parses --from/--to, defaulting to the current week in the
// company's policy zone.
func resolveDates(cmd *cobra.Command, svc *app.Services, companyID, from, to string) (timerange.Dates, *time.Location, error) {
	pol, err := svc.Policies.PolicyFor(cmd.Context(), companyID)
	if err != nil {
		return timerange.Dates{}, nil, WrapExitError(ExitCommandError, "failed to load policy", err)
	}
	loc := pol.Location()

	if from == "" && to == "" {
		return timerange.WeekOf(time.Now(), loc), loc, nil
	}
	if to == "" {
		to = from
	}
	dates, err := timerange.ParseDates(from, to)
	if err != nil {
		return timerange.Dates{}, nil, WrapExitError(ExitCommandError, "invalid date range", err)
	}
	return dates, loc, nil
}
