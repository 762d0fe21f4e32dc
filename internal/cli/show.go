package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/adherence"
)

func newShowCommand(a *app) *cobra.Command {
	var nowFlag string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client's periods and adherence counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			now := time.Now()
			if nowFlag != "" {
				t, err := a.parseDay(nowFlag)
				if err != nil {
					return err
				}
				now = t
			}
			result, err := projections.QueryGetClientPeriods(cmd.Context(), projections.GetClientPeriodsQuery{
				ClientID: args[0],
				Now:      now,
			}, a.periodsDeps())
			if err != nil {
				return fmt.Errorf("load periods for %s: %w", args[0], err)
			}
			return printPeriods(cmd.OutOrStdout(), result, verbose)
		},
	}
	cmd.Flags().StringVar(&nowFlag, "now", "", "Evaluate as of this date (YYYY-MM-DD) instead of today")
	cmd.Flags().BoolVarP(&verbose, "sessions", "s", false, "List the sessions counted in each period")
	return cmd
}

func printPeriods(out io.Writer, result projections.ClientPeriodsResult, withSessions bool) error {
	c := result.Client
	fmt.Fprintf(out, "Client:    %s (%s)\n", c.Name, c.ID)
	fmt.Fprintf(out, "Joined:    %s\n", c.JoinDate.Format(adherence.DateLayout))
	fmt.Fprintf(out, "Frequency: %d/week\n", c.TrainingFrequency)
	fmt.Fprintf(out, "As of:     %s\n\n", result.Now.Format(adherence.DateLayout))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tPERIOD\tSTART\tEND\tFREQ\tEXPECTED\tCOMPLETED\tMISSED\tSCHEDULED\tOTHER\tRATE")
	for _, p := range result.Periods {
		marker := ""
		if result.HasCurrent && p.Number == result.Current.Number {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			marker,
			p.Number,
			p.StartDate.Format(adherence.DateLayout),
			p.EndDate.Format(adherence.DateLayout),
			p.Frequency,
			p.ExpectedSessions,
			p.CompletedCount,
			p.MissedCount,
			p.ScheduledCount,
			p.OtherCount,
			formatRate(p),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if result.HasCurrent {
		cur := result.Current
		fmt.Fprintf(out, "\nCurrent period: %d (%s to %s), %d of %d sessions completed\n",
			cur.Number,
			cur.StartDate.Format(adherence.DateLayout),
			cur.EndDate.Format(adherence.DateLayout),
			cur.CompletedCount,
			cur.ExpectedSessions,
		)
	} else {
		fmt.Fprintln(out, "\nNo current period")
	}

	if withSessions {
		return printSessions(out, result.Periods)
	}
	return nil
}

func printSessions(out io.Writer, periods []adherence.Period) error {
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tDATE\tTIME\tSTATUS\tCOUNTED AS\tID")
	for _, p := range periods {
		for _, cs := range p.Sessions {
			s := cs.Session
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				p.Number,
				s.Date.Format(adherence.DateLayout),
				orDash(s.StartTime),
				s.Status,
				cs.Bucket,
				s.ID,
			)
		}
	}
	return tw.Flush()
}

func formatRate(p adherence.Period) string {
	if p.ExpectedSessions <= 0 {
		return "-"
	}
	return strconv.Itoa(int(p.AdherenceRate()*100+0.5)) + "%"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
