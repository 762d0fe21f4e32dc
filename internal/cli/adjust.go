package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/domain/adherence"
)

// errUsage is returned for arguments cobra's validators cannot check.
var errUsage = errors.New("invalid arguments")

// cliActor is recorded as the author of overrides written from the command line.
const cliActor = "cli"

func newAdjustCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <client-id> <period-number> <YYYY-MM-DD>",
		Short: "Override the start date of a period",
		Long: `Override the start date of a period. Later periods continue from the
new date the next time periods are computed. An existing override for the
same period is replaced.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			n, err := parsePeriodNumber(args[1])
			if err != nil {
				return err
			}
			start, err := a.parseDay(args[2])
			if err != nil {
				return err
			}
			adj, err := orchestrators.ExecuteAdjustPeriodStart(cmd.Context(), orchestrators.AdjustPeriodStartInput{
				ClientID:     args[0],
				PeriodNumber: n,
				StartDate:    start,
				ActorID:      cliActor,
			}, a.adjustDeps())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Period %d of %s now starts %s\n",
				adj.PeriodNumber, adj.ClientID, adj.CustomStartDate.Format(adherence.DateLayout))
			return nil
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <client-id> <period-number>",
		Short: "Remove a period start override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			n, err := parsePeriodNumber(args[1])
			if err != nil {
				return err
			}
			err = orchestrators.ExecuteClearPeriodAdjustment(cmd.Context(), orchestrators.ClearPeriodAdjustmentInput{
				ClientID:     args[0],
				PeriodNumber: n,
				ActorID:      cliActor,
			}, orchestrators.ClearPeriodAdjustmentDeps{AdjustmentStore: a.adjustments})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Period %d of %s reverts to its computed start\n", n, args[0])
			return nil
		},
	}
}

func parsePeriodNumber(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: period number must be a positive integer, got %q", errUsage, value)
	}
	return n, nil
}
