package main

import (
	"fmt"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"github.com/spf13/cobra"
)

var hoursCmd = &cobra.Command{
	Use:     "hours START END [BREAK]",
	Short:   "Worked hours of a shift, e.g. hours 22:00 06:00 30",
	Args:    cobra.RangeArgs(2, 3),
	RunE:    runHours,
	Example: "  timesheetctl hours 09:00 17:30 30",
}

func runHours(cmd *cobra.Command, args []string) error {
	start, end := args[0], args[1]
	for _, v := range []string{start, end} {
		if !engine.IsTimeOfDay(v) {
			return fmt.Errorf("invalid time %q, expected HH:MM", v)
		}
	}
	breakMinutes := 0
	if len(args) == 3 {
		breakMinutes = engine.ParseBreakMinutes(args[2])
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", engine.ComputeWorkedHours(start, end, breakMinutes))
	return nil
}
