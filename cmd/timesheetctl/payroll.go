package main

import (
	"fmt"
	"io"
	"os"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/timesheet/app"
	"acceptrec.co.uk/timesheets/timesheet/report"
	"acceptrec.co.uk/timesheets/utils"
	"github.com/spf13/cobra"
)

var (
	payrollWeek   string
	payrollFormat string
	payrollOut    string
)

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Print or export the payroll of approved timesheets",
	Args:  cobra.NoArgs,
	RunE:  runPayroll,
}

func init() {
	payrollCmd.Flags().StringVar(&payrollWeek, "week", "", "week start date (yyyy-MM-dd, a Sunday); all weeks when empty")
	payrollCmd.Flags().StringVar(&payrollFormat, "format", "text", "Output format: text, csv, xlsx")
	payrollCmd.Flags().StringVar(&payrollOut, "out", "", "write to this file instead of stdout")
}

func runPayroll(cmd *cobra.Command, args []string) error {
	if payrollWeek != "" && !utils.IsWeekStart(payrollWeek) {
		return fmt.Errorf("--week %q is not a Sunday in yyyy-MM-dd format", payrollWeek)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log.Level)
	logger.SetOutput(cmd.ErrOrStderr())
	a, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	weeks, err := a.Service.Payroll(cmd.Context(), operator, payrollWeek)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if payrollOut != "" {
		f, err := os.Create(payrollOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch payrollFormat {
	case "text":
		return report.WriteText(out, weeks)
	case "csv":
		data, err := report.CSV(weeks)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "xlsx":
		if payrollOut == "" {
			return fmt.Errorf("--out is required for xlsx")
		}
		data, err := report.Workbook(weeks)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q, expected text, csv or xlsx", payrollFormat)
}
