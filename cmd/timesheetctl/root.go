package main

import (
	"fmt"
	"os"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/security"
	"github.com/spf13/cobra"
)

var configPath string

// operator is the principal the CLI acts as.
var operator = security.Principal{
	UserID: "timesheetctl",
	Name:   "timesheetctl",
	Role:   security.RoleAdmin,
}

var rootCmd = &cobra.Command{
	Use:   "timesheetctl",
	Short: "Operator tools for the Accept Recruitment timesheet service",
	Long: `timesheetctl migrates the database, mints identity tokens and prints the payroll.
Configuration is read the same way as the server: .env, timesheets.yaml and
TIMESHEETS_ environment variables.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(cmd.Context(), configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to timesheets.yaml")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(payrollCmd)
	rootCmd.AddCommand(hoursCmd)
}
