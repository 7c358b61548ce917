package main

import (
	"fmt"

	"acceptrec.co.uk/timesheets/core"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dm, err := core.New(cfg.Database.DSN, 1, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return err
	}
	defer dm.Close()

	if err := dm.AutoMigrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
	return nil
}
