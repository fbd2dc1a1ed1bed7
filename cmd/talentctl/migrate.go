package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
)

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the pipeline tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		color.Green("schema is up to date")
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(migrateCmd)
}
