package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	verbose     bool
	noColor     bool
	databaseURL string
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "talentctl",
	Short: "Operate the talent assessment pipeline",
	Long: `talentctl migrates the pipeline schema, seeds program definitions from YAML
and prints funnel reports. It reads the same TALENT_* environment as the API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database DSN (overrides TALENT_DATABASE_URL)")
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	return cfg, nil
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return db, nil
}
