// Package main is the entry point for the spendsense binary.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spendsense/internal/app"
	"spendsense/internal/infra"
)

// cli carries the flags shared by every command and the loaded config.
type cli struct {
	configPath string
	addr       string
	logLevel   string
	dbDriver   string

	cfg *infra.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command; without a subcommand it serves the API.
func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "spendsense",
		Short: "SMS expense tracking backend",
		Long: `SpendSense turns bank SMS into categorised transactions, detects bill
reminders, tracks budgets and streams updates to connected clients.

Example:
  spendsense serve --addr :5000
  spendsense dataset clean --in raw.csv --out clean.csv --reclassify`,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
		RunE:              c.runServe,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Path to configuration file (YAML)")
	pf.StringVarP(&c.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&c.dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	rootCmd.Flags().StringVarP(&c.addr, "addr", "a", "", "Address to listen on")

	rootCmd.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newPredictCmd(c),
		newFlowsCmd(c),
		newDatasetCmd(),
		newExportCmd(c),
	)
	return rootCmd
}

// loadConfig loads the file and environment, then lets flags override both.
func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations["config"] == "skip" {
		return nil
	}
	cfg, err := app.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	overridden := false
	if c.addr != "" {
		cfg.Server.Addr = c.addr
		overridden = true
	}
	if c.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.logLevel)
		overridden = true
	}
	if c.dbDriver != "" {
		cfg.Database.Driver = strings.ToLower(c.dbDriver)
		overridden = true
	}
	if overridden {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		app.SetLogger(cfg)
	}
	c.cfg = cfg
	return nil
}
