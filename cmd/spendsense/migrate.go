package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendsense/internal/app"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := app.NewBootstrap(c.cfg)
			defer b.Close()
			if err := b.OpenStore(cmd.Context()); err != nil {
				return err
			}
			version, err := b.Store.GetMetadata(cmd.Context(), "schema_version")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema is at version %s (%s)\n", version, b.Store.Dialect())
			return nil
		},
	}
}
