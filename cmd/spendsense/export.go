package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"spendsense/internal/app"
	"spendsense/internal/infra"
	"spendsense/internal/storage"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		uid, dir string
		keep     int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of a user's records, bills, budgets and flows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := app.NewBootstrap(c.cfg)
			defer b.Close()
			if err := b.OpenStore(cmd.Context()); err != nil {
				return err
			}

			snap, err := b.Store.CreateSnapshot(cmd.Context(), uid)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = filepath.Join(infra.GetWorkspaceDir(), "exports")
			}
			sm := storage.NewSnapshotManager(dir)
			path, err := sm.Save(snap)
			if err != nil {
				return err
			}
			if keep > 0 {
				if err := sm.Cleanup(uid, keep); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📁 Exported %d records, %d bills, %d budgets, %d flows to %s\n",
				len(snap.Records), len(snap.Bills), len(snap.Budgets), len(snap.Flows), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "User to export")
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory (default <workspace>/exports)")
	cmd.Flags().IntVar(&keep, "keep", 5, "Exports to keep per user (0 keeps all)")
	cmd.MarkFlagRequired("uid")
	return cmd
}
