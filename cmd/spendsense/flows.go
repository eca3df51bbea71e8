package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendsense/internal/app"
	"spendsense/internal/flow"
	"spendsense/internal/service"
)

func newFlowsCmd(c *cli) *cobra.Command {
	var uid string
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Describe daily cash flows and answer follow-up questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flows, err := flow.NewBuilder(cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
			if err != nil {
				return err
			}
			if uid == "" || len(flows) == 0 {
				return nil
			}

			b := app.NewBootstrap(c.cfg)
			defer b.Close()
			if err := b.OpenStore(cmd.Context()); err != nil {
				return err
			}
			saved, err := service.NewFlowService(b.Store).Save(cmd.Context(), uid, flows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "💾 Saved %d flow(s) for %s\n", len(saved), uid)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Save the completed flows for this user")
	return cmd
}
