package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spendsense/internal/dataset"
)

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "dataset",
		Short:       "Labelled SMS dataset tools",
		Annotations: map[string]string{"config": "skip"},
	}
	cmd.AddCommand(newDatasetCleanCmd())
	return cmd
}

func newDatasetCleanCmd() *cobra.Command {
	var (
		inPath, outPath string
		reclassify      bool
	)
	cmd := &cobra.Command{
		Use:         "clean",
		Short:       "Normalise, dedupe and filter an SMS,Category CSV",
		Annotations: map[string]string{"config": "skip"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			stats, err := dataset.Clean(in, out, dataset.Options{Reclassify: reclassify})
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✅ Cleaned dataset saved to: %s\n", outPath)
			fmt.Fprintf(w, "📊 Rows after cleaning: %d (read %d, blank %d, duplicate %d, short %d, unknown %d)\n",
				stats.Written, stats.Read, stats.Blank, stats.Duplicates, stats.TooShort, stats.Unknown)
			if reclassify {
				fmt.Fprintf(w, "🔁 Reclassified: %d\n", stats.Reclassified)
			}
			fmt.Fprintf(w, "📚 Categories: %s\n", strings.Join(stats.Labels(), ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "Input CSV")
	cmd.Flags().StringVar(&outPath, "out", "", "Output CSV")
	cmd.Flags().BoolVar(&reclassify, "reclassify", false, "Refine rows labelled Other from their text")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}
