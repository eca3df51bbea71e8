package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"spendsense/internal/app"
	"spendsense/internal/classify"
)

const predictTopN = 3

func newPredictCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Interactively predict the category of SMS text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := app.NewBootstrap(c.cfg)
			defer b.Close()
			if err := b.InitClassifier(); err != nil {
				return err
			}
			return predictLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), b.Categorizer)
		},
	}
}

// predictLoop prints the top categories for each line until exit, quit or EOF.
func predictLoop(ctx context.Context, in io.Reader, out io.Writer, cat *classify.Categorizer) error {
	fmt.Fprintln(out, "\n🔮 SMS Category Predictor")
	fmt.Fprintln(out, "Type 'exit' to quit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n📨 Enter SMS text: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "exit", "quit":
			fmt.Fprintln(out, "👋 Exiting.")
			return nil
		case "":
			continue
		}

		preds, err := cat.Top(ctx, text, predictTopN)
		if err != nil {
			fmt.Fprintf(out, "❌ Prediction failed: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "\n🔍 Prediction Results:")
		for _, p := range preds {
			fmt.Fprintf(out, "• %s: %.2f%%\n", p.Label, p.Confidence*100)
		}
		fmt.Fprintln(out, "\n"+strings.Repeat("-", 40))
	}
}
