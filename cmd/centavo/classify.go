package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Predict a category without recording anything",
		Long: `Run the trained classifier against a description and show the
predicted category with its confidence. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Float64("amount", 0, "expense amount, improves the prediction")
	cmd.Flags().Bool("keywords", false, "use only the keyword detector, skipping the trained model")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	amount, _ := cmd.Flags().GetFloat64("amount")
	keywordsOnly, _ := cmd.Flags().GetBool("keywords")

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	description := args[0]

	if keywordsOnly {
		match := eng.ClassifyKeywords(description)
		if match == nil {
			fmt.Println(cli.FormatInfo("No keyword matched")) //nolint:forbidigo // User-facing output
			return nil
		}
		fmt.Printf("%s %s (%s)\n", //nolint:forbidigo // User-facing output
			cli.BrainIcon,
			cli.FormatCategory(match.Category),
			cli.FormatConfidence(match.Confidence))
		return nil
	}

	result := eng.Classify(ctx, userID, description, amount, time.Now())

	fmt.Printf("%s %s (%s, via %s)\n", //nolint:forbidigo // User-facing output
		cli.BrainIcon,
		cli.FormatCategory(result.Category),
		cli.FormatConfidence(result.Confidence),
		result.Source)
	if result.Degraded {
		fmt.Println(cli.FormatWarning("No trained model available; this is the default guess")) //nolint:forbidigo // User-facing output
	}

	return nil
}
