package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/model"
)

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Recommend what you are likely to spend on",
		Long: `Derive recommendations from your detected spending patterns:
recurring purchases you will probably make again, and categories you
tend to spend on today's weekday.`,
		RunE: runRecommend,
	}
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	recommendations, err := eng.Recommend(ctx, userID)
	if err != nil {
		return err
	}

	if len(recommendations) == 0 {
		fmt.Println(cli.FormatInfo("No recommendations for today")) //nolint:forbidigo // User-facing output
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Recommendations", cli.BrainIcon))) //nolint:forbidigo // User-facing output
	for i := range recommendations {
		printRecommendation(&recommendations[i])
	}

	return nil
}

func printRecommendation(r *model.Recommendation) {
	fmt.Printf("%s %s %s (%s)\n", //nolint:forbidigo // User-facing output
		cli.FormatCategory(r.Category),
		r.Description,
		cli.SubtleStyle.Render("~"+fmt.Sprintf("$%.2f", r.EstimatedAmount)),
		cli.FormatConfidence(r.Confidence))
	fmt.Println("   " + cli.SubtleStyle.Render(r.Reason)) //nolint:forbidigo // User-facing output
}
