package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/model"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show detected spending patterns",
		Long: `Mine the last 90 days of expenses for recurring purchases and
weekday spending tendencies. Detected patterns are stored, so later
invocations can show them without re-analyzing.`,
		RunE: runPatterns,
	}

	cmd.Flags().Bool("stored", false, "show stored patterns without re-analyzing")

	return cmd
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	stored, _ := cmd.Flags().GetBool("stored")

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	var patterns []model.Pattern
	if stored {
		patterns, err = eng.StoredPatterns(ctx, userID)
	} else {
		patterns, err = eng.AnalyzePatterns(ctx, userID)
	}
	if err != nil {
		return err
	}

	if len(patterns) == 0 {
		fmt.Println(cli.FormatInfo("No patterns detected yet; they need at least 10 expenses in the last 90 days")) //nolint:forbidigo // User-facing output
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Spending Patterns", cli.ChartIcon))) //nolint:forbidigo // User-facing output
	for i := range patterns {
		printPattern(&patterns[i])
	}

	return nil
}

func printPattern(p *model.Pattern) {
	kind := cli.InfoStyle.Render(string(p.Kind))
	fmt.Printf("%s %s (%s)\n", kind, p.Description, cli.FormatConfidence(p.Confidence)) //nolint:forbidigo // User-facing output

	switch p.Kind {
	case model.PatternRecurring:
		fmt.Printf("   %s avg, %d times in 90 days (range $%.2f-$%.2f)\n", //nolint:forbidigo // User-facing output
			cli.FormatAmount(p.AvgAmount),
			p.Data.Occurrences,
			p.Data.MinAmount,
			p.Data.MaxAmount)
	case model.PatternSeasonal:
		fmt.Printf("   %s avg, peak on %s (%.0f%% of the category)\n", //nolint:forbidigo // User-facing output
			cli.FormatAmount(p.AvgAmount),
			model.SpanishWeekdays[p.Data.PeakWeekday],
			p.Frequency*100)
	}
}
