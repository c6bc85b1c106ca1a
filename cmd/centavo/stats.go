package main

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/report"
)

var hundred = decimal.NewFromInt(100)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recent spending",
		RunE:  runStats,
	}

	cmd.Flags().Int("days", report.DefaultWindowDays, "trailing window in days")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("days")

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	stats, err := eng.Stats(ctx, userID, days)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Last %d days", cli.ChartIcon, stats.WindowDays))) //nolint:forbidigo // User-facing output

	if stats.ExpenseCount == 0 {
		fmt.Println(cli.FormatInfo("No expenses in the window")) //nolint:forbidigo // User-facing output
		return nil
	}

	fmt.Printf("Total:          %s across %d expenses\n", //nolint:forbidigo // User-facing output
		cli.BoldStyle.Render("$"+stats.Total.StringFixed(2)), stats.ExpenseCount)
	fmt.Printf("Daily average:  $%s\n", stats.DailyAverage.StringFixed(2))                  //nolint:forbidigo // User-facing output
	fmt.Printf("Recurring:      %d distinct descriptions\n\n", stats.RecurringDescriptions) //nolint:forbidigo // User-facing output

	fmt.Println(cli.TableHeaderStyle.Render("by category")) //nolint:forbidigo // User-facing output
	for _, category := range model.AllCategories() {
		total, ok := stats.ByCategory[category]
		if !ok {
			continue
		}
		share := 0.0
		if !stats.Total.IsZero() {
			share, _ = total.Div(stats.Total).Mul(hundred).Float64()
		}
		fmt.Printf("%-12s %10s  %5.1f%%\n", //nolint:forbidigo // User-facing output
			cli.FormatCategory(category), "$"+total.StringFixed(2), share)
	}

	fmt.Println()                                          //nolint:forbidigo // User-facing output
	fmt.Println(cli.TableHeaderStyle.Render("by weekday")) //nolint:forbidigo // User-facing output
	weekdays := sortedKeys(stats.ByWeekday)
	for _, wd := range weekdays {
		fmt.Printf("%-12s %10s\n", //nolint:forbidigo // User-facing output
			model.SpanishWeekdays[wd], "$"+stats.ByWeekday[wd].StringFixed(2))
	}

	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
