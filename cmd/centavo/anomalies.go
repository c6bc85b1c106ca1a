package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/engine"
)

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Inspect unusual spending",
	}

	cmd.AddCommand(anomaliesCheckCmd())

	return cmd
}

func anomaliesCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [expense-id]",
		Short: "Check recent expenses against the trained detector",
		Long: `Evaluate recent expenses against the anomaly detector and list the
ones that look unusual. With an expense id only that expense is
checked. Train the detector first with 'centavo train --anomaly'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnomaliesCheck,
	}

	cmd.Flags().Int("limit", 50, "number of recent expenses to check")
	cmd.Flags().Bool("all", false, "show normal expenses too, not only anomalies")

	return cmd
}

func runAnomaliesCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	showAll, _ := cmd.Flags().GetBool("all")

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	var findings []engine.AnomalyFinding
	if len(args) == 1 {
		finding, err := eng.CheckExpense(ctx, userID, args[0])
		if err != nil {
			return err
		}
		findings = []engine.AnomalyFinding{*finding}
		showAll = true
	} else {
		findings, err = eng.CheckAnomalies(ctx, userID, limit)
		if err != nil {
			return err
		}
	}

	anomalous := 0
	for i := range findings {
		f := &findings[i]
		if !f.Report.IsAnomalous && !showAll {
			continue
		}
		printFinding(f)
		if f.Report.IsAnomalous {
			anomalous++
		}
	}

	if anomalous == 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("No anomalies in the last %d expenses", len(findings)))) //nolint:forbidigo // User-facing output
	} else {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d of %d expenses look unusual", anomalous, len(findings)))) //nolint:forbidigo // User-facing output
	}

	return nil
}

func printFinding(f *engine.AnomalyFinding) {
	if f.Report.IsAnomalous {
		fmt.Printf("%s %s %s %s  %s %s\n", //nolint:forbidigo // User-facing output
			cli.AlertIcon,
			cli.SubtleStyle.Render(f.Expense.Date.Format("2006-01-02")),
			cli.FormatAmount(f.Expense.Amount),
			cli.FormatSeverity(f.Report.Severity),
			f.Expense.Description,
			cli.ErrorStyle.Render(f.Report.Reason))
		return
	}

	reason := f.Report.Reason
	if f.Report.Degraded {
		reason = cli.WarningStyle.Render(reason)
	}
	fmt.Printf("   %s %s  %s %s\n", //nolint:forbidigo // User-facing output
		cli.SubtleStyle.Render(f.Expense.Date.Format("2006-01-02")),
		cli.FormatAmount(f.Expense.Amount),
		f.Expense.Description,
		cli.SubtleStyle.Render(reason))
}
