package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/model"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the category classifier or the anomaly detector",
		Long: `Retrain models from the recorded expense history. By default the
global classifier trains on every user's labeled expenses; --personal
trains a personal model on yours alone. The live model is replaced
only when training succeeds.`,
		RunE: runTrain,
	}

	cmd.Flags().Bool("personal", false, "train a personal model scoped to the current user")
	cmd.Flags().Bool("anomaly", false, "train the anomaly detector instead of the classifier")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	personal, _ := cmd.Flags().GetBool("personal")
	anomaly, _ := cmd.Flags().GetBool("anomaly")

	scopeUser := ""
	if personal {
		userID, err := currentUser()
		if err != nil {
			return err
		}
		scopeUser = userID
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	if anomaly {
		result, err := eng.TrainAnomaly(ctx, scopeUser)
		if err != nil {
			if errors.Is(err, common.ErrInsufficientData) {
				return fmt.Errorf("not enough expense history to train the anomaly detector: %w", err)
			}
			return err
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf( //nolint:forbidigo // User-facing output
			"Anomaly detector trained on %d expenses (%d category thresholds, %d clusters)",
			result.SampleCount, result.ThresholdsComputed, result.Clusters)))
		return nil
	}

	result, err := eng.TrainClassifier(ctx, scopeUser)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			return fmt.Errorf("not enough labeled expenses to train the classifier: %w", err)
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classifier trained on %d expenses, accuracy %.1f%%", //nolint:forbidigo // User-facing output
		result.SampleCount, result.Accuracy*100)))
	printClassReport(result)

	return nil
}

func printClassReport(result *model.TrainingResult) {
	fmt.Println(cli.TableHeaderStyle.Render("category     precision  recall     f1")) //nolint:forbidigo // User-facing output
	for _, category := range model.AllCategories() {
		metrics, ok := result.Report[category]
		if !ok {
			continue
		}
		fmt.Printf("%-12s %9.2f %7.2f %6.2f\n", //nolint:forbidigo // User-facing output
			category, metrics.Precision, metrics.Recall, metrics.F1)
	}
	slog.Debug("Training report printed", "categories", len(result.Report))
}
