package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/engine"
	"github.com/gastolab/centavo/internal/model"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo expenses",
		Long: `Generate a few months of labeled demo expenses so the models have
something to train on. Generation is deterministic for a given seed.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("count", 120, "number of demo expenses to generate")
	cmd.Flags().Int64("seed", 42, "random seed")
	cmd.Flags().Bool("train", false, "train the classifier and anomaly detector afterwards")

	return cmd
}

// seedTemplate is one demo expense shape: a description with a typical
// amount range and its true category.
type seedTemplate struct {
	description string
	category    model.Category
	minAmount   float64
	maxAmount   float64
	weight      int
}

var seedTemplates = []seedTemplate{
	{"taxi al aeropuerto", model.CategoryTransport, 15, 30, 2},
	{"uber al trabajo", model.CategoryTransport, 4, 9, 6},
	{"bus al centro", model.CategoryTransport, 0.5, 1.5, 8},
	{"metro", model.CategoryTransport, 0.5, 1.2, 6},
	{"gasolina", model.CategoryTransport, 20, 45, 2},
	{"almuerzo en el trabajo", model.CategoryFood, 5, 12, 8},
	{"desayuno cafeteria", model.CategoryFood, 2, 6, 6},
	{"cena restaurante", model.CategoryFood, 15, 40, 3},
	{"supermercado semanal", model.CategoryFood, 30, 80, 3},
	{"pizza delivery", model.CategoryFood, 8, 18, 3},
	{"cine con amigos", model.CategoryMisc, 6, 15, 2},
	{"farmacia", model.CategoryMisc, 3, 20, 2},
	{"regalo cumpleanos", model.CategoryMisc, 10, 50, 1},
	{"ropa", model.CategoryMisc, 15, 60, 1},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	train, _ := cmd.Flags().GetBool("train")

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	rng := rand.New(rand.NewSource(seed))
	pool := weightedPool()

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Seeding demo expenses"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())

	now := time.Now()
	for i := 0; i < count; i++ {
		tmpl := pool[rng.Intn(len(pool))]
		amount := tmpl.minAmount + rng.Float64()*(tmpl.maxAmount-tmpl.minAmount)
		daysAgo := rng.Intn(85)
		hour := 7 + rng.Intn(15)
		date := now.AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)

		_, err := eng.CreateExpense(ctx, engine.CreateExpenseInput{
			UserID:      userID,
			Description: tmpl.description,
			Amount:      float64(int(amount*100)) / 100,
			Category:    string(tmpl.category),
			Date:        date,
		})
		if err != nil {
			return fmt.Errorf("failed to seed expense %d: %w", i+1, err)
		}
		_ = bar.Add(1)
	}
	eng.Wait()

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Seeded %d demo expenses", count))) //nolint:forbidigo // User-facing output

	if train {
		if _, err := eng.TrainClassifier(ctx, ""); err != nil {
			return err
		}
		if _, err := eng.TrainAnomaly(ctx, ""); err != nil {
			return err
		}
		fmt.Println(cli.FormatSuccess("Models trained on the seeded data")) //nolint:forbidigo // User-facing output
	}

	return nil
}

// weightedPool expands the templates by weight so common purchases dominate
// the draw.
func weightedPool() []seedTemplate {
	var pool []seedTemplate
	for _, tmpl := range seedTemplates {
		for i := 0; i < tmpl.weight; i++ {
			pool = append(pool, tmpl)
		}
	}
	return pool
}
