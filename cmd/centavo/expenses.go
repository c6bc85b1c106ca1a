package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastolab/centavo/internal/cli"
	"github.com/gastolab/centavo/internal/engine"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Record, list and delete expenses",
	}

	cmd.AddCommand(expensesAddCmd())
	cmd.AddCommand(expensesListCmd())
	cmd.AddCommand(expensesEditCmd())
	cmd.AddCommand(expensesDeleteCmd())

	return cmd
}

func expensesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record a new expense",
		Long: `Record an expense. Without --category the classifier assigns one;
the keyword detector covers descriptions the model has never seen.`,
		Args: cobra.ExactArgs(2),
		RunE: runExpensesAdd,
	}

	cmd.Flags().String("category", "", "category (COMIDA, TRANSPORTE, VARIOS); empty lets the model decide")
	cmd.Flags().String("date", "", "expense date, YYYY-MM-DD or RFC3339 (default: now)")
	cmd.Flags().Bool("suggest", false, "ask the remote suggestion service for a second opinion")

	return cmd
}

func runExpensesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	dateStr, _ := cmd.Flags().GetString("date")
	suggest, _ := cmd.Flags().GetBool("suggest")

	var date time.Time
	if dateStr != "" {
		date, err = parseDate(dateStr)
		if err != nil {
			return err
		}
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	expense, err := eng.CreateExpense(ctx, engine.CreateExpenseInput{
		UserID:      userID,
		Description: args[0],
		Amount:      amount,
		Category:    category,
		Date:        date,
	})
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s as %s (%s confidence)", //nolint:forbidigo // User-facing output
		cli.FormatAmount(expense.Amount),
		cli.FormatCategory(expense.Category),
		cli.FormatConfidence(expense.Confidence))))
	fmt.Println(cli.SubtleStyle.Render("id: " + expense.ID)) //nolint:forbidigo // User-facing output

	if suggest && category != "" {
		suggestion := eng.Suggest(ctx, expense.Description, expense.Category)
		if !suggestion.Matches {
			fmt.Println(cli.FormatWarning(suggestion.Message)) //nolint:forbidigo // User-facing output
		} else {
			fmt.Println(cli.FormatInfo(suggestion.Message)) //nolint:forbidigo // User-facing output
		}
	}

	return nil
}

func expensesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded expenses, newest first",
		RunE:  runExpensesList,
	}

	cmd.Flags().String("category", "", "only expenses in this category")
	cmd.Flags().Int("limit", 20, "maximum number of expenses to show (0 for all)")
	cmd.Flags().Int("days", 0, "only expenses from the trailing N days")

	return cmd
}

func runExpensesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	categoryStr, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	days, _ := cmd.Flags().GetInt("days")

	filter := service.ExpenseFilter{Limit: limit}
	if categoryStr != "" {
		category, ok := model.ParseCategory(categoryStr)
		if !ok {
			return fmt.Errorf("unknown category %q, valid: %v", categoryStr, model.AllCategories())
		}
		filter.Category = category
	}
	if days > 0 {
		since := time.Now().AddDate(0, 0, -days)
		filter.Since = &since
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	expenses, err := eng.ListExpenses(ctx, userID, filter)
	if err != nil {
		return err
	}

	if len(expenses) == 0 {
		fmt.Println(cli.FormatInfo("No expenses found")) //nolint:forbidigo // User-facing output
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Expenses", cli.CoinIcon))) //nolint:forbidigo // User-facing output
	for i := range expenses {
		printExpenseRow(&expenses[i])
	}
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d expenses", len(expenses)))) //nolint:forbidigo // User-facing output

	return nil
}

func printExpenseRow(e *model.Expense) {
	marker := " "
	if e.IsRecurring {
		marker = "↻"
	}
	fmt.Printf("%s %s  %-12s %8s  %s %s\n", //nolint:forbidigo // User-facing output
		cli.SubtleStyle.Render(e.Date.Format("2006-01-02")),
		marker,
		cli.FormatCategory(e.Category),
		fmt.Sprintf("$%.2f", e.Amount),
		e.Description,
		cli.SubtleStyle.Render(shortID(e.ID)))
}

func expensesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a recorded expense",
		Long: `Edit an expense. Derived fields are recomputed for whatever changes:
a new description is renormalized and recounted, a new date rebuilds the
temporal features, and an explicit category sticks at full confidence.`,
		Args: cobra.ExactArgs(1),
		RunE: runExpensesEdit,
	}

	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("amount", "", "new amount")
	cmd.Flags().String("category", "", "new category (COMIDA, TRANSPORTE, VARIOS)")
	cmd.Flags().String("date", "", "new date, YYYY-MM-DD or RFC3339")

	return cmd
}

func runExpensesEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	var input engine.UpdateExpenseInput
	if cmd.Flags().Changed("description") {
		desc, _ := cmd.Flags().GetString("description")
		input.Description = &desc
	}
	if cmd.Flags().Changed("amount") {
		amountStr, _ := cmd.Flags().GetString("amount")
		amount, err := parseAmount(amountStr)
		if err != nil {
			return err
		}
		input.Amount = &amount
	}
	if cmd.Flags().Changed("category") {
		category, _ := cmd.Flags().GetString("category")
		input.Category = &category
	}
	if cmd.Flags().Changed("date") {
		dateStr, _ := cmd.Flags().GetString("date")
		date, err := parseDate(dateStr)
		if err != nil {
			return err
		}
		input.Date = &date
	}

	if input.Description == nil && input.Amount == nil && input.Category == nil && input.Date == nil {
		return fmt.Errorf("nothing to edit: pass at least one of --description, --amount, --category, --date")
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	expense, err := eng.UpdateExpense(ctx, userID, args[0], input)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %s: %s as %s", //nolint:forbidigo // User-facing output
		shortID(expense.ID),
		cli.FormatAmount(expense.Amount),
		cli.FormatCategory(expense.Category))))

	return nil
}

func expensesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete expenses by id or by category",
		Long: `Delete the identified expenses, or with --category every expense in
that category. At most 100 ids per invocation.`,
		RunE: runExpensesDelete,
	}

	cmd.Flags().String("category", "", "delete every expense in this category instead of by id")

	return cmd
}

func runExpensesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := currentUser()
	if err != nil {
		return err
	}

	categoryStr, _ := cmd.Flags().GetString("category")
	if categoryStr == "" && len(args) == 0 {
		return fmt.Errorf("nothing to delete: pass expense ids or --category")
	}
	if categoryStr != "" && len(args) > 0 {
		return fmt.Errorf("pass either expense ids or --category, not both")
	}

	eng, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	var summary *service.DeletionSummary
	if categoryStr != "" {
		category, ok := model.ParseCategory(categoryStr)
		if !ok {
			return fmt.Errorf("unknown category %q, valid: %v", categoryStr, model.AllCategories())
		}
		summary, err = eng.DeleteExpensesByCategory(ctx, userID, category)
	} else {
		summary, err = eng.DeleteExpenses(ctx, userID, args)
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d expenses totaling %s", //nolint:forbidigo // User-facing output
		len(summary.Deleted), cli.FormatAmount(summary.TotalAmount))))
	if len(summary.NotFoundIDs) > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Not found: %s", //nolint:forbidigo // User-facing output
			strings.Join(summary.NotFoundIDs, ", "))))
	}

	return nil
}

func parseAmount(s string) (float64, error) {
	var amount float64
	if _, err := fmt.Sscanf(s, "%f", &amount); err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
