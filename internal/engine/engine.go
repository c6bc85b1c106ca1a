// Package engine wires storage, the trained models, pattern mining and the
// remote suggestion client into the operations the CLI exposes. Every
// blocking operation takes a context; model faults degrade predictions
// instead of failing expense recording.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gastolab/centavo/internal/anomaly"
	"github.com/gastolab/centavo/internal/classifier"
	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/feature"
	"github.com/gastolab/centavo/internal/keyword"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/pattern"
	"github.com/gastolab/centavo/internal/registry"
	"github.com/gastolab/centavo/internal/remote"
	"github.com/gastolab/centavo/internal/report"
	"github.com/gastolab/centavo/internal/service"
	"github.com/gastolab/centavo/internal/text"
)

// backgroundTimeout bounds the post-save anomaly check.
const backgroundTimeout = 10 * time.Second

// Options configures optional engine collaborators.
type Options struct {
	// Suggester is the remote category-suggestion client. Nil disables
	// remote suggestions; Suggest then always degrades.
	Suggester *remote.Client
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine coordinates the expense workflows.
type Engine struct {
	store       service.Storage
	models      *registry.Registry
	keywords    *keyword.Detector
	analyzer    *pattern.Analyzer
	recommender *pattern.Recommender
	reporter    *report.Reporter
	suggester   *remote.Client
	now         func() time.Time
	background  sync.WaitGroup
}

// New creates an engine over the given storage.
func New(store service.Storage, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	analyzer := pattern.NewAnalyzer(store)
	return &Engine{
		store:       store,
		models:      registry.New(store),
		keywords:    keyword.NewDetector(keyword.DefaultSets()),
		analyzer:    analyzer,
		recommender: pattern.NewRecommender(analyzer),
		reporter:    report.NewReporter(store),
		suggester:   opts.Suggester,
		now:         now,
	}
}

// Wait blocks until all background anomaly checks have finished. Called on
// shutdown and by tests.
func (e *Engine) Wait() {
	e.background.Wait()
}

// CreateExpenseInput carries the user-supplied fields of a new expense.
type CreateExpenseInput struct {
	Date        time.Time // zero means now
	UserID      string
	Description string
	Category    string // empty lets the classifier assign one
	Amount      float64
}

// CreateExpense records a new expense. The description is normalized,
// temporal and frequency features are derived, and a category is assigned:
// the user's explicit choice at full confidence, otherwise the classifier's
// prediction with the keyword detector as fallback. The anomaly check runs
// in the background after the save and never blocks recording.
func (e *Engine) CreateExpense(ctx context.Context, input CreateExpenseInput) (*model.Expense, error) {
	if input.UserID == "" {
		return nil, common.NewUserError("user id is required", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, common.NewUserError("description is required", nil)
	}
	if err := model.ValidateAmount(input.Amount); err != nil {
		return nil, common.NewUserError("invalid amount", err)
	}

	date := input.Date
	if date.IsZero() {
		date = e.now()
	}
	date = date.UTC()

	temporal := feature.ExtractTemporal(date)
	normalized := text.Normalize(input.Description)

	freq, err := feature.DescriptionFrequency(ctx, e.store, input.UserID, input.Description)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		Description:     strings.TrimSpace(input.Description),
		NormalizedText:  normalized,
		Amount:          input.Amount,
		Date:            date,
		Weekday:         temporal.Weekday,
		Hour:            temporal.Hour,
		IsWeekend:       temporal.IsWeekend,
		DayPart:         temporal.DayPart,
		DescriptionFreq: freq,
		IsRecurring:     freq >= 3,
		CreatedAt:       e.now().UTC(),
		UpdatedAt:       e.now().UTC(),
	}

	if input.Category != "" {
		category, ok := model.ParseCategory(input.Category)
		if !ok {
			return nil, common.NewUserError(fmt.Sprintf("unknown category %q, valid: %v",
				input.Category, model.AllCategories()), nil)
		}
		expense.Category = category
		expense.Confidence = 1.0
	} else {
		prediction, source := e.classify(ctx, input.UserID, expense.Description,
			expense.Amount, expense.Weekday, expense.Hour)
		expense.Category = prediction.Category
		expense.Confidence = prediction.Confidence
		slog.Debug("Category assigned automatically",
			"category", expense.Category,
			"confidence", expense.Confidence,
			"source", source)
	}

	if err := e.store.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	e.background.Add(1)
	go e.checkInBackground(*expense)

	return expense, nil
}

// checkInBackground runs the anomaly check for a just-saved expense. Faults
// are logged, never propagated.
func (e *Engine) checkInBackground(expense model.Expense) {
	defer e.background.Done()

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	detector, err := e.resolveDetector(ctx, expense.UserID)
	if err != nil {
		slog.Warn("Anomaly check skipped", "expense_id", expense.ID, "error", err)
		return
	}

	result := detector.Detect(&expense)
	if result.IsAnomalous {
		slog.Warn("Anomalous expense recorded",
			"expense_id", expense.ID,
			"user_id", expense.UserID,
			"amount", expense.Amount,
			"severity", result.Severity,
			"reason", result.Reason)
	}
}

// UpdateExpenseInput carries the editable fields of an expense. Nil fields
// are left untouched.
type UpdateExpenseInput struct {
	Description *string
	Amount      *float64
	Category    *string
	Date        *time.Time
}

// UpdateExpense edits an expense and recomputes the derived fields that
// depend on the edited ones.
func (e *Engine) UpdateExpense(ctx context.Context, userID, id string, input UpdateExpenseInput) (*model.Expense, error) {
	expense, err := e.store.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.UserID != userID {
		return nil, common.ErrNotFound
	}

	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			return nil, common.NewUserError("description is required", nil)
		}
		expense.Description = desc
		expense.NormalizedText = text.Normalize(desc)

		freq, err := feature.DescriptionFrequency(ctx, e.store, userID, desc)
		if err != nil {
			return nil, err
		}
		expense.DescriptionFreq = freq
		expense.IsRecurring = freq >= 3
	}
	if input.Amount != nil {
		if err := model.ValidateAmount(*input.Amount); err != nil {
			return nil, common.NewUserError("invalid amount", err)
		}
		expense.Amount = *input.Amount
	}
	if input.Category != nil {
		category, ok := model.ParseCategory(*input.Category)
		if !ok {
			return nil, common.NewUserError(fmt.Sprintf("unknown category %q", *input.Category), nil)
		}
		expense.Category = category
		expense.Confidence = 1.0
	}
	if input.Date != nil {
		date := input.Date.UTC()
		temporal := feature.ExtractTemporal(date)
		expense.Date = date
		expense.Weekday = temporal.Weekday
		expense.Hour = temporal.Hour
		expense.IsWeekend = temporal.IsWeekend
		expense.DayPart = temporal.DayPart
	}

	expense.UpdatedAt = e.now().UTC()
	if err := e.store.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns a user's expenses matching the filter.
func (e *Engine) ListExpenses(ctx context.Context, userID string, filter service.ExpenseFilter) ([]model.Expense, error) {
	return e.store.GetExpenses(ctx, userID, filter)
}

// DeleteExpenses removes the identified expenses and reports what was
// deleted and which ids did not exist.
func (e *Engine) DeleteExpenses(ctx context.Context, userID string, ids []string) (*service.DeletionSummary, error) {
	return e.store.DeleteExpenses(ctx, userID, ids)
}

// DeleteExpensesByCategory removes all of a user's expenses in a category.
func (e *Engine) DeleteExpensesByCategory(ctx context.Context, userID string, category model.Category) (*service.DeletionSummary, error) {
	return e.store.DeleteExpensesByCategory(ctx, userID, category)
}

// Classification is a category prediction together with where it came from.
type Classification struct {
	Category   model.Category
	Source     string // "model", "keywords" or "default"
	Confidence float64
	Degraded   bool
}

// Classify predicts a category for a description without recording anything.
// A zero when falls back to the current time for the temporal features.
func (e *Engine) Classify(ctx context.Context, userID, description string, amount float64, when time.Time) Classification {
	if when.IsZero() {
		when = e.now()
	}
	temporal := feature.ExtractTemporal(when)
	prediction, source := e.classify(ctx, userID, description, amount, temporal.Weekday, temporal.Hour)
	return Classification{
		Category:   prediction.Category,
		Confidence: prediction.Confidence,
		Source:     source,
		Degraded:   prediction.Degraded,
	}
}

// ClassifyKeywords runs only the keyword detector. A nil result means no
// keyword matched.
func (e *Engine) ClassifyKeywords(description string) *keyword.Match {
	return e.keywords.Detect(description)
}

// classify runs the trained classifier for the user's scope, falling back to
// the global model and then to keywords. It never returns an error; the
// worst case is the default category at neutral confidence.
func (e *Engine) classify(ctx context.Context, userID, description string, amount float64, weekday, hour int) (classifier.Prediction, string) {
	clf := e.trainedClassifier(ctx, userID)
	if clf != nil {
		prediction := clf.Predict(description, amount, weekday, hour)
		if !prediction.Degraded {
			return prediction, "model"
		}
	}

	if match := e.keywords.Detect(description); match != nil {
		return classifier.Prediction{
			Category:   match.Category,
			Confidence: match.Confidence,
		}, "keywords"
	}

	return classifier.Prediction{
		Category:   model.CategoryMisc,
		Confidence: 0.5,
		Degraded:   true,
	}, "default"
}

// trainedClassifier returns the user's trained classifier, the global one
// when the user has none, or nil when neither is trained.
func (e *Engine) trainedClassifier(ctx context.Context, userID string) *classifier.Classifier {
	for _, scope := range scopeChain(userID) {
		clf, err := e.models.Classifier(ctx, scope)
		if err != nil {
			slog.Warn("Failed to load classifier", "scope", scope, "error", err)
			continue
		}
		if clf.Trained() {
			return clf
		}
	}
	return nil
}

func (e *Engine) resolveDetector(ctx context.Context, userID string) (*anomaly.Detector, error) {
	var lastErr error
	for _, scope := range scopeChain(userID) {
		detector, err := e.models.Detector(ctx, scope)
		if err != nil {
			lastErr = err
			continue
		}
		if detector.Trained() {
			return detector, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return anomaly.New(), nil
}

// scopeChain lists the model scopes to try for a user, most specific first.
func scopeChain(userID string) []string {
	scope := registry.ScopeForUser(userID)
	if scope == registry.GlobalScope {
		return []string{registry.GlobalScope}
	}
	return []string{scope, registry.GlobalScope}
}

// TrainClassifier retrains the category classifier for a scope. An empty
// userID trains the global model on every user's labeled expenses. The live
// model is swapped only after training succeeds.
func (e *Engine) TrainClassifier(ctx context.Context, userID string) (*model.TrainingResult, error) {
	expenses, err := e.store.GetExpenses(ctx, userID, service.ExpenseFilter{Labeled: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load training expenses: %w", err)
	}

	clf := classifier.New()
	result, err := clf.Train(expenses)
	if err != nil {
		return nil, err
	}

	scope := registry.ScopeForUser(userID)
	if err := e.models.SwapClassifier(ctx, scope, clf); err != nil {
		return nil, err
	}

	slog.Info("Classifier trained",
		"scope", scope,
		"samples", result.SampleCount,
		"accuracy", result.Accuracy)
	return result, nil
}

// TrainAnomaly retrains the anomaly detector for a scope. An empty userID
// trains the global detector.
func (e *Engine) TrainAnomaly(ctx context.Context, userID string) (*model.AnomalyTrainingResult, error) {
	expenses, err := e.store.GetExpenses(ctx, userID, service.ExpenseFilter{Labeled: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load training expenses: %w", err)
	}

	detector := anomaly.New()
	result, err := detector.Train(expenses)
	if err != nil {
		return nil, err
	}

	scope := registry.ScopeForUser(userID)
	if err := e.models.SwapDetector(ctx, scope, detector); err != nil {
		return nil, err
	}

	slog.Info("Anomaly detector trained",
		"scope", scope,
		"samples", result.SampleCount,
		"thresholds", result.ThresholdsComputed)
	return result, nil
}

// AnomalyFinding pairs an expense with its anomaly evaluation.
type AnomalyFinding struct {
	Report  model.AnomalyReport
	Expense model.Expense
}

// CheckAnomalies evaluates the user's most recent expenses against the
// trained detector. limit <= 0 checks everything.
func (e *Engine) CheckAnomalies(ctx context.Context, userID string, limit int) ([]AnomalyFinding, error) {
	detector, err := e.resolveDetector(ctx, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := e.store.GetExpenses(ctx, userID, service.ExpenseFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	findings := make([]AnomalyFinding, len(expenses))
	for i := range expenses {
		findings[i] = AnomalyFinding{
			Expense: expenses[i],
			Report:  detector.Detect(&expenses[i]),
		}
	}
	return findings, nil
}

// CheckExpense evaluates a single stored expense.
func (e *Engine) CheckExpense(ctx context.Context, userID, id string) (*AnomalyFinding, error) {
	expense, err := e.store.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.UserID != userID {
		return nil, common.ErrNotFound
	}

	detector, err := e.resolveDetector(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AnomalyFinding{Expense: *expense, Report: detector.Detect(expense)}, nil
}

// AnalyzePatterns mines the user's recent history for spending patterns and
// persists every detected pattern, replacing earlier detections of the same
// pattern.
func (e *Engine) AnalyzePatterns(ctx context.Context, userID string) ([]model.Pattern, error) {
	patterns, err := e.analyzer.Analyze(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range patterns {
		if err := e.store.UpsertPattern(ctx, &patterns[i]); err != nil {
			return nil, fmt.Errorf("failed to persist pattern %q: %w", patterns[i].Key, err)
		}
	}
	return patterns, nil
}

// StoredPatterns returns the user's persisted patterns, most confident first.
func (e *Engine) StoredPatterns(ctx context.Context, userID string) ([]model.Pattern, error) {
	return e.store.GetPatterns(ctx, userID)
}

// Recommend derives spending recommendations from a fresh pattern analysis.
func (e *Engine) Recommend(ctx context.Context, userID string) ([]model.Recommendation, error) {
	return e.recommender.Recommend(ctx, userID)
}

// Stats computes the user's spending statistics over a trailing window.
func (e *Engine) Stats(ctx context.Context, userID string, windowDays int) (*report.UserStats, error) {
	return e.reporter.Stats(ctx, userID, windowDays)
}

// Suggest asks the remote model for a second opinion on a category choice.
// Without a configured suggester the call degrades to trusting the user.
func (e *Engine) Suggest(ctx context.Context, description string, userCategory model.Category) remote.Suggestion {
	if e.suggester == nil {
		return remote.Suggestion{
			Status:     remote.StatusDegraded,
			Category:   userCategory,
			Matches:    true,
			Confidence: 1.0,
			Message:    "servicio de sugerencias no configurado",
		}
	}
	return e.suggester.Suggest(ctx, description, userCategory)
}

// Migrate applies pending schema migrations.
func (e *Engine) Migrate(ctx context.Context) error {
	return e.store.Migrate(ctx)
}

// Close waits for background work and closes the storage.
func (e *Engine) Close() error {
	e.Wait()
	return e.store.Close()
}
