// Package remote calls the hosted category-suggestion model. The call is
// advisory: when the service is unreachable the client degrades to trusting
// the user's own category with full confidence, so expense recording is
// never blocked on an external dependency.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
)

// Status tags the outcome of a suggestion call.
type Status string

const (
	// StatusSuggested means the hosted model answered.
	StatusSuggested Status = "suggested"
	// StatusDegraded means the service was unavailable and the user's own
	// category was kept.
	StatusDegraded Status = "degraded"
)

// Suggestion is the outcome of one suggestion call.
type Suggestion struct {
	Status     Status
	Category   model.Category
	Matches    bool // suggested category agrees with the user's choice
	Confidence float64
	Message    string
}

// Client talks to the hosted suggestion endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	retryOpts  service.RetryOptions
}

// NewClient creates a suggestion client for the given endpoint URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retryOpts: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 200 * time.Millisecond,
		},
	}
}

type suggestRequest struct {
	Description  string `json:"description"`
	UserCategory string `json:"user_category"`
}

type suggestResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Suggest asks the hosted model for a category for the description, given
// the category the user picked. Remote failures never surface as errors; the
// fallback keeps the user's category at confidence 1.0 with a Degraded
// status so callers and tests can tell the two outcomes apart.
func (c *Client) Suggest(ctx context.Context, description string, userCategory model.Category) Suggestion {
	if !userCategory.Valid() {
		userCategory = model.CategoryMisc
	}

	if c.endpoint == "" {
		return degraded(userCategory, "servicio de sugerencias no configurado")
	}

	var resp suggestResponse
	err := common.WithRetry(ctx, func() error {
		return c.call(ctx, description, userCategory, &resp)
	}, c.retryOpts)
	if err != nil {
		return degraded(userCategory, "servicio de sugerencias no disponible")
	}

	suggested, ok := mapRemoteCategory(resp.Category)
	if !ok {
		suggested = userCategory
	}

	confidence := resp.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = defaultRemoteConfidence(suggested, userCategory)
	}

	return Suggestion{
		Status:     StatusSuggested,
		Category:   suggested,
		Matches:    suggested == userCategory,
		Confidence: confidence,
		Message:    suggestionMessage(suggested, userCategory),
	}
}

func (c *Client) call(ctx context.Context, description string, userCategory model.Category, out *suggestResponse) error {
	body, err := json.Marshal(suggestRequest{
		Description:  description,
		UserCategory: strings.ToLower(string(userCategory)),
	})
	if err != nil {
		return &common.RetryableError{Err: err, Retryable: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSuggestionUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return common.ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", common.ErrSuggestionUnavailable, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSuggestionUnavailable, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &common.RetryableError{
			Err:       fmt.Errorf("malformed suggestion response: %w", err),
			Retryable: false,
		}
	}
	return nil
}

// mapRemoteCategory folds the model's free-form answers onto the closed
// category set.
func mapRemoteCategory(s string) (model.Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comida", "food", "alimentacion", "restaurante":
		return model.CategoryFood, true
	case "transporte", "transport", "viaje", "taxi", "bus", "gasolina", "combustible":
		return model.CategoryTransport, true
	case "varios", "other", "others", "miscellaneous":
		return model.CategoryMisc, true
	}
	return model.CategoryMisc, false
}

func defaultRemoteConfidence(suggested, userCategory model.Category) float64 {
	if suggested == userCategory {
		return 0.9
	}
	return 0.75
}

func suggestionMessage(suggested, userCategory model.Category) string {
	sLow := strings.ToLower(string(suggested))
	uLow := strings.ToLower(string(userCategory))
	if suggested == userCategory {
		return fmt.Sprintf("La categoria '%s' es la mas apropiada para este gasto.", uLow)
	}
	return fmt.Sprintf("Considera cambiar de '%s' a '%s' para una mejor clasificacion.", uLow, sLow)
}

func degraded(userCategory model.Category, message string) Suggestion {
	return Suggestion{
		Status:     StatusDegraded,
		Category:   userCategory,
		Matches:    true,
		Confidence: 1.0,
		Message:    message,
	}
}
