package feature

import (
	"context"
	"fmt"

	"github.com/gastolab/centavo/internal/text"
)

// DescriptionCounter counts prior expenses whose normalized text contains a
// given normalized fragment. Implemented by the storage layer.
type DescriptionCounter interface {
	CountMatchingDescriptions(ctx context.Context, userID, normalizedText string) (int, error)
}

// DescriptionFrequency normalizes a raw description and counts how many of
// the user's stored expenses contain it. The result is at least 1: the
// expense being recorded is its own first occurrence. Matching is by
// substring containment, which covers near-duplicate phrasing.
func DescriptionFrequency(ctx context.Context, counter DescriptionCounter, userID, description string) (int, error) {
	normalized := text.Normalize(description)
	if normalized == "" {
		return 1, nil
	}

	n, err := counter.CountMatchingDescriptions(ctx, userID, normalized)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching descriptions: %w", err)
	}

	if n < 1 {
		return 1, nil
	}
	return n, nil
}
