// Package keyword provides keyword-based expense category detection.
// It is the deterministic fallback used when no trained classifier is
// available, and a cheap second opinion when one is.
package keyword

import (
	"math"
	"strings"
	"sync"

	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/text"
)

// KeywordSet holds the scored keyword list for one category.
type KeywordSet struct {
	Category model.Category
	Words    []string
	Weight   float64
}

// Detector scores normalized descriptions against per-category keyword sets.
type Detector struct {
	sets []KeywordSet
	mu   sync.RWMutex
}

// NewDetector creates a detector with the given keyword sets.
func NewDetector(sets []KeywordSet) *Detector {
	return &Detector{sets: sets}
}

// Match is a keyword detection result.
type Match struct {
	Category   model.Category
	Confidence float64
}

// Detect scores a description against every keyword set and returns the
// best-scoring category. A nil result means no keyword matched.
func (d *Detector) Detect(description string) *Match {
	d.mu.RLock()
	defer d.mu.RUnlock()

	normalized := text.Normalize(description)
	if normalized == "" {
		return nil
	}

	var best *Match
	for _, set := range d.sets {
		var score float64
		for _, word := range set.Words {
			if containsWord(normalized, word) {
				score += set.Weight
			}
		}
		if score == 0 {
			continue
		}
		score /= float64(len(set.Words))
		if best == nil || score > best.Confidence {
			best = &Match{Category: set.Category, Confidence: score}
		}
	}

	if best == nil {
		return nil
	}
	// Raw scores are tiny fractions of the keyword list; rescale so a
	// single strong hit still reads as a usable confidence.
	best.Confidence = math.Min(1, best.Confidence*2)
	return best
}

// UpdateSets replaces the keyword sets wholesale.
func (d *Detector) UpdateSets(sets []KeywordSet) {
	d.mu.Lock()
	d.sets = sets
	d.mu.Unlock()
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || haystack[start-1] == ' '
		afterOK := end == len(haystack) || haystack[end] == ' ' || haystack[end] == '_'
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}
