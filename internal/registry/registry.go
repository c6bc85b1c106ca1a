// Package registry holds the live classifier and anomaly-detector instances,
// keyed by training scope. A retrain swaps the model object wholesale under
// a write lock, so predictions never observe a half-trained bundle.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gastolab/centavo/internal/anomaly"
	"github.com/gastolab/centavo/internal/classifier"
	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/service"
)

// GlobalScope keys models trained on the global expense pool.
const GlobalScope = "global"

// Model bundle kinds as persisted by the storage layer.
const (
	KindClassifier = "classifier"
	KindAnomaly    = "anomaly"
)

// ScopeForUser returns the scope key for a user-specific model, falling back
// to the global scope for an empty user id.
func ScopeForUser(userID string) string {
	if userID == "" {
		return GlobalScope
	}
	return userID
}

// Registry caches live models per scope and loads persisted bundles lazily.
type Registry struct {
	store       service.Storage
	classifiers map[string]*classifier.Classifier
	detectors   map[string]*anomaly.Detector
	mu          sync.RWMutex
}

// New creates a registry backed by the given storage.
func New(store service.Storage) *Registry {
	return &Registry{
		store:       store,
		classifiers: make(map[string]*classifier.Classifier),
		detectors:   make(map[string]*anomaly.Detector),
	}
}

// Classifier returns the live classifier for a scope, loading a persisted
// bundle on first use. A scope with no persisted bundle yields an untrained
// classifier.
func (r *Registry) Classifier(ctx context.Context, scope string) (*classifier.Classifier, error) {
	r.mu.RLock()
	if c, ok := r.classifiers[scope]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.classifiers[scope]; ok {
		return c, nil
	}

	c, err := r.loadClassifier(ctx, scope)
	if err != nil {
		return nil, err
	}
	r.classifiers[scope] = c
	return c, nil
}

// Detector returns the live anomaly detector for a scope, loading a
// persisted profile on first use.
func (r *Registry) Detector(ctx context.Context, scope string) (*anomaly.Detector, error) {
	r.mu.RLock()
	if d, ok := r.detectors[scope]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.detectors[scope]; ok {
		return d, nil
	}

	d, err := r.loadDetector(ctx, scope)
	if err != nil {
		return nil, err
	}
	r.detectors[scope] = d
	return d, nil
}

// SwapClassifier installs a freshly trained classifier for a scope and
// persists its bundle as one atomic write.
func (r *Registry) SwapClassifier(ctx context.Context, scope string, c *classifier.Classifier) error {
	payload, err := c.MarshalBundle()
	if err != nil {
		return err
	}
	if err := r.store.SaveModelBundle(ctx, scope, KindClassifier, payload); err != nil {
		return fmt.Errorf("failed to persist classifier bundle: %w", err)
	}

	r.mu.Lock()
	r.classifiers[scope] = c
	r.mu.Unlock()
	return nil
}

// SwapDetector installs a freshly trained anomaly detector for a scope and
// persists its profile.
func (r *Registry) SwapDetector(ctx context.Context, scope string, d *anomaly.Detector) error {
	payload, err := d.MarshalProfile()
	if err != nil {
		return err
	}
	if err := r.store.SaveModelBundle(ctx, scope, KindAnomaly, payload); err != nil {
		return fmt.Errorf("failed to persist anomaly profile: %w", err)
	}

	r.mu.Lock()
	r.detectors[scope] = d
	r.mu.Unlock()
	return nil
}

func (r *Registry) loadClassifier(ctx context.Context, scope string) (*classifier.Classifier, error) {
	payload, err := r.store.GetModelBundle(ctx, scope, KindClassifier)
	if errors.Is(err, common.ErrNotFound) {
		return classifier.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier bundle: %w", err)
	}
	return classifier.FromBundle(payload)
}

func (r *Registry) loadDetector(ctx context.Context, scope string) (*anomaly.Detector, error) {
	payload, err := r.store.GetModelBundle(ctx, scope, KindAnomaly)
	if errors.Is(err, common.ErrNotFound) {
		return anomaly.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load anomaly profile: %w", err)
	}
	return anomaly.FromProfile(payload)
}
