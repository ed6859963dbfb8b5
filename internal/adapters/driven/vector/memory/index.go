// Package memory provides an embedded in-memory vector index.
// It performs exact (brute force) similarity search and enforces the
// collection metric binding client-side, which makes it a faithful stand-in
// for a real vector database in tests and small installations.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// collection holds the records and the metric binding for one collection.
type collection struct {
	dim    int
	metric domain.Metric
	points map[string]driven.VectorRecord
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	closed      bool
}

// New creates an empty in-memory vector index.
func New() *Index {
	return &Index{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if it does not exist.
func (x *Index) EnsureCollection(_ context.Context, name string, dim int, metric domain.Metric) error {
	if !metric.IsValid() {
		return fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, metric)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrIndexUnavailable
	}

	if c, ok := x.collections[name]; ok {
		if c.metric != metric {
			return fmt.Errorf("%w: collection %s is bound to %s, requested %s",
				domain.ErrMetricConflict, name, c.metric, metric)
		}
		if c.dim != dim {
			return fmt.Errorf("%w: collection %s has %d dimensions, requested %d",
				domain.ErrMetricConflict, name, c.dim, dim)
		}
		return nil
	}

	x.collections[name] = &collection{
		dim:    dim,
		metric: metric,
		points: make(map[string]driven.VectorRecord),
	}
	return nil
}

// CollectionMetric returns the metric the collection is bound to.
func (x *Index) CollectionMetric(_ context.Context, name string) (domain.Metric, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return "", domain.ErrIndexUnavailable
	}

	c, ok := x.collections[name]
	if !ok {
		return "", fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return c.metric, nil
}

// Upsert writes records and returns the assigned ids in input order.
func (x *Index) Upsert(_ context.Context, name string, records []driven.VectorRecord) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, domain.ErrIndexUnavailable
	}

	c, ok := x.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		if len(rec.Embedding) != c.dim {
			return nil, fmt.Errorf("%w: record %d has dimension %d, collection %s expects %d",
				domain.ErrInvalidInput, i, len(rec.Embedding), name, c.dim)
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		c.points[rec.ID] = rec
		ids[i] = rec.ID
	}
	return ids, nil
}

// Delete removes the given vector ids. Missing ids are ignored.
func (x *Index) Delete(_ context.Context, name string, vectorIDs []string) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return 0, domain.ErrIndexUnavailable
	}

	c, ok := x.collections[name]
	if !ok {
		return 0, nil
	}

	deleted := 0
	for _, id := range vectorIDs {
		if _, exists := c.points[id]; exists {
			delete(c.points, id)
			deleted++
		}
	}
	return deleted, nil
}

// Has reports whether a vector id exists. Test helper.
func (x *Index) Has(name, vectorID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.collections[name]
	if !ok {
		return false
	}
	_, exists := c.points[vectorID]
	return exists
}

// Count returns the number of vectors in a collection. Test helper.
func (x *Index) Count(name string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.collections[name]
	if !ok {
		return 0
	}
	return len(c.points)
}

// Search returns the top-k records ranked best-first under the
// collection's metric.
func (x *Index) Search(
	_ context.Context,
	name string,
	query []float32,
	metric domain.Metric,
	topK int,
	filter *driven.SearchFilter,
) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, domain.ErrIndexUnavailable
	}

	c, ok := x.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}

	// Validated here because a real engine would not reject the mismatch,
	// it would score with the wrong function and return junk.
	if metric != c.metric {
		return nil, fmt.Errorf("%w: collection %s is bound to %s, search requested %s",
			domain.ErrMetricMismatch, name, c.metric, metric)
	}

	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection %s expects %d",
			domain.ErrInvalidInput, len(query), name, c.dim)
	}

	hits := make([]driven.VectorHit, 0, len(c.points))
	for _, rec := range c.points {
		if !matchesFilter(rec, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:         rec.ID,
			Score:      score(c.metric, query, rec.Embedding),
			DocumentID: rec.DocumentID,
			ChunkIndex: rec.ChunkIndex,
			Payload:    rec.Payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return c.metric.Better(hits[i].Score, hits[j].Score)
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Close releases resources. Subsequent calls fail with ErrIndexUnavailable.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	x.collections = nil
	return nil
}

// matchesFilter applies the search filter to a record.
func matchesFilter(rec driven.VectorRecord, filter *driven.SearchFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Category != "" {
		cat, _ := rec.Payload[driven.PayloadCategory].(string)
		if cat != filter.Category {
			return false
		}
	}
	if len(filter.DocumentIDs) > 0 {
		found := false
		for _, id := range filter.DocumentIDs {
			if rec.DocumentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// score computes the raw score of a candidate under the given metric.
func score(metric domain.Metric, query, candidate []float32) float64 {
	switch metric {
	case domain.MetricInnerProduct:
		return dot(query, candidate)
	case domain.MetricCosine:
		denom := norm(query) * norm(candidate)
		if denom == 0 {
			return 0
		}
		return dot(query, candidate) / denom
	case domain.MetricL2:
		var sum float64
		for i := range query {
			d := float64(query[i]) - float64(candidate[i])
			sum += d * d
		}
		return sum
	default:
		return 0
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
