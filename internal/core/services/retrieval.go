package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultTopK is the candidate count when the caller does not specify one.
const DefaultTopK = 10

// RetrievalService orchestrates query rewriting, embedding, and
// metric-bound vector search.
type RetrievalService struct {
	rewriter   driving.QueryRewriter
	embedding  driven.EmbeddingService
	index      driven.VectorIndex
	collection string

	// degradeOnUnavailable makes an unreachable index report "no results"
	// instead of an error. Off by default: surfacing the outage is safer
	// than silently answering from nothing.
	degradeOnUnavailable bool
}

// NewRetrievalService creates a retrieval service bound to one collection.
// The rewriter is optional; when nil, queries are used as-is.
func NewRetrievalService(
	rewriter driving.QueryRewriter,
	embedding driven.EmbeddingService,
	index driven.VectorIndex,
	collection string,
) *RetrievalService {
	return &RetrievalService{
		rewriter:   rewriter,
		embedding:  embedding,
		index:      index,
		collection: collection,
	}
}

// SetDegradeOnUnavailable toggles treating an unreachable index as an
// empty result set instead of an error.
func (s *RetrievalService) SetDegradeOnUnavailable(degrade bool) {
	s.degradeOnUnavailable = degrade
}

// Retrieve performs conversation-aware retrieval.
//
// The search metric is always auto-detected from the collection rather
// than taken from the caller: querying with a metric the collection was
// not built with does not error in most engines, it silently returns
// junk.
func (s *RetrievalService) Retrieve(
	ctx context.Context,
	query string,
	conversation []domain.ConversationTurn,
	opts domain.RetrieveOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}

	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	effective := query
	if s.rewriter != nil {
		effective = s.rewriter.Rewrite(ctx, query, conversation)
		if effective == "" {
			effective = query
		}
	}
	logger.Debug("Effective query: %q", effective)

	vector, err := s.embedding.Embed(ctx, effective)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	metric, err := s.index.CollectionMetric(ctx, s.collection)
	if err != nil {
		return s.maybeDegrade(fmt.Errorf("detect collection metric: %w", err))
	}
	if opts.Metric != "" && opts.Metric != metric {
		logger.Warn("Caller requested metric %s but collection %s is bound to %s; using %s",
			opts.Metric, s.collection, metric, metric)
	}

	var filter *driven.SearchFilter
	if opts.Category != "" {
		filter = &driven.SearchFilter{Category: opts.Category}
	}

	hits, err := s.index.Search(ctx, s.collection, vector, metric, topK, filter)
	if err != nil {
		return s.maybeDegrade(fmt.Errorf("vector search: %w", err))
	}
	logger.Debug("Raw results: %d hits", len(hits))

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if !metric.MeetsThreshold(hit.Score, opts.RelevanceThreshold) {
			continue
		}
		results = append(results, hydrateHit(hit))
	}

	// Best-first under the collection's metric direction.
	sort.SliceStable(results, func(i, j int) bool {
		return metric.Better(results[i].Score, results[j].Score)
	})

	logger.Info("Final results: %d/%d above threshold %.3f (%s)",
		len(results), len(hits), opts.RelevanceThreshold, metric)
	return results, nil
}

// maybeDegrade converts index failures to an empty result set when
// graceful degradation is configured.
func (s *RetrievalService) maybeDegrade(err error) ([]domain.RetrievedChunk, error) {
	if s.degradeOnUnavailable {
		logger.Warn("Retrieval degraded to no results: %v", err)
		return []domain.RetrievedChunk{}, nil
	}
	return nil, err
}

// hydrateHit converts a vector hit into a retrieved chunk.
func hydrateHit(hit driven.VectorHit) domain.RetrievedChunk {
	chunk := domain.RetrievedChunk{
		VectorID:   hit.ID,
		DocumentID: hit.DocumentID,
		ChunkIndex: hit.ChunkIndex,
		Score:      hit.Score,
	}
	if v, ok := hit.Payload[driven.PayloadContent].(string); ok {
		chunk.Content = v
	}
	if v, ok := hit.Payload[driven.PayloadTitle].(string); ok {
		chunk.Title = v
	}
	if v, ok := hit.Payload[driven.PayloadCategory].(string); ok {
		chunk.Category = v
	}
	return chunk
}
