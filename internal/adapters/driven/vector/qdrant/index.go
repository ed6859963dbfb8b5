// Package qdrant implements the vector index port against a Qdrant server.
//
// Collections are created with an explicit distance metric and the adapter
// refuses to search a collection under a different metric than the one it
// was created with.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// defaultGRPCPort is Qdrant's gRPC port. The REST port 6333 is not usable
// by this client.
const defaultGRPCPort = 6334

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// APIKey is optional API key for authentication.
	APIKey string
}

// Index implements driven.VectorIndex for Qdrant.
type Index struct {
	client *qdrant.Client
}

// New creates a new Qdrant-backed vector index.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	// Parse the URL to extract host, port, and scheme
	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant url: %w", err)
	}

	host := u.Hostname()
	port := defaultGRPCPort
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	return &Index{client: client}, nil
}

// EnsureCollection creates the collection if missing, and verifies the
// metric and dimensionality of an existing one.
func (x *Index) EnsureCollection(ctx context.Context, name string, dimensions int, metric domain.Metric) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection name and dimensions are required", domain.ErrInvalidInput)
	}
	distance, err := metricToDistance(metric)
	if err != nil {
		return err
	}

	exists, err := x.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}

	if exists {
		existing, dim, err := x.collectionParams(ctx, name)
		if err != nil {
			return err
		}
		if existing != metric {
			return fmt.Errorf("%w: collection %s uses %s, requested %s",
				domain.ErrMetricConflict, name, existing, metric)
		}
		if dim != dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, requested %d",
				domain.ErrMetricConflict, name, dim, dimensions)
		}
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

// CollectionMetric reports the distance metric the collection was created
// with.
func (x *Index) CollectionMetric(ctx context.Context, name string) (domain.Metric, error) {
	metric, _, err := x.collectionParams(ctx, name)
	return metric, err
}

// collectionParams reads the metric and dimensionality off the server.
func (x *Index) collectionParams(ctx context.Context, name string) (domain.Metric, int, error) {
	info, err := x.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return "", 0, fmt.Errorf("getting collection %s: %w", name, err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return "", 0, fmt.Errorf("collection %s has no vector params", name)
	}

	metric, err := distanceToMetric(params.GetDistance())
	if err != nil {
		return "", 0, fmt.Errorf("collection %s: %w", name, err)
	}
	return metric, int(params.GetSize()), nil
}

// Upsert writes records and returns their vector ids. Records without an ID
// are assigned a fresh UUID.
func (x *Index) Upsert(ctx context.Context, collection string, records []driven.VectorRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]string, len(records))
	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		payload := map[string]any{
			driven.PayloadDocumentID: rec.DocumentID,
			driven.PayloadChunkIndex: rec.ChunkIndex,
		}
		for k, v := range rec.Payload {
			payload[k] = v
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(rec.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return ids, nil
}

// Delete removes the given vector ids. Missing ids are not an error; the
// returned count covers only vectors that existed.
func (x *Index) Delete(ctx context.Context, collection string, vectorIDs []string) (int, error) {
	if len(vectorIDs) == 0 {
		return 0, nil
	}

	pointIDs := make([]*qdrant.PointId, len(vectorIDs))
	for i, id := range vectorIDs {
		pointIDs[i] = qdrant.NewID(id)
	}

	existing, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewHasID(pointIDs...)}},
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}

	_, err = x.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("deleting %d points: %w", len(pointIDs), err)
	}
	return int(existing), nil
}

// Search returns the nearest vectors under the collection's metric. The
// metric argument must match the collection's; a mismatch means the caller
// skipped detection and would misread the scores.
func (x *Index) Search(
	ctx context.Context,
	collection string,
	query []float32,
	metric domain.Metric,
	topK int,
	filter *driven.SearchFilter,
) ([]driven.VectorHit, error) {
	actual, _, err := x.collectionParams(ctx, collection)
	if err != nil {
		return nil, err
	}
	if metric != actual {
		return nil, fmt.Errorf("%w: collection %s uses %s, search requested %s",
			domain.ErrMetricMismatch, collection, actual, metric)
	}

	limit := uint64(topK)
	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, point := range points {
		hits = append(hits, toHit(point))
	}
	return hits, nil
}

// Close releases the underlying gRPC connection.
func (x *Index) Close() error {
	return x.client.Close()
}

// toHit converts a scored point into a vector hit.
func toHit(point *qdrant.ScoredPoint) driven.VectorHit {
	hit := driven.VectorHit{
		Score:   float64(point.Score),
		Payload: make(map[string]any),
	}

	if point.Id != nil {
		if id := point.Id.GetUuid(); id != "" {
			hit.ID = id
		} else {
			hit.ID = fmt.Sprintf("%d", point.Id.GetNum())
		}
	}

	for k, v := range point.Payload {
		switch k {
		case driven.PayloadDocumentID:
			hit.DocumentID = v.GetStringValue()
		case driven.PayloadChunkIndex:
			hit.ChunkIndex = int(v.GetIntegerValue())
		default:
			hit.Payload[k] = extractValue(v)
		}
	}
	return hit
}

// buildFilter converts a search filter to a Qdrant filter.
func buildFilter(filter *driven.SearchFilter) *qdrant.Filter {
	if filter == nil {
		return nil
	}

	var conditions []*qdrant.Condition
	if len(filter.DocumentIDs) == 1 {
		conditions = append(conditions, qdrant.NewMatch(driven.PayloadDocumentID, filter.DocumentIDs[0]))
	} else if len(filter.DocumentIDs) > 1 {
		conditions = append(conditions, qdrant.NewMatchKeywords(driven.PayloadDocumentID, filter.DocumentIDs...))
	}
	if filter.Category != "" {
		conditions = append(conditions, qdrant.NewMatch(driven.PayloadCategory, filter.Category))
	}

	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

// extractValue extracts a Go value from a Qdrant Value.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return nil
	}
}

// metricToDistance maps a domain metric to Qdrant's distance enum.
func metricToDistance(metric domain.Metric) (qdrant.Distance, error) {
	switch metric {
	case domain.MetricCosine:
		return qdrant.Distance_Cosine, nil
	case domain.MetricInnerProduct:
		return qdrant.Distance_Dot, nil
	case domain.MetricL2:
		return qdrant.Distance_Euclid, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("%w: unsupported metric %q", domain.ErrInvalidInput, metric)
	}
}

// distanceToMetric maps Qdrant's distance enum to a domain metric.
func distanceToMetric(distance qdrant.Distance) (domain.Metric, error) {
	switch distance {
	case qdrant.Distance_Cosine:
		return domain.MetricCosine, nil
	case qdrant.Distance_Dot:
		return domain.MetricInnerProduct, nil
	case qdrant.Distance_Euclid:
		return domain.MetricL2, nil
	default:
		return "", fmt.Errorf("unsupported qdrant distance %v", distance)
	}
}
