package domain

// RetrieveOptions configures a retrieval request.
type RetrieveOptions struct {
	// TopK is the maximum number of candidates to fetch from the index.
	TopK int

	// RelevanceThreshold is the score cutoff. Direction depends on the
	// collection's metric: see Metric.MeetsThreshold.
	RelevanceThreshold float64

	// Category filters results to a document category. Empty means all.
	Category string

	// Metric is the caller's expected metric. It is advisory only: the
	// retrieval service always searches with the collection's bound
	// metric, detected from the index.
	Metric Metric
}

// RetrievedChunk is a single retrieval hit.
type RetrievedChunk struct {
	// VectorID is the vector-index record id.
	VectorID string

	// DocumentID links to the source document.
	DocumentID string

	// ChunkIndex is the chunk's ordinal position within the document.
	ChunkIndex int

	// Content is the chunk text.
	Content string

	// Title is the source document title, if stored in the payload.
	Title string

	// Category is the source document category, if stored in the payload.
	Category string

	// Score is the raw score under the collection's metric.
	Score float64
}
