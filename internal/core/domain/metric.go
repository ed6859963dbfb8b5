package domain

// Metric is the distance or similarity function a vector collection is
// built with. Every search against a collection must use the metric the
// collection was created with: most engines do not reject a mismatch,
// they silently return degraded results.
type Metric string

// Supported metrics.
const (
	// MetricCosine is cosine similarity. Higher scores are better.
	MetricCosine Metric = "cosine"

	// MetricInnerProduct is inner (dot) product. Higher scores are better.
	MetricInnerProduct Metric = "ip"

	// MetricL2 is squared Euclidean distance. Lower scores are better.
	MetricL2 Metric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m Metric) IsValid() bool {
	switch m {
	case MetricCosine, MetricInnerProduct, MetricL2:
		return true
	default:
		return false
	}
}

// HigherIsBetter returns the comparison direction for scores under this
// metric. Threshold filtering and ranking must use this rather than
// assuming similarity semantics.
func (m Metric) HigherIsBetter() bool {
	return m != MetricL2
}

// Better reports whether score a ranks ahead of score b under this metric.
func (m Metric) Better(a, b float64) bool {
	if m.HigherIsBetter() {
		return a > b
	}
	return a < b
}

// MeetsThreshold reports whether a score passes the relevance threshold
// under this metric's comparison direction.
func (m Metric) MeetsThreshold(score, threshold float64) bool {
	if m.HigherIsBetter() {
		return score >= threshold
	}
	return score <= threshold
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// ParseMetric converts a configuration string to a Metric.
// Accepts the common aliases used by vector database engines.
func ParseMetric(s string) (Metric, bool) {
	switch s {
	case "cosine", "COSINE":
		return MetricCosine, true
	case "ip", "IP", "dot", "inner_product":
		return MetricInnerProduct, true
	case "l2", "L2", "euclidean":
		return MetricL2, true
	default:
		return "", false
	}
}
