package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetric_IsValid(t *testing.T) {
	assert.True(t, MetricCosine.IsValid())
	assert.True(t, MetricInnerProduct.IsValid())
	assert.True(t, MetricL2.IsValid())
	assert.False(t, Metric("hamming").IsValid())
	assert.False(t, Metric("").IsValid())
}

func TestMetric_HigherIsBetter(t *testing.T) {
	assert.True(t, MetricCosine.HigherIsBetter())
	assert.True(t, MetricInnerProduct.HigherIsBetter())
	assert.False(t, MetricL2.HigherIsBetter())
}

func TestMetric_Better(t *testing.T) {
	// Similarity metrics rank higher scores first.
	assert.True(t, MetricCosine.Better(0.9, 0.5))
	assert.False(t, MetricInnerProduct.Better(0.1, 0.5))

	// Distance metrics rank lower scores first.
	assert.True(t, MetricL2.Better(0.1, 0.5))
	assert.False(t, MetricL2.Better(2.0, 0.5))
}

func TestMetric_MeetsThreshold(t *testing.T) {
	tests := []struct {
		name      string
		metric    Metric
		score     float64
		threshold float64
		want      bool
	}{
		{"cosine above", MetricCosine, 0.8, 0.3, true},
		{"cosine below", MetricCosine, 0.2, 0.3, false},
		{"cosine equal", MetricCosine, 0.3, 0.3, true},
		{"ip above", MetricInnerProduct, 12.5, 1.0, true},
		{"l2 below threshold passes", MetricL2, 0.1, 0.5, true},
		{"l2 above threshold fails", MetricL2, 1.5, 0.5, false},
		{"l2 equal", MetricL2, 0.5, 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metric.MeetsThreshold(tt.score, tt.threshold))
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input string
		want  Metric
		ok    bool
	}{
		{"cosine", MetricCosine, true},
		{"COSINE", MetricCosine, true},
		{"ip", MetricInnerProduct, true},
		{"IP", MetricInnerProduct, true},
		{"dot", MetricInnerProduct, true},
		{"inner_product", MetricInnerProduct, true},
		{"l2", MetricL2, true},
		{"L2", MetricL2, true},
		{"euclidean", MetricL2, true},
		{"manhattan", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseMetric(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
