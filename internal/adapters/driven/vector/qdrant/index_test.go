package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
)

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestMetricDistanceMapping(t *testing.T) {
	cases := map[domain.Metric]qdrant.Distance{
		domain.MetricCosine:       qdrant.Distance_Cosine,
		domain.MetricInnerProduct: qdrant.Distance_Dot,
		domain.MetricL2:           qdrant.Distance_Euclid,
	}
	for metric, distance := range cases {
		got, err := metricToDistance(metric)
		require.NoError(t, err)
		assert.Equal(t, distance, got)

		// Round-trips.
		back, err := distanceToMetric(got)
		require.NoError(t, err)
		assert.Equal(t, metric, back)
	}
}

func TestMetricToDistance_Unknown(t *testing.T) {
	_, err := metricToDistance(domain.Metric("hamming"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDistanceToMetric_Unknown(t *testing.T) {
	_, err := distanceToMetric(qdrant.Distance_Manhattan)
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(&driven.SearchFilter{}))

	f := buildFilter(&driven.SearchFilter{Category: "hr"})
	require.NotNil(t, f)
	assert.Len(t, f.Must, 1)

	f = buildFilter(&driven.SearchFilter{
		DocumentIDs: []string{"a", "b"},
		Category:    "hr",
	})
	require.NotNil(t, f)
	assert.Len(t, f.Must, 2)
}
