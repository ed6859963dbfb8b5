package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedding struct {
	calls      int
	batchCalls int
}

func (f *fakeEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2}, nil
}

func (f *fakeEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int            { return 2 }
func (f *fakeEmbedding) ModelName() string          { return "fake-model" }
func (f *fakeEmbedding) Ping(context.Context) error { return nil }
func (f *fakeEmbedding) Close() error               { return nil }

func TestWrap_ZeroRateReturnsInnerUnchanged(t *testing.T) {
	inner := &fakeEmbedding{}

	svc := Wrap(inner, 0, 1)

	assert.Same(t, inner, svc.(*fakeEmbedding))
}

func TestWrap_NegativeRateReturnsInnerUnchanged(t *testing.T) {
	inner := &fakeEmbedding{}

	svc := Wrap(inner, -1, 1)

	assert.Same(t, inner, svc.(*fakeEmbedding))
}

func TestService_DelegatesEmbed(t *testing.T) {
	inner := &fakeEmbedding{}
	svc := Wrap(inner, 1000, 10)

	vec, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestService_DelegatesEmbedBatch(t *testing.T) {
	inner := &fakeEmbedding{}
	svc := Wrap(inner, 1000, 10)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 1, inner.batchCalls)
}

func TestService_DelegatesMetadata(t *testing.T) {
	svc := Wrap(&fakeEmbedding{}, 1000, 10)

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "fake-model", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestService_CancelledContextStopsWaiting(t *testing.T) {
	inner := &fakeEmbedding{}
	// Rate of one per hour with burst 1: the second call must wait.
	svc := Wrap(inner, 1.0/3600, 1)

	_, err := svc.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = svc.Embed(ctx, "second")

	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
