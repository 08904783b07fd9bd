package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashingEmbedder_Deterministic(t *testing.T) {
	e := NewHashingEmbedder(128)
	ctx := context.Background()

	first, err := e.Embed(ctx, "loan payment overdue on account")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "loan payment overdue on account")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashingEmbedder_Dimension(t *testing.T) {
	e := NewHashingEmbedder(64)
	assert.Equal(t, 64, e.Dimension())

	vec, err := e.Embed(context.Background(), "balance alert")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestHashingEmbedder_DefaultDimension(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, 384, e.Dimension())
}

func TestHashingEmbedder_Normalized(t *testing.T) {
	e := NewHashingEmbedder(128)

	vec, err := e.Embed(context.Background(), "credit card statement is ready for review")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashingEmbedder_EmptyText(t *testing.T) {
	e := NewHashingEmbedder(32)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, 32)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashingEmbedder_CaseInsensitive(t *testing.T) {
	e := NewHashingEmbedder(128)
	ctx := context.Background()

	lower, err := e.Embed(ctx, "mortgage payment due")
	require.NoError(t, err)
	upper, err := e.Embed(ctx, "MORTGAGE Payment DUE")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
}
