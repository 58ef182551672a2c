package provider

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProviderServesRepeatsFromRedis(t *testing.T) {
	// Arrange
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	inner := &flakyProvider{inner: NewMockProvider(16)}
	p := NewCachedProvider(inner, client, time.Hour, nil)
	ctx := context.Background()

	// Act
	first, err := p.GenerateEmbedding(ctx, "tense chase")
	require.NoError(t, err)
	second, err := p.GenerateEmbedding(ctx, "tense chase")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, srv.Keys(), 1)
	assert.Contains(t, srv.Keys()[0], "vqa:emb:mock:mock-model:16:")
}

func TestCachedProviderDegradesWhenRedisIsDown(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()
	srv.Close()

	inner := &flakyProvider{inner: NewMockProvider(4)}
	p := NewCachedProvider(inner, client, time.Minute, nil)

	vec, err := p.GenerateEmbedding(context.Background(), "calm sea")

	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, 1, inner.calls)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0.25, -1, 3.5}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
