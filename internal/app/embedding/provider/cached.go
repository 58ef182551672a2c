package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"video-qa/internal/app/common"
)

// CachedProvider stores embeddings in Redis keyed by provider, model and text hash.
// Cache failures never fail the call; the inner provider is used instead.
type CachedProvider struct {
	inner  EmbeddingProvider
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger common.Logger
}

// NewCachedProvider wraps inner with a Redis-backed cache
func NewCachedProvider(inner EmbeddingProvider, client redis.Cmdable, ttl time.Duration, logger common.Logger) *CachedProvider {
	if logger == nil {
		logger = common.NopLogger()
	}
	info := inner.GetProviderInfo()
	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: fmt.Sprintf("vqa:emb:%s:%s:%d:", info.Name, info.Model, info.Dimension),
		logger: logger,
	}
}

func (c *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// GenerateEmbedding returns the cached vector or computes and stores it
func (c *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, decErr := decodeVector(data); decErr == nil {
			return vec, nil
		}
		c.logger.Warn("Discarding corrupt cached embedding", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Embedding cache read failed", "error", err)
	}

	vec, err := c.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("Embedding cache write failed", "error", err)
	}
	return vec, nil
}

// GetProviderInfo returns the wrapped provider's info
func (c *CachedProvider) GetProviderInfo() ProviderInfo {
	return c.inner.GetProviderInfo()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding of %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
