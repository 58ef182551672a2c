package retrieval

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"video-qa/internal/app/embedding/provider"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/storage/vector"
)

const (
	DefaultCacheEntries = 64
	DefaultCacheTTL     = 30 * time.Minute
)

// RoleHandle is everything a search against one (video, role) needs
type RoleHandle struct {
	VideoID    string
	Role       model.Role
	Generation string
	Index      *vector.FlatIndex
	Metadata   []model.MetadataRow
	Embedder   provider.EmbeddingProvider
}

// IndexCache lazily loads role handles into a bounded, expiring LRU.
// Concurrent first accesses of one key share a single load.
type IndexCache struct {
	store    vector.ArtifactStore
	embedder provider.EmbeddingProvider
	recorder Recorder
	entries  *expirable.LRU[string, *RoleHandle]
	group    singleflight.Group
	loads    atomic.Int64

	mu     sync.Mutex
	epochs map[string]uint64
}

// NewIndexCache creates a cache holding at most size handles for ttl each
func NewIndexCache(store vector.ArtifactStore, embedder provider.EmbeddingProvider, size int, ttl time.Duration, recorder Recorder) *IndexCache {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	return &IndexCache{
		store:    store,
		embedder: embedder,
		recorder: recorder,
		entries:  expirable.NewLRU[string, *RoleHandle](size, nil, ttl),
		epochs:   make(map[string]uint64),
	}
}

func cacheKey(videoID string, role model.Role) string {
	return videoID + "/" + string(role)
}

func (c *IndexCache) epoch(videoID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[videoID]
}

// Get returns the cached handle or loads it from the store
func (c *IndexCache) Get(ctx context.Context, videoID string, role model.Role) (*RoleHandle, error) {
	key := cacheKey(videoID, role)
	if h, ok := c.entries.Get(key); ok {
		c.recorder.CacheHit(role)
		return h, nil
	}
	c.recorder.CacheMiss(role)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if h, ok := c.entries.Get(key); ok {
			return h, nil
		}
		started := c.epoch(videoID)
		h, err := c.load(ctx, videoID, role)
		if err != nil {
			return nil, err
		}
		// a rebuild committed while loading; hand out the handle but do not cache it
		if c.epoch(videoID) == started {
			c.entries.Add(key, h)
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RoleHandle), nil
}

func (c *IndexCache) load(ctx context.Context, videoID string, role model.Role) (*RoleHandle, error) {
	c.loads.Add(1)
	snap, err := c.store.LoadSnapshot(ctx, videoID, role)
	if err != nil {
		return nil, err
	}
	ix, rows, manifest := snap.Index, snap.Metadata, snap.Manifest
	if ix.Len() != len(rows) || manifest.Count != len(rows) {
		return nil, apperrors.Wrap(apperrors.ErrCorruptArtifact,
			fmt.Sprintf("%s/%s: index has %d vectors, metadata %d rows, manifest %d", videoID, role, ix.Len(), len(rows), manifest.Count))
	}
	if dim := c.embedder.GetProviderInfo().Dimension; dim > 0 && dim != ix.Dim() {
		return nil, apperrors.Wrapf(apperrors.ErrDimensionMismatch,
			"%s/%s was built with %d dims, embedder produces %d", videoID, role, ix.Dim(), dim)
	}
	return &RoleHandle{
		VideoID:    videoID,
		Role:       role,
		Generation: manifest.Generation,
		Index:      ix,
		Metadata:   rows,
		Embedder:   c.embedder,
	}, nil
}

// Invalidate drops every role handle of videoID, including loads still in flight
func (c *IndexCache) Invalidate(videoID string) {
	c.mu.Lock()
	c.epochs[videoID]++
	c.mu.Unlock()
	for _, role := range model.AllRoles() {
		key := cacheKey(videoID, role)
		c.entries.Remove(key)
		c.group.Forget(key)
	}
}

// Len returns the number of cached handles
func (c *IndexCache) Len() int {
	return c.entries.Len()
}

// Loads returns how many store loads have been performed
func (c *IndexCache) Loads() int64 {
	return c.loads.Load()
}
