package vector

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// MemoryStore keeps committed index sets in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	sets    map[string]*IndexSet
	commits int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*IndexSet)}
}

// Commit swaps in the new set under the write lock
func (s *MemoryStore) Commit(ctx context.Context, set *IndexSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]model.MetadataRow, len(set.Metadata))
	copy(rows, set.Metadata)
	indices := make(map[model.Role]*FlatIndex, len(set.Indices))
	for role, ix := range set.Indices {
		indices[role] = ix
	}

	set.Manifest.Generation = uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.Manifest.VideoID] = &IndexSet{Manifest: set.Manifest, Indices: indices, Metadata: rows}
	s.commits++
	return nil
}

func (s *MemoryStore) get(videoID string) (*IndexSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[videoID]
	if !ok {
		return nil, indexNotFound(videoID)
	}
	return set, nil
}

// LoadSnapshot serves all three parts from the one set pointer read under the lock
func (s *MemoryStore) LoadSnapshot(ctx context.Context, videoID string, role model.Role) (*Snapshot, error) {
	set, err := s.get(videoID)
	if err != nil {
		return nil, err
	}
	ix, ok := set.Indices[role]
	if !ok {
		return nil, apperrors.NotFound("role index", videoID+"/"+role.String())
	}
	m := set.Manifest
	return &Snapshot{Manifest: &m, Index: ix, Metadata: set.Metadata}, nil
}

func (s *MemoryStore) LoadIndex(ctx context.Context, videoID string, role model.Role) (*FlatIndex, error) {
	set, err := s.get(videoID)
	if err != nil {
		return nil, err
	}
	ix, ok := set.Indices[role]
	if !ok {
		return nil, apperrors.NotFound("role index", videoID+"/"+role.String())
	}
	return ix, nil
}

func (s *MemoryStore) LoadMetadata(ctx context.Context, videoID string) ([]model.MetadataRow, error) {
	set, err := s.get(videoID)
	if err != nil {
		return nil, err
	}
	return set.Metadata, nil
}

func (s *MemoryStore) LoadManifest(ctx context.Context, videoID string) (*Manifest, error) {
	set, err := s.get(videoID)
	if err != nil {
		return nil, err
	}
	m := set.Manifest
	return &m, nil
}

func (s *MemoryStore) Exists(ctx context.Context, videoID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sets[videoID]
	return ok, nil
}

// Commits returns how many successful commits the store has seen
func (s *MemoryStore) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

func (s *MemoryStore) Close() error {
	return nil
}
