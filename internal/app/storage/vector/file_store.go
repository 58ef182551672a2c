package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// FileStore keeps one directory per video under root. Each build is written to
// its own generation directory and published by atomically renaming the video's
// manifest.json, which names the live generation, into place.
//
//	root/<video>/manifest.json
//	root/<video>/<generation>/<role>.index
//	root/<video>/<generation>/metadata.json
type FileStore struct {
	root string
	// serializes pointer swaps and garbage collection; readers never take it
	swapMu sync.Mutex
}

const stagingPrefix = ".tmp-"

// NewFileStore creates the root directory if needed
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.Wrapf(err, "failed to create store root %s", root)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) videoDir(videoID string) string {
	return filepath.Join(s.root, videoID)
}

// Commit writes the set into a fresh generation and then repoints the manifest at it.
// The previous generation stays readable until the manifest rename lands.
func (s *FileStore) Commit(ctx context.Context, set *IndexSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	videoID := set.Manifest.VideoID
	generation := uuid.New().String()
	set.Manifest.Generation = generation

	dir := s.videoDir(videoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrapf(err, "failed to create directory for %s", videoID)
	}
	staging := filepath.Join(dir, stagingPrefix+generation)
	if err := os.Mkdir(staging, 0o755); err != nil {
		return apperrors.Wrap(err, "failed to create staging directory")
	}
	genDir := filepath.Join(dir, generation)
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
			os.RemoveAll(genDir)
			// only succeeds when no other generation lives there
			os.Remove(dir)
		}
	}()

	for _, role := range model.AllRoles() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := set.Indices[role].MarshalBinary()
		if err != nil {
			return err
		}
		if err := writeFileSync(filepath.Join(staging, indexFileName(role)), data); err != nil {
			return err
		}
	}

	meta, err := json.MarshalIndent(set.Metadata, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode metadata")
	}
	if err := writeFileSync(filepath.Join(staging, metadataFileName), meta); err != nil {
		return err
	}
	if err := os.Rename(staging, genDir); err != nil {
		return apperrors.Wrap(err, "failed to seal generation")
	}

	manifest, err := json.MarshalIndent(set.Manifest, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode manifest")
	}
	pending := filepath.Join(dir, fmt.Sprintf(".manifest-%s.tmp", generation))
	if err := writeFileSync(pending, manifest); err != nil {
		os.Remove(pending)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.Remove(pending)
		return err
	}

	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if err := os.Rename(pending, filepath.Join(dir, manifestFileName)); err != nil {
		os.Remove(pending)
		return apperrors.Wrap(err, "failed to publish index set")
	}
	committed = true
	s.collectGarbage(dir, generation)
	return nil
}

// collectGarbage removes generations other than live; staging directories of
// commits still in progress are left alone
func (s *FileStore) collectGarbage(dir, live string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == live || strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		os.RemoveAll(filepath.Join(dir, e.Name()))
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return apperrors.Wrapf(err, "failed to create %s", filepath.Base(path))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return apperrors.Wrapf(err, "failed to write %s", filepath.Base(path))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return apperrors.Wrapf(err, "failed to sync %s", filepath.Base(path))
	}
	return f.Close()
}

func (s *FileStore) readManifest(ctx context.Context, videoID string) (*Manifest, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.videoDir(videoID), manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, indexNotFound(videoID)
		}
		return nil, apperrors.Wrap(err, "failed to read manifest")
	}
	m, err := decodeManifest(data)
	if err != nil {
		return nil, err
	}
	if m.Generation == "" || strings.ContainsAny(m.Generation, `/\`) || strings.HasPrefix(m.Generation, ".") {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptArtifact, "manifest of %s names generation %q", videoID, m.Generation)
	}
	return m, nil
}

func (s *FileStore) readGeneration(videoID string) generationReader {
	return func(ctx context.Context, generation, name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(s.videoDir(videoID), generation, name))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperrors.Wrapf(errGenerationGone, "%s/%s", generation, name)
			}
			return nil, apperrors.Wrapf(err, "failed to read %s", name)
		}
		return data, nil
	}
}

func (s *FileStore) read(ctx context.Context, videoID string, names ...string) (*Manifest, [][]byte, error) {
	manifest := func(ctx context.Context) (*Manifest, error) { return s.readManifest(ctx, videoID) }
	return readCommitted(ctx, videoID, manifest, s.readGeneration(videoID), names...)
}

// LoadSnapshot reads the manifest once and both artifacts from the generation it names
func (s *FileStore) LoadSnapshot(ctx context.Context, videoID string, role model.Role) (*Snapshot, error) {
	m, blobs, err := s.read(ctx, videoID, indexFileName(role), metadataFileName)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(m, blobs[0], blobs[1])
}

func (s *FileStore) LoadIndex(ctx context.Context, videoID string, role model.Role) (*FlatIndex, error) {
	_, blobs, err := s.read(ctx, videoID, indexFileName(role))
	if err != nil {
		return nil, err
	}
	return decodeIndex(blobs[0])
}

func (s *FileStore) LoadMetadata(ctx context.Context, videoID string) ([]model.MetadataRow, error) {
	_, blobs, err := s.read(ctx, videoID, metadataFileName)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(blobs[0])
}

func (s *FileStore) LoadManifest(ctx context.Context, videoID string) (*Manifest, error) {
	return s.readManifest(ctx, videoID)
}

func (s *FileStore) Exists(ctx context.Context, videoID string) (bool, error) {
	_, err := s.LoadManifest(ctx, videoID)
	if err == nil {
		return true, nil
	}
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *FileStore) Close() error {
	return nil
}
