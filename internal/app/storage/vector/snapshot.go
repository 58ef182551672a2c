package vector

import (
	"context"
	"fmt"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// Snapshot is one role of a single committed build.
// Index and Metadata always come from the generation Manifest names.
type Snapshot struct {
	Manifest *Manifest
	Index    *FlatIndex
	Metadata []model.MetadataRow
}

// snapshotAttempts bounds how often a read chases a newer generation
const snapshotAttempts = 5

// errGenerationGone marks an artifact removed after a newer generation was published
var errGenerationGone = apperrors.NewKind(apperrors.KindNotFound, "generation no longer present")

type manifestReader func(ctx context.Context) (*Manifest, error)

type generationReader func(ctx context.Context, generation, name string) ([]byte, error)

// readCommitted reads names from the generation the manifest points at.
// When a concurrent commit retires that generation mid-read, the manifest is
// read again and the whole read restarts against the new generation.
func readCommitted(ctx context.Context, videoID string, manifest manifestReader, read generationReader, names ...string) (*Manifest, [][]byte, error) {
	var last string
	for attempt := 0; attempt < snapshotAttempts; attempt++ {
		m, err := manifest(ctx)
		if err != nil {
			return nil, nil, err
		}
		if attempt > 0 && m.Generation == last {
			break
		}
		last = m.Generation

		blobs := make([][]byte, 0, len(names))
		var readErr error
		for _, name := range names {
			data, err := read(ctx, m.Generation, name)
			if err != nil {
				readErr = err
				break
			}
			blobs = append(blobs, data)
		}
		if readErr == nil {
			return m, blobs, nil
		}
		if !apperrors.Is(readErr, errGenerationGone) {
			return nil, nil, readErr
		}
	}
	return nil, nil, apperrors.Wrap(apperrors.ErrCorruptArtifact, fmt.Sprintf("%s: generation %s is incomplete", videoID, last))
}

func decodeIndex(data []byte) (*FlatIndex, error) {
	ix := &FlatIndex{}
	if err := ix.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return ix, nil
}

// decodeSnapshot turns the index and metadata blobs of one generation into a Snapshot
func decodeSnapshot(m *Manifest, indexData, metaData []byte) (*Snapshot, error) {
	ix, err := decodeIndex(indexData)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMetadata(metaData)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Manifest: m, Index: ix, Metadata: rows}, nil
}
