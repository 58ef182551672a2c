package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// Bucket is the slice of object storage the store needs
type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// errObjectMissing is returned by Bucket.Get for absent keys
var errObjectMissing = apperrors.NewKind(apperrors.KindNotFound, "object not found")

// ObjectStore writes every build under a fresh generation prefix and then
// points the video's manifest.json at it. The manifest put is the commit.
type ObjectStore struct {
	bucket Bucket
	prefix string
}

// NewObjectStore creates a store rooted at prefix inside bucket
func NewObjectStore(bucket Bucket, prefix string) *ObjectStore {
	return &ObjectStore{bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *ObjectStore) key(parts ...string) string {
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (s *ObjectStore) Commit(ctx context.Context, set *IndexSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	videoID := set.Manifest.VideoID
	generation := uuid.New().String()
	set.Manifest.Generation = generation

	for _, role := range model.AllRoles() {
		data, err := set.Indices[role].MarshalBinary()
		if err != nil {
			return err
		}
		if err := s.bucket.Put(ctx, s.key(videoID, generation, indexFileName(role)), data, "application/octet-stream"); err != nil {
			return apperrors.Wrapf(err, "failed to upload %s index", role)
		}
	}

	meta, err := json.Marshal(set.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode metadata")
	}
	if err := s.bucket.Put(ctx, s.key(videoID, generation, metadataFileName), meta, "application/json"); err != nil {
		return apperrors.Wrap(err, "failed to upload metadata")
	}

	manifest, err := json.Marshal(set.Manifest)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode manifest")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.bucket.Put(ctx, s.key(videoID, manifestFileName), manifest, "application/json"); err != nil {
		return apperrors.Wrap(err, "failed to upload manifest")
	}

	s.collectGarbage(ctx, videoID, generation)
	return nil
}

// collectGarbage removes objects of superseded generations; failures leave orphans only
func (s *ObjectStore) collectGarbage(ctx context.Context, videoID, keep string) {
	keys, err := s.bucket.List(ctx, s.key(videoID)+"/")
	if err != nil {
		return
	}
	live := s.key(videoID, keep) + "/"
	manifest := s.key(videoID, manifestFileName)
	for _, k := range keys {
		if k == manifest || strings.HasPrefix(k, live) {
			continue
		}
		_ = s.bucket.Delete(ctx, k)
	}
}

func (s *ObjectStore) LoadManifest(ctx context.Context, videoID string) (*Manifest, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	data, err := s.bucket.Get(ctx, s.key(videoID, manifestFileName))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, indexNotFound(videoID)
		}
		return nil, apperrors.Wrap(err, "failed to read manifest")
	}
	return decodeManifest(data)
}

func (s *ObjectStore) readGeneration(videoID string) generationReader {
	return func(ctx context.Context, generation, name string) ([]byte, error) {
		data, err := s.bucket.Get(ctx, s.key(videoID, generation, name))
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.Wrapf(errGenerationGone, "%s missing from generation %s", name, generation)
			}
			return nil, apperrors.Wrapf(err, "failed to read %s", name)
		}
		return data, nil
	}
}

func (s *ObjectStore) read(ctx context.Context, videoID string, names ...string) (*Manifest, [][]byte, error) {
	manifest := func(ctx context.Context) (*Manifest, error) { return s.LoadManifest(ctx, videoID) }
	return readCommitted(ctx, videoID, manifest, s.readGeneration(videoID), names...)
}

// LoadSnapshot fetches manifest.json once and both artifacts under its generation prefix
func (s *ObjectStore) LoadSnapshot(ctx context.Context, videoID string, role model.Role) (*Snapshot, error) {
	m, blobs, err := s.read(ctx, videoID, indexFileName(role), metadataFileName)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(m, blobs[0], blobs[1])
}

func (s *ObjectStore) LoadIndex(ctx context.Context, videoID string, role model.Role) (*FlatIndex, error) {
	_, blobs, err := s.read(ctx, videoID, indexFileName(role))
	if err != nil {
		return nil, err
	}
	return decodeIndex(blobs[0])
}

func (s *ObjectStore) LoadMetadata(ctx context.Context, videoID string) ([]model.MetadataRow, error) {
	_, blobs, err := s.read(ctx, videoID, metadataFileName)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(blobs[0])
}

func (s *ObjectStore) Exists(ctx context.Context, videoID string) (bool, error) {
	_, err := s.LoadManifest(ctx, videoID)
	if err == nil {
		return true, nil
	}
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *ObjectStore) Close() error {
	return nil
}

// MinioConfig holds connection settings for a MinIO or S3 compatible endpoint
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioBucket implements Bucket with minio-go
type MinioBucket struct {
	client *minio.Client
	bucket string
}

// NewMinioBucket connects and creates the bucket when missing
func NewMinioBucket(ctx context.Context, cfg MinioConfig) (*MinioBucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return &MinioBucket{client: client, bucket: cfg.Bucket}, nil
}

func (b *MinioBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *MinioBucket) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, b.translate(err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, b.translate(err)
	}
	return data, nil
}

func (b *MinioBucket) translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return apperrors.Wrap(errObjectMissing, err.Error())
	}
	return err
}

func (b *MinioBucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (b *MinioBucket) Delete(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
}
