package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// Dialect selects SQL placeholders and column types
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps index sets in three tables and commits each set in one transaction.
// The manifest row is inserted last and is what marks a video ready.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database handle
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenSQLStore opens the database and creates the schema
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, apperrors.InvalidField("storage dialect", string(dialect))
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to open %s", dialect)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Wrapf(err, "failed to connect to %s", dialect)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ph(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) blobType() string {
	if s.dialect == DialectPostgres {
		return "BYTEA"
	}
	return "BLOB"
}

// Migrate creates the tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vqa_role_indices (
			video_id TEXT NOT NULL,
			role TEXT NOT NULL,
			data %s NOT NULL,
			PRIMARY KEY (video_id, role)
		)`, s.blobType()),
		`CREATE TABLE IF NOT EXISTS vqa_frame_metadata (
			video_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vqa_manifests (
			video_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(err, "failed to migrate artifact schema")
		}
	}
	return nil
}

// Commit replaces the video's rows inside a single transaction
func (s *SQLStore) Commit(ctx context.Context, set *IndexSet) (err error) {
	if err := set.Validate(); err != nil {
		return err
	}
	videoID := set.Manifest.VideoID
	set.Manifest.Generation = uuid.New().String()

	meta, err := json.Marshal(set.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode metadata")
	}
	manifest, err := json.Marshal(set.Manifest)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode manifest")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailed, err.Error())
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"vqa_manifests", "vqa_frame_metadata", "vqa_role_indices"} {
		q := fmt.Sprintf("DELETE FROM %s WHERE video_id = %s", table, s.ph(1))
		if _, err = tx.ExecContext(ctx, q, videoID); err != nil {
			return apperrors.Wrapf(err, "failed to clear %s", table)
		}
	}

	insertIndex := fmt.Sprintf("INSERT INTO vqa_role_indices (video_id, role, data) VALUES (%s, %s, %s)", s.ph(1), s.ph(2), s.ph(3))
	for _, role := range model.AllRoles() {
		var data []byte
		if data, err = set.Indices[role].MarshalBinary(); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, insertIndex, videoID, string(role), data); err != nil {
			return apperrors.Wrapf(err, "failed to store %s index", role)
		}
	}

	insertMeta := fmt.Sprintf("INSERT INTO vqa_frame_metadata (video_id, data) VALUES (%s, %s)", s.ph(1), s.ph(2))
	if _, err = tx.ExecContext(ctx, insertMeta, videoID, string(meta)); err != nil {
		return apperrors.Wrap(err, "failed to store metadata")
	}

	insertManifest := fmt.Sprintf("INSERT INTO vqa_manifests (video_id, data) VALUES (%s, %s)", s.ph(1), s.ph(2))
	if _, err = tx.ExecContext(ctx, insertManifest, videoID, string(manifest)); err != nil {
		return apperrors.Wrap(err, "failed to store manifest")
	}

	if err = tx.Commit(); err != nil {
		return apperrors.Wrap(err, "failed to commit index set")
	}
	return nil
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLStore) queryOne(ctx context.Context, q rowQuerier, videoID, query string, args ...interface{}) ([]byte, error) {
	var data []byte
	err := q.QueryRowContext(ctx, query, args...).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, indexNotFound(videoID)
		}
		return nil, apperrors.Wrap(err, "failed to query artifact")
	}
	return data, nil
}

func (s *SQLStore) indexQuery() string {
	return fmt.Sprintf(`SELECT i.data FROM vqa_role_indices i
		JOIN vqa_manifests m ON m.video_id = i.video_id
		WHERE i.video_id = %s AND i.role = %s`, s.ph(1), s.ph(2))
}

func (s *SQLStore) metadataQuery() string {
	return fmt.Sprintf(`SELECT f.data FROM vqa_frame_metadata f
		JOIN vqa_manifests m ON m.video_id = f.video_id
		WHERE f.video_id = %s`, s.ph(1))
}

func (s *SQLStore) manifestQuery() string {
	return fmt.Sprintf("SELECT data FROM vqa_manifests WHERE video_id = %s", s.ph(1))
}

// snapshotTxOptions asks for one consistent view across the three reads.
// SQLite transactions already read from a single snapshot.
func (s *SQLStore) snapshotTxOptions() *sql.TxOptions {
	opts := &sql.TxOptions{ReadOnly: true}
	if s.dialect == DialectPostgres {
		opts.Isolation = sql.LevelRepeatableRead
	}
	return opts
}

// LoadSnapshot runs the manifest, index and metadata reads inside one read-only transaction
func (s *SQLStore) LoadSnapshot(ctx context.Context, videoID string, role model.Role) (snap *Snapshot, err error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, s.snapshotTxOptions())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailed, err.Error())
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	manifest, err := s.queryOne(ctx, tx, videoID, s.manifestQuery(), videoID)
	if err != nil {
		return nil, err
	}
	m, err := decodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	ix, err := s.queryOne(ctx, tx, videoID, s.indexQuery(), videoID, string(role))
	if err != nil {
		return nil, err
	}
	meta, err := s.queryOne(ctx, tx, videoID, s.metadataQuery(), videoID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, apperrors.Wrap(err, "failed to finish snapshot read")
	}
	return decodeSnapshot(m, ix, meta)
}

// LoadIndex reads a role index; the join on manifests hides uncommitted or partial sets
func (s *SQLStore) LoadIndex(ctx context.Context, videoID string, role model.Role) (*FlatIndex, error) {
	data, err := s.queryOne(ctx, s.db, videoID, s.indexQuery(), videoID, string(role))
	if err != nil {
		return nil, err
	}
	return decodeIndex(data)
}

func (s *SQLStore) LoadMetadata(ctx context.Context, videoID string) ([]model.MetadataRow, error) {
	data, err := s.queryOne(ctx, s.db, videoID, s.metadataQuery(), videoID)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(data)
}

func (s *SQLStore) LoadManifest(ctx context.Context, videoID string) (*Manifest, error) {
	data, err := s.queryOne(ctx, s.db, videoID, s.manifestQuery(), videoID)
	if err != nil {
		return nil, err
	}
	return decodeManifest(data)
}

func (s *SQLStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var count int
	q := fmt.Sprintf("SELECT COUNT(1) FROM vqa_manifests WHERE video_id = %s", s.ph(1))
	if err := s.db.QueryRowContext(ctx, q, videoID).Scan(&count); err != nil {
		return false, apperrors.Wrap(err, "failed to check index readiness")
	}
	return count > 0, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ParseDialect maps a backend name onto a dialect
func ParseDialect(backend string) (Dialect, error) {
	switch strings.ToLower(backend) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", apperrors.InvalidField("storage backend", backend)
}
