package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bharatkse/image-storage-service/internal/models"
)

const defaultPageSize = 100

// PostgresStore implements Store on a pgx connection pool. created_at is kept
// as text so the owner+created_at range pushdown is plain string comparison,
// identical to the ordering the coordinators assume.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the images table and its secondary indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS images (
			image_id     TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL,
			display_name TEXT NOT NULL,
			description  TEXT,
			tags         TEXT[],
			created_at   TEXT NOT NULL,
			updated_at   TEXT,
			blob_key     TEXT NOT NULL,
			byte_size    BIGINT NOT NULL,
			mime_type    TEXT NOT NULL,
			content_hash TEXT
		);
		CREATE INDEX IF NOT EXISTS images_owner_created_idx ON images (owner_id, created_at);
		CREATE INDEX IF NOT EXISTS images_owner_hash_idx ON images (owner_id, content_hash);
	`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, rec models.ImageRecord, ifNotExists bool) error {
	query := `
		INSERT INTO images (
			image_id, owner_id, display_name, description, tags,
			created_at, updated_at, blob_key, byte_size, mime_type, content_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if ifNotExists {
		query += ` ON CONFLICT (image_id) DO NOTHING`
	} else {
		query += ` ON CONFLICT (image_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			blob_key = EXCLUDED.blob_key,
			byte_size = EXCLUDED.byte_size,
			mime_type = EXCLUDED.mime_type,
			content_hash = EXCLUDED.content_hash`
	}

	tag, err := s.pool.Exec(ctx, query,
		rec.ImageID,
		rec.OwnerID,
		rec.DisplayName,
		nullable(rec.Description),
		rec.Tags,
		rec.CreatedAt,
		nullable(rec.UpdatedAt),
		rec.BlobKey,
		rec.ByteSize,
		rec.MimeType,
		nullable(rec.ContentHash),
	)
	if err != nil {
		return fmt.Errorf("insert record %q: %w", rec.ImageID, err)
	}
	if ifNotExists && tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

const selectColumns = `
	image_id, owner_id, display_name, COALESCE(description, ''), tags,
	created_at, COALESCE(updated_at, ''), blob_key, byte_size, mime_type,
	COALESCE(content_hash, '')
`

func (s *PostgresStore) Get(ctx context.Context, imageID string) (models.ImageRecord, bool, error) {
	query := `SELECT ` + selectColumns + ` FROM images WHERE image_id = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, imageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ImageRecord{}, false, nil
		}
		return models.ImageRecord{}, false, fmt.Errorf("get record %q: %w", imageID, err)
	}
	return rec, true, nil
}

func (s *PostgresStore) Delete(ctx context.Context, imageID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, imageID); err != nil {
		return fmt.Errorf("delete record %q: %w", imageID, err)
	}
	return nil
}

func (s *PostgresStore) QueryByOwner(ctx context.Context, q OwnerQuery) (Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var (
		conds = []string{"owner_id = $1"}
		args  = []any{q.OwnerID}
	)
	if q.CreatedFrom != "" {
		args = append(args, q.CreatedFrom)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if q.CreatedTo != "" {
		args = append(args, q.CreatedTo)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	order := "DESC"
	cmp := "<"
	if q.ScanForward {
		order = "ASC"
		cmp = ">"
	}

	if q.StartToken != "" {
		createdAt, imageID, err := decodeToken(q.StartToken)
		if err != nil {
			return Page{}, fmt.Errorf("decode continuation token: %w", err)
		}
		args = append(args, createdAt, imageID)
		conds = append(conds, fmt.Sprintf("(created_at, image_id) %s ($%d, $%d)", cmp, len(args)-1, len(args)))
	}

	// Fetch one extra row to know whether a continuation token is needed.
	args = append(args, limit+1)
	query := fmt.Sprintf(
		`SELECT %s FROM images WHERE %s ORDER BY created_at %s, image_id %s LIMIT $%d`,
		selectColumns, strings.Join(conds, " AND "), order, order, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query owner %q: %w", q.OwnerID, err)
	}
	defer rows.Close()

	var items []models.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scan record: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("query owner %q: %w", q.OwnerID, err)
	}

	page := Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextToken = encodeToken(last.CreatedAt, last.ImageID)
	}
	return page, nil
}

func (s *PostgresStore) QueryByOwnerHash(ctx context.Context, ownerID, contentHash string, limit int) ([]models.ImageRecord, error) {
	if limit <= 0 {
		limit = 1
	}
	query := `SELECT ` + selectColumns + `
		FROM images WHERE owner_id = $1 AND content_hash = $2 LIMIT $3`

	rows, err := s.pool.Query(ctx, query, ownerID, contentHash, limit)
	if err != nil {
		return nil, fmt.Errorf("query owner hash: %w", err)
	}
	defer rows.Close()

	var items []models.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func scanRecord(row pgx.Row) (models.ImageRecord, error) {
	var rec models.ImageRecord
	err := row.Scan(
		&rec.ImageID,
		&rec.OwnerID,
		&rec.DisplayName,
		&rec.Description,
		&rec.Tags,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.BlobKey,
		&rec.ByteSize,
		&rec.MimeType,
		&rec.ContentHash,
	)
	return rec, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func encodeToken(createdAt, imageID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(createdAt + "\x00" + imageID))
}

func decodeToken(token string) (createdAt, imageID string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(raw), "\x00", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed token")
	}
	return parts[0], parts[1], nil
}

var _ Store = (*PostgresStore)(nil)
