package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/media-service/internal/model"
)

// PostgresRepository stores metadata documents in PostgreSQL. Each original
// is one row keyed by path; the whole record, derivatives included, lives in
// a jsonb column, and oldest_derived_at indexes the cache sweep.
type PostgresRepository struct {
	db *dbpg.DB
}

// NewPostgresRepository creates a new PostgresRepository with the given DB connection.
func NewPostgresRepository(db *dbpg.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByPath returns the record stored for p.
func (r *PostgresRepository) GetByPath(ctx context.Context, p model.Path) (model.Metadata, error) {
	query := `
		SELECT document
		FROM media_metadata
		WHERE path = $1
	`

	// Callers read, modify and save the record, so the read must see the
	// master's latest write rather than a lagging replica.
	var doc []byte
	if err := r.db.Master.QueryRowContext(ctx, query, p.String()).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Metadata{}, fmt.Errorf("get %s: %w", p, model.ErrNotFound)
		}

		return model.Metadata{}, fmt.Errorf("get: failed to get metadata: %v: %w", err, model.ErrUpstream)
	}

	return decode(doc)
}

// ListStale returns up to limit records whose oldest derivative was created
// before the cutoff, oldest first.
func (r *PostgresRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]model.Metadata, error) {
	query := `
		SELECT document
		FROM media_metadata
		WHERE oldest_derived_at < $1
		ORDER BY oldest_derived_at
		LIMIT $2
	`

	// Read from the master so a sweep never acts on a lagging replica.
	rows, err := r.db.Master.QueryContext(ctx, query, before.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale: failed to query metadata: %v: %w", err, model.ErrUpstream)
	}
	defer rows.Close()

	var out []model.Metadata
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("list stale: failed to scan row: %w", err)
		}

		m, err := decode(doc)
		if err != nil {
			return nil, err
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale: %v: %w", err, model.ErrUpstream)
	}

	return out, nil
}

// Save inserts or replaces the record for m.Path.
func (r *PostgresRepository) Save(ctx context.Context, m model.Metadata) error {
	query := `
		INSERT INTO media_metadata (path, document, oldest_derived_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (path) DO UPDATE
		SET document = EXCLUDED.document,
		    oldest_derived_at = EXCLUDED.oldest_derived_at,
		    updated_at = NOW()
	`

	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("save: failed to marshal metadata: %w", err)
	}

	var oldest sql.NullTime
	if t, ok := m.OldestDerivedAt(); ok {
		oldest = sql.NullTime{Time: t.UTC(), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, m.Path.String(), doc, oldest); err != nil {
		return fmt.Errorf("save: failed to save metadata: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

// Delete removes the record for p.
func (r *PostgresRepository) Delete(ctx context.Context, p model.Path) error {
	query := `
		DELETE FROM media_metadata WHERE path = $1
	`

	res, err := r.db.ExecContext(ctx, query, p.String())
	if err != nil {
		return fmt.Errorf("delete: failed to delete metadata: %v: %w", err, model.ErrUpstream)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("delete %s: %w", p, model.ErrNotFound)
	}

	return nil
}

func decode(doc []byte) (model.Metadata, error) {
	var m model.Metadata
	if err := json.Unmarshal(doc, &m); err != nil {
		return model.Metadata{}, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return m, nil
}
