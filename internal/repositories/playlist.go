package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

var _ models.PlaylistStore = (*PlaylistRepository)(nil)

// PlaylistRepository implements [models.PlaylistStore] over the playlists table.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Append records a created external playlist with a generated id and the next sequence number.
func (r *PlaylistRepository) Append(ctx context.Context, externalID, creatorID string) (*models.PlaylistRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "playlists")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	record := models.NewPlaylistRecord(shared.GenerateID(), sequence, externalID, creatorID)
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, external_id, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		record.ID(),
		record.Sequence(),
		record.ExternalID(),
		record.CreatorID(),
		record.CreatedAt(),
	); err != nil {
		return nil, fmt.Errorf("failed to insert playlist record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit playlist record: %w", err)
	}
	return record, nil
}

// Page returns up to q.Limit records ordered newest first.
//
// When q.Cursor is set, only records created before the cursor record are returned. An unknown cursor is a
// [shared.ValidationError].
func (r *PlaylistRepository) Page(ctx context.Context, q models.PageQuery) ([]*models.PlaylistRecord, error) {
	if q.Limit <= 0 {
		return nil, shared.NewValidationError("limit", "must be > 0")
	}

	var (
		where []string
		args  []any
	)

	if q.Cursor != "" {
		var cursorSeq int
		err := r.db.QueryRowContext(ctx, "SELECT sequence FROM playlists WHERE id = ?", q.Cursor).Scan(&cursorSeq)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewValidationError("cursor", "does not match any playlist")
		} else if err != nil {
			return nil, fmt.Errorf("failed to resolve cursor: %w", err)
		}
		where = append(where, "sequence < ?")
		args = append(args, cursorSeq)
	}

	if q.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, q.CreatorID)
	}

	query := "SELECT id, sequence, external_id, creator_id, created_at FROM playlists"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist records: %w", err)
	}
	defer rows.Close()

	var records []*models.PlaylistRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Count returns the number of records, limited to creatorID when it is non-empty.
func (r *PlaylistRepository) Count(ctx context.Context, creatorID string) (int, error) {
	query := "SELECT COUNT(*) FROM playlists"
	var args []any
	if creatorID != "" {
		query += " WHERE creator_id = ?"
		args = append(args, creatorID)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count playlist records: %w", err)
	}
	return n, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PlaylistRecord]
func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.PlaylistRecord, error) {
	var (
		id         string
		sequence   int
		externalID string
		creatorID  string
		createdAt  time.Time
	)

	if err := rows.Scan(&id, &sequence, &externalID, &creatorID, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan playlist record: %w", err)
	}
	return models.RestorePlaylistRecord(id, sequence, externalID, creatorID, createdAt), nil
}
