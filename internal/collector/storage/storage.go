package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/statmon/internal/collector/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for stored stats
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// StatFilter narrows ListStats results
type StatFilter struct {
	Key        string
	Action     string
	SourceName string
	PageSize   int
	Cursor     *StatCursor
}

// StatCursor marks the last row of a previous page
type StatCursor struct {
	ReceivedAt time.Time
	ID         string
}

// InsertStat stores one reading. A redelivered message with a known
// message_id is ignored.
func (s *Storage) InsertStat(ctx context.Context, stat *domain.Stat) error {
	query := `
		INSERT INTO stats (
			id, message_id, counter, stat_key, action,
			name, source_name, task_name, payload, received_at
		) VALUES (
			:id, :message_id, :counter, :stat_key, :action,
			:name, :source_name, :task_name, :payload, :received_at
		)
		ON CONFLICT (message_id) DO NOTHING
	`

	result, err := s.db.NamedExecContext(ctx, query, stat)
	if err != nil {
		return fmt.Errorf("failed to insert stat: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		s.logger.Debug("Duplicate stat ignored",
			slog.String("message_id", stat.MessageID),
			slog.String("key", stat.Key),
		)
	}

	return nil
}

// ListStats returns up to PageSize+1 rows, newest first, so callers can tell
// whether another page exists.
func (s *Storage) ListStats(ctx context.Context, filter StatFilter) ([]domain.Stat, error) {
	query := `
		SELECT
			id, message_id, counter, stat_key, action,
			name, source_name, task_name, payload, received_at
		FROM stats
		WHERE 1=1
	`
	args := []any{}
	argIdx := 1

	if filter.Key != "" {
		query += fmt.Sprintf(" AND stat_key = $%d", argIdx)
		args = append(args, filter.Key)
		argIdx++
	}

	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, filter.Action)
		argIdx++
	}

	if filter.SourceName != "" {
		query += fmt.Sprintf(" AND source_name = $%d", argIdx)
		args = append(args, filter.SourceName)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (received_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.ReceivedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY received_at DESC, id DESC"

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var stats []domain.Stat
	if err := s.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}

	return stats, nil
}

// LatestStat returns the most recent tick reading stored for key
func (s *Storage) LatestStat(ctx context.Context, key string) (*domain.Stat, error) {
	query := `
		SELECT
			id, message_id, counter, stat_key, action,
			name, source_name, task_name, payload, received_at
		FROM stats
		WHERE stat_key = $1
		  AND action NOT IN ('start', 'stop')
		ORDER BY received_at DESC, id DESC
		LIMIT 1
	`

	var stat domain.Stat
	err := s.db.GetContext(ctx, &stat, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatNotFound
		}
		return nil, fmt.Errorf("failed to get latest stat: %w", err)
	}

	return &stat, nil
}
