package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pagebrief/internal/domain"
)

// ErrNotFound is returned when a summary lookup matches no row.
var ErrNotFound = errors.New("not found")

// ReplaceExhaustion overwrites the persisted exhaustion snapshot with the
// given day stamp and model set in one transaction, so a reader never sees
// a stamp/set mismatch.
func (d *Database) ReplaceExhaustion(ctx context.Context, day string, models []string) error {
	day = strings.TrimSpace(day)
	if day == "" {
		return errors.New("day stamp is empty")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback tx",
				"error", rollbackErr,
				"operation", "ReplaceExhaustion")
		}
	}()

	if _, err = tx.ExecContext(ctx, "delete from exhausted_models"); err != nil {
		return fmt.Errorf("clear exhausted models: %w", err)
	}

	query := "insert or ignore into exhausted_models (day, model_id) values (?, ?)"

	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}

		if _, err = tx.ExecContext(ctx, query, day, model); err != nil {
			return fmt.Errorf("insert exhausted model: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetExhaustion loads the persisted exhaustion snapshot. An empty day with
// no models means nothing is stored.
func (d *Database) GetExhaustion(ctx context.Context) (string, []string, error) {
	query := "select day, model_id from exhausted_models order by day desc"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "GetExhaustion")
		}
	}()

	var day string
	var models []string

	for rows.Next() {
		var rowDay, model string
		if err = rows.Scan(&rowDay, &model); err != nil {
			return "", nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if day == "" {
			day = rowDay
		}

		// Rows are written atomically with one stamp; a stray older row
		// would belong to a stale day anyway.
		if rowDay != day {
			continue
		}

		models = append(models, model)
	}

	if err = rows.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return day, models, nil
}

// AddSummary stores one summarization result and returns its row ID.
func (d *Database) AddSummary(ctx context.Context, entry *domain.HistoryEntry) (int64, error) {
	if strings.TrimSpace(entry.Summary) == "" {
		return 0, errors.New("summary is empty")
	}

	query := `insert into summaries (url, title, model, fallback, chunk_count, summary, created_at)
	values (?, ?, ?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		strings.TrimSpace(entry.URL),
		strings.TrimSpace(entry.Title),
		entry.Model,
		entry.Fallback,
		entry.ChunkCount,
		entry.Summary,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

// RecentSummaries returns up to limit entries, newest first.
func (d *Database) RecentSummaries(ctx context.Context, limit int64) ([]domain.HistoryEntry, error) {
	query := `select id, url, title, model, fallback, chunk_count, summary, created_at
	from summaries
	order by id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "RecentSummaries")
		}
	}()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err = rows.Scan(
			&e.ID, &e.URL, &e.Title, &e.Model,
			&e.Fallback, &e.ChunkCount, &e.Summary, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

// GetSummary fetches one entry by ID.
func (d *Database) GetSummary(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	query := `select id, url, title, model, fallback, chunk_count, summary, created_at
	from summaries
	where id = ?`

	var e domain.HistoryEntry
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.URL, &e.Title, &e.Model,
		&e.Fallback, &e.ChunkCount, &e.Summary, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return &e, nil
}

// PurgeSummariesBefore removes entries older than the cutoff and reports
// how many were deleted.
func (d *Database) PurgeSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"delete from summaries where created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge summaries: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}
