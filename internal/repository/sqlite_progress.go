package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const eventColumns = `id, work_id, stage_id, line_id, seq, date, percent_delta, author_id, note,
		origin, state, created_at, cancelled_at, cancelled_by`

// SQLiteProgressEventRepo implements ProgressEventRepo using a SQLite database.
// Rows are only ever inserted or flipped between confirmed and cancelled.
type SQLiteProgressEventRepo struct {
	db db.DBTX
}

// NewSQLiteProgressEventRepo creates a new SQLiteProgressEventRepo.
func NewSQLiteProgressEventRepo(conn db.DBTX) *SQLiteProgressEventRepo {
	return &SQLiteProgressEventRepo{db: conn}
}

func (r *SQLiteProgressEventRepo) Create(ctx context.Context, e *domain.ProgressEvent) error {
	query := `INSERT INTO progress_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.WorkID,
		e.StageID,
		nullableString(e.LineID),
		e.Seq,
		formatDate(e.Date),
		e.PercentDelta,
		e.AuthorID,
		e.Note,
		string(e.Origin),
		string(e.State),
		formatTimestamp(e.CreatedAt),
		nullableTimeToString(e.CancelledAt, timestampLayout),
		e.CancelledBy,
	)
	if err != nil {
		return fmt.Errorf("inserting progress event: %w", err)
	}
	return nil
}

func (r *SQLiteProgressEventRepo) GetByID(ctx context.Context, id string) (*domain.ProgressEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM progress_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, notFoundOr(err, "progress event", id)
	}
	return e, nil
}

func (r *SQLiteProgressEventRepo) ListByLine(ctx context.Context, lineID string) ([]*domain.ProgressEvent, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM progress_events
		WHERE line_id = ? ORDER BY date, seq`, lineID)
}

func (r *SQLiteProgressEventRepo) ListStageLevel(ctx context.Context, stageID string) ([]*domain.ProgressEvent, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM progress_events
		WHERE stage_id = ? AND line_id IS NULL ORDER BY date, seq`, stageID)
}

func (r *SQLiteProgressEventRepo) ListByWork(ctx context.Context, workID string) ([]*domain.ProgressEvent, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM progress_events
		WHERE work_id = ? ORDER BY date, seq, created_at`, workID)
}

func (r *SQLiteProgressEventRepo) list(ctx context.Context, query, arg string) ([]*domain.ProgressEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing progress events: %w", err)
	}
	defer rows.Close()

	var events []*domain.ProgressEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning progress event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress events: %w", err)
	}
	return events, nil
}

func (r *SQLiteProgressEventRepo) UpdateState(ctx context.Context, e *domain.ProgressEvent) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE progress_events SET state = ?, cancelled_at = ?, cancelled_by = ? WHERE id = ?`,
		string(e.State),
		nullableTimeToString(e.CancelledAt, timestampLayout),
		e.CancelledBy,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating progress event state: %w", err)
	}
	return requireAffected(res, "progress event", e.ID)
}

func scanEvent(s rowScanner) (*domain.ProgressEvent, error) {
	var e domain.ProgressEvent
	var date, origin, state, createdAt string
	var lineID, cancelledAt sql.NullString

	err := s.Scan(
		&e.ID, &e.WorkID, &e.StageID, &lineID, &e.Seq, &date, &e.PercentDelta, &e.AuthorID, &e.Note,
		&origin, &state, &createdAt, &cancelledAt, &e.CancelledBy,
	)
	if err != nil {
		return nil, err
	}

	e.LineID = stringPtr(lineID)
	e.Origin = domain.EventOrigin(origin)
	e.State = domain.EventState(state)
	e.CancelledAt = parseNullableTime(cancelledAt, timestampLayout)
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	e.Date = d
	if err := parseTimestamp("created_at", createdAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
