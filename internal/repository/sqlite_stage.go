package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const stageColumns = `id, work_id, name, sequence, state, start_date, deadline,
		progress_pct, last_progress_date, budget_total, executed_total, variance,
		consumption_pct, traffic_light, created_at, updated_at`

// SQLiteStageRepo implements StageRepo using a SQLite database.
type SQLiteStageRepo struct {
	db db.DBTX
}

// NewSQLiteStageRepo creates a new SQLiteStageRepo.
func NewSQLiteStageRepo(conn db.DBTX) *SQLiteStageRepo {
	return &SQLiteStageRepo{db: conn}
}

func (r *SQLiteStageRepo) Create(ctx context.Context, s *domain.Stage) error {
	query := `INSERT INTO stages (` + stageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.WorkID,
		s.Name,
		s.Sequence,
		string(s.State),
		nullableTimeToString(s.StartDate, dateLayout),
		nullableTimeToString(s.Deadline, dateLayout),
		s.ProgressPct,
		nullableTimeToString(s.LastProgressDate, dateLayout),
		s.BudgetTotal,
		s.ExecutedTotal,
		s.Variance,
		s.ConsumptionPct,
		lightOrGreen(s.TrafficLight),
		formatTimestamp(s.CreatedAt),
		formatTimestamp(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) GetByID(ctx context.Context, id string) (*domain.Stage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = ?`, id)
	s, err := scanStage(row)
	if err != nil {
		return nil, notFoundOr(err, "stage", id)
	}
	return s, nil
}

func (r *SQLiteStageRepo) ListByWork(ctx context.Context, workID string) ([]*domain.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE work_id = ? ORDER BY sequence, created_at, id`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []*domain.Stage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stage row: %w", err)
		}
		stages = append(stages, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}
	return stages, nil
}

func (r *SQLiteStageRepo) Update(ctx context.Context, s *domain.Stage) error {
	query := `UPDATE stages SET name = ?, sequence = ?, state = ?, start_date = ?, deadline = ?,
		progress_pct = ?, last_progress_date = ?, budget_total = ?, executed_total = ?, variance = ?,
		consumption_pct = ?, traffic_light = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Name,
		s.Sequence,
		string(s.State),
		nullableTimeToString(s.StartDate, dateLayout),
		nullableTimeToString(s.Deadline, dateLayout),
		s.ProgressPct,
		nullableTimeToString(s.LastProgressDate, dateLayout),
		s.BudgetTotal,
		s.ExecutedTotal,
		s.Variance,
		s.ConsumptionPct,
		lightOrGreen(s.TrafficLight),
		formatTimestamp(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating stage: %w", err)
	}
	return requireAffected(res, "stage", s.ID)
}

func (r *SQLiteStageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting stage: %w", err)
	}
	return nil
}

func scanStage(sc rowScanner) (*domain.Stage, error) {
	var s domain.Stage
	var state, light, createdAt, updatedAt string
	var start, deadline, lastProgress sql.NullString

	err := sc.Scan(
		&s.ID, &s.WorkID, &s.Name, &s.Sequence, &state, &start, &deadline,
		&s.ProgressPct, &lastProgress, &s.BudgetTotal, &s.ExecutedTotal, &s.Variance,
		&s.ConsumptionPct, &light, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.State = domain.StageState(state)
	s.TrafficLight = domain.TrafficLight(light)
	s.StartDate = parseNullableTime(start, dateLayout)
	s.Deadline = parseNullableTime(deadline, dateLayout)
	s.LastProgressDate = parseNullableTime(lastProgress, dateLayout)
	if err := parseTimestamp("created_at", createdAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := parseTimestamp("updated_at", updatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// lightOrGreen stores an unset classification as green.
func lightOrGreen(l domain.TrafficLight) string {
	if l == "" {
		return string(domain.LightGreen)
	}
	return string(l)
}
