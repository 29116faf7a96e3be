package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const lineColumns = `id, work_id, budget_id, chapter_id, stage_id, code, name, cost_type, amount, distributed,
		progress_pct, executed_amount, last_progress_date, last_progress_by,
		real_total, variance, consumption_pct, traffic_light, created_at, updated_at`

// SQLiteLineRepo implements LineRepo using a SQLite database.
type SQLiteLineRepo struct {
	db db.DBTX
}

// NewSQLiteLineRepo creates a new SQLiteLineRepo.
func NewSQLiteLineRepo(conn db.DBTX) *SQLiteLineRepo {
	return &SQLiteLineRepo{db: conn}
}

func (r *SQLiteLineRepo) Create(ctx context.Context, l *domain.BudgetLine) error {
	query := `INSERT INTO budget_lines (` + lineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	costType := l.CostType
	if costType == "" {
		costType = domain.CostBudgeted
	}
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.WorkID,
		l.BudgetID,
		l.ChapterID,
		nullableString(l.StageID),
		l.Code,
		l.Name,
		string(costType),
		l.Amount,
		l.Distributed,
		l.ProgressPct,
		l.ExecutedAmount,
		nullableTimeToString(l.LastProgressDate, dateLayout),
		l.LastProgressBy,
		l.RealTotal,
		l.Variance,
		l.ConsumptionPct,
		lightOrGreen(l.TrafficLight),
		formatTimestamp(l.CreatedAt),
		formatTimestamp(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting budget line: %w", err)
	}
	return nil
}

func (r *SQLiteLineRepo) GetByID(ctx context.Context, id string) (*domain.BudgetLine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE id = ?`, id)
	l, err := scanLine(row)
	if err != nil {
		return nil, notFoundOr(err, "budget line", id)
	}
	return l, nil
}

func (r *SQLiteLineRepo) ListByWork(ctx context.Context, workID string) ([]*domain.BudgetLine, error) {
	return r.list(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE work_id = ? ORDER BY code, created_at, id`, workID)
}

func (r *SQLiteLineRepo) ListByStage(ctx context.Context, stageID string) ([]*domain.BudgetLine, error) {
	return r.list(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE stage_id = ? ORDER BY code, created_at, id`, stageID)
}

func (r *SQLiteLineRepo) ListByBudget(ctx context.Context, budgetID string) ([]*domain.BudgetLine, error) {
	return r.list(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE budget_id = ? ORDER BY code, created_at, id`, budgetID)
}

func (r *SQLiteLineRepo) list(ctx context.Context, query string, arg string) ([]*domain.BudgetLine, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing budget lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.BudgetLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget lines: %w", err)
	}
	return lines, nil
}

func (r *SQLiteLineRepo) Update(ctx context.Context, l *domain.BudgetLine) error {
	query := `UPDATE budget_lines SET chapter_id = ?, stage_id = ?, code = ?, name = ?, cost_type = ?,
		amount = ?, distributed = ?, progress_pct = ?, executed_amount = ?, last_progress_date = ?,
		last_progress_by = ?, real_total = ?, variance = ?, consumption_pct = ?, traffic_light = ?,
		updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		l.ChapterID,
		nullableString(l.StageID),
		l.Code,
		l.Name,
		string(l.CostType),
		l.Amount,
		l.Distributed,
		l.ProgressPct,
		l.ExecutedAmount,
		nullableTimeToString(l.LastProgressDate, dateLayout),
		l.LastProgressBy,
		l.RealTotal,
		l.Variance,
		l.ConsumptionPct,
		lightOrGreen(l.TrafficLight),
		formatTimestamp(l.UpdatedAt),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget line: %w", err)
	}
	return requireAffected(res, "budget line", l.ID)
}

func (r *SQLiteLineRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budget_lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting budget line: %w", err)
	}
	return nil
}

func scanLine(s rowScanner) (*domain.BudgetLine, error) {
	var l domain.BudgetLine
	var costType, light, createdAt, updatedAt string
	var stageID, lastProgress sql.NullString

	err := s.Scan(
		&l.ID, &l.WorkID, &l.BudgetID, &l.ChapterID, &stageID, &l.Code, &l.Name, &costType,
		&l.Amount, &l.Distributed, &l.ProgressPct, &l.ExecutedAmount, &lastProgress, &l.LastProgressBy,
		&l.RealTotal, &l.Variance, &l.ConsumptionPct, &light, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.StageID = stringPtr(stageID)
	l.CostType = domain.CostType(costType)
	l.TrafficLight = domain.TrafficLight(light)
	l.LastProgressDate = parseNullableTime(lastProgress, dateLayout)
	if err := parseTimestamp("created_at", createdAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	if err := parseTimestamp("updated_at", updatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
