package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

// workColumns is the canonical SELECT column list for works.
const workColumns = `id, tenant_id, short_id, name, state, cost_source, cutover_date,
		financial_tolerance, stale_days, client_advance_planned,
		overall_progress, financial_progress, consistency_warning, created_at, updated_at`

// SQLiteWorkRepo implements WorkRepo using a SQLite database.
type SQLiteWorkRepo struct {
	db db.DBTX
}

// NewSQLiteWorkRepo creates a new SQLiteWorkRepo.
func NewSQLiteWorkRepo(conn db.DBTX) *SQLiteWorkRepo {
	return &SQLiteWorkRepo{db: conn}
}

func (r *SQLiteWorkRepo) Create(ctx context.Context, w *domain.Work) error {
	query := `INSERT INTO works (` + workColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.TenantID,
		w.ShortID,
		w.Name,
		string(w.State),
		string(w.CostSource),
		nullableTimeToString(w.CutoverDate, dateLayout),
		w.FinancialTolerance,
		w.StaleDays,
		w.ClientAdvancePlanned,
		w.OverallProgress,
		w.FinancialProgress,
		boolToInt(w.ConsistencyWarning),
		formatTimestamp(w.CreatedAt),
		formatTimestamp(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting work: %w", err)
	}
	return nil
}

func (r *SQLiteWorkRepo) GetByID(ctx context.Context, id string) (*domain.Work, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workColumns+` FROM works WHERE id = ?`, id)
	w, err := scanWork(row)
	if err != nil {
		return nil, notFoundOr(err, "work", id)
	}
	return w, nil
}

func (r *SQLiteWorkRepo) GetByShortID(ctx context.Context, shortID string) (*domain.Work, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workColumns+` FROM works WHERE UPPER(short_id) = UPPER(?)`, shortID)
	w, err := scanWork(row)
	if err != nil {
		return nil, notFoundOr(err, "work", shortID)
	}
	return w, nil
}

func (r *SQLiteWorkRepo) List(ctx context.Context, tenantID string) ([]*domain.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works ORDER BY created_at, id`
	args := []any{}
	if tenantID != "" {
		query = `SELECT ` + workColumns + ` FROM works WHERE tenant_id = ? ORDER BY created_at, id`
		args = append(args, tenantID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing works: %w", err)
	}
	defer rows.Close()

	var works []*domain.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work row: %w", err)
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating works: %w", err)
	}
	return works, nil
}

func (r *SQLiteWorkRepo) Update(ctx context.Context, w *domain.Work) error {
	query := `UPDATE works SET tenant_id = ?, short_id = ?, name = ?, state = ?, cost_source = ?,
		cutover_date = ?, financial_tolerance = ?, stale_days = ?, client_advance_planned = ?,
		overall_progress = ?, financial_progress = ?, consistency_warning = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		w.TenantID,
		w.ShortID,
		w.Name,
		string(w.State),
		string(w.CostSource),
		nullableTimeToString(w.CutoverDate, dateLayout),
		w.FinancialTolerance,
		w.StaleDays,
		w.ClientAdvancePlanned,
		w.OverallProgress,
		w.FinancialProgress,
		boolToInt(w.ConsistencyWarning),
		formatTimestamp(w.UpdatedAt),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work: %w", err)
	}
	return requireAffected(res, "work", w.ID)
}

func (r *SQLiteWorkRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM works WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work: %w", err)
	}
	return nil
}

func scanWork(s rowScanner) (*domain.Work, error) {
	var w domain.Work
	var state, source, createdAt, updatedAt string
	var cutover sql.NullString
	var warning int

	err := s.Scan(
		&w.ID, &w.TenantID, &w.ShortID, &w.Name, &state, &source, &cutover,
		&w.FinancialTolerance, &w.StaleDays, &w.ClientAdvancePlanned,
		&w.OverallProgress, &w.FinancialProgress, &warning, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.State = domain.WorkState(state)
	w.CostSource = domain.CostSource(source)
	w.CutoverDate = parseNullableTime(cutover, dateLayout)
	w.ConsistencyWarning = intToBool(warning)
	if err := parseTimestamp("created_at", createdAt, &w.CreatedAt); err != nil {
		return nil, err
	}
	if err := parseTimestamp("updated_at", updatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
