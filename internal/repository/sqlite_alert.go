package repository

import (
	"context"
	"fmt"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const alertColumns = `id, work_id, message, severity, type, rule_code, active, created_at`

// alertOrder puts critical alerts first, newest first within a severity.
const alertOrder = `ORDER BY CASE severity WHEN 'critical' THEN 3 WHEN 'warning' THEN 2 ELSE 1 END DESC,
		created_at DESC, rowid DESC`

// SQLiteAlertRepo implements AlertRepo using a SQLite database.
type SQLiteAlertRepo struct {
	db db.DBTX
}

// NewSQLiteAlertRepo creates a new SQLiteAlertRepo.
func NewSQLiteAlertRepo(conn db.DBTX) *SQLiteAlertRepo {
	return &SQLiteAlertRepo{db: conn}
}

func (r *SQLiteAlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.WorkID,
		a.Message,
		string(a.Severity),
		string(a.Type),
		a.RuleCode,
		boolToInt(a.Active),
		formatTimestamp(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

func (r *SQLiteAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err != nil {
		return nil, notFoundOr(err, "alert", id)
	}
	return a, nil
}

func (r *SQLiteAlertRepo) ListByWork(ctx context.Context, workID string, activeOnly bool) ([]*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE work_id = ? ` + alertOrder
	if activeOnly {
		query = `SELECT ` + alertColumns + ` FROM alerts WHERE work_id = ? AND active = 1 ` + alertOrder
	}
	rows, err := r.db.QueryContext(ctx, query, workID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

func (r *SQLiteAlertRepo) Update(ctx context.Context, a *domain.Alert) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET message = ?, severity = ?, type = ?, active = ? WHERE id = ?`,
		a.Message, string(a.Severity), string(a.Type), boolToInt(a.Active), a.ID)
	if err != nil {
		return fmt.Errorf("updating alert: %w", err)
	}
	return requireAffected(res, "alert", a.ID)
}

func (r *SQLiteAlertRepo) DeleteRuleGenerated(ctx context.Context, workID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE work_id = ? AND rule_code != ''`, workID)
	if err != nil {
		return 0, fmt.Errorf("deleting rule alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

func scanAlert(s rowScanner) (*domain.Alert, error) {
	var a domain.Alert
	var severity, typ, createdAt string
	var active int

	if err := s.Scan(&a.ID, &a.WorkID, &a.Message, &severity, &typ, &a.RuleCode, &active, &createdAt); err != nil {
		return nil, err
	}
	a.Severity = domain.Severity(severity)
	a.Type = domain.AlertType(typ)
	a.Active = intToBool(active)
	if err := parseTimestamp("created_at", createdAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
