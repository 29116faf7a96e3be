package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const costColumns = `id, work_id, stage_id, line_id, date, amount, description, source, migrated, created_at`

// SQLiteRealCostRepo implements RealCostRepo using a SQLite database.
type SQLiteRealCostRepo struct {
	db db.DBTX
}

// NewSQLiteRealCostRepo creates a new SQLiteRealCostRepo.
func NewSQLiteRealCostRepo(conn db.DBTX) *SQLiteRealCostRepo {
	return &SQLiteRealCostRepo{db: conn}
}

func (r *SQLiteRealCostRepo) Create(ctx context.Context, c *domain.RealCostEntry) error {
	query := `INSERT INTO real_cost_entries (` + costColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	source := c.Source
	if source == "" {
		source = domain.CostSourceInternal
	}
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.WorkID,
		nullableString(c.StageID),
		nullableString(c.LineID),
		formatDate(c.Date),
		c.Amount,
		c.Description,
		string(source),
		boolToInt(c.Migrated),
		formatTimestamp(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting real cost entry: %w", err)
	}
	return nil
}

func (r *SQLiteRealCostRepo) GetByID(ctx context.Context, id string) (*domain.RealCostEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+costColumns+` FROM real_cost_entries WHERE id = ?`, id)
	c, err := scanCost(row)
	if err != nil {
		return nil, notFoundOr(err, "real cost entry", id)
	}
	return c, nil
}

func (r *SQLiteRealCostRepo) ListByWork(ctx context.Context, workID string) ([]*domain.RealCostEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+costColumns+` FROM real_cost_entries WHERE work_id = ? ORDER BY date, created_at, id`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing real cost entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.RealCostEntry
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning real cost row: %w", err)
		}
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating real cost entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRealCostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM real_cost_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting real cost entry: %w", err)
	}
	return nil
}

func (r *SQLiteRealCostRepo) MarkMigratedBefore(ctx context.Context, workID string, cutover time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE real_cost_entries SET migrated = 1 WHERE work_id = ? AND migrated = 0 AND date < ?`,
		workID, formatDate(cutover))
	if err != nil {
		return 0, fmt.Errorf("marking cost entries migrated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

func scanCost(s rowScanner) (*domain.RealCostEntry, error) {
	var c domain.RealCostEntry
	var date, source, createdAt string
	var stageID, lineID sql.NullString
	var migrated int

	err := s.Scan(&c.ID, &c.WorkID, &stageID, &lineID, &date, &c.Amount, &c.Description, &source, &migrated, &createdAt)
	if err != nil {
		return nil, err
	}

	c.StageID = stringPtr(stageID)
	c.LineID = stringPtr(lineID)
	c.Source = domain.CostSource(source)
	c.Migrated = intToBool(migrated)
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	c.Date = d
	if err := parseTimestamp("created_at", createdAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
