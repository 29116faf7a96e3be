package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

const budgetColumns = `id, work_id, name, state, version_no, validated_at, created_at`

// SQLiteBudgetRepo implements BudgetRepo, chapters included, using a SQLite database.
type SQLiteBudgetRepo struct {
	db db.DBTX
}

// NewSQLiteBudgetRepo creates a new SQLiteBudgetRepo.
func NewSQLiteBudgetRepo(conn db.DBTX) *SQLiteBudgetRepo {
	return &SQLiteBudgetRepo{db: conn}
}

func (r *SQLiteBudgetRepo) Create(ctx context.Context, b *domain.Budget) error {
	query := `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.WorkID,
		b.Name,
		string(b.State),
		b.VersionNo,
		nullableTimeToString(b.ValidatedAt, timestampLayout),
		formatTimestamp(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting budget: %w", err)
	}
	return nil
}

func (r *SQLiteBudgetRepo) GetByID(ctx context.Context, id string) (*domain.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return nil, notFoundOr(err, "budget", id)
	}
	return b, nil
}

func (r *SQLiteBudgetRepo) ListByWork(ctx context.Context, workID string) ([]*domain.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE work_id = ? ORDER BY created_at, rowid`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteBudgetRepo) Update(ctx context.Context, b *domain.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, state = ?, version_no = ?, validated_at = ? WHERE id = ?`,
		b.Name,
		string(b.State),
		b.VersionNo,
		nullableTimeToString(b.ValidatedAt, timestampLayout),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget: %w", err)
	}
	return requireAffected(res, "budget", b.ID)
}

func (r *SQLiteBudgetRepo) CreateChapter(ctx context.Context, c *domain.Chapter) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chapters (id, budget_id, code, name, sequence, advance_amount) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.BudgetID, c.Code, c.Name, c.Sequence, c.AdvanceAmount,
	)
	if err != nil {
		return fmt.Errorf("inserting chapter: %w", err)
	}
	return nil
}

func (r *SQLiteBudgetRepo) ListChapters(ctx context.Context, budgetID string) ([]*domain.Chapter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, budget_id, code, name, sequence, advance_amount FROM chapters
		 WHERE budget_id = ? ORDER BY sequence, code, id`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*domain.Chapter
	for rows.Next() {
		var c domain.Chapter
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Code, &c.Name, &c.Sequence, &c.AdvanceAmount); err != nil {
			return nil, fmt.Errorf("scanning chapter row: %w", err)
		}
		chapters = append(chapters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

func scanBudget(s rowScanner) (*domain.Budget, error) {
	var b domain.Budget
	var state, createdAt string
	var validatedAt sql.NullString

	if err := s.Scan(&b.ID, &b.WorkID, &b.Name, &state, &b.VersionNo, &validatedAt, &createdAt); err != nil {
		return nil, err
	}
	b.State = domain.BudgetState(state)
	b.ValidatedAt = parseNullableTime(validatedAt, timestampLayout)
	if err := parseTimestamp("created_at", createdAt, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
