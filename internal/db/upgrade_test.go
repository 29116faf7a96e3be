package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_EventsWithoutSeq simulates a database created
// before works.stale_days, budget_lines.distributed and
// progress_events.seq existed. Rows must survive, the new columns get
// their defaults, and every ledger is numbered in date order.
func TestMigrate_UpgradePath_EventsWithoutSeq(t *testing.T) {
	db, err := sql.Open("sqlite", MemoryPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	legacy := []string{
		`CREATE TABLE works (
			id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL DEFAULT '', short_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL, state TEXT NOT NULL DEFAULT 'draft', cost_source TEXT NOT NULL DEFAULT 'internal',
			cutover_date TEXT, financial_tolerance REAL NOT NULL DEFAULT 0, client_advance_planned REAL NOT NULL DEFAULT 0,
			overall_progress REAL NOT NULL DEFAULT 0, financial_progress REAL NOT NULL DEFAULT 0,
			consistency_warning INTEGER NOT NULL DEFAULT 0, created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
		`CREATE TABLE stages (
			id TEXT PRIMARY KEY, work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE, name TEXT NOT NULL,
			sequence INTEGER NOT NULL DEFAULT 0, state TEXT NOT NULL DEFAULT 'planning', start_date TEXT, deadline TEXT,
			progress_pct REAL NOT NULL DEFAULT 0, last_progress_date TEXT, budget_total REAL NOT NULL DEFAULT 0,
			executed_total REAL NOT NULL DEFAULT 0, variance REAL NOT NULL DEFAULT 0, consumption_pct REAL NOT NULL DEFAULT 0,
			traffic_light TEXT NOT NULL DEFAULT 'green', created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
		`CREATE TABLE budgets (
			id TEXT PRIMARY KEY, work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE, name TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'draft', version_no INTEGER NOT NULL DEFAULT 0, validated_at TEXT, created_at TEXT NOT NULL)`,
		`CREATE TABLE chapters (
			id TEXT PRIMARY KEY, budget_id TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE, code TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL, sequence INTEGER NOT NULL DEFAULT 0, advance_amount REAL NOT NULL DEFAULT 0)`,
		`CREATE TABLE budget_lines (
			id TEXT PRIMARY KEY, work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
			budget_id TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
			chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
			stage_id TEXT REFERENCES stages(id) ON DELETE SET NULL, code TEXT NOT NULL DEFAULT '', name TEXT NOT NULL,
			cost_type TEXT NOT NULL DEFAULT 'budgeted', amount REAL NOT NULL DEFAULT 0, progress_pct REAL NOT NULL DEFAULT 0,
			executed_amount REAL NOT NULL DEFAULT 0, last_progress_date TEXT, last_progress_by TEXT NOT NULL DEFAULT '',
			real_total REAL NOT NULL DEFAULT 0, variance REAL NOT NULL DEFAULT 0, consumption_pct REAL NOT NULL DEFAULT 0,
			traffic_light TEXT NOT NULL DEFAULT 'green', created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
		`CREATE TABLE progress_events (
			id TEXT PRIMARY KEY, work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
			stage_id TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
			line_id TEXT REFERENCES budget_lines(id) ON DELETE CASCADE, date TEXT NOT NULL,
			percent_delta REAL NOT NULL, author_id TEXT NOT NULL DEFAULT '', note TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL DEFAULT 'user', state TEXT NOT NULL DEFAULT 'confirmed', created_at TEXT NOT NULL,
			cancelled_at TEXT, cancelled_by TEXT NOT NULL DEFAULT '')`,

		`INSERT INTO works (id, name, created_at, updated_at) VALUES ('w1', 'Casa', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`INSERT INTO stages (id, work_id, name, created_at, updated_at) VALUES ('s1', 'w1', 'Muros', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`INSERT INTO stages (id, work_id, name, created_at, updated_at) VALUES ('s2', 'w1', 'Techos', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`INSERT INTO budgets (id, work_id, name, created_at) VALUES ('b1', 'w1', 'Base', '2025-01-01T00:00:00Z')`,
		`INSERT INTO chapters (id, budget_id, name) VALUES ('c1', 'b1', 'Obra negra')`,
		`INSERT INTO budget_lines (id, work_id, budget_id, chapter_id, stage_id, name, amount, created_at, updated_at)
			VALUES ('l1', 'w1', 'b1', 'c1', 's1', 'Block', 1000, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,

		// Line ledger inserted out of date order.
		`INSERT INTO progress_events (id, work_id, stage_id, line_id, date, percent_delta, created_at)
			VALUES ('e2', 'w1', 's1', 'l1', '2025-02-10', 20, '2025-02-10T09:00:00Z')`,
		`INSERT INTO progress_events (id, work_id, stage_id, line_id, date, percent_delta, created_at)
			VALUES ('e1', 'w1', 's1', 'l1', '2025-02-01', 10, '2025-02-01T09:00:00Z')`,
		`INSERT INTO progress_events (id, work_id, stage_id, line_id, date, percent_delta, created_at)
			VALUES ('e3', 'w1', 's1', 'l1', '2025-02-10', 5, '2025-02-10T10:00:00Z')`,
		// Manual stage ledger for a stage without lines.
		`INSERT INTO progress_events (id, work_id, stage_id, date, percent_delta, created_at)
			VALUES ('m1', 'w1', 's2', '2025-02-05', 40, '2025-02-05T09:00:00Z')`,
	}
	for _, stmt := range legacy {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db))

	seqs := map[string]int{}
	rows, err := db.Query(`SELECT id, seq FROM progress_events`)
	require.NoError(t, err)
	for rows.Next() {
		var id string
		var seq int
		require.NoError(t, rows.Scan(&id, &seq))
		seqs[id] = seq
	}
	require.NoError(t, rows.Close())

	assert.Equal(t, map[string]int{"e1": 1, "e2": 2, "e3": 3, "m1": 1}, seqs)

	var distributed float64
	require.NoError(t, db.QueryRow(`SELECT distributed FROM budget_lines WHERE id = 'l1'`).Scan(&distributed))
	assert.Zero(t, distributed)

	var staleDays int
	require.NoError(t, db.QueryRow(`SELECT stale_days FROM works WHERE id = 'w1'`).Scan(&staleDays))
	assert.Zero(t, staleDays)

	// A second run leaves the numbering alone.
	require.NoError(t, Migrate(db))
	var e3 int
	require.NoError(t, db.QueryRow(`SELECT seq FROM progress_events WHERE id = 'e3'`).Scan(&e3))
	assert.Equal(t, 3, e3)
}
