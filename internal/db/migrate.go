package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillEventSeq(db); err != nil {
		return fmt.Errorf("backfilling progress event seq values: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS works (
		id                     TEXT PRIMARY KEY,
		tenant_id              TEXT NOT NULL DEFAULT '',
		short_id               TEXT NOT NULL DEFAULT '',
		name                   TEXT NOT NULL,
		state                  TEXT NOT NULL DEFAULT 'draft'
		                       CHECK(state IN ('draft','planning','running','paused','done')),
		cost_source            TEXT NOT NULL DEFAULT 'internal'
		                       CHECK(cost_source IN ('internal','accounting')),
		cutover_date           TEXT,
		financial_tolerance    REAL NOT NULL DEFAULT 0 CHECK(financial_tolerance >= 0),
		client_advance_planned REAL NOT NULL DEFAULT 0,
		overall_progress       REAL NOT NULL DEFAULT 0,
		financial_progress     REAL NOT NULL DEFAULT 0,
		consistency_warning    INTEGER NOT NULL DEFAULT 0,
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_works_short_id ON works(short_id) WHERE short_id != ''`,
	`CREATE INDEX IF NOT EXISTS idx_works_tenant ON works(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS stages (
		id                 TEXT PRIMARY KEY,
		work_id            TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		sequence           INTEGER NOT NULL DEFAULT 0,
		state              TEXT NOT NULL DEFAULT 'planning'
		                   CHECK(state IN ('planning','in_progress','to_approve','done')),
		start_date         TEXT,
		deadline           TEXT,
		progress_pct       REAL NOT NULL DEFAULT 0,
		last_progress_date TEXT,
		budget_total       REAL NOT NULL DEFAULT 0,
		executed_total     REAL NOT NULL DEFAULT 0,
		variance           REAL NOT NULL DEFAULT 0,
		consumption_pct    REAL NOT NULL DEFAULT 0,
		traffic_light      TEXT NOT NULL DEFAULT 'green'
		                   CHECK(traffic_light IN ('green','yellow','red')),
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stages_work ON stages(work_id)`,

	`CREATE TABLE IF NOT EXISTS budgets (
		id           TEXT PRIMARY KEY,
		work_id      TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		state        TEXT NOT NULL DEFAULT 'draft'
		             CHECK(state IN ('draft','validated')),
		version_no   INTEGER NOT NULL DEFAULT 0,
		validated_at TEXT,
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_budgets_work ON budgets(work_id)`,

	`CREATE TABLE IF NOT EXISTS chapters (
		id             TEXT PRIMARY KEY,
		budget_id      TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		code           TEXT NOT NULL DEFAULT '',
		name           TEXT NOT NULL,
		sequence       INTEGER NOT NULL DEFAULT 0,
		advance_amount REAL NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chapters_budget ON chapters(budget_id)`,

	`CREATE TABLE IF NOT EXISTS budget_lines (
		id                 TEXT PRIMARY KEY,
		work_id            TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		budget_id          TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		chapter_id         TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		stage_id           TEXT REFERENCES stages(id) ON DELETE SET NULL,
		code               TEXT NOT NULL DEFAULT '',
		name               TEXT NOT NULL,
		cost_type          TEXT NOT NULL DEFAULT 'budgeted'
		                   CHECK(cost_type IN ('budgeted','additional')),
		amount             REAL NOT NULL DEFAULT 0 CHECK(amount >= 0),
		progress_pct       REAL NOT NULL DEFAULT 0,
		executed_amount    REAL NOT NULL DEFAULT 0,
		last_progress_date TEXT,
		last_progress_by   TEXT NOT NULL DEFAULT '',
		real_total         REAL NOT NULL DEFAULT 0,
		variance           REAL NOT NULL DEFAULT 0,
		consumption_pct    REAL NOT NULL DEFAULT 0,
		traffic_light      TEXT NOT NULL DEFAULT 'green'
		                   CHECK(traffic_light IN ('green','yellow','red')),
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_lines_work ON budget_lines(work_id)`,
	`CREATE INDEX IF NOT EXISTS idx_lines_budget ON budget_lines(budget_id)`,
	`CREATE INDEX IF NOT EXISTS idx_lines_stage ON budget_lines(stage_id)`,

	`CREATE TABLE IF NOT EXISTS progress_events (
		id            TEXT PRIMARY KEY,
		work_id       TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		stage_id      TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		line_id       TEXT REFERENCES budget_lines(id) ON DELETE CASCADE,
		date          TEXT NOT NULL,
		percent_delta REAL NOT NULL CHECK(percent_delta > 0 AND percent_delta <= 100),
		author_id     TEXT NOT NULL DEFAULT '',
		note          TEXT NOT NULL DEFAULT '',
		origin        TEXT NOT NULL DEFAULT 'user'
		              CHECK(origin IN ('user','stage_closure')),
		state         TEXT NOT NULL DEFAULT 'confirmed'
		              CHECK(state IN ('confirmed','cancelled')),
		created_at    TEXT NOT NULL,
		cancelled_at  TEXT,
		cancelled_by  TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_line ON progress_events(line_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_stage ON progress_events(stage_id)`,

	`CREATE TABLE IF NOT EXISTS real_cost_entries (
		id          TEXT PRIMARY KEY,
		work_id     TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		stage_id    TEXT REFERENCES stages(id) ON DELETE SET NULL,
		line_id     TEXT REFERENCES budget_lines(id) ON DELETE SET NULL,
		date        TEXT NOT NULL,
		amount      REAL NOT NULL CHECK(amount >= 0),
		description TEXT NOT NULL DEFAULT '',
		source      TEXT NOT NULL DEFAULT 'internal'
		            CHECK(source IN ('internal','accounting')),
		migrated    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_costs_work ON real_cost_entries(work_id)`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id         TEXT PRIMARY KEY,
		work_id    TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		message    TEXT NOT NULL,
		severity   TEXT NOT NULL CHECK(severity IN ('info','warning','critical')),
		type       TEXT NOT NULL
		           CHECK(type IN ('planning','financial','operational','liquidity','budget','approval','time','manual')),
		rule_code  TEXT NOT NULL DEFAULT '',
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_alerts_work_rule ON alerts(work_id, rule_code)`,

	// Per-work stale window
	`ALTER TABLE works ADD COLUMN stale_days INTEGER NOT NULL DEFAULT 0`,

	// Scheduled portion of each line, feeds the committed figure
	`ALTER TABLE budget_lines ADD COLUMN distributed REAL NOT NULL DEFAULT 0`,

	// Same-date ordering inside a ledger
	`ALTER TABLE progress_events ADD COLUMN seq INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_events_seq ON progress_events(line_id, stage_id, seq)`,
}

// migrateBackfillEventSeq numbers events recorded before seq existed.
// Each ledger (a line, or a stage's manual ledger when line_id is NULL)
// continues from its current highest seq, in date then created_at order.
// Idempotent: does nothing once every event has seq > 0.
func migrateBackfillEventSeq(db *sql.DB) error {
	ctx := context.Background()

	var pending int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM progress_events WHERE seq = 0`).Scan(&pending); err != nil {
		return fmt.Errorf("counting unnumbered events: %w", err)
	}
	if pending == 0 {
		return nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, stage_id, COALESCE(line_id, ''), seq FROM progress_events
		 ORDER BY date, created_at, id`)
	if err != nil {
		return fmt.Errorf("listing events for seq backfill: %w", err)
	}

	type pendingEvent struct {
		id  string
		key string
	}
	highest := make(map[string]int)
	var todo []pendingEvent
	for rows.Next() {
		var id, stageID, lineID string
		var seq int
		if err := rows.Scan(&id, &stageID, &lineID, &seq); err != nil {
			rows.Close()
			return fmt.Errorf("scanning event: %w", err)
		}
		key := "line:" + lineID
		if lineID == "" {
			key = "stage:" + stageID
		}
		if seq == 0 {
			todo = append(todo, pendingEvent{id: id, key: key})
			continue
		}
		if seq > highest[key] {
			highest[key] = seq
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating events: %w", err)
	}

	for _, ev := range todo {
		highest[ev.key]++
		if _, err := db.ExecContext(ctx,
			`UPDATE progress_events SET seq = ? WHERE id = ? AND seq = 0`, highest[ev.key], ev.id); err != nil {
			return fmt.Errorf("updating event seq: %w", err)
		}
	}
	return nil
}
