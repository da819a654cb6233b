// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for sync state, merge runs and the merge log
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS merge_runs (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	dry_run INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running', 'complete', 'failed')),
	contacts_seen INTEGER NOT NULL DEFAULT 0,
	groups_found INTEGER NOT NULL DEFAULT 0,
	contacts_merged INTEGER NOT NULL DEFAULT 0,
	contacts_deleted INTEGER NOT NULL DEFAULT 0,
	contacts_tidied INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_merge_runs_started ON merge_runs(started_at DESC);

CREATE TABLE IF NOT EXISTS merge_log (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	identity_key TEXT NOT NULL,
	survivor TEXT NOT NULL,
	absorbed TEXT NOT NULL,
	changed_fields TEXT,
	merged_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(run_id, absorbed),
	FOREIGN KEY (run_id) REFERENCES merge_runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_merge_log_run ON merge_log(run_id);
CREATE INDEX IF NOT EXISTS idx_merge_log_absorbed ON merge_log(absorbed);
CREATE INDEX IF NOT EXISTS idx_merge_log_survivor ON merge_log(survivor);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
