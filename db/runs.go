// ABOUTME: Database operations for merge runs and the merge log
// ABOUTME: Records every dedupe pass and which directory contact was absorbed into which
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactmerge/models"
	"github.com/oklog/ulid/v2"
)

// MergeRun is one dedupe pass over the directory.
type MergeRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      *time.Time
	DryRun          bool
	Status          string
	ContactsSeen    int
	GroupsFound     int
	ContactsMerged  int
	ContactsDeleted int
	ContactsTidied  int
	Failures        int
	ErrorMessage    *string
}

// MergeLogEntry records one absorbed contact.
type MergeLogEntry struct {
	ID            uuid.UUID
	RunID         string
	IdentityKey   string
	Survivor      string
	Absorbed      string
	ChangedFields []string
	MergedAt      time.Time
}

// NewRunID returns a sortable, time-prefixed run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// CreateMergeRun inserts a running merge run and fills in its ID and start
// time when they are unset.
func CreateMergeRun(db *sql.DB, run *MergeRun) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = models.RunStatusRunning

	_, err := db.Exec(`
		INSERT INTO merge_runs (id, started_at, dry_run, status)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.DryRun, run.Status)

	if err != nil {
		return fmt.Errorf("failed to create merge run: %w", err)
	}

	return nil
}

// FinishMergeRun stores the final counters and status of run.
func FinishMergeRun(db *sql.DB, run *MergeRun) error {
	now := time.Now()
	run.FinishedAt = &now

	var errorMsg sql.NullString
	if run.ErrorMessage != nil {
		errorMsg = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	_, err := db.Exec(`
		UPDATE merge_runs
		SET finished_at = ?, status = ?, contacts_seen = ?, groups_found = ?,
			contacts_merged = ?, contacts_deleted = ?, contacts_tidied = ?,
			failures = ?, error_message = ?
		WHERE id = ?
	`, now, run.Status, run.ContactsSeen, run.GroupsFound,
		run.ContactsMerged, run.ContactsDeleted, run.ContactsTidied,
		run.Failures, errorMsg, run.ID)

	if err != nil {
		return fmt.Errorf("failed to finish merge run: %w", err)
	}

	return nil
}

// GetMergeRun returns the run with id, or nil when there is none.
func GetMergeRun(db *sql.DB, id string) (*MergeRun, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, dry_run, status, contacts_seen, groups_found,
			contacts_merged, contacts_deleted, contacts_tidied, failures, error_message
		FROM merge_runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get merge run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs, err := scanMergeRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListMergeRuns returns the most recent runs first.
func ListMergeRuns(db *sql.DB, limit int) ([]MergeRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, started_at, finished_at, dry_run, status, contacts_seen, groups_found,
			contacts_merged, contacts_deleted, contacts_tidied, failures, error_message
		FROM merge_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query merge runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMergeRuns(rows)
}

func scanMergeRuns(rows *sql.Rows) ([]MergeRun, error) {
	var runs []MergeRun
	for rows.Next() {
		var r MergeRun
		var finishedAt sql.NullTime
		var errorMsg sql.NullString

		if err := rows.Scan(
			&r.ID, &r.StartedAt, &finishedAt, &r.DryRun, &r.Status,
			&r.ContactsSeen, &r.GroupsFound, &r.ContactsMerged,
			&r.ContactsDeleted, &r.ContactsTidied, &r.Failures, &errorMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan merge run: %w", err)
		}

		if finishedAt.Valid {
			r.FinishedAt = &finishedAt.Time
		}
		if errorMsg.Valid {
			r.ErrorMessage = &errorMsg.String
		}

		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merge runs: %w", err)
	}

	return runs, nil
}

// CreateMergeLog records that entry.Absorbed was folded into entry.Survivor.
// Recording the same absorbed contact twice in one run is a no-op.
func CreateMergeLog(db *sql.DB, entry *MergeLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.MergedAt.IsZero() {
		entry.MergedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT OR IGNORE INTO merge_log (id, run_id, identity_key, survivor, absorbed, changed_fields, merged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID.String(), entry.RunID, entry.IdentityKey, entry.Survivor, entry.Absorbed,
		strings.Join(entry.ChangedFields, ","), entry.MergedAt)

	if err != nil {
		return fmt.Errorf("failed to create merge log: %w", err)
	}

	return nil
}

// ListMergeLogs returns the entries of one run in insertion order.
func ListMergeLogs(db *sql.DB, runID string) ([]MergeLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, run_id, identity_key, survivor, absorbed, changed_fields, merged_at
		FROM merge_log
		WHERE run_id = ?
		ORDER BY merged_at, absorbed
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query merge log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []MergeLogEntry
	for rows.Next() {
		var e MergeLogEntry
		var id string
		var fields sql.NullString

		if err := rows.Scan(&id, &e.RunID, &e.IdentityKey, &e.Survivor, &e.Absorbed, &fields, &e.MergedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge log: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err == nil {
			e.ID = parsed
		}
		if fields.Valid && fields.String != "" {
			e.ChangedFields = strings.Split(fields.String, ",")
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// WasAbsorbed reports whether resourceName was merged away by a completed,
// non-dry run.
func WasAbsorbed(db *sql.DB, resourceName string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM merge_log l
		JOIN merge_runs r ON r.id = l.run_id
		WHERE l.absorbed = ? AND r.dry_run = 0 AND r.status = ?
	`, resourceName, models.RunStatusComplete).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check merge log: %w", err)
	}

	return count > 0, nil
}
