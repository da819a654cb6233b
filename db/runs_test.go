// ABOUTME: Tests for merge run, merge log and sync state persistence
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"testing"
	"time"

	"github.com/harperreed/contactmerge/models"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	id := NewRunID()

	_, err := ulid.Parse(id)
	require.NoError(t, err, "run ID should be a valid ULID")
	assert.NotEqual(t, id, NewRunID(), "successive run IDs should be unique")
}

func TestMergeRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	run := &MergeRun{DryRun: true}
	require.NoError(t, CreateMergeRun(db, run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStatusRunning, run.Status)

	got, err := GetMergeRun(db, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.DryRun)
	assert.Nil(t, got.FinishedAt)

	run.Status = models.RunStatusComplete
	run.ContactsSeen = 12
	run.GroupsFound = 3
	run.ContactsMerged = 4
	run.ContactsDeleted = 1
	run.ContactsTidied = 2
	require.NoError(t, FinishMergeRun(db, run))

	got, err = GetMergeRun(db, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunStatusComplete, got.Status)
	assert.Equal(t, 12, got.ContactsSeen)
	assert.Equal(t, 3, got.GroupsFound)
	assert.Equal(t, 4, got.ContactsMerged)
	assert.Equal(t, 1, got.ContactsDeleted)
	assert.Equal(t, 2, got.ContactsTidied)
	assert.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)

	missing, err := GetMergeRun(db, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListMergeRunsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := &MergeRun{StartedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, CreateMergeRun(db, run))
		ids = append(ids, run.ID)
	}

	runs, err := ListMergeRuns(db, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestMergeLog(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	run := &MergeRun{}
	require.NoError(t, CreateMergeRun(db, run))

	entry := &MergeLogEntry{
		RunID:         run.ID,
		IdentityKey:   "email:alice@example.com",
		Survivor:      "people/c1",
		Absorbed:      "people/c2",
		ChangedFields: []string{"phones", "notes"},
	}
	require.NoError(t, CreateMergeLog(db, entry))

	// Duplicate absorbed in the same run is ignored.
	require.NoError(t, CreateMergeLog(db, &MergeLogEntry{
		RunID: run.ID, IdentityKey: "email:alice@example.com", Survivor: "people/c1", Absorbed: "people/c2",
	}))

	entries, err := ListMergeLogs(db, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, []string{"phones", "notes"}, entries[0].ChangedFields)

	// Not absorbed until the run completes.
	absorbed, err := WasAbsorbed(db, "people/c2")
	require.NoError(t, err)
	assert.False(t, absorbed)

	run.Status = models.RunStatusComplete
	require.NoError(t, FinishMergeRun(db, run))

	absorbed, err = WasAbsorbed(db, "people/c2")
	require.NoError(t, err)
	assert.True(t, absorbed)

	absorbed, err = WasAbsorbed(db, "people/c1")
	require.NoError(t, err)
	assert.False(t, absorbed)
}

func TestSyncState(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	state, err := GetSyncState(db, ServiceContacts)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, UpdateSyncStatus(db, ServiceContacts, models.SyncStatusSyncing, nil))

	state, err = GetSyncState(db, ServiceContacts)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusSyncing, state.Status)
	assert.Nil(t, state.LastRunID)

	msg := "quota exceeded"
	require.NoError(t, UpdateSyncStatus(db, ServiceContacts, models.SyncStatusError, &msg))
	state, err = GetSyncState(db, ServiceContacts)
	require.NoError(t, err)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, msg, *state.ErrorMessage)

	require.NoError(t, MarkSyncComplete(db, ServiceContacts, "01HZZZ"))
	state, err = GetSyncState(db, ServiceContacts)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Nil(t, state.ErrorMessage)
	require.NotNil(t, state.LastRunID)
	assert.Equal(t, "01HZZZ", *state.LastRunID)
	assert.NotNil(t, state.LastSyncTime)

	states, err := GetAllSyncStates(db)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}
