package viz

import (
	"database/sql"
	"testing"
	"time"

	"github.com/harperreed/contactmerge/db"
	"github.com/harperreed/contactmerge/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestDashboardEmpty(t *testing.T) {
	database := setupTestDB(t)

	stats, err := GenerateDashboardStats(database)
	require.NoError(t, err)
	assert.Nil(t, stats.Sync)
	assert.Equal(t, 0, stats.TotalRuns)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "CONTACTMERGE DASHBOARD")
	assert.Contains(t, out, "never run")
	assert.NotContains(t, out, "RECENT RUNS")
}

func TestDashboardAggregatesRuns(t *testing.T) {
	database := setupTestDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	live := &db.MergeRun{StartedAt: base}
	require.NoError(t, db.CreateMergeRun(database, live))
	live.Status = models.RunStatusComplete
	live.ContactsMerged = 4
	live.ContactsDeleted = 1
	live.ContactsTidied = 2
	require.NoError(t, db.FinishMergeRun(database, live))
	require.NoError(t, db.MarkSyncComplete(database, db.ServiceContacts, live.ID))

	dry := &db.MergeRun{StartedAt: base.Add(time.Hour), DryRun: true}
	require.NoError(t, db.CreateMergeRun(database, dry))
	dry.Status = models.RunStatusComplete
	dry.ContactsMerged = 9
	require.NoError(t, db.FinishMergeRun(database, dry))

	stats, err := GenerateDashboardStats(database)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.LiveRuns)
	assert.Equal(t, 1, stats.DryRuns)
	assert.Equal(t, 4, stats.ContactsMerged, "dry runs are not counted")
	assert.Equal(t, 1, stats.ContactsDeleted)
	require.Len(t, stats.RecentRuns, 1)
	require.NotNil(t, stats.Sync)
	assert.Equal(t, models.SyncStatusIdle, stats.Sync.Status)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "2 runs (1 live, 1 dry, 0 failed)")
	assert.Contains(t, out, "RECENT RUNS")
	assert.Contains(t, out, "██████████")
}
