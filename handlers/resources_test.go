package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/harperreed/contactmerge/db"
	"github.com/harperreed/contactmerge/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	database.SetMaxOpenConns(1)

	if err := db.InitSchema(database); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func seedRun(t *testing.T, database *sql.DB) *db.MergeRun {
	t.Helper()

	run := &db.MergeRun{}
	require.NoError(t, db.CreateMergeRun(database, run))
	run.Status = models.RunStatusComplete
	run.ContactsMerged = 1
	require.NoError(t, db.FinishMergeRun(database, run))
	require.NoError(t, db.CreateMergeLog(database, &db.MergeLogEntry{
		RunID:         run.ID,
		IdentityKey:   "email:jean@example.com",
		Survivor:      "people/c1",
		Absorbed:      "people/c2",
		ChangedFields: []string{"phones"},
	}))
	return run
}

func readResource(t *testing.T, h *ResourceHandlers, uri string) (*mcp.ReadResourceResult, error) {
	t.Helper()
	return h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
}

func TestReadRunsResource(t *testing.T) {
	database := setupTestDB(t)
	run := seedRun(t, database)
	h := NewResourceHandlers(database)

	result, err := readResource(t, h, RunsURI)
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var runs []db.MergeRun
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestReadRunResource(t *testing.T) {
	database := setupTestDB(t)
	run := seedRun(t, database)
	h := NewResourceHandlers(database)

	result, err := readResource(t, h, RunsURI+"/"+run.ID)
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "people/c2")

	_, err = readResource(t, h, RunsURI+"/missing")
	assert.Error(t, err)

	_, err = readResource(t, h, "crm://contacts")
	assert.Error(t, err)
}

func TestReviewRunPrompt(t *testing.T) {
	database := setupTestDB(t)
	h := NewPromptHandlers(database)

	_, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: ReviewRunPrompt},
	})
	assert.Error(t, err, "no runs yet")

	run := seedRun(t, database)

	result, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: ReviewRunPrompt, Arguments: map[string]string{"run_id": run.ID}},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "people/c2 absorbed into people/c1")
	assert.Contains(t, text.Text, "(phones)")

	_, err = h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: "nope"},
	})
	assert.Error(t, err)
}
