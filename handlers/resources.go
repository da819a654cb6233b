// ABOUTME: MCP resource handlers for exposing merge history
// ABOUTME: Provides read-only access to merge runs and their merge log via URI
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/contactmerge/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunsURI lists recent merge runs; RunsURI + "/<id>" returns one run's log.
const RunsURI = "contactmerge://runs"

type ResourceHandlers struct {
	db *sql.DB
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, RunsURI) {
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	runID := strings.TrimPrefix(strings.TrimPrefix(uri, RunsURI), "/")
	if runID == "" {
		return h.readRuns(uri)
	}
	return h.readRun(uri, runID)
}

func (h *ResourceHandlers) readRuns(uri string) (*mcp.ReadResourceResult, error) {
	runs, err := db.ListMergeRuns(h.db, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merge runs: %w", err)
	}
	if runs == nil {
		runs = []db.MergeRun{}
	}

	return jsonResource(uri, runs)
}

type runDetail struct {
	Run     *db.MergeRun       `json:"run"`
	Entries []db.MergeLogEntry `json:"entries"`
}

func (h *ResourceHandlers) readRun(uri, runID string) (*mcp.ReadResourceResult, error) {
	run, err := db.GetMergeRun(h.db, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merge run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("merge run not found: %s", runID)
	}

	entries, err := db.ListMergeLogs(h.db, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merge log: %w", err)
	}

	return jsonResource(uri, runDetail{Run: run, Entries: entries})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
