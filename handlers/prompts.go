// ABOUTME: MCP prompt handlers for reviewing merge runs
// ABOUTME: Builds a review prompt listing what a run merged and which fields it rewrote
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/contactmerge/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReviewRunPrompt is the name of the run review prompt.
const ReviewRunPrompt = "review-merge-run"

type PromptHandlers struct {
	db *sql.DB
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case ReviewRunPrompt:
		return h.getReviewRunPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getReviewRunPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	runID := args["run_id"]
	if runID == "" {
		runs, err := db.ListMergeRuns(h.db, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch merge runs: %w", err)
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("no merge runs recorded yet")
		}
		runID = runs[0].ID
	}

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

	var promptText strings.Builder
	promptText.WriteString("Please review this contact deduplication run:\n\n")
	promptText.WriteString(fmt.Sprintf("Run: %s (%s)\n", run.ID, run.Status))
	promptText.WriteString(fmt.Sprintf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04")))
	if run.DryRun {
		promptText.WriteString("Dry run: nothing was written\n")
	}
	promptText.WriteString(fmt.Sprintf("Contacts seen: %d, groups: %d, merged: %d, deleted: %d, tidied: %d, failures: %d\n",
		run.ContactsSeen, run.GroupsFound, run.ContactsMerged, run.ContactsDeleted, run.ContactsTidied, run.Failures))
	if run.ErrorMessage != nil {
		promptText.WriteString(fmt.Sprintf("Error: %s\n", *run.ErrorMessage))
	}

	if len(entries) > 0 {
		promptText.WriteString("\nMerges:\n")
		for _, e := range entries {
			fields := "no field changes"
			if len(e.ChangedFields) > 0 {
				fields = strings.Join(e.ChangedFields, ", ")
			}
			promptText.WriteString(fmt.Sprintf("- %s absorbed into %s by %s (%s)\n", e.Absorbed, e.Survivor, e.IdentityKey, fields))
		}
	}

	promptText.WriteString("\nPlease point out:")
	promptText.WriteString("\n1. Merges that look like two different people sharing an identifier")
	promptText.WriteString("\n2. Groups keyed only by name or organization, which are the weakest matches")
	promptText.WriteString("\n3. Whether any snapshot should be restored by hand")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of merge run %s", run.ID),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
