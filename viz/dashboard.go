// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes merge run history and directory sync state as ASCII
package viz

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/contactmerge/db"
	"github.com/harperreed/contactmerge/models"
)

// historyWindow is how many recent runs the dashboard looks at.
const historyWindow = 50

type DashboardStats struct {
	Sync *db.SyncState

	TotalRuns int
	LiveRuns  int
	DryRuns   int
	Failed    int

	ContactsMerged  int
	ContactsDeleted int
	ContactsTidied  int

	// Recent live runs, newest first.
	RecentRuns []db.MergeRun
}

func GenerateDashboardStats(database *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	state, err := db.GetSyncState(database, db.ServiceContacts)
	if err != nil {
		return nil, err
	}
	stats.Sync = state

	runs, err := db.ListMergeRuns(database, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merge runs: %w", err)
	}

	stats.TotalRuns = len(runs)
	for _, run := range runs {
		if run.Status == models.RunStatusFailed {
			stats.Failed++
		}
		if run.DryRun {
			stats.DryRuns++
			continue
		}
		stats.LiveRuns++
		stats.ContactsMerged += run.ContactsMerged
		stats.ContactsDeleted += run.ContactsDeleted
		stats.ContactsTidied += run.ContactsTidied
		if len(stats.RecentRuns) < 10 {
			stats.RecentRuns = append(stats.RecentRuns, run)
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CONTACTMERGE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("DIRECTORY\n")
	if stats.Sync == nil {
		out.WriteString("  never run\n\n")
	} else {
		out.WriteString(fmt.Sprintf("  status: %s\n", stats.Sync.Status))
		if stats.Sync.LastSyncTime != nil {
			out.WriteString(fmt.Sprintf("  last run: %s\n", stats.Sync.LastSyncTime.Format("2006-01-02 15:04")))
		}
		if stats.Sync.ErrorMessage != nil {
			out.WriteString(fmt.Sprintf("  ⚠️  %s\n", *stats.Sync.ErrorMessage))
		}
		out.WriteString("\n")
	}

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d runs (%d live, %d dry, %d failed)\n",
		stats.TotalRuns, stats.LiveRuns, stats.DryRuns, stats.Failed))
	out.WriteString(fmt.Sprintf("  🔀 %d merged  🗑  %d deleted  🧹 %d tidied\n\n",
		stats.ContactsMerged, stats.ContactsDeleted, stats.ContactsTidied))

	if len(stats.RecentRuns) > 0 {
		out.WriteString("RECENT RUNS\n")
		renderRuns(&out, stats.RecentRuns)
	}

	return out.String()
}

func renderRuns(out *strings.Builder, runs []db.MergeRun) {
	// Find max count for scaling
	maxCount := 0
	for _, run := range runs {
		if run.ContactsMerged > maxCount {
			maxCount = run.ContactsMerged
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, run := range runs {
		// Calculate bar length (0-10 blocks)
		barLength := (run.ContactsMerged * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %s %s  %3d merged\n",
			run.StartedAt.Format("2006-01-02 15:04"), bar, run.ContactsMerged))
	}
}
