// ABOUTME: Status CLI command
// ABOUTME: Shows the directory sync state, run totals and a table of recent merge runs
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/contactmerge/db"
	"github.com/harperreed/contactmerge/models"
	"github.com/harperreed/contactmerge/viz"
)

var (
	statusOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusBusyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// StatusCommand prints the dashboard and the latest runs.
func StatusCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	limit := fs.Int("runs", 10, "Number of recent runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := viz.GenerateDashboardStats(env.DB)
	if err != nil {
		return err
	}

	out := env.out()
	_, _ = fmt.Fprint(out, viz.RenderDashboard(stats))

	if *limit <= 0 {
		return nil
	}

	runs, err := db.ListMergeRuns(env.DB, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tMODE\tSTATUS\tGROUPS\tMERGED\tDELETED\tTIDIED")
	_, _ = fmt.Fprintln(w, "---\t-------\t----\t------\t------\t------\t-------\t------")
	for _, run := range runs {
		mode := "live"
		if run.DryRun {
			mode = "dry"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID, run.StartedAt.Local().Format("2006-01-02 15:04"), mode, styleRunStatus(run.Status),
			run.GroupsFound, run.ContactsMerged, run.ContactsDeleted, run.ContactsTidied)
	}
	return w.Flush()
}

func styleRunStatus(status string) string {
	switch status {
	case models.RunStatusComplete:
		return statusOKStyle.Render(status)
	case models.RunStatusFailed, models.RunStatusAborted:
		return statusFailStyle.Render(status)
	default:
		return statusBusyStyle.Render(status)
	}
}
