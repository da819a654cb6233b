// ABOUTME: Runs the review model as a full-screen program
// ABOUTME: Adapts the interactive selection to the dedupe run's review hook
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/sync"
)

// Review lets the user pick which planned groups to apply. It returns
// sync.ErrReviewAborted when the user quits without confirming.
func Review(ctx context.Context, plans []merge.Plan) ([]merge.Plan, error) {
	if len(plans) == 0 {
		return plans, nil
	}

	p := tea.NewProgram(NewModel(ctx, plans), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run review: %w", err)
	}

	return Result(final)
}

// Result turns a finished model into the review hook's return values.
func Result(final tea.Model) ([]merge.Plan, error) {
	m, ok := final.(Model)
	if !ok || !m.Confirmed() {
		return nil, sync.ErrReviewAborted
	}
	return m.Selected(), nil
}

var _ sync.ReviewFunc = Review
