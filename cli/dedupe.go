// ABOUTME: Dedupe CLI command
// ABOUTME: Runs a merge pass over the Google contacts directory with optional review and graph output
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/contactmerge/snapshot"
	"github.com/harperreed/contactmerge/sync"
	"github.com/harperreed/contactmerge/tui"
	"github.com/harperreed/contactmerge/viz"
	"golang.org/x/term"
)

type dedupeOptions struct {
	DryRun    bool
	Review    sync.ReviewFunc
	GraphPath string
}

// DedupeCommand merges duplicate contacts in the authenticated account.
func DedupeCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("dedupe", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Plan and report without writing")
	review := fs.Bool("review", false, "Review the planned groups before applying")
	graph := fs.String("graph", "", "Write the merge plan as a DOT graph to this file")
	noSnapshots := fs.Bool("no-snapshots", false, "Skip saving originals to Charm KV")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := dedupeOptions{DryRun: *dryRun, GraphPath: *graph}
	if *review {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--review needs an interactive terminal")
		}
		opts.Review = tui.Review
	}

	token, err := sync.LoadToken()
	if err != nil {
		return fmt.Errorf("no authentication token found. Run 'contactmerge auth' first: %w", err)
	}

	service, err := sync.NewPeopleClient(ctx, token)
	if err != nil {
		return err
	}

	var snaps sync.Snapshotter
	if !*dryRun && !*noSnapshots {
		cfg := env.config()
		store, err := snapshot.Open(snapshot.Options{Host: cfg.Host, AutoSync: cfg.AutoSync})
		if err != nil {
			return fmt.Errorf("failed to open snapshot store (use --no-snapshots to skip): %w", err)
		}
		snaps = store
	}

	return runDedupe(ctx, env, sync.NewPeopleDirectory(service), snaps, opts)
}

func runDedupe(ctx context.Context, env *Env, dir sync.Directory, snaps sync.Snapshotter, opts dedupeOptions) error {
	out := env.out()
	cfg := env.config()

	dedup := sync.NewDeduplicator(sync.DeduplicatorConfig{
		Directory: dir,
		Engine:    cfg.Engine(),
		DB:        env.DB,
		Snapshots: snaps,
		Logger:    env.logger(),
		Workers:   cfg.Workers,
	})

	if opts.DryRun {
		_, _ = fmt.Fprintln(out, "→ Dry run: nothing will be written")
	}

	report, err := dedup.Run(ctx, sync.RunOptions{DryRun: opts.DryRun, Review: opts.Review})
	if errors.Is(err, sync.ErrReviewAborted) {
		_, _ = fmt.Fprintln(out, "✗ Review aborted, no changes made")
		return nil
	}
	if err != nil {
		return fmt.Errorf("dedupe failed: %w", err)
	}

	printReport(out, report)

	if opts.GraphPath != "" {
		dot, err := viz.GeneratePlanGraph(ctx, report.Plans)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.GraphPath, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		_, _ = fmt.Fprintf(out, "✓ Graph written to %s\n", opts.GraphPath)
	}

	return nil
}

func printReport(out io.Writer, report *sync.Report) {
	verb := "Merged"
	if report.DryRun {
		verb = "Would merge"
	}

	_, _ = fmt.Fprintf(out, "\nRun %s\n", report.RunID)
	_, _ = fmt.Fprintf(out, "  Contacts seen:  %d\n", report.ContactsSeen)
	_, _ = fmt.Fprintf(out, "  Groups found:   %d\n", report.GroupsFound)
	if report.Skipped > 0 {
		_, _ = fmt.Fprintf(out, "  Groups skipped: %d\n", report.Skipped)
	}
	_, _ = fmt.Fprintf(out, "✓ %s %d contacts\n", verb, report.Merged)
	_, _ = fmt.Fprintf(out, "✓ Deleted %d empty contacts\n", report.Deleted)
	_, _ = fmt.Fprintf(out, "✓ Tidied %d contacts\n", report.Tidied)
	if report.Failures > 0 {
		_, _ = fmt.Fprintf(out, "✗ %d failures (see log)\n", report.Failures)
	}
}
