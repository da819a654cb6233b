// ABOUTME: CLI commands for pre-merge snapshots kept in Charm KV
// ABOUTME: Lists runs and their saved originals, syncs, links and prunes the store
package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/charm/client"
	"github.com/harperreed/contactmerge/models"
	"github.com/harperreed/contactmerge/snapshot"
)

// SnapshotStore is the part of snapshot.Store the commands use.
type SnapshotStore interface {
	Runs() ([]string, error)
	List(runID string) ([]models.Contact, error)
	Get(runID, resourceName string) (*models.Contact, error)
	Prune(runID string) (int, error)
	Sync() error
}

// OpenSnapshots opens the Charm KV store from the user config.
func OpenSnapshots(env *Env) (*snapshot.Store, error) {
	cfg := env.config()
	return snapshot.Open(snapshot.Options{Host: cfg.Host, AutoSync: cfg.AutoSync})
}

// SnapshotsCommand routes "snapshots [run-id | show | prune | sync]".
func SnapshotsCommand(env *Env, store SnapshotStore, args []string) error {
	if len(args) == 0 {
		return listSnapshotRuns(env, store)
	}

	switch args[0] {
	case "show":
		return showSnapshot(env, store, args[1:])
	case "prune":
		return pruneSnapshots(env, store, args[1:])
	case "sync":
		if err := store.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		_, _ = fmt.Fprintln(env.out(), "✓ Snapshots synced")
		return nil
	default:
		return listSnapshotRun(env, store, args[0])
	}
}

func listSnapshotRuns(env *Env, store SnapshotStore) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}

	out := env.out()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No snapshots saved yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tCONTACTS")
	_, _ = fmt.Fprintln(w, "---\t--------")
	for _, runID := range runs {
		contacts, err := store.List(runID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", runID, len(contacts))
	}
	return w.Flush()
}

func listSnapshotRun(env *Env, store SnapshotStore, runID string) error {
	contacts, err := store.List(runID)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		return fmt.Errorf("no snapshots for run %s", runID)
	}

	w := tabwriter.NewWriter(env.out(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RESOURCE\tNAME\tEMAIL\tPHONE")
	_, _ = fmt.Fprintln(w, "--------\t----\t-----\t-----")
	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ResourceName, c.DisplayName(), c.PrimaryEmail, c.PrimaryPhone)
	}
	return w.Flush()
}

func showSnapshot(env *Env, store SnapshotStore, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: contactmerge snapshots show <run-id> <resource-name>")
	}

	contact, err := store.Get(args[0], args[1])
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("no snapshot of %s in run %s", args[1], args[0])
	}

	enc := json.NewEncoder(env.out())
	enc.SetIndent("", "  ")
	return enc.Encode(contact)
}

func pruneSnapshots(env *Env, store SnapshotStore, args []string) error {
	fs := flag.NewFlagSet("snapshots prune", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: contactmerge snapshots prune --confirm <run-id>")
	}

	out := env.out()
	runID := fs.Arg(0)
	if !*confirm {
		_, _ = fmt.Fprintf(out, "WARNING: This deletes every snapshot of run %s.\n\n", runID)
		_, _ = fmt.Fprintln(out, "To confirm, run:")
		_, _ = fmt.Fprintf(out, "  contactmerge snapshots prune --confirm %s\n", runID)
		return nil
	}

	n, err := store.Prune(runID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Deleted %d snapshots of run %s\n", n, runID)
	return nil
}

// SnapshotsLinkCommand checks the charm connection and prints the account ID.
func SnapshotsLinkCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("snapshots link", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := env.config()
	out := env.out()
	_, _ = fmt.Fprintf(out, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	_, _ = fmt.Fprintln(out, "Charm uses SSH key authentication.")

	store, err := OpenSnapshots(env)
	if err != nil {
		return err
	}
	if err := store.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return fmt.Errorf("failed to get charm client: %w", err)
	}

	id, err := cc.ID()
	if err != nil {
		_, _ = fmt.Fprintln(out, "✓ Device linked (ID unavailable)")
	} else {
		_, _ = fmt.Fprintf(out, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(out, "✓ Auto-sync: %v\n", cfg.AutoSync)

	return nil
}
