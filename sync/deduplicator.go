// ABOUTME: Dedupe run over a contacts directory
// ABOUTME: Groups duplicates, folds each group into a survivor, writes it back and records the run
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/harperreed/contactmerge/db"
	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/people/v1"
)

// ErrReviewAborted is returned when the review step rejects the whole run.
var ErrReviewAborted = errors.New("merge review aborted")

// Snapshotter keeps a copy of a contact before the run rewrites or deletes it.
type Snapshotter interface {
	Save(runID string, contact models.Contact) error
}

// ReviewFunc receives the planned groups and returns the ones to apply.
type ReviewFunc func(ctx context.Context, plans []merge.Plan) ([]merge.Plan, error)

// RunOptions controls a single dedupe run.
type RunOptions struct {
	DryRun bool
	Review ReviewFunc
}

// Report summarizes a run.
type Report struct {
	RunID        string
	DryRun       bool
	ContactsSeen int
	GroupsFound  int
	Skipped      int
	Merged       int
	Deleted      int
	Tidied       int
	Failures     int
	Plans        []merge.Plan
}

// DeduplicatorConfig wires a Deduplicator. DB, Snapshots and Logger are
// optional.
type DeduplicatorConfig struct {
	Directory Directory
	Engine    *merge.Engine
	DB        *sql.DB
	Snapshots Snapshotter
	Logger    *log.Logger
	Workers   int
}

type Deduplicator struct {
	dir       Directory
	engine    *merge.Engine
	db        *sql.DB
	snapshots Snapshotter
	logger    *log.Logger
	workers   int
}

func NewDeduplicator(cfg DeduplicatorConfig) *Deduplicator {
	engine := cfg.Engine
	if engine == nil {
		engine = merge.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Deduplicator{
		dir:       cfg.Directory,
		engine:    engine,
		db:        cfg.DB,
		snapshots: cfg.Snapshots,
		logger:    logger,
		workers:   workers,
	}
}

// Run performs one full pass over the directory.
func (d *Deduplicator) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	run := &db.MergeRun{DryRun: opts.DryRun}
	report := &Report{DryRun: opts.DryRun}

	if err := d.startRun(run); err != nil {
		return nil, err
	}
	report.RunID = run.ID
	logger := d.logger.With("run", run.ID)

	if err := d.execute(ctx, logger, opts, report); err != nil {
		if errors.Is(err, ErrReviewAborted) {
			d.abortRun(run, report)
			logger.Info("run aborted during review")
			return report, err
		}
		d.failRun(run, report, err)
		return report, err
	}

	run.Status = models.RunStatusComplete
	if err := d.finishRun(run, report); err != nil {
		return report, err
	}

	logger.Info("run complete",
		"groups", report.GroupsFound,
		"merged", report.Merged,
		"deleted", report.Deleted,
		"tidied", report.Tidied,
		"failures", report.Failures,
	)
	return report, nil
}

func (d *Deduplicator) execute(ctx context.Context, logger *log.Logger, opts RunOptions, report *Report) error {
	persons, err := d.dir.ListContacts(ctx)
	if err != nil {
		return err
	}
	report.ContactsSeen = len(persons)
	logger.Debug("fetched contacts", "count", len(persons))

	byName := make(map[string]*people.Person, len(persons))
	contacts := make([]models.Contact, 0, len(persons))
	for _, p := range persons {
		byName[p.ResourceName] = p
		contacts = append(contacts, ContactFromPerson(p))
	}

	matcher := d.engine.NewMatcher(contacts)
	groups := matcher.Duplicates()
	report.GroupsFound = len(groups)

	plans, err := d.planGroups(ctx, groups)
	if err != nil {
		return err
	}

	if opts.Review != nil {
		reviewed, err := opts.Review(ctx, plans)
		if err != nil {
			return err
		}
		report.Skipped = len(plans) - len(reviewed)
		plans = reviewed
	}
	report.Plans = plans

	var rest []models.Contact
	rest = append(rest, matcher.Singles()...)
	rest = append(rest, matcher.Unmatched()...)

	if opts.DryRun {
		for _, p := range plans {
			report.Merged += len(p.Absorbed)
			if p.ResultIsEmpty() {
				report.Deleted++
			}
		}
		for i := range rest {
			if merge.IsEmpty(&rest[i]) {
				report.Deleted++
			} else if !d.engine.Tidy(&rest[i]).IsZero() {
				report.Tidied++
			}
		}
		return nil
	}

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.applyPlan(ctx, report.RunID, byName, plan, report); err != nil {
			report.Failures++
			logger.Error("failed to apply group", "key", plan.Key, "survivor", plan.Survivor.ResourceName, "err", err)
		}
	}

	for i := range rest {
		if err := ctx.Err(); err != nil {
			return err
		}
		if merge.IsEmpty(&rest[i]) {
			if err := d.deleteEmpty(ctx, report.RunID, rest[i]); err != nil {
				report.Failures++
				logger.Error("failed to delete empty contact", "contact", rest[i].ResourceName, "err", err)
				continue
			}
			report.Deleted++
			continue
		}

		tidied, err := d.tidy(ctx, report.RunID, byName, &rest[i])
		if err != nil {
			report.Failures++
			logger.Error("failed to tidy contact", "contact", rest[i].ResourceName, "err", err)
			continue
		}
		if tidied {
			report.Tidied++
		}
	}

	return nil
}

// planGroups folds every group concurrently. Plans keep the group order.
func (d *Deduplicator) planGroups(ctx context.Context, groups []merge.Group) ([]merge.Plan, error) {
	plans := make([]merge.Plan, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plans[i] = d.engine.FoldGroup(groups[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to plan merges: %w", err)
	}
	return plans, nil
}

func (d *Deduplicator) applyPlan(ctx context.Context, runID string, byName map[string]*people.Person, plan merge.Plan, report *Report) error {
	survivor, ok := byName[plan.Survivor.ResourceName]
	if !ok {
		return fmt.Errorf("survivor %s not in directory listing", plan.Survivor.ResourceName)
	}

	if err := d.snapshot(runID, plan.Survivor); err != nil {
		return err
	}
	for _, absorbed := range plan.Absorbed {
		if err := d.snapshot(runID, absorbed); err != nil {
			return err
		}
	}

	if !plan.Directives.IsZero() {
		updated, fields, err := ApplyPlan(survivor, plan.Directives)
		if err != nil {
			return err
		}
		if _, err := d.dir.UpdateContact(ctx, updated, fields); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(plan.Absorbed))
	for _, absorbed := range plan.Absorbed {
		names = append(names, absorbed.ResourceName)
	}
	if err := d.dir.DeleteContacts(ctx, names); err != nil {
		return err
	}
	report.Merged += len(names)

	changed := plan.ChangedFields()
	for _, name := range names {
		d.recordMerge(runID, plan.Key.String(), plan.Survivor.ResourceName, name, changed)
	}

	if plan.ResultIsEmpty() {
		if err := d.dir.DeleteContacts(ctx, []string{plan.Survivor.ResourceName}); err != nil {
			return fmt.Errorf("failed to delete empty survivor: %w", err)
		}
		report.Deleted++
	}

	return nil
}

func (d *Deduplicator) tidy(ctx context.Context, runID string, byName map[string]*people.Person, contact *models.Contact) (bool, error) {
	directives := d.engine.Tidy(contact)
	if directives.IsZero() {
		return false, nil
	}

	person, ok := byName[contact.ResourceName]
	if !ok {
		return false, fmt.Errorf("contact %s not in directory listing", contact.ResourceName)
	}
	if err := d.snapshot(runID, *contact); err != nil {
		return false, err
	}

	updated, fields, err := ApplyPlan(person, directives)
	if err != nil {
		return false, err
	}
	if _, err := d.dir.UpdateContact(ctx, updated, fields); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Deduplicator) deleteEmpty(ctx context.Context, runID string, contact models.Contact) error {
	if err := d.snapshot(runID, contact); err != nil {
		return err
	}
	return d.dir.DeleteContacts(ctx, []string{contact.ResourceName})
}

func (d *Deduplicator) snapshot(runID string, contact models.Contact) error {
	if d.snapshots == nil {
		return nil
	}
	if err := d.snapshots.Save(runID, contact); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", contact.ResourceName, err)
	}
	return nil
}

func (d *Deduplicator) recordMerge(runID, key, survivor, absorbed string, changed []string) {
	if d.db == nil {
		return
	}
	entry := &db.MergeLogEntry{
		RunID:         runID,
		IdentityKey:   key,
		Survivor:      survivor,
		Absorbed:      absorbed,
		ChangedFields: changed,
	}
	if err := db.CreateMergeLog(d.db, entry); err != nil {
		d.logger.Warn("failed to record merge", "absorbed", absorbed, "err", err)
	}
}

func (d *Deduplicator) startRun(run *db.MergeRun) error {
	if d.db == nil {
		run.ID = db.NewRunID()
		return nil
	}
	if err := db.UpdateSyncStatus(d.db, db.ServiceContacts, models.SyncStatusSyncing, nil); err != nil {
		return err
	}
	return db.CreateMergeRun(d.db, run)
}

func (d *Deduplicator) finishRun(run *db.MergeRun, report *Report) error {
	if d.db == nil {
		return nil
	}
	d.recordCounters(run, report)

	if err := db.FinishMergeRun(d.db, run); err != nil {
		return err
	}
	return db.MarkSyncComplete(d.db, db.ServiceContacts, run.ID)
}

// abortRun closes a run the user cancelled. Nothing was written, so the
// directory goes back to idle.
func (d *Deduplicator) abortRun(run *db.MergeRun, report *Report) {
	if d.db == nil {
		return
	}
	run.Status = models.RunStatusAborted
	d.recordCounters(run, report)

	if err := db.FinishMergeRun(d.db, run); err != nil {
		d.logger.Warn("failed to record aborted run", "err", err)
	}
	if err := db.UpdateSyncStatus(d.db, db.ServiceContacts, models.SyncStatusIdle, nil); err != nil {
		d.logger.Warn("failed to update sync status", "err", err)
	}
}

func (d *Deduplicator) failRun(run *db.MergeRun, report *Report, cause error) {
	if d.db == nil {
		return
	}
	msg := cause.Error()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = &msg
	d.recordCounters(run, report)

	if err := db.FinishMergeRun(d.db, run); err != nil {
		d.logger.Warn("failed to record failed run", "err", err)
	}
	if err := db.UpdateSyncStatus(d.db, db.ServiceContacts, models.SyncStatusError, &msg); err != nil {
		d.logger.Warn("failed to update sync status", "err", err)
	}
}

func (d *Deduplicator) recordCounters(run *db.MergeRun, report *Report) {
	run.ContactsSeen = report.ContactsSeen
	run.GroupsFound = report.GroupsFound
	run.ContactsMerged = report.Merged
	run.ContactsDeleted = report.Deleted
	run.ContactsTidied = report.Tidied
	run.Failures = report.Failures
}
