// ABOUTME: Folding a group of duplicates into one survivor
// ABOUTME: Produces the cumulative directives and the list of absorbed contacts
package merge

import (
	"github.com/harperreed/contactmerge/models"
)

// Plan describes how one group collapses: Survivor is the record as the
// directory holds it, Directives turn it into Result, and Absorbed are the
// records to remove afterwards.
type Plan struct {
	Key        IdentityKey      `json:"key"`
	Survivor   models.Contact   `json:"survivor"`
	Absorbed   []models.Contact `json:"absorbed"`
	Directives Directives       `json:"directives"`
	Result     models.Contact   `json:"result"`
}

// ChangedFields lists the survivor fields the plan rewrites.
func (p *Plan) ChangedFields() []string {
	return p.Directives.ChangedFields()
}

// ResultIsEmpty reports whether the merged survivor is still an empty
// contact, in which case the writer deletes it too.
func (p *Plan) ResultIsEmpty() bool {
	return IsEmpty(&p.Result)
}

// FoldGroup merges every member of g into the first one. Sources are folded
// one at a time into the running survivor, so later members see what
// earlier ones contributed.
func (e *Engine) FoldGroup(g Group) Plan {
	plan := Plan{Key: g.Key}
	if len(g.Members) == 0 {
		return plan
	}

	plan.Survivor = g.Members[0]
	running := g.Members[0].Clone()

	var acc Directives
	for i := 1; i < len(g.Members); i++ {
		src := g.Members[i]
		step := e.Merge(&running, &src)
		running = step.Apply(running)
		acc = accumulate(acc, step, &running)
		plan.Absorbed = append(plan.Absorbed, src)
	}

	plan.Directives = acc
	plan.Result = running
	return plan
}

// accumulate marks every field changed by step as changed in acc, carrying
// the running value so the final directive rewrites from the original
// survivor in one go.
func accumulate(acc, step Directives, running *models.Contact) Directives {
	if step.Names.Changed() {
		acc.Names = Replace(NameValue{GivenName: running.GivenName, FamilyName: running.FamilyName})
	}
	if v, ok := step.Phones.Value(); ok {
		acc.Phones = Replace(v)
	}
	if v, ok := step.Emails.Value(); ok {
		acc.Emails = Replace(v)
	}
	if v, ok := step.Addresses.Value(); ok {
		acc.Addresses = Replace(v)
	}
	if v, ok := step.Organizations.Value(); ok {
		acc.Organizations = Replace(v)
	}
	if v, ok := step.Notes.Value(); ok {
		acc.Notes = Replace(v)
	}
	if v, ok := step.URLs.Value(); ok {
		acc.URLs = Replace(v)
	}
	if v, ok := step.UserDefined.Value(); ok {
		acc.UserDefined = Replace(v)
	}
	return acc
}

// Tidy computes the in-place cleanup for a contact outside any group:
// duplicate urls and custom fields collapse and sync markers leave the
// notes.
func (e *Engine) Tidy(c *models.Contact) Directives {
	var d Directives
	d.URLs = e.DedupeFields(c.URLs)
	d.UserDefined = e.DedupeFields(c.UserDefined)

	if cleaned := e.CleanNotes(c.Notes); cleaned != c.Notes && e.rules.SyncMarker.MatchString(c.Notes) {
		d.Notes = Replace(NoteValue{Value: cleaned, ContentType: ContentTypePlain})
	}
	return d
}

// FoldGroup folds g with the default engine.
func FoldGroup(g Group) Plan {
	return defaultEngine.FoldGroup(g)
}
