// ABOUTME: Offline merge planning CLI command
// ABOUTME: Reads a JSON export of contacts and prints the merge directives without touching any account
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"github.com/harperreed/contactmerge/viz"
)

// PlanResult is the JSON document printed by the plan command.
type PlanResult struct {
	ContactsSeen int                         `json:"contacts_seen"`
	Plans        []merge.Plan                `json:"plans"`
	Tidy         map[string]merge.Directives `json:"tidy,omitempty"`
	Empty        []string                    `json:"empty,omitempty"`
}

// PlanCommand plans merges for contacts read from a file ("-" for stdin).
func PlanCommand(ctx context.Context, env *Env, stdin io.Reader, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	graph := fs.String("graph", "", "Write the merge plan as a DOT graph to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: contactmerge plan [--graph file] <contacts.json|->")
	}

	contacts, err := readContacts(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	result := BuildPlan(env.config().Engine(), contacts)

	enc := json.NewEncoder(env.out())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	if *graph != "" {
		dot, err := viz.GeneratePlanGraph(ctx, result.Plans)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*graph, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
	}

	return nil
}

// BuildPlan groups contacts, folds every group and tidies the rest. Tidy
// and Empty are keyed by contactRef, which stays unique even for exports
// without resource names.
func BuildPlan(engine *merge.Engine, contacts []models.Contact) PlanResult {
	groups := engine.NewMatcher(contacts).Duplicates()

	result := PlanResult{
		ContactsSeen: len(contacts),
		Plans:        make([]merge.Plan, len(groups)),
	}
	grouped := make(map[merge.IdentityKey]bool, len(groups))
	for i, g := range groups {
		result.Plans[i] = engine.FoldGroup(g)
		grouped[g.Key] = true
	}

	used := make(map[string]bool)
	for i := range contacts {
		c := &contacts[i]
		if key, ok := engine.IdentityKeyFor(c); ok && grouped[key] {
			continue
		}

		ref := contactRef(c, i)
		if used[ref] {
			ref = fmt.Sprintf("%s#%d", ref, i)
		}
		used[ref] = true

		if merge.IsEmpty(c) {
			result.Empty = append(result.Empty, ref)
			continue
		}
		if d := engine.Tidy(c); !d.IsZero() {
			if result.Tidy == nil {
				result.Tidy = make(map[string]merge.Directives)
			}
			result.Tidy[ref] = d
		}
	}

	return result
}

// contactRef names a contact by resource name, then display name, then its
// position in the input.
func contactRef(c *models.Contact, index int) string {
	if c.ResourceName != "" {
		return c.ResourceName
	}
	if name := c.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", index)
}

func readContacts(path string, stdin io.Reader) ([]models.Contact, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open contacts file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var contacts []models.Contact
	if err := json.NewDecoder(r).Decode(&contacts); err != nil {
		return nil, fmt.Errorf("failed to parse contacts: %w", err)
	}
	return contacts, nil
}
