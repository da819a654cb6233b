// ABOUTME: Graph rendering for merge plans
// ABOUTME: Draws every absorbed contact pointing at its survivor, edges labelled with rewritten fields
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
)

// GeneratePlanGraph renders plans as a DOT graph.
func GeneratePlanGraph(ctx context.Context, plans []merge.Plan) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			fmt.Printf("Error closing graphviz: %v\n", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			fmt.Printf("Error closing graph: %v\n", err)
		}
	}()

	graph.SetLabel(fmt.Sprintf("Merge plan (%d groups)", len(plans)))
	graph.SetRankDir(cgraph.LRRank)

	for i, plan := range plans {
		survivor, err := graph.CreateNodeByName(fmt.Sprintf("group_%d_survivor", i))
		if err != nil {
			return "", fmt.Errorf("failed to create survivor node: %w", err)
		}
		survivor.SetLabel(nodeLabel(&plan.Result, string(plan.Key)))
		survivor.SetShape("box")
		survivor.SetStyle("filled")
		if plan.ResultIsEmpty() {
			survivor.SetFillColor("lightpink")
		} else {
			survivor.SetFillColor("lightgreen")
		}

		fields := strings.Join(plan.ChangedFields(), ", ")
		for j := range plan.Absorbed {
			absorbed := &plan.Absorbed[j]
			node, err := graph.CreateNodeByName(fmt.Sprintf("group_%d_absorbed_%d", i, j))
			if err != nil {
				return "", fmt.Errorf("failed to create absorbed node: %w", err)
			}
			node.SetLabel(nodeLabel(absorbed, absorbed.ResourceName))
			node.SetShape("ellipse")
			node.SetStyle("dashed")

			edge, err := graph.CreateEdgeByName(fmt.Sprintf("merge_%d_%d", i, j), node, survivor)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			if fields != "" {
				edge.SetLabel(fields)
			}
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

func nodeLabel(c *models.Contact, detail string) string {
	name := c.DisplayName()
	if name == "" || name == detail {
		return detail
	}
	return name + "\n" + detail
}
