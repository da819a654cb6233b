// ABOUTME: Merge engine MCP tool handlers
// ABOUTME: Implements normalize_phone, normalize_address, identity_key and plan_merge tools
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"github.com/harperreed/contactmerge/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MergeHandlers struct {
	engine   *merge.Engine
	validate *validator.Validate
}

func NewMergeHandlers(engine *merge.Engine) *MergeHandlers {
	if engine == nil {
		engine = merge.Default()
	}
	return &MergeHandlers{engine: engine, validate: validator.New()}
}

// check turns the first validation failure into a readable error.
func (h *MergeHandlers) check(input any) error {
	if err := h.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid input: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

type NormalizePhoneInput struct {
	Phone string `json:"phone" jsonschema:"Phone number as typed, in any format" validate:"required,max=64"`
}

type NormalizePhoneOutput struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized,omitempty"`
	Valid      bool   `json:"valid"`
}

func (h *MergeHandlers) NormalizePhone(_ context.Context, request *mcp.CallToolRequest, input NormalizePhoneInput) (*mcp.CallToolResult, NormalizePhoneOutput, error) {
	if err := h.check(input); err != nil {
		return nil, NormalizePhoneOutput{}, err
	}

	normalized, ok := h.engine.NormalizePhone(input.Phone)
	return nil, NormalizePhoneOutput{Input: input.Phone, Normalized: normalized, Valid: ok}, nil
}

type NormalizeAddressInput struct {
	Address string `json:"address" jsonschema:"Postal address as typed" validate:"required,max=512"`
}

type NormalizeAddressOutput struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
}

func (h *MergeHandlers) NormalizeAddress(_ context.Context, request *mcp.CallToolRequest, input NormalizeAddressInput) (*mcp.CallToolResult, NormalizeAddressOutput, error) {
	if err := h.check(input); err != nil {
		return nil, NormalizeAddressOutput{}, err
	}

	return nil, NormalizeAddressOutput{Input: input.Address, Normalized: h.engine.NormalizeAddress(input.Address)}, nil
}

type IdentityKeyInput struct {
	Contact models.Contact `json:"contact" jsonschema:"Contact to fingerprint"`
}

type IdentityKeyOutput struct {
	Key   string `json:"key,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Found bool   `json:"found"`
}

func (h *MergeHandlers) IdentityKey(_ context.Context, request *mcp.CallToolRequest, input IdentityKeyInput) (*mcp.CallToolResult, IdentityKeyOutput, error) {
	key, ok := h.engine.IdentityKeyFor(&input.Contact)
	if !ok {
		return nil, IdentityKeyOutput{}, nil
	}
	return nil, IdentityKeyOutput{Key: key.String(), Kind: key.Kind(), Found: true}, nil
}

type PlanMergeInput struct {
	Contacts  []models.Contact `json:"contacts" jsonschema:"Contacts to group and merge, in directory order" validate:"required,min=1,max=5000"`
	WithGraph bool             `json:"with_graph,omitempty" jsonschema:"Also return the plan as a DOT graph"`
}

type PlanOutput struct {
	Key            string         `json:"key"`
	Survivor       string         `json:"survivor"`
	Absorbed       []string       `json:"absorbed"`
	ChangedFields  []string       `json:"changed_fields"`
	Result         models.Contact `json:"result"`
	DeleteSurvivor bool           `json:"delete_survivor"`
}

type PlanMergeOutput struct {
	ContactsSeen int          `json:"contacts_seen"`
	Groups       int          `json:"groups"`
	Plans        []PlanOutput `json:"plans"`
	DOTSource    string       `json:"dot_source,omitempty"`
}

func (h *MergeHandlers) PlanMerge(ctx context.Context, request *mcp.CallToolRequest, input PlanMergeInput) (*mcp.CallToolResult, PlanMergeOutput, error) {
	if err := h.check(input); err != nil {
		return nil, PlanMergeOutput{}, err
	}

	groups := h.engine.NewMatcher(input.Contacts).Duplicates()
	plans := make([]merge.Plan, len(groups))
	out := PlanMergeOutput{
		ContactsSeen: len(input.Contacts),
		Groups:       len(groups),
		Plans:        make([]PlanOutput, len(groups)),
	}

	for i, g := range groups {
		plans[i] = h.engine.FoldGroup(g)
		out.Plans[i] = planToOutput(&plans[i])
	}

	if input.WithGraph {
		dot, err := viz.GeneratePlanGraph(ctx, plans)
		if err != nil {
			return nil, PlanMergeOutput{}, fmt.Errorf("failed to generate graph: %w", err)
		}
		out.DOTSource = dot
	}

	return nil, out, nil
}

func planToOutput(p *merge.Plan) PlanOutput {
	absorbed := make([]string, len(p.Absorbed))
	for i := range p.Absorbed {
		absorbed[i] = contactRef(&p.Absorbed[i])
	}

	changed := p.ChangedFields()
	if changed == nil {
		changed = []string{}
	}

	return PlanOutput{
		Key:            p.Key.String(),
		Survivor:       contactRef(&p.Survivor),
		Absorbed:       absorbed,
		ChangedFields:  changed,
		Result:         p.Result,
		DeleteSurvivor: p.ResultIsEmpty(),
	}
}

// contactRef prefers the directory resource name and falls back to a
// display name for contacts that never came from a directory.
func contactRef(c *models.Contact) string {
	if c.ResourceName != "" {
		return c.ResourceName
	}
	return c.DisplayName()
}
