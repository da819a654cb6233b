// ABOUTME: Tests for merge MCP tool handlers
// ABOUTME: Validates tool input/output and error handling
package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneHandler(t *testing.T) {
	h := NewMergeHandlers(nil)

	_, out, err := h.NormalizePhone(context.Background(), nil, NormalizePhoneInput{Phone: "06.12.34.56.78"})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Equal(t, "+33612345678", out.Normalized)

	_, out, err = h.NormalizePhone(context.Background(), nil, NormalizePhoneInput{Phone: "12"})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Empty(t, out.Normalized)

	_, _, err = h.NormalizePhone(context.Background(), nil, NormalizePhoneInput{})
	assert.Error(t, err, "phone is required")
}

func TestNormalizePhoneHandlerUsesEngineRules(t *testing.T) {
	rules := merge.FrenchRules()
	rules.NationalPrefix = "+32"
	h := NewMergeHandlers(merge.New(rules))

	_, out, err := h.NormalizePhone(context.Background(), nil, NormalizePhoneInput{Phone: "0471 12 34 56"})
	require.NoError(t, err)
	assert.Equal(t, "+32471123456", out.Normalized)
}

func TestNormalizeAddressHandler(t *testing.T) {
	h := NewMergeHandlers(nil)

	_, out, err := h.NormalizeAddress(context.Background(), nil, NormalizeAddressInput{Address: "12, Rue de la Paix"})
	require.NoError(t, err)
	assert.Equal(t, "12 paix", out.Normalized)

	_, _, err = h.NormalizeAddress(context.Background(), nil, NormalizeAddressInput{Address: strings.Repeat("a", 600)})
	assert.Error(t, err)
}

func TestIdentityKeyHandler(t *testing.T) {
	h := NewMergeHandlers(nil)

	_, out, err := h.IdentityKey(context.Background(), nil, IdentityKeyInput{
		Contact: models.Contact{PrimaryPhone: "06 12 34 56 78", Name: "Jean"},
	})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "phone:+33612345678", out.Key)
	assert.Equal(t, merge.KindPhone, out.Kind)

	_, out, err = h.IdentityKey(context.Background(), nil, IdentityKeyInput{})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestPlanMergeHandler(t *testing.T) {
	h := NewMergeHandlers(nil)

	input := PlanMergeInput{
		Contacts: []models.Contact{
			{ResourceName: "people/c1", Name: "Jean Dupont", PrimaryEmail: "jean@example.com",
				Emails: []models.EmailAddress{{Address: "jean@example.com"}}},
			{ResourceName: "people/c2", PrimaryEmail: "Jean@Example.com",
				Phones: []models.PhoneNumber{{Number: "06 12 34 56 78"}}},
			{ResourceName: "people/c3", Name: "Marie Curie"},
		},
		WithGraph: true,
	}

	_, out, err := h.PlanMerge(context.Background(), nil, input)
	require.NoError(t, err)

	assert.Equal(t, 3, out.ContactsSeen)
	assert.Equal(t, 1, out.Groups)
	require.Len(t, out.Plans, 1)

	plan := out.Plans[0]
	assert.Equal(t, "email:jean@example.com", plan.Key)
	assert.Equal(t, "people/c1", plan.Survivor)
	assert.Equal(t, []string{"people/c2"}, plan.Absorbed)
	assert.Equal(t, []string{merge.FieldPhones}, plan.ChangedFields)
	require.Len(t, plan.Result.Phones, 1)
	assert.False(t, plan.DeleteSurvivor)
	assert.Contains(t, out.DOTSource, "group_0_survivor")
}

func TestPlanMergeHandlerRequiresContacts(t *testing.T) {
	h := NewMergeHandlers(nil)

	_, _, err := h.PlanMerge(context.Background(), nil, PlanMergeInput{})
	assert.Error(t, err)
}
