// ABOUTME: Tests for identity keys, emptiness and group folding
// ABOUTME: Covers key precedence, the empty-contact predicate and survivor accumulation
package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/harperreed/contactmerge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		contact  models.Contact
		expected IdentityKey
		ok       bool
	}{
		{
			name: "email wins",
			contact: models.Contact{
				PrimaryEmail: " John@Example.com ", PrimaryPhone: "06 12 34 56 78",
				Name: "John Doe", OrganizationName: "Acme",
			},
			expected: "email:john@example.com",
			ok:       true,
		},
		{
			name:     "phone second",
			contact:  models.Contact{PrimaryPhone: "06 12 34 56 78", Name: "Jane Doe"},
			expected: "phone:+33612345678",
			ok:       true,
		},
		{
			name:     "unusable phone falls through to name",
			contact:  models.Contact{PrimaryPhone: "01", Name: "Bob Smith"},
			expected: "name:bob smith",
			ok:       true,
		},
		{
			name:     "organization last",
			contact:  models.Contact{OrganizationName: "  ACME Corp"},
			expected: "org:acme corp",
			ok:       true,
		},
		{
			name:    "nothing identifying",
			contact: models.Contact{Name: "  ", Notes: "only notes"},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := IdentityKeyFor(&tt.contact)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestIdentityKeyParts(t *testing.T) {
	key := IdentityKey("email:a:b@example.com")
	assert.Equal(t, KindEmail, key.Kind())
	assert.Equal(t, "a:b@example.com", key.Value())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(&models.Contact{
		Name: " ", Notes: "\n", Emails: []models.EmailAddress{}, Phones: nil,
	}))
	assert.True(t, IsEmpty(nil))

	populated := []models.Contact{
		{Emails: []models.EmailAddress{{Address: "test@example.com"}}},
		{PrimaryEmail: "test@example.com"},
		{GivenName: "A"},
		{PhotoURL: "https://example.com/p.jpg"},
		{Phones: []models.PhoneNumber{{Number: ""}}},
		{Addresses: []models.PostalAddress{{Address: "x"}}},
		{Notes: "hi"},
	}
	for i := range populated {
		assert.False(t, IsEmpty(&populated[i]), "contact %d", i)
	}

	// Organizations and urls alone do not count.
	assert.True(t, IsEmpty(&models.Contact{
		Organizations: []models.Organization{{Name: "Acme"}},
		URLs:          []models.FieldEntry{{"value": "https://x"}},
	}))
}

func TestMatcherGroups(t *testing.T) {
	contacts := []models.Contact{
		{ResourceName: "people/1", PrimaryEmail: "alice@example.com"},
		{ResourceName: "people/2", PrimaryPhone: "06 12 34 56 78"},
		{ResourceName: "people/3", PrimaryEmail: "ALICE@example.com"},
		{ResourceName: "people/4", Notes: "orphan"},
		{ResourceName: "people/5", PrimaryPhone: "+33 6 12 34 56 78"},
		{ResourceName: "people/6", Name: "Solo"},
	}

	m := Default().NewMatcher(contacts)
	groups := m.Duplicates()
	require.Len(t, groups, 2)

	assert.Equal(t, IdentityKey("email:alice@example.com"), groups[0].Key)
	assert.Equal(t, "people/1", groups[0].Members[0].ResourceName)
	assert.Equal(t, "people/3", groups[0].Members[1].ResourceName)

	assert.Equal(t, IdentityKey("phone:+33612345678"), groups[1].Key)

	require.Len(t, m.Unmatched(), 1)
	assert.Equal(t, "people/4", m.Unmatched()[0].ResourceName)
	require.Len(t, m.Singles(), 1)
	assert.Equal(t, "people/6", m.Singles()[0].ResourceName)

	match, found := m.FindMatch(&models.Contact{PrimaryEmail: "alice@EXAMPLE.com"})
	require.True(t, found)
	assert.Equal(t, "people/1", match.ResourceName)

	_, found = m.FindMatch(&models.Contact{PrimaryEmail: "bob@example.com"})
	assert.False(t, found)
}

func TestFindMatchAfterGrowth(t *testing.T) {
	m := Default().NewMatcher([]models.Contact{
		{ResourceName: "people/1", PrimaryEmail: "alice@example.com", GivenName: "Alice"},
	})

	match, found := m.FindMatch(&models.Contact{PrimaryEmail: "alice@example.com"})
	require.True(t, found)

	for i := 0; i < 64; i++ {
		m.Add(models.Contact{
			ResourceName: fmt.Sprintf("people/x%d", i),
			PrimaryEmail: "alice@example.com",
		})
		m.Add(models.Contact{
			ResourceName: fmt.Sprintf("people/y%d", i),
			PrimaryEmail: fmt.Sprintf("other%d@example.com", i),
		})
	}

	assert.Equal(t, "people/1", match.ResourceName)
	assert.Equal(t, "Alice", match.GivenName)

	match.GivenName = "Changed"
	again, found := m.FindMatch(&models.Contact{PrimaryEmail: "ALICE@example.com"})
	require.True(t, found)
	assert.Equal(t, "people/1", again.ResourceName)
	assert.Equal(t, "Alice", again.GivenName)

	groups := m.Duplicates()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Members, 65)
}

func TestGroupByIdentity(t *testing.T) {
	groups := GroupByIdentity([]models.Contact{
		{ResourceName: "people/1", PrimaryEmail: "jean@example.com"},
		{ResourceName: "people/2", PrimaryPhone: "06 12 34 56 78"},
		{ResourceName: "people/3", PrimaryEmail: "JEAN@example.com"},
		{ResourceName: "people/4", PrimaryPhone: "+33612345678"},
		{ResourceName: "people/5", PrimaryEmail: "solo@example.com"},
		{ResourceName: "people/6"},
	})
	require.Len(t, groups, 2)

	assert.Equal(t, IdentityKey("email:jean@example.com"), groups[0].Key)
	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, "people/1", groups[0].Members[0].ResourceName)
	assert.Equal(t, "people/3", groups[0].Members[1].ResourceName)

	assert.Equal(t, IdentityKey("phone:+33612345678"), groups[1].Key)
	require.Len(t, groups[1].Members, 2)
	assert.Equal(t, "people/2", groups[1].Members[0].ResourceName)
	assert.Equal(t, "people/4", groups[1].Members[1].ResourceName)

	assert.Empty(t, GroupByIdentity(nil))
}

func TestFoldGroup(t *testing.T) {
	group := Group{
		Key: "email:jean@example.com",
		Members: []models.Contact{
			{
				ResourceName: "people/1",
				PrimaryEmail: "jean@example.com",
				GivenName:    "Jean",
				FamilyName:   "Dupont",
				Emails:       []models.EmailAddress{{Address: "jean@example.com", Label: "work"}},
				Notes:        "Client\n[SYNC] Créé: 2024-01-01",
			},
			{
				ResourceName: "people/2",
				PrimaryEmail: "Jean@Example.com",
				GivenName:    "Jean-Pierre",
				Phones:       []models.PhoneNumber{{Number: "06 12 34 56 78"}},
				Notes:        "Golf",
			},
			{
				ResourceName: "people/3",
				PrimaryEmail: "jean@example.com",
				Phones:       []models.PhoneNumber{{Number: "0612345678"}, {Number: "(206) 555-0101"}},
				Emails:       []models.EmailAddress{{Address: "jp@perso.fr"}},
				URLs:         []models.FieldEntry{{"value": "https://jp.example"}},
			},
		},
	}

	plan := FoldGroup(group)

	assert.Equal(t, "people/1", plan.Survivor.ResourceName)
	require.Len(t, plan.Absorbed, 2)
	assert.Equal(t, "people/2", plan.Absorbed[0].ResourceName)

	names, ok := plan.Directives.Names.Value()
	require.True(t, ok)
	assert.Equal(t, NameValue{GivenName: "Jean-Pierre", FamilyName: "Dupont"}, names)

	phones, ok := plan.Directives.Phones.Value()
	require.True(t, ok)
	assert.Equal(t, []TypedValue{
		{Value: "06 12 34 56 78", Type: "mobile"},
		{Value: "(206) 555-0101", Type: "mobile"},
	}, phones)

	emails, ok := plan.Directives.Emails.Value()
	require.True(t, ok)
	assert.Len(t, emails, 2)

	notes, ok := plan.Directives.Notes.Value()
	require.True(t, ok)
	assert.Equal(t, "Client\n---\nGolf", notes.Value)

	assert.True(t, plan.Directives.URLs.Changed())
	assert.False(t, plan.Directives.Addresses.Changed())

	assert.Equal(t, "Jean-Pierre", plan.Result.GivenName)
	assert.Equal(t, "06 12 34 56 78", plan.Result.PrimaryPhone)
	assert.False(t, plan.ResultIsEmpty())

	// The original survivor is untouched.
	assert.Equal(t, "Jean", group.Members[0].GivenName)
	assert.Empty(t, group.Members[0].Phones)
}

func TestTidy(t *testing.T) {
	c := &models.Contact{
		Notes: "keep\n[SYNC] Fusionné: 2024",
		URLs: []models.FieldEntry{
			{"value": "https://a.example", "type": "blog"},
			{"value": "https://a.example ", "type": "blog", "formattedType": "Blog"},
		},
	}

	d := Default().Tidy(c)

	assert.ElementsMatch(t, []string{FieldNotes, FieldURLs}, d.ChangedFields())
	notes, _ := d.Notes.Value()
	assert.False(t, strings.Contains(notes.Value, "[SYNC]"))

	assert.True(t, Default().Tidy(&models.Contact{Notes: "  plain  "}).IsZero())
}
