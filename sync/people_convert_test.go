package sync

import (
	"testing"

	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"
)

func TestContactFromPerson(t *testing.T) {
	person := &people.Person{
		ResourceName: "people/c42",
		Etag:         "etag42",
		Names: []*people.Name{
			{DisplayName: "J. Doe", GivenName: "J", FamilyName: "Doe"},
			{DisplayName: "John Doe", GivenName: "John", FamilyName: "Doe", Metadata: &people.FieldMetadata{Primary: true}},
		},
		EmailAddresses: []*people.EmailAddress{
			{Value: "old@example.com", Type: "home"},
			{Value: ""},
			{Value: "john@example.com", Type: "work", Metadata: &people.FieldMetadata{Primary: true}},
		},
		PhoneNumbers: []*people.PhoneNumber{
			{Value: "06 12 34 56 78", Type: "mobile"},
		},
		Addresses: []*people.Address{
			{FormattedValue: "12 rue de la Paix\n75002 Paris", PostalCode: "75002"},
			{StreetAddress: "3 avenue Foch", PostalCode: "69006", City: "Lyon"},
		},
		Organizations: []*people.Organization{
			{Title: "Freelance"},
			{Name: "Acme", Title: "CTO"},
		},
		Biographies: []*people.Biography{{Value: "Met in Lyon"}},
		Photos: []*people.Photo{
			{Url: "https://example.com/default.png", Default: true},
			{Url: "https://example.com/john.png"},
		},
		Urls: []*people.Url{{Value: "https://john.example.com", Type: "blog"}},
		UserDefined: []*people.UserDefined{
			{Key: "badge", Value: "42"},
		},
	}

	c := ContactFromPerson(person)

	assert.Equal(t, "people/c42", c.ResourceName)
	assert.Equal(t, "etag42", c.ETag)
	assert.Equal(t, "John Doe", c.Name)
	assert.Equal(t, "John", c.GivenName)
	assert.Equal(t, "john@example.com", c.PrimaryEmail)
	assert.Len(t, c.Emails, 2)
	assert.Equal(t, "06 12 34 56 78", c.PrimaryPhone)
	require.Len(t, c.Addresses, 2)
	assert.Equal(t, "12 rue de la Paix\n75002 Paris", c.PrimaryAddress)
	assert.Equal(t, "3 avenue Foch 69006 Lyon", c.Addresses[1].Address)
	assert.Equal(t, "Acme", c.OrganizationName)
	assert.Len(t, c.Organizations, 2)
	assert.Equal(t, "Met in Lyon", c.Notes)
	assert.Equal(t, "https://example.com/john.png", c.PhotoURL)

	require.Len(t, c.URLs, 1)
	assert.Equal(t, "https://john.example.com", c.URLs[0]["value"])
	assert.Equal(t, "blog", c.URLs[0]["type"])
	require.Len(t, c.UserDefined, 1)
	assert.Equal(t, "badge", c.UserDefined[0]["key"])
}

func TestApplyPlan(t *testing.T) {
	person := &people.Person{
		ResourceName: "people/c1",
		Etag:         "etag1",
		Names:        []*people.Name{{DisplayName: "Jean", GivenName: "Jean", MiddleName: "Paul"}},
		Addresses: []*people.Address{
			{FormattedValue: "12 rue de la Paix", StreetAddress: "12 rue de la Paix", City: "Paris"},
		},
		Biographies: []*people.Biography{{Value: "old"}},
	}

	directives := merge.Directives{
		Names:  merge.Replace(merge.NameValue{GivenName: "Jean", FamilyName: "Dupont"}),
		Phones: merge.Replace([]merge.TypedValue{{Value: "+33612345678", Type: "mobile"}}),
		Addresses: merge.Replace([]models.PostalAddress{
			{Address: "12 rue de la Paix"},
			{Address: "3 avenue Foch", PostalCode: "69006"},
		}),
		Notes: merge.Replace(merge.NoteValue{Value: "old\n---\nnew", ContentType: merge.ContentTypePlain}),
		URLs: merge.Replace([]models.FieldEntry{
			{"value": "https://example.com", "type": "home"},
		}),
	}

	updated, mask, err := ApplyPlan(person, directives)
	require.NoError(t, err)

	assert.Equal(t, []string{"names", "phoneNumbers", "addresses", "biographies", "urls"}, mask)
	assert.Equal(t, "etag1", updated.Etag)

	require.Len(t, updated.Names, 1)
	assert.Equal(t, "Dupont", updated.Names[0].FamilyName)
	assert.Equal(t, "Paul", updated.Names[0].MiddleName)
	assert.Empty(t, updated.Names[0].DisplayName)

	require.Len(t, updated.PhoneNumbers, 1)
	assert.Equal(t, "+33612345678", updated.PhoneNumbers[0].Value)

	require.Len(t, updated.Addresses, 2)
	assert.Equal(t, "Paris", updated.Addresses[0].City, "existing address keeps its structure")
	assert.Equal(t, "69006", updated.Addresses[1].PostalCode)

	require.Len(t, updated.Biographies, 1)
	assert.Equal(t, merge.ContentTypePlain, updated.Biographies[0].ContentType)

	require.Len(t, updated.Urls, 1)
	assert.Equal(t, "https://example.com", updated.Urls[0].Value)

	// The input person is left alone.
	assert.Equal(t, "old", person.Biographies[0].Value)
	assert.Equal(t, "Jean", person.Names[0].DisplayName)
}

func TestApplyPlanNoChanges(t *testing.T) {
	person := &people.Person{ResourceName: "people/c1"}

	updated, mask, err := ApplyPlan(person, merge.Directives{})
	require.NoError(t, err)
	assert.Empty(t, mask)
	assert.Equal(t, person.ResourceName, updated.ResourceName)
}
