// ABOUTME: Conversion between People API persons and merge contacts
// ABOUTME: Maps persons into models.Contact and writes merge directives back onto a person
package sync

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/contactmerge/merge"
	"github.com/harperreed/contactmerge/models"
	"google.golang.org/api/people/v1"
)

// People API update mask entry for each directive field.
var personFieldMask = map[string]string{
	merge.FieldNames:         "names",
	merge.FieldPhones:        "phoneNumbers",
	merge.FieldEmails:        "emailAddresses",
	merge.FieldAddresses:     "addresses",
	merge.FieldOrganizations: "organizations",
	merge.FieldNotes:         "biographies",
	merge.FieldURLs:          "urls",
	merge.FieldUserDefined:   "userDefined",
}

func isPrimary(m *people.FieldMetadata) bool {
	return m != nil && m.Primary
}

// ContactFromPerson converts a People API Person to a Contact. Primary
// values prefer the entry flagged primary, otherwise the first non-empty one.
func ContactFromPerson(person *people.Person) models.Contact {
	c := models.Contact{
		ResourceName: person.ResourceName,
		ETag:         person.Etag,
	}

	for i, name := range person.Names {
		if i == 0 || isPrimary(name.Metadata) {
			c.Name = name.DisplayName
			c.GivenName = name.GivenName
			c.FamilyName = name.FamilyName
		}
		if isPrimary(name.Metadata) {
			break
		}
	}

	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		c.Emails = append(c.Emails, models.EmailAddress{Address: email.Value, Label: email.Type})
		if c.PrimaryEmail == "" || isPrimary(email.Metadata) {
			c.PrimaryEmail = email.Value
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		c.Phones = append(c.Phones, models.PhoneNumber{Number: phone.Value, Label: phone.Type})
		if c.PrimaryPhone == "" || isPrimary(phone.Metadata) {
			c.PrimaryPhone = phone.Value
		}
	}

	for _, addr := range person.Addresses {
		formatted := formatAddress(addr)
		if formatted == "" {
			continue
		}
		c.Addresses = append(c.Addresses, models.PostalAddress{Address: formatted, PostalCode: addr.PostalCode})
		if c.PrimaryAddress == "" || isPrimary(addr.Metadata) {
			c.PrimaryAddress = formatted
		}
	}

	for _, org := range person.Organizations {
		if org.Name == "" && org.Title == "" {
			continue
		}
		c.Organizations = append(c.Organizations, models.Organization{Name: org.Name, Title: org.Title})
		if org.Name != "" && (c.OrganizationName == "" || isPrimary(org.Metadata)) {
			c.OrganizationName = org.Name
		}
	}

	if len(person.Biographies) > 0 {
		c.Notes = person.Biographies[0].Value
	}

	for _, photo := range person.Photos {
		if !photo.Default && photo.Url != "" {
			c.PhotoURL = photo.Url
			break
		}
	}

	c.URLs = toEntries(person.Urls)
	c.UserDefined = toEntries(person.UserDefined)

	return c
}

// formatAddress prefers the server-formatted value and falls back to the
// structured parts.
func formatAddress(addr *people.Address) string {
	if v := strings.TrimSpace(addr.FormattedValue); v != "" {
		return v
	}
	parts := []string{addr.StreetAddress, addr.ExtendedAddress, addr.PostalCode, addr.City, addr.Country}
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func toEntries[T any](items []T) []models.FieldEntry {
	if len(items) == 0 {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	var entries []models.FieldEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

func fromEntries[T any](entries []models.FieldEntry) ([]T, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyPlan writes every changed directive into a copy of person and
// returns it along with the updatePersonFields mask. Existing addresses and
// organizations that survive the merge keep their structured parts.
func ApplyPlan(person *people.Person, d merge.Directives) (*people.Person, []string, error) {
	out := *person
	var mask []string
	for _, field := range d.ChangedFields() {
		mask = append(mask, personFieldMask[field])
	}

	if v, ok := d.Names.Value(); ok {
		name := &people.Name{}
		if len(person.Names) > 0 {
			cp := *person.Names[0]
			name = &cp
		}
		name.GivenName = v.GivenName
		name.FamilyName = v.FamilyName
		name.DisplayName = ""
		name.DisplayNameLastFirst = ""
		name.UnstructuredName = ""
		out.Names = []*people.Name{name}
	}

	if v, ok := d.Phones.Value(); ok {
		out.PhoneNumbers = make([]*people.PhoneNumber, len(v))
		for i, p := range v {
			out.PhoneNumbers[i] = &people.PhoneNumber{Value: p.Value, Type: p.Type}
		}
	}

	if v, ok := d.Emails.Value(); ok {
		out.EmailAddresses = make([]*people.EmailAddress, len(v))
		for i, e := range v {
			out.EmailAddresses[i] = &people.EmailAddress{Value: e.Value, Type: e.Type}
		}
	}

	if v, ok := d.Addresses.Value(); ok {
		existing := make(map[string]*people.Address)
		for _, addr := range person.Addresses {
			existing[formatAddress(addr)] = addr
		}
		out.Addresses = make([]*people.Address, len(v))
		for i, a := range v {
			if addr, found := existing[a.Address]; found {
				out.Addresses[i] = addr
				continue
			}
			out.Addresses[i] = &people.Address{FormattedValue: a.Address, PostalCode: a.PostalCode}
		}
	}

	if v, ok := d.Organizations.Value(); ok {
		existing := make(map[string]*people.Organization)
		for _, org := range person.Organizations {
			existing[org.Name+"\x00"+org.Title] = org
		}
		out.Organizations = make([]*people.Organization, len(v))
		for i, o := range v {
			if org, found := existing[o.Name+"\x00"+o.Title]; found {
				out.Organizations[i] = org
				continue
			}
			out.Organizations[i] = &people.Organization{Name: o.Name, Title: o.Title}
		}
	}

	if v, ok := d.Notes.Value(); ok {
		out.Biographies = nil
		if v.Value != "" {
			out.Biographies = []*people.Biography{{Value: v.Value, ContentType: v.ContentType}}
		}
	}

	if v, ok := d.URLs.Value(); ok {
		urls, err := fromEntries[*people.Url](v)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert urls: %w", err)
		}
		out.Urls = urls
	}

	if v, ok := d.UserDefined.Value(); ok {
		custom, err := fromEntries[*people.UserDefined](v)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert custom fields: %w", err)
		}
		out.UserDefined = custom
	}

	return &out, mask, nil
}
