// ABOUTME: Merge directive types returned by the field mergers
// ABOUTME: A directive is either unchanged or carries a replacement value
package merge

import (
	"encoding/json"

	"github.com/harperreed/contactmerge/models"
)

// Directive is the outcome of merging one field: either no change, or a
// full replacement value for the destination field.
type Directive[T any] struct {
	value   T
	changed bool
}

// Unchanged is the no-op directive.
func Unchanged[T any]() Directive[T] {
	return Directive[T]{}
}

// Replace wraps a replacement value.
func Replace[T any](v T) Directive[T] {
	return Directive[T]{value: v, changed: true}
}

// Changed reports whether the directive carries a replacement.
func (d Directive[T]) Changed() bool {
	return d.changed
}

// Value returns the replacement and whether there is one.
func (d Directive[T]) Value() (T, bool) {
	return d.value, d.changed
}

// MarshalJSON renders an unchanged directive as null.
func (d Directive[T]) MarshalJSON() ([]byte, error) {
	if !d.changed {
		return []byte("null"), nil
	}
	return json.Marshal(d.value)
}

// NameValue is the replacement shape for the name field.
type NameValue struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// TypedValue is the replacement shape for phone and email entries.
type TypedValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// NoteValue is the replacement shape for the notes field.
type NoteValue struct {
	Value       string `json:"value"`
	ContentType string `json:"contentType"`
}

// ContentTypePlain is the only note content type emitted.
const ContentTypePlain = "TEXT_PLAIN"

// Field names reported by Directives.ChangedFields.
const (
	FieldNames         = "names"
	FieldPhones        = "phones"
	FieldEmails        = "emails"
	FieldAddresses     = "addresses"
	FieldOrganizations = "organizations"
	FieldNotes         = "notes"
	FieldURLs          = "urls"
	FieldUserDefined   = "userDefined"
)

// Directives is the full set of per-field directives for one destination.
type Directives struct {
	Names         Directive[NameValue]              `json:"names"`
	Phones        Directive[[]TypedValue]           `json:"phones"`
	Emails        Directive[[]TypedValue]           `json:"emails"`
	Addresses     Directive[[]models.PostalAddress] `json:"addresses"`
	Organizations Directive[[]models.Organization]  `json:"organizations"`
	Notes         Directive[NoteValue]              `json:"notes"`
	URLs          Directive[[]models.FieldEntry]    `json:"urls"`
	UserDefined   Directive[[]models.FieldEntry]    `json:"userDefined"`
}

// ChangedFields lists the fields carrying a replacement, in merge order.
func (d Directives) ChangedFields() []string {
	var fields []string
	add := func(changed bool, name string) {
		if changed {
			fields = append(fields, name)
		}
	}
	add(d.Names.Changed(), FieldNames)
	add(d.Phones.Changed(), FieldPhones)
	add(d.Emails.Changed(), FieldEmails)
	add(d.Addresses.Changed(), FieldAddresses)
	add(d.Organizations.Changed(), FieldOrganizations)
	add(d.Notes.Changed(), FieldNotes)
	add(d.URLs.Changed(), FieldURLs)
	add(d.UserDefined.Changed(), FieldUserDefined)
	return fields
}

// IsZero reports whether no field changes.
func (d Directives) IsZero() bool {
	return len(d.ChangedFields()) == 0
}

// Apply returns a copy of c with every replacement written in. c itself is
// left untouched.
func (d Directives) Apply(c models.Contact) models.Contact {
	out := c.Clone()

	if v, ok := d.Names.Value(); ok {
		out.GivenName = v.GivenName
		out.FamilyName = v.FamilyName
	}

	if v, ok := d.Phones.Value(); ok {
		out.Phones = make([]models.PhoneNumber, len(v))
		for i, p := range v {
			out.Phones[i] = models.PhoneNumber{Number: p.Value, Label: p.Type}
		}
		if out.PrimaryPhone == "" && len(out.Phones) > 0 {
			out.PrimaryPhone = out.Phones[0].Number
		}
	}

	if v, ok := d.Emails.Value(); ok {
		out.Emails = make([]models.EmailAddress, len(v))
		for i, e := range v {
			out.Emails[i] = models.EmailAddress{Address: e.Value, Label: e.Type}
		}
		if out.PrimaryEmail == "" && len(out.Emails) > 0 {
			out.PrimaryEmail = out.Emails[0].Address
		}
	}

	if v, ok := d.Addresses.Value(); ok {
		out.Addresses = append([]models.PostalAddress(nil), v...)
		if out.PrimaryAddress == "" && len(out.Addresses) > 0 {
			out.PrimaryAddress = out.Addresses[0].Address
		}
	}

	if v, ok := d.Organizations.Value(); ok {
		out.Organizations = append([]models.Organization(nil), v...)
		if out.OrganizationName == "" && len(out.Organizations) > 0 {
			out.OrganizationName = out.Organizations[0].Name
		}
	}

	if v, ok := d.Notes.Value(); ok {
		out.Notes = v.Value
	}

	if v, ok := d.URLs.Value(); ok {
		out.URLs = v
	}

	if v, ok := d.UserDefined.Value(); ok {
		out.UserDefined = v
	}

	return out
}
