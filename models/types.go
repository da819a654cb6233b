// ABOUTME: Data models for directory contacts
// ABOUTME: Defines Contact and its list entries (emails, phones, addresses, organizations)
package models

import "strings"

type Contact struct {
	// ResourceName and ETag identify the record in the directory; the merge
	// engine never reads them.
	ResourceName string `json:"resource_name,omitempty"`
	ETag         string `json:"etag,omitempty"`

	Name             string `json:"name,omitempty"`
	GivenName        string `json:"given_name,omitempty"`
	FamilyName       string `json:"family_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	PrimaryEmail     string `json:"primary_email,omitempty"`
	PrimaryPhone     string `json:"primary_phone,omitempty"`
	PrimaryAddress   string `json:"primary_address,omitempty"`
	Notes            string `json:"notes,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`

	Emails        []EmailAddress  `json:"emails,omitempty"`
	Phones        []PhoneNumber   `json:"phones,omitempty"`
	Addresses     []PostalAddress `json:"addresses,omitempty"`
	Organizations []Organization  `json:"organizations,omitempty"`

	URLs        []FieldEntry `json:"urls,omitempty"`
	UserDefined []FieldEntry `json:"user_defined,omitempty"`
}

type EmailAddress struct {
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
}

type PhoneNumber struct {
	Number string `json:"number"`
	Label  string `json:"label,omitempty"`
}

type PostalAddress struct {
	Address    string `json:"address"`
	PostalCode string `json:"postal_code,omitempty"`
}

type Organization struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// FieldEntry is a loosely typed list entry (url, custom field) as the
// directory returns it: attribute name to value.
type FieldEntry map[string]any

// DisplayName returns the best label for logs and UIs.
func (c *Contact) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if full := strings.TrimSpace(c.GivenName + " " + c.FamilyName); full != "" {
		return full
	}
	if c.PrimaryEmail != "" {
		return c.PrimaryEmail
	}
	if c.OrganizationName != "" {
		return c.OrganizationName
	}
	return c.ResourceName
}

// Clone returns a deep copy so callers can fold changes into it without
// aliasing the original slices.
func (c Contact) Clone() Contact {
	out := c
	out.Emails = append([]EmailAddress(nil), c.Emails...)
	out.Phones = append([]PhoneNumber(nil), c.Phones...)
	out.Addresses = append([]PostalAddress(nil), c.Addresses...)
	out.Organizations = append([]Organization(nil), c.Organizations...)
	out.URLs = cloneEntries(c.URLs)
	out.UserDefined = cloneEntries(c.UserDefined)
	return out
}

func cloneEntries(entries []FieldEntry) []FieldEntry {
	if entries == nil {
		return nil
	}
	out := make([]FieldEntry, len(entries))
	for i, e := range entries {
		cp := make(FieldEntry, len(e))
		for k, v := range e {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// Merge run status constants.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
	RunStatusAborted  = "aborted"
)
