// ABOUTME: Emptiness predicate for contacts
// ABOUTME: Writers delete contacts left with no meaningful content
package merge

import (
	"strings"

	"github.com/harperreed/contactmerge/models"
)

// IsEmpty reports whether c carries nothing worth keeping: all text fields
// blank, no photo, and no emails, phones or addresses.
func IsEmpty(c *models.Contact) bool {
	if c == nil {
		return true
	}

	for _, s := range []string{
		c.Name,
		c.GivenName,
		c.FamilyName,
		c.OrganizationName,
		c.PrimaryEmail,
		c.PrimaryPhone,
		c.PrimaryAddress,
		c.Notes,
	} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}

	if c.PhotoURL != "" {
		return false
	}

	return len(c.Emails) == 0 && len(c.Phones) == 0 && len(c.Addresses) == 0
}
