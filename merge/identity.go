// ABOUTME: Identity key derivation for contact grouping
// ABOUTME: Picks email, then phone, then name, then organization as the fingerprint
package merge

import (
	"strings"

	"github.com/harperreed/contactmerge/models"
)

// IdentityKey is a "<kind>:<value>" fingerprint shared by contacts presumed
// to be the same person.
type IdentityKey string

// Identity key kinds, in precedence order.
const (
	KindEmail = "email"
	KindPhone = "phone"
	KindName  = "name"
	KindOrg   = "org"
)

func newKey(kind, value string) IdentityKey {
	return IdentityKey(kind + ":" + value)
}

// Kind returns the part before the first colon.
func (k IdentityKey) Kind() string {
	kind, _, _ := strings.Cut(string(k), ":")
	return kind
}

// Value returns the part after the first colon.
func (k IdentityKey) Value() string {
	_, value, _ := strings.Cut(string(k), ":")
	return value
}

func (k IdentityKey) String() string {
	return string(k)
}

// IdentityKeyFor derives the fingerprint of c. ok is false when c has no
// identifying field; such contacts are never merged.
func (e *Engine) IdentityKeyFor(c *models.Contact) (IdentityKey, bool) {
	if c == nil {
		return "", false
	}

	if email := normalizeText(c.PrimaryEmail); email != "" {
		return newKey(KindEmail, email), true
	}

	if strings.TrimSpace(c.PrimaryPhone) != "" {
		if phone, ok := e.NormalizePhone(c.PrimaryPhone); ok {
			return newKey(KindPhone, phone), true
		}
	}

	if name := normalizeText(c.Name); name != "" {
		return newKey(KindName, name), true
	}

	if org := normalizeText(c.OrganizationName); org != "" {
		return newKey(KindOrg, org), true
	}

	return "", false
}

// IdentityKeyFor derives the fingerprint of c with the default engine.
func IdentityKeyFor(c *models.Contact) (IdentityKey, bool) {
	return defaultEngine.IdentityKeyFor(c)
}
