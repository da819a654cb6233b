// ABOUTME: Contact grouping by identity key
// ABOUTME: Collects contacts sharing a fingerprint so each group can be folded into one survivor
package merge

import (
	"github.com/harperreed/contactmerge/models"
)

// Group is a set of contacts sharing one identity key. Members keep the
// order they were added in; the first member is the survivor.
type Group struct {
	Key     IdentityKey
	Members []models.Contact
}

// Matcher indexes contacts by identity key.
type Matcher struct {
	engine    *Engine
	byKey     map[IdentityKey]int
	groups    []Group
	unmatched []models.Contact
}

// NewMatcher creates a matcher preloaded with contacts.
func (e *Engine) NewMatcher(contacts []models.Contact) *Matcher {
	m := &Matcher{
		engine: e,
		byKey:  make(map[IdentityKey]int),
	}

	for i := range contacts {
		m.Add(contacts[i])
	}

	return m
}

// Add places contact in its group, or in the unmatched set when it has no
// identity key.
func (m *Matcher) Add(contact models.Contact) {
	key, ok := m.engine.IdentityKeyFor(&contact)
	if !ok {
		m.unmatched = append(m.unmatched, contact)
		return
	}

	if idx, found := m.byKey[key]; found {
		m.groups[idx].Members = append(m.groups[idx].Members, contact)
		return
	}

	m.byKey[key] = len(m.groups)
	m.groups = append(m.groups, Group{Key: key, Members: []models.Contact{contact}})
}

// FindMatch returns a copy of the survivor already indexed under contact's
// key.
func (m *Matcher) FindMatch(contact *models.Contact) (models.Contact, bool) {
	key, ok := m.engine.IdentityKeyFor(contact)
	if !ok {
		return models.Contact{}, false
	}

	idx, found := m.byKey[key]
	if !found {
		return models.Contact{}, false
	}
	return m.groups[idx].Members[0], true
}

// Duplicates returns groups with at least two members, in first-seen order.
func (m *Matcher) Duplicates() []Group {
	var out []Group
	for _, g := range m.groups {
		if len(g.Members) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// Singles returns contacts that have a key but no duplicate.
func (m *Matcher) Singles() []models.Contact {
	var out []models.Contact
	for _, g := range m.groups {
		if len(g.Members) == 1 {
			out = append(out, g.Members[0])
		}
	}
	return out
}

// Unmatched returns contacts without an identity key.
func (m *Matcher) Unmatched() []models.Contact {
	return m.unmatched
}

// GroupByIdentity groups contacts with the default engine and returns only
// the groups that need merging.
func GroupByIdentity(contacts []models.Contact) []Group {
	return defaultEngine.NewMatcher(contacts).Duplicates()
}
