// ABOUTME: Per-field mergers combining a destination and a source contact
// ABOUTME: Each merger appends only what is missing and never mutates its inputs
package merge

import (
	"strings"
	"unicode/utf8"

	"github.com/harperreed/contactmerge/models"
)

// MergeNames keeps the longer given name and the longer family name,
// independently. Ties keep the destination.
func (e *Engine) MergeNames(dst, src *models.Contact) Directive[NameValue] {
	given, family := dst.GivenName, dst.FamilyName
	changed := false

	if utf8.RuneCountInString(src.GivenName) > utf8.RuneCountInString(given) {
		given = src.GivenName
		changed = true
	}
	if utf8.RuneCountInString(src.FamilyName) > utf8.RuneCountInString(family) {
		family = src.FamilyName
		changed = true
	}

	if !changed {
		return Unchanged[NameValue]()
	}
	return Replace(NameValue{GivenName: given, FamilyName: family})
}

// MergePhones appends source numbers whose normalized form the destination
// lacks. Numbers that do not normalize are ignored.
func (e *Engine) MergePhones(dst, src *models.Contact) Directive[[]TypedValue] {
	if len(src.Phones) == 0 {
		return Unchanged[[]TypedValue]()
	}

	seen := make(map[string]struct{}, len(dst.Phones)+len(src.Phones))
	out := make([]TypedValue, 0, len(dst.Phones)+len(src.Phones))
	for _, p := range dst.Phones {
		if normalized, ok := e.NormalizePhone(p.Number); ok {
			seen[normalized] = struct{}{}
		}
		out = append(out, TypedValue{Value: p.Number, Type: labelOr(p.Label, e.rules.PhoneLabel)})
	}

	added := 0
	for _, p := range src.Phones {
		normalized, ok := e.NormalizePhone(p.Number)
		if !ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, TypedValue{Value: p.Number, Type: e.rules.PhoneLabel})
		added++
	}

	if added == 0 {
		return Unchanged[[]TypedValue]()
	}
	return Replace(out)
}

// MergeEmails appends source addresses not already present, compared
// case-insensitively. Blank addresses are never added.
func (e *Engine) MergeEmails(dst, src *models.Contact) Directive[[]TypedValue] {
	if len(src.Emails) == 0 {
		return Unchanged[[]TypedValue]()
	}

	seen := make(map[string]struct{}, len(dst.Emails)+len(src.Emails))
	out := make([]TypedValue, 0, len(dst.Emails)+len(src.Emails))
	for _, em := range dst.Emails {
		seen[strings.ToLower(em.Address)] = struct{}{}
		out = append(out, TypedValue{Value: em.Address, Type: labelOr(em.Label, e.rules.EmailLabel)})
	}

	added := 0
	for _, em := range src.Emails {
		if strings.TrimSpace(em.Address) == "" {
			continue
		}
		key := strings.ToLower(em.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, TypedValue{Value: em.Address, Type: e.rules.EmailLabel})
		added++
	}

	if added == 0 {
		return Unchanged[[]TypedValue]()
	}
	return Replace(out)
}

type normalizedAddress struct {
	normalized string
	postalCode string
}

// sameAddress is the duplicate test for addresses: equal normal forms, or a
// shared postal code plus the source containing the destination's first
// token. The second rule is a loose street heuristic and can misfire on
// generic first tokens such as house numbers.
func sameAddress(existing, candidate normalizedAddress) bool {
	if existing.normalized != "" && candidate.normalized != "" &&
		existing.normalized == candidate.normalized {
		return true
	}

	if candidate.postalCode == "" || existing.postalCode == "" ||
		candidate.postalCode != existing.postalCode {
		return false
	}
	if candidate.normalized == "" || existing.normalized == "" {
		return false
	}

	firstToken, _, _ := strings.Cut(existing.normalized, " ")
	return strings.Contains(candidate.normalized, firstToken)
}

// MergeAddresses appends source addresses that are not duplicates of an
// address already on the destination.
func (e *Engine) MergeAddresses(dst, src *models.Contact) Directive[[]models.PostalAddress] {
	if len(src.Addresses) == 0 {
		return Unchanged[[]models.PostalAddress]()
	}

	known := make([]normalizedAddress, 0, len(dst.Addresses)+len(src.Addresses))
	for _, a := range dst.Addresses {
		known = append(known, e.normalizeEntry(a))
	}

	out := append([]models.PostalAddress(nil), dst.Addresses...)
	added := 0
	for _, a := range src.Addresses {
		if strings.TrimSpace(a.Address) == "" {
			continue
		}
		candidate := e.normalizeEntry(a)

		duplicate := false
		for _, existing := range known {
			if sameAddress(existing, candidate) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		known = append(known, candidate)
		out = append(out, a)
		added++
	}

	if added == 0 {
		return Unchanged[[]models.PostalAddress]()
	}
	return Replace(out)
}

func (e *Engine) normalizeEntry(a models.PostalAddress) normalizedAddress {
	return normalizedAddress{
		normalized: e.NormalizeAddress(a.Address),
		postalCode: strings.TrimSpace(a.PostalCode),
	}
}

// MergeOrganizations appends source organizations whose name is not already
// present, compared case-insensitively after trimming. Unnamed entries are
// skipped.
func (e *Engine) MergeOrganizations(dst, src *models.Contact) Directive[[]models.Organization] {
	if len(src.Organizations) == 0 {
		return Unchanged[[]models.Organization]()
	}

	seen := make(map[string]struct{}, len(dst.Organizations)+len(src.Organizations))
	for _, o := range dst.Organizations {
		seen[normalizeText(o.Name)] = struct{}{}
	}

	out := append([]models.Organization(nil), dst.Organizations...)
	added := 0
	for _, o := range src.Organizations {
		name := normalizeText(o.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, o)
		added++
	}

	if added == 0 {
		return Unchanged[[]models.Organization]()
	}
	return Replace(out)
}

// CleanNotes removes sync marker lines and surrounding whitespace.
func (e *Engine) CleanNotes(notes string) string {
	return strings.TrimSpace(e.rules.SyncMarker.ReplaceAllString(notes, ""))
}

// MergeNotes strips sync markers from both sides, then appends the source
// note under a separator unless the destination already contains it. Markers
// present on the destination force a rewrite on their own.
func (e *Engine) MergeNotes(dst, src *models.Contact) Directive[NoteValue] {
	dstClean := e.CleanNotes(dst.Notes)
	srcClean := e.CleanNotes(src.Notes)

	dstDirty := dstClean != strings.TrimSpace(dst.Notes)
	srcNew := srcClean != "" && !strings.Contains(dstClean, srcClean)

	if !dstDirty && !srcNew {
		return Unchanged[NoteValue]()
	}

	notes := dstClean
	if srcNew {
		if notes != "" {
			notes += "\n" + e.rules.NoteSeparator + "\n" + srcClean
		} else {
			notes = srcClean
		}
	}

	return Replace(NoteValue{Value: notes, ContentType: ContentTypePlain})
}

// Merge runs every field merger in the fixed order names, phones, emails,
// addresses, organizations, notes, then the generic url and custom-field
// lists.
func (e *Engine) Merge(dst, src *models.Contact) Directives {
	return Directives{
		Names:         e.MergeNames(dst, src),
		Phones:        e.MergePhones(dst, src),
		Emails:        e.MergeEmails(dst, src),
		Addresses:     e.MergeAddresses(dst, src),
		Organizations: e.MergeOrganizations(dst, src),
		Notes:         e.MergeNotes(dst, src),
		URLs:          e.MergeFieldEntries(dst.URLs, src.URLs),
		UserDefined:   e.MergeFieldEntries(dst.UserDefined, src.UserDefined),
	}
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) == "" {
		return fallback
	}
	return label
}

// Package-level mergers using the default engine.

func MergeNames(dst, src *models.Contact) Directive[NameValue] {
	return defaultEngine.MergeNames(dst, src)
}

func MergePhones(dst, src *models.Contact) Directive[[]TypedValue] {
	return defaultEngine.MergePhones(dst, src)
}

func MergeEmails(dst, src *models.Contact) Directive[[]TypedValue] {
	return defaultEngine.MergeEmails(dst, src)
}

func MergeAddresses(dst, src *models.Contact) Directive[[]models.PostalAddress] {
	return defaultEngine.MergeAddresses(dst, src)
}

func MergeOrganizations(dst, src *models.Contact) Directive[[]models.Organization] {
	return defaultEngine.MergeOrganizations(dst, src)
}

func MergeNotes(dst, src *models.Contact) Directive[NoteValue] {
	return defaultEngine.MergeNotes(dst, src)
}
