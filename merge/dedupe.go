// ABOUTME: Generic deduplication of loosely typed list entries
// ABOUTME: Compares entries by a canonical key that ignores volatile metadata
package merge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/contactmerge/models"
)

// metadataAttribute is dropped from every entry that survives deduplication.
const metadataAttribute = "metadata"

// CanonicalKey serializes entry without its volatile attributes, with string
// values trimmed. encoding/json writes map keys in sorted order, so the key
// is deterministic.
func (e *Engine) CanonicalKey(entry models.FieldEntry) string {
	cleaned := make(map[string]any, len(entry))
	for k, v := range entry {
		if _, volatile := e.volatileKeys[k]; volatile {
			continue
		}
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		cleaned[k] = v
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		// Unserializable values (channels, funcs) never come from the
		// directory; fall back to fmt so the key stays stable.
		return fmt.Sprintf("%v", cleaned)
	}
	return string(data)
}

// DedupeFields keeps the first entry for each canonical key, in order.
// Returns Unchanged when nothing was dropped.
func (e *Engine) DedupeFields(entries []models.FieldEntry) Directive[[]models.FieldEntry] {
	if len(entries) == 0 {
		return Unchanged[[]models.FieldEntry]()
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]models.FieldEntry, 0, len(entries))
	for _, entry := range entries {
		key := e.CanonicalKey(entry)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, withoutMetadata(entry))
	}

	if len(out) == len(entries) {
		return Unchanged[[]models.FieldEntry]()
	}
	return Replace(out)
}

// MergeFieldEntries folds src into dst and deduplicates the result. Returns
// Unchanged when every source entry was already present on dst.
func (e *Engine) MergeFieldEntries(dst, src []models.FieldEntry) Directive[[]models.FieldEntry] {
	if len(src) == 0 {
		return e.DedupeFields(dst)
	}

	combined := make([]models.FieldEntry, 0, len(dst)+len(src))
	combined = append(combined, dst...)
	combined = append(combined, src...)

	deduped, ok := e.DedupeFields(combined).Value()
	if !ok {
		return Replace(combined)
	}

	// dst without internal duplicates keeps all of its entries; if nothing
	// else survived, no source entry was new.
	if len(deduped) == len(dst) && !e.DedupeFields(dst).Changed() {
		return Unchanged[[]models.FieldEntry]()
	}
	return Replace(deduped)
}

func withoutMetadata(entry models.FieldEntry) models.FieldEntry {
	out := make(models.FieldEntry, len(entry))
	for k, v := range entry {
		if k == metadataAttribute {
			continue
		}
		out[k] = v
	}
	return out
}

// DedupeFields deduplicates entries with the default engine.
func DedupeFields(entries []models.FieldEntry) Directive[[]models.FieldEntry] {
	return defaultEngine.DedupeFields(entries)
}
