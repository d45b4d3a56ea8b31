package usecase

import "strings"

// Canonicalize returns the comparable form of a raw skill name: lower-cased
// and trimmed. No further normalization (no plural folding, no punctuation
// stripping).
func Canonicalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CollectSkillNames unions the selected option values with the
// comma-separated free-text input, canonicalizes every entry, drops
// entries that are empty after trimming and dedupes the rest preserving
// first-seen order.
func CollectSkillNames(selected []string, newSkillsText string) []string {
	raw := make([]string, 0, len(selected))
	raw = append(raw, selected...)
	if strings.TrimSpace(newSkillsText) != "" {
		raw = append(raw, strings.Split(newSkillsText, ",")...)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		key := Canonicalize(r)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
