package util

import "strings"

var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// SanitizeInput trims s and escapes angle brackets.
func SanitizeInput(s string) string {
	return angleEscaper.Replace(strings.TrimSpace(s))
}

// SanitizeStrings applies SanitizeInput to every element and drops empty results.
func SanitizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if cleaned := SanitizeInput(value); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// SanitizeMap sanitises string values recursively through nested maps and slices.
func SanitizeMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}

	out := make(map[string]any, len(values))
	for key, value := range values {
		out[SanitizeInput(key)] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		return SanitizeInput(v)
	case map[string]any:
		return SanitizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}

// Slugify lowercases name, replaces & with "and" and whitespace runs with dashes.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, "&", "and")
	return strings.Join(strings.Fields(slug), "-")
}
