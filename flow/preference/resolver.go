package preference

import (
	"fmt"
	"strings"
)

// EmptySummary is the explicit sentinel for a customer with no recorded
// context. It is distinct from an empty string so downstream consumers can
// tell "known customer, no opinions" apart from an unresolved customer.
const EmptySummary = "no preferences recorded"

// Summarize renders entries into the flat text block fed to the classifier.
// Pure and read-only.
func Summarize(entries []Entry) string {
	if len(entries) == 0 {
		return EmptySummary
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Key, e.Value))
	}
	return strings.Join(lines, "\n")
}

// AsMap flattens entries for programmatic lookups by handlers. Later
// duplicates win, though the store's uniqueness constraint means duplicates
// cannot occur in practice.
func AsMap(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}
