package operator

import "strings"

// NormalizePhone strips all whitespace and one leading + so numbers match
// the operator dataset, which stores digits only ("2347010000345").
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f', ' ':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimPrefix(b.String(), "+")
}
