package pipeline

import (
	"regexp"
	"strings"
)

// kvKeys are the printed labels recognised at the start of a free-text line.
var kvKeys = []string{
	"phone no", "mobile", "gst no", "d.l no", "invoice no",
	"prep by", "amount in words", "net payable", "sub total",
	"discount", "tax", "gst", "total", "balance",
}

var (
	kvLine      = regexp.MustCompile(`^([^:]+):\s*(.+)$`)
	timeOfDay   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	whitespace  = regexp.MustCompile(`\s+`)
	nonSnake    = regexp.MustCompile(`[^a-z0-9_]`)
	underscores = regexp.MustCompile(`_+`)
)

// ToSnakeCase lowercases s, turns whitespace runs into underscores and drops
// anything outside [a-z0-9_].
func ToSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = whitespace.ReplaceAllString(s, "_")
	s = nonSnake.ReplaceAllString(s, "")
	return underscores.ReplaceAllString(s, "_")
}

// ParseKeyValue recognises a printed "Label: value" line, a bare time of
// day, or a comma separated address fragment. ok is false when text is none
// of these.
func ParseKeyValue(text string) (key, value string, ok bool) {
	lower := strings.ToLower(text)
	for _, k := range kvKeys {
		if !strings.HasPrefix(lower, k) {
			continue
		}
		if m := kvLine.FindStringSubmatch(text); m != nil {
			return ToSnakeCase(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]), true
		}
		break
	}

	trimmed := strings.TrimSpace(text)
	if timeOfDay.MatchString(trimmed) {
		return "time", trimmed, true
	}
	if isAddressLike(text) {
		return "address_component", trimmed, true
	}
	return "", "", false
}

func isAddressLike(text string) bool {
	if !strings.Contains(text, ",") {
		return false
	}
	parts := 0
	for _, p := range strings.Split(text, ",") {
		if strings.TrimSpace(p) != "" {
			parts++
		}
	}
	return parts >= 2
}
