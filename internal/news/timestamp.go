package news

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalLayout is the single textual format of normalized timestamps
const CanonicalLayout = "2006-01-02 15:04:05"

// ISO-8601 with a numeric or Z offset, tried first
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// RFC-822 style dates as published by RSS feeds, tried second
var rfc822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// ParseError reports a timestamp in neither recognised format
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognised timestamp %q: expected ISO-8601 with offset or RFC-822", e.Value)
}

// IsCanonical reports whether value is already in CanonicalLayout
func IsCanonical(value string) bool {
	_, err := time.Parse(CanonicalLayout, value)
	return err == nil
}

// FormatTimestamp rewrites value into CanonicalLayout in UTC. ISO-8601
// with offset is attempted before RFC-822; the order matters and must
// not change. A canonical value is returned unchanged.
func FormatTimestamp(value string) (string, error) {
	value = strings.TrimSpace(value)
	if IsCanonical(value) {
		return value, nil
	}

	if t, ok := parseAny(value, isoLayouts); ok {
		return t.UTC().Format(CanonicalLayout), nil
	}
	if t, ok := parseAny(value, rfc822Layouts); ok {
		return t.UTC().Format(CanonicalLayout), nil
	}

	return "", &ParseError{Value: value}
}

func parseAny(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
