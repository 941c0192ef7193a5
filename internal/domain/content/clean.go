package content

import (
	"regexp"
	"time"
)

var imgSrcRegex = regexp.MustCompile(`<img.*?src="(.*?)"`)

// CleanImageField extracts an image URL from a CMS image field.
// Rich-text fields carry an <img src="..."> tag, file fields carry an object with a url;
// any other non-empty string is already a URL.
func CleanImageField(v any) string {
	switch t := v.(type) {
	case string:
		if m := imgSrcRegex.FindStringSubmatch(t); m != nil {
			return m[1]
		}
		return t
	case map[string]any:
		if url, ok := t["url"].(string); ok {
			return url
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CleanDate formats an ISO timestamp as a UTC calendar date (YYYY-MM-DD).
// Unparseable input is returned unchanged, empty input yields "".
func CleanDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return s
}
