// Package content turns raw CMS entries into vector index records: per-content-type metadata
// and the text that gets embedded.
package content

import (
	"strconv"
	"strings"
)

// Entry is a raw CMS entry as delivered in a webhook payload.
type Entry map[string]any

// UID returns the entry uid, the id of its vector record.
func (e Entry) UID() string { return e.String("uid") }

// Title returns the entry title.
func (e Entry) Title() string { return e.String("title") }

// Raw returns the value under key when present and non-null.
func (e Entry) Raw(key string) (any, bool) {
	v, ok := e[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value under key as text. Numbers and booleans are formatted;
// objects, arrays and absent keys yield "".
func (e Entry) String(key string) string {
	v, ok := e.Raw(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Tags returns the entry tags. Never nil; non-string and blank items are dropped.
func (e Entry) Tags() []string {
	tags := []string{}
	v, ok := e.Raw("tags")
	if !ok {
		return tags
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}
