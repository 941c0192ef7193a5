package ingest

import "github.com/kailas-cloud/smartsearch/internal/domain/content"

// Payload is a CMS webhook delivery.
type Payload struct {
	Event  string `json:"event"`
	Module string `json:"module"`
	Data   Data   `json:"data"`
}

// Data carries the entry and its content type.
type Data struct {
	Entry       content.Entry `json:"entry"`
	ContentType ContentType   `json:"content_type"`
}

// ContentType identifies the CMS content type of the entry.
type ContentType struct {
	UID string `json:"uid"`
}

// removes reports whether the event takes the entry out of the index.
func (p *Payload) removes() bool {
	switch p.Event {
	case "delete", "unpublish":
		return true
	}
	return false
}
