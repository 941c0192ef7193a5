package content

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Content type uids with a dedicated metadata shape.
const (
	TypeProducts = "products"
	TypeBlogs    = "blogs"
	TypeEvents   = "events"
)

// Shaped is an entry ready for embedding: the record without values and the text to embed.
type Shaped struct {
	Record domain.Record
	Text   string
}

// Shaper builds metadata and embed text for CMS entries.
type Shaper struct {
	appURL      string
	stackAPIKey string
}

// NewShaper creates a shaper linking entries to the given CMS app and stack.
func NewShaper(appURL, stackAPIKey string) *Shaper {
	return &Shaper{
		appURL:      strings.TrimRight(appURL, "/"),
		stackAPIKey: stackAPIKey,
	}
}

// EntryURL returns the CMS editor link for an entry.
func (s *Shaper) EntryURL(uid string) string {
	return fmt.Sprintf("%s/#!/stack/%s/entry/%s", s.appURL, s.stackAPIKey, uid)
}

// Shape maps an entry of the given content type to a record and its embed text.
func (s *Shaper) Shape(entry Entry, contentType string) (Shaped, error) {
	uid := entry.UID()
	if uid == "" {
		return Shaped{}, domain.NewValidationError("Entry uid is missing")
	}

	meta := domain.Metadata{}
	if contentType != "" {
		meta[domain.MetadataContentType] = contentType
	}
	setString(meta, entry, "title")
	tags := entry.Tags()
	meta["tags"] = tags

	var parts []string
	switch contentType {
	case TypeProducts:
		meta["url"] = s.EntryURL(uid)
		setRaw(meta, entry, "description")
		setRaw(meta, entry, "price")
		setImage(meta, entry, "product_image")
		setRaw(meta, entry, "category")
		parts = []string{entry.Title(), entry.String("description")}
	case TypeBlogs:
		meta["url"] = s.EntryURL(uid)
		setRawOr(meta, entry, "body", "")
		meta["author"] = entry.String("author")
		meta["publish_date"] = CleanDate(entry.String("publish_date"))
		setImage(meta, entry, "image")
		parts = []string{entry.Title(), entry.String("body")}
	case TypeEvents:
		meta["url"] = s.EntryURL(uid)
		setRaw(meta, entry, "description")
		meta["location"] = entry.String("location")
		meta["start_date"] = CleanDate(entry.String("start_date"))
		meta["end_date"] = CleanDate(entry.String("end_date"))
		setImage(meta, entry, "image")
		parts = []string{entry.Title(), entry.String("description"), entry.String("location")}
	default:
		parts = []string{entry.Title(), entry.String("body")}
	}
	parts = append(parts, tags...)

	return Shaped{
		Record: domain.Record{ID: uid, Metadata: meta},
		Text:   joinNonEmpty(parts),
	}, nil
}

func setString(meta domain.Metadata, entry Entry, key string) {
	if _, ok := entry.Raw(key); ok {
		meta[key] = entry.String(key)
	}
}

func setRaw(meta domain.Metadata, entry Entry, key string) {
	if v, ok := entry.Raw(key); ok {
		meta[key] = v
	}
}

func setRawOr(meta domain.Metadata, entry Entry, key string, def any) {
	meta[key] = def
	setRaw(meta, entry, key)
}

func setImage(meta domain.Metadata, entry Entry, key string) {
	v, _ := entry.Raw(key)
	if url := CleanImageField(v); url != "" {
		meta[key] = url
	}
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
