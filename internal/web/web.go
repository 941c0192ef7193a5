// Package web serves the single-page search UI embedded in the binary.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html static/*
var content embed.FS

type page struct {
	APIBase string
}

// UI renders the index page and serves its static assets.
type UI struct {
	index []byte
	files http.Handler
}

// New renders the index page once. apiBase is the origin the UI calls; empty means same origin.
func New(apiBase string) (*UI, error) {
	tmpl, err := template.ParseFS(content, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse ui template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page{APIBase: apiBase}); err != nil {
		return nil, fmt.Errorf("render ui template: %w", err)
	}

	static, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("ui static files: %w", err)
	}

	return &UI{
		index: buf.Bytes(),
		files: http.StripPrefix("/static/", http.FileServerFS(static)),
	}, nil
}

// Routes mounts the UI on r at / and /static/.
func (u *UI) Routes(r chi.Router) {
	r.Get("/", u.Index)
	r.Get("/static/*", u.files.ServeHTTP)
}

// Index handles GET /.
func (u *UI) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(u.index)
}
