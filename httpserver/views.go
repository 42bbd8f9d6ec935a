package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ruteri/simpleweb/interfaces"
)

//go:embed views/*.html
var viewFS embed.FS

// Page names.
const (
	pageIndex   = "index.html"
	pagePrivacy = "privacy.html"
	pageUpload  = "upload.html"
	pageError   = "error.html"
)

// pageData is the model shared by all views.
type pageData struct {
	Title       string
	User        string
	DefaultName string
	RequestID   string
	Ref         *interfaces.StoredObjectRef
}

type views map[string]*template.Template

// loadViews parses every page together with the shared layout.
func loadViews() (views, error) {
	v := make(views)
	for _, page := range []string{pageIndex, pagePrivacy, pageUpload, pageError} {
		tmpl, err := template.ParseFS(viewFS, "views/layout.html", "views/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse view %s: %w", page, err)
		}
		v[page] = tmpl
	}
	return v, nil
}

func (v views) render(w http.ResponseWriter, status int, page string, data pageData) error {
	tmpl, ok := v[page]
	if !ok {
		return fmt.Errorf("unknown view %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
