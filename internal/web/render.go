package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/mmynk/groupdo/internal/middleware"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"ago": func(unix int64) string {
		return humanize.Time(time.Unix(unix, 0))
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"plural": func(n int, singular string) string {
		return english.Plural(n, singular, "")
	},
	"join": strings.Join,
}

// page is the data every template receives. Handlers fill the fields their
// template uses.
type page struct {
	Title   string
	User    *models.User
	Flash   string
	Form    map[string]string
	Next    string
	Message string

	Todos  []*models.Todo
	Groups []*models.Group
	Group  *models.Group
	Items  []*models.Item
	Dump   *service.Dump
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &pages{byName: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// render executes the named page into a buffer and writes it with status.
// The current user and any pending flash message are filled in.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	t, ok := s.pages.byName[name]
	if !ok {
		slog.Error("Unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.User = middleware.UserFrom(r.Context())
	if data.Flash == "" {
		data.Flash = takeFlash(w, r)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("Template execution failed", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
