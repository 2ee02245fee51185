package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/haynafi/MusicPlayer/internal/player"
	"github.com/haynafi/MusicPlayer/internal/spotify"
)

// PageData is shared by every page template.
type PageData struct {
	Title       string
	CurrentPath string
}

// HomePageData backs the player page.
type HomePageData struct {
	PageData
	Session  player.Session
	Playback player.PlaybackView
}

// LoginPageData backs the login page.
type LoginPageData struct {
	PageData
	Error string
}

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a template manager by loading templates from the
// given filesystem (layouts/*.html plus pages/*.html).
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template inside the base layout.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	for _, page := range pages {
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		files := append([]string{page}, layouts...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// artistNames joins a track's artist names for display.
		"artistNames": func(artists []spotify.Artist) string {
			names := make([]string, 0, len(artists))
			for _, a := range artists {
				names = append(names, a.Name)
			}
			return strings.Join(names, ", ")
		},
		// duration formats a millisecond track length as m:ss.
		"duration": func(ms int) string {
			total := ms / 1000
			return fmt.Sprintf("%d:%02d", total/60, total%60)
		},
	}
}
