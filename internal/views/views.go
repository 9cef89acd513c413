// Package views holds the server-rendered pages and stylesheets, embedded in
// the binary and rendered through Fiber's html/template engine.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Layout wraps every page; pages are inserted where it calls {{embed}}.
const Layout = "layout"

// New returns the page engine. Pages are named by their path under
// templates/ without extension (e.g. "users/show").
func New() *html.Engine {
	engine := html.NewFileSystem(http.FS(sub(templateFS, "templates")), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// Static returns the embedded stylesheets, rooted so that
// "stylesheets/style.css" resolves under the /static mount.
func Static() fs.FS {
	return sub(staticFS, "static")
}

// Funcs exposes the helpers available in every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
	}
}

func sub(fsys fs.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return s
}
