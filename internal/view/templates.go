package view

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/comanda-erp/comanda/web"
)

var templatePatterns = []string{"templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html"}

// canCall matches literal permission checks such as {{if can .Principal "pdv.view"}}.
var canCall = regexp.MustCompile(`\bcan\s+\S+\s+"([^"]+)"`)

// Engine renders HTML templates.
type Engine struct {
	templates   *template.Template
	permissions []string
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Principal   any
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded templates. funcs overrides the default
// helpers; authorization helpers ("can", "hasRole") deny until provided.
func NewEngine(funcs template.FuncMap) (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"can":     func(any, string) bool { return false },
		"hasRole": func(any, ...string) bool { return false },
	}
	for name, fn := range funcs {
		funcMap[name] = fn
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, templatePatterns...)
	if err != nil {
		return nil, err
	}
	perms, err := scanPermissionKeys(web.Templates)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, permissions: perms}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// PermissionKeys returns the literal permission keys the templates check
// with the "can" helper.
func (e *Engine) PermissionKeys() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.permissions))
	copy(out, e.permissions)
	return out
}

func scanPermissionKeys(fsys fs.FS) ([]string, error) {
	seen := make(map[string]struct{})
	err := fs.WalkDir(fsys, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		for _, m := range canCall.FindAllStringSubmatch(string(src), -1) {
			seen[m[1]] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view: scan templates: %w", err)
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
