package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
)

// layouts are the base templates pages render into. A page under
// pages/<layout>/ is stored as "<layout>/<page>".
var layouts = []string{"shop", "admin"}

// Renderer manages template parsing and rendering with isolated template sets.
// It supports two layouts:
//   - "shop" layout for the public storefront
//   - "admin" layout for the order dashboard and login
//
// Templates are organized as:
//   - layouts/shop.html, layouts/admin.html - base layouts
//   - partials/*.html - fragments shared by every layout, each also
//     renderable on its own for htmx responses
//   - pages/shop/*.html, pages/admin/*.html - pages
type Renderer struct {
	templates map[string]*template.Template
	fsys      fs.FS
	funcs     template.FuncMap
	logger    *slog.Logger
	isDev     bool
	mu        sync.RWMutex
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS is the template tree. Production passes the embedded tree,
	// development passes os.DirFS so edits show up on reload.
	FS     fs.FS
	Funcs  template.FuncMap
	Logger *slog.Logger
	// IsDev re-parses the templates on every render.
	IsDev bool
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		fsys:      cfg.FS,
		funcs:     cfg.Funcs,
		logger:    cfg.Logger,
		isDev:     cfg.IsDev,
	}

	templates, err := r.loadTemplates()
	if err != nil {
		return nil, err
	}
	r.templates = templates

	r.logger.Info("templates loaded", "count", len(r.templates))
	return r, nil
}

func (r *Renderer) loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	partialFiles, err := fs.Glob(r.fsys, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}

	// Parse each partial as a standalone template
	for _, partial := range partialFiles {
		partialTmpl, err := template.New("").Funcs(r.funcs).ParseFS(r.fsys, partial)
		if err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", partial, err)
		}
		templates["partial/"+baseName(partial)] = partialTmpl
	}

	for _, layout := range layouts {
		base, err := template.New(layout).Funcs(r.funcs).ParseFS(r.fsys, "layouts/"+layout+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s layout: %w", layout, err)
		}

		// Parse partials into the layout so pages can use {{template "partial_name"}}
		if len(partialFiles) > 0 {
			base, err = base.ParseFS(r.fsys, partialFiles...)
			if err != nil {
				return nil, fmt.Errorf("failed to parse partials into %s layout: %w", layout, err)
			}
		}

		pages, err := fs.Glob(r.fsys, "pages/"+layout+"/*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s pages: %w", layout, err)
		}

		for _, page := range pages {
			pageTmpl, err := base.Clone()
			if err != nil {
				return nil, fmt.Errorf("failed to clone %s template for %s: %w", layout, page, err)
			}

			pageTmpl, err = pageTmpl.ParseFS(r.fsys, page)
			if err != nil {
				return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
			}

			// Store as "shop/home", "admin/dashboard", etc.
			templates[layout+"/"+baseName(page)] = pageTmpl
		}
	}

	return templates, nil
}

func baseName(file string) string {
	return strings.TrimSuffix(path.Base(file), path.Ext(file))
}

// Reload re-parses all templates. A failed reload keeps the previous set.
func (r *Renderer) Reload() error {
	templates, err := r.loadTemplates()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()
	return nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	// In dev mode, reload templates on each request
	if r.isDev {
		if err := r.Reload(); err != nil {
			return nil, fmt.Errorf("template reload failed: %w", err)
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// Render renders a template to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, executeName(name), data)
}

// RenderHTTP renders a page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus renders a page with the given status code.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderPartial renders a partial template (for htmx responses).
// The partial file should contain {{define "name"}}...{{end}} where name matches the file name.
func (r *Renderer) RenderPartial(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.Render(&buf, "partial/"+name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// executeName determines which template inside a set to execute: the
// layout for pages and the defined name for partials.
func executeName(name string) string {
	layout, page, _ := strings.Cut(name, "/")
	if layout == "partial" {
		return page
	}
	return layout
}

// ListTemplates returns a list of all loaded template names.
// Useful for debugging.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
