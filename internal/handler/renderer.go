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

// Renderer manages template parsing and rendering with isolated template sets.
// Every page uses the "app" layout, which carries the sidebar navigation.
//
// Templates are organized as:
//   - layouts/app.html - base layout
//   - components/*.html - reusable components (chat message, risk badge)
//   - partials/*.html - standalone fragments (toast)
//   - pages/*.html - pages rendered inside the layout
type Renderer struct {
	templates map[string]*template.Template
	fsys      fs.FS
	logger    *slog.Logger
	isDev     bool
	mu        sync.RWMutex
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	FS     fs.FS // Template root; embedded in production, os.DirFS in development
	Logger *slog.Logger
	IsDev  bool // Reparse templates on every render
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.FS == nil {
		return nil, fmt.Errorf("renderer: template filesystem is required")
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		fsys:      cfg.FS,
		logger:    cfg.Logger,
		isDev:     cfg.IsDev,
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) loadTemplates() error {
	templates := make(map[string]*template.Template)

	// Get component templates - recursively from all subdirs
	var componentFiles []string
	err := fs.WalkDir(r.fsys, "components", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".html") {
			componentFiles = append(componentFiles, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk components dir: %w", err)
	}

	partialFiles, err := fs.Glob(r.fsys, "partials/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob partials: %w", err)
	}

	// Parse each partial as a standalone template
	for _, partial := range partialFiles {
		partialTmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(r.fsys, partial)
		if err != nil {
			return fmt.Errorf("failed to parse partial %s: %w", partial, err)
		}
		templates["partial/"+baseName(partial)] = partialTmpl
	}

	appBaseTmpl, err := template.New("app").Funcs(TemplateFuncs()).ParseFS(r.fsys, "layouts/app.html")
	if err != nil {
		return fmt.Errorf("failed to parse app layout: %w", err)
	}

	// Parse components and partials into the layout so pages can use them
	shared := append(componentFiles, partialFiles...)
	if len(shared) > 0 {
		appBaseTmpl, err = appBaseTmpl.ParseFS(r.fsys, shared...)
		if err != nil {
			return fmt.Errorf("failed to parse components into app layout: %w", err)
		}
	}

	pages, err := fs.Glob(r.fsys, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages found under pages/")
	}

	for _, page := range pages {
		pageTmpl, err := appBaseTmpl.Clone()
		if err != nil {
			return fmt.Errorf("failed to clone app template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(r.fsys, page)
		if err != nil {
			return fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		// Store as "chat", "video-guide", etc.
		templates[baseName(page)] = pageTmpl
	}

	r.templates = templates
	r.logger.Info("templates loaded", "count", len(templates))
	return nil
}

func baseName(p string) string {
	name := path.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}

// Reload reparses all templates. Useful for development.
func (r *Renderer) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadTemplates()
}

// Render renders a page to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	// In dev mode, reload templates on each request
	if r.isDev {
		if err := r.Reload(); err != nil {
			return fmt.Errorf("template reload failed: %w", err)
		}
	}

	tmpl, execName, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, execName, data)
}

// RenderHTTP renders a page directly to an http.ResponseWriter with the
// given status code.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, status int, name string, data interface{}) {
	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// RenderPartial renders a partial template.
// The partial file should contain {{define "name"}}...{{end}} where name matches the file name.
func (r *Renderer) RenderPartial(w http.ResponseWriter, name string, data interface{}) {
	r.mu.RLock()
	tmpl, ok := r.templates["partial/"+name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("partial template not found", "name", name)
		http.Error(w, "Partial not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (r *Renderer) lookup(name string) (*template.Template, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.HasPrefix(name, "partial/") {
		tmpl, ok := r.templates[name]
		if !ok {
			return nil, "", fmt.Errorf("template %q not found", name)
		}
		return tmpl, strings.TrimPrefix(name, "partial/"), nil
	}

	tmpl, ok := r.templates[name]
	if !ok {
		return nil, "", fmt.Errorf("template %q not found", name)
	}
	return tmpl, "app", nil
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

// ToastData holds data for rendering a toast notification.
type ToastData struct {
	Type        string // success, error, warning, info
	Title       string // optional
	Message     string
	AutoDismiss int // seconds, default 5
}

// NewToast fills in the toast defaults.
func NewToast(kind, title, message string) *ToastData {
	if kind == "" {
		kind = "info"
	}
	return &ToastData{
		Type:        kind,
		Title:       title,
		Message:     message,
		AutoDismiss: 5,
	}
}
