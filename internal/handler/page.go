// Package handler contains HTTP handlers for the first-aid assistant.
//
// Pages are server-rendered with html/template inside a single layout
// that carries the sidebar navigation. Every form is protected by the
// csrf double-submit cookie, and every page is scoped to the anonymous
// session issued by the session middleware.
package handler

import (
	"net/http"

	"github.com/DukeRupert/firstaid/internal/csrf"
)

// TemplateRenderer is the interface for rendering HTML templates.
// This interface allows for mocking in tests.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, status int, name string, data interface{})
}

// NavItem is one entry in the sidebar.
type NavItem struct {
	Label string
	Path  string
	Icon  string
}

// Navigation is the sidebar shown on every page.
var Navigation = []NavItem{
	{Label: "Chat", Path: "/", Icon: "chat"},
	{Label: "Video Guide", Path: "/video-guide", Icon: "video"},
	{Label: "Emergency Notification", Path: "/emergency-notification", Icon: "alert"},
}

// PageData contains data shared by every page.
type PageData struct {
	Title       string            // Document title
	CurrentPath string            // Current URL path for navigation highlighting
	Nav         []NavItem         // Sidebar entries
	CSRFToken   string            // CSRF token for form protection
	Form        map[string]string // Form field values for re-populating on error
	Errors      map[string]string // Field-level validation errors
	Toasts      []*ToastData      // Toasts to show once
}

// AddToast queues a toast for this render.
func (p *PageData) AddToast(t *ToastData) {
	p.Toasts = append(p.Toasts, t)
}

func newPageData(w http.ResponseWriter, r *http.Request, title string, isSecure bool) PageData {
	return PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Nav:         Navigation,
		CSRFToken:   csrf.EnsureToken(w, r, isSecure),
		Form:        map[string]string{},
		Errors:      map[string]string{},
	}
}
