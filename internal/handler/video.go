package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/service"
)

// VideoPageData contains data for the video guide page.
type VideoPageData struct {
	PageData
	Result *domain.VideoResult // Search result, nil until a search succeeds
}

// VideoHandler serves the simulated video guide search.
type VideoHandler struct {
	videos   service.VideoGuideService
	renderer TemplateRenderer
	logger   *slog.Logger
	isSecure bool
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(
	videos service.VideoGuideService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *VideoHandler {
	return &VideoHandler{
		videos:   videos,
		renderer: renderer,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers the video guide routes with the provided mux.
//
// Routes:
// - GET  /video-guide -> Show
// - POST /video-guide -> Search
func (h *VideoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /video-guide", h.Show)
	mux.HandleFunc("POST /video-guide", h.Search)
}

// Show renders the empty search form.
func (h *VideoHandler) Show(w http.ResponseWriter, r *http.Request) {
	data := VideoPageData{PageData: newPageData(w, r, "Video Guide", h.isSecure)}
	h.renderer.RenderHTTP(w, http.StatusOK, "video-guide", data)
}

// Search runs the simulated search and renders the result card.
func (h *VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	data := VideoPageData{PageData: newPageData(w, r, "Video Guide", h.isSecure)}

	if err := r.ParseForm(); err != nil {
		data.AddToast(NewToast("error", "Error", "Invalid form submission."))
		h.renderer.RenderHTTP(w, http.StatusBadRequest, "video-guide", data)
		return
	}

	query := r.FormValue("query")
	data.Form["query"] = query

	result, err := h.videos.Search(r.Context(), query)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			data.Errors = ve.Fields
			h.renderer.RenderHTTP(w, http.StatusBadRequest, "video-guide", data)
			return
		}
		if r.Context().Err() != nil {
			// Client went away mid-search.
			return
		}

		h.logger.Error("video search failed", "error", err)
		data.AddToast(NewToast("error", "Error", "Failed to find a video. Please try again."))
		h.renderer.RenderHTTP(w, http.StatusInternalServerError, "video-guide", data)
		return
	}

	data.Result = result
	data.AddToast(NewToast("success", "Video found", result.Title))
	h.renderer.RenderHTTP(w, http.StatusOK, "video-guide", data)
}
