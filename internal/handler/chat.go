package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/middleware"
	"github.com/DukeRupert/firstaid/internal/service"
)

// =============================================================================
// Template Data Types
// =============================================================================

// ChatPageData contains data for the chat page.
type ChatPageData struct {
	PageData
	Messages  []domain.ChatMessage // Session transcript, oldest first
	Languages []domain.Language    // Language selector options
	Language  string               // Selected language, preserved across turns
}

// =============================================================================
// Handler Configuration
// =============================================================================

// ChatService is the subset of the assistant used by the chat pages.
type ChatService interface {
	Submit(ctx context.Context, sessionID, description, language string) (*domain.Turn, error)
	Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

// ChatHandler serves the emergency chat page.
type ChatHandler struct {
	assistant ChatService
	renderer  TemplateRenderer
	logger    *slog.Logger
	isSecure  bool
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(
	assistant ChatService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		renderer:  renderer,
		logger:    logger,
		isSecure:  isSecure,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the chat routes with the provided mux.
//
// Routes:
// - GET  / -> Show (transcript and form)
// - POST / -> Submit (one chat turn, rate limited)
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /{$}", h.Show)
	mux.Handle("POST /{$}", limit(http.HandlerFunc(h.Submit)))
}

// =============================================================================
// GET / - Chat Page
// =============================================================================

// Show renders the transcript for the current session.
func (h *ChatHandler) Show(w http.ResponseWriter, r *http.Request) {
	data := h.newChatPage(w, r, r.URL.Query().Get("language"))
	status := http.StatusOK

	if err := h.loadTranscript(r, &data); err != nil {
		status = http.StatusInternalServerError
	}

	h.renderer.RenderHTTP(w, status, "chat", data)
}

// =============================================================================
// POST / - Submit Turn
// =============================================================================

// Submit runs one chat turn and re-renders the page.
//
// The description field is cleared after a turn runs; the language selection
// is always preserved. Validation errors keep the description so it can be
// corrected. A failed turn still renders 200: the failure is part of the
// transcript and is also surfaced as a toast.
func (h *ChatHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse chat form", "error", err)
		data := h.newChatPage(w, r, "")
		data.AddToast(NewToast("error", "Error", "Invalid form submission."))
		h.renderer.RenderHTTP(w, http.StatusBadRequest, "chat", data)
		return
	}

	description := r.FormValue("description")
	language := r.FormValue("language")
	data := h.newChatPage(w, r, language)
	status := http.StatusOK

	sessionID := middleware.GetSessionID(r)
	_, err := h.assistant.Submit(r.Context(), sessionID, description, language)

	var ve *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		data.Errors = ve.Fields
		data.Form["description"] = description
	case errors.Is(err, service.ErrTurnInFlight):
		status = http.StatusConflict
		data.Form["description"] = description
		data.AddToast(NewToast("warning", "Please wait", domain.ErrorMessage(err)))
	case domain.ErrorCode(err) == domain.EAIFAILED:
		data.AddToast(NewToast("error", "Error", domain.GenericAIFailureMessage))
	default:
		h.logger.Error("chat turn failed", "error", err, "session_id", sessionID)
		status = http.StatusInternalServerError
		data.AddToast(NewToast("error", "Error", domain.ErrorMessage(err)))
	}

	if err := h.loadTranscript(r, &data); err != nil && status == http.StatusOK {
		status = http.StatusInternalServerError
	}

	h.renderer.RenderHTTP(w, status, "chat", data)
}

// =============================================================================
// Helper Methods
// =============================================================================

func (h *ChatHandler) newChatPage(w http.ResponseWriter, r *http.Request, language string) ChatPageData {
	if !domain.IsSupportedLanguage(language) {
		language = domain.DefaultLanguage
	}
	return ChatPageData{
		PageData:  newPageData(w, r, "Chat", h.isSecure),
		Languages: domain.SupportedLanguages(),
		Language:  language,
	}
}

func (h *ChatHandler) loadTranscript(r *http.Request, data *ChatPageData) error {
	sessionID := middleware.GetSessionID(r)
	msgs, err := h.assistant.Transcript(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load transcript", "error", err, "session_id", sessionID)
		data.AddToast(NewToast("error", "Error", "Failed to load the conversation. Please reload the page."))
		return err
	}
	data.Messages = msgs
	return nil
}
