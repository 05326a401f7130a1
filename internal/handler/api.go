package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/middleware"
	"github.com/DukeRupert/firstaid/internal/service"
)

// maxJSONBody bounds API request bodies.
const maxJSONBody = 64 << 10

// =============================================================================
// Request and Response Types
// =============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// TurnResponse describes one finished turn.
type TurnResponse struct {
	ID         string                 `json:"id"`
	Status     domain.TurnStatus      `json:"status"`
	Language   string                 `json:"language"`
	Result     *domain.AnalysisResult `json:"result,omitempty"`
	DurationMS int64                  `json:"durationMs"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	Turn     TurnResponse         `json:"turn"`
	Messages []domain.ChatMessage `json:"messages"`
}

// TranscriptResponse is returned by GET /api/chat/transcript.
type TranscriptResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// VideoRequest is the body of POST /api/video-guide.
type VideoRequest struct {
	Query string `json:"query"`
}

// NotifyRequest is the body of POST /api/notify.
type NotifyRequest struct {
	Message       string   `json:"message"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	LocationError string   `json:"locationError,omitempty"`
}

// NotificationResponse is returned by POST /api/notify.
type NotificationResponse struct {
	Message     string           `json:"message"`
	Location    string           `json:"location"`
	Coordinates *domain.Location `json:"coordinates,omitempty"`
	Contacts    []string         `json:"contacts"`
	SentAt      time.Time        `json:"sentAt"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// APIHandler exposes the assistant as JSON endpoints.
type APIHandler struct {
	analysis      service.AnalysisService
	translation   service.TranslationService
	assistant     ChatService
	videos        service.VideoGuideService
	notifications service.NotificationService
	logger        *slog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	analysis service.AnalysisService,
	translation service.TranslationService,
	assistant ChatService,
	videos service.VideoGuideService,
	notifications service.NotificationService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		analysis:      analysis,
		translation:   translation,
		assistant:     assistant,
		videos:        videos,
		notifications: notifications,
		logger:        logger,
	}
}

// RegisterRoutes registers the API routes with the provided mux.
//
// Routes that call the model are rate limited:
// - POST /api/analyze         -> Analyze
// - POST /api/translate       -> Translate
// - POST /api/chat            -> Chat
// - GET  /api/chat/transcript -> Transcript
// - POST /api/video-guide     -> VideoGuide
// - POST /api/notify          -> Notify
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/analyze", limit(http.HandlerFunc(h.Analyze)))
	mux.Handle("POST /api/translate", limit(http.HandlerFunc(h.Translate)))
	mux.Handle("POST /api/chat", limit(http.HandlerFunc(h.Chat)))
	mux.HandleFunc("GET /api/chat/transcript", h.Transcript)
	mux.HandleFunc("POST /api/video-guide", h.VideoGuide)
	mux.Handle("POST /api/notify", limit(http.HandlerFunc(h.Notify)))
}

// =============================================================================
// Handlers
// =============================================================================

// Analyze runs the risk analysis prompt without touching the transcript.
func (h *APIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.analysis.Analyze(r.Context(), req)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Translate runs the translation prompt for one piece of text.
func (h *APIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req domain.TranslationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.translation.Translate(r.Context(), req)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Chat runs one turn for the caller's session and returns the transcript.
func (h *APIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	sessionID := middleware.GetSessionID(r)
	turn, err := h.assistant.Submit(r.Context(), sessionID, req.Description, req.Language)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	msgs, err := h.assistant.Transcript(r.Context(), sessionID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Turn: TurnResponse{
			ID:         turn.ID.String(),
			Status:     turn.Status,
			Language:   turn.Language,
			Result:     turn.Result,
			DurationMS: turn.Duration().Milliseconds(),
		},
		Messages: nonNil(msgs),
	})
}

// Transcript returns the caller's transcript.
func (h *APIHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.assistant.Transcript(r.Context(), middleware.GetSessionID(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Messages: nonNil(msgs)})
}

// VideoGuide runs the simulated video search.
func (h *APIHandler) VideoGuide(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.videos.Search(r.Context(), req.Query)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Notify sends the simulated emergency notification.
func (h *APIHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	nreq := domain.NotificationRequest{
		Message:       req.Message,
		LocationError: req.LocationError,
	}
	if req.Latitude != nil && req.Longitude != nil {
		nreq.Location = &domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	} else if nreq.LocationError == "" {
		nreq.LocationError = "location not provided"
	}

	n, err := h.notifications.Send(r.Context(), nreq)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NotificationResponse{
		Message:     n.Message,
		Location:    n.Location,
		Coordinates: n.Coordinates,
		Contacts:    n.Contacts,
		SentAt:      n.SentAt,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a JSON body into dst, writing a 400 on failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, "api.decode", "Request body is too large."))
		case errors.Is(err, io.EOF):
			ErrorResponse(w, r, h.logger, domain.Invalid("api.decode", "Request body is required."))
		default:
			ErrorResponse(w, r, h.logger, domain.Invalid("api.decode", "Request body must be valid JSON."))
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(msgs []domain.ChatMessage) []domain.ChatMessage {
	if msgs == nil {
		return []domain.ChatMessage{}
	}
	return msgs
}
