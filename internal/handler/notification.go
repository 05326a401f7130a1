package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/service"
)

// NotificationPageData contains data for the emergency notification page.
type NotificationPageData struct {
	PageData
	Contacts       []string             // Who will be notified
	DefaultMessage string               // Placeholder when the message is left empty
	MaxLength      int                  // Message length limit
	Sent           *domain.Notification // Last notification, nil until one is sent
}

// NotificationHandler serves the simulated emergency notification page.
type NotificationHandler struct {
	notifications service.NotificationService
	renderer      TemplateRenderer
	logger        *slog.Logger
	isSecure      bool
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	notifications service.NotificationService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		renderer:      renderer,
		logger:        logger,
		isSecure:      isSecure,
	}
}

// RegisterRoutes registers the notification routes with the provided mux.
//
// Routes:
// - GET  /emergency-notification -> Show
// - POST /emergency-notification -> Send (rate limited)
func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /emergency-notification", h.Show)
	mux.Handle("POST /emergency-notification", limit(http.HandlerFunc(h.Send)))
}

// Show renders the notification form.
func (h *NotificationHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, http.StatusOK, "emergency-notification", h.newPage(w, r))
}

// Send notifies the emergency contacts.
//
// The browser posts latitude and longitude when geolocation succeeded, or
// locationError when it did not. A missing location only produces a warning
// toast; the alert is still sent.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(w, r)

	if err := r.ParseForm(); err != nil {
		data.AddToast(NewToast("error", "Error", "Invalid form submission."))
		h.renderer.RenderHTTP(w, http.StatusBadRequest, "emergency-notification", data)
		return
	}

	req := notificationRequestFromForm(r)
	data.Form["message"] = req.Message

	n, err := h.notifications.Send(r.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			data.Errors = ve.Fields
			h.renderer.RenderHTTP(w, http.StatusBadRequest, "emergency-notification", data)
			return
		}
		if r.Context().Err() != nil {
			return
		}

		h.logger.Error("emergency notification failed", "error", err)
		data.AddToast(NewToast("error", "Error", "Failed to send the notification. Call your local emergency number."))
		h.renderer.RenderHTTP(w, http.StatusInternalServerError, "emergency-notification", data)
		return
	}

	if !n.HasLocation() {
		data.AddToast(NewToast("warning", "Location Error", "Could not get your location. The alert was sent without it."))
	}
	data.AddToast(NewToast("success", "Notification Sent",
		fmt.Sprintf("Your %d emergency contacts have been notified.", len(n.Contacts))))
	data.Sent = n
	data.Form["message"] = ""

	h.renderer.RenderHTTP(w, http.StatusOK, "emergency-notification", data)
}

func (h *NotificationHandler) newPage(w http.ResponseWriter, r *http.Request) NotificationPageData {
	return NotificationPageData{
		PageData:       newPageData(w, r, "Emergency Notification", h.isSecure),
		Contacts:       h.notifications.Contacts(),
		DefaultMessage: domain.DefaultNotificationMessage,
		MaxLength:      domain.MaxNotificationMessageLength,
	}
}

// notificationRequestFromForm reads the message and the location fields set
// by the page script.
func notificationRequestFromForm(r *http.Request) domain.NotificationRequest {
	req := domain.NotificationRequest{
		Message:       r.FormValue("message"),
		LocationError: strings.TrimSpace(r.FormValue("locationError")),
	}
	req.Location = parseLocation(r.FormValue("latitude"), r.FormValue("longitude"))
	if req.Location == nil && req.LocationError == "" {
		req.LocationError = "location not provided"
	}
	return req
}

// parseLocation returns nil unless both coordinates parse.
func parseLocation(lat, lng string) *domain.Location {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil
	}
	return &domain.Location{Latitude: latitude, Longitude: longitude}
}
