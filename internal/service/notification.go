package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/metrics"
	"github.com/DukeRupert/firstaid/internal/notify"
)

// DefaultNotifyDelay is the simulated sending latency.
const DefaultNotifyDelay = 2 * time.Second

// DefaultEmergencyContacts are used when none are configured.
var DefaultEmergencyContacts = []string{
	"Contact 1 (e.g., Mom)",
	"Contact 2 (e.g., Friend)",
}

// NotificationService alerts the user's emergency contacts.
type NotificationService interface {
	// Send builds the notification and hands it to the notifier.
	// A missing location is not an error: the notification reads
	// domain.LocationUnavailable and carries no coordinates.
	// Returns *domain.ValidationError for messages over
	// domain.MaxNotificationMessageLength characters.
	Send(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error)

	// Contacts lists who will be notified.
	Contacts() []string
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Delay    time.Duration
	Contacts []string
}

type notificationService struct {
	notifier notify.Notifier
	cfg      NotificationConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewNotificationService creates a notification service.
func NewNotificationService(notifier notify.Notifier, cfg NotificationConfig, logger *slog.Logger) NotificationService {
	if len(cfg.Contacts) == 0 {
		cfg.Contacts = DefaultEmergencyContacts
	}
	return &notificationService{
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *notificationService) Contacts() []string {
	return append([]string(nil), s.cfg.Contacts...)
}

// Send validates the request, waits for the simulated delay and notifies.
func (s *notificationService) Send(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	const op = "notification.send"

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > domain.MaxNotificationMessageLength {
		return nil, domain.NewValidationError(op, "message", "Message must be 200 characters or fewer.")
	}
	if message == "" {
		message = domain.DefaultNotificationMessage
	}

	n := &domain.Notification{
		Message:  message,
		Location: domain.LocationUnavailable,
		Contacts: append([]string(nil), s.cfg.Contacts...),
	}

	switch {
	case req.Location != nil && req.Location.Valid():
		loc := *req.Location
		n.Location = loc.Describe()
		n.Coordinates = &loc
	case req.Location != nil:
		s.logger.Warn("ignoring out-of-range location")
	default:
		s.logger.Warn("sending notification without location", "reason", req.LocationError)
	}

	if err := sleep(ctx, s.cfg.Delay); err != nil {
		return nil, domain.Wrap(err, domain.EINTERNAL, op, "notification cancelled")
	}

	n.SentAt = s.now()
	if err := s.notifier.Notify(ctx, n); err != nil {
		return nil, domain.Internal(err, op, "failed to send notification")
	}

	locationLabel := "none"
	if n.HasLocation() {
		locationLabel = "attached"
	}
	metrics.NotificationsSentTotal.WithLabelValues(locationLabel).Inc()

	return n, nil
}
