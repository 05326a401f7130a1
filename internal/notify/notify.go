// Package notify delivers emergency alerts to contacts.
//
// The only implementation is a simulation that writes the alert to the log.
// Real delivery (SMS, e-mail, push) is out of scope.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/DukeRupert/firstaid/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Notifier sends an emergency notification to its contacts.
//
// All methods are context-aware for timeout and cancellation support.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// alertTemplate renders the body every contact receives.
var alertTemplate = template.Must(template.New("alert").Parse(
	`EMERGENCY ALERT
{{.Message}}
{{.Location}}
`))

// Body renders the alert text for n.
func Body(n *domain.Notification) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// Log Notifier
// =============================================================================

// LogNotifier "sends" by logging one line per contact.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a simulated notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the rendered alert for each contact.
func (n *LogNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := Body(notification)
	if err != nil {
		return err
	}

	for _, contact := range notification.Contacts {
		n.logger.Info("emergency notification sent (simulated)",
			"contact", contact,
			"has_location", notification.HasLocation(),
			"body", strings.TrimSpace(body),
		)
	}
	return nil
}
