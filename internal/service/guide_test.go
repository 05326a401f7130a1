package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/firstaid/internal/domain"
)

// =============================================================================
// Video Guide
// =============================================================================

func TestVideoGuide_Search(t *testing.T) {
	svc := NewVideoGuideService(0, testLogger())

	res, err := svc.Search(context.Background(), "  burn treatment ")
	require.NoError(t, err)

	assert.Equal(t, "burn treatment", res.Query)
	assert.Equal(t, "First Aid for: burn treatment", res.Title)
	assert.Equal(t, "https://picsum.photos/seed/burn%20treatment/1280/720", res.ThumbnailURL)
	assert.Equal(t, "first aid burn", res.Hint)
	assert.NotEmpty(t, res.VideoURL)
	assert.Contains(t, res.Description, `"burn treatment"`)
}

func TestVideoGuide_RejectsShortQuery(t *testing.T) {
	svc := NewVideoGuideService(time.Hour, testLogger())

	_, err := svc.Search(context.Background(), " ab ")

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "query")
}

func TestVideoGuide_HonoursDelayAndCancellation(t *testing.T) {
	svc := NewVideoGuideService(30*time.Millisecond, testLogger())

	start := time.Now()
	_, err := svc.Search(context.Background(), "cpr")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewVideoGuideService(time.Hour, testLogger())
	_, err = slow.Search(ctx, "cpr")
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Notification
// =============================================================================

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func TestNotification_WithLocation(t *testing.T) {
	rec := &recordingNotifier{}
	svc := NewNotificationService(rec, NotificationConfig{Contacts: []string{"Mom"}}, testLogger())

	n, err := svc.Send(context.Background(), domain.NotificationRequest{
		Message:  "Fell down the stairs",
		Location: &domain.Location{Latitude: 51.5, Longitude: -0.12},
	})
	require.NoError(t, err)

	assert.Equal(t, "Fell down the stairs", n.Message)
	assert.Equal(t, "My current location is: https://www.google.com/maps?q=51.5,-0.12", n.Location)
	require.NotNil(t, n.Coordinates)
	assert.Equal(t, 51.5, n.Coordinates.Latitude)
	assert.Equal(t, []string{"Mom"}, n.Contacts)
	assert.False(t, n.SentAt.IsZero())
	require.Len(t, rec.sent, 1)
}

func TestNotification_LocationDeniedStillSends(t *testing.T) {
	rec := &recordingNotifier{}
	svc := NewNotificationService(rec, NotificationConfig{}, testLogger())

	n, err := svc.Send(context.Background(), domain.NotificationRequest{
		LocationError: "User denied Geolocation",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultNotificationMessage, n.Message)
	assert.Equal(t, domain.LocationUnavailable, n.Location)
	assert.Nil(t, n.Coordinates)
	assert.Equal(t, DefaultEmergencyContacts, n.Contacts)
	assert.Len(t, rec.sent, 1)
}

func TestNotification_RejectsLongMessage(t *testing.T) {
	rec := &recordingNotifier{}
	svc := NewNotificationService(rec, NotificationConfig{}, testLogger())

	long := make([]rune, domain.MaxNotificationMessageLength+1)
	for i := range long {
		long[i] = 'á'
	}
	_, err := svc.Send(context.Background(), domain.NotificationRequest{Message: string(long)})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "message")
	assert.Empty(t, rec.sent)

	_, err = svc.Send(context.Background(), domain.NotificationRequest{Message: string(long[:domain.MaxNotificationMessageLength])})
	assert.NoError(t, err, "exactly 200 characters is allowed")
}

func TestNotification_IgnoresOutOfRangeCoordinates(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	svc := NewNotificationService(&recordingNotifier{}, NotificationConfig{}, logger)

	n, err := svc.Send(context.Background(), domain.NotificationRequest{
		Location: &domain.Location{Latitude: 120.5, Longitude: 33.25},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LocationUnavailable, n.Location)
	assert.Nil(t, n.Coordinates)

	assert.Contains(t, logs.String(), "ignoring out-of-range location")
	assert.NotContains(t, logs.String(), "120.5", "coordinates must not be logged")
	assert.NotContains(t, logs.String(), "33.25", "coordinates must not be logged")
}

func TestNotification_NotifierFailure(t *testing.T) {
	svc := NewNotificationService(&recordingNotifier{err: errors.New("boom")}, NotificationConfig{}, testLogger())

	_, err := svc.Send(context.Background(), domain.NotificationRequest{})
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
