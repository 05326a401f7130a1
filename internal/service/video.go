package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/metrics"
)

// DefaultVideoSearchDelay is the simulated search latency.
const DefaultVideoSearchDelay = 1500 * time.Millisecond

// placeholderVideoURL is returned for every search; no real video exists.
const placeholderVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// VideoGuideService finds a first-aid video for a query.
type VideoGuideService interface {
	// Search returns a fabricated result after a fixed delay.
	// Returns *domain.ValidationError for queries shorter than
	// domain.MinVideoQueryLength characters.
	Search(ctx context.Context, query string) (*domain.VideoResult, error)
}

type videoGuideService struct {
	delay  time.Duration
	logger *slog.Logger
}

// NewVideoGuideService creates a simulated video guide search.
func NewVideoGuideService(delay time.Duration, logger *slog.Logger) VideoGuideService {
	return &videoGuideService{delay: delay, logger: logger}
}

// Search waits for the configured delay, then builds a result from the query.
func (s *videoGuideService) Search(ctx context.Context, query string) (*domain.VideoResult, error) {
	const op = "video.search"

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < domain.MinVideoQueryLength {
		return nil, domain.NewValidationError(op, "query", "Please enter at least 3 characters.")
	}

	if err := sleep(ctx, s.delay); err != nil {
		return nil, domain.Wrap(err, domain.EINTERNAL, op, "search cancelled")
	}

	metrics.VideoSearchesTotal.Inc()
	s.logger.Info("video guide searched (simulated)", "query", query)

	return &domain.VideoResult{
		Query:        query,
		Title:        "First Aid for: " + query,
		Description:  fmt.Sprintf("A comprehensive video guide on how to provide first aid for %q. Follow the steps carefully.", query),
		ThumbnailURL: "https://picsum.photos/seed/" + url.PathEscape(query) + "/1280/720",
		VideoURL:     placeholderVideoURL,
		Hint:         "first aid " + videoHint(query),
	}, nil
}

// videoHint returns the first word of query, or "medical".
func videoHint(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "medical"
	}
	return fields[0]
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
