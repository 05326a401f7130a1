package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/metrics"
	"github.com/DukeRupert/firstaid/internal/session"
)

// ErrTurnInFlight is returned when a session submits while its previous turn
// has not finished.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

// Turn outcomes recorded in metrics and logs.
const (
	outcomeRendered = "rendered"
	outcomeFailed   = "failed"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
)

// DefaultTurnTimeout bounds a whole turn (analysis plus translations).
const DefaultTurnTimeout = 2 * time.Minute

// storeTimeout bounds transcript and lock writes made after the turn, which
// run even when the turn itself ran out of time.
const storeTimeout = 5 * time.Second

// AssistantConfig holds chat orchestration settings.
type AssistantConfig struct {
	// TurnTimeout bounds one turn. The turn ignores cancellation of the
	// submitting request, so this is its only deadline.
	TurnTimeout time.Duration

	// MaxConcurrentTranslations caps the translation fan-out. Zero means one
	// goroutine per translated string.
	MaxConcurrentTranslations int
}

// Assistant runs chat turns: one analysis call, then when the language is not
// English one translation per suggested solution plus one for the reason.
type Assistant struct {
	analysis    AnalysisService
	translation TranslationService
	store       session.Store
	logger      *slog.Logger
	cfg         AssistantConfig
	now         func() time.Time
}

// NewAssistant creates a chat assistant.
func NewAssistant(
	analysis AnalysisService,
	translation TranslationService,
	store session.Store,
	logger *slog.Logger,
	cfg AssistantConfig,
) *Assistant {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	return &Assistant{
		analysis:    analysis,
		translation: translation,
		store:       store,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Submit runs one turn for the session.
//
// A description shorter than domain.MinDescriptionLength returns a
// *domain.ValidationError; nothing is called or recorded. A second Submit
// while a turn is running returns ErrTurnInFlight. Otherwise the user message
// and exactly one assistant or error message are appended to the transcript
// together, and the turn is returned. On model failure the returned error is
// a domain.EAIFAILED error and the turn is also returned.
func (a *Assistant) Submit(ctx context.Context, sessionID, description, language string) (*domain.Turn, error) {
	const op = "assistant.submit"

	turn := domain.NewTurn(sessionID, strings.TrimSpace(description), strings.TrimSpace(language))
	_ = turn.TransitionTo(domain.TurnStatusSubmitting)

	if err := validateSubmission(op, turn); err != nil {
		_ = turn.TransitionTo(domain.TurnStatusFailed)
		metrics.TurnFinished(outcomeInvalid, turn.Duration())
		return nil, err
	}

	token, err := a.store.Lock(ctx, sessionID, a.cfg.TurnTimeout)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			metrics.TurnFinished(outcomeRejected, 0)
			return nil, domain.Wrap(ErrTurnInFlight, domain.ECONFLICT, op, "Please wait for the current answer before sending another message.")
		}
		return nil, domain.Internal(err, op, "failed to start turn")
	}

	// The turn must not be cut short when the browser navigates away, so it
	// runs detached from the request and bounded only by TurnTimeout.
	turnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.TurnTimeout)
	defer cancel()

	defer func() {
		unlockCtx, cancel := detached(ctx)
		defer cancel()
		if err := a.store.Unlock(unlockCtx, sessionID, token); err != nil {
			a.logger.Error("failed to release session lock", "session_id", sessionID, "error", err)
		}
	}()

	if err := a.run(turnCtx, turn); err != nil {
		// Anything that goes wrong once the model is involved is reported as
		// a model failure, never as a problem with the submitted form.
		if domain.ErrorCode(err) != domain.EAIFAILED {
			err = domain.AIFailed(err, op)
		}
		a.logger.Warn("chat turn failed",
			"turn_id", turn.ID,
			"session_id", sessionID,
			"language", turn.Language,
			"status", turn.Status,
			"error", err,
		)
		if rerr := a.record(ctx, turn, turn.ErrorMessage(domain.GenericAIFailureMessage, a.now())); rerr != nil {
			err = errors.Join(err, rerr)
		}
		_ = turn.TransitionTo(domain.TurnStatusFailed)
		metrics.TurnFinished(outcomeFailed, turn.Duration())
		return turn, err
	}

	if err := a.record(ctx, turn, turn.AssistantMessage(turn.Result, a.now())); err != nil {
		_ = turn.TransitionTo(domain.TurnStatusFailed)
		metrics.TurnFinished(outcomeFailed, turn.Duration())
		return turn, domain.Internal(err, op, "failed to save transcript")
	}
	_ = turn.TransitionTo(domain.TurnStatusRendered)
	metrics.TurnFinished(outcomeRendered, turn.Duration())

	a.logger.Info("chat turn rendered",
		"turn_id", turn.ID,
		"session_id", sessionID,
		"language", turn.Language,
		"risk_level", turn.Result.RiskLevel,
		"duration_ms", turn.Duration().Milliseconds(),
	)

	return turn, nil
}

// Transcript returns the session's messages in order.
func (a *Assistant) Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	const op = "assistant.transcript"

	msgs, err := a.store.Transcript(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load transcript")
	}
	return msgs, nil
}

// run performs the model calls and sets turn.Result on success.
func (a *Assistant) run(ctx context.Context, turn *domain.Turn) error {
	_ = turn.TransitionTo(domain.TurnStatusAwaitingAnalysis)

	result, err := a.analysis.Analyze(ctx, domain.AnalysisRequest{
		Description: turn.Description,
		Language:    turn.Language,
	})
	if err != nil {
		return err
	}

	if !turn.NeedsTranslation() {
		turn.Result = result
		return nil
	}

	_ = turn.TransitionTo(domain.TurnStatusAwaitingTranslations)

	translated, err := a.translate(ctx, result, turn.Language)
	if err != nil {
		return err
	}
	turn.Result = translated
	return nil
}

// translate translates every suggested solution and the reason concurrently.
// Results are written by index, so the order and count of solutions match
// the analysis. The first failure cancels the remaining calls and fails the
// whole translation.
func (a *Assistant) translate(ctx context.Context, result *domain.AnalysisResult, language string) (*domain.AnalysisResult, error) {
	solutions := make([]string, len(result.SuggestedSolutions))
	var reason string

	metrics.TranslationFanout.Observe(float64(len(solutions) + 1))

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	if a.cfg.MaxConcurrentTranslations > 0 {
		p = p.WithMaxGoroutines(a.cfg.MaxConcurrentTranslations)
	}

	for i, text := range result.SuggestedSolutions {
		p.Go(func(ctx context.Context) error {
			out, err := a.translation.Translate(ctx, domain.TranslationRequest{Text: text, TargetLanguage: language})
			if err != nil {
				return err
			}
			solutions[i] = out.TranslatedText
			return nil
		})
	}
	p.Go(func(ctx context.Context) error {
		out, err := a.translation.Translate(ctx, domain.TranslationRequest{Text: result.Reason, TargetLanguage: language})
		if err != nil {
			return err
		}
		reason = out.TranslatedText
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &domain.AnalysisResult{
		RiskLevel:          result.RiskLevel,
		SuggestedSolutions: solutions,
		Reason:             reason,
	}, nil
}

// record appends the user message and reply in one store call. It runs on a
// fresh deadline so a turn that timed out still leaves its error entry.
func (a *Assistant) record(ctx context.Context, turn *domain.Turn, reply domain.ChatMessage) error {
	user := turn.UserMessage(turn.StartedAt)
	turn.Messages = []domain.ChatMessage{user, reply}

	ctx, cancel := detached(ctx)
	defer cancel()

	if err := a.store.Append(ctx, turn.SessionID, user, reply); err != nil {
		a.logger.Error("failed to append transcript",
			"turn_id", turn.ID,
			"session_id", turn.SessionID,
			"error", err,
		)
		return err
	}
	return nil
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func validateSubmission(op string, turn *domain.Turn) error {
	if utf8.RuneCountInString(turn.Description) < domain.MinDescriptionLength {
		return domain.NewValidationError(op, "description", "Please describe the emergency in at least 10 characters.")
	}
	if !domain.IsSupportedLanguage(turn.Language) {
		return domain.NewValidationError(op, "language", "Please choose a supported language.")
	}
	return nil
}
