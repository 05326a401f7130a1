package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/prompt"
)

// TranslationService translates a single piece of emergency advice.
type TranslationService interface {
	// Translate returns text in the target language.
	// Empty text is translated like any other. Returns
	// *domain.ValidationError for an empty language, and
	// domain.EAIFAILED when the model call or its reply fails.
	Translate(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, error)
}

// translationInput is the rendered form of a TranslationRequest. The English
// language name is added so the model does not have to resolve codes.
type translationInput struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	LanguageName   string `json:"languageName"`
}

var translationPrompt = &prompt.Prompt[translationInput, domain.TranslationResult]{
	Name: TranslatePromptName,
	Template: `Translate the following emergency advice to {{languageName}} ({{targetLanguage}}).
Translate directly. Do not add, remove or explain anything.

"""
{{text}}
"""`,
	Input: prompt.Object("TranslationRequest",
		prompt.String("text", "The emergency advice to translate.", true),
		prompt.String("targetLanguage", "The target language for the translation.", true).Min(1),
		prompt.String("languageName", "", false),
	),
	Output: prompt.Object("TranslationResult",
		prompt.String("translatedText", "The translated emergency advice.", true),
	),
}

type translationService struct {
	invoker *prompt.Invoker
	logger  *slog.Logger
}

// NewTranslationService creates a new TranslationService.
func NewTranslationService(invoker *prompt.Invoker, logger *slog.Logger) TranslationService {
	return &translationService{
		invoker: invoker,
		logger:  logger,
	}
}

// Translate runs the translation prompt once.
func (s *translationService) Translate(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, error) {
	const op = "translation.translate"

	lang := strings.TrimSpace(req.TargetLanguage)
	out, err := translationPrompt.Invoke(ctx, s.invoker, translationInput{
		Text:           req.Text,
		TargetLanguage: lang,
		LanguageName:   domain.LanguageName(lang),
	})
	if err != nil {
		return nil, classifyPromptError(err, op)
	}

	s.logger.Debug("advice translated", "language", lang, "length", len(out.TranslatedText))
	return &out, nil
}
