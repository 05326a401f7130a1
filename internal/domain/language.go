package domain

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a selectable response language.
type Language struct {
	Code  string // BCP 47 code sent to the model (e.g. "es")
	Label string // Display label (e.g. "Español (Spanish)")
}

// supportedLanguages is the selection list in display order.
var supportedLanguages = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Japanese,
	language.Chinese,
}

// SupportedLanguages returns the selectable languages.
func SupportedLanguages() []Language {
	out := make([]Language, 0, len(supportedLanguages))
	for _, tag := range supportedLanguages {
		out = append(out, Language{Code: tag.String(), Label: LanguageLabel(tag.String())})
	}
	return out
}

// IsSupportedLanguage reports whether code is in the selection list.
func IsSupportedLanguage(code string) bool {
	for _, tag := range supportedLanguages {
		if tag.String() == code {
			return true
		}
	}
	return false
}

// LanguageLabel returns "<native> (<English>)" for code, or just the English
// name when both are the same. Unknown codes are returned unchanged.
func LanguageLabel(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	english := display.English.Tags().Name(tag)
	if english == "" {
		return code
	}
	native := cases.Title(tag).String(display.Self.Name(tag))
	if native == "" || native == english {
		return english
	}
	return native + " (" + english + ")"
}

// LanguageName returns the English name of code, used in prompts.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
