// Package translation wraps gotext so user-facing strings can be localized
// through .po files without touching the call sites.
package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the locale catalog for the given language, defaulting to
// English when the language is empty.
func Configure(localesDir, lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}
	gotext.Configure(localesDir, lang, "default")
}

// Language reports the active language, normalizing gotext's undetermined
// marker to English.
func Language() string {
	lang := gotext.GetLanguage()
	if lang == "und" || lang == "" {
		return "en"
	}
	return lang
}

// Translate resolves a message id in the active locale. Unknown ids come
// back verbatim, so the English source text doubles as the fallback.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
