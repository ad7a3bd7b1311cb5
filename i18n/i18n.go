// Package i18n provides internationalization support for ltr itself.
//
// It wraps the gotext library to provide simple T() and N() functions
// for translating ltr's user-facing strings. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Translation added"))
//	fmt.Println(i18n.T("Skipped key %s for language %s", key, lang))
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// Directory structure: locales/{lang}/LC_MESSAGES/ltr.po
//
//go:embed all:locales
var locales embed.FS

const domain = "ltr"

var (
	po      *gotext.Locale
	current = "en"
)

// Init loads the messages of lang. An empty lang is detected from the
// environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG (in that
// order, matching GNU gettext behavior). Regional variants fall back to
// their base language, so "es_MX" uses the "es" messages.
//
// Init should be called once at program startup, and again when the
// config file sets cliLanguage.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	current = baseLanguage(lang)

	po = gotext.NewLocaleFSWithPath(current, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Language returns the base language selected by Init.
func Language() string { return current }

// T translates msgid and, when args are given, formats it like fmt.Sprintf.
// Without a translation msgid itself is used.
func T(msgid string, args ...any) string {
	if po == nil {
		if len(args) == 0 {
			return msgid
		}
		return fmt.Sprintf(msgid, args...)
	}
	return po.Get(msgid, args...)
}

// N translates a string with plural forms.
func N(singular, plural string, n int, args ...any) string {
	if po == nil {
		s := plural
		if n == 1 {
			s = singular
		}
		if len(args) == 0 {
			return s
		}
		return fmt.Sprintf(s, args...)
	}
	return po.GetN(singular, plural, n, args...)
}

func baseLanguage(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "es_ES.UTF-8" -> "es_ES")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
