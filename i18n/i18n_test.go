package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "es_ES.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "es_ES" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "es_ES")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestTFormatsArgsWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Skipped key %s for language %s", "title", "fr"); got != "Skipped key title for language fr" {
		t.Fatalf("T = %q", got)
	}
}

func TestInitLoadsEmbeddedSpanish(t *testing.T) {
	oldPo, oldCurrent := po, current
	t.Cleanup(func() { po, current = oldPo, oldCurrent })

	Init("es_MX")
	if Language() != "es" {
		t.Fatalf("Language() = %q, want %q", Language(), "es")
	}
	if got := T("Translation added"); got != "Traducción añadida" {
		t.Fatalf("T(Translation added) = %q", got)
	}
	if got := T("Skipped key %s for language %s", "title", "fr"); got != "Se omitió la clave title para el idioma fr" {
		t.Fatalf("T with args = %q", got)
	}
}

func TestInitFallsBackToMsgid(t *testing.T) {
	oldPo, oldCurrent := po, current
	t.Cleanup(func() { po, current = oldPo, oldCurrent })

	Init("en")
	if got := T("Translation added"); got != "Translation added" {
		t.Fatalf("T = %q", got)
	}
	Init("xx-invalid-tag-!")
	if Language() != "en" {
		t.Fatalf("Language() = %q, want en", Language())
	}
}

func TestSpanishGuidedPrompts(t *testing.T) {
	oldPo, oldCurrent := po, current
	t.Cleanup(func() { po, current = oldPo, oldCurrent })

	Init("es")
	tests := map[string]string{
		"Enter the text to translate":       "Introduzca el texto a traducir",
		"Enter the key for the translation": "Introduzca la clave de la traducción",
	}
	for msgid, want := range tests {
		if got := T(msgid); got != want {
			t.Fatalf("T(%q) = %q, want %q", msgid, got, want)
		}
	}
}
