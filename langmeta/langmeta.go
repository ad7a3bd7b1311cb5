// Package langmeta provides language display metadata (native names and
// emoji flags) for prompts and reports.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// flagFromRegion turns a two-letter region code into its emoji flag.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + r - 'A')
	}
	return b.String()
}

// Resolve returns best-effort metadata for a language code such as "es",
// "pt_BR" or "zh-Hant". The name is given in the language itself. Unknown
// codes resolve to themselves without a flag.
func Resolve(lang string) Meta {
	tag, err := language.Parse(canonicalize(lang))
	if err != nil {
		return Meta{Name: lang}
	}
	m := Meta{Name: display.Self.Name(tag)}
	if m.Name == "" {
		m.Name = lang
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flagFromRegion(region.String())
	}
	return m
}

// Label formats lang for display, e.g. "🇪🇸 es (español)".
func Label(lang string) string {
	m := Resolve(lang)
	label := lang
	if m.Name != "" && m.Name != lang {
		label += " (" + m.Name + ")"
	}
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}
