package config

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var exprRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Transform substitutes {{name}} expressions in pattern with vars.
//
// An expression is a variable name optionally followed by filters:
//
//	{{lang}}            es-mx
//	{{lang | upper}}    ES-MX
//	{{lang | title}}    Es-Mx
//
// The JavaScript forms lang.toUpperCase() and lang.toLowerCase() are
// accepted as aliases of upper and lower. Expressions that cannot be
// evaluated are left as written.
func Transform(pattern string, vars map[string]string) string {
	return exprRe.ReplaceAllStringFunc(pattern, func(m string) string {
		expr := m[2 : len(m)-2]
		if v, ok := eval(expr, vars); ok {
			return v
		}
		return m
	})
}

func eval(expr string, vars map[string]string) (string, bool) {
	parts := strings.Split(expr, "|")
	name := strings.TrimSpace(parts[0])
	filters := parts[1:]

	for _, alias := range []struct{ suffix, filter string }{
		{".toUpperCase()", "upper"},
		{".toLowerCase()", "lower"},
	} {
		if strings.HasSuffix(name, alias.suffix) {
			name = strings.TrimSuffix(name, alias.suffix)
			filters = append([]string{alias.filter}, filters...)
		}
	}

	v, ok := vars[name]
	if !ok {
		return "", false
	}
	for _, f := range filters {
		switch strings.TrimSpace(f) {
		case "upper":
			v = cases.Upper(language.Und).String(v)
		case "lower":
			v = cases.Lower(language.Und).String(v)
		case "title":
			v = cases.Title(language.Und).String(v)
		default:
			return "", false
		}
	}
	return v, true
}
