package templates

import (
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FuncMap returns the helper functions available to every template. All of
// them are pure so rendering stays deterministic.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"title":  Title,
		"pascal": Pascal,
		"snake":  Snake,
		"kebab":  Kebab,
		"lower":  strings.ToLower,
		"upper":  strings.ToUpper,
	}
}

// Title upper-cases the first letter of each word and lower-cases the rest,
// e.g. "install" -> "Install", "fooBar" -> "Foobar".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Pascal converts kebab, snake, dotted or camel input to PascalCase,
// e.g. "tool.install-all" -> "ToolInstallAll".
func Pascal(s string) string {
	var b strings.Builder
	for _, word := range words(s) {
		runes := []rune(word)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// Snake converts input to snake_case, e.g. "DefineClass" -> "define_class".
func Snake(s string) string {
	return joinLower(s, "_")
}

// Kebab converts input to kebab-case, e.g. "DefineClass" -> "define-class".
func Kebab(s string) string {
	return joinLower(s, "-")
}

func joinLower(s, sep string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, sep)
}

// words splits on separators and camel-case boundaries. An acronym followed by
// a capitalised word ("HTTPServer") splits before the last upper-case letter.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '.' || r == '/' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}
