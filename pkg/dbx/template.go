package dbx

import (
	"strconv"
	"strings"
	"unicode"
)

// Template is a parameterized query plus its parsed placeholder layout.
// It is created once, at builder construction, and immutable thereafter.
type Template struct {
	sql       string
	execSQL   string
	names     []string
	numParams int
}

// span marks the rune range of one ":name" or "?" placeholder, to be
// rewritten to the driver's "$n" syntax.
type span struct {
	start, end int
}

// ParseTemplate parses the placeholder layout of a SQL string.
//
// Named placeholders use the ":name" syntax; positional placeholders use
// "?" or "$n". Quoted text, line and block comments, and "::" casts are
// skipped. Parsing is deterministic and side-effect free.
func ParseTemplate(sql string) Template {
	var (
		names     []string
		spans     []span
		dollarMax int
	)

	runes := []rune(sql)
	i := 0
	for i < len(runes) {
		ch := runes[i]

		switch {
		case ch == '\'':
			i = skipQuoted(runes, i, '\'')
		case ch == '"':
			i = skipQuoted(runes, i, '"')
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		case ch == ':':
			// "::" is a cast, not a placeholder
			if i+1 < len(runes) && runes[i+1] == ':' {
				i += 2
				continue
			}

			start := i + 1
			end := start
			for end < len(runes) && isIdentRune(runes[end], end == start) {
				end++
			}

			if end > start {
				names = append(names, string(runes[start:end]))
				spans = append(spans, span{start: i, end: end})
			}
			i = end
		case ch == '?':
			spans = append(spans, span{start: i, end: i + 1})
			i++
		case ch == '$':
			start := i + 1
			end := start
			for end < len(runes) && unicode.IsDigit(runes[end]) {
				end++
			}

			if end > start {
				if ordinal, err := strconv.Atoi(string(runes[start:end])); err == nil && ordinal > dollarMax {
					dollarMax = ordinal
				}
			}
			i = end
		default:
			i++
		}
	}

	return Template{
		sql:       sql,
		execSQL:   rewritePlaceholders(runes, spans, dollarMax),
		names:     names,
		numParams: len(spans) + dollarMax,
	}
}

// rewritePlaceholders splices "$n" ordinals over the ":name" and "?"
// placeholder spans, one ordinal per occurrence in appearance order,
// numbered after any "$n" ordinals the query already declares. Every
// other rune, quoted text and comments included, is kept verbatim.
func rewritePlaceholders(runes []rune, spans []span, dollarMax int) string {
	if len(spans) == 0 {
		return string(runes)
	}

	var out strings.Builder
	prev := 0
	for idx, s := range spans {
		out.WriteString(string(runes[prev:s.start]))
		out.WriteString("$" + strconv.Itoa(dollarMax+idx+1))
		prev = s.end
	}
	out.WriteString(string(runes[prev:]))

	return out.String()
}

func skipQuoted(runes []rune, start int, quote rune) int {
	i := start + 1
	for i < len(runes) {
		if runes[i] == quote {
			// doubled quote is an escape
			if i+1 < len(runes) && runes[i+1] == quote {
				i += 2
				continue
			}

			return i + 1
		}
		i++
	}

	return i
}

func isIdentRune(ch rune, first bool) bool {
	if first {
		return unicode.IsLetter(ch) || ch == '_'
	}

	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// SQL - the raw query text.
func (t Template) SQL() string {
	return t.sql
}

// ExecSQL - the query text sent to the driver, with ":name" and "?"
// placeholders rewritten to "$n" ordinals.
func (t Template) ExecSQL() string {
	return t.execSQL
}

// NumParams - the number of parameter slots declared by the template.
// Named placeholders count once per occurrence.
func (t Template) NumParams() int {
	return t.numParams
}

// Names - the named placeholders in order of appearance, duplicates
// included.
func (t Template) Names() []string {
	return t.names
}

// UsesNames reports whether the template declares named parameters.
func (t Template) UsesNames() bool {
	return len(t.names) > 0
}
