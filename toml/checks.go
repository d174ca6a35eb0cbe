package toml

import (
	"regexp"
	"strings"

	"github.com/confkit/toml-csl/token"
)

// Recognizers match at the head of the pending buffer, after leading
// whitespace. Each returns the index where the lexeme starts and the
// matched text; empty text means no match. Where the original patterns
// needed lookaround, the condition is checked by hand after the match.

var (
	identifierRe = regexp.MustCompile(`^(\s*)([-0-9A-Za-z_]+)`)

	integerRe = regexp.MustCompile(`^(\s*)([+-]?(0x[0-9a-fA-F]+(_?[0-9a-fA-F]+)*|0o[0-7]+(_?[0-7]+)*|0b[01]+(_?[01]+)*|[1-9][0-9]*(_?[0-9]+)*|0))`)
	floatRe   = regexp.MustCompile(`^(\s*)([+-]?(0|[1-9][0-9]*(_?[0-9]+)*)(\.([0-9]+_)*[0-9]+)?([eE][-+]?[0-9]+(_?[0-9]+)*)?)`)
	specialRe = regexp.MustCompile(`^(\s*)([+-]?(nan|inf))`)

	boolRe = regexp.MustCompile(`^(\s*)(true|false)`)

	offsetDateTimeRe = regexp.MustCompile(`^(\s*)(([0-9]{4}-[0-9]{2}-[0-9]{2})[Tt ]([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?([Zz]|[+-]([01][0-9]|2[0-3]):[0-5][0-9]))`)
	localDateTimeRe  = regexp.MustCompile(`^(\s*)(([0-9]{4}-[0-9]{2}-[0-9]{2})[Tt ]([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?)`)
	localDateRe      = regexp.MustCompile(`^(\s*)([0-9]{4}-[0-9]{2}-[0-9]{2})`)
	localTimeRe      = regexp.MustCompile(`^(\s*)(([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?)`)

	punctuatorRe = regexp.MustCompile(`^(\s*)([{}\[\],])`)
	operatorRe   = regexp.MustCompile(`^(\s*)([.=])`)
	commentRe    = regexp.MustCompile(`^(\s*)(#[^\n]*)`)

	basicStringRe   = regexp.MustCompile(`^(\s*)("([^"\\` + "\n" + `]|\\[btnfr"\\]|\\u[0-9a-fA-F]{4}|\\U[0-9a-fA-F]{8})*")`)
	literalStringRe = regexp.MustCompile(`^(\s*)('[^'` + "\n" + `]*')`)
)

// isWordByte mirrors the original (?![-\w]) boundary condition.
func isWordByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func boundaryOK(s string, end int) bool {
	return end >= len(s) || !isWordByte(s[end])
}

func checkIdentifier(s string) (int, string) {
	m := identifierRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	if m[2] == "true" || m[2] == "false" {
		return 0, ""
	}
	return len(m[1]), m[2]
}

// checkNumeric returns the payload tag, start index and text of the
// longest numeric literal at the head of s. Ties between integer and
// float go to integer; a literal shorter than the identifier reading of
// the same input is rejected.
func checkNumeric(s string) (token.TypeTag, int, string) {
	if m := specialRe.FindStringSubmatch(s); m != nil && boundaryOK(s, len(m[0])) {
		kind := token.Infinity
		if m[3] == "nan" {
			kind = token.NaN
		}
		if _, id := checkIdentifier(s); len(m[2]) >= len(id) {
			return token.SpecialTag(kind), len(m[1]), m[2]
		}
		return token.TypeTag{}, 0, ""
	}
	im := integerRe.FindStringSubmatch(s)
	fm := floatRe.FindStringSubmatch(s)
	// A bare 0 immediately followed by a base letter is the stub of a
	// malformed prefixed literal, not a decimal zero.
	stubbed := func(m []string) bool {
		if m == nil {
			return true
		}
		end := len(m[0])
		rest := s[end:]
		return strings.HasSuffix(m[2], "0") && len(rest) > 0 &&
			(rest[0] == 'x' || rest[0] == 'o' || rest[0] == 'b')
	}
	if stubbed(im) {
		im = nil
	}
	if stubbed(fm) {
		fm = nil
	}
	if im == nil && fm == nil {
		return token.TypeTag{}, 0, ""
	}
	var m []string
	var tag token.TypeTag
	if fm == nil || (im != nil && len(im[2]) >= len(fm[2])) {
		m, tag = im, token.IntegerTag()
	} else {
		m, tag = fm, token.FloatTag()
	}
	if _, id := checkIdentifier(s); len(m[2]) < len(id) {
		return token.TypeTag{}, 0, ""
	}
	return tag, len(m[1]), m[2]
}

func checkBoolean(s string) (token.TypeTag, int, string) {
	m := boolRe.FindStringSubmatch(s)
	if m == nil || !boundaryOK(s, len(m[0])) {
		return token.TypeTag{}, 0, ""
	}
	return token.BooleanTag(), len(m[1]), m[2]
}

func checkDateTime(s string) (token.TypeTag, int, string) {
	if m := offsetDateTimeRe.FindStringSubmatch(s); m != nil && isValidDate(m[3]) {
		return token.DateTimeTag(token.OffsetDateTime), len(m[1]), m[2]
	}
	if m := localDateTimeRe.FindStringSubmatch(s); m != nil && isValidDate(m[3]) {
		return token.DateTimeTag(token.LocalDateTime), len(m[1]), m[2]
	}
	if m := localDateRe.FindStringSubmatch(s); m != nil && isValidDate(m[2]) {
		return token.DateTimeTag(token.LocalDate), len(m[1]), m[2]
	}
	if m := localTimeRe.FindStringSubmatch(s); m != nil {
		return token.DateTimeTag(token.LocalTime), len(m[1]), m[2]
	}
	return token.TypeTag{}, 0, ""
}

func checkPunctuator(s string) (int, string) {
	m := punctuatorRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkOperator(s string) (int, string) {
	m := operatorRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkComment(s string) (int, string) {
	m := commentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

// scanMultiLine scans a triple-quoted form starting at s[0:3] == delim.
// basic forms honor backslash escapes. Returns the full lexeme length
// or -1 when unterminated. Up to two extra closing quotes belong to the
// content per the TOML grammar.
func scanMultiLine(s string, quote byte, escapes bool) int {
	i := 3
	for i < len(s) {
		c := s[i]
		if escapes && c == '\\' {
			i += 2
			continue
		}
		if c == quote {
			run := 0
			for i+run < len(s) && s[i+run] == quote {
				run++
			}
			if run >= 3 {
				// closing delimiter is the final three quotes
				return i + run
			}
			i += run
			continue
		}
		i++
	}
	return -1
}

func checkString(s string) (token.TypeTag, int, string) {
	type cand struct {
		tag  token.TypeTag
		idx  int
		text string
	}
	var best cand
	consider := func(c cand) {
		if c.text != "" && len(c.text) > len(best.text) {
			best = c
		}
	}
	if m := basicStringRe.FindStringSubmatch(s); m != nil {
		consider(cand{token.StringTag(token.Basic), len(m[1]), m[2]})
	}
	if m := literalStringRe.FindStringSubmatch(s); m != nil {
		consider(cand{token.StringTag(token.Literal), len(m[1]), m[2]})
	}
	ws := len(s) - len(strings.TrimLeft(s, " \t\r\n\v\f"))
	body := s[ws:]
	if strings.HasPrefix(body, `"""`) {
		if n := scanMultiLine(body, '"', true); n > 0 {
			consider(cand{token.StringTag(token.MultiLineBasic), ws, body[:n]})
		}
	}
	if strings.HasPrefix(body, "'''") {
		if n := scanMultiLine(body, '\'', false); n > 0 {
			consider(cand{token.StringTag(token.MultiLineLiteral), ws, body[:n]})
		}
	}
	if best.text == "" {
		return token.TypeTag{}, 0, ""
	}
	return best.tag, best.idx, best.text
}

// hasIncompleteString reports whether the buffer opens a triple-quoted
// string that has not yet terminated. Comments and completed strings
// are skipped before deciding.
func hasIncompleteString(s string) bool {
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case strings.HasPrefix(s[i:], `"""`):
			n := scanMultiLine(s[i:], '"', true)
			if n < 0 {
				return true
			}
			i += n
		case strings.HasPrefix(s[i:], "'''"):
			n := scanMultiLine(s[i:], '\'', false)
			if n < 0 {
				return true
			}
			i += n
		case s[i] == '"':
			// single-line form; an unterminated one does not continue
			// across lines
			j := i + 1
			for j < len(s) && s[j] != '"' && s[j] != '\n' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
		case s[i] == '\'':
			j := i + 1
			for j < len(s) && s[j] != '\'' && s[j] != '\n' {
				j++
			}
			i = j + 1
		default:
			i++
		}
	}
	return false
}
