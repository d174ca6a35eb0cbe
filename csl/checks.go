package csl

import (
	"regexp"
	"strings"

	"github.com/confkit/toml-csl/token"
)

var (
	cslIdentifierRe = regexp.MustCompile(`^(\s*)([a-zA-Z_][a-zA-Z0-9_]*)`)

	cslIntegerRe = regexp.MustCompile(`^(\s*)(0x[0-9a-fA-F]+(_?[0-9a-fA-F]+)*|0o[0-7]+(_?[0-7]+)*|0b[01]+(_?[01]+)*|[1-9][0-9]*(_?[0-9]+)*|0)`)
	cslFloatRe   = regexp.MustCompile(`^(\s*)((0|[1-9][0-9]*(_?[0-9]+)*)(\.([0-9]+_)*[0-9]+)?(e[-+]?[0-9]+(_?[0-9]+)*)?)`)
	cslSpecialRe = regexp.MustCompile(`^(\s*)(nan|inf)`)

	cslBoolRe = regexp.MustCompile(`^(\s*)(true|false)`)

	cslKeywordRe = regexp.MustCompile(`^(\s*)(config|constraints|requires|conflicts|with|validate|exists|count_keys|all_keys|wildcard_keys|subset|\*)`)
	cslTypeRe    = regexp.MustCompile(`^(\s*)(any\{\}|any\[\]|string|number|boolean|datetime|duration)`)

	cslPunctuatorRe = regexp.MustCompile(`^(\s*)(\{|\}|\[|\]|,|:|;|@|=>)`)
	cslCommentRe    = regexp.MustCompile(`^(\s*)(//[^\n]*)`)

	cslBasicStringRe = regexp.MustCompile(`^(\s*)("([^"\\]|\\(.|\n))*")`)
)

func isWordByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func wordBoundaryOK(s string, end int) bool {
	return end >= len(s) || !isWordByte(s[end])
}

func checkIdentifier(s string) (int, string) {
	m := cslIdentifierRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	if m[2] == "true" || m[2] == "false" {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkNumeric(s string) (token.TypeTag, int, string) {
	if m := cslSpecialRe.FindStringSubmatch(s); m != nil && wordBoundaryOK(s, len(m[0])) {
		kind := token.Infinity
		if m[2] == "nan" {
			kind = token.NaN
		}
		return token.SpecialTag(kind), len(m[1]), m[2]
	}
	im := cslIntegerRe.FindStringSubmatch(s)
	fm := cslFloatRe.FindStringSubmatch(s)
	stubbed := func(m []string) bool {
		if m == nil {
			return true
		}
		rest := s[len(m[0]):]
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
	m := cslBoolRe.FindStringSubmatch(s)
	if m == nil || !wordBoundaryOK(s, len(m[0])) {
		return token.TypeTag{}, 0, ""
	}
	return token.BooleanTag(), len(m[1]), m[2]
}

func checkKeyword(s string) (int, string) {
	m := cslKeywordRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	if m[2] != "*" && !wordBoundaryOK(s, len(m[0])) {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkType(s string) (int, string) {
	m := cslTypeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	if m[2] != "any{}" && m[2] != "any[]" && !wordBoundaryOK(s, len(m[0])) {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkOperator(s string) (int, string) {
	m := operatorRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkPunctuator(s string) (int, string) {
	m := cslPunctuatorRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

func checkComment(s string) (int, string) {
	m := cslCommentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ""
	}
	return len(m[1]), m[2]
}

// scanRawString scans R"delim( ... )delim" starting at s[0] == 'R'.
// Returns the lexeme length or -1. Delimiters are at most 16 bytes and
// may not contain parentheses or backslashes.
func scanRawString(s string) int {
	if len(s) < 4 || s[0] != 'R' || s[1] != '"' {
		return -1
	}
	open := strings.IndexByte(s[2:], '(')
	if open < 0 || open > 16 {
		return -1
	}
	delim := s[2 : 2+open]
	if strings.ContainsAny(delim, `()\`) {
		return -1
	}
	closer := ")" + delim + `"`
	rest := s[2+open+1:]
	end := strings.Index(rest, closer)
	if end < 0 {
		return -1
	}
	return 2 + open + 1 + end + len(closer)
}

func checkString(s string) (token.TypeTag, int, string) {
	ws := len(s) - len(strings.TrimLeft(s, " \t\r\n\v\f"))
	body := s[ws:]
	if strings.HasPrefix(body, `R"`) {
		if n := scanRawString(body); n > 0 {
			kind := token.Raw
			if strings.Contains(body[:n], "\n") {
				kind = token.MultiLineRaw
			}
			return token.StringTag(kind), ws, body[:n]
		}
		return token.TypeTag{}, 0, ""
	}
	if m := cslBasicStringRe.FindStringSubmatch(s); m != nil {
		kind := token.Basic
		if strings.Contains(m[2], "\n") {
			kind = token.MultiLineBasic
		}
		return token.StringTag(kind), len(m[1]), m[2]
	}
	return token.TypeTag{}, 0, ""
}

// hasIncompleteString reports whether the buffer opens a string that
// has not yet terminated, skipping comments and complete strings.
func hasIncompleteString(s string) bool {
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "//"):
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case strings.HasPrefix(s[i:], `R"`):
			n := scanRawString(s[i:])
			if n < 0 {
				return true
			}
			i += n
		case s[i] == '"':
			j := i + 1
			for j < len(s) {
				if s[j] == '\\' {
					j += 2
					continue
				}
				if s[j] == '"' {
					break
				}
				j++
			}
			if j >= len(s) {
				return true
			}
			i = j + 1
		default:
			i++
		}
	}
	return false
}
