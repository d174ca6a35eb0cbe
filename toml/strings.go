package toml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/confkit/toml-csl/token"
)

func appendUTF8(sb *strings.Builder, code uint32) error {
	if code > 0x10FFFF || (code >= 0xD800 && code <= 0xDFFF) {
		return fmt.Errorf("invalid unicode code point %#x", code)
	}
	sb.WriteRune(rune(code))
	return nil
}

// removeLineContinuations strips backslash-newline continuations in
// multi-line basic strings, together with the leading whitespace of the
// continued line.
func removeLineContinuations(input string) string {
	var sb strings.Builder
	i := 0
	for i < len(input) {
		if input[i] == '\\' {
			j := i + 1
			for j < len(input) && (input[j] == ' ' || input[j] == '\t' || input[j] == '\f' || input[j] == '\r' || input[j] == '\v') {
				j++
			}
			if j < len(input) && input[j] == '\n' {
				j++
				for j < len(input) && (input[j] == ' ' || input[j] == '\t' || input[j] == '\f' || input[j] == '\r' || input[j] == '\v' || input[j] == '\n') {
					j++
				}
				i = j
				continue
			}
			// real escape, keep backslash and next byte
			sb.WriteByte(input[i])
			if i+1 < len(input) {
				sb.WriteByte(input[i+1])
			}
			i += 2
			continue
		}
		sb.WriteByte(input[i])
		i++
	}
	return sb.String()
}

func unescapeBasic(content string, multiLine bool) string {
	if multiLine {
		content = removeLineContinuations(content)
	}
	var sb strings.Builder
	for i := 0; i < len(content); i++ {
		if content[i] != '\\' {
			sb.WriteByte(content[i])
			continue
		}
		if i+1 >= len(content) {
			break
		}
		i++
		switch content[i] {
		case 'b':
			sb.WriteByte('\b')
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'f':
			sb.WriteByte('\f')
		case 'r':
			sb.WriteByte('\r')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'u':
			if i+4 < len(content) {
				if code, err := strconv.ParseUint(content[i+1:i+5], 16, 32); err == nil {
					appendUTF8(&sb, uint32(code))
				}
				i += 4
			}
		case 'U':
			if i+8 < len(content) {
				if code, err := strconv.ParseUint(content[i+1:i+9], 16, 32); err == nil {
					appendUTF8(&sb, uint32(code))
				}
				i += 8
			}
		}
	}
	return sb.String()
}

// StringContent strips the quotes from a string lexeme and resolves
// escapes according to its kind.
func StringContent(lexeme string, kind token.StringKind) string {
	switch kind {
	case token.Basic:
		if len(lexeme) < 2 {
			return ""
		}
		return unescapeBasic(lexeme[1:len(lexeme)-1], false)
	case token.MultiLineBasic:
		if len(lexeme) < 6 {
			return ""
		}
		content := lexeme[3 : len(lexeme)-3]
		content = strings.TrimPrefix(content, "\n")
		return unescapeBasic(content, true)
	case token.Literal:
		if len(lexeme) < 2 {
			return ""
		}
		return lexeme[1 : len(lexeme)-1]
	case token.MultiLineLiteral:
		if len(lexeme) < 6 {
			return ""
		}
		content := lexeme[3 : len(lexeme)-3]
		return strings.TrimPrefix(content, "\n")
	default:
		return lexeme
	}
}

// DecimalString normalizes an integer lexeme (underscores and leading +
// already removed) to a decimal string, converting 0x/0o/0b forms.
func DecimalString(input string) string {
	if input == "" {
		return input
	}
	neg := input[0] == '-'
	if neg {
		input = input[1:]
	}
	base := 10
	if len(input) > 2 && input[0] == '0' {
		switch input[1] {
		case 'x':
			base = 16
			input = input[2:]
		case 'o':
			base = 8
			input = input[2:]
		case 'b':
			base = 2
			input = input[2:]
		}
	}
	v, err := strconv.ParseUint(input, base, 64)
	if err != nil {
		return input
	}
	if neg && v != 0 {
		return "-" + strconv.FormatUint(v, 10)
	}
	return strconv.FormatUint(v, 10)
}

// NormalizeInteger strips grouping underscores and a leading plus sign
// and converts to decimal.
func NormalizeInteger(lexeme string) string {
	s := strings.ReplaceAll(lexeme, "_", "")
	s = strings.TrimPrefix(s, "+")
	return DecimalString(s)
}

// NormalizeFloat strips grouping underscores and a leading plus sign.
func NormalizeFloat(lexeme string) string {
	s := strings.ReplaceAll(lexeme, "_", "")
	return strings.TrimPrefix(s, "+")
}

// stringContentValid checks UTF-8 well-formedness and the control
// character rules of the given string kind.
func stringContentValid(s string, kind token.StringKind) bool {
	if !utf8.ValidString(s) {
		return false
	}
	multi := kind == token.MultiLineBasic || kind == token.MultiLineLiteral || kind == token.MultiLineRaw
	for i, r := range s {
		switch {
		case !multi:
			if (r >= 0x0000 && r <= 0x0008) || (r >= 0x000A && r <= 0x001F) || r == 0x007F {
				return false
			}
		default:
			if (r >= 0x0000 && r <= 0x0008) || r == 0x000B || r == 0x000C ||
				(r >= 0x000E && r <= 0x001F) || r == 0x007F {
				return false
			}
			if r == '\r' && (i+1 >= len(s) || s[i+1] != '\n') {
				return false
			}
		}
	}
	return true
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func isValidDate(date string) bool {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return false
	}
	year, err := strconv.Atoi(date[0:4])
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(date[5:7])
	if err != nil {
		return false
	}
	day, err := strconv.Atoi(date[8:10])
	if err != nil {
		return false
	}
	if year < 1 || month < 1 || month > 12 {
		return false
	}
	daysInMonth := [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	days := daysInMonth[month-1]
	if month == 2 && isLeapYear(year) {
		days = 29
	}
	return day >= 1 && day <= days
}

// reasonablyGrouped applies the underscore grouping rule: after the
// first group all groups must share a width greater than one, with the
// thousands-style 2..2,3 tail pattern accepted as well.
func reasonablyGrouped(lexeme string) bool {
	mantissa, frac, _ := strings.Cut(lexeme, ".")
	if len(mantissa) > 0 && (mantissa[0] == '+' || mantissa[0] == '-') {
		mantissa = mantissa[1:]
	}
	if len(mantissa) > 2 && mantissa[0] == '0' &&
		(mantissa[1] == 'b' || mantissa[1] == 'o' || mantissa[1] == 'x') {
		mantissa = mantissa[2:]
	}
	check := func(part string, allowThousandsTail bool) bool {
		if !strings.Contains(part, "_") {
			return true
		}
		groups := strings.Split(part, "_")
		for _, g := range groups {
			if g == "" {
				return false
			}
		}
		uniform := true
		for i := 2; i < len(groups); i++ {
			if len(groups[i]) != len(groups[1]) {
				uniform = false
				break
			}
		}
		if uniform {
			return len(groups[1]) != 1
		}
		if !allowThousandsTail {
			return false
		}
		for i := 1; i < len(groups)-1; i++ {
			if len(groups[i]) != 2 {
				return false
			}
		}
		return len(groups[len(groups)-1]) == 3
	}
	if !check(mantissa, true) {
		return false
	}
	return check(frac, false)
}
