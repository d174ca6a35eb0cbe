package csl

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/confkit/toml-csl/token"
)

var (
	cslOffsetDateTimeRe = regexp.MustCompile(`^(\s*)(([0-9]{4}-[0-9]{2}-[0-9]{2})[Tt ]([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?([Zz]|[+-]([01][0-9]|2[0-3]):[0-5][0-9]))`)
	cslLocalDateTimeRe  = regexp.MustCompile(`^(\s*)(([0-9]{4}-[0-9]{2}-[0-9]{2})[Tt ]([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?)`)
	cslLocalDateRe      = regexp.MustCompile(`^(\s*)([0-9]{4}-[0-9]{2}-[0-9]{2})`)
	cslLocalTimeRe      = regexp.MustCompile(`^(\s*)(([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?)`)
)

func checkDateTime(s string) (token.TypeTag, int, string) {
	if m := cslOffsetDateTimeRe.FindStringSubmatch(s); m != nil && validDate(m[3]) {
		return token.DateTimeTag(token.OffsetDateTime), len(m[1]), m[2]
	}
	if m := cslLocalDateTimeRe.FindStringSubmatch(s); m != nil && validDate(m[3]) {
		return token.DateTimeTag(token.LocalDateTime), len(m[1]), m[2]
	}
	if m := cslLocalDateRe.FindStringSubmatch(s); m != nil && validDate(m[2]) {
		return token.DateTimeTag(token.LocalDate), len(m[1]), m[2]
	}
	if m := cslLocalTimeRe.FindStringSubmatch(s); m != nil {
		return token.DateTimeTag(token.LocalTime), len(m[1]), m[2]
	}
	return token.TypeTag{}, 0, ""
}

func validDate(date string) bool {
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
	if month == 2 && ((year%4 == 0 && year%100 != 0) || year%400 == 0) {
		days = 29
	}
	return day >= 1 && day <= days
}

func commentContentValid(comment string) bool {
	body := strings.TrimPrefix(comment, "//")
	if !utf8.ValidString(body) {
		return false
	}
	for _, r := range body {
		if (r >= 0x0000 && r <= 0x0008) || (r >= 0x000A && r <= 0x001F) || r == 0x007F {
			return false
		}
	}
	return true
}

func reasonablyGrouped(lexeme string) bool {
	mantissa, frac, _ := strings.Cut(lexeme, ".")
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

// StringContent strips the quotes from a CSL string lexeme. Raw forms
// keep their content verbatim; basic forms resolve simple escapes.
func StringContent(lexeme string, kind token.StringKind) string {
	switch kind {
	case token.Raw, token.MultiLineRaw:
		open := strings.IndexByte(lexeme, '(')
		if open < 0 {
			return lexeme
		}
		delim := lexeme[2:open]
		closer := ")" + delim + `"`
		body := lexeme[open+1:]
		return strings.TrimSuffix(body, closer)
	case token.Basic, token.MultiLineBasic:
		if len(lexeme) < 2 {
			return lexeme
		}
		body := lexeme[1 : len(lexeme)-1]
		var sb strings.Builder
		for i := 0; i < len(body); i++ {
			if body[i] == '\\' && i+1 < len(body) {
				i++
				switch body[i] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r':
					sb.WriteByte('\r')
				default:
					sb.WriteByte(body[i])
				}
				continue
			}
			sb.WriteByte(body[i])
		}
		return sb.String()
	default:
		return lexeme
	}
}
