package csl

import (
	"regexp"
	"sort"
	"strings"
)

// opKey identifies an operator by its text and the number of operands
// that appear before it, which disambiguates unary from binary uses.
type opKey struct {
	text      string
	numBefore int
}

type opProp struct {
	paired     string
	name       string
	numOperand int
	precedence int
	rightAssoc int
}

// lowestPrecedence is returned for tokens that are not operators; it is
// looser than the loosest real operators (?: and =, precedence 15).
const lowestPrecedence = 17

var operators = map[opKey]opProp{
	{".", 1}:  {"", "Member", 2, 1, 0},
	{"@", 1}:  {"", "Annotation", 2, 1, 0},
	{"[", 1}:  {"]", "Subscript", 2, 2, 0},
	{"]", 0}:  {"", "", 0, lowestPrecedence, 0},
	{"(", 1}:  {")", "FunctionCall", 2, 2, 0},
	{")", 0}:  {"", "", 0, lowestPrecedence, 0},
	{"~", 0}:  {"", "Complement", 1, 3, 1},
	{"!", 0}:  {"", "LogicalNot", 1, 3, 1},
	{"+", 0}:  {"", "UnaryPlus", 1, 3, 1},
	{"-", 0}:  {"", "UnaryNegation", 1, 3, 1},
	{"*", 1}:  {"", "Multiplication", 2, 5, 0},
	{"/", 1}:  {"", "Division", 2, 5, 0},
	{"%", 1}:  {"", "Modulus", 2, 5, 0},
	{"+", 1}:  {"", "Addition", 2, 6, 0},
	{"-", 1}:  {"", "Subtraction", 2, 6, 0},
	{"<<", 1}: {"", "LeftShift", 2, 7, 0},
	{">>", 1}: {"", "RightShift", 2, 7, 0},
	{"<", 1}:  {"", "LessThan", 2, 8, 0},
	{">", 1}:  {"", "GreaterThan", 2, 8, 0},
	{"<=", 1}: {"", "LessThanOrEqualTo", 2, 8, 0},
	{">=", 1}: {"", "GreaterThanOrEqualTo", 2, 8, 0},
	{"==", 1}: {"", "Equality", 2, 9, 0},
	{"!=", 1}: {"", "Inequality", 2, 9, 0},
	{"&", 1}:  {"", "BitwiseAnd", 2, 10, 0},
	{"^", 1}:  {"", "BitwiseExclusiveOr", 2, 11, 0},
	{"|", 1}:  {"", "BitwiseInclusiveOr", 2, 12, 0},
	{"&&", 1}: {"", "LogicalAnd", 2, 13, 0},
	{"||", 1}: {"", "LogicalOr", 2, 14, 0},
	{"?", 1}:  {":", "Conditional", 3, 15, 1},
	{":", 0}:  {"", "", 0, lowestPrecedence, 0},
	{"=", 1}:  {"", "Assignment", 2, 15, 1},
}

func getPrecedence(text string, isBinary bool) int {
	numBefore := 0
	if isBinary {
		numBefore = 1
	}
	if p, ok := operators[opKey{text, numBefore}]; ok {
		return p.precedence
	}
	return lowestPrecedence
}

// operatorRegex matches any operator at the head of the input, longest
// text first so multicharacter operators win over their prefixes.
var operatorRegex = func() *regexp.Regexp {
	texts := map[string]bool{}
	for k := range operators {
		texts[k.text] = true
	}
	list := make([]string, 0, len(texts))
	for t := range texts {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if len(list[i]) != len(list[j]) {
			return len(list[i]) > len(list[j])
		}
		return list[i] < list[j]
	})
	quoted := make([]string, len(list))
	for i, t := range list {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`^(\s*)(` + strings.Join(quoted, "|") + `)`)
}()
