package validator

import (
	"math"
	"strconv"
	"strings"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/toml"
)

// ValueKind discriminates the runtime value sum type used by constraint
// and annotation evaluation.
type ValueKind int

const (
	NullValue ValueKind = iota
	NumberValue
	BoolValue
	StringValue
)

type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
	Str  string
}

func Null() Value {
	return Value{}
}

func Num(f float64) Value {
	return Value{Kind: NumberValue, Num: f}
}

func Bool(b bool) Value {
	return Value{Kind: BoolValue, Bool: b}
}

func Str(s string) Value {
	return Value{Kind: StringValue, Str: s}
}

func (v Value) Truthy() bool {
	switch v.Kind {
	case BoolValue:
		return v.Bool
	case NumberValue:
		return v.Num != 0
	case StringValue:
		return v.Str != ""
	default:
		return false
	}
}

// convertTagged coerces a lexeme with its type tag into a runtime
// value. Integers normalize through the base-aware decimal parser,
// datetimes pass through as strings, specials map to IEEE values.
func convertTagged(tag token.TypeTag, text string) Value {
	switch tag.Kind {
	case token.TagString:
		return Str(toml.StringContent(text, tag.String))
	case token.TagInteger:
		dec := toml.NormalizeInteger(text)
		i, err := strconv.ParseInt(dec, 10, 64)
		if err != nil {
			return Null()
		}
		return Num(float64(i))
	case token.TagFloat:
		f, err := strconv.ParseFloat(toml.NormalizeFloat(text), 64)
		if err != nil {
			return Null()
		}
		return Num(f)
	case token.TagBoolean:
		return Bool(text == "true")
	case token.TagDateTime:
		return Str(text)
	case token.TagSpecialNumber:
		switch text {
		case "nan", "+nan":
			return Num(math.NaN())
		case "-nan":
			return Num(math.Copysign(math.NaN(), -1))
		case "inf", "+inf":
			return Num(math.Inf(1))
		case "-inf":
			return Num(math.Inf(-1))
		}
		return Null()
	default:
		return Null()
	}
}

// convertSchemaLiteral coerces a CSL allowed-value or annotation
// literal; CSL strings unescape with the CSL rules.
func convertSchemaLiteral(lit csl.Literal) Value {
	if lit.Tag.Kind == token.TagString {
		return Str(csl.StringContent(lit.Text, lit.Tag.String))
	}
	return convertTagged(lit.Tag, lit.Text)
}

func convertDocValue(v *doctree.Value) Value {
	return convertTagged(v.Tag, v.Text)
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Floor(f) == f
}

// equalValues is strict: null equals only null, and numbers, booleans
// and strings compare within their own kind.
func equalValues(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NullValue:
		return true
	case NumberValue:
		return a.Num == b.Num
	case BoolValue:
		return a.Bool == b.Bool
	default:
		return a.Str == b.Str
	}
}

// applyBinaryOp evaluates a binary operator over two values. Equality
// and the logical connectives work across kinds; everything else
// requires matching kinds and yields null on mismatch. Bitwise and
// shift operators additionally require integral numbers.
func applyBinaryOp(lhs, rhs Value, op string) Value {
	switch op {
	case "==":
		return Bool(equalValues(lhs, rhs))
	case "!=":
		return Bool(!equalValues(lhs, rhs))
	case "&&":
		return Bool(lhs.Truthy() && rhs.Truthy())
	case "||":
		return Bool(lhs.Truthy() || rhs.Truthy())
	}
	if lhs.Kind != rhs.Kind {
		return Null()
	}
	switch lhs.Kind {
	case NumberValue:
		l, r := lhs.Num, rhs.Num
		switch op {
		case "+":
			return Num(l + r)
		case "-":
			return Num(l - r)
		case "*":
			return Num(l * r)
		case "/":
			return Num(l / r)
		case "<":
			return Bool(l < r)
		case ">":
			return Bool(l > r)
		case "<=":
			return Bool(l <= r)
		case ">=":
			return Bool(l >= r)
		}
		if isIntegral(l) && isIntegral(r) {
			li, ri := int64(l), int64(r)
			switch op {
			case "%":
				if ri == 0 {
					return Null()
				}
				return Num(float64(li % ri))
			case "<<":
				return Num(float64(li << uint(ri)))
			case ">>":
				return Num(float64(li >> uint(ri)))
			case "&":
				return Num(float64(li & ri))
			case "|":
				return Num(float64(li | ri))
			case "^":
				return Num(float64(li ^ ri))
			}
		}
		return Null()
	case StringValue:
		l, r := lhs.Str, rhs.Str
		switch op {
		case "+":
			return Str(l + r)
		case "<":
			return Bool(l < r)
		case ">":
			return Bool(l > r)
		case "<=":
			return Bool(l <= r)
		case ">=":
			return Bool(l >= r)
		}
		return Null()
	default:
		return Null()
	}
}

func applyUnaryOp(op string, operand Value) Value {
	switch op {
	case "!":
		return Bool(!operand.Truthy())
	case "~":
		if operand.Kind == NumberValue && isIntegral(operand.Num) {
			return Num(float64(^int64(operand.Num)))
		}
		if operand.Kind == BoolValue {
			i := int64(0)
			if operand.Bool {
				i = 1
			}
			return Num(float64(^i))
		}
		return Null()
	case "+":
		if operand.Kind == NumberValue {
			return operand
		}
		return Null()
	case "-":
		if operand.Kind == NumberValue {
			return Num(-operand.Num)
		}
		if operand.Kind == BoolValue {
			if operand.Bool {
				return Num(-1)
			}
			return Num(0)
		}
		return Null()
	default:
		return Null()
	}
}

// exprString renders an expression back to its textual form, used for
// path resolution and diagnostics.
func exprString(e csl.Expr) string {
	switch x := e.(type) {
	case *csl.IdentifierExpr:
		return x.Name
	case *csl.LiteralExpr:
		return x.Text
	case *csl.BinaryExpr:
		return exprString(x.LHS) + x.Op + exprString(x.RHS)
	case *csl.UnaryExpr:
		return x.Op + exprString(x.Operand)
	case *csl.TernaryExpr:
		return exprString(x.Cond) + " ? " + exprString(x.True) + " : " + exprString(x.False)
	case *csl.FunctionArgExpr:
		if x.Single != nil {
			return exprString(x.Single)
		}
		parts := make([]string, len(x.List))
		for i, a := range x.List {
			parts[i] = exprString(a)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *csl.FunctionCallExpr:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = exprString(a)
		}
		return x.Name + "(" + strings.Join(parts, ", ") + ")"
	case *csl.AnnotationExpr:
		parts := make([]string, len(x.Annotation.Args))
		for i, a := range x.Annotation.Args {
			parts[i] = exprString(a)
		}
		return exprString(x.Target) + "@" + x.Annotation.Name + "(" + strings.Join(parts, ", ") + ")"
	default:
		return ""
	}
}

// isSimpleKeyPath reports whether e is a bare or dotted identifier
// path, which evaluates as an existence test.
func isSimpleKeyPath(e csl.Expr) bool {
	switch x := e.(type) {
	case *csl.IdentifierExpr:
		return true
	case *csl.BinaryExpr:
		return x.Op == "." && isSimpleKeyPath(x.LHS) && isSimpleKeyPath(x.RHS)
	default:
		return false
	}
}
