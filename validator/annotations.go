package validator

import (
	"math"
	"regexp"
	"strings"

	"github.com/confkit/toml-csl/csl"
)

var formatPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`),
	"uuid":  regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
	"ipv4":  regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])$`),
	"ipv6":  regexp.MustCompile(`^((?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}|(?:[0-9a-fA-F]{1,4}:){1,7}:|(?:[0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|(?:[0-9a-fA-F]{1,4}:){1,5}(?::[0-9a-fA-F]{1,4}){1,2}|(?:[0-9a-fA-F]{1,4}:){1,4}(?::[0-9a-fA-F]{1,4}){1,3}|(?:[0-9a-fA-F]{1,4}:){1,3}(?::[0-9a-fA-F]{1,4}){1,4}|(?:[0-9a-fA-F]{1,4}:){1,2}(?::[0-9a-fA-F]{1,4}){1,5}|[0-9a-fA-F]{1,4}:(?::[0-9a-fA-F]{1,4}){1,6}|:(?:(?::[0-9a-fA-F]{1,4}){1,7}|:)|::(?:ffff(?::0{1,4})?:)?(?:(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9]))$`),
	"url":   regexp.MustCompile(`^(?:(?:https?|ftp)://)?(?:\S+(?::\S*)?@)?(?:(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,6}|(?:[0-9]{1,3}\.){3}[0-9]{1,3})(?::[0-9]{2,5})?(?:/[^\s?#]*)?(?:\?[^\s#]*)?(?:#[^\s]*)?$`),
	"phone": regexp.MustCompile(`^\+?[0-9]{1,4}?[-. ]?\(?[0-9]{1,4}?\)?[-. ]?[0-9]{1,4}[-. ]?[0-9]{1,9}$`),
}

// annotationArg evaluates an annotation argument to a value; arguments
// are literals or constant expressions, so no document context is
// needed.
func (v *validator) annotationArg(annotation *csl.Annotation, i int) Value {
	if i >= len(annotation.Args) {
		return Null()
	}
	return v.evaluateExprValue(annotation.Args[i], nil)
}

// evaluateAnnotation applies one annotation to a target value,
// returning whether the value passes. @deprecated always passes and
// only emits its warning.
func (v *validator) evaluateAnnotation(annotation *csl.Annotation, target Value) bool {
	switch annotation.Name {
	case "regex":
		pattern := v.annotationArg(annotation, 0)
		if target.Kind != StringValue || pattern.Kind != StringValue {
			return false
		}
		re, err := regexp.Compile(pattern.Str)
		if err != nil {
			return false
		}
		return re.MatchString(target.Str)
	case "start_with":
		prefix := v.annotationArg(annotation, 0)
		return target.Kind == StringValue && prefix.Kind == StringValue &&
			len(target.Str) >= len(prefix.Str) && target.Str[:len(prefix.Str)] == prefix.Str
	case "end_with":
		suffix := v.annotationArg(annotation, 0)
		return target.Kind == StringValue && suffix.Kind == StringValue &&
			len(target.Str) >= len(suffix.Str) && target.Str[len(target.Str)-len(suffix.Str):] == suffix.Str
	case "contain":
		sub := v.annotationArg(annotation, 0)
		if target.Kind != StringValue || sub.Kind != StringValue {
			return false
		}
		return strings.Contains(target.Str, sub.Str)
	case "min_length":
		n := v.annotationArg(annotation, 0)
		return target.Kind == StringValue && n.Kind == NumberValue &&
			float64(len(target.Str)) >= n.Num
	case "max_length":
		n := v.annotationArg(annotation, 0)
		return target.Kind == StringValue && n.Kind == NumberValue &&
			float64(len(target.Str)) <= n.Num
	case "min":
		n := v.annotationArg(annotation, 0)
		return target.Kind == NumberValue && n.Kind == NumberValue && target.Num >= n.Num
	case "max":
		n := v.annotationArg(annotation, 0)
		return target.Kind == NumberValue && n.Kind == NumberValue && target.Num <= n.Num
	case "range":
		lo := v.annotationArg(annotation, 0)
		hi := v.annotationArg(annotation, 1)
		return target.Kind == NumberValue && lo.Kind == NumberValue && hi.Kind == NumberValue &&
			target.Num >= lo.Num && target.Num <= hi.Num
	case "int":
		return target.Kind == NumberValue && math.Floor(target.Num) == target.Num
	case "float":
		return target.Kind == NumberValue && math.Floor(target.Num) != target.Num
	case "format":
		if target.Kind != StringValue {
			return false
		}
		formatId := ""
		if len(annotation.Args) > 0 {
			if id, ok := annotation.Args[0].(*csl.IdentifierExpr); ok {
				formatId = id.Name
			}
		}
		re, ok := formatPatterns[formatId]
		if !ok {
			v.errf(annotation.Region, "Unknown format type: %s", formatId)
			return false
		}
		return re.MatchString(target.Str)
	case "deprecated":
		msg := v.annotationArg(annotation, 0)
		if msg.Kind == StringValue {
			v.warnf(annotation.Region, "%s", msg.Str)
		} else {
			v.warnf(annotation.Region, "Deprecated.")
		}
		return true
	default:
		v.errf(annotation.Region, "Unknown annotation: %s.", annotation.Name)
		return false
	}
}
