// Package validator walks a TOML document tree against a CSL schema,
// checking types, required keys, wildcard matches, annotations and
// declarative constraints.
package validator

import (
	"strconv"
	"strings"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/debug"
	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
)

type validator struct {
	schema   *csl.ConfigSchema
	docRoot  *doctree.Table
	errors   []token.Diag
	warnings []token.Diag
}

// Validate checks a document against the named schema. With an empty
// name and exactly one schema, that schema is used.
func Validate(schemaName string, schemas []*csl.ConfigSchema, root *doctree.Table) ([]token.Diag, []token.Diag) {
	var schema *csl.ConfigSchema
	if schemaName == "" && len(schemas) == 1 {
		schema = schemas[0]
	} else {
		for _, s := range schemas {
			if s.Name == schemaName {
				schema = s
				break
			}
		}
	}
	if schema == nil {
		return []token.Diag{token.Errf(token.Region{}, "Cannot find config schema %s", schemaName)}, nil
	}
	v := &validator{schema: schema, docRoot: root}
	v.validateType(schema.Root, root, schema.Name)
	return v.errors, v.warnings
}

func (v *validator) errf(region token.Region, format string, args ...any) {
	v.errors = append(v.errors, token.Errf(region, format, args...))
}

func (v *validator) warnf(region token.Region, format string, args ...any) {
	v.warnings = append(v.warnings, token.Errf(region, format, args...))
}

// resolvePath walks a dotted path from the context table. Intermediate
// segments traverse tables; the final segment may be any node.
func resolvePath(path string, context *doctree.Table) doctree.Node {
	if context == nil {
		return nil
	}
	current := context
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		key := current.Get(segment)
		if key == nil {
			return nil
		}
		table, ok := key.Val.(*doctree.Table)
		if !ok {
			if i < len(segments)-1 {
				return nil
			}
			return key.Val
		}
		current = table
	}
	return current
}

func (v *validator) validateType(schemaType csl.Type, node doctree.Node, path string) bool {
	if schemaType == nil || node == nil {
		return false
	}
	switch st := schemaType.(type) {
	case *csl.PrimitiveType:
		if value, ok := node.(*doctree.Value); ok {
			return v.validatePrimitive(st, value)
		}
		v.errf(doctree.DefRegionOf(node), "Expected %s as a primitive value", path)
		return false
	case *csl.TableType:
		if table, ok := node.(*doctree.Table); ok {
			return v.validateTable(st, table, path)
		}
		v.errf(doctree.DefRegionOf(node), "Expected %s as a table", path)
		return false
	case *csl.ArrayType:
		if array, ok := node.(*doctree.Array); ok {
			return v.validateArray(st, array, path)
		}
		v.errf(doctree.DefRegionOf(node), "Expected %s as an array", path)
		return false
	case *csl.UnionType:
		return v.validateUnion(st, node, path)
	case *csl.AnyTableType:
		if _, ok := node.(*doctree.Table); !ok {
			v.errf(doctree.DefRegionOf(node), "Expected %s as an any table", path)
			return false
		}
		return true
	case *csl.AnyArrayType:
		if _, ok := node.(*doctree.Array); !ok {
			v.errf(doctree.DefRegionOf(node), "Expected %s as an any array", path)
			return false
		}
		return true
	default:
		v.errf(schemaType.Region(), "Unsupported type kind")
		return false
	}
}

func (v *validator) validatePrimitive(schemaType *csl.PrimitiveType, valueNode *doctree.Value) bool {
	actual := convertDocValue(valueNode)

	if len(schemaType.Allowed) > 0 {
		found := false
		for _, lit := range schemaType.Allowed {
			if equalValues(actual, convertSchemaLiteral(lit)) {
				found = true
				break
			}
		}
		if !found {
			v.errf(valueNode.DefRegion, "Value '%s' not in allowed values", valueNode.Text)
			return false
		}
	}

	for _, annotation := range schemaType.Annotations {
		if !v.evaluateAnnotation(annotation, actual) {
			v.errf(valueNode.DefRegion, "Failed to validate key against annotation '%s'.", annotation.Name)
			return false
		}
	}

	switch schemaType.Primitive {
	case csl.PrimString:
		if valueNode.Tag.Kind != token.TagString {
			v.errf(valueNode.DefRegion, "Expected string value")
			return false
		}
	case csl.PrimNumber:
		if !valueNode.Tag.IsNumeric() {
			v.errf(valueNode.DefRegion, "Expected numeric value")
			return false
		}
	case csl.PrimBoolean:
		if valueNode.Tag.Kind != token.TagBoolean {
			v.errf(valueNode.DefRegion, "Expected boolean value")
			return false
		}
	case csl.PrimDatetime:
		if valueNode.Tag.Kind != token.TagDateTime {
			v.errf(valueNode.DefRegion, "Expected datetime value")
			return false
		}
	case csl.PrimDuration:
		// the document grammar has no duration literal; any primitive
		// value is accepted here, matching the reference behavior
	}
	return true
}

func (v *validator) validateTable(schemaType *csl.TableType, tableNode *doctree.Table, path string) bool {
	valid := true

	for i := range schemaType.ExplicitKeys {
		keyDef := &schemaType.ExplicitKeys[i]
		newPath := path + "." + keyDef.Name
		key := tableNode.Get(keyDef.Name)
		if key == nil {
			if !keyDef.Optional {
				v.errf(tableNode.DefRegion, "Missing required key: %s", newPath)
				valid = false
			}
			continue
		}
		if !v.validateType(keyDef.Type, key.Val, newPath) {
			valid = false
		}
		for _, annotation := range keyDef.Annotations {
			value, ok := key.Val.(*doctree.Value)
			if !ok {
				if annotation.Name == "deprecated" {
					v.evaluateAnnotation(annotation, Null())
					continue
				}
				valid = false
				break
			}
			if !v.evaluateAnnotation(annotation, convertDocValue(value)) {
				v.errf(value.DefRegion, "Failed to validate key against annotation '%s'.", annotation.Name)
				valid = false
				break
			}
		}
	}

	for _, key := range tableNode.Keys() {
		explicit := false
		for i := range schemaType.ExplicitKeys {
			if schemaType.ExplicitKeys[i].Name == key.Id {
				explicit = true
				break
			}
		}
		if explicit {
			continue
		}
		if schemaType.WildcardKey != nil {
			if !v.validateType(schemaType.WildcardKey.Type, key.Val, path+".*") {
				v.errf(doctree.DefRegionOf(key.Val),
					"Key '%s.%s' failed to match the type of the wildcard key", path, key.Id)
				valid = false
			}
		} else {
			v.warnf(doctree.DefRegionOf(key.Val), "Key %s.%s is not in the schema", path, key.Id)
		}
	}

	for _, constraint := range schemaType.Constraints {
		if !v.checkConstraint(constraint, tableNode) {
			valid = false
		}
	}

	return valid
}

func (v *validator) validateArray(schemaType *csl.ArrayType, arrayNode *doctree.Array, path string) bool {
	valid := true
	for i, elem := range arrayNode.Elems {
		elemPath := path + "[" + strconv.Itoa(i) + "]"
		if !v.validateType(schemaType.Elem, elem, elemPath) {
			valid = false
		}
	}
	return valid
}

// validateUnion tries members in order, accepting on the first success.
// Diagnostics produced by failing members are rolled back so only the
// union-level error remains.
func (v *validator) validateUnion(schemaType *csl.UnionType, node doctree.Node, path string) bool {
	for _, member := range schemaType.Members {
		errMark, warnMark := len(v.errors), len(v.warnings)
		if v.validateType(member, node, path) {
			return true
		}
		v.errors = v.errors[:errMark]
		v.warnings = v.warnings[:warnMark]
	}
	v.errf(doctree.DefRegionOf(node), "Value of %s doesn't match any union member type", path)
	return false
}

func (v *validator) checkConstraint(constraint csl.Constraint, context *doctree.Table) bool {
	debug.Validatef("validator: constraint kind %d\n", constraint.Kind())
	switch c := constraint.(type) {
	case *csl.ConflictConstraint:
		return v.checkConflict(c, context)
	case *csl.DependencyConstraint:
		return v.checkDependency(c, context)
	case *csl.ValidateConstraint:
		return v.checkValidation(c, context)
	default:
		v.errf(constraint.Region(), "Unsupported constraint type")
		return false
	}
}

func (v *validator) checkConflict(conflict *csl.ConflictConstraint, context *doctree.Table) bool {
	hasFirst := v.evaluateExpr(conflict.First, context)
	hasSecond := v.evaluateExpr(conflict.Second, context)
	if hasFirst && hasSecond {
		msg := "Conflicting keys: " + exprString(conflict.First) + " and " + exprString(conflict.Second)
		v.errf(v.exprNodeRegion(conflict.First, context), "%s", msg)
		v.errf(v.exprNodeRegion(conflict.Second, context), "%s", msg)
		return false
	}
	return true
}

func (v *validator) checkDependency(dep *csl.DependencyConstraint, context *doctree.Table) bool {
	hasDependent := v.evaluateExpr(dep.Dependent, context)
	hasCondition := v.evaluateExpr(dep.Condition, context)
	if hasDependent && !hasCondition {
		v.errf(v.exprNodeRegion(dep.Dependent, context),
			"Dependency failed: %s requires %s", exprString(dep.Dependent), exprString(dep.Condition))
		return false
	}
	return true
}

func (v *validator) checkValidation(validate *csl.ValidateConstraint, context *doctree.Table) bool {
	if v.evaluateExpr(validate.Expr, context) {
		return true
	}
	v.errf(validate.Region(), "Validation failed: %s", exprString(validate.Expr))
	return false
}

// exprNodeRegion resolves a simple key path to its node's definition
// region; other expressions anchor at the constraint's own region.
func (v *validator) exprNodeRegion(e csl.Expr, context *doctree.Table) token.Region {
	if isSimpleKeyPath(e) {
		if node := resolvePath(exprString(e), context); node != nil {
			return doctree.DefRegionOf(node)
		}
	}
	return e.Region()
}

func (v *validator) resolveKeyValue(path string, context *doctree.Table) Value {
	node := resolvePath(path, context)
	if node == nil {
		return Null()
	}
	if value, ok := node.(*doctree.Value); ok {
		return convertDocValue(value)
	}
	return Bool(true)
}

// evaluateExpr evaluates an expression as a condition. Simple key
// paths are existence tests; everything else converts by truthiness.
func (v *validator) evaluateExpr(e csl.Expr, context *doctree.Table) bool {
	if isSimpleKeyPath(e) {
		return resolvePath(exprString(e), context) != nil
	}
	return v.evaluateExprValue(e, context).Truthy()
}

func (v *validator) evaluateExprValue(e csl.Expr, context *doctree.Table) Value {
	switch x := e.(type) {
	case *csl.IdentifierExpr:
		return v.resolveKeyValue(x.Name, context)
	case *csl.BinaryExpr:
		if x.Op == "." {
			return v.resolveKeyValue(exprString(x.LHS)+"."+exprString(x.RHS), context)
		}
		lhs := v.evaluateExprValue(x.LHS, context)
		rhs := v.evaluateExprValue(x.RHS, context)
		return applyBinaryOp(lhs, rhs, x.Op)
	case *csl.LiteralExpr:
		return convertSchemaLiteral(csl.Literal{Text: x.Text, Tag: x.Tag})
	case *csl.UnaryExpr:
		return applyUnaryOp(x.Op, v.evaluateExprValue(x.Operand, context))
	case *csl.TernaryExpr:
		if v.evaluateExprValue(x.Cond, context).Truthy() {
			return v.evaluateExprValue(x.True, context)
		}
		return v.evaluateExprValue(x.False, context)
	case *csl.FunctionCallExpr:
		value, _, _ := v.evaluateFunctionCall(x, context)
		return value
	case *csl.AnnotationExpr:
		return Bool(v.evaluateAnnotationExpr(x, context))
	default:
		return Null()
	}
}

// evaluateAnnotationExpr applies an annotation to the value of its
// target expression; all_keys targets apply it to every key name.
func (v *validator) evaluateAnnotationExpr(annoExpr *csl.AnnotationExpr, context *doctree.Table) bool {
	var targets []Value
	if funcCall, ok := annoExpr.Target.(*csl.FunctionCallExpr); ok {
		value, keys, isKeys := v.evaluateFunctionCall(funcCall, context)
		if isKeys {
			for _, key := range keys {
				targets = append(targets, Str(key.Id))
			}
		} else {
			targets = append(targets, value)
		}
	} else {
		targets = append(targets, v.evaluateExprValue(annoExpr.Target, context))
	}
	ok := true
	for _, target := range targets {
		if !v.evaluateAnnotation(annoExpr.Annotation, target) {
			v.errf(annoExpr.Region(), "Failed to validate key against annotation '%s'.", annoExpr.Annotation.Name)
			ok = false
		}
	}
	return ok
}
