package validator

import (
	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/doctree"
)

// functionArg resolves a function argument: a single expression
// resolves to a document node by path, a bracketed list resolves to the
// list of its rendered texts.
type functionArg struct {
	node doctree.Node
	list []string
}

func (v *validator) functionArgs(call *csl.FunctionCallExpr, context *doctree.Table) []functionArg {
	args := make([]functionArg, 0, len(call.Args))
	for _, argExpr := range call.Args {
		funcArg, ok := argExpr.(*csl.FunctionArgExpr)
		if !ok {
			args = append(args, functionArg{})
			continue
		}
		if funcArg.Single != nil {
			args = append(args, functionArg{node: resolvePath(exprString(funcArg.Single), context)})
			continue
		}
		texts := make([]string, 0, len(funcArg.List))
		for _, e := range funcArg.List {
			texts = append(texts, exprString(e))
		}
		args = append(args, functionArg{list: texts})
	}
	return args
}

// evaluateFunctionCall runs one of the built-in schema functions. The
// third result marks an all_keys call, whose value is the key list in
// the second result.
func (v *validator) evaluateFunctionCall(call *csl.FunctionCallExpr, context *doctree.Table) (Value, []*doctree.Key, bool) {
	args := v.functionArgs(call, context)
	switch call.Name {
	case "count_keys":
		if len(args) > 0 {
			if table, ok := args[0].node.(*doctree.Table); ok {
				return Num(float64(table.Len())), nil, false
			}
		}
		return Bool(false), nil, false
	case "all_keys", "wildcard_keys":
		if len(args) > 0 {
			if table, ok := args[0].node.(*doctree.Table); ok {
				return Null(), table.Keys(), true
			}
		}
		return Null(), nil, true
	case "subset":
		return Bool(v.evaluateSubset(call, args)), nil, false
	case "exists":
		return Bool(len(args) > 0 && args[0].node != nil), nil, false
	default:
		v.errf(call.Region(), "Unknown function: %s.", call.Name)
		return Bool(false), nil, false
	}
}

// evaluateSubset checks that every element of the first array is
// structurally contained in the second. With a key list, only the
// listed properties are compared.
func (v *validator) evaluateSubset(call *csl.FunctionCallExpr, args []functionArg) bool {
	if len(args) < 2 {
		v.errf(call.Region(), "subset expects at least two arguments")
		return false
	}
	source, ok := args[0].node.(*doctree.Array)
	if !ok {
		v.errf(call.Region(), "First argument of subset must be an array")
		return false
	}
	target, ok := args[1].node.(*doctree.Array)
	if !ok {
		v.errf(call.Region(), "Second argument of subset must be an array")
		return false
	}
	if len(source.Elems) == 0 {
		return true
	}
	var properties []string
	if len(args) > 2 {
		if args[2].list == nil {
			v.errf(call.Region(), "Third argument of subset must be a key list")
			return false
		}
		properties = args[2].list
	}
	for _, sourceElem := range source.Elems {
		found := false
		if len(properties) == 0 {
			for _, targetElem := range target.Elems {
				if deepCompare(sourceElem, targetElem) {
					found = true
					break
				}
			}
		} else {
			sourceObj, ok := sourceElem.(*doctree.Table)
			if !ok {
				v.errf(doctree.DefRegionOf(sourceElem), "Source element is not an object")
				return false
			}
			sourceProps := map[string]doctree.Node{}
			for _, prop := range properties {
				node := resolvePath(prop, sourceObj)
				if node == nil {
					v.errf(sourceObj.DefRegion, "Missing property '%s' in source object", prop)
					return false
				}
				sourceProps[prop] = node
			}
			for _, targetElem := range target.Elems {
				targetObj, ok := targetElem.(*doctree.Table)
				if !ok {
					continue
				}
				match := true
				for _, prop := range properties {
					node := resolvePath(prop, targetObj)
					if node == nil || !deepCompare(sourceProps[prop], node) {
						match = false
						break
					}
				}
				if match {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// deepCompare is structural equality over document nodes: coerced
// equality for values, key-subset match for tables, order-independent
// containment for arrays.
func deepCompare(a, b doctree.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case *doctree.Value:
		bv, ok := b.(*doctree.Value)
		return ok && equalValues(convertDocValue(av), convertDocValue(bv))
	case *doctree.Table:
		bt, ok := b.(*doctree.Table)
		if !ok {
			return false
		}
		for _, key := range av.Keys() {
			bKey := bt.Get(key.Id)
			if bKey == nil || !deepCompare(key.Val, bKey.Val) {
				return false
			}
		}
		return true
	case *doctree.Array:
		ba, ok := b.(*doctree.Array)
		if !ok {
			return false
		}
		for _, elem := range av.Elems {
			found := false
			for _, other := range ba.Elems {
				if deepCompare(elem, other) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return false
	}
}
