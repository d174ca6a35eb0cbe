package csl

import (
	"strings"
	"testing"

	"github.com/confkit/toml-csl/token"
)

func parseSchemas(t *testing.T, src string) ([]*ConfigSchema, []token.Diag, []token.Diag) {
	t.Helper()
	list, lexErrs, _ := Lex(strings.NewReader(src), true)
	if len(lexErrs) != 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	return Parse(list)
}

func TestParseSchema(t *testing.T) {
	schemas, errs, _ := parseSchemas(t, `
config S {
  name: string;
  port: number @min(1) @max(65535);
  tags?: string[];
}
`)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(schemas) != 1 || schemas[0].Name != "S" {
		t.Fatalf("schemas = %+v", schemas)
	}
	root := schemas[0].Root
	if len(root.ExplicitKeys) != 3 {
		t.Fatalf("keys = %d, want 3", len(root.ExplicitKeys))
	}
	name := root.ExplicitKeys[0]
	if name.Name != "name" || name.Optional {
		t.Errorf("name key = %+v", name)
	}
	if prim, ok := name.Type.(*PrimitiveType); !ok || prim.Primitive != PrimString {
		t.Errorf("name type = %+v", name.Type)
	}
	port := root.ExplicitKeys[1]
	prim, ok := port.Type.(*PrimitiveType)
	if !ok || prim.Primitive != PrimNumber {
		t.Fatalf("port type = %+v", port.Type)
	}
	if len(prim.Annotations) != 2 || prim.Annotations[0].Name != "min" || prim.Annotations[1].Name != "max" {
		t.Errorf("port annotations = %+v", prim.Annotations)
	}
	tags := root.ExplicitKeys[2]
	if !tags.Optional {
		t.Errorf("tags must be optional")
	}
	arr, ok := tags.Type.(*ArrayType)
	if !ok {
		t.Fatalf("tags type = %+v", tags.Type)
	}
	if prim, ok := arr.Elem.(*PrimitiveType); !ok || prim.Primitive != PrimString {
		t.Errorf("tags element type = %+v", arr.Elem)
	}
}

func TestParseWildcardAndUnion(t *testing.T) {
	schemas, errs, _ := parseSchemas(t, `
config S {
  mode: "dev" | "prod";
  *: string | number;
}
`)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	root := schemas[0].Root
	mode := root.ExplicitKeys[0]
	union, ok := mode.Type.(*UnionType)
	if !ok || len(union.Members) != 2 {
		t.Fatalf("mode type = %+v", mode.Type)
	}
	for _, member := range union.Members {
		prim, ok := member.(*PrimitiveType)
		if !ok || len(prim.Allowed) != 1 {
			t.Errorf("union member = %+v", member)
		}
	}
	if root.WildcardKey == nil || !root.WildcardKey.Wildcard {
		t.Fatalf("wildcard missing")
	}
	if u, ok := root.WildcardKey.Type.(*UnionType); !ok || len(u.Members) != 2 {
		t.Errorf("wildcard type = %+v", root.WildcardKey.Type)
	}
}

func TestParseConstraints(t *testing.T) {
	schemas, errs, _ := parseSchemas(t, `
config S {
  a?: number;
  b?: number;
  constraints {
    conflicts a with b;
    requires a => exists(b);
    validate count_keys(c) < 4;
  }
}
`)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	constraints := schemas[0].Root.Constraints
	if len(constraints) != 3 {
		t.Fatalf("constraints = %d, want 3", len(constraints))
	}
	if _, ok := constraints[0].(*ConflictConstraint); !ok {
		t.Errorf("constraint 0 = %T", constraints[0])
	}
	dep, ok := constraints[1].(*DependencyConstraint)
	if !ok {
		t.Fatalf("constraint 1 = %T", constraints[1])
	}
	if _, ok := dep.Condition.(*FunctionCallExpr); !ok {
		t.Errorf("dependency condition = %T", dep.Condition)
	}
	val, ok := constraints[2].(*ValidateConstraint)
	if !ok {
		t.Fatalf("constraint 2 = %T", constraints[2])
	}
	bin, ok := val.Expr.(*BinaryExpr)
	if !ok || bin.Op != "<" {
		t.Errorf("validate expr = %+v", val.Expr)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	schemas, errs, _ := parseSchemas(t, `
config S {
  constraints {
    validate a + b * c == d;
  }
}
`)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	val := schemas[0].Root.Constraints[0].(*ValidateConstraint)
	eq, ok := val.Expr.(*BinaryExpr)
	if !ok || eq.Op != "==" {
		t.Fatalf("top op = %+v", val.Expr)
	}
	add, ok := eq.LHS.(*BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("lhs = %+v", eq.LHS)
	}
	mul, ok := add.RHS.(*BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Errorf("mul binds tighter than add: %+v", add.RHS)
	}
}

func TestTernaryExpression(t *testing.T) {
	schemas, errs, _ := parseSchemas(t, `
config S {
  constraints {
    validate exists(a) ? b > 1 : true;
  }
}
`)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	val := schemas[0].Root.Constraints[0].(*ValidateConstraint)
	if _, ok := val.Expr.(*TernaryExpr); !ok {
		t.Errorf("expr = %T, want ternary", val.Expr)
	}
}

func TestAnnotationScope(t *testing.T) {
	_, errs, _ := parseSchemas(t, `
config S {
  old: string @deprecated("use new");
}
`)
	if len(errs) != 0 {
		t.Fatalf("global annotation after type must parse, got %v", errs)
	}

	_, errs, _ = parseSchemas(t, `
config S {
  constraints {
    validate all_keys(t)@deprecated("no");
  }
}
`)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "Found global annotation deprecated") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing annotation scope error, got %v", errs)
	}
}

func TestMissingSemicolon(t *testing.T) {
	_, errs, _ := parseSchemas(t, `
config S {
  a: number
}
`)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "Expected ';' after key definition") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing semicolon error, got %v", errs)
	}
}

func TestGetPrecedence(t *testing.T) {
	if getPrecedence("*", true) != 5 {
		t.Errorf("binary * precedence")
	}
	if getPrecedence("-", false) != 3 {
		t.Errorf("unary - precedence")
	}
	if getPrecedence("ident", true) != lowestPrecedence {
		t.Errorf("non-operators default to the lowest precedence")
	}
}
