package validator

import (
	"strings"
	"testing"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/toml"
)

func schemasOf(t *testing.T, src string) []*csl.ConfigSchema {
	t.Helper()
	list, lexErrs, _ := csl.Lex(strings.NewReader(src), true)
	if len(lexErrs) != 0 {
		t.Fatalf("schema lex errors: %v", lexErrs)
	}
	schemas, parseErrs, _ := csl.Parse(list)
	if len(parseErrs) != 0 {
		t.Fatalf("schema parse errors: %v", parseErrs)
	}
	return schemas
}

func docOf(t *testing.T, src string) *doctree.Table {
	t.Helper()
	list, lexErrs, _ := toml.Lex(strings.NewReader(src), true)
	if len(lexErrs) != 0 {
		t.Fatalf("doc lex errors: %v", lexErrs)
	}
	result := toml.Parse(list)
	if len(result.Errors) != 0 {
		t.Fatalf("doc parse errors: %v", result.Errors)
	}
	return result.Root
}

func hasDiag(diags []token.Diag, substr string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

const portSchema = `
config S {
  name: string;
  port: number @min(1) @max(65535);
}
`

func TestAnnotationBounds(t *testing.T) {
	schemas := schemasOf(t, portSchema)
	doc := docOf(t, "name = \"a\"\nport = 70000\n")
	errs, _ := Validate("", schemas, doc)
	if !hasDiag(errs, "annotation 'max'") {
		t.Fatalf("missing @max failure, got %v", errs)
	}
	// the failure anchors at the value region of port
	for _, e := range errs {
		if strings.Contains(e.Message, "annotation 'max'") {
			if e.Region.Start.Line != 1 || e.Region.Start.Col != 7 {
				t.Errorf("error region = %v, want port's value region", e.Region)
			}
		}
	}

	doc = docOf(t, "name = \"a\"\nport = 8080\n")
	errs, _ = Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("valid document rejected: %v", errs)
	}
}

func TestMissingRequiredKey(t *testing.T) {
	schemas := schemasOf(t, portSchema)
	doc := docOf(t, "name = \"a\"\n")
	errs, _ := Validate("", schemas, doc)
	if !hasDiag(errs, "Missing required key: S.port") {
		t.Errorf("missing required key error, got %v", errs)
	}
}

func TestOptionalKey(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  a?: number;
}
`)
	doc := docOf(t, "")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("optional key must not be required: %v", errs)
	}
}

func TestAllowedValues(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  mode: "dev" | "prod";
}
`)
	doc := docOf(t, "mode = \"dev\"\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("allowed literal rejected: %v", errs)
	}

	doc = docOf(t, "mode = \"test\"\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "doesn't match any union member type") {
		t.Errorf("disallowed literal accepted, got %v", errs)
	}
}

func TestAllowedValueCoercion(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  level: 1 | 2;
}
`)
	// hex 0x2 coerces to the same number as the schema literal 2
	doc := docOf(t, "level = 0x2\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("coerced equality must hold: %v", errs)
	}
}

func TestWildcardAndUnknownKey(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  known: string;
  *: number;
}
`)
	doc := docOf(t, "known = \"x\"\nextra = 3\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("wildcard match failed: %v", errs)
	}

	doc = docOf(t, "known = \"x\"\nextra = \"not a number\"\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "failed to match the type of the wildcard key") {
		t.Errorf("wildcard mismatch not reported, got %v", errs)
	}

	schemas = schemasOf(t, `
config S {
  known: string;
}
`)
	doc = docOf(t, "known = \"x\"\nextra = 3\n")
	errs, warns := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("unknown key must only warn: %v", errs)
	}
	if !hasDiag(warns, "Key S.extra is not in the schema") {
		t.Errorf("missing unknown key warning, got %v", warns)
	}
}

func TestDeprecatedOnlyWarns(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  old?: string @deprecated("use new instead");
}
`)
	doc := docOf(t, "old = \"v\"\n")
	errs, warns := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("@deprecated must never fail validation: %v", errs)
	}
	if !hasDiag(warns, "use new instead") {
		t.Errorf("missing deprecation warning, got %v", warns)
	}
}

func TestConflictConstraint(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  a?: number;
  b?: number;
  constraints {
    conflicts a with b;
  }
}
`)
	doc := docOf(t, "a = 1\nb = 2\n")
	errs, _ := Validate("", schemas, doc)
	count := 0
	for _, e := range errs {
		if strings.Contains(e.Message, "Conflicting keys: a and b") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("conflict must report both offenders, got %v", errs)
	}

	doc = docOf(t, "a = 1\n")
	errs, _ = Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("single key must not conflict: %v", errs)
	}
}

func TestDependencyConstraint(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  a?: number;
  b?: number;
  constraints {
    requires a => exists(b);
  }
}
`)
	doc := docOf(t, "a = 1\n")
	errs, _ := Validate("", schemas, doc)
	if !hasDiag(errs, "Dependency failed: a requires exists(b)") {
		t.Errorf("missing dependency error, got %v", errs)
	}

	doc = docOf(t, "a = 1\nb = 2\n")
	errs, _ = Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("satisfied dependency rejected: %v", errs)
	}
}

func TestValidateConstraint(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  lo?: number;
  hi?: number;
  constraints {
    validate lo < hi;
  }
}
`)
	doc := docOf(t, "lo = 1\nhi = 2\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("true validation rejected: %v", errs)
	}

	doc = docOf(t, "lo = 2\nhi = 1\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "Validation failed: lo<hi") {
		t.Errorf("missing validation error, got %v", errs)
	}
}

func TestCountKeys(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  limits: any{};
  constraints {
    validate count_keys(limits) <= 2;
  }
}
`)
	doc := docOf(t, "[limits]\na = 1\nb = 2\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("count within bound rejected: %v", errs)
	}

	doc = docOf(t, "[limits]\na = 1\nb = 2\nc = 3\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "Validation failed") {
		t.Errorf("count over bound accepted, got %v", errs)
	}
}

func TestSubset(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  enabled: any[];
  available: any[];
  constraints {
    validate subset(enabled, available);
  }
}
`)
	doc := docOf(t, "enabled = [\"a\"]\navailable = [\"a\", \"b\"]\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("subset rejected: %v", errs)
	}

	doc = docOf(t, "enabled = [\"c\"]\navailable = [\"a\", \"b\"]\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "Validation failed") {
		t.Errorf("non-subset accepted, got %v", errs)
	}
}

func TestArrayElementPaths(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  ports: number[];
}
`)
	doc := docOf(t, "ports = [1, \"x\"]\n")
	errs, _ := Validate("", schemas, doc)
	if !hasDiag(errs, "S.ports[1]") && !hasDiag(errs, "Expected numeric value") {
		t.Errorf("array element mismatch not reported, got %v", errs)
	}
}

func TestAnyShapes(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  meta: any{};
  list: any[];
}
`)
	doc := docOf(t, "list = [1]\n[meta]\nx = 1\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("any shapes rejected: %v", errs)
	}

	doc = docOf(t, "meta = 1\nlist = [1]\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "Expected S.meta as an any table") {
		t.Errorf("shape mismatch not reported, got %v", errs)
	}
}

func TestUnknownSchemaName(t *testing.T) {
	schemas := schemasOf(t, portSchema)
	doc := docOf(t, "name = \"a\"\nport = 1\n")
	errs, _ := Validate("missing", schemas, doc)
	if !hasDiag(errs, "Cannot find config schema missing") {
		t.Errorf("missing schema lookup error, got %v", errs)
	}
}

func TestUnknownAnnotation(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  a: number @bogus(1);
}
`)
	doc := docOf(t, "a = 1\n")
	errs, _ := Validate("", schemas, doc)
	if !hasDiag(errs, "Unknown annotation: bogus.") {
		t.Errorf("unknown annotation not reported, got %v", errs)
	}
}

func TestStringAnnotations(t *testing.T) {
	schemas := schemasOf(t, `
config S {
  id: string @regex("^[a-z]+$") @min_length(2) @max_length(5);
  mail: string @format(email);
}
`)
	doc := docOf(t, "id = \"abc\"\nmail = \"a@b.co\"\n")
	errs, _ := Validate("", schemas, doc)
	if len(errs) != 0 {
		t.Errorf("valid strings rejected: %v", errs)
	}

	doc = docOf(t, "id = \"ABC\"\nmail = \"nope\"\n")
	errs, _ = Validate("", schemas, doc)
	if !hasDiag(errs, "annotation 'regex'") || !hasDiag(errs, "annotation 'format'") {
		t.Errorf("string annotation failures not reported, got %v", errs)
	}
}
