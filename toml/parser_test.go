package toml

import (
	"strings"
	"testing"

	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
)

func parseString(t *testing.T, src string) ParseResult {
	t.Helper()
	list, lexErrs, _ := Lex(strings.NewReader(src), true)
	if len(lexErrs) != 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	return Parse(list)
}

func TestParseBasic(t *testing.T) {
	result := parseString(t, "x = 1\n[a]\ny = \"hi\"\n")
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	x := result.Root.Get("x")
	if x == nil {
		t.Fatal("missing key x")
	}
	val, ok := x.Val.(*doctree.Value)
	if !ok || val.Text != "1" || val.Tag.Kind != token.TagInteger {
		t.Errorf("x = %+v", x.Val)
	}
	a := result.Root.Get("a")
	if a == nil {
		t.Fatal("missing table a")
	}
	table, ok := a.Val.(*doctree.Table)
	if !ok || !table.Explicit {
		t.Fatalf("a is not an explicit table")
	}
	y := table.Get("y")
	if y == nil {
		t.Fatal("missing key a.y")
	}
	if v, ok := y.Val.(*doctree.Value); !ok || v.Tag.Kind != token.TagString {
		t.Errorf("a.y = %+v", y.Val)
	}
}

func TestHeaderRedefinition(t *testing.T) {
	result := parseString(t, "[a]\n[a]\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Table a is already defined." {
			found = true
			if e.Region.Start.Line != 1 {
				t.Errorf("error region on line %d, want 1", e.Region.Start.Line)
			}
		}
	}
	if !found {
		t.Errorf("missing redefinition error, got %v", result.Errors)
	}
}

func TestDottedAppendForbidden(t *testing.T) {
	result := parseString(t, "arr = [1]\narr.x = 2\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Key arr is defined as a bare key." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing bare key error, got %v", result.Errors)
	}
}

func TestArrayOfTablesDottedAppend(t *testing.T) {
	result := parseString(t, "arr = [{ b = 1 }]\narr.c = 2\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Cannot append to array with dotted keys." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing dotted append error, got %v", result.Errors)
	}
}

func TestInlineTableSealed(t *testing.T) {
	result := parseString(t, "a = { b = 1 }\n[a.c]\n")
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "is not mutable") {
			found = true
		}
	}
	if !found {
		t.Errorf("sealed inline table extension must error, got %v", result.Errors)
	}
}

func TestInlineTableTrailingComma(t *testing.T) {
	result := parseString(t, "a = { b = 1, }\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "A terminating comma is not permitted after the last key-value pair in an inline table." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing trailing comma error, got %v", result.Errors)
	}
}

func TestArrayTrailingCommaAllowed(t *testing.T) {
	result := parseString(t, "a = [1, 2,]\n")
	if len(result.Errors) != 0 {
		t.Errorf("trailing comma in arrays is permitted, got %v", result.Errors)
	}
	arr, ok := result.Root.Get("a").Val.(*doctree.Array)
	if !ok || len(arr.Elems) != 2 {
		t.Fatalf("a = %+v", result.Root.Get("a").Val)
	}
	if arr.Mutable {
		t.Errorf("inline array must be sealed after close")
	}
}

func TestKeyRedefinition(t *testing.T) {
	result := parseString(t, "a = 1\na = 2\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Key a is already defined." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing key redefinition error, got %v", result.Errors)
	}
}

func TestStatementOnNewLine(t *testing.T) {
	result := parseString(t, "a = 1 b = 2\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Each statement should start from a new line." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing new line error, got %v", result.Errors)
	}
}

func TestArrayHeaderWhitespace(t *testing.T) {
	result := parseString(t, "[ [a]]\nx = 1\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Operator [[ cannot be seperated by whitespace." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing contiguity error, got %v", result.Errors)
	}
}

func TestQuotedAndNumericKeys(t *testing.T) {
	result := parseString(t, "\"quoted key\" = 1\n123 = 2\ntrue = 3\n")
	if result.Root.Get("quoted key") == nil {
		t.Errorf("quoted key not resolved")
	}
	if result.Root.Get("123") == nil {
		t.Errorf("numeric key not resolved")
	}
	if result.Root.Get("true") == nil {
		t.Errorf("boolean key not resolved")
	}
}

func TestNumericDottedKeySplit(t *testing.T) {
	result := parseString(t, "1.5 = \"v\"\n")
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	one := result.Root.Get("1")
	if one == nil {
		t.Fatal("missing implicit table 1")
	}
	table, ok := one.Val.(*doctree.Table)
	if !ok {
		t.Fatalf("key 1 is not a table")
	}
	if table.Get("5") == nil {
		t.Errorf("missing key 1.5")
	}
}

func TestEmptyQuotedKeyWarns(t *testing.T) {
	result := parseString(t, "\"\" = 1\n")
	found := false
	for _, w := range result.Warnings {
		if w.Message == "Empty string key is not recommended." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing empty key warning, got %v", result.Warnings)
	}
}

func TestKeyMapCrossReference(t *testing.T) {
	src := "[table]\nkey = 1\n"
	list, _, _ := Lex(strings.NewReader(src), true)
	result := Parse(list)
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	// token 1 is the header identifier, token 3 the assignment key
	headerKey, ok := result.KeyMap[1]
	if !ok {
		t.Fatalf("header identifier not in key map: %v", result.KeyMap)
	}
	if headerKey.Id != "table" {
		t.Errorf("header key id = %q", headerKey.Id)
	}
	assignKey, ok := result.KeyMap[3]
	if !ok {
		t.Fatalf("assignment identifier not in key map: %v", result.KeyMap)
	}
	if assignKey.Id != "key" {
		t.Errorf("assignment key id = %q", assignKey.Id)
	}
	if assignKey.Parent == nil || assignKey.Parent.Get("key") != assignKey {
		t.Errorf("parent back reference broken")
	}
}

func TestImplicitThenExplicitHeader(t *testing.T) {
	result := parseString(t, "a.b = 1\n[a]\n")
	if len(result.Errors) != 0 {
		t.Errorf("implicit table may be defined explicitly later, got %v", result.Errors)
	}
	result = parseString(t, "[a]\nb = 1\n[a.b.c]\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Key b is defined as a bare key." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing bare key error, got %v", result.Errors)
	}
}

func TestUnbalancedBrackets(t *testing.T) {
	result := parseString(t, "a = [1, 2\n")
	found := false
	for _, e := range result.Errors {
		if e.Message == "Unbalanced [." {
			found = true
		}
	}
	if !found {
		t.Errorf("missing unbalanced bracket error, got %v", result.Errors)
	}
}
