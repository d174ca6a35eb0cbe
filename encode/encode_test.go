package encode

import (
	"strings"
	"testing"

	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/toml"
)

func parseDoc(t *testing.T, src string) *doctree.Table {
	t.Helper()
	list, lexErrs, _ := toml.Lex(strings.NewReader(src), true)
	if len(lexErrs) != 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	result := toml.Parse(list)
	if len(result.Errors) != 0 {
		t.Fatalf("parse errors: %v", result.Errors)
	}
	return result.Root
}

func TestTaggedJSON(t *testing.T) {
	root := parseDoc(t, "x = 1\n[a]\ny = \"hi\"\n")
	got := JSON(root, true)
	want := `{"x":{"type":"integer","value":"1"},"a":{"y":{"type":"string","value":"hi"}}}`
	if got != want {
		t.Errorf("tagged JSON = %s, want %s", got, want)
	}
}

func TestUntaggedJSON(t *testing.T) {
	root := parseDoc(t, "i = 0x1F\nf = 2.5\nb = true\ns = \"v\"\narr = [1, 2]\n")
	got := JSON(root, false)
	want := `{"i":31,"f":2.5,"b":true,"s":"v","arr":[1,2]}`
	if got != want {
		t.Errorf("untagged JSON = %s, want %s", got, want)
	}
}

func TestIntegerNormalization(t *testing.T) {
	root := parseDoc(t, "a = 0x10\nb = 1_000\nc = +42\n")
	got := JSON(root, true)
	for _, want := range []string{`"value":"16"`, `"value":"1000"`, `"value":"42"`} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON %s missing %s", got, want)
		}
	}
}

func TestSpecialNumberTagging(t *testing.T) {
	root := parseDoc(t, "a = nan\nb = -nan\nc = inf\nd = -inf\n")
	tagged := JSON(root, true)
	for _, want := range []string{
		`"a":{"type":"float","value":"nan"}`,
		`"b":{"type":"float","value":"nan"}`,
		`"c":{"type":"float","value":"inf"}`,
		`"d":{"type":"float","value":"-inf"}`,
	} {
		if !strings.Contains(tagged, want) {
			t.Errorf("tagged JSON %s missing %s", tagged, want)
		}
	}
}

func TestDatetimeTagging(t *testing.T) {
	root := parseDoc(t, "a = 1979-05-27T07:32:00Z\nb = 1979-05-27T07:32:00\nc = 1979-05-27\nd = 07:32:00\n")
	tagged := JSON(root, true)
	for _, want := range []string{
		`"a":{"type":"datetime"`,
		`"b":{"type":"datetime-local"`,
		`"c":{"type":"date-local"`,
		`"d":{"type":"time-local"`,
	} {
		if !strings.Contains(tagged, want) {
			t.Errorf("tagged JSON %s missing %s", tagged, want)
		}
	}
}

func TestFormatIdempotence(t *testing.T) {
	sources := []string{
		"x = 1\n[a]\ny = \"hi\"\nz = [1, 2]\n",
		"b = true\na = 2.5\n[t]\nk = \"v\"\n[t.u]\nw = 1\n",
		"[[fruit]]\nname = \"apple\"\n[[fruit]]\nname = \"banana\"\n",
		"inline = { a = 1, b = 2 }\n",
	}
	for _, src := range sources {
		once := Toml(parseDoc(t, src))
		twice := Toml(parseDoc(t, once))
		if once != twice {
			t.Errorf("format not idempotent for %q:\nonce:\n%s\ntwice:\n%s", src, once, twice)
		}
	}
}

func TestFormatSortsKeys(t *testing.T) {
	out := Toml(parseDoc(t, "b = 2\na = 1\n"))
	if strings.Index(out, "a = 1") > strings.Index(out, "b = 2") {
		t.Errorf("keys not sorted:\n%s", out)
	}
}
