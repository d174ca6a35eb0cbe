package toml

import (
	"strings"
	"testing"

	"github.com/confkit/toml-csl/token"
)

func lexString(t *testing.T, src string) (*token.List, []token.Diag, []token.Diag) {
	t.Helper()
	return Lex(strings.NewReader(src), true)
}

func hasDiag(diags []token.Diag, message string) bool {
	for _, d := range diags {
		if d.Message == message {
			return true
		}
	}
	return false
}

func TestLexBasic(t *testing.T) {
	list, errs, warns := lexString(t, "x = 1\n[a]\ny = \"hi\"\n")
	if len(errs) != 0 || len(warns) != 0 {
		t.Fatalf("unexpected diagnostics: %v %v", errs, warns)
	}
	var texts []string
	var cats []token.Category
	for _, tok := range list.Tokens() {
		texts = append(texts, tok.Text)
		cats = append(cats, tok.Category)
	}
	wantTexts := []string{"x", "=", "1", "[", "a", "]", "y", "=", `"hi"`}
	if len(texts) != len(wantTexts) {
		t.Fatalf("tokens = %v, want %v", texts, wantTexts)
	}
	for i := range texts {
		if texts[i] != wantTexts[i] {
			t.Errorf("token %d = %q, want %q", i, texts[i], wantTexts[i])
		}
	}
	wantCats := []token.Category{
		token.Identifier, token.Operator, token.Number,
		token.Punctuator, token.Identifier, token.Punctuator,
		token.Identifier, token.Operator, token.String,
	}
	for i := range cats {
		if cats[i] != wantCats[i] {
			t.Errorf("token %d category = %v, want %v", i, cats[i], wantCats[i])
		}
	}
}

func TestTokenCoverage(t *testing.T) {
	list, _, _ := lexString(t, "key = 1979-05-27\nflag = true\npi = 3.14\n")
	for _, tok := range list.Tokens() {
		if tok.Region.Start.Line != tok.Region.End.Line {
			continue
		}
		if len(tok.Text) != tok.Region.ColSpan()-1 {
			t.Errorf("token %q: len %d, colSpan-1 %d", tok.Text, len(tok.Text), tok.Region.ColSpan()-1)
		}
	}
}

func TestUnterminatedMultilineString(t *testing.T) {
	_, errs, _ := lexString(t, "x = \"\"\"abc")
	if !hasDiag(errs, "String literal is not closed.") {
		t.Errorf("missing unterminated string error, got %v", errs)
	}
}

func TestGroupingWarning(t *testing.T) {
	list, errs, warns := lexString(t, "x = 1_2_3")
	if !hasDiag(warns, "Number literal is not grouped reasonably.") {
		t.Errorf("missing grouping warning, got %v", warns)
	}
	if len(errs) != 0 {
		t.Errorf("grouping must be a warning, got errors %v", errs)
	}
	found := false
	for _, tok := range list.Tokens() {
		if tok.Text == "1_2_3" && tok.Category == token.Number {
			found = true
		}
	}
	if !found {
		t.Errorf("1_2_3 not lexed as a number")
	}
}

func TestReasonableGrouping(t *testing.T) {
	_, _, warns := lexString(t, "x = 1_000_000\ny = 12_34_56\n")
	if len(warns) != 0 {
		t.Errorf("unexpected grouping warnings: %v", warns)
	}
}

func TestSignedBaseLiteral(t *testing.T) {
	_, errs, _ := lexString(t, "x = -0x10\n")
	if !hasDiag(errs, "Number literal in hexadecimal, octal or binary cannot have a positive or negative sign.") {
		t.Errorf("missing signed base literal error, got %v", errs)
	}
}

func TestDateValidation(t *testing.T) {
	list, _, _ := lexString(t, "a = 2024-02-29\n")
	tok := list.At(2)
	if tok.Category != token.Datetime || tok.Tag.DateTime != token.LocalDate {
		t.Errorf("2024-02-29 = %v, want local date", tok.Info())
	}

	list, _, _ = lexString(t, "a = 2023-02-29\n")
	tok = list.At(2)
	if tok.Category == token.Datetime {
		t.Errorf("2023-02-29 must not lex as a date")
	}
}

func TestOffsetDateTime(t *testing.T) {
	list, _, _ := lexString(t, "a = 1979-05-27T07:32:00Z\nb = 07:32:00\n")
	if tok := list.At(2); tok.Tag.DateTime != token.OffsetDateTime {
		t.Errorf("offset datetime tag = %v", tok.Info())
	}
	if tok := list.At(5); tok.Tag.DateTime != token.LocalTime {
		t.Errorf("local time tag = %v", tok.Info())
	}
}

func TestStringForms(t *testing.T) {
	src := "a = \"basic\"\nb = 'literal'\nc = \"\"\"\nmulti\nline\"\"\"\nd = '''raw\nlines'''\n"
	list, errs, _ := lexString(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	kinds := map[string]token.StringKind{}
	for _, tok := range list.Tokens() {
		if tok.Category == token.String {
			kinds[tok.Text] = tok.Tag.String
		}
	}
	if kinds[`"basic"`] != token.Basic {
		t.Errorf("basic form mislabeled")
	}
	if kinds[`'literal'`] != token.Literal {
		t.Errorf("literal form mislabeled")
	}
	foundMulti := false
	for text, kind := range kinds {
		if strings.HasPrefix(text, `"""`) && kind == token.MultiLineBasic {
			foundMulti = true
		}
	}
	if !foundMulti {
		t.Errorf("multi-line basic form not found: %v", kinds)
	}
}

func TestStringContent(t *testing.T) {
	cases := []struct {
		lexeme string
		kind   token.StringKind
		want   string
	}{
		{`"a\tb"`, token.Basic, "a\tb"},
		{`"A"`, token.Basic, "A"},
		{"'no\\escape'", token.Literal, `no\escape`},
		{"\"\"\"\nab\"\"\"", token.MultiLineBasic, "ab"},
		{"'''\nab'''", token.MultiLineLiteral, "ab"},
	}
	for _, c := range cases {
		if got := StringContent(c.lexeme, c.kind); got != c.want {
			t.Errorf("StringContent(%q) = %q, want %q", c.lexeme, got, c.want)
		}
	}
}

func TestUnknownToken(t *testing.T) {
	_, errs, _ := lexString(t, "x = $$$\n")
	found := false
	for _, e := range errs {
		if strings.HasPrefix(e.Message, "Unknown token:") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing unknown token error, got %v", errs)
	}
}

func TestDecimalString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0x1F", "31"},
		{"0o17", "15"},
		{"0b101", "5"},
		{"42", "42"},
		{"-0x10", "-16"},
	}
	for _, c := range cases {
		if got := DecimalString(c.in); got != c.want {
			t.Errorf("DecimalString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
