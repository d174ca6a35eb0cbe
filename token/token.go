package token

import "fmt"

// Category classifies a token. The set is closed; lexers never invent
// new categories.
type Category int

const (
	Datetime Category = iota
	Number
	Boolean
	Identifier
	Keyword
	Type
	Punctuator
	Operator
	Comment
	String
	Unknown
)

func (c Category) String() string {
	switch c {
	case Datetime:
		return "datetime"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Identifier:
		return "identifier"
	case Keyword:
		return "keyword"
	case Type:
		return "type"
	case Punctuator:
		return "punctuator"
	case Operator:
		return "operator"
	case Comment:
		return "comment"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Token is a lexeme with its classification, optional typed payload and
// source region.
type Token struct {
	Text     string
	Category Category
	Tag      TypeTag
	Region   Region
}

func (t *Token) Info() string {
	return fmt.Sprintf("%s %q %s", t.Category, t.Text, t.Region)
}

// Diag is an accumulated error or warning. The front ends never fail on
// bad input; they collect Diags and keep going.
type Diag struct {
	Message string
	Region  Region
}

func Errf(region Region, format string, args ...any) Diag {
	return Diag{Message: fmt.Sprintf(format, args...), Region: region}
}

// List holds the token sequence plus the pending buffer used to
// accumulate runs of unrecognized bytes into single unknown tokens.
type List struct {
	toks []Token

	pending      []byte
	pendingCat   Category
	pendingStart Position
	pendingEnd   Position
	buffered     bool
}

func (l *List) Add(t Token) {
	l.Flush()
	l.toks = append(l.toks, t)
}

// SetPending sets the classification for the buffered token without
// touching already-buffered content.
func (l *List) SetPending(cat Category) {
	l.pendingCat = cat
}

// AppendPending grows the buffered token by one byte. The buffered
// region starts where the previous token ended.
func (l *List) AppendPending(b byte) {
	if !l.buffered {
		if n := len(l.toks); n > 0 {
			l.pendingStart = l.toks[n-1].Region.End
		} else {
			l.pendingStart = Position{}
		}
		l.pendingEnd = l.pendingStart
		l.buffered = true
	}
	l.pending = append(l.pending, b)
	if b == '\n' {
		l.pendingEnd.Line++
		l.pendingEnd.Col = 0
	} else {
		l.pendingEnd.Col++
	}
}

func (l *List) IsBuffered() bool {
	return l.buffered
}

func (l *List) Flush() {
	if len(l.pending) == 0 {
		return
	}
	l.toks = append(l.toks, Token{
		Text:     string(l.pending),
		Category: l.pendingCat,
		Region:   Region{Start: l.pendingStart, End: l.pendingEnd},
	})
	l.pending = nil
	l.buffered = false
}

func (l *List) Len() int {
	return len(l.toks)
}

func (l *List) At(i int) *Token {
	return &l.toks[i]
}

func (l *List) Tokens() []Token {
	return l.toks
}

// Replace3 splits the token at i into three tokens in place. Indices
// recorded for tokens before i remain valid; the caller continues at i.
func (l *List) Replace3(i int, a, b, c Token) {
	l.toks = append(l.toks, Token{}, Token{})
	copy(l.toks[i+3:], l.toks[i+1:])
	l.toks[i] = a
	l.toks[i+1] = b
	l.toks[i+2] = c
}
