package csl

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/confkit/toml-csl/debug"
	"github.com/confkit/toml-csl/token"
)

type lexer struct {
	in             *bufio.Reader
	multilineToken bool
	errors         []token.Diag
	warnings       []token.Diag
}

var (
	blankRe  = regexp.MustCompile(`^\s*$`)
	loneCRRe = regexp.MustCompile(`\r([^\n]|$)`)
)

// Lex tokenizes CSL source. Comments are validated but not emitted as
// tokens. Diagnostics accumulate; lexing never fails.
func Lex(r io.Reader, multilineToken bool) (*token.List, []token.Diag, []token.Diag) {
	lx := &lexer{in: bufio.NewReader(r), multilineToken: multilineToken}
	list := lx.run()
	return list, lx.errors, lx.warnings
}

func (lx *lexer) getline() (string, bool) {
	var sb strings.Builder
	for {
		b, err := lx.in.ReadByte()
		if err != nil {
			return sb.String(), sb.Len() > 0
		}
		if b == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), true
		}
		sb.WriteByte(b)
	}
}

func (lx *lexer) atEOF() bool {
	_, err := lx.in.Peek(1)
	return err != nil
}

func (lx *lexer) run() *token.List {
	list := &token.List{}
	cur := token.Position{}
	var buf string
	continued := false
	for {
		line, ok := lx.getline()
		if !ok {
			if continued {
				errRegion := token.Region{
					Start: token.Position{Line: cur.Line},
					End:   token.Position{Line: cur.Line, Col: strings.IndexByte(buf, '\n')},
				}
				lx.errors = append(lx.errors, token.Errf(errRegion, "String literal is not closed."))
				lx.consume(list, buf, &cur)
			}
			break
		}
		if blankRe.MatchString(line) {
			if loneCRRe.MatchString(line) {
				region := token.Region{
					Start: token.Position{Line: cur.Line},
					End:   token.Position{Line: cur.Line, Col: len(line)},
				}
				lx.errors = append(lx.errors, token.Errf(region, "Line ending is not valid."))
			}
			cur.Line++
			cur.Col = 0
			if !lx.atEOF() || blankRe.MatchString(buf) {
				continue
			}
		}
		if continued {
			buf += line
		} else {
			buf = line
		}
		if hasIncompleteString(buf) {
			continued = true
			buf += "\n"
			if !lx.atEOF() {
				continue
			}
			errRegion := token.Region{
				Start: token.Position{Line: cur.Line},
				End:   token.Position{Line: cur.Line, Col: strings.IndexByte(buf, '\n')},
			}
			lx.errors = append(lx.errors, token.Errf(errRegion, "String literal is not closed."))
		}
		continued = false
		lx.consume(list, buf, &cur)
		buf = ""
		list.Flush()
		cur.Line++
		cur.Col = 0
	}
	list.Flush()
	for _, t := range list.Tokens() {
		if t.Category == token.Unknown {
			lx.errors = append(lx.errors, token.Errf(t.Region, "Unknown token: %s.", t.Text))
		}
	}
	return list
}

func (lx *lexer) consume(list *token.List, code string, cur *token.Position) {
	for len(code) > 0 {
		if start, text := checkComment(code); text != "" {
			tokenStart := token.EndOf(code[:start], *cur)
			tokenEnd := token.EndOf(text, tokenStart)
			region := token.Region{Start: tokenStart, End: tokenEnd}
			// comments carry no token but their content is still checked
			*cur = tokenEnd
			code = code[start+len(text):]
			if !commentContentValid(text) {
				lx.errors = append(lx.errors, token.Errf(region, "Comment contains invalid content."))
			}
			continue
		}
		if tag, start, text := checkString(code); text != "" {
			lx.emit(list, code, start, text, token.String, tag, cur)
			code = code[start+len(text):]
			continue
		}
		if tag, start, text := checkDateTime(code); text != "" {
			lx.emit(list, code, start, text, token.Datetime, tag, cur)
			code = code[start+len(text):]
			continue
		}
		if tag, start, text := checkNumeric(code); text != "" {
			region := lx.emit(list, code, start, text, token.Number, tag, cur)
			code = code[start+len(text):]
			if !reasonablyGrouped(text) {
				lx.warnings = append(lx.warnings, token.Errf(region, "Number literal is not grouped reasonably."))
			}
			continue
		}
		if tag, start, text := checkBoolean(code); text != "" {
			lx.emit(list, code, start, text, token.Boolean, tag, cur)
			code = code[start+len(text):]
			continue
		}
		if start, text := checkKeyword(code); text != "" {
			lx.emit(list, code, start, text, token.Keyword, token.TypeTag{}, cur)
			code = code[start+len(text):]
			continue
		}
		if start, text := checkType(code); text != "" {
			lx.emit(list, code, start, text, token.Type, token.TypeTag{}, cur)
			code = code[start+len(text):]
			continue
		}
		// punctuator runs before operator so => stays one token
		if start, text := checkPunctuator(code); text != "" {
			lx.emit(list, code, start, text, token.Punctuator, token.TypeTag{}, cur)
			code = code[start+len(text):]
			continue
		}
		if start, text := checkOperator(code); text != "" {
			lx.emit(list, code, start, text, token.Operator, token.TypeTag{}, cur)
			code = code[start+len(text):]
			continue
		}
		if start, text := checkIdentifier(code); text != "" {
			lx.emit(list, code, start, text, token.Identifier, token.TypeTag{}, cur)
			code = code[start+len(text):]
			continue
		}
		if blankRe.MatchString(code) {
			*cur = token.EndOf(code, *cur)
			return
		}
		if !list.IsBuffered() {
			list.SetPending(token.Unknown)
		}
		debug.Lexf("csl: unknown byte %q at %s\n", code[0], cur)
		list.AppendPending(code[0])
		if code[0] == '\n' {
			cur.Line++
			cur.Col = 0
		} else {
			cur.Col++
		}
		code = code[1:]
	}
}

func (lx *lexer) emit(list *token.List, code string, start int, text string, cat token.Category, tag token.TypeTag, cur *token.Position) token.Region {
	tokenStart := token.EndOf(code[:start], *cur)
	tokenEnd := token.EndOf(text, tokenStart)
	region := token.Region{Start: tokenStart, End: tokenEnd}
	list.Add(token.Token{Text: text, Category: cat, Tag: tag, Region: region})
	*cur = tokenEnd
	return region
}
