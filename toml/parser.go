package toml

import (
	"strings"

	"github.com/confkit/toml-csl/debug"
	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
)

type parsedKeyType int

const (
	keyTable parsedKeyType = iota
	keyArray
	keyPlain
)

// ParseResult carries the document tree, accumulated diagnostics and
// the token-index to Key cross-reference map used by editor features.
// Keys in the map are non-owning references into the tree; consumers
// must not outlive it.
type ParseResult struct {
	Root     *doctree.Table
	Errors   []token.Diag
	Warnings []token.Diag
	KeyMap   map[int]*doctree.Key
}

type parser struct {
	input            *token.List
	pos              int
	docTree          *doctree.Table
	lastDefinedTable *doctree.Table
	headerDefined    map[*doctree.Table]bool
	errors           []token.Diag
	warnings         []token.Diag
	keyMap           map[int]*doctree.Key
}

// Parse consumes the token stream and builds the document tree. All
// rule violations surface as diagnostics with regions; parsing always
// runs to the end of the stream.
func Parse(input *token.List) ParseResult {
	root := doctree.NewTable(true, token.Region{}, false)
	p := &parser{
		input:            input,
		docTree:          root,
		lastDefinedTable: root,
		headerDefined:    map[*doctree.Table]bool{},
		keyMap:           map[int]*doctree.Key{},
	}
	for p.pos < p.input.Len() {
		p.parseStatement(true, false)
	}
	return ParseResult{Root: root, Errors: p.errors, Warnings: p.warnings, KeyMap: p.keyMap}
}

func (p *parser) at(i int) *token.Token {
	return p.input.At(i)
}

func (p *parser) cur() *token.Token {
	return p.input.At(p.pos)
}

func (p *parser) end() bool {
	return p.pos >= p.input.Len()
}

func (p *parser) errf(region token.Region, format string, args ...any) {
	p.errors = append(p.errors, token.Errf(region, format, args...))
}

func (p *parser) warnf(region token.Region, format string, args ...any) {
	p.warnings = append(p.warnings, token.Errf(region, format, args...))
}

func (p *parser) prevRegion() token.Region {
	if p.pos > 0 {
		return p.at(p.pos - 1).Region
	}
	return token.Region{}
}

// isIdentifierToken reports whether the current token can act as a key
// path segment, coercing string, boolean and identifier-shaped number
// tokens in place. Number tokens of the form a.b are split into three
// tokens, promoting the dot to an operator.
func (p *parser) isIdentifierToken(genErrorIfNot bool) bool {
	t := p.cur()
	isIdentifier := false
	switch t.Category {
	case token.Identifier:
		isIdentifier = true
	case token.String:
		if t.Tag.String == token.MultiLineBasic || t.Tag.String == token.MultiLineLiteral {
			p.errf(t.Region, "Multi-line string cannot be used as a key.")
		}
		if len(t.Text) >= 2 && t.Text[1:len(t.Text)-1] == "" {
			p.warnf(t.Region, "Empty string key is not recommended.")
		}
		t.Category = token.Identifier
		isIdentifier = true
	case token.Boolean:
		t.Category = token.Identifier
		isIdentifier = true
	case token.Number:
		if t.Tag.Kind == token.TagSpecialNumber || (len(t.Text) > 0 && t.Text[0] >= '0' && t.Text[0] <= '9') {
			if dot := strings.IndexByte(t.Text, '.'); dot >= 0 {
				_, id1 := checkIdentifier(t.Text[:dot])
				_, id2 := checkIdentifier(t.Text[dot+1:])
				if id1 != "" && id2 != "" {
					region := t.Region
					before := token.Token{
						Text: t.Text[:dot], Category: token.Identifier, Tag: t.Tag,
						Region: token.Region{
							Start: region.Start,
							End:   token.Position{Line: region.Start.Line, Col: region.Start.Col + dot},
						},
					}
					after := token.Token{
						Text: t.Text[dot+1:], Category: token.Identifier, Tag: t.Tag,
						Region: token.Region{
							Start: token.Position{Line: region.Start.Line, Col: region.Start.Col + dot + 1},
							End:   region.End,
						},
					}
					dotTok := token.Token{
						Text: ".", Category: token.Operator,
						Region: token.Region{
							Start: before.Region.End,
							End:   after.Region.Start,
						},
					}
					p.input.Replace3(p.pos, before, dotTok, after)
					isIdentifier = true
				}
			} else {
				start, id := checkIdentifier(t.Text)
				if start == 0 && id != "" {
					t.Category = token.Identifier
					isIdentifier = true
				}
			}
		}
	}
	if genErrorIfNot && !isIdentifier {
		p.errf(t.Region, "Expect key. Got %s.", t.Text)
	}
	return isIdentifier
}

// identifierText resolves the key name of the current segment token,
// stripping quotes from quoted keys.
func (p *parser) identifierText(t *token.Token) string {
	if len(t.Text) > 0 && (t.Text[0] == '"' || t.Text[0] == '\'') {
		return StringContent(t.Text, t.Tag.String)
	}
	return t.Text
}

func (p *parser) parseKey() (parsedKeyType, doctree.Node) {
	var target doctree.Node
	keyType := keyPlain
	if !p.end() && p.cur().Text == "[" {
		if p.pos+1 < p.input.Len() && p.at(p.pos+1).Text == "[" {
			curRegion := p.cur().Region
			nextRegion := p.at(p.pos + 1).Region
			if curRegion.End == nextRegion.Start {
				keyType = keyArray
				p.pos += 2
			} else {
				p.errf(token.Region{Start: curRegion.Start, End: nextRegion.End},
					"Operator [[ cannot be seperated by whitespace.")
			}
		} else {
			keyType = keyTable
			p.pos++
		}
	}
	if p.end() {
		if p.pos > 0 {
			p.errf(p.prevRegion(), "Expect key after %s.", p.at(p.pos-1).Text)
		} else {
			p.errf(token.Region{}, "Expect key at the end of the file.")
		}
		return keyType, nil
	}
	if !p.isIdentifierToken(false) {
		p.errf(p.cur().Region, "Expect key. Got %s.", p.cur().Text)
		return keyType, nil
	}
	curTable := p.lastDefinedTable
	if keyType != keyPlain {
		curTable = p.docTree
	}
	for {
		t := p.cur()
		if !curTable.Mutable {
			p.errf(t.Region, "Key %s is not mutable.", t.Text)
		}
		id := p.identifierText(t)
		hasDot := p.pos+1 < p.input.Len() && p.at(p.pos+1).Text == "."
		if hasDot {
			if key := curTable.Get(id); key == nil {
				if keyType == keyPlain && p.headerDefined[curTable] && p.lastDefinedTable != curTable {
					p.errf(t.Region, "Parent table is already defined.")
				}
				newKey := &doctree.Key{Id: id, Val: doctree.NewTable(true, t.Region, false)}
				curTable.Add(newKey)
				p.keyMap[p.pos] = newKey
				curTable = newKey.Val.(*doctree.Table)
			} else {
				p.keyMap[p.pos] = key
				switch val := key.Val.(type) {
				case *doctree.Table:
					curTable = val
				case *doctree.Array:
					if len(val.Elems) == 0 {
						p.errf(t.Region, "Array %s is empty.", id)
					} else if last, ok := val.Elems[len(val.Elems)-1].(*doctree.Table); ok {
						if keyType == keyPlain {
							p.errf(t.Region, "Cannot append to array with dotted keys.")
						}
						curTable = last
					} else {
						p.errf(t.Region, "Key %s is defined as a bare key.", id)
					}
				default:
					p.errf(t.Region, "Key %s is defined as a bare key.", id)
				}
			}
		} else {
			if key := curTable.Get(id); key == nil {
				if keyType == keyPlain && p.headerDefined[curTable] && p.lastDefinedTable != curTable {
					p.errf(t.Region, "Parent table is already defined.")
				}
				newKey := &doctree.Key{Id: id}
				curTable.Add(newKey)
				p.keyMap[p.pos] = newKey
				switch keyType {
				case keyArray:
					p.lastDefinedTable = doctree.NewTable(true, t.Region, true)
					newKey.Val = &doctree.Array{
						Elems:     []doctree.Node{p.lastDefinedTable},
						Mutable:   true,
						DefRegion: t.Region,
					}
				case keyTable:
					p.lastDefinedTable = doctree.NewTable(true, t.Region, true)
					newKey.Val = p.lastDefinedTable
					p.headerDefined[p.lastDefinedTable] = true
				}
				target = newKey
			} else {
				p.keyMap[p.pos] = key
				switch keyType {
				case keyArray:
					if arr, ok := key.Val.(*doctree.Array); ok {
						if arr.Mutable {
							p.lastDefinedTable = doctree.NewTable(true, t.Region, true)
							arr.Elems = append(arr.Elems, p.lastDefinedTable)
							target = arr
						} else {
							p.errf(t.Region, "Static array %s cannot be modified.", id)
						}
					} else {
						p.errf(t.Region, "Key %s is not an array.", id)
					}
				case keyTable:
					if tbl, ok := key.Val.(*doctree.Table); ok {
						if tbl.Explicit {
							p.errf(t.Region, "Table %s is already defined.", id)
						} else {
							tbl.Explicit = true
							tbl.DefRegion = t.Region
							p.lastDefinedTable = tbl
							target = tbl
						}
					} else {
						p.errf(t.Region, "Key %s is not a table.", id)
					}
				default:
					p.errf(t.Region, "Key %s is already defined.", id)
				}
			}
		}
		p.pos++
		if p.end() || p.cur().Text != "." {
			break
		}
		p.pos++
		if p.end() || !p.isIdentifierToken(true) {
			break
		}
	}
	if keyType != keyPlain {
		p.finishHeader(keyType)
	}
	return keyType, target
}

// finishHeader consumes the closing ] or contiguous ]] of a header.
func (p *parser) finishHeader(keyType parsedKeyType) {
	defComplete := false
	if !p.end() && p.cur().Text == "]" {
		p.pos++
		if keyType == keyTable {
			defComplete = true
		} else if !p.end() && p.cur().Text == "]" {
			curRegion := p.cur().Region
			prevRegion := p.prevRegion()
			if prevRegion.End == curRegion.Start {
				defComplete = true
			} else {
				p.errf(token.Region{Start: prevRegion.Start, End: curRegion.End},
					"Operator ]] cannot be seperated by whitespace.")
			}
			p.pos++
		}
	}
	if defComplete {
		return
	}
	expected := "]"
	if keyType == keyArray {
		expected = "]]"
	}
	if p.end() {
		if p.pos > 0 {
			p.errf(p.prevRegion(), "Expect %s after %s.", expected, p.at(p.pos-1).Text)
		} else {
			p.errf(token.Region{}, "Expect %s at the end of the file.", expected)
		}
	} else {
		p.errf(p.cur().Region, "Expect %s.", expected)
	}
}

// skipToNextDefine advances to the next statement-starting token:
// either a [ or a token on a fresh line.
func (p *parser) skipToNextDefine() {
	for !p.end() && p.cur().Text != "[" &&
		(p.pos == 0 || p.prevRegion().End.Line >= p.cur().Region.Start.Line) {
		p.pos++
	}
}

// skipAssignment consumes a failed assignment's value, reporting
// bracket imbalances with the offender's region.
func (p *parser) skipAssignment() {
	if p.end() {
		p.errf(p.prevRegion(), "Expect an assignment.")
		return
	}
	if p.cur().Text != "=" {
		p.errf(p.cur().Region, "Expect =. Got %s.", p.cur().Text)
	} else {
		p.pos++
	}
	if p.end() {
		p.errf(p.prevRegion(), "Expect a value for the assignment.")
		return
	}
	if p.cur().Text != "[" && p.cur().Text != "{" {
		p.errf(p.cur().Region, "Expect [ or {. Got %s.", p.cur().Text)
	}
	var squares, curls []token.Region
	for {
		switch p.cur().Text {
		case "[":
			squares = append(squares, p.cur().Region)
		case "{":
			curls = append(curls, p.cur().Region)
		case "]":
			if len(squares) == 0 {
				p.errf(p.cur().Region, "Unbalanced [.")
			} else {
				squares = squares[:len(squares)-1]
			}
		case "}":
			if len(curls) == 0 {
				p.errf(p.cur().Region, "Unbalanced {.")
			} else {
				curls = curls[:len(curls)-1]
			}
		}
		p.pos++
		if p.end() || (len(squares) == 0 && len(curls) == 0) {
			break
		}
	}
	for _, r := range squares {
		p.errf(r, "Unbalanced [.")
	}
	for _, r := range curls {
		p.errf(r, "Unbalanced {.")
	}
}

func (p *parser) parseValue() doctree.Node {
	if p.end() {
		p.errf(p.prevRegion(), "Expect a value for the assignment.")
		return nil
	}
	var parsed doctree.Node
	var squares, curls []token.Region
	for {
		switch {
		case p.cur().Text == "[":
			squares = append(squares, p.cur().Region)
			arrayStart := p.cur().Region.Start
			p.pos++
			arr := &doctree.Array{Mutable: true}
			parsed = arr
			for !p.end() && p.cur().Text != "]" {
				elem := p.parseValue()
				if elem != nil {
					arr.Elems = append(arr.Elems, elem)
					if p.end() {
						p.errf(p.prevRegion(), "Expect either a , or a ].")
					} else if p.cur().Text == "," {
						p.pos++
					} else if p.cur().Text != "]" {
						p.errf(p.prevRegion(), "Expect either a , or a ].")
					}
				} else if p.pos > 0 && p.at(p.pos-1).Category != token.Comment {
					p.errf(p.prevRegion(), "Expect an array element.")
				}
			}
			if !p.end() && p.cur().Text == "]" {
				arr.DefRegion = token.Region{Start: arrayStart, End: p.cur().Region.End}
			}
			arr.Seal()
		case p.cur().Text == "{":
			curls = append(curls, p.cur().Region)
			tableStart := p.cur().Region.Start
			allowMultiLine := false
			p.pos++
			tbl := doctree.NewTable(true, token.Region{}, false)
			parsed = tbl
			for !p.end() && p.cur().Text != "}" {
				savedLast := p.lastDefinedTable
				p.lastDefinedTable = tbl
				parsedKey := p.parseStatement(false, true)
				p.lastDefinedTable = savedLast
				if parsedKey == nil {
					p.errf(p.prevRegion(), "Expect a key-value pair.")
				} else {
					switch val := parsedKey.Val.(type) {
					case *doctree.Array, *doctree.Table:
						allowMultiLine = true
					case *doctree.Value:
						if val.Tag.Kind == token.TagString &&
							(val.Tag.String == token.MultiLineBasic || val.Tag.String == token.MultiLineLiteral) {
							allowMultiLine = true
						}
					}
				}
				if p.end() {
					p.errf(p.prevRegion(), "Expect either a , or a }.")
				} else if p.cur().Text == "," {
					p.pos++
				} else if p.cur().Text != "}" {
					p.errf(p.prevRegion(), "Expect either a , or a }.")
				}
			}
			tbl.Seal()
			tbl.Explicit = true
			if !p.end() && p.cur().Text == "}" {
				tableEnd := p.cur().Region.End
				if p.pos > 0 && p.at(p.pos-1).Text == "," {
					p.errf(p.prevRegion(), "A terminating comma is not permitted after the last key-value pair in an inline table.")
				}
				tbl.DefRegion = token.Region{Start: tableStart, End: tableEnd}
				if !allowMultiLine && tableEnd.Line != tableStart.Line {
					p.errf(tbl.DefRegion, "All parts of the inline table definition should be in the same line.")
				}
			}
		case p.cur().Text == "]":
			if len(squares) > 0 {
				squares = squares[:len(squares)-1]
				p.pos++
			}
		case p.cur().Text == "}":
			if len(curls) > 0 {
				curls = curls[:len(curls)-1]
				p.pos++
			}
		case p.cur().Category == token.Comment:
			p.pos++
		default:
			t := p.cur()
			switch t.Tag.Kind {
			case token.TagString, token.TagInteger, token.TagFloat,
				token.TagSpecialNumber, token.TagBoolean, token.TagDateTime:
				parsed = doctree.NewValue(t.Tag, t.Text, t.Region)
			default:
				p.errf(t.Region, "Type of %s is not string, integer, floating-point, NaN, infinity, boolean or date-time.", t.Text)
			}
			p.pos++
		}
		if p.end() {
			break
		}
		if p.cur().Category != token.Comment && len(squares) == 0 && len(curls) == 0 {
			break
		}
	}
	for _, r := range squares {
		p.errf(r, "Unbalanced [.")
	}
	for _, r := range curls {
		p.errf(r, "Unbalanced {.")
	}
	return parsed
}

func (p *parser) parseStatement(requireStartFromNewLine, assignmentOnly bool) *doctree.Key {
	for !p.end() && p.cur().Category == token.Comment {
		p.pos++
	}
	if requireStartFromNewLine && !p.end() && p.pos > 0 &&
		p.cur().Region.Start.Line == p.prevRegion().End.Line {
		p.errf(token.Region{Start: p.prevRegion().Start, End: p.cur().Region.End},
			"Each statement should start from a new line.")
	}
	if p.end() {
		return nil
	}
	keyType, target := p.parseKey()
	if target == nil {
		if keyType == keyPlain {
			p.skipAssignment()
		} else {
			p.skipToNextDefine()
		}
		return nil
	}
	if keyType == keyPlain {
		key := target.(*doctree.Key)
		if p.end() {
			p.errf(p.prevRegion(), "Expect an assignment.")
			return key
		}
		if p.cur().Text != "=" {
			p.errf(p.cur().Region, "Expect =. Got %s.", p.cur().Text)
		} else if p.pos+1 >= p.input.Len() {
			p.errf(p.prevRegion(), "Expect an assignment.")
		} else if p.cur().Region.Start.Line != p.prevRegion().End.Line ||
			p.cur().Region.End.Line != p.at(p.pos+1).Region.Start.Line {
			p.errf(p.cur().Region, "All parts of the assignment must be in the same line.")
			p.pos++
		} else {
			p.pos++
		}
		value := p.parseValue()
		if value != nil {
			key.Val = value
			debug.Parsef("toml: assigned %s\n", key.Id)
		} else {
			p.errf(p.prevRegion(), "Expect a value for the assignment.")
		}
		return key
	}
	if assignmentOnly {
		p.errf(p.prevRegion(), "Only assignment is allowed here.")
	}
	if key, ok := target.(*doctree.Key); ok {
		return key
	}
	return nil
}
