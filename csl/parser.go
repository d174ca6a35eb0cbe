package csl

import (
	"github.com/confkit/toml-csl/debug"
	"github.com/confkit/toml-csl/token"
)

type parser struct {
	input    *token.List
	pos      int
	errors   []token.Diag
	warnings []token.Diag
}

// Parse consumes a CSL token stream and returns the schemas declared in
// it. Grammar violations accumulate as diagnostics; the parser always
// reaches the end of the stream.
func Parse(input *token.List) ([]*ConfigSchema, []token.Diag, []token.Diag) {
	p := &parser{input: input}
	var schemas []*ConfigSchema
	for !p.end() {
		if p.cur().Text == "config" {
			if schema := p.parseConfigSchema(); schema != nil {
				schemas = append(schemas, schema)
				debug.Schemaf("csl: parsed schema %s\n", schema.Name)
			}
		} else {
			p.pos++
		}
	}
	return schemas, p.errors, p.warnings
}

func (p *parser) end() bool {
	return p.pos >= p.input.Len()
}

func (p *parser) cur() *token.Token {
	return p.input.At(p.pos)
}

func (p *parser) curRegion() token.Region {
	if p.end() {
		if n := p.input.Len(); n > 0 {
			return p.input.At(n - 1).Region
		}
		return token.Region{}
	}
	return p.cur().Region
}

func (p *parser) prevRegion() token.Region {
	if p.pos > 0 {
		return p.input.At(p.pos - 1).Region
	}
	return token.Region{}
}

func (p *parser) errf(region token.Region, format string, args ...any) {
	p.errors = append(p.errors, token.Errf(region, format, args...))
}

// expect reports msg when the current token is not the given text; it
// does not advance.
func (p *parser) expect(text, msg string) {
	if p.end() {
		p.errf(p.prevRegion(), "%s. Found: end of schema", msg)
		return
	}
	if p.cur().Text != text {
		p.errf(p.cur().Region, "%s. Found: %s", msg, p.cur().Text)
	}
}

func (p *parser) expectCategory(cat token.Category, msg string) {
	if p.end() {
		p.errf(p.prevRegion(), "%s. Found: end of schema", msg)
		return
	}
	if p.cur().Category != cat {
		p.errf(p.cur().Region, "%s. Found: %s", msg, p.cur().Text)
	}
}

func (p *parser) parseConfigSchema() *ConfigSchema {
	start := p.cur().Region.Start
	p.pos++ // config
	p.expectCategory(token.Identifier, "Expected schema name after 'config'")
	if p.end() {
		return nil
	}
	name := p.cur().Text
	p.pos++
	root := p.parseTableType()
	if root == nil {
		return nil
	}
	return &ConfigSchema{
		Name:   name,
		Root:   root,
		Region: token.Region{Start: start, End: root.Region().End},
	}
}

func (p *parser) parseTableType() *TableType {
	p.expect("{", "Expected '{' after schema name")
	p.pos++
	if p.end() {
		return nil
	}
	tableStart := p.cur().Region.Start
	var explicitKeys []KeyDefinition
	var wildcardKey *KeyDefinition
	var constraints []Constraint
	for !p.end() && p.cur().Text != "}" {
		switch p.cur().Text {
		case "constraints":
			constraints = p.parseConstraints()
		case "*":
			wildcardKey = p.parseWildcardKey()
		default:
			if def, ok := p.parseKeyDefinition(); ok {
				explicitKeys = append(explicitKeys, def)
			}
		}
	}
	p.expect("}", "Expected '}' to close table type")
	tableEnd := p.curRegion().End
	p.pos++
	return &TableType{
		typeBase:     typeBase{token.Region{Start: tableStart, End: tableEnd}},
		ExplicitKeys: explicitKeys,
		WildcardKey:  wildcardKey,
		Constraints:  constraints,
	}
}

// parseKeyDefinition parses `name[?] (:|=) type [annotations] ;`. A '='
// separator marks the following literal as the key's default.
func (p *parser) parseKeyDefinition() (KeyDefinition, bool) {
	name := p.cur().Text
	p.pos++
	optional := false
	if !p.end() && p.cur().Text == "?" {
		optional = true
		p.pos++
	}
	var typ Type
	var def *Literal
	var annotations []*Annotation
	if !p.end() && (p.cur().Text == ":" || p.cur().Text == "=") {
		isDefault := p.cur().Text == "="
		p.pos++
		if isDefault && !p.end() && p.cur().Tag.Kind != token.TagNone {
			def = &Literal{Text: p.cur().Text, Tag: p.cur().Tag}
		}
		typ = p.parseType()
		annotations = p.parseAnnotations(true)
	} else {
		p.expect(":", "Expected ':' after key name")
		p.pos++
		return KeyDefinition{}, false
	}
	p.expect(";", "Expected ';' after key definition")
	p.pos++
	return KeyDefinition{
		Name:        name,
		Optional:    optional,
		Type:        typ,
		Annotations: annotations,
		Default:     def,
	}, true
}

func (p *parser) parseWildcardKey() *KeyDefinition {
	p.pos++ // *
	p.expect(":", "Expected ':' after wildcard")
	p.pos++
	typ := p.parseType()
	annotations := p.parseAnnotations(true)
	p.expect(";", "Expected ';' after wildcard key")
	p.pos++
	return &KeyDefinition{
		Name:        "*",
		Wildcard:    true,
		Type:        typ,
		Annotations: annotations,
	}
}

// parseType parses a union over postfix types, flattening nested
// unions.
func (p *parser) parseType() Type {
	if p.end() {
		p.errf(p.prevRegion(), "Unexpected end of schema in type")
		return nil
	}
	typeStart := p.cur().Region.Start
	typ := p.parsePostfixType()
	for !p.end() && p.cur().Text == "|" {
		p.pos++
		right := p.parsePostfixType()
		var members []Type
		if u, ok := typ.(*UnionType); ok {
			members = u.Members
		} else if typ != nil {
			members = []Type{typ}
		}
		if u, ok := right.(*UnionType); ok {
			members = append(members, u.Members...)
		} else if right != nil {
			members = append(members, right)
		}
		typ = &UnionType{
			typeBase: typeBase{token.Region{Start: typeStart, End: p.prevRegion().End}},
			Members:  members,
		}
	}
	return typ
}

func (p *parser) parsePostfixType() Type {
	typ := p.parsePrimaryType()
	for !p.end() && p.cur().Text == "[" {
		typeStart := p.cur().Region.Start
		p.pos++
		p.expect("]", "Expected ']' after array type")
		typeEnd := p.curRegion().End
		p.pos++
		typ = &ArrayType{
			typeBase: typeBase{token.Region{Start: typeStart, End: typeEnd}},
			Elem:     typ,
		}
	}
	return typ
}

func (p *parser) parsePrimaryType() Type {
	if p.end() {
		p.errf(p.prevRegion(), "Unexpected end of schema in type")
		return nil
	}
	var members []Type
	typeStart := p.cur().Region.Start
	for !p.end() {
		t := p.cur()
		switch {
		case t.Tag.Kind != token.TagNone &&
			(t.Category == token.Number || t.Category == token.Boolean ||
				t.Category == token.String || t.Category == token.Datetime):
			if lit := p.parseLiteralType(); lit != nil {
				members = append(members, lit)
			}
		case t.Text == "string":
			members = append(members, p.parsePrimitive(PrimString))
		case t.Text == "number":
			members = append(members, p.parsePrimitive(PrimNumber))
		case t.Text == "boolean":
			members = append(members, p.parsePrimitive(PrimBoolean))
		case t.Text == "datetime":
			members = append(members, p.parsePrimitive(PrimDatetime))
		case t.Text == "duration":
			members = append(members, p.parsePrimitive(PrimDuration))
		case t.Text == "any{}":
			members = append(members, &AnyTableType{typeBase{t.Region}})
			p.pos++
		case t.Text == "any[]":
			members = append(members, &AnyArrayType{typeBase{t.Region}})
			p.pos++
		case t.Text == "{":
			if tbl := p.parseTableType(); tbl != nil {
				members = append(members, tbl)
			}
		case t.Text == "(":
			p.pos++
			if inner := p.parseType(); inner != nil {
				members = append(members, inner)
			}
			p.expect(")", "Expected ')' after parenthesized type")
			p.pos++
		default:
			p.errf(t.Region, "Unexpected token in type: %s", t.Text)
			p.pos++
		}
		if p.end() || p.cur().Text != "|" {
			break
		}
		p.pos++
	}
	switch len(members) {
	case 0:
		return nil
	case 1:
		return members[0]
	}
	return &UnionType{
		typeBase: typeBase{token.Region{Start: typeStart, End: p.prevRegion().End}},
		Members:  members,
	}
}

func (p *parser) parsePrimitive(prim Primitive) *PrimitiveType {
	defRegion := p.cur().Region
	p.pos++
	var annotations []*Annotation
	if !p.end() {
		annotations = p.parseAnnotations(false)
	}
	return NewPrimitiveType(prim, nil, annotations, defRegion)
}

func (p *parser) parseLiteralType() Type {
	t := p.cur()
	var prim Primitive
	switch t.Category {
	case token.Number:
		prim = PrimNumber
	case token.Boolean:
		prim = PrimBoolean
	case token.String:
		prim = PrimString
	case token.Datetime:
		prim = PrimDatetime
	default:
		p.errf(t.Region, "Unexpected literal type: %s", t.Text)
		p.pos++
		return nil
	}
	p.pos++
	return NewPrimitiveType(prim, []Literal{{Text: t.Text, Tag: t.Tag}}, nil, t.Region)
}

func isGlobalAnnotation(name string) bool {
	return name == "deprecated"
}

func (p *parser) parseAnnotations(global bool) []*Annotation {
	var annotations []*Annotation
	for !p.end() && p.cur().Text == "@" && p.pos+1 < p.input.Len() &&
		isGlobalAnnotation(p.input.At(p.pos+1).Text) == global {
		if a := p.parseAnnotation(global); a != nil {
			annotations = append(annotations, a)
		}
	}
	return annotations
}

func (p *parser) parseAnnotation(global bool) *Annotation {
	start := p.cur().Region.Start
	p.pos++ // @
	if p.end() {
		p.errf(p.prevRegion(), "Expected annotation name after '@'")
		return nil
	}
	name := p.cur().Text
	if global && !isGlobalAnnotation(name) {
		p.errf(p.cur().Region, "Found local annotation %s when parsing global annotations", name)
	} else if !global && isGlobalAnnotation(name) {
		p.errf(p.cur().Region, "Found global annotation %s when parsing local annotations", name)
	}
	p.pos++
	var args []Expr
	if !p.end() && p.cur().Text == "(" {
		p.pos++
		for !p.end() && p.cur().Text != ")" {
			args = append(args, p.parseExpression(lowestPrecedence))
			if !p.end() && p.cur().Text == "," {
				p.pos++
			}
		}
		p.pos++ // )
	}
	return &Annotation{
		Name:   name,
		Args:   args,
		Region: token.Region{Start: start, End: p.prevRegion().End},
	}
}

func (p *parser) parseConstraints() []Constraint {
	var constraints []Constraint
	p.pos++ // constraints
	p.expect("{", "Expected '{' after constraints")
	p.pos++
	for !p.end() && p.cur().Text != "}" {
		switch p.cur().Text {
		case "conflicts":
			constraints = append(constraints, p.parseConflict())
		case "requires":
			constraints = append(constraints, p.parseDependency())
		case "validate":
			constraints = append(constraints, p.parseValidate())
		default:
			p.pos++
		}
	}
	p.pos++ // }
	if !p.end() && p.cur().Text == ";" {
		p.pos++
	}
	return constraints
}

func (p *parser) parseConflict() Constraint {
	start := p.cur().Region.Start
	p.pos++ // conflicts
	first := p.parseExpression(lowestPrecedence)
	p.expect("with", "Expected 'with' in conflict constraint")
	p.pos++
	second := p.parseExpression(lowestPrecedence)
	p.expect(";", "Expected ';' after conflict")
	end := p.curRegion().End
	p.pos++
	return &ConflictConstraint{
		constraintBase: constraintBase{token.Region{Start: start, End: end}},
		First:          first,
		Second:         second,
	}
}

func (p *parser) parseDependency() Constraint {
	start := p.cur().Region.Start
	p.pos++ // requires
	dependent := p.parseExpression(lowestPrecedence)
	p.expect("=>", "Expected '=>' in dependency")
	p.pos++
	condition := p.parseExpression(lowestPrecedence)
	p.expect(";", "Expected ';' after dependency")
	end := p.curRegion().End
	p.pos++
	return &DependencyConstraint{
		constraintBase: constraintBase{token.Region{Start: start, End: end}},
		Dependent:      dependent,
		Condition:      condition,
	}
}

func (p *parser) parseValidate() Constraint {
	start := p.cur().Region.Start
	p.pos++ // validate
	expr := p.parseExpression(lowestPrecedence)
	p.expect(";", "Expected ';' after validate")
	end := p.curRegion().End
	p.pos++
	return &ValidateConstraint{
		constraintBase: constraintBase{token.Region{Start: start, End: end}},
		Expr:           expr,
	}
}

// parseExpression is precedence-climbing over the operator table.
// Lower precedence binds tighter; right associativity widens the bound
// by one.
func (p *parser) parseExpression(minPrecedence int) Expr {
	if p.end() {
		p.errf(p.prevRegion(), "Unexpected end of schema in expression")
		return nil
	}
	exprStart := p.cur().Region.Start
	lhs := p.parseUnary()
	for !p.end() {
		opText := p.cur().Text
		op, ok := operators[opKey{opText, 1}]
		if !ok {
			break
		}
		if op.precedence >= minPrecedence+op.rightAssoc {
			break
		}
		switch opText {
		case "@":
			annotation := p.parseAnnotation(false)
			if annotation == nil {
				return lhs
			}
			lhs = &AnnotationExpr{
				exprBase:   exprBase{annotation.Region},
				Target:     lhs,
				Annotation: annotation,
			}
		case "?":
			p.pos++
			trueExpr := p.parseExpression(op.precedence)
			p.expect(":", "Expected ':' in conditional expression")
			p.pos++
			falseExpr := p.parseExpression(op.precedence)
			lhs = &TernaryExpr{
				exprBase: exprBase{token.Region{Start: exprStart, End: p.prevRegion().End}},
				Cond:     lhs,
				True:     trueExpr,
				False:    falseExpr,
			}
		default:
			p.pos++
			rhs := p.parseExpression(op.precedence)
			lhs = &BinaryExpr{
				exprBase: exprBase{token.Region{Start: exprStart, End: p.prevRegion().End}},
				Op:       opText,
				LHS:      lhs,
				RHS:      rhs,
			}
		}
	}
	return lhs
}

func (p *parser) parseUnary() Expr {
	if p.end() {
		return nil
	}
	exprStart := p.cur().Region.Start
	opText := p.cur().Text
	if op, ok := operators[opKey{opText, 0}]; ok && op.numOperand == 1 {
		p.pos++
		operand := p.parseExpression(op.precedence)
		return &UnaryExpr{
			exprBase: exprBase{token.Region{Start: exprStart, End: p.prevRegion().End}},
			Op:       opText,
			Operand:  operand,
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	if p.end() {
		p.errf(p.prevRegion(), "Unexpected end of schema in expression")
		return nil
	}
	t := p.cur()
	switch {
	case t.Category == token.String || t.Category == token.Number ||
		t.Category == token.Boolean || t.Category == token.Datetime:
		p.pos++
		return &LiteralExpr{exprBase: exprBase{t.Region}, Tag: t.Tag, Text: t.Text}
	case t.Category == token.Identifier:
		p.pos++
		return &IdentifierExpr{exprBase: exprBase{t.Region}, Name: t.Text}
	case t.Category == token.Keyword:
		return p.parseFunctionCall()
	case t.Text == "(":
		p.pos++
		expr := p.parseExpression(lowestPrecedence)
		p.expect(")", "Expected ')' after expression")
		p.pos++
		return expr
	default:
		p.errf(t.Region, "Unexpected primary token: %s", t.Text)
		p.pos++
		return nil
	}
}

func (p *parser) parseFunctionCall() Expr {
	start := p.cur().Region.Start
	name := p.cur().Text
	p.pos++
	p.expect("(", "Expected '(' after function name")
	p.pos++
	var args []Expr
	for !p.end() && p.cur().Text != ")" {
		var arg Expr
		if p.cur().Text == "[" {
			argStart := p.cur().Region.Start
			p.pos++
			var elems []Expr
			for !p.end() && p.cur().Text != "]" {
				elems = append(elems, p.parseExpression(lowestPrecedence))
				if !p.end() && p.cur().Text == "," {
					p.pos++
				}
			}
			p.pos++ // ]
			arg = &FunctionArgExpr{
				exprBase: exprBase{token.Region{Start: argStart, End: p.prevRegion().End}},
				List:     elems,
			}
		} else {
			argStart := p.cur().Region.Start
			single := p.parseExpression(lowestPrecedence)
			arg = &FunctionArgExpr{
				exprBase: exprBase{token.Region{Start: argStart, End: p.prevRegion().End}},
				Single:   single,
			}
		}
		args = append(args, arg)
		if !p.end() && p.cur().Text == "," {
			p.pos++
		}
	}
	p.pos++ // )
	return &FunctionCallExpr{
		exprBase: exprBase{token.Region{Start: start, End: p.prevRegion().End}},
		Name:     name,
		Args:     args,
	}
}
