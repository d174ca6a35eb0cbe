// Package csl implements the config schema language front end: lexer,
// Pratt-style parser and the schema IR consumed by the validator.
package csl

import (
	"github.com/confkit/toml-csl/token"
)

// TypeKind discriminates CSLType.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindTable
	KindArray
	KindUnion
	KindAnyTable
	KindAnyArray
)

type Primitive int

const (
	PrimString Primitive = iota
	PrimNumber
	PrimBoolean
	PrimDatetime
	PrimDuration
)

func (p Primitive) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimNumber:
		return "number"
	case PrimBoolean:
		return "boolean"
	case PrimDatetime:
		return "datetime"
	default:
		return "duration"
	}
}

// Type is one of the CSL type shapes. Subtrees may be shared between
// unions and key definitions; the IR is a DAG.
type Type interface {
	Kind() TypeKind
	Region() token.Region
}

type typeBase struct {
	region token.Region
}

func (b typeBase) Region() token.Region { return b.region }

// Literal is an allowed-value literal with its lexeme and payload tag.
type Literal struct {
	Text string
	Tag  token.TypeTag
}

type PrimitiveType struct {
	typeBase
	Primitive   Primitive
	Allowed     []Literal
	Annotations []*Annotation
}

func (*PrimitiveType) Kind() TypeKind { return KindPrimitive }

func NewPrimitiveType(p Primitive, allowed []Literal, annotations []*Annotation, region token.Region) *PrimitiveType {
	return &PrimitiveType{typeBase: typeBase{region}, Primitive: p, Allowed: allowed, Annotations: annotations}
}

// KeyDefinition describes one key of a table type. Wildcard keys have
// name "*" and match any key not covered explicitly.
type KeyDefinition struct {
	Name        string
	Wildcard    bool
	Optional    bool
	Type        Type
	Annotations []*Annotation
	Default     *Literal
}

type TableType struct {
	typeBase
	ExplicitKeys []KeyDefinition
	WildcardKey  *KeyDefinition
	Constraints  []Constraint
}

func (*TableType) Kind() TypeKind { return KindTable }

type ArrayType struct {
	typeBase
	Elem Type
}

func (*ArrayType) Kind() TypeKind { return KindArray }

type UnionType struct {
	typeBase
	Members []Type
}

func (*UnionType) Kind() TypeKind { return KindUnion }

type AnyTableType struct {
	typeBase
}

func (*AnyTableType) Kind() TypeKind { return KindAnyTable }

type AnyArrayType struct {
	typeBase
}

func (*AnyArrayType) Kind() TypeKind { return KindAnyArray }

// Annotation is an @name(args...) attached to a type or key.
type Annotation struct {
	Name   string
	Args   []Expr
	Region token.Region
}

// ConstraintKind discriminates Constraint.
type ConstraintKind int

const (
	ConstraintConflict ConstraintKind = iota
	ConstraintDependency
	ConstraintValidate
)

type Constraint interface {
	Kind() ConstraintKind
	Region() token.Region
}

type constraintBase struct {
	region token.Region
}

func (b constraintBase) Region() token.Region { return b.region }

// ConflictConstraint: conflicts a with b;
type ConflictConstraint struct {
	constraintBase
	First  Expr
	Second Expr
}

func (*ConflictConstraint) Kind() ConstraintKind { return ConstraintConflict }

// DependencyConstraint: requires a => b;
type DependencyConstraint struct {
	constraintBase
	Dependent Expr
	Condition Expr
}

func (*DependencyConstraint) Kind() ConstraintKind { return ConstraintDependency }

// ValidateConstraint: validate expr;
type ValidateConstraint struct {
	constraintBase
	Expr Expr
}

func (*ValidateConstraint) Kind() ConstraintKind { return ConstraintValidate }

// Expr is the constraint/annotation expression sub-language.
type Expr interface {
	Region() token.Region
}

type exprBase struct {
	region token.Region
}

func (b exprBase) Region() token.Region { return b.region }

type BinaryExpr struct {
	exprBase
	Op  string
	LHS Expr
	RHS Expr
}

type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

type TernaryExpr struct {
	exprBase
	Cond  Expr
	True  Expr
	False Expr
}

type LiteralExpr struct {
	exprBase
	Tag  token.TypeTag
	Text string
}

type IdentifierExpr struct {
	exprBase
	Name string
}

// FunctionArgExpr wraps a function argument: either a single expression
// or a bracketed expression list.
type FunctionArgExpr struct {
	exprBase
	Single Expr
	List   []Expr
}

type FunctionCallExpr struct {
	exprBase
	Name string
	Args []Expr
}

// AnnotationExpr applies an annotation to the value of a target
// expression, e.g. all_keys(t)@max_length(8).
type AnnotationExpr struct {
	exprBase
	Target     Expr
	Annotation *Annotation
}

// ConfigSchema is the root of one config NAME { ... } declaration.
type ConfigSchema struct {
	Name   string
	Root   *TableType
	Region token.Region
}
