// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package parser turns a Zinc token stream into an AST of statements and
// declarations. Expressions are parsed with operator precedence (see
// expr.go) and stored as a flattened reverse-Polish Expr — the "hard
// contract" of spec.md §4.1 that lets the semantic analyzer and constant
// folder walk an expression once, without recursing on its shape.
//
// Grounded on go-corset's pkg/corset/compiler/parser.go: a hand-written
// recursive-descent parser producing a typed AST (pkg/corset/ast), not a
// parser-combinator library.
package parser

import (
	"math/big"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

// TypeExpr is the syntactic (pre-semantic) form of a type reference.
type TypeExpr interface {
	isTypeExpr()
	Location() diagnostic.Location
}

// NamedTypeExpr references a type by identifier: `u8`, `bool`, `field`,
// or a user-defined structure/enumeration name.
type NamedTypeExpr struct {
	Name string
	At   diagnostic.Location
}

func (NamedTypeExpr) isTypeExpr()                     {}
func (t NamedTypeExpr) Location() diagnostic.Location { return t.At }

// ArrayTypeExpr is `[T; N]`; N is an expression since it may reference a
// named constant, folded at S.
type ArrayTypeExpr struct {
	Element TypeExpr
	Size    Expr
	At      diagnostic.Location
}

func (ArrayTypeExpr) isTypeExpr()                     {}
func (t ArrayTypeExpr) Location() diagnostic.Location { return t.At }

// TupleTypeExpr is `(T1, T2, ...)`.
type TupleTypeExpr struct {
	Elements []TypeExpr
	At       diagnostic.Location
}

func (TupleTypeExpr) isTypeExpr()                     {}
func (t TupleTypeExpr) Location() diagnostic.Location { return t.At }

// --------------------------------------------------------------------
// Expressions: the flattened reverse-Polish object sequence.
// --------------------------------------------------------------------

// Expr is a parsed expression, stored as its flattened RPN object
// sequence (spec.md §4.1).
type Expr struct {
	Objects []Object
	At      diagnostic.Location
}

// Object is one element of an Expr's RPN sequence: either an Operand (a
// value-producing leaf) or an Operator (which consumes operands already
// on the evaluation stack and produces one result).
type Object interface {
	isObject()
	Location() diagnostic.Location
}

// OperandKind tags which leaf form an Operand holds.
type OperandKind uint8

const (
	OperandInt OperandKind = iota
	OperandBool
	OperandString
	// OperandPath is a (possibly single-segment, i.e. plain identifier)
	// `::`-separated reference: a variable, constant, function, or
	// enum-variant path, resolved at S.
	OperandPath
	OperandSelf
)

// Operand is a leaf of an Expr: pushes a value, consumes nothing.
type Operand struct {
	Kind     OperandKind
	IntValue *big.Int // OperandInt
	BoolValue bool     // OperandBool
	StringValue string // OperandString
	Path     []string  // OperandPath
	At       diagnostic.Location
}

func (Operand) isObject()                        {}
func (o Operand) Location() diagnostic.Location { return o.At }

// OperatorKind enumerates every operator spec.md's precedence table and
// postfix grammar recognize.
type OperatorKind uint8

const (
	// Arithmetic / bitwise binary.
	OpAdd OperatorKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	// Logical binary.
	OpLogAnd
	OpLogOr
	OpLogXor
	// Comparison / equality.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	// Unary.
	OpNeg
	OpNot
	OpBitNot
	// Range.
	OpRange
	OpRangeInclusive
	// Postfix.
	OpCast
	OpIndex
	OpField
	OpTupleField
	OpCall
	// Assignment family; Compound names the binary op folded into the
	// assignment (OpAdd for `+=`, etc.); IsCompound is false for plain `=`.
	OpAssign
)

// Operator is a non-leaf Expr object: it consumes Arity operands already
// emitted (deepest-first) and produces one result.
type Operator struct {
	Kind OperatorKind
	At   diagnostic.Location

	// CastType is populated when Kind == OpCast.
	CastType TypeExpr
	// FieldName is populated when Kind == OpField.
	FieldName string
	// TupleIndex is populated when Kind == OpTupleField.
	TupleIndex int
	// Argc is the number of argument operands when Kind == OpCall (the
	// callee itself is the Argc+1'th operand already on the stack).
	Argc int
	// Compound, for OpAssign, names the binary operator a compound
	// assignment (`+=`, `&=`, ...) folds in; it is the zero-value
	// OperatorKind (OpAdd) combined with the IsCompound flag to
	// distinguish `=` (IsCompound=false) from an operator-assign.
	Compound    OperatorKind
	IsCompound  bool
}

func (Operator) isObject()                        {}
func (o Operator) Location() diagnostic.Location { return o.At }

// Arity reports how many operands (besides any inline payload) this
// operator consumes from the RPN stack.
func (o Operator) Arity() int {
	switch o.Kind {
	case OpNeg, OpNot, OpBitNot, OpCast:
		return 1
	case OpIndex, OpField, OpTupleField:
		if o.Kind == OpIndex {
			return 2
		}

		return 1
	case OpCall:
		return o.Argc + 1
	case OpAssign:
		return 2
	default:
		return 2
	}
}

// --------------------------------------------------------------------
// Statements and block-structured control flow.
// --------------------------------------------------------------------

// Block is `{ stmt; stmt; ...; tail? }`. Tail, if non-nil, is the block's
// value (its type is the block's type); a block with no tail has type
// Unit.
type Block struct {
	Statements []Statement
	Tail       *Expr
	At         diagnostic.Location
}

// Statement is the closed variant of statement forms.
type Statement interface {
	isStatement()
	Location() diagnostic.Location
}

// LetStmt is `let [mut] name[: Type] = expr;`.
type LetStmt struct {
	Name    string
	Mutable bool
	Type    TypeExpr // nil if omitted
	Value   Expr
	At      diagnostic.Location
}

func (LetStmt) isStatement()                     {}
func (s LetStmt) Location() diagnostic.Location { return s.At }

// ConstStmt is a block-local `const name: Type = expr;`.
type ConstStmt struct {
	Name  string
	Type  TypeExpr
	Value Expr
	At    diagnostic.Location
}

func (ConstStmt) isStatement()                     {}
func (s ConstStmt) Location() diagnostic.Location { return s.At }

// ExprStmt is a bare expression statement (including assignments, which
// are expression-level operators per the precedence table).
type ExprStmt struct {
	Value Expr
	At    diagnostic.Location
}

func (ExprStmt) isStatement()                     {}
func (s ExprStmt) Location() diagnostic.Location { return s.At }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value *Expr
	At     diagnostic.Location
}

func (ReturnStmt) isStatement()                     {}
func (s ReturnStmt) Location() diagnostic.Location { return s.At }

// AssertStmt is `assert(cond[, "message"]);` or its `require` sugar
// (spec.md §9: require lowers to a mandatory-message assert).
type AssertStmt struct {
	Cond     Expr
	Message  *string
	IsRequire bool
	At       diagnostic.Location
}

func (AssertStmt) isStatement()                     {}
func (s AssertStmt) Location() diagnostic.Location { return s.At }

// DbgStmt is `dbg!("fmt", args...);`.
type DbgStmt struct {
	Format string
	Args   []Expr
	At     diagnostic.Location
}

func (DbgStmt) isStatement()                     {}
func (s DbgStmt) Location() diagnostic.Location { return s.At }

// IfExpr is `if cond { then } [else { else }]`. The parser produces it
// only as a statement; it never becomes a block's tail expression.
type IfExpr struct {
	Cond Expr
	Then *Block
	Else *Block // nil ⇒ implicit Unit else-branch
	At   diagnostic.Location
}

func (IfExpr) isStatement()                     {}
func (s IfExpr) Location() diagnostic.Location { return s.At }

// MatchArm is one `pattern => body` arm of a match.
type MatchArm struct {
	Wildcard bool
	// BoolValue/IntValue hold the pattern's literal when !Wildcard; a
	// match over an integer scrutinee may also match a folded range,
	// held in RangeLow/RangeHigh (inclusive) with RangeValid=true.
	BoolValue  bool
	IntValue   *big.Int
	RangeValid bool
	RangeLow   *big.Int
	RangeHigh  *big.Int
	Body       *Block
	At         diagnostic.Location
}

// MatchExpr is `match scrutinee { arm, arm, ... }`.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	At        diagnostic.Location
}

func (MatchExpr) isStatement()                     {}
func (s MatchExpr) Location() diagnostic.Location { return s.At }

// ForStmt is `for index in range { body }`. Body is an ordinary block:
// neither S nor G recognizes a guard in it, so there is no early-exit or
// masking of the remaining iterations.
type ForStmt struct {
	Index string
	Range Expr // must fold to a constant Range/RangeInclusive at S
	Body  *Block
	At    diagnostic.Location
}

func (ForStmt) isStatement()                     {}
func (s ForStmt) Location() diagnostic.Location { return s.At }

// WhileStmt is a top-level `while cond { body }` loop. Unlike the `for`
// loop's inner guard (which the VM must mask to keep a fixed constraint
// shape), a standalone `while` has no enclosing fixed iteration count and
// is restricted by S to compile-time-boundable use (see DESIGN.md).
type WhileStmt struct {
	Cond Expr
	Body *Block
	At   diagnostic.Location
}

func (WhileStmt) isStatement()                     {}
func (s WhileStmt) Location() diagnostic.Location { return s.At }

// --------------------------------------------------------------------
// Declarations.
// --------------------------------------------------------------------

// Declaration is the closed variant of top-level (or module/impl-nested)
// declarations.
type Declaration interface {
	isDeclaration()
	Location() diagnostic.Location
}

// Param is one function parameter; IsSelf marks the `self` receiver,
// which spec.md §4.2 requires to appear only at position 0.
type Param struct {
	Name   string
	Type   TypeExpr
	IsSelf bool
	At     diagnostic.Location
}

// FnDecl is `fn name(params) -> RetType { body }`.
type FnDecl struct {
	Name       string
	Params     []Param
	ReturnType TypeExpr // nil ⇒ Unit
	Body       *Block
	At         diagnostic.Location
}

func (FnDecl) isDeclaration()                    {}
func (d FnDecl) Location() diagnostic.Location { return d.At }

// FieldDecl is one field of a struct declaration.
type FieldDecl struct {
	Name string
	Type TypeExpr
}

// StructDecl is `struct Name { field: Type, ... }`.
type StructDecl struct {
	Name   string
	Fields []FieldDecl
	At     diagnostic.Location
}

func (StructDecl) isDeclaration()                    {}
func (d StructDecl) Location() diagnostic.Location { return d.At }

// EnumVariantDecl is one variant of an enum declaration, with an
// optional explicit discriminant expression (folded to a constant at S).
type EnumVariantDecl struct {
	Name  string
	Value *Expr
	At    diagnostic.Location
}

// EnumDecl is `enum Name { Variant[= expr], ... }`.
type EnumDecl struct {
	Name     string
	Variants []EnumVariantDecl
	At       diagnostic.Location
}

func (EnumDecl) isDeclaration()                    {}
func (d EnumDecl) Location() diagnostic.Location { return d.At }

// ImplDecl is `impl Target { fn ... }`; spec.md §4.2 documents that each
// impl block gets its own independent method namespace (same method name
// may appear on different structures).
type ImplDecl struct {
	Target  string
	Methods []FnDecl
	At      diagnostic.Location
}

func (ImplDecl) isDeclaration()                    {}
func (d ImplDecl) Location() diagnostic.Location { return d.At }

// ModDecl is `mod name { declarations }`.
type ModDecl struct {
	Name         string
	Declarations []Declaration
	At           diagnostic.Location
}

func (ModDecl) isDeclaration()                    {}
func (d ModDecl) Location() diagnostic.Location { return d.At }

// UseDecl is `use A::B::C;`.
type UseDecl struct {
	Path []string
	At   diagnostic.Location
}

func (UseDecl) isDeclaration()                    {}
func (d UseDecl) Location() diagnostic.Location { return d.At }

// TypeAliasDecl is `type Name = Type;`.
type TypeAliasDecl struct {
	Name string
	Type TypeExpr
	At   diagnostic.Location
}

func (TypeAliasDecl) isDeclaration()                    {}
func (d TypeAliasDecl) Location() diagnostic.Location { return d.At }

// ConstDecl is a top-level `const Name: Type = expr;`.
type ConstDecl struct {
	Name  string
	Type  TypeExpr
	Value Expr
	At    diagnostic.Location
}

func (ConstDecl) isDeclaration()                    {}
func (d ConstDecl) Location() diagnostic.Location { return d.At }

// StaticDecl is a top-level `static [mut] Name: Type = expr;`.
type StaticDecl struct {
	Name    string
	Mutable bool
	Type    TypeExpr
	Value   Expr
	At      diagnostic.Location
}

func (StaticDecl) isDeclaration()                    {}
func (d StaticDecl) Location() diagnostic.Location { return d.At }

// Program is the root of a parsed Zinc source file: an ordered sequence
// of top-level declarations.
type Program struct {
	Declarations []Declaration
}
