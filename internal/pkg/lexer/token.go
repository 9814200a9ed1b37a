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

// Package lexer tokenizes Zinc source text, grounded on go-corset's
// generic scanner-rule lexer (pkg/util/source/lex) but specialized to a
// single concrete token alphabet since Zinc's lexical grammar (unlike
// go-corset's s-expression front end) is fixed, not user-extensible.
package lexer

import "github.com/zinc-lang/zinc/internal/diagnostic"

// Kind tags a Token's lexical category.
type Kind uint16

// The token alphabet: keywords, identifiers, literals, operators, and
// delimiters (spec.md §4.1).
const (
	EOF Kind = iota
	Ident

	// Literals.
	IntLiteral
	StringLiteral
	True
	False

	// Keywords.
	KwFn
	KwLet
	KwMut
	KwConst
	KwStatic
	KwStruct
	KwEnum
	KwImpl
	KwMod
	KwUse
	KwType
	KwFor
	KwIn
	KwWhile
	KwIf
	KwElse
	KwMatch
	KwReturn
	KwRequire
	KwAssert
	KwDbg
	KwAs
	KwSelf

	// Operators (assignment family).
	Assign    // =
	PlusEq    // +=
	MinusEq   // -=
	StarEq    // *=
	SlashEq   // /=
	PercentEq // %=
	PipeEq    // |=
	CaretEq   // ^=
	AmpEq     // &=
	ShlEq     // <<=
	ShrEq     // >>=

	// Range.
	DotDot   // ..
	DotDotEq // ..=

	// Logical.
	OrOr   // ||
	XorXor // ^^
	AndAnd // &&
	Not    // !

	// Equality / comparison.
	EqEq // ==
	NotEq
	Lt
	Le
	Gt
	Ge

	// Bitwise.
	Pipe  // |
	Caret // ^
	Amp   // &
	Shl   // <<
	Shr   // >>

	// Arithmetic.
	Plus
	Minus
	Star
	Slash
	Percent
	Tilde // ~

	// Postfix / misc.
	Dot
	ColonColon
	Colon
	Comma
	Semicolon
	Arrow // ->
	FatArrow // =>

	// Delimiters.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

// Token is a single lexical unit tagged with its source Location
// (spec.md §2: "each tagged with a Location{line, column, file}").
type Token struct {
	Kind Kind
	Text string
	At   diagnostic.Location
}

var keywords = map[string]Kind{
	"fn": KwFn, "let": KwLet, "mut": KwMut, "const": KwConst, "static": KwStatic,
	"struct": KwStruct, "enum": KwEnum, "impl": KwImpl, "mod": KwMod, "use": KwUse,
	"type": KwType, "for": KwFor, "in": KwIn, "while": KwWhile, "if": KwIf,
	"else": KwElse, "match": KwMatch, "return": KwReturn, "require": KwRequire,
	"assert": KwAssert, "dbg": KwDbg, "as": KwAs, "self": KwSelf,
	"true": True, "false": False,
}
