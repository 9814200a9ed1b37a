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

package sema

import (
	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// Block is the typed form of a parser.Block: its statements have already
// been checked and its tail (if any) carries its resolved type.
type Block struct {
	Source *parser.Block
	Type   ast.Type
}

// checkBlock type-checks every statement in b in a fresh child scope (so
// `let`-bound locals shadow correctly and fall out of scope at the closing
// brace), then resolves the block's type from its trailing expression, if
// any (spec.md §3: "a block with no tail has type Unit").
func (a *Analyzer) checkBlock(scope *ast.Scope, b *parser.Block) (*Block, error) {
	inner := ast.NewScope(scope, "")

	for _, stmt := range b.Statements {
		if err := a.checkStmt(inner, stmt); err != nil {
			return nil, err
		}
	}

	if b.Tail == nil {
		return &Block{Source: b, Type: ast.Unit{}}, nil
	}

	el, err := a.checkExpr(inner, *b.Tail)
	if err != nil {
		return nil, err
	}

	return &Block{Source: b, Type: deref(el).TypeOf()}, nil
}

func (a *Analyzer) checkStmt(scope *ast.Scope, stmt parser.Statement) error {
	switch s := stmt.(type) {
	case parser.LetStmt:
		return a.checkLet(scope, s)
	case parser.ConstStmt:
		return a.checkConstStmt(scope, s)
	case parser.ExprStmt:
		_, err := a.checkExpr(scope, s.Value)
		return err
	case parser.ReturnStmt:
		return a.checkReturn(scope, s)
	case parser.AssertStmt:
		return a.checkAssert(scope, s)
	case parser.DbgStmt:
		return a.checkDbg(scope, s)
	case *parser.IfExpr:
		_, err := a.checkIf(scope, s)
		return err
	case parser.MatchExpr:
		_, err := a.checkMatch(scope, s)
		return err
	case parser.ForStmt:
		return a.checkFor(scope, s)
	case parser.WhileStmt:
		return a.checkWhile(scope, s)
	default:
		panic("unreachable statement kind")
	}
}

func (a *Analyzer) checkLet(scope *ast.Scope, s parser.LetStmt) error {
	el, err := a.checkExpr(scope, s.Value)
	if err != nil {
		return err
	}

	el = deref(el)

	var declType ast.Type

	if s.Type != nil {
		declType, err = a.resolveType(scope, s.Type)
		if err != nil {
			return err
		}

		if !assignable(el, declType) {
			return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, s.At,
				"cannot assign %s to %q of declared type %s", el.TypeOf().String(), s.Name, declType.String())
		}
	} else {
		declType = finalize(el).TypeOf()
	}

	return scope.Declare(s.Name, ast.Item{Kind: ast.ItemVariable, Type: declType, Mutable: s.Mutable, DeclaredAt: s.At})
}

func (a *Analyzer) checkConstStmt(scope *ast.Scope, s parser.ConstStmt) error {
	el, err := a.checkExpr(scope, s.Value)
	if err != nil {
		return err
	}

	if el.Kind != ast.KindConstant {
		return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, s.At, "const %q must be a compile-time constant", s.Name)
	}

	declType := finalize(el).TypeOf()

	if s.Type != nil {
		declType, err = a.resolveType(scope, s.Type)
		if err != nil {
			return err
		}

		if !assignable(el, declType) {
			return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, s.At,
				"cannot assign %s to const %q of declared type %s", el.TypeOf().String(), s.Name, declType.String())
		}

		if c, ok := el.Const.(ast.ConstInt); ok && isUntyped(el.TypeOf()) && ast.IsInteger(declType) {
			bl, signed := ast.IntegerBitlength(declType)
			el = ast.Element{Kind: ast.KindConstant, Typ: declType, Const: ast.ConstInt{Value: c.Value, IsSigned: signed, Bitlength: bl}}
		}
	}

	el = finalize(el)

	if err := scope.Declare(s.Name, ast.Item{Kind: ast.ItemConstant, Type: declType, DeclaredAt: s.At}); err != nil {
		return err
	}

	a.constVals[s.At] = el.Const

	return nil
}

func (a *Analyzer) checkReturn(scope *ast.Scope, s parser.ReturnStmt) error {
	if s.Value == nil {
		if _, ok := a.currentReturn.(ast.Unit); !ok {
			return diagnostic.New(diagnostic.CodeReturnTypeMismatch, s.At,
				"function must return %s, but `return;` yields ()", a.currentReturn.String()).
				WithReference(a.currentReturnAt, "declared return type here")
		}

		return nil
	}

	el, err := a.checkExpr(scope, *s.Value)
	if err != nil {
		return err
	}

	el = finalize(deref(el))

	if !assignable(el, a.currentReturn) {
		return diagnostic.New(diagnostic.CodeReturnTypeMismatch, s.At,
			"function returns %s, found %s", a.currentReturn.String(), el.TypeOf().String()).
			WithReference(a.currentReturnAt, "declared return type here")
	}

	return nil
}

func (a *Analyzer) checkAssert(scope *ast.Scope, s parser.AssertStmt) error {
	el, err := a.checkExpr(scope, s.Cond)
	if err != nil {
		return err
	}

	return requireBoolean(s.At, "assert condition", deref(el).TypeOf())
}

func (a *Analyzer) checkDbg(scope *ast.Scope, s parser.DbgStmt) error {
	for _, arg := range s.Args {
		if _, err := a.checkExpr(scope, arg); err != nil {
			return err
		}
	}

	return nil
}

// checkIf type-checks an if/else, including the invariant that both arms
// agree in type (or, with no else, that the then-arm is Unit). It is only
// ever reached as a statement under this grammar (see DESIGN.md's Open
// Question note on if-as-tail-expression), but the branch-equality rule is
// still enforced since it is meaningful regardless.
func (a *Analyzer) checkIf(scope *ast.Scope, s *parser.IfExpr) (ast.Type, error) {
	cond, err := a.checkExpr(scope, s.Cond)
	if err != nil {
		return nil, err
	}

	if err := requireBoolean(s.At, "if condition", deref(cond).TypeOf()); err != nil {
		return nil, err
	}

	then, err := a.checkBlock(scope, s.Then)
	if err != nil {
		return nil, err
	}

	if s.Else == nil {
		if _, ok := then.Type.(ast.Unit); !ok {
			return nil, diagnostic.New(diagnostic.CodeConditionalBranchTypesMismatch, s.At,
				"if without else must have a () branch, found %s", then.Type.String())
		}

		return ast.Unit{}, nil
	}

	els, err := a.checkBlock(scope, s.Else)
	if err != nil {
		return nil, err
	}

	if !then.Type.Equal(els.Type) {
		return nil, diagnostic.New(diagnostic.CodeConditionalBranchTypesMismatch, s.At,
			"if/else branches have mismatched types %s and %s", then.Type.String(), els.Type.String())
	}

	return then.Type, nil
}

// checkMatch type-checks a match's scrutinee, its arms' patterns against
// the scrutinee type, exhaustiveness, and that every arm body agrees in
// type.
func (a *Analyzer) checkMatch(scope *ast.Scope, s parser.MatchExpr) (ast.Type, error) {
	scrut, err := a.checkExpr(scope, s.Scrutinee)
	if err != nil {
		return nil, err
	}

	scrut = finalize(deref(scrut))
	st := scrut.TypeOf()

	isBool := false

	switch {
	case func() bool { _, ok := st.(ast.Boolean); return ok }():
		isBool = true
	case ast.IsInteger(st):
		// ok
	default:
		return nil, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, s.At,
			"match scrutinee must be boolean or integer, found %s", st.String())
	}

	if len(s.Arms) < 2 {
		return nil, diagnostic.New(diagnostic.CodeMatchNotExhaustive, s.At, "match requires at least two arms")
	}

	var (
		resultType  ast.Type
		seenBool    = map[bool]bool{}
		seenInt     = map[string]bool{}
		sawWildcard = false
	)

	for i, arm := range s.Arms {
		if sawWildcard {
			return nil, diagnostic.New(diagnostic.CodeMatchUnreachableBranch, arm.At, "unreachable match arm after wildcard")
		}

		if arm.Wildcard {
			sawWildcard = true
		} else if isBool {
			if seenBool[arm.BoolValue] {
				return nil, diagnostic.New(diagnostic.CodeMatchDuplicatePattern, arm.At, "duplicate match pattern")
			}

			seenBool[arm.BoolValue] = true
		} else {
			var key string
			if arm.RangeValid {
				key = arm.RangeLow.String() + ".." + arm.RangeHigh.String()
			} else {
				key = arm.IntValue.String()
			}

			if seenInt[key] {
				return nil, diagnostic.New(diagnostic.CodeMatchDuplicatePattern, arm.At, "duplicate match pattern")
			}

			seenInt[key] = true
		}

		body, err := a.checkBlock(scope, arm.Body)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			resultType = body.Type
		} else if !resultType.Equal(body.Type) {
			return nil, diagnostic.New(diagnostic.CodeConditionalBranchTypesMismatch, arm.At,
				"match arms have mismatched types %s and %s", resultType.String(), body.Type.String())
		}
	}

	if !sawWildcard {
		if isBool {
			if !(seenBool[true] && seenBool[false]) {
				return nil, diagnostic.New(diagnostic.CodeMatchNotExhaustive, s.At,
					"match over bool must cover both true and false, or end with a wildcard")
			}
		} else {
			return nil, diagnostic.New(diagnostic.CodeMatchNotExhaustive, s.At,
				"match over an integer type must end with a wildcard arm")
		}
	}

	return resultType, nil
}

func (a *Analyzer) checkFor(scope *ast.Scope, s parser.ForStmt) error {
	el, err := a.checkExpr(scope, s.Range)
	if err != nil {
		return err
	}

	var (
		signed    bool
		bitlength uint
	)

	switch c := el.Const.(type) {
	case ast.ConstRange:
		signed, bitlength = c.IsSigned, c.Bitlength
	case ast.ConstRangeInclusive:
		signed, bitlength = c.IsSigned, c.Bitlength
	default:
		return diagnostic.New(diagnostic.CodeNonConstantLoopBound, s.At, "for-loop range must be a compile-time constant range")
	}

	if bitlength == 0 {
		bitlength = 64
	}

	inner := ast.NewScope(scope, "")
	if err := inner.Declare(s.Index, ast.Item{Kind: ast.ItemVariable, Type: intType(signed, bitlength), DeclaredAt: s.At}); err != nil {
		return err
	}

	_, err = a.checkBlock(inner, s.Body)

	return err
}

func (a *Analyzer) checkWhile(scope *ast.Scope, s parser.WhileStmt) error {
	el, err := a.checkExpr(scope, s.Cond)
	if err != nil {
		return err
	}

	if err := requireBoolean(s.At, "while condition", deref(el).TypeOf()); err != nil {
		return err
	}

	_, err = a.checkBlock(scope, s.Body)

	return err
}
