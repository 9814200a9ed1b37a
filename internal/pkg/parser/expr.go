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

package parser

import (
	"math/big"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/lexer"
)

// exprNode is the internal (pre-flattening) expression tree built by
// precedence-climbing; it never escapes this package. parseExpr flattens
// it into the RPN Expr that is this package's actual public AST shape
// (spec.md §4.1).
type exprNode interface {
	at() diagnostic.Location
}

type litIntNode struct {
	Value *big.Int
	At    diagnostic.Location
}

func (n litIntNode) at() diagnostic.Location { return n.At }

type litBoolNode struct {
	Value bool
	At    diagnostic.Location
}

func (n litBoolNode) at() diagnostic.Location { return n.At }

type litStringNode struct {
	Value string
	At    diagnostic.Location
}

func (n litStringNode) at() diagnostic.Location { return n.At }

type pathNode struct {
	Segments []string
	At       diagnostic.Location
}

func (n pathNode) at() diagnostic.Location { return n.At }

type selfNode struct{ At diagnostic.Location }

func (n selfNode) at() diagnostic.Location { return n.At }

type unaryNode struct {
	Op OperatorKind
	X  exprNode
	At diagnostic.Location
}

func (n unaryNode) at() diagnostic.Location { return n.At }

type binaryNode struct {
	Op   OperatorKind
	L, R exprNode
	At   diagnostic.Location
}

func (n binaryNode) at() diagnostic.Location { return n.At }

type assignNode struct {
	Compound   OperatorKind
	IsCompound bool
	L, R       exprNode
	At         diagnostic.Location
}

func (n assignNode) at() diagnostic.Location { return n.At }

type rangeNode struct {
	Inclusive  bool
	Start, End exprNode
	At         diagnostic.Location
}

func (n rangeNode) at() diagnostic.Location { return n.At }

type castNode struct {
	X  exprNode
	T  TypeExpr
	At diagnostic.Location
}

func (n castNode) at() diagnostic.Location { return n.At }

type indexNode struct {
	X, I exprNode
	At   diagnostic.Location
}

func (n indexNode) at() diagnostic.Location { return n.At }

type fieldNode struct {
	X    exprNode
	Name string
	At   diagnostic.Location
}

func (n fieldNode) at() diagnostic.Location { return n.At }

type tupleFieldNode struct {
	X     exprNode
	Index int
	At    diagnostic.Location
}

func (n tupleFieldNode) at() diagnostic.Location { return n.At }

type callNode struct {
	Callee exprNode
	Args   []exprNode
	At     diagnostic.Location
}

func (n callNode) at() diagnostic.Location { return n.At }

// parseExpr parses a full expression at the lowest (assignment)
// precedence and flattens it into RPN form.
func (p *Parser) parseExpr() (Expr, error) {
	n, err := p.parseAssign()
	if err != nil {
		return Expr{}, err
	}

	var objs []Object
	flatten(n, &objs)

	return Expr{Objects: objs, At: n.at()}, nil
}

var compoundAssignOps = map[lexer.Kind]OperatorKind{
	lexer.PlusEq: OpAdd, lexer.MinusEq: OpSub, lexer.StarEq: OpMul,
	lexer.SlashEq: OpDiv, lexer.PercentEq: OpRem, lexer.PipeEq: OpBitOr,
	lexer.CaretEq: OpBitXor, lexer.AmpEq: OpBitAnd, lexer.ShlEq: OpShl,
	lexer.ShrEq: OpShr,
}

func (p *Parser) parseAssign() (exprNode, error) {
	lhs, err := p.parseRange()
	if err != nil {
		return nil, err
	}

	if p.at(lexer.Assign) {
		at := p.advance().At

		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}

		return assignNode{L: lhs, R: rhs, At: at}, nil
	}

	if op, ok := compoundAssignOps[p.peek().Kind]; ok {
		at := p.advance().At

		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}

		return assignNode{Compound: op, IsCompound: true, L: lhs, R: rhs, At: at}, nil
	}

	return lhs, nil
}

// parseRange handles `..` / `..=`, non-associative.
func (p *Parser) parseRange() (exprNode, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.at(lexer.DotDot):
		at := p.advance().At

		rhs, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}

		return rangeNode{Start: lhs, End: rhs, At: at}, nil
	case p.at(lexer.DotDotEq):
		at := p.advance().At

		rhs, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}

		return rangeNode{Inclusive: true, Start: lhs, End: rhs, At: at}, nil
	default:
		return lhs, nil
	}
}

func (p *Parser) leftAssoc(next func() (exprNode, error), ops map[lexer.Kind]OperatorKind) (exprNode, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := ops[p.peek().Kind]
		if !ok {
			return lhs, nil
		}

		at := p.advance().At

		rhs, err := next()
		if err != nil {
			return nil, err
		}

		lhs = binaryNode{Op: op, L: lhs, R: rhs, At: at}
	}
}

func (p *Parser) parseLogicalOr() (exprNode, error) {
	return p.leftAssoc(p.parseLogicalXor, map[lexer.Kind]OperatorKind{lexer.OrOr: OpLogOr})
}

func (p *Parser) parseLogicalXor() (exprNode, error) {
	return p.leftAssoc(p.parseLogicalAnd, map[lexer.Kind]OperatorKind{lexer.XorXor: OpLogXor})
}

func (p *Parser) parseLogicalAnd() (exprNode, error) {
	return p.leftAssoc(p.parseEquality, map[lexer.Kind]OperatorKind{lexer.AndAnd: OpLogAnd})
}

func (p *Parser) parseEquality() (exprNode, error) {
	return p.leftAssoc(p.parseComparison, map[lexer.Kind]OperatorKind{lexer.EqEq: OpEq, lexer.NotEq: OpNe})
}

func (p *Parser) parseComparison() (exprNode, error) {
	return p.leftAssoc(p.parseBitOr, map[lexer.Kind]OperatorKind{
		lexer.Lt: OpLt, lexer.Le: OpLe, lexer.Gt: OpGt, lexer.Ge: OpGe,
	})
}

func (p *Parser) parseBitOr() (exprNode, error) {
	return p.leftAssoc(p.parseBitXor, map[lexer.Kind]OperatorKind{lexer.Pipe: OpBitOr})
}

func (p *Parser) parseBitXor() (exprNode, error) {
	return p.leftAssoc(p.parseBitAnd, map[lexer.Kind]OperatorKind{lexer.Caret: OpBitXor})
}

func (p *Parser) parseBitAnd() (exprNode, error) {
	return p.leftAssoc(p.parseShift, map[lexer.Kind]OperatorKind{lexer.Amp: OpBitAnd})
}

func (p *Parser) parseShift() (exprNode, error) {
	return p.leftAssoc(p.parseAdditive, map[lexer.Kind]OperatorKind{lexer.Shl: OpShl, lexer.Shr: OpShr})
}

func (p *Parser) parseAdditive() (exprNode, error) {
	return p.leftAssoc(p.parseMultiplicative, map[lexer.Kind]OperatorKind{lexer.Plus: OpAdd, lexer.Minus: OpSub})
}

func (p *Parser) parseMultiplicative() (exprNode, error) {
	return p.leftAssoc(p.parseCast, map[lexer.Kind]OperatorKind{
		lexer.Star: OpMul, lexer.Slash: OpDiv, lexer.Percent: OpRem,
	})
}

func (p *Parser) parseCast() (exprNode, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.at(lexer.KwAs) {
		at := p.advance().At

		t, err := p.parseType()
		if err != nil {
			return nil, err
		}

		x = castNode{X: x, T: t, At: at}
	}

	return x, nil
}

func (p *Parser) parseUnary() (exprNode, error) {
	switch p.peek().Kind {
	case lexer.Minus:
		at := p.advance().At

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return unaryNode{Op: OpNeg, X: x, At: at}, nil
	case lexer.Not:
		at := p.advance().At

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return unaryNode{Op: OpNot, X: x, At: at}, nil
	case lexer.Tilde:
		at := p.advance().At

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return unaryNode{Op: OpBitNot, X: x, At: at}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (exprNode, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Kind {
		case lexer.LBracket:
			at := p.advance().At

			idx, err := p.parseExpr0()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}

			x = indexNode{X: x, I: idx, At: at}
		case lexer.Dot:
			at := p.advance().At

			if p.at(lexer.IntLiteral) {
				tok := p.advance()

				idx, err := parseDecimalInt(tok)
				if err != nil {
					return nil, err
				}

				x = tupleFieldNode{X: x, Index: int(idx.Int64()), At: at}
			} else {
				name, err := p.expect(lexer.Ident)
				if err != nil {
					return nil, err
				}

				x = fieldNode{X: x, Name: name.Text, At: at}
			}
		case lexer.LParen:
			at := p.advance().At

			var args []exprNode

			for !p.at(lexer.RParen) {
				arg, err := p.parseAssign()
				if err != nil {
					return nil, err
				}

				args = append(args, arg)

				if p.at(lexer.Comma) {
					p.advance()
				} else {
					break
				}
			}

			if _, err := p.expect(lexer.RParen); err != nil {
				return nil, err
			}

			x = callNode{Callee: x, Args: args, At: at}
		default:
			return x, nil
		}
	}
}

// parseExpr0 parses a full assignment-precedence expression tree without
// flattening, for use inside postfix index brackets.
func (p *Parser) parseExpr0() (exprNode, error) {
	return p.parseAssign()
}

func (p *Parser) parsePrimary() (exprNode, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.IntLiteral:
		p.advance()

		v, err := parseDecimalInt(tok)
		if err != nil {
			return nil, err
		}

		return litIntNode{Value: v, At: tok.At}, nil
	case lexer.True:
		p.advance()
		return litBoolNode{Value: true, At: tok.At}, nil
	case lexer.False:
		p.advance()
		return litBoolNode{Value: false, At: tok.At}, nil
	case lexer.StringLiteral:
		p.advance()
		return litStringNode{Value: tok.Text, At: tok.At}, nil
	case lexer.KwSelf:
		p.advance()
		return selfNode{At: tok.At}, nil
	case lexer.Ident:
		return p.parsePathPrimary()
	case lexer.LParen:
		p.advance()

		x, err := p.parseAssign()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}

		return x, nil
	default:
		return nil, p.errExpected("an expression")
	}
}

func (p *Parser) parsePathPrimary() (exprNode, error) {
	first, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	segments := []string{first.Text}

	for p.at(lexer.ColonColon) {
		p.advance()

		seg, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}

		segments = append(segments, seg.Text)
	}

	return pathNode{Segments: segments, At: first.At}, nil
}

// parseDecimalInt parses an IntLiteral token's text (already stripped of
// `_` separators by the lexer; base-prefixed non-decimal literals keep
// their `0b`/`0o`/`0x` prefix) into a big.Int.
func parseDecimalInt(tok lexer.Token) (*big.Int, error) {
	text := tok.Text
	base := 10

	if len(text) >= 2 && text[0] == '0' {
		switch text[1] {
		case 'b':
			base, text = 2, text[2:]
		case 'o':
			base, text = 8, text[2:]
		case 'x':
			base, text = 16, text[2:]
		}
	}

	v, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, diagnostic.New(diagnostic.CodeInvalidDigit, tok.At, "malformed integer literal %q", tok.Text)
	}

	return v, nil
}

// --------------------------------------------------------------------
// Flattening: postorder traversal of the parse tree into the RPN Expr.
// --------------------------------------------------------------------

func flatten(n exprNode, out *[]Object) {
	switch e := n.(type) {
	case litIntNode:
		*out = append(*out, Operand{Kind: OperandInt, IntValue: e.Value, At: e.At})
	case litBoolNode:
		*out = append(*out, Operand{Kind: OperandBool, BoolValue: e.Value, At: e.At})
	case litStringNode:
		*out = append(*out, Operand{Kind: OperandString, StringValue: e.Value, At: e.At})
	case selfNode:
		*out = append(*out, Operand{Kind: OperandSelf, At: e.At})
	case pathNode:
		*out = append(*out, Operand{Kind: OperandPath, Path: e.Segments, At: e.At})
	case unaryNode:
		flatten(e.X, out)
		*out = append(*out, Operator{Kind: e.Op, At: e.At})
	case binaryNode:
		flatten(e.L, out)
		flatten(e.R, out)
		*out = append(*out, Operator{Kind: e.Op, At: e.At})
	case assignNode:
		flatten(e.L, out)
		flatten(e.R, out)
		*out = append(*out, Operator{Kind: OpAssign, Compound: e.Compound, IsCompound: e.IsCompound, At: e.At})
	case rangeNode:
		flatten(e.Start, out)
		flatten(e.End, out)

		op := OpRange
		if e.Inclusive {
			op = OpRangeInclusive
		}

		*out = append(*out, Operator{Kind: op, At: e.At})
	case castNode:
		flatten(e.X, out)
		*out = append(*out, Operator{Kind: OpCast, CastType: e.T, At: e.At})
	case indexNode:
		flatten(e.X, out)
		flatten(e.I, out)
		*out = append(*out, Operator{Kind: OpIndex, At: e.At})
	case fieldNode:
		flatten(e.X, out)
		*out = append(*out, Operator{Kind: OpField, FieldName: e.Name, At: e.At})
	case tupleFieldNode:
		flatten(e.X, out)
		*out = append(*out, Operator{Kind: OpTupleField, TupleIndex: e.Index, At: e.At})
	case callNode:
		flatten(e.Callee, out)
		for _, a := range e.Args {
			flatten(a, out)
		}

		*out = append(*out, Operator{Kind: OpCall, Argc: len(e.Args), At: e.At})
	default:
		panic("unreachable expression node")
	}
}
