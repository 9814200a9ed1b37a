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
	"fmt"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/lexer"
)

// Parser consumes a pre-lexed token stream and produces a Program.
// Syntax errors are fatal at this stage (spec.md §7): the first error
// encountered aborts parsing.
type Parser struct {
	tokens []lexer.Token
	pos    int
	file   string
}

// New constructs a Parser over an already-tokenized source file.
func New(file string, tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// Parse tokenizes and parses a single source file into a Program.
func Parse(src *diagnostic.Source) (*Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	return New(src.Name(), tokens).ParseProgram()
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	if p.pos+off >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}

	return p.tokens[p.pos+off]
}

func (p *Parser) at(k lexer.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return tok
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.at(k) {
		return p.advance(), nil
	}

	return lexer.Token{}, p.errExpected(kindName(k))
}

func (p *Parser) errExpected(what string) error {
	tok := p.peek()

	return diagnostic.New(diagnostic.CodeExpectedOneOf, tok.At,
		"expected %s, found %s", what, describeToken(tok)).
		WithHelp("check for a missing token before this point")
}

func describeToken(tok lexer.Token) string {
	if tok.Kind == lexer.EOF {
		return "end of file"
	}

	if tok.Text != "" {
		return fmt.Sprintf("%q", tok.Text)
	}

	return kindName(tok.Kind)
}

func kindName(k lexer.Kind) string {
	// A representative, non-exhaustive set sufficient for diagnostics;
	// unmapped kinds fall back to a numeric tag.
	names := map[lexer.Kind]string{
		lexer.Ident: "an identifier", lexer.IntLiteral: "an integer literal",
		lexer.LBrace: "'{'", lexer.RBrace: "'}'", lexer.LParen: "'('", lexer.RParen: "')'",
		lexer.LBracket: "'['", lexer.RBracket: "']'", lexer.Semicolon: "';'", lexer.Colon: "':'",
		lexer.Comma: "','", lexer.Assign: "'='", lexer.Arrow: "'->'", lexer.FatArrow: "'=>'",
		lexer.KwFn: "'fn'", lexer.KwLet: "'let'", lexer.KwIn: "'in'",
	}
	if s, ok := names[k]; ok {
		return s
	}

	return fmt.Sprintf("token(%d)", k)
}

// ParseProgram parses a full source file's top-level declarations.
func (p *Parser) ParseProgram() (*Program, error) {
	var prog Program

	for !p.at(lexer.EOF) {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}

		prog.Declarations = append(prog.Declarations, decl)
	}

	return &prog, nil
}

func (p *Parser) parseDeclaration() (Declaration, error) {
	switch p.peek().Kind {
	case lexer.KwFn:
		return p.parseFn()
	case lexer.KwStruct:
		return p.parseStruct()
	case lexer.KwEnum:
		return p.parseEnum()
	case lexer.KwImpl:
		return p.parseImpl()
	case lexer.KwMod:
		return p.parseMod()
	case lexer.KwUse:
		return p.parseUse()
	case lexer.KwType:
		return p.parseTypeAlias()
	case lexer.KwConst:
		return p.parseConstDecl()
	case lexer.KwStatic:
		return p.parseStaticDecl()
	default:
		return nil, p.errExpected("a declaration (fn, struct, enum, impl, mod, use, type, const, static)")
	}
}

func (p *Parser) parseFn() (*FnDecl, error) {
	at := p.advance().At // 'fn'

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	var params []Param

	for !p.at(lexer.RParen) {
		if p.at(lexer.KwSelf) {
			selfTok := p.advance()
			params = append(params, Param{Name: "self", IsSelf: true, At: selfTok.At})
		} else {
			pname, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.Colon); err != nil {
				return nil, err
			}

			ptype, err := p.parseType()
			if err != nil {
				return nil, err
			}

			params = append(params, Param{Name: pname.Text, Type: ptype, At: pname.At})
		}

		if p.at(lexer.Comma) {
			p.advance()
		} else {
			break
		}
	}

	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	var ret TypeExpr

	if p.at(lexer.Arrow) {
		p.advance()

		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &FnDecl{Name: name.Text, Params: params, ReturnType: ret, Body: body, At: at}, nil
}

func (p *Parser) parseStruct() (*StructDecl, error) {
	at := p.advance().At

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var fields []FieldDecl

	for !p.at(lexer.RBrace) {
		fname, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}

		ftype, err := p.parseType()
		if err != nil {
			return nil, err
		}

		fields = append(fields, FieldDecl{Name: fname.Text, Type: ftype})

		if p.at(lexer.Comma) {
			p.advance()
		} else {
			break
		}
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return &StructDecl{Name: name.Text, Fields: fields, At: at}, nil
}

func (p *Parser) parseEnum() (*EnumDecl, error) {
	at := p.advance().At

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var variants []EnumVariantDecl

	for !p.at(lexer.RBrace) {
		vname, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}

		variant := EnumVariantDecl{Name: vname.Text, At: vname.At}

		if p.at(lexer.Assign) {
			p.advance()

			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			variant.Value = &val
		}

		variants = append(variants, variant)

		if p.at(lexer.Comma) {
			p.advance()
		} else {
			break
		}
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return &EnumDecl{Name: name.Text, Variants: variants, At: at}, nil
}

func (p *Parser) parseImpl() (*ImplDecl, error) {
	at := p.advance().At

	target, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var methods []FnDecl

	for !p.at(lexer.RBrace) {
		fn, err := p.parseFn()
		if err != nil {
			return nil, err
		}

		methods = append(methods, *fn)
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return &ImplDecl{Target: target.Text, Methods: methods, At: at}, nil
}

func (p *Parser) parseMod() (*ModDecl, error) {
	at := p.advance().At

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var decls []Declaration

	for !p.at(lexer.RBrace) {
		d, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}

		decls = append(decls, d)
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return &ModDecl{Name: name.Text, Declarations: decls, At: at}, nil
}

func (p *Parser) parseUse() (*UseDecl, error) {
	at := p.advance().At

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

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return &UseDecl{Path: segments, At: at}, nil
}

func (p *Parser) parseTypeAlias() (*TypeAliasDecl, error) {
	at := p.advance().At

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return &TypeAliasDecl{Name: name.Text, Type: t, At: at}, nil
}

func (p *Parser) parseConstDecl() (*ConstDecl, error) {
	at := p.advance().At

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	var t TypeExpr

	if p.at(lexer.Colon) {
		p.advance()

		t, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}

	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return &ConstDecl{Name: name.Text, Type: t, Value: val, At: at}, nil
}

func (p *Parser) parseStaticDecl() (*StaticDecl, error) {
	at := p.advance().At

	mutable := false
	if p.at(lexer.KwMut) {
		p.advance()

		mutable = true
	}

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	var t TypeExpr

	if p.at(lexer.Colon) {
		p.advance()

		t, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}

	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return &StaticDecl{Name: name.Text, Mutable: mutable, Type: t, Value: val, At: at}, nil
}

// parseType parses a syntactic type reference.
func (p *Parser) parseType() (TypeExpr, error) {
	switch p.peek().Kind {
	case lexer.LBracket:
		at := p.advance().At

		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}

		size, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}

		return ArrayTypeExpr{Element: elem, Size: size, At: at}, nil
	case lexer.LParen:
		at := p.advance().At

		var elements []TypeExpr

		for !p.at(lexer.RParen) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}

			elements = append(elements, t)

			if p.at(lexer.Comma) {
				p.advance()
			} else {
				break
			}
		}

		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}

		return TupleTypeExpr{Elements: elements, At: at}, nil
	case lexer.Ident:
		tok := p.advance()
		name := tok.Text

		for p.at(lexer.ColonColon) {
			p.advance()

			seg, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}

			name += "::" + seg.Text
		}

		return NamedTypeExpr{Name: name, At: tok.At}, nil
	default:
		return nil, p.errExpected("a type")
	}
}

// parseBlock parses `{ stmt* tail? }`.
func (p *Parser) parseBlock() (*Block, error) {
	at, err := p.expect(lexer.LBrace)
	if err != nil {
		return nil, err
	}

	block := &Block{At: at.At}

	for !p.at(lexer.RBrace) {
		// A trailing expression with no statement-terminating semicolon
		// is the block's tail value.
		if p.startsBareExprTail() {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if p.at(lexer.Semicolon) {
				p.advance()

				block.Statements = append(block.Statements, ExprStmt{Value: e, At: e.At})

				continue
			}

			block.Tail = &e

			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		block.Statements = append(block.Statements, stmt)
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return block, nil
}

// startsBareExprTail reports whether the upcoming tokens begin a plain
// expression statement (as opposed to a keyword-led statement form), so
// parseBlock can tell a trailing value expression apart from e.g. a
// nested `if`/`match` used as a statement.
func (p *Parser) startsBareExprTail() bool {
	switch p.peek().Kind {
	case lexer.KwLet, lexer.KwConst, lexer.KwReturn, lexer.KwAssert, lexer.KwRequire,
		lexer.KwDbg, lexer.KwIf, lexer.KwMatch, lexer.KwFor, lexer.KwWhile, lexer.RBrace:
		return false
	default:
		return true
	}
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.peek().Kind {
	case lexer.KwLet:
		return p.parseLet()
	case lexer.KwConst:
		return p.parseConstStmt()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwAssert:
		return p.parseAssert(false)
	case lexer.KwRequire:
		return p.parseAssert(true)
	case lexer.KwDbg:
		return p.parseDbg()
	case lexer.KwIf:
		ifExpr, err := p.parseIf()
		return ifExpr, err
	case lexer.KwMatch:
		return p.parseMatch()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwWhile:
		return p.parseWhile()
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}

		return ExprStmt{Value: e, At: e.At}, nil
	}
}

func (p *Parser) parseLet() (Statement, error) {
	at := p.advance().At

	mutable := false
	if p.at(lexer.KwMut) {
		p.advance()

		mutable = true
	}

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	var t TypeExpr

	if p.at(lexer.Colon) {
		p.advance()

		t, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}

	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return LetStmt{Name: name.Text, Mutable: mutable, Type: t, Value: val, At: at}, nil
}

func (p *Parser) parseConstStmt() (Statement, error) {
	decl, err := p.parseConstDecl()
	if err != nil {
		return nil, err
	}

	return ConstStmt{Name: decl.Name, Type: decl.Type, Value: decl.Value, At: decl.At}, nil
}

func (p *Parser) parseReturn() (Statement, error) {
	at := p.advance().At

	if p.at(lexer.Semicolon) {
		p.advance()
		return ReturnStmt{At: at}, nil
	}

	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return ReturnStmt{Value: &val, At: at}, nil
}

func (p *Parser) parseAssert(isRequire bool) (Statement, error) {
	at := p.advance().At

	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var msg *string

	if p.at(lexer.Comma) {
		p.advance()

		tok, err := p.expect(lexer.StringLiteral)
		if err != nil {
			return nil, err
		}

		msg = &tok.Text
	}

	if isRequire && msg == nil {
		return nil, diagnostic.New(diagnostic.CodeExpectedOneOf, at, "require(...) needs a message argument")
	}

	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return AssertStmt{Cond: cond, Message: msg, IsRequire: isRequire, At: at}, nil
}

func (p *Parser) parseDbg() (Statement, error) {
	at := p.advance().At

	if _, err := p.expect(lexer.Not); err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	fmtTok, err := p.expect(lexer.StringLiteral)
	if err != nil {
		return nil, err
	}

	var args []Expr

	for p.at(lexer.Comma) {
		p.advance()

		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		args = append(args, a)
	}

	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	return DbgStmt{Format: fmtTok.Text, Args: args, At: at}, nil
}

func (p *Parser) parseIf() (*IfExpr, error) {
	at := p.advance().At

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elseBlock *Block

	if p.at(lexer.KwElse) {
		p.advance()

		if p.at(lexer.KwIf) {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}

			elseBlock = &Block{At: nested.At, Tail: nil}
			elseBlock.Statements = []Statement{nested}
		} else {
			elseBlock, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}

	return &IfExpr{Cond: cond, Then: then, Else: elseBlock, At: at}, nil
}

func (p *Parser) parseMatch() (Statement, error) {
	at := p.advance().At

	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	var arms []MatchArm

	for !p.at(lexer.RBrace) {
		arm, err := p.parseMatchArm()
		if err != nil {
			return nil, err
		}

		arms = append(arms, arm)

		if p.at(lexer.Comma) {
			p.advance()
		}
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return MatchExpr{Scrutinee: scrutinee, Arms: arms, At: at}, nil
}

func (p *Parser) parseMatchArm() (MatchArm, error) {
	at := p.peek().At

	var arm MatchArm

	switch p.peek().Kind {
	case lexer.Ident:
		// wildcard binding, e.g. `_` lexes as an identifier.
		tok := p.advance()
		if tok.Text != "_" {
			return MatchArm{}, diagnostic.New(diagnostic.CodeExpectedOneOf, tok.At,
				"expected a literal pattern or '_', found %q", tok.Text)
		}

		arm.Wildcard = true
	case lexer.True, lexer.False:
		tok := p.advance()
		arm.BoolValue = tok.Kind == lexer.True
	case lexer.IntLiteral:
		tok := p.advance()

		v, err := parseDecimalInt(tok)
		if err != nil {
			return MatchArm{}, err
		}

		if p.at(lexer.DotDotEq) {
			p.advance()

			hiTok, err := p.expect(lexer.IntLiteral)
			if err != nil {
				return MatchArm{}, err
			}

			hi, err := parseDecimalInt(hiTok)
			if err != nil {
				return MatchArm{}, err
			}

			arm.RangeValid = true
			arm.RangeLow = v
			arm.RangeHigh = hi
		} else {
			arm.IntValue = v
		}
	default:
		return MatchArm{}, p.errExpected("a match pattern")
	}

	if _, err := p.expect(lexer.FatArrow); err != nil {
		return MatchArm{}, err
	}

	var body *Block

	if p.at(lexer.LBrace) {
		b, err := p.parseBlock()
		if err != nil {
			return MatchArm{}, err
		}

		body = b
	} else {
		// `pattern => expr` is a block whose only content is expr as tail.
		value, err := p.parseExpr()
		if err != nil {
			return MatchArm{}, err
		}

		body = &Block{Tail: &value, At: at}
	}

	arm.Body = body
	arm.At = at

	return arm, nil
}

func (p *Parser) parseFor() (Statement, error) {
	at := p.advance().At

	index, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.KwIn); err != nil {
		return nil, err
	}

	rng, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return ForStmt{Index: index.Text, Range: rng, Body: body, At: at}, nil
}

func (p *Parser) parseWhile() (Statement, error) {
	at := p.advance().At

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return WhileStmt{Cond: cond, Body: body, At: at}, nil
}
