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
	"math/big"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// declareShape registers the *shape* of a declaration - its name, type,
// and (for struct/enum) field layout - in scope, without yet checking any
// function body. This is pass 1 of AnalyzeProgram, letting later
// declarations (and forward/mutually-recursive functions) resolve names
// declared after them in source order.
//
// const/static/type-alias values are the one exception: they are folded
// here, in declaration order, since their values may be needed to resolve
// array sizes and other constant positions elsewhere in pass 1. A
// const/static may therefore only reference names already declared above
// it (see DESIGN.md).
func (a *Analyzer) declareShape(scope *ast.Scope, d parser.Declaration) error {
	switch decl := d.(type) {
	case *parser.FnDecl:
		sig, err := a.buildSignature(scope, decl.Params, decl.ReturnType, nil)
		if err != nil {
			return err
		}

		fn := ast.Function{Identifier: decl.Name, UniqueID: ast.NextUniqueID(), Variant: ast.UserDefined, Signature: sig}

		return scope.Declare(decl.Name, ast.Item{Kind: ast.ItemConstant, Type: fn, DeclaredAt: decl.At})
	case *parser.StructDecl:
		return a.declareStruct(scope, *decl)
	case *parser.EnumDecl:
		return a.declareEnum(scope, *decl)
	case *parser.ImplDecl:
		return a.declareImpl(scope, *decl)
	case *parser.ModDecl:
		modScope := ast.NewScope(scope, decl.Name)
		if err := scope.Declare(decl.Name, ast.Item{Kind: ast.ItemModule, Namespace: modScope, DeclaredAt: decl.At}); err != nil {
			return err
		}

		for _, nd := range decl.Declarations {
			if err := a.declareShape(modScope, nd); err != nil {
				return err
			}
		}

		return nil
	case *parser.UseDecl:
		return nil
	case *parser.TypeAliasDecl:
		t, err := a.resolveType(scope, decl.Type)
		if err != nil {
			return err
		}

		return scope.Declare(decl.Name, ast.Item{Kind: ast.ItemType, Type: t, DeclaredAt: decl.At})
	case *parser.ConstDecl:
		return a.declareConst(scope, decl.Name, decl.Type, decl.Value, decl.At, ast.ItemConstant, false)
	case *parser.StaticDecl:
		return a.declareConst(scope, decl.Name, decl.Type, decl.Value, decl.At, ast.ItemStatic, decl.Mutable)
	default:
		panic("unreachable declaration kind")
	}
}

// checkBody is pass 2: it checks the body of every fn/impl-method against
// the now-complete top-level scope, and recurses into module/impl
// namespaces. struct/enum/const/static/type-alias/use declarations have
// nothing left to check; they were fully resolved in declareShape.
func (a *Analyzer) checkBody(scope *ast.Scope, d parser.Declaration) error {
	switch decl := d.(type) {
	case *parser.FnDecl:
		item, _ := scope.ResolveLocal(decl.Name)
		fn := item.Type.(ast.Function)

		return a.checkFnDecl(scope, *decl, fn, false)
	case *parser.ImplDecl:
		target, _ := scope.Resolve(decl.Target)

		implScope, _ := implScopeOf(target.Type)
		if implScope == nil {
			return nil // already reported in declareShape
		}

		for _, m := range decl.Methods {
			item, _ := implScope.ResolveLocal(m.Name)
			fn := item.Type.(ast.Function)

			if err := a.checkFnDecl(implScope, m, fn, true); err != nil {
				return err
			}
		}

		return nil
	case *parser.ModDecl:
		item, _ := scope.ResolveLocal(decl.Name)
		modScope := item.Namespace

		for _, nd := range decl.Declarations {
			if err := a.checkBody(modScope, nd); err != nil {
				return err
			}
		}

		return nil
	case *parser.UseDecl:
		item, err := scope.ResolvePath(decl.At, decl.Path)
		if err != nil {
			return err
		}

		alias := decl.Path[len(decl.Path)-1]
		item.DeclaredAt = decl.At

		return scope.Declare(alias, item)
	default:
		return nil
	}
}

// checkFnDecl type-checks one function/method body and, on success,
// records it in a.functions/a.order for the emitter (G) to walk.
func (a *Analyzer) checkFnDecl(scope *ast.Scope, decl parser.FnDecl, fn ast.Function, hasSelf bool) error {
	bodyScope := ast.NewScope(scope, decl.Name)

	pi := 0

	for _, p := range decl.Params {
		if p.IsSelf {
			continue
		}

		if err := bodyScope.Declare(p.Name, ast.Item{Kind: ast.ItemVariable, Type: fn.Signature.Parameters[pi], DeclaredAt: p.At}); err != nil {
			return err
		}

		pi++
	}

	savedReturn, savedReturnAt := a.currentReturn, a.currentReturnAt
	a.currentReturn, a.currentReturnAt = fn.Signature.Return, decl.At

	body, err := a.checkFunctionBody(bodyScope, decl.Body, fn.Signature.Return, decl.At)

	a.currentReturn, a.currentReturnAt = savedReturn, savedReturnAt

	if err != nil {
		return err
	}

	paramNames := make([]string, 0, len(decl.Params))
	for _, p := range decl.Params {
		if !p.IsSelf {
			paramNames = append(paramNames, p.Name)
		}
	}

	a.functions[fn.UniqueID] = &Function{
		Name: decl.Name, UniqueID: fn.UniqueID, Variant: fn.Variant,
		Sig: fn.Signature, ParamNames: paramNames, Body: body, HasSelf: hasSelf,
	}
	a.order = append(a.order, fn.UniqueID)

	return nil
}

// checkFunctionBody type-checks a function body's statements and, if
// present, widens its tail expression against the declared return type
// using full assignability (including untyped-literal widening) -
// something a generic checkBlock can't do, since it has no expected type
// to check against.
func (a *Analyzer) checkFunctionBody(scope *ast.Scope, b *parser.Block, ret ast.Type, retAt diagnostic.Location) (*Block, error) {
	inner := ast.NewScope(scope, "")

	for _, stmt := range b.Statements {
		if err := a.checkStmt(inner, stmt); err != nil {
			return nil, err
		}
	}

	if b.Tail == nil {
		if _, ok := ret.(ast.Unit); !ok {
			return nil, diagnostic.New(diagnostic.CodeReturnTypeMismatch, b.At,
				"function must return %s, but its body has no trailing expression", ret.String()).
				WithReference(retAt, "declared return type here")
		}

		return &Block{Source: b, Type: ast.Unit{}}, nil
	}

	el, err := a.checkExpr(inner, *b.Tail)
	if err != nil {
		return nil, err
	}

	el = deref(el)

	if !assignable(el, ret) {
		return nil, diagnostic.New(diagnostic.CodeReturnTypeMismatch, b.At,
			"function returns %s, found %s", ret.String(), el.TypeOf().String()).
			WithReference(retAt, "declared return type here")
	}

	return &Block{Source: b, Type: ret}, nil
}

// buildSignature resolves a parameter list and optional return type into
// a FunctionSignature. selfType is non-nil only when checking an impl
// method, and binds `self`'s type (spec.md §4.2: "self may appear only as
// the first parameter").
func (a *Analyzer) buildSignature(scope *ast.Scope, params []parser.Param, ret parser.TypeExpr, selfType ast.Type) (ast.FunctionSignature, error) {
	sig := ast.FunctionSignature{Return: ast.Unit{}}

	for i, p := range params {
		if p.IsSelf {
			if i != 0 {
				return ast.FunctionSignature{}, diagnostic.New(diagnostic.CodeInvalidSelfPosition, p.At,
					"'self' may only appear as the first parameter")
			}

			if selfType == nil {
				return ast.FunctionSignature{}, diagnostic.New(diagnostic.CodeInvalidSelfPosition, p.At,
					"'self' is only valid inside an impl block")
			}

			sig.HasSelf = true

			continue
		}

		t, err := a.resolveType(scope, p.Type)
		if err != nil {
			return ast.FunctionSignature{}, err
		}

		sig.Parameters = append(sig.Parameters, t)
	}

	if ret != nil {
		t, err := a.resolveType(scope, ret)
		if err != nil {
			return ast.FunctionSignature{}, err
		}

		sig.Return = t
	}

	return sig, nil
}

func (a *Analyzer) declareStruct(scope *ast.Scope, decl parser.StructDecl) error {
	implScope := ast.NewScope(scope, decl.Name)

	fields := make([]ast.StructureField, len(decl.Fields))

	for i, f := range decl.Fields {
		t, err := a.resolveType(scope, f.Type)
		if err != nil {
			return err
		}

		fields[i] = ast.StructureField{Name: f.Name, Type: t}
	}

	st := ast.Structure{Identifier: decl.Name, UniqueID: ast.NextUniqueID(), Fields: fields, Scope: implScope}

	return scope.Declare(decl.Name, ast.Item{Kind: ast.ItemType, Type: st, Namespace: implScope, DeclaredAt: decl.At})
}

func (a *Analyzer) declareEnum(scope *ast.Scope, decl parser.EnumDecl) error {
	implScope := ast.NewScope(scope, decl.Name)

	variants := make([]ast.EnumerationVariant, len(decl.Variants))

	next := big.NewInt(0)

	for i, v := range decl.Variants {
		val := next

		if v.Value != nil {
			c, err := a.evalConstIntExpr(scope, *v.Value)
			if err != nil {
				return err
			}

			val = c.Value
		}

		variants[i] = ast.EnumerationVariant{Name: v.Name, Value: val}
		next = new(big.Int).Add(val, big.NewInt(1))
	}

	maxVal := big.NewInt(0)

	for _, v := range variants {
		if v.Value.Cmp(maxVal) > 0 {
			maxVal = v.Value
		}
	}

	bitlength := smallestUnsignedBitlength(maxVal)

	en := ast.Enumeration{Identifier: decl.Name, UniqueID: ast.NextUniqueID(), Variants: variants, Bitlength: bitlength, Scope: implScope}

	if err := scope.Declare(decl.Name, ast.Item{Kind: ast.ItemType, Type: en, Namespace: implScope, DeclaredAt: decl.At}); err != nil {
		return err
	}

	for i, v := range decl.Variants {
		if err := implScope.Declare(v.Name, ast.Item{Kind: ast.ItemConstant, Type: en, DeclaredAt: v.At}); err != nil {
			return err
		}

		a.constVals[v.At] = ast.ConstInt{Value: variants[i].Value, IsSigned: false, Bitlength: bitlength}
	}

	return nil
}

// smallestUnsignedBitlength returns the narrowest legal unsigned
// bit-width (spec.md §3's {1} ∪ {8,16,...,248} alphabet) that max fits
// in, used to size an enumeration's runtime representation.
func smallestUnsignedBitlength(max *big.Int) uint {
	if ast.InRange(max, false, 1) {
		return 1
	}

	for bl := uint(8); bl <= 248; bl += 8 {
		if ast.InRange(max, false, bl) {
			return bl
		}
	}

	return 248
}

func (a *Analyzer) declareImpl(scope *ast.Scope, decl parser.ImplDecl) error {
	target, ok := scope.Resolve(decl.Target)
	if !ok {
		return diagnostic.New(diagnostic.CodeUndeclaredItem, decl.At, "undeclared type %q", decl.Target)
	}

	implScope, selfType := implScopeOf(target.Type)
	if implScope == nil {
		return diagnostic.New(diagnostic.CodeItemIsNotNamespace, decl.At,
			"impl target %q is not a structure or enumeration", decl.Target)
	}

	for _, m := range decl.Methods {
		sig, err := a.buildSignature(scope, m.Params, m.ReturnType, selfType)
		if err != nil {
			return err
		}

		fn := ast.Function{Identifier: m.Name, UniqueID: ast.NextUniqueID(), Variant: ast.UserDefined, Signature: sig}

		if err := implScope.Declare(m.Name, ast.Item{Kind: ast.ItemConstant, Type: fn, DeclaredAt: m.At}); err != nil {
			return err
		}
	}

	return nil
}

func implScopeOf(t ast.Type) (*ast.Scope, ast.Type) {
	switch st := t.(type) {
	case ast.Structure:
		return st.Scope, st
	case ast.Enumeration:
		return st.Scope, st
	default:
		return nil, nil
	}
}

func (a *Analyzer) declareConst(scope *ast.Scope, name string, te parser.TypeExpr, value parser.Expr, at diagnostic.Location, kind ast.ItemKind, mutable bool) error {
	el, err := a.checkExpr(scope, value)
	if err != nil {
		return err
	}

	if el.Kind != ast.KindConstant {
		return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at, "%q must be initialized with a compile-time constant", name)
	}

	declType := finalize(el).TypeOf()

	if te != nil {
		declType, err = a.resolveType(scope, te)
		if err != nil {
			return err
		}

		if !assignable(el, declType) {
			return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at,
				"cannot assign %s to %q of declared type %s", el.TypeOf().String(), name, declType.String())
		}

		if c, ok := el.Const.(ast.ConstInt); ok && isUntyped(el.TypeOf()) && ast.IsInteger(declType) {
			bl, signed := ast.IntegerBitlength(declType)
			el = ast.Element{Kind: ast.KindConstant, Typ: declType, Const: ast.ConstInt{Value: c.Value, IsSigned: signed, Bitlength: bl}}
		}
	}

	el = finalize(el)

	if err := scope.Declare(name, ast.Item{Kind: kind, Type: declType, Mutable: mutable, DeclaredAt: at}); err != nil {
		return err
	}

	a.constVals[at] = el.Const

	return nil
}
