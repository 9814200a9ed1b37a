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
	"strings"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// untypedInt is the sentinel type of an integer literal before context
// (a `let` annotation, a cast, a function parameter, a comparison against
// an already-typed operand...) fixes its concrete width and signedness.
// It is represented as IntegerUnsigned{0} — 0 is not itself a valid
// declared bitlength (ast.ValidIntegerBitlength rejects it), so it can
// never collide with a real user-written type.
var untypedInt = ast.IntegerUnsigned{Bitlength: 0}

func isUntyped(t ast.Type) bool {
	u, ok := t.(ast.IntegerUnsigned)
	return ok && u.Bitlength == 0
}

// checkExpr type-checks a flattened RPN expression in a single left-to-right
// scan, mirroring the stack discipline the VM itself will later use to
// evaluate the same Objects (spec.md §4.1's "hard contract"). The returned
// Element is the expression's fully resolved semantic value.
func (a *Analyzer) checkExpr(scope *ast.Scope, e parser.Expr) (ast.Element, error) {
	var stack []ast.Element

	push := func(el ast.Element) { stack = append(stack, el) }
	pop := func() ast.Element {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		return top
	}

	for _, obj := range e.Objects {
		switch o := obj.(type) {
		case parser.Operand:
			el, err := a.checkOperand(scope, o)
			if err != nil {
				return ast.Element{}, err
			}

			push(el)
		case parser.Operator:
			el, err := a.checkOperator(scope, o, pop)
			if err != nil {
				return ast.Element{}, err
			}

			push(el)
		default:
			panic("unreachable RPN object")
		}
	}

	if len(stack) != 1 {
		panic("malformed RPN expression: did not reduce to a single value")
	}

	return stack[0], nil
}

func (a *Analyzer) checkOperand(scope *ast.Scope, o parser.Operand) (ast.Element, error) {
	switch o.Kind {
	case parser.OperandInt:
		return ast.Element{Kind: ast.KindConstant, Typ: untypedInt,
			Const: ast.ConstInt{Value: o.IntValue, IsSigned: false, Bitlength: 0}}, nil
	case parser.OperandBool:
		return ast.Element{Kind: ast.KindConstant, Typ: ast.Boolean{}, Const: ast.ConstBool{Value: o.BoolValue}}, nil
	case parser.OperandString:
		return ast.Element{Kind: ast.KindConstant, Typ: ast.StringType{}}, nil
	case parser.OperandSelf:
		item, ok := scope.Resolve("self")
		if !ok {
			return ast.Element{}, diagnostic.New(diagnostic.CodeInvalidSelfPosition, o.At,
				"'self' is not available in this context")
		}

		return ast.Element{Kind: ast.KindPlace, Typ: item.Type,
			Place: ast.Place{Name: "self", NameType: item.Type, Mutable: item.Mutable}}, nil
	case parser.OperandPath:
		return a.resolvePathOperand(scope, o)
	default:
		panic("unreachable operand kind")
	}
}

func (a *Analyzer) resolvePathOperand(scope *ast.Scope, o parser.Operand) (ast.Element, error) {
	item, err := scope.ResolvePath(o.At, o.Path)
	if err != nil {
		return ast.Element{}, err
	}

	switch item.Kind {
	case ast.ItemVariable, ast.ItemStatic:
		return ast.Element{Kind: ast.KindPlace, Typ: item.Type,
			Place: ast.Place{Name: strings.Join(o.Path, "::"), NameType: item.Type, Mutable: item.Mutable}}, nil
	case ast.ItemConstant:
		if c, ok := a.constVals[item.DeclaredAt]; ok {
			return ast.Element{Kind: ast.KindConstant, Typ: item.Type, Const: c}, nil
		}
		// A function binding, or a constant whose folded value wasn't
		// retained (e.g. resolved through a module alias) — usable as a
		// value, just not further foldable.
		return ast.Element{Kind: ast.KindValue, Typ: item.Type}, nil
	case ast.ItemType:
		return ast.Element{Kind: ast.KindType, Typ: item.Type}, nil
	case ast.ItemModule:
		return ast.Element{Kind: ast.KindModule, Module: item.Namespace}, nil
	default:
		panic("unreachable item kind")
	}
}

// deref loads a Place's current value as an rvalue; every operator besides
// assignment's left operand consumes values, never places.
func deref(e ast.Element) ast.Element {
	if e.Kind == ast.KindPlace {
		return ast.Element{Kind: ast.KindValue, Typ: e.Place.NameType}
	}

	return e
}

// finalize resolves an operand still carrying the untyped-integer sentinel
// to a concrete type. Zinc has no numeric-literal defaulting rule in
// spec.md; this implementation's documented choice (DESIGN.md) is to
// default a literal that escapes every typed context to `field`, since
// Field never overflows and is always a safe materialization target.
func finalize(e ast.Element) ast.Element {
	if !isUntyped(e.TypeOf()) {
		return e
	}

	if c, ok := e.Const.(ast.ConstInt); ok {
		return ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: c.Value}}
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Field{}}
}

func (a *Analyzer) checkOperator(scope *ast.Scope, o parser.Operator, pop func() ast.Element) (ast.Element, error) {
	switch o.Kind {
	case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv, parser.OpRem:
		r := deref(pop())
		l := deref(pop())

		return checkArith(o, l, r)
	case parser.OpBitAnd, parser.OpBitOr, parser.OpBitXor:
		r := deref(pop())
		l := deref(pop())

		return checkBitwise(o, l, r)
	case parser.OpShl, parser.OpShr:
		r := deref(pop())
		l := deref(pop())

		return checkShift(o, l, r)
	case parser.OpLogAnd, parser.OpLogOr, parser.OpLogXor:
		r := deref(pop())
		l := deref(pop())

		return checkLogical(o, l, r)
	case parser.OpEq, parser.OpNe:
		r := deref(pop())
		l := deref(pop())

		return checkEquality(o, l, r)
	case parser.OpLt, parser.OpLe, parser.OpGt, parser.OpGe:
		r := deref(pop())
		l := deref(pop())

		return checkComparison(o, l, r)
	case parser.OpNeg:
		x := deref(pop())

		return checkNeg(o, x)
	case parser.OpNot:
		x := deref(pop())

		return checkNot(o, x)
	case parser.OpBitNot:
		x := deref(pop())

		return checkBitNot(o, x)
	case parser.OpRange, parser.OpRangeInclusive:
		r := deref(pop())
		l := deref(pop())

		return a.checkRange(o, l, r)
	case parser.OpCast:
		x := deref(pop())

		return a.checkCast(scope, o, x)
	case parser.OpIndex:
		i := deref(pop())
		x := deref(pop())

		return checkIndex(o, x, i)
	case parser.OpField:
		x := deref(pop())

		return checkFieldAccess(o, x)
	case parser.OpTupleField:
		x := deref(pop())

		return checkTupleField(o, x)
	case parser.OpCall:
		args := make([]ast.Element, o.Argc)
		for i := o.Argc - 1; i >= 0; i-- {
			args[i] = deref(pop())
		}

		callee := pop()

		return checkCall(o, callee, args)
	case parser.OpAssign:
		r := finalize(deref(pop()))
		lRaw := pop()

		return checkAssign(o, lRaw, r)
	default:
		panic("unreachable operator kind")
	}
}

// coerceIntPair resolves the common integer type of two operands,
// widening either side from the untyped-literal sentinel as needed
// (spec.md §4.2: "T may be any scalar integer type that e's magnitude
// fits into"), and rejects a mismatch between two already-concrete
// integer types.
func coerceIntPair(at diagnostic.Location, opName string, l, r ast.Element) (signed bool, bitlength uint, err error) {
	lt, rt := l.TypeOf(), r.TypeOf()

	if !ast.IsInteger(lt) && !isUntyped(lt) {
		return false, 0, mismatch(at, opName, "first", lt)
	}

	if !ast.IsInteger(rt) && !isUntyped(rt) {
		return false, 0, mismatch(at, opName, "second", rt)
	}

	switch {
	case isUntyped(lt) && isUntyped(rt):
		return false, 0, nil
	case isUntyped(lt):
		bl, sr := ast.IntegerBitlength(rt)
		return sr, bl, nil
	case isUntyped(rt):
		bl, sl := ast.IntegerBitlength(lt)
		return sl, bl, nil
	default:
		if !lt.Equal(rt) {
			return false, 0, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at,
				"operands of %q have mismatched types %s and %s", opName, lt.String(), rt.String())
		}

		bl, sl := ast.IntegerBitlength(lt)

		return sl, bl, nil
	}
}

func mismatch(at diagnostic.Location, opName, operand string, t ast.Type) error {
	return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at,
		"%s operand of %q expected an integer, found %s", operand, opName, t.String())
}

func intType(signed bool, bitlength uint) ast.Type {
	if bitlength == 0 {
		return untypedInt
	}

	if signed {
		return ast.IntegerSigned{Bitlength: bitlength}
	}

	return ast.IntegerUnsigned{Bitlength: bitlength}
}

func opName(k parser.OperatorKind) string {
	names := map[parser.OperatorKind]string{
		parser.OpAdd: "+", parser.OpSub: "-", parser.OpMul: "*", parser.OpDiv: "/", parser.OpRem: "%",
		parser.OpBitAnd: "&", parser.OpBitOr: "|", parser.OpBitXor: "^", parser.OpShl: "<<", parser.OpShr: ">>",
		parser.OpLogAnd: "&&", parser.OpLogOr: "||", parser.OpLogXor: "^^",
		parser.OpEq: "==", parser.OpNe: "!=", parser.OpLt: "<", parser.OpLe: "<=", parser.OpGt: ">", parser.OpGe: ">=",
		parser.OpNeg: "-", parser.OpNot: "!", parser.OpBitNot: "~",
	}

	return names[k]
}

func checkArith(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)

	lt, rt := l.TypeOf(), r.TypeOf()
	lField, rField := isField(lt), isField(rt)

	if lField || rField {
		if !(lField || isUntyped(lt)) || !(rField || isUntyped(rt)) {
			return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
				"operands of %q must both be field elements", name)
		}

		if o.Kind != parser.OpAdd && o.Kind != parser.OpMul {
			return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
				"%q is not permitted on field elements", name)
		}

		if lc, lok := l.Const.(ast.ConstInt); lok && isUntyped(lt) {
			l = ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: lc.Value}}
		}

		if rc, rok := r.Const.(ast.ConstInt); rok && isUntyped(rt) {
			r = ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: rc.Value}}
		}

		if lc, lok := l.Const.(ast.ConstField); lok && r.Kind == ast.KindConstant {
			if rc, rok := r.Const.(ast.ConstField); rok {
				var v big.Int
				if o.Kind == parser.OpAdd {
					v.Add(lc.Value, rc.Value)
				} else {
					v.Mul(lc.Value, rc.Value)
				}

				return ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: &v}}, nil
			}
		}

		return ast.Element{Kind: ast.KindValue, Typ: ast.Field{}}, nil
	}

	signed, bitlength, err := coerceIntPair(o.At, name, l, r)
	if err != nil {
		return ast.Element{}, err
	}

	lc, lok := l.Const.(ast.ConstInt)
	rc, rok := r.Const.(ast.ConstInt)

	if lok && rok && (o.Kind == parser.OpDiv || o.Kind == parser.OpRem) && rc.Value.Sign() == 0 {
		return ast.Element{}, diagnostic.New(diagnostic.CodeDivisionByZeroConst, o.At, "division by zero")
	}

	if lok && rok && bitlength != 0 {
		lc = ast.ConstInt{Value: lc.Value, IsSigned: signed, Bitlength: bitlength}
		rc = ast.ConstInt{Value: rc.Value, IsSigned: signed, Bitlength: bitlength}

		var (
			res ast.ConstInt
			fe  error
		)

		switch o.Kind {
		case parser.OpAdd:
			res, fe = ast.FoldAdd(o.At, lc, rc)
		case parser.OpSub:
			res, fe = ast.FoldSub(o.At, lc, rc)
		case parser.OpMul:
			res, fe = ast.FoldMul(o.At, lc, rc)
		case parser.OpDiv:
			res, fe = ast.FoldDiv(o.At, lc, rc)
		case parser.OpRem:
			res, fe = ast.FoldRem(o.At, lc, rc)
		}

		if fe != nil {
			return ast.Element{}, fe
		}

		return ast.Element{Kind: ast.KindConstant, Typ: res.Type(), Const: res}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: intType(signed, bitlength)}, nil
}

func isField(t ast.Type) bool {
	_, ok := t.(ast.Field)
	return ok
}

func checkBitwise(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)

	signed, bitlength, err := coerceIntPair(o.At, name, l, r)
	if err != nil {
		return ast.Element{}, err
	}

	lc, lok := l.Const.(ast.ConstInt)
	rc, rok := r.Const.(ast.ConstInt)

	if lok && rok && bitlength != 0 {
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitlength), big.NewInt(1))

		var v big.Int

		lv := new(big.Int).And(lc.Value, mask)
		rv := new(big.Int).And(rc.Value, mask)

		switch o.Kind {
		case parser.OpBitAnd:
			v.And(lv, rv)
		case parser.OpBitOr:
			v.Or(lv, rv)
		case parser.OpBitXor:
			v.Xor(lv, rv)
		}

		return ast.Element{Kind: ast.KindConstant, Typ: intType(signed, bitlength), Const: ast.ConstInt{Value: &v, IsSigned: signed, Bitlength: bitlength}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: intType(signed, bitlength)}, nil
}

func checkShift(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)
	lt := l.TypeOf()

	if !ast.IsInteger(lt) && !isUntyped(lt) {
		return ast.Element{}, mismatch(o.At, name, "first", lt)
	}

	rc, ok := r.Const.(ast.ConstInt)
	if r.Kind != ast.KindConstant || !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeNonConstantShiftAmount, o.At,
			"shift amount must be a compile-time constant")
	}

	if rc.Value.Sign() < 0 {
		return ast.Element{}, diagnostic.New(diagnostic.CodeNonConstantShiftAmount, o.At, "shift amount must be non-negative")
	}

	lc, lok := l.Const.(ast.ConstInt)

	if lok && !isUntyped(lt) {
		bitlength, signed := ast.IntegerBitlength(lt)
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitlength), big.NewInt(1))

		var v big.Int

		shift := uint(rc.Value.Uint64())
		if o.Kind == parser.OpShl {
			v.Lsh(new(big.Int).And(lc.Value, mask), shift)
			v.And(&v, mask)
		} else {
			v.Rsh(new(big.Int).And(lc.Value, mask), shift)
		}

		return ast.Element{Kind: ast.KindConstant, Typ: lt, Const: ast.ConstInt{Value: &v, IsSigned: signed, Bitlength: bitlength}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: lt}, nil
}

func checkLogical(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)

	if err := requireBoolean(o.At, "first operand of "+name, l.TypeOf()); err != nil {
		return ast.Element{}, err
	}

	if err := requireBoolean(o.At, "second operand of "+name, r.TypeOf()); err != nil {
		return ast.Element{}, err
	}

	lc, lok := l.Const.(ast.ConstBool)
	rc, rok := r.Const.(ast.ConstBool)

	if lok && rok {
		var v bool

		switch o.Kind {
		case parser.OpLogAnd:
			v = lc.Value && rc.Value
		case parser.OpLogOr:
			v = lc.Value || rc.Value
		case parser.OpLogXor:
			v = lc.Value != rc.Value
		}

		return ast.Element{Kind: ast.KindConstant, Typ: ast.Boolean{}, Const: ast.ConstBool{Value: v}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Boolean{}}, nil
}

func checkEquality(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)
	lt, rt := l.TypeOf(), r.TypeOf()

	switch {
	case isField(lt) || isField(rt):
		if !(isField(lt) || isUntyped(lt)) || !(isField(rt) || isUntyped(rt)) {
			return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
				"operands of %q must both be field elements", name)
		}
	case ast.IsInteger(lt) || ast.IsInteger(rt) || isUntyped(lt) || isUntyped(rt):
		if _, err := coerceIntPair(o.At, name, l, r); err != nil {
			return ast.Element{}, err
		}
	default:
		if !lt.Equal(rt) {
			return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
				"operands of %q have mismatched types %s and %s", name, lt.String(), rt.String())
		}
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Boolean{}}, nil
}

func checkComparison(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := opName(o.Kind)

	if _, _, err := coerceIntPair(o.At, name, l, r); err != nil {
		return ast.Element{}, err
	}

	lc, lok := l.Const.(ast.ConstInt)
	rc, rok := r.Const.(ast.ConstInt)

	if lok && rok {
		cmp := lc.Value.Cmp(rc.Value)

		var v bool

		switch o.Kind {
		case parser.OpLt:
			v = cmp < 0
		case parser.OpLe:
			v = cmp <= 0
		case parser.OpGt:
			v = cmp > 0
		case parser.OpGe:
			v = cmp >= 0
		}

		return ast.Element{Kind: ast.KindConstant, Typ: ast.Boolean{}, Const: ast.ConstBool{Value: v}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Boolean{}}, nil
}

func checkNeg(o parser.Operator, x ast.Element) (ast.Element, error) {
	t := x.TypeOf()

	if isField(t) {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At, "negation is not permitted on field elements")
	}

	if isUntyped(t) {
		if c, ok := x.Const.(ast.ConstInt); ok {
			return ast.Element{Kind: ast.KindConstant, Typ: untypedInt,
				Const: ast.ConstInt{Value: new(big.Int).Neg(c.Value), IsSigned: false, Bitlength: 0}}, nil
		}
	}

	bitlength, signed := ast.IntegerBitlength(t)
	if !signed {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"negation requires a signed integer, found %s", t.String())
	}

	if c, ok := x.Const.(ast.ConstInt); ok {
		res, err := ast.FoldNeg(o.At, ast.ConstInt{Value: c.Value, IsSigned: true, Bitlength: bitlength})
		if err != nil {
			return ast.Element{}, err
		}

		return ast.Element{Kind: ast.KindConstant, Typ: res.Type(), Const: res}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: t}, nil
}

func checkNot(o parser.Operator, x ast.Element) (ast.Element, error) {
	if err := requireBoolean(o.At, "operand of !", x.TypeOf()); err != nil {
		return ast.Element{}, err
	}

	if c, ok := x.Const.(ast.ConstBool); ok {
		return ast.Element{Kind: ast.KindConstant, Typ: ast.Boolean{}, Const: ast.ConstBool{Value: !c.Value}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Boolean{}}, nil
}

func checkBitNot(o parser.Operator, x ast.Element) (ast.Element, error) {
	t := x.TypeOf()

	if !ast.IsInteger(t) {
		return ast.Element{}, mismatch(o.At, "~", "first", t)
	}

	bitlength, signed := ast.IntegerBitlength(t)

	if c, ok := x.Const.(ast.ConstInt); ok {
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitlength), big.NewInt(1))
		v := new(big.Int).Xor(new(big.Int).And(c.Value, mask), mask)

		return ast.Element{Kind: ast.KindConstant, Typ: t, Const: ast.ConstInt{Value: v, IsSigned: signed, Bitlength: bitlength}}, nil
	}

	return ast.Element{Kind: ast.KindValue, Typ: t}, nil
}

func (a *Analyzer) checkRange(o parser.Operator, l, r ast.Element) (ast.Element, error) {
	name := "range"

	signed, bitlength, err := coerceIntPair(o.At, name, l, r)
	if err != nil {
		return ast.Element{}, err
	}

	lc, lok := l.Const.(ast.ConstInt)
	rc, rok := r.Const.(ast.ConstInt)

	if !lok || !rok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeNonConstantLoopBound, o.At, "range bounds must be compile-time constants")
	}

	if bitlength == 0 {
		bitlength = 64
	}

	if o.Kind == parser.OpRangeInclusive {
		return ast.Element{Kind: ast.KindConstant, Typ: intType(signed, bitlength),
			Const: ast.ConstRangeInclusive{Start: lc.Value, End: rc.Value, IsSigned: signed, Bitlength: bitlength}}, nil
	}

	return ast.Element{Kind: ast.KindConstant, Typ: intType(signed, bitlength),
		Const: ast.ConstRange{Start: lc.Value, End: rc.Value, IsSigned: signed, Bitlength: bitlength}}, nil
}

func (a *Analyzer) checkCast(scope *ast.Scope, o parser.Operator, x ast.Element) (ast.Element, error) {
	target, err := a.resolveType(scope, o.CastType)
	if err != nil {
		return ast.Element{}, err
	}

	src := x.TypeOf()

	switch {
	case isUntyped(src):
		// An untyped literal accepts any concrete target the surrounding
		// context names, bounded by that target's own range check.
		if ast.IsInteger(target) {
			bl, signed := ast.IntegerBitlength(target)

			if c, ok := x.Const.(ast.ConstInt); ok {
				res, err := ast.FoldCast(o.At, ast.ConstInt{Value: c.Value, IsSigned: signed, Bitlength: bl}, signed, bl)
				if err != nil {
					return ast.Element{}, err
				}

				return ast.Element{Kind: ast.KindConstant, Typ: res.Type(), Const: res}, nil
			}

			return ast.Element{Kind: ast.KindValue, Typ: target}, nil
		}

		if isField(target) {
			if c, ok := x.Const.(ast.ConstInt); ok {
				return ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: c.Value}}, nil
			}

			return ast.Element{Kind: ast.KindValue, Typ: ast.Field{}}, nil
		}

		return ast.Element{}, diagnostic.New(diagnostic.CodeInvalidCast, o.At, "cannot cast to %s", target.String())
	case ast.IsInteger(src) && ast.IsInteger(target):
		srcBits, _ := ast.IntegerBitlength(src)
		dstBits, dstSigned := ast.IntegerBitlength(target)

		if dstBits < srcBits {
			return ast.Element{}, diagnostic.New(diagnostic.CodeNarrowingCastRejected, o.At,
				"cast from %s to %s narrows the value; narrowing casts are rejected", src.String(), target.String())
		}

		if c, ok := x.Const.(ast.ConstInt); ok {
			res, err := ast.FoldCast(o.At, c, dstSigned, dstBits)
			if err != nil {
				return ast.Element{}, err
			}

			return ast.Element{Kind: ast.KindConstant, Typ: res.Type(), Const: res}, nil
		}

		return ast.Element{Kind: ast.KindValue, Typ: target}, nil
	case ast.IsInteger(src) && isField(target):
		// Widening into the unbounded field (documented exception to the
		// "integer to integer only" rule; see DESIGN.md).
		if c, ok := x.Const.(ast.ConstInt); ok {
			return ast.Element{Kind: ast.KindConstant, Typ: ast.Field{}, Const: ast.ConstField{Value: c.Value}}, nil
		}

		return ast.Element{Kind: ast.KindValue, Typ: ast.Field{}}, nil
	case isField(src) && isField(target):
		return x, nil
	default:
		return ast.Element{}, diagnostic.New(diagnostic.CodeInvalidCast, o.At,
			"cannot cast %s to %s", src.String(), target.String())
	}
}

func checkIndex(o parser.Operator, x, i ast.Element) (ast.Element, error) {
	arr, ok := x.TypeOf().(ast.Array)
	if !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"first operand of indexing expected an array, found %s", x.TypeOf().String())
	}

	switch c := i.Const.(type) {
	case ast.ConstRange:
		n := c.Count()
		if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > uint64(arr.Size) || c.Start.Sign() < 0 {
			return ast.Element{}, diagnostic.New(diagnostic.CodeIndexOutOfRange, o.At, "slice range out of bounds")
		}

		return ast.Element{Kind: ast.KindValue, Typ: ast.Array{Element: arr.Element, Size: uint(n.Uint64())}}, nil
	case ast.ConstRangeInclusive:
		n := c.Count()
		if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > uint64(arr.Size) || c.Start.Sign() < 0 {
			return ast.Element{}, diagnostic.New(diagnostic.CodeIndexOutOfRange, o.At, "slice range out of bounds")
		}

		return ast.Element{Kind: ast.KindValue, Typ: ast.Array{Element: arr.Element, Size: uint(n.Uint64())}}, nil
	}

	if !ast.IsInteger(i.TypeOf()) && !isUntyped(i.TypeOf()) {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"second operand of indexing expected an integer or range, found %s", i.TypeOf().String())
	}

	if c, ok := i.Const.(ast.ConstInt); ok {
		if c.Value.Sign() < 0 || !c.Value.IsUint64() || c.Value.Uint64() >= uint64(arr.Size) {
			return ast.Element{}, diagnostic.New(diagnostic.CodeIndexOutOfRange, o.At, "index out of bounds")
		}
	}

	return ast.Element{Kind: ast.KindPlace, Typ: arr.Element,
		Place: ast.Place{NameType: arr.Element, Projections: []ast.PlaceProjection{{Kind: ast.ProjectIndex, Index: i}}}}, nil
}

func checkFieldAccess(o parser.Operator, x ast.Element) (ast.Element, error) {
	st, ok := x.TypeOf().(ast.Structure)
	if !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"field access requires a structure, found %s", x.TypeOf().String())
	}

	ft, _, ok := st.FieldType(o.FieldName)
	if !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeStructureFieldMismatch, o.At,
			"structure %q has no field %q", st.Identifier, o.FieldName)
	}

	return ast.Element{Kind: ast.KindPlace, Typ: ft,
		Place: ast.Place{NameType: ft, Projections: []ast.PlaceProjection{{Kind: ast.ProjectField, Field: o.FieldName}}}}, nil
}

func checkTupleField(o parser.Operator, x ast.Element) (ast.Element, error) {
	tup, ok := x.TypeOf().(ast.Tuple)
	if !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"tuple field access requires a tuple, found %s", x.TypeOf().String())
	}

	if o.TupleIndex < 0 || o.TupleIndex >= len(tup.Elements) {
		return ast.Element{}, diagnostic.New(diagnostic.CodeIndexOutOfRange, o.At, "tuple has no field .%d", o.TupleIndex)
	}

	ft := tup.Elements[o.TupleIndex]

	return ast.Element{Kind: ast.KindPlace, Typ: ft,
		Place: ast.Place{NameType: ft, Projections: []ast.PlaceProjection{{Kind: ast.ProjectField, Field: string(rune('0' + o.TupleIndex))}}}}, nil
}

func checkCall(o parser.Operator, callee ast.Element, args []ast.Element) (ast.Element, error) {
	fn, ok := callee.TypeOf().(ast.Function)
	if !ok {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"callee is not a function: %s", callee.TypeOf().String())
	}

	want := len(fn.Signature.Parameters)

	if len(args) != want {
		return ast.Element{}, diagnostic.New(diagnostic.CodeFunctionArgumentMismatch, o.At,
			"function %q expects %d argument(s), found %d", fn.Identifier, want, len(args))
	}

	for i, arg := range args {
		param := fn.Signature.Parameters[i]
		if !assignable(arg, param) {
			return ast.Element{}, diagnostic.New(diagnostic.CodeFunctionArgumentMismatch, o.At,
				"argument %d of %q expected %s, found %s", i+1, fn.Identifier, param.String(), arg.TypeOf().String())
		}
	}

	return ast.Element{Kind: ast.KindValue, Typ: fn.Signature.Return}, nil
}

// assignable reports whether a value of Element e may be bound/passed/
// returned where Type want is expected, allowing the implicit widening of
// an untyped integer constant into any integer type its magnitude fits.
func assignable(e ast.Element, want ast.Type) bool {
	got := e.TypeOf()

	if isUntyped(got) {
		if isField(want) {
			return true
		}

		if !ast.IsInteger(want) {
			return false
		}

		c, ok := e.Const.(ast.ConstInt)
		if !ok {
			return true
		}

		bl, signed := ast.IntegerBitlength(want)

		return ast.InRange(c.Value, signed, bl)
	}

	return got.Equal(want)
}

func checkAssign(o parser.Operator, lRaw, r ast.Element) (ast.Element, error) {
	place, err := ast.RequirePlace(o.At, lRaw)
	if err != nil {
		return ast.Element{}, err
	}

	if !place.Mutable {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"cannot assign to immutable binding %q", place.Name)
	}

	if o.IsCompound {
		binOp := parser.Operator{Kind: o.Compound, At: o.At}

		l := ast.Element{Kind: ast.KindValue, Typ: place.NameType}

		var err error

		switch o.Compound {
		case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv, parser.OpRem:
			_, err = checkArith(binOp, l, r)
		case parser.OpBitAnd, parser.OpBitOr, parser.OpBitXor:
			_, err = checkBitwise(binOp, l, r)
		case parser.OpShl, parser.OpShr:
			_, err = checkShift(binOp, l, r)
		}

		if err != nil {
			return ast.Element{}, err
		}
	} else if !assignable(r, place.NameType) {
		return ast.Element{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, o.At,
			"cannot assign %s to %q of type %s", r.TypeOf().String(), place.Name, place.NameType.String())
	}

	return ast.Element{Kind: ast.KindValue, Typ: ast.Unit{}}, nil
}

// evalConstIntExpr evaluates e and requires the result be a compile-time
// integer constant (used for array sizes and other positions spec.md
// requires to be folded at S).
func (a *Analyzer) evalConstIntExpr(scope *ast.Scope, e parser.Expr) (ast.ConstInt, error) {
	el, err := a.checkExpr(scope, e)
	if err != nil {
		return ast.ConstInt{}, err
	}

	el = finalize(el)

	switch c := el.Const.(type) {
	case ast.ConstInt:
		return c, nil
	case ast.ConstField:
		return ast.ConstInt{Value: c.Value, IsSigned: false, Bitlength: 0}, nil
	default:
		return ast.ConstInt{}, diagnostic.New(diagnostic.CodeNonConstantLoopBound, e.At,
			"expected a compile-time integer constant")
	}
}
