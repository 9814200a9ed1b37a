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

package bytecode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// entry is one slot of the emitter's shadow evaluation stack while
// walking an Expr's RPN object sequence. It mirrors sema's
// ast.Element/ElementKind split (Value/Constant/Place) but additionally
// stays *lazy*: a Place or an untyped integer literal defers emitting any
// instruction until something actually consumes it as a value, exactly
// as sema's own checkOperand/deref/finalize pair defers committing an
// untyped literal to a concrete type until its use site demands one.
// This lets `x = 5;` treat `x` as an assignment target (no Load emitted)
// while `y = x + 5;` treats the same `x` as a value (a Load is emitted on
// demand) without two different code paths through the RPN walk.
type entry struct {
	isPlace   bool
	isFunc    bool
	isUntyped bool
	// isLib marks a resolved std::... native (internal/pkg/sema/natives.go)
	// whose call lowers to LibCall rather than Call; libFunc names which.
	isLib   bool
	libFunc LibFunc
	// isConst marks an already-folded, already-typed compile-time constant
	// (a global const, an enum variant, a bool/field literal) that has not
	// yet been pushed onto the real evaluation stack - kept lazy for the
	// same reason an untyped literal is, so a value only ever consumed as
	// an assignment target or a Field/Call base never emits a dead Push.
	isConst bool

	place  localSlot
	global bool

	funcID uint64

	intValue *big.Int // valid when isUntyped

	typ      ast.Type
	constant ast.Constant
}

func (en entry) width() uint {
	if en.typ == nil {
		return 1
	}

	return en.typ.Width()
}

// exprVal is emitExpr's return value: the fully materialized (on-stack)
// result of an expression.
type exprVal struct {
	typ      ast.Type
	constant ast.Constant
}

func (v exprVal) width() uint        { return v.typ.Width() }
func (v exprVal) resultType() ast.Type { return v.typ }

func intShape(t ast.Type) (signed bool, bitlength uint) {
	switch it := t.(type) {
	case ast.IntegerSigned:
		return true, it.Bitlength
	case ast.IntegerUnsigned:
		return false, it.Bitlength
	default:
		return false, 0
	}
}

// materialize ensures en is actually present on the real VM evaluation
// stack, emitting whatever deferred instruction that requires, and
// returns a plain (already-materialized) entry. hint supplies the target
// type for an untyped literal with no other context; it may be nil.
func (fc *fnCtx) materialize(en entry, hint ast.Type) (entry, error) {
	e := fc.e

	switch {
	case en.isFunc:
		return entry{}, fmt.Errorf("bytecode: function %d used as a value", en.funcID)
	case en.isUntyped:
		t := hint
		if t == nil {
			t = ast.IntegerUnsigned{Bitlength: 64}
		}

		signed, bl := intShape(t)

		var c ast.Constant
		if _, ok := t.(ast.Field); ok {
			c = ast.ConstField{Value: en.intValue}
		} else {
			c = ast.ConstInt{Value: en.intValue, IsSigned: signed, Bitlength: bl}
		}

		e.emit(Push{Value: c, Type: t})

		return entry{typ: t, constant: c}, nil
	case en.isPlace:
		if en.global {
			e.emit(LoadGlobal{Index: en.place.index, Length: en.place.width})
		} else {
			e.emit(Load{Index: en.place.index, Length: en.place.width})
		}

		return entry{typ: en.place.typ}, nil
	case en.isConst:
		e.emit(Push{Value: en.constant, Type: en.typ})

		return entry{typ: en.typ, constant: en.constant}, nil
	default:
		return en, nil
	}
}

// concreteType reports en's type if it is already concrete (not a lazy
// untyped literal), used to decide the coercion target of a sibling
// operand.
func concreteType(en entry) ast.Type {
	if en.isUntyped || en.isFunc {
		return nil
	}

	if en.isPlace {
		return en.place.typ
	}

	return en.typ
}

// constOf reads en's compile-time value without emitting any instruction
// - used only by range-bound folding, which must stay entirely at emit
// time since a range is never a runtime VM value.
func constOf(en entry, hint ast.Type) (ast.Constant, bool) {
	switch {
	case en.isUntyped:
		t := hint
		if t == nil {
			t = ast.IntegerUnsigned{Bitlength: 64}
		}

		signed, bl := intShape(t)

		return ast.ConstInt{Value: en.intValue, IsSigned: signed, Bitlength: bl}, true
	case en.constant != nil:
		return en.constant, true
	default:
		return nil, false
	}
}

// coercePair materializes l and r in source order, widening whichever
// side is an untyped literal to match its sibling's concrete type
// (spec.md's Rust-like literal inference, §4.2), or to a shared default
// if both are untyped. Emission order (l before r) is preserved
// regardless of which side drives the coercion.
func (fc *fnCtx) coercePair(l, r entry) (entry, entry, error) {
	lt, rt := concreteType(l), concreteType(r)

	switch {
	case lt == nil && rt != nil:
		lm, err := fc.materialize(l, rt)
		if err != nil {
			return entry{}, entry{}, err
		}

		rm, err := fc.materialize(r, nil)

		return lm, rm, err
	case lt != nil && rt == nil:
		lm, err := fc.materialize(l, nil)
		if err != nil {
			return entry{}, entry{}, err
		}

		rm, err := fc.materialize(r, lt)

		return lm, rm, err
	case lt == nil && rt == nil:
		def := ast.IntegerUnsigned{Bitlength: 64}

		lm, err := fc.materialize(l, def)
		if err != nil {
			return entry{}, entry{}, err
		}

		rm, err := fc.materialize(r, def)

		return lm, rm, err
	default:
		lm, err := fc.materialize(l, nil)
		if err != nil {
			return entry{}, entry{}, err
		}

		rm, err := fc.materialize(r, nil)

		return lm, rm, err
	}
}

// resolvePath looks up a (possibly single-segment) path operand: first
// against the emitter's own local-slot environment chain (S never lets a
// local name shadow a global one, so this order is unambiguous), then
// against the global scope sema.Program.Root resolved.
func (fc *fnCtx) resolvePath(scope *env, path []string) (entry, error) {
	if len(path) == 1 {
		if ls, ok := scope.lookup(path[0]); ok {
			return entry{isPlace: true, place: ls}, nil
		}
	}

	item, err := fc.e.resolveGlobal(path)
	if err != nil {
		return entry{}, err
	}

	if fn, ok := item.Type.(ast.Function); ok {
		if fn.Variant == ast.StandardLibrary {
			if lf, ok := nativeLibFuncs[fn.Identifier]; ok {
				return entry{isFunc: true, isLib: true, libFunc: lf}, nil
			}
		}

		return entry{isFunc: true, funcID: fn.UniqueID}, nil
	}

	if c, ok := fc.e.prog.ConstVals[item.DeclaredAt]; ok {
		if item.Mutable {
			slot, serr := fc.e.globalSlotFor(item.DeclaredAt.String(), item)
			if serr != nil {
				return entry{}, serr
			}

			return entry{isPlace: true, global: true, place: slot}, nil
		}

		return entry{isConst: true, typ: item.Type, constant: c}, nil
	}

	// A non-function, non-constant-valued item (e.g. a bare structure/
	// enumeration type name used positionally) has no runtime
	// representation; callers that reach here are only ever consuming it
	// as an operand of Field/TupleField/Call, which special-case paths
	// before falling through to this generic resolver.
	return entry{typ: item.Type}, nil
}

func (fc *fnCtx) emitExpr(scope *env, expr parser.Expr) (exprVal, error) {
	var stack []entry

	pop := func() entry {
		n := len(stack)
		v := stack[n-1]
		stack = stack[:n-1]

		return v
	}

	for _, obj := range expr.Objects {
		switch o := obj.(type) {
		case parser.Operand:
			switch o.Kind {
			case parser.OperandInt:
				stack = append(stack, entry{isUntyped: true, intValue: o.IntValue})
			case parser.OperandBool:
				c := ast.ConstBool{Value: o.BoolValue}
				stack = append(stack, entry{isConst: true, typ: ast.Boolean{}, constant: c})
			case parser.OperandString:
				return exprVal{}, fmt.Errorf("bytecode: string literal reached the VM boundary (compile-time only)")
			case parser.OperandSelf:
				ls, ok := scope.lookup("self")
				if !ok {
					return exprVal{}, fmt.Errorf("bytecode: `self` used outside a method body")
				}

				stack = append(stack, entry{isPlace: true, place: ls})
			case parser.OperandPath:
				en, err := fc.resolvePath(scope, o.Path)
				if err != nil {
					return exprVal{}, err
				}

				stack = append(stack, en)
			default:
				return exprVal{}, fmt.Errorf("bytecode: unreachable operand kind")
			}
		case parser.Operator:
			if err := fc.emitOperator(scope, o, &stack); err != nil {
				return exprVal{}, err
			}
		default:
			return exprVal{}, fmt.Errorf("bytecode: unreachable RPN object kind %T", obj)
		}
	}

	if len(stack) != 1 {
		return exprVal{}, fmt.Errorf("bytecode: expression did not reduce to exactly one value (got %d)", len(stack))
	}

	final, err := fc.materialize(pop(), nil)
	if err != nil {
		return exprVal{}, err
	}

	return exprVal{typ: final.typ, constant: final.constant}, nil
}

func binOpKind(k parser.OperatorKind) OpKind {
	switch k {
	case parser.OpAdd:
		return OpAdd
	case parser.OpSub:
		return OpSub
	case parser.OpMul:
		return OpMul
	case parser.OpDiv:
		return OpDiv
	case parser.OpRem:
		return OpRem
	case parser.OpBitAnd:
		return OpBitAnd
	case parser.OpBitOr:
		return OpBitOr
	case parser.OpBitXor:
		return OpBitXor
	case parser.OpEq:
		return OpEq
	case parser.OpNe:
		return OpNe
	case parser.OpLt:
		return OpLt
	case parser.OpLe:
		return OpLe
	case parser.OpGt:
		return OpGt
	case parser.OpGe:
		return OpGe
	case parser.OpLogAnd:
		return OpLogAnd
	case parser.OpLogOr:
		return OpLogOr
	case parser.OpLogXor:
		return OpLogXor
	default:
		return OpAdd
	}
}

//nolint:gocyclo // one exhaustive dispatch over the closed OperatorKind variant, matching the style of sema's own checkOperator.
func (fc *fnCtx) emitOperator(scope *env, o parser.Operator, stack *[]entry) error {
	e := fc.e

	pop := func() entry {
		s := *stack
		n := len(s)
		v := s[n-1]
		*stack = s[:n-1]

		return v
	}

	switch o.Kind {
	case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv, parser.OpRem,
		parser.OpBitAnd, parser.OpBitOr, parser.OpBitXor,
		parser.OpEq, parser.OpNe, parser.OpLt, parser.OpLe, parser.OpGt, parser.OpGe:
		r := pop()
		l := pop()

		lm, _, err := fc.coercePair(l, r)
		if err != nil {
			return err
		}

		signed, bl := intShape(lm.typ)
		_, isField := lm.typ.(ast.Field)

		e.emit(Arith{Op: binOpKind(o.Kind), IsField: isField, Signed: signed, Bitlength: bl})

		resultType := ast.Type(lm.typ)
		switch o.Kind {
		case parser.OpEq, parser.OpNe, parser.OpLt, parser.OpLe, parser.OpGt, parser.OpGe:
			resultType = ast.Boolean{}
		}

		*stack = append(*stack, entry{typ: resultType})

		return nil
	case parser.OpLogAnd, parser.OpLogOr, parser.OpLogXor:
		r := pop()
		l := pop()

		if _, err := fc.materialize(l, ast.Boolean{}); err != nil {
			return err
		}

		if _, err := fc.materialize(r, ast.Boolean{}); err != nil {
			return err
		}

		e.emit(Arith{Op: binOpKind(o.Kind)})
		*stack = append(*stack, entry{typ: ast.Boolean{}})

		return nil
	case parser.OpShl, parser.OpShr:
		r := pop()
		l := pop()

		if !r.isUntyped && r.constant == nil {
			return fmt.Errorf("bytecode: shift amount must be a compile-time constant")
		}

		var amount *big.Int
		if r.isUntyped {
			amount = r.intValue
		} else if ci, ok := r.constant.(ast.ConstInt); ok {
			amount = ci.Value
		} else {
			return fmt.Errorf("bytecode: shift amount must be an integer constant")
		}

		lm, err := fc.materialize(l, nil)
		if err != nil {
			return err
		}

		signed, bl := intShape(lm.typ)

		if o.Kind == parser.OpShl {
			e.emit(Shl{Amount: amount.Uint64(), Signed: signed, Bitlength: bl})
		} else {
			e.emit(Shr{Amount: amount.Uint64(), Signed: signed, Bitlength: bl})
		}

		*stack = append(*stack, entry{typ: lm.typ})

		return nil
	case parser.OpNeg, parser.OpNot, parser.OpBitNot:
		x := pop()

		xm, err := fc.materialize(x, nil)
		if err != nil {
			return err
		}

		op := OpNeg
		if o.Kind == parser.OpNot {
			op = OpLogNot
		} else if o.Kind == parser.OpBitNot {
			op = OpBitNot
		}

		signed, bl := intShape(xm.typ)
		_, isField := xm.typ.(ast.Field)
		e.emit(Arith{Op: op, IsField: isField, Signed: signed, Bitlength: bl})
		*stack = append(*stack, entry{typ: xm.typ})

		return nil
	case parser.OpRange, parser.OpRangeInclusive:
		// A range only ever appears in a `for` header (match patterns are
		// folded directly into MatchArm.RangeLow/RangeHigh by S, never
		// reaching a generic Expr), and S already requires both bounds
		// fold to a constant; the result is itself compile-time-only, so
		// it is never pushed onto the real evaluation stack - only
		// emitFor ever reads the constant back out of the returned
		// exprVal.
		r := pop()
		l := pop()

		hint := concreteType(l)
		if hint == nil {
			hint = concreteType(r)
		}

		lc, ok := constOf(l, hint)
		if !ok {
			return fmt.Errorf("bytecode: range start must be a compile-time constant")
		}

		rc, ok := constOf(r, hint)
		if !ok {
			return fmt.Errorf("bytecode: range end must be a compile-time constant")
		}

		li, ok := lc.(ast.ConstInt)
		if !ok {
			return fmt.Errorf("bytecode: range bounds must be integers")
		}

		ri, ok := rc.(ast.ConstInt)
		if !ok {
			return fmt.Errorf("bytecode: range bounds must be integers")
		}

		var result ast.Constant
		if o.Kind == parser.OpRangeInclusive {
			result = ast.ConstRangeInclusive{Start: li.Value, End: ri.Value, IsSigned: li.IsSigned, Bitlength: li.Bitlength}
		} else {
			result = ast.ConstRange{Start: li.Value, End: ri.Value, IsSigned: li.IsSigned, Bitlength: li.Bitlength}
		}

		*stack = append(*stack, entry{constant: result, typ: result.Type()})

		return nil
	case parser.OpCast:
		x := pop()

		if _, err := fc.materialize(x, nil); err != nil {
			return err
		}

		target, err := resolveTypeExpr(scope.globalScope(fc), o.CastType)
		if err != nil {
			return err
		}

		_, toField := target.(ast.Field)
		signed, bl := intShape(target)
		e.emit(Cast{Signed: signed, Bitlength: bl, ToField: toField})
		*stack = append(*stack, entry{typ: target})

		return nil
	case parser.OpIndex:
		idx := pop()
		base := pop()

		return fc.emitIndex(stack, base, idx)
	case parser.OpField:
		base := pop()

		return fc.emitFieldAccess(stack, base, o.FieldName)
	case parser.OpTupleField:
		base := pop()

		return fc.emitTupleField(stack, base, o.TupleIndex)
	case parser.OpCall:
		return fc.emitCall(stack, o.Argc)
	case parser.OpAssign:
		rhs := pop()
		lhs := pop()

		if err := fc.emitAssign(lhs, rhs, o); err != nil {
			return err
		}

		*stack = append(*stack, entry{typ: ast.Unit{}})

		return nil
	default:
		return fmt.Errorf("bytecode: unreachable operator kind")
	}
}

// globalScope is a small shim letting emitOperator reach
// sema.Program.Root for type-name resolution (casts) without threading
// an extra parameter through every call site; env itself only models
// local slots.
func (s *env) globalScope(fc *fnCtx) *ast.Scope { return fc.e.prog.Root }

func resolveTypeExpr(scope *ast.Scope, te parser.TypeExpr) (ast.Type, error) {
	switch t := te.(type) {
	case parser.NamedTypeExpr:
		switch t.Name {
		case "bool":
			return ast.Boolean{}, nil
		case "field":
			return ast.Field{}, nil
		case "str":
			return ast.StringType{}, nil
		}

		if it, ok := builtinIntType(t.Name); ok {
			return it, nil
		}

		item, err := scope.ResolvePath(t.At, strings.Split(t.Name, "::"))
		if err != nil {
			return nil, err
		}

		return item.Type, nil
	case parser.ArrayTypeExpr:
		elem, err := resolveTypeExpr(scope, t.Element)
		if err != nil {
			return nil, err
		}

		size, err := constIntLiteral(t.Size)
		if err != nil {
			return nil, err
		}

		return ast.Array{Element: elem, Size: uint(size)}, nil
	case parser.TupleTypeExpr:
		elems := make([]ast.Type, len(t.Elements))

		for i, te := range t.Elements {
			el, err := resolveTypeExpr(scope, te)
			if err != nil {
				return nil, err
			}

			elems[i] = el
		}

		return ast.Tuple{Elements: elems}, nil
	default:
		return nil, fmt.Errorf("bytecode: unreachable type expression")
	}
}

// constIntLiteral reads an array-size Expr that is a single integer
// literal; S already required array sizes fold to a constant. Only a
// literal size is accepted here: a size written as a const/static name
// is rejected with an error, since resolveTypeExpr does not consult
// sema.Program.ConstVals.
func constIntLiteral(e parser.Expr) (uint64, error) {
	if len(e.Objects) == 1 {
		if op, ok := e.Objects[0].(parser.Operand); ok && op.Kind == parser.OperandInt {
			return op.IntValue.Uint64(), nil
		}
	}

	return 0, fmt.Errorf("bytecode: array size must be a literal integer in this implementation")
}

func builtinIntType(name string) (ast.Type, bool) {
	if len(name) < 2 {
		return nil, false
	}

	var signed bool

	switch name[0] {
	case 'u':
		signed = false
	case 'i':
		signed = true
	default:
		return nil, false
	}

	n, err := strconv.ParseUint(name[1:], 10, 32)
	if err != nil {
		return nil, false
	}

	bitlength := uint(n)
	if !ast.ValidIntegerBitlength(bitlength) {
		return nil, false
	}

	if signed {
		return ast.IntegerSigned{Bitlength: bitlength}, true
	}

	return ast.IntegerUnsigned{Bitlength: bitlength}, true
}
