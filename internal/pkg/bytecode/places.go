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

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// emitIndex lowers `base[idx]`. An untyped integer-literal idx resolves
// entirely at emit time to a narrower Place over the same underlying
// slot, so a following assignment or read is an ordinary Load/Store with
// no runtime address arithmetic at all. Any other idx, including a loop
// counter (which lives in a runtime slot), falls back to computing
// an absolute offset on the evaluation stack and letting LoadByIndex
// resolve it (design note "Indexed array addressing").
func (fc *fnCtx) emitIndex(stack *[]entry, base, idx entry) error {
	e := fc.e

	if !base.isPlace {
		return fmt.Errorf("bytecode: index base is not addressable in this implementation")
	}

	arr, ok := base.place.typ.(ast.Array)
	if !ok {
		return fmt.Errorf("bytecode: cannot index a non-array type %s", base.place.typ)
	}

	elemWidth := arr.Element.Width()

	if idx.isUntyped {
		i := idx.intValue.Uint64()
		elemSlot := localSlot{
			index: base.place.index + uint(i)*elemWidth,
			width: elemWidth,
			typ:   arr.Element,
		}
		*stack = append(*stack, entry{isPlace: true, global: base.global, place: elemSlot})

		return nil
	}

	u64 := ast.IntegerUnsigned{Bitlength: 64}

	e.emit(Push{Value: ast.ConstInt{Value: big.NewInt(int64(base.place.index)), IsSigned: false, Bitlength: 64}, Type: u64})

	if _, err := fc.materialize(idx, u64); err != nil {
		return err
	}

	e.emit(Push{Value: ast.ConstInt{Value: big.NewInt(int64(elemWidth)), IsSigned: false, Bitlength: 64}, Type: u64})
	e.emit(Arith{Op: OpMul})
	e.emit(Arith{Op: OpAdd})
	e.emit(LoadByIndex{ElementLength: elemWidth})

	*stack = append(*stack, entry{typ: arr.Element})

	return nil
}

// emitFieldAccess lowers `base.name`. Structures in this implementation
// always live in an addressable Place (a local, a global, or a Place
// produced by a preceding field/index/tuple-field access, since S
// forbids a structure literal as a bare standalone expression outside an
// initializer); reading through a materialized non-Place structure value
// is not supported.
func (fc *fnCtx) emitFieldAccess(stack *[]entry, base entry, name string) error {
	if !base.isPlace {
		return fmt.Errorf("bytecode: field access on a non-addressable value is not supported in this implementation")
	}

	st, ok := base.place.typ.(ast.Structure)
	if !ok {
		return fmt.Errorf("bytecode: cannot access field %q of non-structure type %s", name, base.place.typ)
	}

	ft, idx, ok := st.FieldType(name)
	if !ok {
		return fmt.Errorf("bytecode: unreachable: undeclared field %q survived semantic analysis", name)
	}

	var offset uint

	for i, f := range st.Fields {
		if i == idx {
			break
		}

		offset += f.Type.Width()
	}

	fieldSlot := localSlot{index: base.place.index + offset, width: ft.Width(), typ: ft}
	*stack = append(*stack, entry{isPlace: true, global: base.global, place: fieldSlot})

	return nil
}

// emitTupleField lowers `base.N`, the positional counterpart of
// emitFieldAccess.
func (fc *fnCtx) emitTupleField(stack *[]entry, base entry, index int) error {
	if !base.isPlace {
		return fmt.Errorf("bytecode: tuple field access on a non-addressable value is not supported in this implementation")
	}

	tp, ok := base.place.typ.(ast.Tuple)
	if !ok {
		return fmt.Errorf("bytecode: cannot access tuple field .%d of non-tuple type %s", index, base.place.typ)
	}

	var offset uint

	for i := 0; i < index; i++ {
		offset += tp.Elements[i].Width()
	}

	elemType := tp.Elements[index]
	fieldSlot := localSlot{index: base.place.index + offset, width: elemType.Width(), typ: elemType}
	*stack = append(*stack, entry{isPlace: true, global: base.global, place: fieldSlot})

	return nil
}

// emitCall lowers `callee(args...)`; the RPN layout places the callee
// below its Argc arguments (parser/expr.go's flatten), so arguments pop
// first, in reverse, and the callee resolves last.
func (fc *fnCtx) emitCall(stack *[]entry, argc int) error {
	e := fc.e

	s := *stack
	if len(s) < argc+1 {
		return fmt.Errorf("bytecode: unreachable: call stack underflow")
	}

	args := make([]entry, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = s[len(s)-1]
		s = s[:len(s)-1]
	}

	callee := s[len(s)-1]
	s = s[:len(s)-1]
	*stack = s

	if !callee.isFunc {
		return fmt.Errorf("bytecode: call target is not a function")
	}

	if callee.isLib {
		for _, a := range args {
			if _, err := fc.materialize(a, ast.Field{}); err != nil {
				return err
			}
		}

		e.emit(LibCall{Name: callee.libFunc, Argc: uint(argc)})

		retType := ast.Type(ast.Field{})
		if callee.libFunc == LibSchnorrVerify {
			retType = ast.Boolean{}
		}

		*stack = append(*stack, entry{typ: retType})

		return nil
	}

	fn := e.findFunction(callee.funcID)
	if fn == nil {
		return fmt.Errorf("bytecode: unreachable: call to unresolved function id %d", callee.funcID)
	}

	var width uint

	for i, a := range args {
		var hint ast.Type
		if i < len(fn.Sig.Parameters) {
			hint = fn.Sig.Parameters[i]
		}

		am, err := fc.materialize(a, hint)
		if err != nil {
			return err
		}

		width += am.width()
	}

	addr, ok := e.addrs[fn.UniqueID]
	if !ok {
		return fmt.Errorf("bytecode: unreachable: function %q has no reserved address", fn.Name)
	}

	e.emit(Call{Addr: addr, Argc: uint(argc), Width: width})
	*stack = append(*stack, entry{typ: fn.Sig.Return})

	return nil
}

// emitAssign lowers `lhs = rhs` / `lhs op= rhs`. A compound assignment
// loads the target's current value before the new one is materialized,
// so the two operands reach Arith in the same (left, right) order every
// other binary operator relies on.
func (fc *fnCtx) emitAssign(lhs, rhs entry, o parser.Operator) error {
	e := fc.e

	if !lhs.isPlace {
		return fmt.Errorf("bytecode: assignment target is not addressable")
	}

	if o.IsCompound {
		if lhs.global {
			e.emit(LoadGlobal{Index: lhs.place.index, Length: lhs.place.width})
		} else {
			e.emit(Load{Index: lhs.place.index, Length: lhs.place.width})
		}

		if _, err := fc.materialize(rhs, lhs.place.typ); err != nil {
			return err
		}

		signed, bl := intShape(lhs.place.typ)
		_, isField := lhs.place.typ.(ast.Field)
		e.emit(Arith{Op: binOpKind(o.Compound), IsField: isField, Signed: signed, Bitlength: bl})
	} else {
		if _, err := fc.materialize(rhs, lhs.place.typ); err != nil {
			return err
		}
	}

	if lhs.global {
		e.emit(StoreGlobal{Index: lhs.place.index, Length: lhs.place.width})
	} else {
		e.emit(Store{Index: lhs.place.index, Length: lhs.place.width})
	}

	return nil
}
