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

package vm

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
	"github.com/zinc-lang/zinc/internal/pkg/vm/gadgets"
)

// execUnaryArith dispatches Neg/BitNot/LogNot. LogNot reuses the same
// boolean-negation gadget as BitNot on a single-bit operand, since
// spec.md's logical and 1-bit bitwise operators coincide algebraically.
func (vm *VM) execUnaryArith(in bytecode.Arith, ns string, x circuit.Scalar) (circuit.Scalar, error) {
	cs := vm.cs

	switch in.Op {
	case bytecode.OpNeg:
		return gadgets.Neg(cs, ns, x)
	case bytecode.OpBitNot:
		if in.IsField {
			return circuit.Scalar{}, diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location, "BitNot on a field-typed operand")
		}

		return gadgets.BitNot(cs, ns, x, in.Signed, in.Bitlength)
	case bytecode.OpLogNot:
		return gadgets.Not(cs, ns, x), nil
	default:
		return circuit.Scalar{}, diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location, "unrecognized unary OpKind %d", in.Op)
	}
}

// execBinaryArith dispatches every two-operand OpKind to its gadgets
// function (spec.md §4.4's opcode-to-gadget table).
func (vm *VM) execBinaryArith(in bytecode.Arith, ns string, l, r circuit.Scalar) (circuit.Scalar, error) {
	cs := vm.cs

	switch in.Op {
	case bytecode.OpAdd:
		return gadgets.Add(cs, ns, l, r)
	case bytecode.OpSub:
		return gadgets.Sub(cs, ns, l, r)
	case bytecode.OpMul:
		return gadgets.Mul(cs, ns, l, r)
	case bytecode.OpDiv:
		q, _, err := gadgets.Div(cs, ns, l, r)
		return q, err
	case bytecode.OpRem:
		_, rem, err := gadgets.Div(cs, ns, l, r)
		return rem, err
	case bytecode.OpBitAnd, bytecode.OpLogAnd:
		if in.Op == bytecode.OpLogAnd {
			return gadgets.Mul(cs, ns, l, r)
		}

		return gadgets.And(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpBitOr, bytecode.OpLogOr:
		if in.Op == bytecode.OpLogOr {
			return gadgets.Or(cs, ns, l, r, in.Signed, 1)
		}

		return gadgets.Or(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpBitXor, bytecode.OpLogXor:
		if in.Op == bytecode.OpLogXor {
			return gadgets.Xor(cs, ns, l, r, in.Signed, 1)
		}

		return gadgets.Xor(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpEq:
		return gadgets.Eq(cs, ns, l, r), nil
	case bytecode.OpNe:
		return gadgets.Ne(cs, ns, l, r), nil
	case bytecode.OpLt:
		return gadgets.Lt(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpLe:
		return gadgets.Le(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpGt:
		return gadgets.Gt(cs, ns, l, r, in.Signed, in.Bitlength)
	case bytecode.OpGe:
		return gadgets.Ge(cs, ns, l, r, in.Signed, in.Bitlength)
	default:
		return circuit.Scalar{}, diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location, "unrecognized binary OpKind %d", in.Op)
	}
}

// execLoad pushes length scalars from slice[base+index : base+index+length]
// onto the evaluation stack (Load/LoadGlobal share this, base is 0 for
// globals).
func (vm *VM) execLoad(slice *[]circuit.Scalar, base, index, length uint) error {
	s := vm.state
	s.ensureCapacity(slice, base+index+length)

	for i := uint(0); i < length; i++ {
		s.push((*slice)[base+index+i])
	}

	return nil
}

// execStore pops length scalars (restoring original push order) and writes
// each, masked against the active branch selector, into
// slice[base+index+i] (Store/StoreGlobal share this; spec.md §4.4's
// branch-masked side effects).
func (vm *VM) execStore(slice *[]circuit.Scalar, ns string, base, index, length uint) error {
	s := vm.state

	values, err := s.popN(length)
	if err != nil {
		return err
	}

	s.ensureCapacity(slice, base+index+length)
	selector := s.currentSelector(vm.cs)

	for i := uint(0); i < length; i++ {
		slot := base + index + i
		previous := (*slice)[slot]

		written, merr := maskedWrite(vm.cs, fmt.Sprintf("%s.store%d", ns, i), selector, values[i], previous)
		if merr != nil {
			return merr
		}

		(*slice)[slot] = written
	}

	return nil
}

// resolveIndex pops the already-computed absolute offset Scalar G's
// non-constant-index path pushes (bytecode/places.go's emitIndex) and
// returns it as a concrete slot number.
func resolveIndex(s *ExecutionState) (uint, error) {
	offset, err := s.pop()
	if err != nil {
		return 0, err
	}

	return uint(offset.Value.BigInt().Uint64()), nil
}

// execLoadByIndex pops an absolute offset and pushes elementLength scalars
// from the current frame's locals starting there (spec.md §4.4's indexed
// array read; this VM resolves the offset against the concrete witness
// value rather than through a zk-sound multiplexer - a documented scope
// simplification, see gadgets' package doc comment for the same stance on
// hashing).
func (vm *VM) execLoadByIndex(elementLength uint) error {
	s := vm.state

	frame, err := s.currentFrame()
	if err != nil {
		return err
	}

	offset, err := resolveIndex(s)
	if err != nil {
		return err
	}

	return vm.execLoad(&s.DataStack, frame.Base, offset, elementLength)
}

// execStoreByIndex is LoadByIndex's masked write counterpart.
func (vm *VM) execStoreByIndex(ns string, elementLength uint) error {
	s := vm.state

	frame, err := s.currentFrame()
	if err != nil {
		return err
	}

	offset, err := resolveIndex(s)
	if err != nil {
		return err
	}

	return vm.execStore(&s.DataStack, ns, frame.Base, offset, elementLength)
}

// execSlice narrows an addressed array: pops the base offset, re-pushes a
// new offset value (base+Offset*ElementLength), the addressing convention
// emitIndex's absolute-offset scheme already establishes for LoadByIndex.
func (vm *VM) execSlice(in bytecode.Slice) error {
	s := vm.state

	base, err := resolveIndex(s)
	if err != nil {
		return err
	}

	newOffset := base + in.Offset*in.ElementLength
	engine := vm.cs.Engine()

	s.push(circuit.NewConst(engine.FromUint64(uint64(newOffset)), ast.IntegerUnsigned{Bitlength: 64}))

	return nil
}

// execAssert enforces (v ∨ ¬selector) ≠ 0 via x = v + ns - v*ns (boolean
// OR), then the inverse-witness trick x*inv=1 (spec.md §4.4: "Assert pops
// a boolean and enforces it under the active selector"). x=0 can only
// happen when v=0 and selector=1, i.e. a genuinely failing assertion under
// an active branch; that case returns AssertionError before the
// unsatisfiable inverse constraint would otherwise be added.
func (vm *VM) execAssert(in bytecode.Assert, ns string) error {
	s, cs := vm.state, vm.cs
	engine := cs.Engine()

	v, err := s.pop()
	if err != nil {
		return err
	}

	selector := s.currentSelector(cs)
	notSelector := circuit.NewVar(cs, engine.One().Sub(selector.Value), selector.Type)
	cs.AddConstraint(ns+".assert.not", circuit.Const(engine.One()).Sub(selector.LC), circuit.Const(engine.One()), notSelector.LC)

	vn, gerr := gadgets.Mul(cs, ns+".assert.vn", v, notSelector)
	if gerr != nil {
		return gerr
	}

	xValue := v.Value.Add(notSelector.Value).Sub(vn.Value)
	x := circuit.NewVar(cs, xValue, ast.Boolean{})
	cs.AddConstraint(ns+".assert.sum", v.LC.Add(notSelector.LC).Sub(vn.LC), circuit.Const(engine.One()), x.LC)

	if x.Value.IsZero() {
		message := "assertion failed"
		if in.Message != nil {
			message = *in.Message
		}

		return diagnostic.New(diagnostic.CodeAssertionError, vm.state.Location, message)
	}

	inv := circuit.NewVar(cs, x.Value.Inverse(), ast.Field{})
	cs.AddConstraint(ns+".assert.inv", x.LC, inv.LC, circuit.Const(engine.One()))

	return nil
}

// execDbg formats Argc popped operands against Format's `{}` placeholders
// and logs the result via logrus, with no effect on the witness or
// constraint system (spec.md §8's dbg! round-trip property: debug output
// must not perturb the circuit being built).
func (vm *VM) execDbg(in bytecode.Dbg) error {
	s := vm.state

	args, err := s.popN(in.Argc)
	if err != nil {
		return err
	}

	msg := in.Format
	for _, a := range args {
		msg = strings.Replace(msg, "{}", a.Value.String(), 1)
	}

	log.Debug(msg)

	return nil
}

// execLibCall pops Argc operands, dispatches to the matching gadgets
// library function, and pushes its result (spec.md §3/§4.4's fixed
// LibFunc set). Array helpers operate on the whole evaluation-stack
// segment rather than a single Scalar, since their operand is a variable-
// length sequence.
func (vm *VM) execLibCall(in bytecode.LibCall, ns string) error {
	s, cs := vm.state, vm.cs

	switch in.Name {
	case bytecode.LibBlake2s:
		x, err := s.pop()
		if err != nil {
			return err
		}

		r, err := gadgets.Blake2s(cs, x)
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibBlake2sMultiInput:
		inputs, err := s.popN(in.Argc)
		if err != nil {
			return err
		}

		r, err := gadgets.Blake2sMultiInput(cs, inputs)
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibSha256:
		x, err := s.pop()
		if err != nil {
			return err
		}

		r, err := gadgets.Sha256(cs, x)
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibPedersen:
		inputs, err := s.popN(in.Argc)
		if err != nil {
			return err
		}

		r, err := gadgets.Pedersen(cs, inputs)
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibSchnorrVerify:
		args, err := s.popN(4)
		if err != nil {
			return err
		}

		r, err := gadgets.SchnorrVerify(cs, ns, args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibFFInvert:
		x, err := s.pop()
		if err != nil {
			return err
		}

		r, err := gadgets.FFInvert(cs, ns, x)
		if err != nil {
			return err
		}

		s.push(r)

	case bytecode.LibArrayPad, bytecode.LibArrayTruncate, bytecode.LibArrayReverse:
		return vm.execArrayLibCall(in)

	default:
		return diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location, "unrecognized library call %d", in.Name)
	}

	return nil
}

// execArrayLibCall handles the three array helpers, whose operand is the
// array elements plus one or two trailing control scalars, all read
// directly off the evaluation stack in original push (argument) order.
//
// LibArrayPad mirrors the original zinc `std::array::pad(array,
// new_length, value)`: two distinct trailing operands, the target length
// and the fill value, popped in that order - not one operand doing
// double duty as both.
func (vm *VM) execArrayLibCall(in bytecode.LibCall) error {
	s := vm.state

	args, err := s.popN(in.Argc)
	if err != nil {
		return err
	}

	switch in.Name {
	case bytecode.LibArrayPad:
		padValue := args[len(args)-1]
		lengthArg := args[len(args)-2]
		elements := args[:len(args)-2]
		targetLength := uint(lengthArg.Value.BigInt().Uint64())

		for _, r := range gadgets.ArrayPad(elements, targetLength, padValue) {
			s.push(r)
		}

	case bytecode.LibArrayTruncate:
		lengthArg := args[len(args)-1]
		elements := args[:len(args)-1]
		targetLength := uint(lengthArg.Value.BigInt().Uint64())

		for _, r := range gadgets.ArrayTruncate(elements, targetLength) {
			s.push(r)
		}

	case bytecode.LibArrayReverse:
		for _, r := range gadgets.ArrayReverse(args) {
			s.push(r)
		}
	}

	return nil
}
