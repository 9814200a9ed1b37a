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

package gadgets

import (
	"fmt"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

// shiftToUnsigned biases a potentially-signed value by the same
// excess-2^(n-1) scheme RangeCheck uses, so every bitwise gadget below
// decomposes a plain non-negative bitlength-wide pattern. This is a
// deliberate simplification over true two's-complement bit manipulation:
// signed bitwise/shift results are defined over this excess encoding
// rather than hardware two's complement, consistent with how this VM
// already range-checks and orders signed values everywhere else.
func shiftToUnsigned(v field.Element, signed bool, bitlength uint, engine field.Engine) (shifted, bias field.Element) {
	if !signed {
		return v, engine.Zero()
	}

	bias = engine.FromBigInt(powOfTwo(bitlength - 1))

	return v.Add(bias), bias
}

// decomposeBits bit-decomposes an already-shifted value into bitlength
// fresh, binarity-constrained boolean Scalars, constrained to recompose
// to shiftedValue. Shared by every bitwise gadget, each of which
// synthesizes its own per-bit algebra and then recomposes its own result.
func decomposeBits(cs *circuit.ConstraintSystem, namespace string, shiftedValue field.Element, bitlength uint) []circuit.Scalar {
	engine := cs.Engine()
	bs := bitsOf(shiftedValue, bitlength)

	bits := make([]circuit.Scalar, bitlength)

	var (
		sum   circuit.LinearCombination
		coeff = engine.One()
		two   = engine.FromUint64(2)
	)

	for i := uint(0); i < bitlength; i++ {
		bitValue := engine.Zero()
		if bs.Test(i) {
			bitValue = engine.One()
		}

		bitVar := circuit.NewVar(cs, bitValue, ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.bit%d", namespace, i))
		cs.AddConstraint(ns, bitVar.LC, bitVar.LC, bitVar.LC)

		bits[i] = bitVar
		sum = sum.Add(bitVar.LC.Scale(coeff))
		coeff = coeff.Mul(two)
	}

	cs.AddConstraint(namespace+".decompose", sum, circuit.Const(engine.One()), circuit.Const(shiftedValue))

	return bits
}

// recomposeBits sums bitlength result bits with doubling coefficients,
// removes bias, and allocates the resulting Scalar under resultType.
func recomposeBits(cs *circuit.ConstraintSystem, namespace string, values []field.Element, lcs []circuit.LinearCombination, bias field.Element, resultType ast.Type) circuit.Scalar {
	engine := cs.Engine()

	sumValue := engine.Zero()

	var (
		sumLC circuit.LinearCombination
		coeff = engine.One()
		two   = engine.FromUint64(2)
	)

	for i := range values {
		sumValue = sumValue.Add(values[i].Mul(coeff))
		sumLC = sumLC.Add(lcs[i].Scale(coeff))
		coeff = coeff.Mul(two)
	}

	finalValue := sumValue.Sub(bias)
	result := circuit.NewVar(cs, finalValue, resultType)

	cs.AddConstraint(namespace+".recompose", sumLC.Sub(circuit.Const(bias)), circuit.Const(engine.One()), result.LC)

	return result
}

// And synthesizes bitwise a&b: decomposes both operands, constrains each
// result bit to a_i*b_i, and recomposes (spec.md §4.4's "bitwise...
// decompose-and-recompose").
func And(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	ls, bias := shiftToUnsigned(l.Value, signed, bitlength, engine)
	rs, _ := shiftToUnsigned(r.Value, signed, bitlength, engine)

	lbits := decomposeBits(cs, namespace+".lhs", ls, bitlength)
	rbits := decomposeBits(cs, namespace+".rhs", rs, bitlength)

	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)

	for i := uint(0); i < bitlength; i++ {
		values[i] = lbits[i].Value.Mul(rbits[i].Value)
		resultVar := circuit.NewVar(cs, values[i], ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.and%d", namespace, i))
		cs.AddConstraint(ns, lbits[i].LC, rbits[i].LC, resultVar.LC)

		lcs[i] = resultVar.LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, l.Type), nil
}

// Or synthesizes bitwise a|b as a+b-a*b per bit.
func Or(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	ls, bias := shiftToUnsigned(l.Value, signed, bitlength, engine)
	rs, _ := shiftToUnsigned(r.Value, signed, bitlength, engine)

	lbits := decomposeBits(cs, namespace+".lhs", ls, bitlength)
	rbits := decomposeBits(cs, namespace+".rhs", rs, bitlength)

	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)

	for i := uint(0); i < bitlength; i++ {
		andValue := lbits[i].Value.Mul(rbits[i].Value)
		andVar := circuit.NewVar(cs, andValue, ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.or%d", namespace, i))
		cs.AddConstraint(ns, lbits[i].LC, rbits[i].LC, andVar.LC)

		values[i] = lbits[i].Value.Add(rbits[i].Value).Sub(andValue)
		resultVar := circuit.NewVar(cs, values[i], ast.Boolean{})
		cs.AddConstraint(ns+".sum", lbits[i].LC.Add(rbits[i].LC).Sub(andVar.LC), circuit.Const(engine.One()), resultVar.LC)

		lcs[i] = resultVar.LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, l.Type), nil
}

// Xor synthesizes bitwise a^b as a+b-2*a*b per bit.
func Xor(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	ls, bias := shiftToUnsigned(l.Value, signed, bitlength, engine)
	rs, _ := shiftToUnsigned(r.Value, signed, bitlength, engine)

	lbits := decomposeBits(cs, namespace+".lhs", ls, bitlength)
	rbits := decomposeBits(cs, namespace+".rhs", rs, bitlength)

	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)
	two := engine.FromUint64(2)

	for i := uint(0); i < bitlength; i++ {
		andValue := lbits[i].Value.Mul(rbits[i].Value)
		andVar := circuit.NewVar(cs, andValue, ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.xor%d", namespace, i))
		cs.AddConstraint(ns, lbits[i].LC, rbits[i].LC, andVar.LC)

		values[i] = lbits[i].Value.Add(rbits[i].Value).Sub(andValue.Mul(two))
		resultVar := circuit.NewVar(cs, values[i], ast.Boolean{})
		cs.AddConstraint(ns+".sum", lbits[i].LC.Add(rbits[i].LC).Sub(andVar.LC.Scale(two)), circuit.Const(engine.One()), resultVar.LC)

		lcs[i] = resultVar.LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, l.Type), nil
}

// BitNot synthesizes bitwise ^x as 1-x_i per bit.
func BitNot(cs *circuit.ConstraintSystem, namespace string, x circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	xs, bias := shiftToUnsigned(x.Value, signed, bitlength, engine)
	xbits := decomposeBits(cs, namespace+".operand", xs, bitlength)

	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)

	for i := uint(0); i < bitlength; i++ {
		values[i] = engine.One().Sub(xbits[i].Value)
		resultVar := circuit.NewVar(cs, values[i], ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.not%d", namespace, i))
		cs.AddConstraint(ns, circuit.Const(engine.One()).Sub(xbits[i].LC), circuit.Const(engine.One()), resultVar.LC)

		lcs[i] = resultVar.LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, x.Type), nil
}

// Shl synthesizes a left shift by a compile-time-constant amount: the
// operand's bits are decomposed and re-wired at an offset index (no new
// algebraic constraint beyond the decomposition itself), with vacated
// low bits filled by zero and bits shifted past the top truncated.
func Shl(cs *circuit.ConstraintSystem, namespace string, x circuit.Scalar, amount uint64, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	xs, bias := shiftToUnsigned(x.Value, signed, bitlength, engine)
	xbits := decomposeBits(cs, namespace+".operand", xs, bitlength)

	shift := uint(amount)
	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)

	for i := uint(0); i < bitlength; i++ {
		if i < shift {
			values[i] = engine.Zero()
			lcs[i] = circuit.Const(engine.Zero())

			continue
		}

		src := i - shift
		values[i] = xbits[src].Value
		lcs[i] = xbits[src].LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, x.Type), nil
}

// Shr is Shl's right-shift counterpart: bits are re-wired downward and
// vacated high bits are zero-filled.
func Shr(cs *circuit.ConstraintSystem, namespace string, x circuit.Scalar, amount uint64, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	xs, bias := shiftToUnsigned(x.Value, signed, bitlength, engine)
	xbits := decomposeBits(cs, namespace+".operand", xs, bitlength)

	shift := uint(amount)
	values := make([]field.Element, bitlength)
	lcs := make([]circuit.LinearCombination, bitlength)

	for i := uint(0); i < bitlength; i++ {
		src := i + shift
		if src >= bitlength {
			values[i] = engine.Zero()
			lcs[i] = circuit.Const(engine.Zero())

			continue
		}

		values[i] = xbits[src].Value
		lcs[i] = xbits[src].LC
	}

	return recomposeBits(cs, namespace, values, lcs, bias, x.Type), nil
}
