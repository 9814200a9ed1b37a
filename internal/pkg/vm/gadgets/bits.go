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

// Package gadgets synthesizes the per-opcode sub-circuits spec.md §4.4
// requires: range checks, arithmetic, comparisons, bitwise/shift
// operations, casts, and the fixed library-call set (hashes, signature
// verification, field inverse, array helpers).
//
// Grounded on go-corset's pkg/air/gadgets package: one small, focused
// gadget type/function per concern (BitwidthGadget, column-sort,
// normalisation), each taking the shared schema/constraint-system as an
// explicit parameter rather than a method receiver on it, so a gadget
// stays a pure function of (ConstraintSystem, operands) -> result.
package gadgets

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

// bitsOf decomposes v's canonical representation into a bitlength-wide
// scratch bitset, grounded on the same byte-decomposition shape as
// go-corset's applyHorizontalBitwidthGadget, generalized from bytes to
// single bits.
func bitsOf(v field.Element, bitlength uint) *bitset.BitSet {
	bs := bitset.New(bitlength)
	for i := uint(0); i < bitlength; i++ {
		if v.Bit(i) {
			bs.Set(i)
		}
	}

	return bs
}

func powOfTwo(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

// RangeCheck bit-decomposes s to bitlength bits and constrains the
// decomposition to recompose to s's value, enforcing spec.md §4.4's
// "after every arithmetic operation on a bounded integer type, the
// result is bit-decomposed... and each bit is constrained boolean."
// Signed types are range-checked via a bias encoding (shifted = value +
// 2^(bitlength-1)) so the decomposed bits are always a non-negative
// bitlength-wide pattern, then the bias is algebraically removed — the
// concrete mechanism behind spec.md's "two's-complement interpretation
// is enforced."
func RangeCheck(cs *circuit.ConstraintSystem, namespace string, s circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	if bitlength == 0 {
		return s, nil
	}

	engine := cs.Engine()
	shiftedValue := s.Value

	var bias field.Element

	if signed {
		bias = engine.FromBigInt(powOfTwo(bitlength - 1))
		shiftedValue = shiftedValue.Add(bias)
	}

	bs := bitsOf(shiftedValue, bitlength)

	var (
		sum         circuit.LinearCombination
		coefficient = engine.One()
		two         = engine.FromUint64(2)
	)

	for i := uint(0); i < bitlength; i++ {
		bitValue := engine.Zero()
		if bs.Test(i) {
			bitValue = engine.One()
		}

		bitVar := circuit.NewVar(cs, bitValue, ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.bit%d", namespace, i))
		// Binarity: bit*bit = bit holds only for bit in {0,1}.
		cs.AddConstraint(ns, bitVar.LC, bitVar.LC, bitVar.LC)

		sum = sum.Add(bitVar.LC.Scale(coefficient))
		coefficient = coefficient.Mul(two)
	}

	cs.AddConstraint(namespace+".decompose", sum, circuit.Const(engine.One()), circuit.Const(shiftedValue))

	if signed {
		unbiased := sum.Add(circuit.Const(bias.Neg()))
		cs.AddConstraint(namespace+".unbias", unbiased, circuit.Const(engine.One()), s.LC)
	} else {
		cs.AddConstraint(namespace+".identity", sum, circuit.Const(engine.One()), s.LC)
	}

	return s, nil
}
