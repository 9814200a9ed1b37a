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

// biasedMagnitude returns an unsigned field element in [0, 2^bitlength)
// that preserves v's true integer order, using the same excess-2^(n-1)
// bias RangeCheck applies to signed values; two operands biased this way
// compare correctly as plain unsigned magnitudes.
func biasedMagnitude(v field.Element, signed bool, bitlength uint, engine field.Engine) field.Element {
	if !signed {
		return v
	}

	bias := engine.FromBigInt(powOfTwo(bitlength - 1))

	return v.Add(bias)
}

// Lt synthesizes a<b for bitlength-wide integers: both operands are
// reduced to an order-preserving unsigned magnitude, then diff :=
// magnitude(b) - magnitude(a) - 1 is bias-shifted by 2^bitlength and
// bit-decomposed over bitlength+1 bits (spec.md §4.4: "a<b via (b-a-1)'s
// bit decomposition over n+1 bits"). The decomposition's top bit is 1
// exactly when a<b, since diff only goes negative (wrapping below the
// bias) when a>=b.
func Lt(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	engine := cs.Engine()
	one := engine.One()

	am := biasedMagnitude(l.Value, signed, bitlength, engine)
	bm := biasedMagnitude(r.Value, signed, bitlength, engine)

	diff := bm.Sub(am).Sub(one)
	rangeBias := engine.FromBigInt(powOfTwo(bitlength))
	shifted := diff.Add(rangeBias)

	bs := bitsOf(shifted, bitlength+1)

	var (
		sum    circuit.LinearCombination
		coeff  = one
		two    = engine.FromUint64(2)
		topLC  circuit.LinearCombination
		topVal field.Element
	)

	for i := uint(0); i < bitlength+1; i++ {
		bitValue := engine.Zero()
		if bs.Test(i) {
			bitValue = one
		}

		bitVar := circuit.NewVar(cs, bitValue, ast.Boolean{})

		ns := cs.Namespace(fmt.Sprintf("%s.bit%d", namespace, i))
		cs.AddConstraint(ns, bitVar.LC, bitVar.LC, bitVar.LC)

		sum = sum.Add(bitVar.LC.Scale(coeff))
		coeff = coeff.Mul(two)

		if i == bitlength {
			topLC = bitVar.LC
			topVal = bitValue
		}
	}

	cs.AddConstraint(namespace+".decompose", sum, circuit.Const(one), circuit.Const(shifted))

	return circuit.Scalar{Value: topVal, LC: topLC, Type: ast.Boolean{}}, nil
}

// Gt synthesizes a>b as Lt with its operands swapped.
func Gt(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	return Lt(cs, namespace, r, l, signed, bitlength)
}

// Le synthesizes a<=b as the negation of a>b.
func Le(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	gt, err := Gt(cs, namespace, l, r, signed, bitlength)
	if err != nil {
		return circuit.Scalar{}, err
	}

	return Not(cs, namespace+".le", gt), nil
}

// Ge synthesizes a>=b as the negation of a<b.
func Ge(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar, signed bool, bitlength uint) (circuit.Scalar, error) {
	lt, err := Lt(cs, namespace, l, r, signed, bitlength)
	if err != nil {
		return circuit.Scalar{}, err
	}

	return Not(cs, namespace+".ge", lt), nil
}

// Not synthesizes the boolean negation of b.
func Not(cs *circuit.ConstraintSystem, namespace string, b circuit.Scalar) circuit.Scalar {
	engine := cs.Engine()

	value := engine.One().Sub(b.Value)
	result := circuit.NewVar(cs, value, ast.Boolean{})

	cs.AddConstraint(namespace, circuit.Const(engine.One()).Sub(b.LC), circuit.Const(engine.One()), result.LC)

	return result
}

// Eq synthesizes l==r for any type, including Field (where ordering
// comparisons don't apply but equality does), via the standard
// inverse-witness trick: an auxiliary inv witness satisfies diff*inv =
// 1-isZero and isZero*diff = 0, which forces isZero=1 when diff=0 and
// isZero=0 otherwise (the same inverse-witness mechanism spec.md §4.4
// names for Assert).
func Eq(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) circuit.Scalar {
	engine := cs.Engine()

	diffValue := l.Value.Sub(r.Value)
	diffLC := l.LC.Sub(r.LC)

	var isZeroValue, invValue field.Element

	if diffValue.IsZero() {
		isZeroValue = engine.One()
		invValue = engine.Zero()
	} else {
		isZeroValue = engine.Zero()
		invValue = diffValue.Inverse()
	}

	isZero := circuit.NewVar(cs, isZeroValue, ast.Boolean{})
	inv := circuit.NewVar(cs, invValue, ast.Field{})

	cs.AddConstraint(namespace+".inv", diffLC, inv.LC, circuit.Const(engine.One()).Sub(isZero.LC))
	cs.AddConstraint(namespace+".zero", isZero.LC, diffLC, circuit.Const(engine.Zero()))

	return isZero
}

// Ne synthesizes l!=r as the negation of Eq.
func Ne(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) circuit.Scalar {
	eq := Eq(cs, namespace, l, r)

	return Not(cs, namespace+".ne", eq)
}
