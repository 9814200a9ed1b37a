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
	"math/big"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

// rangeCheckResult applies RangeCheck to a freshly computed result
// Scalar when its type is a bounded integer (spec.md §4.4's "after every
// arithmetic operation on a bounded integer type, the result is
// bit-decomposed"); Field-typed results carry no bit constraint and pass
// through unchanged.
func rangeCheckResult(cs *circuit.ConstraintSystem, namespace string, result circuit.Scalar) (circuit.Scalar, error) {
	if _, isField := result.Type.(ast.Field); isField {
		return result, nil
	}

	signed, bl := circuit.IntShape(result.Type)
	if bl == 0 {
		return result, nil
	}

	return RangeCheck(cs, namespace, result, signed, bl)
}

// Add synthesizes l+r: a single R1CS constraint (l+r)*1 = result, the
// result allocated as a fresh variable and then range-checked (spec.md
// §4.4 "arithmetic gadgets... addition... synthesized by allocating the
// result and enforcing one R1CS constraint of the appropriate shape").
func Add(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) (circuit.Scalar, error) {
	value := l.Value.Add(r.Value)
	result := circuit.NewVar(cs, value, l.Type)

	cs.AddConstraint(namespace+".add", l.LC.Add(r.LC), circuit.Const(cs.Engine().One()), result.LC)

	return rangeCheckResult(cs, namespace+".add", result)
}

// Sub synthesizes l-r, the additive counterpart of Add.
func Sub(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) (circuit.Scalar, error) {
	value := l.Value.Sub(r.Value)
	result := circuit.NewVar(cs, value, l.Type)

	cs.AddConstraint(namespace+".sub", l.LC.Sub(r.LC), circuit.Const(cs.Engine().One()), result.LC)

	return rangeCheckResult(cs, namespace+".sub", result)
}

// Mul synthesizes l*r directly as a single rank-1 constraint.
func Mul(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) (circuit.Scalar, error) {
	value := l.Value.Mul(r.Value)
	result := circuit.NewVar(cs, value, l.Type)

	cs.AddConstraint(namespace+".mul", l.LC, r.LC, result.LC)

	return rangeCheckResult(cs, namespace+".mul", result)
}

// Neg synthesizes -x. Unsigned negation is rejected by S before this
// gadget is ever reached (spec.md §4.2's checkNeg).
func Neg(cs *circuit.ConstraintSystem, namespace string, x circuit.Scalar) (circuit.Scalar, error) {
	value := x.Value.Neg()
	result := circuit.NewVar(cs, value, x.Type)

	cs.AddConstraint(namespace+".neg", x.LC.Neg(), circuit.Const(cs.Engine().One()), result.LC)

	return rangeCheckResult(cs, namespace+".neg", result)
}

// Div synthesizes a/b over bounded integers: allocates quotient q and
// remainder r, enforces a = b*q + r, and range-checks both (spec.md
// §4.4). b = 0 is a runtime error, checked against the concrete witness
// value before any constraint is even built (an unsatisfiable constraint
// would otherwise surface as an opaque proving failure instead of a
// clear diagnostic). Division/remainder are truncating (quotient rounds
// toward zero, remainder takes the dividend's sign), matching Rust's `/`
// and `%` over signed integers — the surface syntax spec.md's grammar
// imitates.
func Div(cs *circuit.ConstraintSystem, namespace string, l, r circuit.Scalar) (quotient, remainder circuit.Scalar, err error) {
	if r.Value.IsZero() {
		return circuit.Scalar{}, circuit.Scalar{}, diagnostic.New(diagnostic.CodeDivisionByZero, diagnostic.Location{}, "division by zero")
	}

	signed, _ := circuit.IntShape(l.Type)
	q, rem := integerDivMod(l.Value, r.Value, signed, cs.Engine())

	qs := circuit.NewVar(cs, q, l.Type)
	rs := circuit.NewVar(cs, rem, l.Type)

	// a = b*q + r
	cs.AddConstraint(namespace+".divmod", r.LC, qs.LC, l.LC.Sub(rs.LC))

	if qs, err = rangeCheckResult(cs, namespace+".quotient", qs); err != nil {
		return circuit.Scalar{}, circuit.Scalar{}, err
	}

	if rs, err = rangeCheckResult(cs, namespace+".remainder", rs); err != nil {
		return circuit.Scalar{}, circuit.Scalar{}, err
	}

	return qs, rs, nil
}

// integerDivMod recovers the logical (possibly negative) integer value
// each operand's field encoding represents, performs truncating
// division/remainder on the real integers, then re-embeds the results
// back into the field (which correctly wraps a negative result into its
// field representation).
func integerDivMod(a, b field.Element, signed bool, engine field.Engine) (q, r field.Element) {
	av, bv := signedBigInt(a, signed, engine), signedBigInt(b, signed, engine)

	qv, rv := new(big.Int), new(big.Int)
	qv.QuoRem(av, bv, rv)

	return engine.FromBigInt(qv), engine.FromBigInt(rv)
}

// signedBigInt reinterprets v's canonical field representative as a
// signed integer: any representative past the modulus' midpoint is
// treated as Modulus()-|x|, the standard convention a field-wraparound
// encoding uses for a negative value.
func signedBigInt(v field.Element, signed bool, engine field.Engine) *big.Int {
	raw := v.BigInt()
	if !signed {
		return raw
	}

	modulus := engine.Modulus()
	half := new(big.Int).Rsh(modulus, 1)

	if raw.Cmp(half) > 0 {
		return new(big.Int).Sub(raw, modulus)
	}

	return raw
}
