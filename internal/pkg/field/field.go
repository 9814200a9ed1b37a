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

// Package field wraps the prime-field scalar used by the constraint VM
// behind a small Engine interface, so the choice of curve/field (the
// elliptic-curve back end) stays pluggable and out of scope per spec.md
// §1 ("the elliptic-curve back end (treated as a pluggable Engine)").
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Element is a single value in the active Engine's prime field: the
// underlying representation for every Scalar's field_value (spec.md §3).
type Element struct {
	inner fr.Element
}

// Engine is the pluggable back-end: the choice of prime field (and,
// transitively, curve) the VM computes over. spec.md §1 places curve
// arithmetic internals out of scope; this interface is the seam at which
// that boundary is drawn.
type Engine interface {
	// Zero returns the additive identity.
	Zero() Element
	// One returns the multiplicative identity.
	One() Element
	// FromUint64 embeds a small unsigned integer into the field.
	FromUint64(v uint64) Element
	// FromBigInt embeds an arbitrary-precision integer into the field,
	// reducing modulo the field's characteristic.
	FromBigInt(v *big.Int) Element
	// FieldBits returns the bit-length of the field's modulus, i.e. the
	// maximum width a `field` typed value can be range-checked to without
	// wraparound (spec.md's 254-bit prime-field scalar).
	FieldBits() uint
	// Modulus returns the field's prime characteristic, consulted by
	// internal/pkg/vm/gadgets to recover a signed integer's logical value
	// from its field-wraparound encoding (negative values are represented
	// as Modulus()-|x|, the standard convention every gnark-family circuit
	// uses for a signed witness).
	Modulus() *big.Int
}

// BLS12377 is the default Engine: the scalar field of the BLS12-377
// curve, exactly as go-corset's own field/bls12-377 package and its use
// of github.com/consensys/gnark-crypto throughout pkg/schema and pkg/air.
type BLS12377 struct{}

// Zero returns 0 in the BLS12-377 scalar field.
func (BLS12377) Zero() Element { return Element{} }

// One returns 1 in the BLS12-377 scalar field.
func (BLS12377) One() Element {
	var e fr.Element
	e.SetOne()

	return Element{e}
}

// FromUint64 embeds v into the field.
func (BLS12377) FromUint64(v uint64) Element {
	var e fr.Element
	e.SetUint64(v)

	return Element{e}
}

// FromBigInt embeds v into the field, reducing modulo its characteristic.
func (BLS12377) FromBigInt(v *big.Int) Element {
	var e fr.Element
	e.SetBigInt(v)

	return Element{e}
}

// FieldBits reports the BLS12-377 scalar field's modulus bit-length.
func (BLS12377) FieldBits() uint { return uint(fr.Bits) }

// Modulus returns the BLS12-377 scalar field's prime characteristic.
func (BLS12377) Modulus() *big.Int { return fr.Modulus() }

// Add computes x+y.
func (x Element) Add(y Element) Element {
	var r fr.Element
	r.Add(&x.inner, &y.inner)

	return Element{r}
}

// Sub computes x-y.
func (x Element) Sub(y Element) Element {
	var r fr.Element
	r.Sub(&x.inner, &y.inner)

	return Element{r}
}

// Mul computes x*y.
func (x Element) Mul(y Element) Element {
	var r fr.Element
	r.Mul(&x.inner, &y.inner)

	return Element{r}
}

// Neg computes -x.
func (x Element) Neg() Element {
	var r fr.Element
	r.Neg(&x.inner)

	return Element{r}
}

// Inverse computes x⁻¹, or 0 if x = 0, matching the gadget semantics
// required for std::ff::invert and the inverse-witness equality trick
// (spec.md §4.4).
func (x Element) Inverse() Element {
	var r fr.Element
	r.Inverse(&x.inner)

	return Element{r}
}

// IsZero reports whether x is the additive identity.
func (x Element) IsZero() bool {
	return x.inner.IsZero()
}

// Equal reports whether x and y represent the same field element.
func (x Element) Equal(y Element) bool {
	return x.inner.Equal(&y.inner)
}

// BigInt returns the canonical (non-Montgomery) big.Int representation.
func (x Element) BigInt() *big.Int {
	var out big.Int
	x.inner.BigInt(&out)

	return &out
}

// Bit returns the i'th least-significant bit of x's canonical
// representation (0-indexed), used by the bit-decomposition gadgets in
// internal/pkg/vm/gadgets.
func (x Element) Bit(i uint) bool {
	return x.BigInt().Bit(int(i)) == 1
}

// String renders the element in decimal, for debug markers and error
// messages.
func (x Element) String() string {
	return x.inner.String()
}
