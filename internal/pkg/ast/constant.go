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

package ast

import (
	"math/big"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

// Constant is the closed variant of compile-time values from spec.md §3.
// Constants participate in constant folding (§4.2) and materialize
// directly into `Push` bytecode instructions (§4.3).
type Constant interface {
	isConstant()
	Type() Type
	String() string
}

// ConstBool is a folded boolean literal or expression.
type ConstBool struct{ Value bool }

func (ConstBool) isConstant()    {}
func (ConstBool) Type() Type     { return Boolean{} }
func (c ConstBool) String() string {
	if c.Value {
		return "true"
	}
	return "false"
}

// ConstInt is a folded integer value, carrying the declared type it was
// folded against so overflow can be detected relative to that width.
type ConstInt struct {
	Value     *big.Int
	IsSigned  bool
	Bitlength uint
}

func (ConstInt) isConstant() {}
func (c ConstInt) Type() Type {
	if c.IsSigned {
		return IntegerSigned{c.Bitlength}
	}
	return IntegerUnsigned{c.Bitlength}
}
func (c ConstInt) String() string { return c.Value.String() }

// ConstField is a folded `field` value: unbounded (no declared
// bitlength), since Field values never overflow (spec.md §4.2).
type ConstField struct {
	Value *big.Int
}

func (ConstField) isConstant()    {}
func (ConstField) Type() Type     { return Field{} }
func (c ConstField) String() string { return c.Value.String() }

// ConstRange is a folded `start..end` (exclusive) range.
type ConstRange struct {
	Start, End        *big.Int
	IsSigned          bool
	Bitlength         uint
}

func (ConstRange) isConstant() {}
func (c ConstRange) Type() Type {
	if c.IsSigned {
		return IntegerSigned{c.Bitlength}
	}
	return IntegerUnsigned{c.Bitlength}
}
func (c ConstRange) String() string { return c.Start.String() + ".." + c.End.String() }

// Count returns the number of integers a range includes, used to
// pre-compute a `for` loop's iterations_count (spec.md §4.3).
func (c ConstRange) Count() *big.Int {
	return new(big.Int).Sub(c.End, c.Start)
}

// ConstRangeInclusive is a folded `start..=end` (inclusive) range.
type ConstRangeInclusive struct {
	Start, End *big.Int
	IsSigned   bool
	Bitlength  uint
}

func (ConstRangeInclusive) isConstant() {}
func (c ConstRangeInclusive) Type() Type {
	if c.IsSigned {
		return IntegerSigned{c.Bitlength}
	}
	return IntegerUnsigned{c.Bitlength}
}
func (c ConstRangeInclusive) String() string { return c.Start.String() + "..=" + c.End.String() }

// Count returns the number of integers an inclusive range includes.
func (c ConstRangeInclusive) Count() *big.Int {
	n := new(big.Int).Sub(c.End, c.Start)
	return n.Add(n, big.NewInt(1))
}

// ConstTuple is a folded tuple aggregate.
type ConstTuple struct {
	Elements []Constant
	Typ      Tuple
}

func (ConstTuple) isConstant() {}
func (c ConstTuple) Type() Type { return c.Typ }
func (c ConstTuple) String() string {
	s := "("
	for i, e := range c.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// ConstArray is a folded array aggregate.
type ConstArray struct {
	Elements []Constant
	Typ      Array
}

func (ConstArray) isConstant() {}
func (c ConstArray) Type() Type { return c.Typ }
func (c ConstArray) String() string {
	s := "["
	for i, e := range c.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}

// ConstStructure is a folded structure-literal aggregate.
type ConstStructure struct {
	Fields map[string]Constant
	Typ    Structure
}

func (ConstStructure) isConstant() {}
func (c ConstStructure) Type() Type { return c.Typ }
func (c ConstStructure) String() string { return c.Typ.Identifier + "{...}" }

// --------------------------------------------------------------------
// Checked integer arithmetic.
//
// spec.md §4.2: "Integer constants undergo checked arithmetic; on
// overflow relative to their declared bitlength, emit
// OverflowAddition/Subtraction/.../Casting/Negation. Division or
// remainder by zero is an error."
// --------------------------------------------------------------------

// bounds returns [min,max] (inclusive) representable by an integer type
// of the given signedness and bit-width.
func bounds(signed bool, bitlength uint) (min, max *big.Int) {
	if signed {
		half := new(big.Int).Lsh(big.NewInt(1), bitlength-1)
		min = new(big.Int).Neg(half)
		max = new(big.Int).Sub(half, big.NewInt(1))

		return min, max
	}

	min = big.NewInt(0)
	max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitlength), big.NewInt(1))

	return min, max
}

// InRange reports whether v fits within an integer type of the given
// signedness/bit-width.
func InRange(v *big.Int, signed bool, bitlength uint) bool {
	min, max := bounds(signed, bitlength)
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// checkOverflow validates a folded result against its declared type,
// producing the appropriately-coded diagnostic on overflow.
func checkOverflow(code diagnostic.Code, at diagnostic.Location, v *big.Int, signed bool, bitlength uint) error {
	if InRange(v, signed, bitlength) {
		return nil
	}

	typ := Type(IntegerUnsigned{bitlength})
	if signed {
		typ = IntegerSigned{bitlength}
	}

	return diagnostic.New(code, at, "value %s overflows type %s", v.String(), typ.String())
}

// FoldAdd computes the checked sum of two same-typed integer constants.
func FoldAdd(at diagnostic.Location, a, b ConstInt) (ConstInt, error) {
	v := new(big.Int).Add(a.Value, b.Value)
	if err := checkOverflow(diagnostic.CodeOverflowAddition, at, v, a.IsSigned, a.Bitlength); err != nil {
		return ConstInt{}, err
	}

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldSub computes the checked difference of two same-typed integer
// constants.
func FoldSub(at diagnostic.Location, a, b ConstInt) (ConstInt, error) {
	v := new(big.Int).Sub(a.Value, b.Value)
	if err := checkOverflow(diagnostic.CodeOverflowSubtraction, at, v, a.IsSigned, a.Bitlength); err != nil {
		return ConstInt{}, err
	}

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldMul computes the checked product of two same-typed integer
// constants.
func FoldMul(at diagnostic.Location, a, b ConstInt) (ConstInt, error) {
	v := new(big.Int).Mul(a.Value, b.Value)
	if err := checkOverflow(diagnostic.CodeOverflowMultiplication, at, v, a.IsSigned, a.Bitlength); err != nil {
		return ConstInt{}, err
	}

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldDiv computes the checked (truncating) quotient of two same-typed
// integer constants; division by zero is an error, never a panic.
func FoldDiv(at diagnostic.Location, a, b ConstInt) (ConstInt, error) {
	if b.Value.Sign() == 0 {
		return ConstInt{}, diagnostic.New(diagnostic.CodeDivisionByZeroConst, at, "division by zero")
	}

	v := new(big.Int).Quo(a.Value, b.Value)

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldRem computes the checked remainder of two same-typed integer
// constants.
func FoldRem(at diagnostic.Location, a, b ConstInt) (ConstInt, error) {
	if b.Value.Sign() == 0 {
		return ConstInt{}, diagnostic.New(diagnostic.CodeDivisionByZeroConst, at, "division by zero")
	}

	v := new(big.Int).Rem(a.Value, b.Value)

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldNeg computes the checked negation of a signed integer constant.
// Negation on unsigned or field-typed constants is rejected by the
// caller (S) before this is reached.
func FoldNeg(at diagnostic.Location, a ConstInt) (ConstInt, error) {
	v := new(big.Int).Neg(a.Value)
	if err := checkOverflow(diagnostic.CodeOverflowNegation, at, v, a.IsSigned, a.Bitlength); err != nil {
		return ConstInt{}, err
	}

	return ConstInt{v, a.IsSigned, a.Bitlength}, nil
}

// FoldCast re-types a folded integer constant to a new bit-width/sign,
// rejecting the result if it no longer fits - which, combined with S
// only ever calling FoldCast after validating the cast is widening
// (never narrowing), should not trigger in practice, but folded-constant
// casts are still checked defensively since a constant's value may
// exceed its *declared* type ahead of folding.
func FoldCast(at diagnostic.Location, a ConstInt, signed bool, bitlength uint) (ConstInt, error) {
	if err := checkOverflow(diagnostic.CodeOverflowCasting, at, a.Value, signed, bitlength); err != nil {
		return ConstInt{}, err
	}

	return ConstInt{new(big.Int).Set(a.Value), signed, bitlength}, nil
}
