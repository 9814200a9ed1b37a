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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

func newCS() (*circuit.ConstraintSystem, field.Engine) {
	engine := field.BLS12377{}
	return circuit.NewConstraintSystem(engine), engine
}

func u8(cs *circuit.ConstraintSystem, engine field.Engine, v uint64) circuit.Scalar {
	return circuit.NewVar(cs, engine.FromUint64(v), ast.IntegerUnsigned{Bitlength: 8})
}

func i8(cs *circuit.ConstraintSystem, engine field.Engine, v int64) circuit.Scalar {
	var value field.Element
	if v < 0 {
		value = engine.FromBigInt(new(big.Int).Add(engine.Modulus(), big.NewInt(v)))
	} else {
		value = engine.FromUint64(uint64(v))
	}

	return circuit.NewVar(cs, value, ast.IntegerSigned{Bitlength: 8})
}

func TestRangeCheckUnsigned(t *testing.T) {
	cs, engine := newCS()

	s := u8(cs, engine, 200)
	_, err := RangeCheck(cs, "rc", s, false, 8)
	require.NoError(t, err)
	require.NoError(t, cs.Check())
}

func TestRangeCheckSigned(t *testing.T) {
	cs, engine := newCS()

	s := i8(cs, engine, -100)
	_, err := RangeCheck(cs, "rc", s, true, 8)
	require.NoError(t, err)
	require.NoError(t, cs.Check())
}

func TestAddSubMul(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 10)
	b := u8(cs, engine, 20)

	sum, err := Add(cs, "add", a, b)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(30), sum.Value)

	diff, err := Sub(cs, "sub", b, a)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(10), diff.Value)

	prod, err := Mul(cs, "mul", a, b)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(200), prod.Value)

	require.NoError(t, cs.Check())
}

func TestDivUnsignedTruncates(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 17)
	b := u8(cs, engine, 5)

	q, r, err := Div(cs, "div", a, b)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(3), q.Value)
	assert.Equal(t, engine.FromUint64(2), r.Value)
	require.NoError(t, cs.Check())
}

func TestDivSignedTruncatesTowardZero(t *testing.T) {
	cs, engine := newCS()

	a := i8(cs, engine, -7)
	b := i8(cs, engine, 2)

	q, r, err := Div(cs, "div", a, b)
	require.NoError(t, err)

	qv := signedBigInt(q.Value, true, engine)
	rv := signedBigInt(r.Value, true, engine)

	assert.Equal(t, big.NewInt(-3), qv)
	assert.Equal(t, big.NewInt(-1), rv)
	require.NoError(t, cs.Check())
}

func TestDivByZero(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 1)
	b := u8(cs, engine, 0)

	_, _, err := Div(cs, "div", a, b)
	require.Error(t, err)
}

func TestLtGtOnUnsigned(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 3)
	b := u8(cs, engine, 9)

	lt, err := Lt(cs, "lt", a, b, false, 8)
	require.NoError(t, err)
	assert.True(t, lt.Value.Equal(engine.One()))

	gt, err := Gt(cs, "gt", a, b, false, 8)
	require.NoError(t, err)
	assert.True(t, gt.Value.Equal(engine.Zero()))

	require.NoError(t, cs.Check())
}

func TestLtOnSigned(t *testing.T) {
	cs, engine := newCS()

	neg := i8(cs, engine, -5)
	pos := i8(cs, engine, 5)

	lt, err := Lt(cs, "lt", neg, pos, true, 8)
	require.NoError(t, err)
	assert.True(t, lt.Value.Equal(engine.One()))

	require.NoError(t, cs.Check())
}

func TestEqNe(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 7)
	b := u8(cs, engine, 7)
	c := u8(cs, engine, 8)

	eq := Eq(cs, "eq", a, b)
	assert.True(t, eq.Value.Equal(engine.One()))

	ne := Ne(cs, "ne", a, c)
	assert.True(t, ne.Value.Equal(engine.One()))

	require.NoError(t, cs.Check())
}

func TestBitwiseAndOrXor(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 0b1100)
	b := u8(cs, engine, 0b1010)

	and, err := And(cs, "and", a, b, false, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(0b1000), and.Value)

	or, err := Or(cs, "or", a, b, false, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(0b1110), or.Value)

	xor, err := Xor(cs, "xor", a, b, false, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(0b0110), xor.Value)

	require.NoError(t, cs.Check())
}

func TestShlShr(t *testing.T) {
	cs, engine := newCS()

	x := u8(cs, engine, 0b00000011)

	shl, err := Shl(cs, "shl", x, 2, false, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(0b00001100), shl.Value)

	shr, err := Shr(cs, "shr", x, 1, false, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.FromUint64(0b00000001), shr.Value)

	require.NoError(t, cs.Check())
}

func TestCastWideningAndToField(t *testing.T) {
	cs, engine := newCS()

	x := u8(cs, engine, 200)

	wide, err := Cast(cs, "cast", x, false, 16, false)
	require.NoError(t, err)
	assert.Equal(t, ast.IntegerUnsigned{Bitlength: 16}, wide.Type)

	asField, err := Cast(cs, "tofield", x, false, 0, true)
	require.NoError(t, err)
	assert.Equal(t, ast.Field{}, asField.Type)

	require.NoError(t, cs.Check())
}

func TestFFInvert(t *testing.T) {
	cs, engine := newCS()

	x := circuit.NewVar(cs, engine.FromUint64(5), ast.Field{})

	inv, err := FFInvert(cs, "inv", x)
	require.NoError(t, err)
	assert.True(t, x.Value.Mul(inv.Value).Equal(engine.One()))
	require.NoError(t, cs.Check())
}

func TestArrayHelpers(t *testing.T) {
	cs, engine := newCS()

	a := u8(cs, engine, 1)
	b := u8(cs, engine, 2)
	pad := u8(cs, engine, 0)

	padded := ArrayPad([]circuit.Scalar{a, b}, 4, pad)
	require.Len(t, padded, 4)
	assert.Equal(t, engine.FromUint64(0), padded[3].Value)

	truncated := ArrayTruncate(padded, 2)
	require.Len(t, truncated, 2)
	assert.Equal(t, engine.FromUint64(1), truncated[0].Value)

	reversed := ArrayReverse(truncated)
	assert.Equal(t, engine.FromUint64(2), reversed[0].Value)
}

func TestHashesAreDeterministic(t *testing.T) {
	cs, engine := newCS()

	x := circuit.NewVar(cs, engine.FromUint64(42), ast.Field{})

	h1, err := Blake2s(cs, x)
	require.NoError(t, err)
	h2, err := Blake2s(cs, x)
	require.NoError(t, err)

	assert.True(t, h1.Value.Equal(h2.Value))
}
