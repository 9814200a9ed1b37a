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

package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
)

func TestConstraintSystemCheckPasses(t *testing.T) {
	engine := field.BLS12377{}
	cs := NewConstraintSystem(engine)

	a := NewVar(cs, engine.FromUint64(3), ast.Field{})
	b := NewVar(cs, engine.FromUint64(4), ast.Field{})
	c := NewVar(cs, engine.FromUint64(12), ast.Field{})

	cs.AddConstraint("mul", a.LC, b.LC, c.LC)

	require.NoError(t, cs.Check())
	assert.Equal(t, 1, cs.Len())
}

func TestConstraintSystemCheckCatchesViolation(t *testing.T) {
	engine := field.BLS12377{}
	cs := NewConstraintSystem(engine)

	a := NewVar(cs, engine.FromUint64(3), ast.Field{})
	b := NewVar(cs, engine.FromUint64(4), ast.Field{})
	wrong := NewVar(cs, engine.FromUint64(11), ast.Field{})

	cs.AddConstraint("mul", a.LC, b.LC, wrong.LC)

	require.Error(t, cs.Check())
}

func TestNamespaceDerivesUniqueLabelsPerParent(t *testing.T) {
	cs := NewConstraintSystem(field.BLS12377{})

	first := cs.Namespace("loop.body")
	second := cs.Namespace("loop.body")

	assert.NotEqual(t, first, second)
}

func TestLinearCombinationAlgebra(t *testing.T) {
	engine := field.BLS12377{}
	cs := NewConstraintSystem(engine)

	x := NewVar(cs, engine.FromUint64(5), ast.Field{})

	sum := x.LC.Add(Const(engine.FromUint64(2)))
	assert.Equal(t, engine.FromUint64(7), sum.Evaluate(cs))

	scaled := x.LC.Scale(engine.FromUint64(3))
	assert.Equal(t, engine.FromUint64(15), scaled.Evaluate(cs))

	negated := x.LC.Neg()
	assert.True(t, negated.Evaluate(cs).Equal(engine.Zero().Sub(engine.FromUint64(5))))
}

func TestIntShape(t *testing.T) {
	signed, bl := IntShape(ast.IntegerSigned{Bitlength: 32})
	assert.True(t, signed)
	assert.Equal(t, uint(32), bl)

	signed, bl = IntShape(ast.IntegerUnsigned{Bitlength: 8})
	assert.False(t, signed)
	assert.Equal(t, uint(8), bl)

	signed, bl = IntShape(ast.Field{})
	assert.False(t, signed)
	assert.Equal(t, uint(0), bl)
}
