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

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

func TestTemplateRendersShape(t *testing.T) {
	typ := ast.Tuple{Elements: []ast.Type{ast.Boolean{}, ast.IntegerUnsigned{Bitlength: 8}}}

	raw, err := Template(typ)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "false")
	assert.Contains(t, string(raw), "\"0\"")
}

func TestDecodeScalarTypes(t *testing.T) {
	engine := field.BLS12377{}
	cs := circuit.NewConstraintSystem(engine)

	typ := ast.Tuple{Elements: []ast.Type{
		ast.Boolean{},
		ast.IntegerUnsigned{Bitlength: 8},
		ast.IntegerSigned{Bitlength: 8},
		ast.Field{},
	}}

	raw := []byte(`[true, "200", "-5", "0x2a"]`)

	out, err := Decode(cs, typ, raw)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.True(t, out[0].Value.Equal(engine.One()))
	assert.Equal(t, engine.FromUint64(200), out[1].Value)
	assert.Equal(t, engine.FromUint64(42), out[3].Value)
	require.NoError(t, cs.Check())
}

func TestDecodeRejectsOutOfRangeInteger(t *testing.T) {
	cs := circuit.NewConstraintSystem(field.BLS12377{})

	_, err := Decode(cs, ast.IntegerUnsigned{Bitlength: 8}, []byte(`"300"`))
	require.Error(t, err)
}

func TestDecodeRejectsWrongShape(t *testing.T) {
	cs := circuit.NewConstraintSystem(field.BLS12377{})

	typ := ast.Array{Element: ast.IntegerUnsigned{Bitlength: 8}, Size: 3}

	_, err := Decode(cs, typ, []byte(`["1", "2"]`))
	require.Error(t, err)
}

func TestEncodeRoundTripsSignedInteger(t *testing.T) {
	engine := field.BLS12377{}
	cs := circuit.NewConstraintSystem(engine)

	typ := ast.IntegerSigned{Bitlength: 8}
	raw := []byte(`"-5"`)

	out, err := Decode(cs, typ, raw)
	require.NoError(t, err)

	encoded, err := Encode(engine, typ, out)
	require.NoError(t, err)
	assert.Equal(t, "\"-5\"", string(encoded))
}

func TestEncodeStructure(t *testing.T) {
	engine := field.BLS12377{}

	typ := ast.Structure{
		Identifier: "Point",
		Fields: []ast.StructureField{
			{Name: "x", Type: ast.IntegerUnsigned{Bitlength: 8}},
			{Name: "y", Type: ast.IntegerUnsigned{Bitlength: 8}},
		},
	}

	values := []circuit.Scalar{
		circuit.NewConst(engine.FromUint64(1), ast.IntegerUnsigned{Bitlength: 8}),
		circuit.NewConst(engine.FromUint64(2), ast.IntegerUnsigned{Bitlength: 8}),
	}

	raw, err := Encode(engine, typ, values)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\"x\"")
	assert.Contains(t, string(raw), "\"y\"")
}
