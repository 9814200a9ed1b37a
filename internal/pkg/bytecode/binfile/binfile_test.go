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

package binfile

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
)

func sampleProgram() *bytecode.Program {
	return &bytecode.Program{
		Instructions: []bytecode.Instruction{
			bytecode.FunctionMarker{Name: "main"},
			bytecode.Push{Value: ast.ConstInt{Value: big.NewInt(41), Bitlength: 64}, Type: ast.IntegerUnsigned{Bitlength: 64}},
			bytecode.Push{Value: ast.ConstInt{Value: big.NewInt(1), Bitlength: 64}, Type: ast.IntegerUnsigned{Bitlength: 64}},
			bytecode.Arith{Op: bytecode.OpAdd, Bitlength: 64},
			bytecode.Exit{N: 1},
		},
		Functions:  map[uint64]uint64{1: 0},
		EntryPoint: 0,
		InputType:  ast.Unit{},
		OutputType: ast.IntegerUnsigned{Bitlength: 64},
	}
}

func TestRoundTrip(t *testing.T) {
	prog := sampleProgram()
	f := New(prog, []byte(`{"source":"sample.zn"}`))

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	assert.True(t, IsBinaryFile(data))

	var decoded File
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, prog.EntryPoint, decoded.Program.EntryPoint)
	assert.Equal(t, prog.Functions, decoded.Program.Functions)
	assert.Len(t, decoded.Program.Instructions, len(prog.Instructions))
	assert.Equal(t, prog.Instructions[1], decoded.Program.Instructions[1])
	assert.Equal(t, []byte(`{"source":"sample.zn"}`), decoded.Header.MetaData)
}

func TestRejectsForeignFile(t *testing.T) {
	assert.False(t, IsBinaryFile([]byte("not a zinc binary")))

	var f File
	err := f.UnmarshalBinary([]byte("not a zinc binary"))
	require.Error(t, err)
}

func TestRejectsIncompatibleMajorVersion(t *testing.T) {
	prog := sampleProgram()
	f := New(prog, nil)
	f.Header.MajorVersion = BINFILE_MAJOR_VERSION + 1

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	var decoded File
	err = decoded.UnmarshalBinary(data)
	require.Error(t, err)
}
