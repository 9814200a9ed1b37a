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

package vm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
	"github.com/zinc-lang/zinc/internal/pkg/field"
)

func constU32(v int64) bytecode.Push {
	return bytecode.Push{
		Value: ast.ConstInt{Value: big.NewInt(v), IsSigned: false, Bitlength: 32},
		Type:  ast.IntegerUnsigned{Bitlength: 32},
	}
}

func TestVMRunAddAndExit(t *testing.T) {
	prog := &bytecode.Program{
		Instructions: []bytecode.Instruction{
			constU32(3),
			constU32(4),
			bytecode.Arith{Op: bytecode.OpAdd, Signed: false, Bitlength: 32},
			bytecode.Exit{N: 1},
		},
		Functions:  map[uint64]uint64{},
		EntryPoint: 0,
	}

	machine := New(field.BLS12377{}, prog)
	out, err := machine.Run(nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	engine := field.BLS12377{}
	assert.Equal(t, engine.FromUint64(7), out[0].Value)
	require.NoError(t, machine.ConstraintSystem().Check())
}

func TestVMRunIfElseTakesThenBranch(t *testing.T) {
	prog := &bytecode.Program{
		Instructions: []bytecode.Instruction{
			bytecode.Push{Value: ast.ConstBool{Value: true}, Type: ast.Boolean{}},
			bytecode.If{},
			constU32(10),
			bytecode.Store{Index: 0, Length: 1},
			bytecode.Else{},
			constU32(99),
			bytecode.Store{Index: 0, Length: 1},
			bytecode.EndIf{},
			bytecode.Load{Index: 0, Length: 1},
			bytecode.Exit{N: 1},
		},
		Functions:  map[uint64]uint64{},
		EntryPoint: 0,
	}

	machine := New(field.BLS12377{}, prog)
	out, err := machine.Run(nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, field.BLS12377{}.FromUint64(10), out[0].Value)
}

func TestVMRunAssertFailureIsDiagnosed(t *testing.T) {
	prog := &bytecode.Program{
		Instructions: []bytecode.Instruction{
			bytecode.Push{Value: ast.ConstBool{Value: false}, Type: ast.Boolean{}},
			bytecode.Assert{},
			bytecode.Exit{N: 0},
		},
		Functions:  map[uint64]uint64{},
		EntryPoint: 0,
	}

	machine := New(field.BLS12377{}, prog)
	_, err := machine.Run(nil, nil)
	require.Error(t, err)
}

func TestVMRunLoopAccumulates(t *testing.T) {
	// locals: [0] = index, [1] = accumulator
	prog := &bytecode.Program{
		Instructions: []bytecode.Instruction{
			constU32(0),
			bytecode.Store{Index: 1, Length: 1}, // acc = 0
			bytecode.Loop{IterationsCount: 3, IndexSigned: false, IndexBitlength: 32, IndexSlot: 0, BodyLength: 4},
			bytecode.Load{Index: 1, Length: 1},
			bytecode.Load{Index: 0, Length: 1},
			bytecode.Arith{Op: bytecode.OpAdd, Signed: false, Bitlength: 32},
			bytecode.Store{Index: 1, Length: 1},
			bytecode.EndLoop{},
			bytecode.Load{Index: 1, Length: 1},
			bytecode.Exit{N: 1},
		},
		Functions:  map[uint64]uint64{},
		EntryPoint: 0,
	}

	machine := New(field.BLS12377{}, prog)
	out, err := machine.Run(nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// indices 0,1,2 summed
	assert.Equal(t, field.BLS12377{}.FromUint64(3), out[0].Value)
}
