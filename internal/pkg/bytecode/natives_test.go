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

package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
	"github.com/zinc-lang/zinc/internal/pkg/sema"
)

func emitSource(t *testing.T, src string) *Program {
	t.Helper()

	p, err := parser.Parse(diagnostic.NewSource("test.zn", []byte(src)))
	require.NoError(t, err)

	s, err := sema.AnalyzeProgram(p)
	require.NoError(t, err)

	prog, err := Emit(s, "main")
	require.NoError(t, err)

	return prog
}

func TestEmitStandardLibraryCallLowersToLibCall(t *testing.T) {
	prog := emitSource(t, `
		fn main(x: field) -> field {
			std::crypto::blake2s(x)
		}
	`)

	var found LibCall

	for _, in := range prog.Instructions {
		if lc, ok := in.(LibCall); ok {
			found = lc

			break
		}
	}

	assert.Equal(t, LibBlake2s, found.Name)
	assert.Equal(t, uint(1), found.Argc)
}

func TestEmitStandardLibrarySchnorrVerifyLowersToLibCall(t *testing.T) {
	prog := emitSource(t, `
		fn main(a: field, b: field, c: field, d: field) -> bool {
			std::crypto::schnorr_verify(a, b, c, d)
		}
	`)

	var found LibCall

	for _, in := range prog.Instructions {
		if lc, ok := in.(LibCall); ok {
			found = lc

			break
		}
	}

	assert.Equal(t, LibSchnorrVerify, found.Name)
	assert.Equal(t, uint(4), found.Argc)
}
