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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

func TestFoldAddOverflow(t *testing.T) {
	a := ConstInt{big.NewInt(200), false, 8}
	b := ConstInt{big.NewInt(100), false, 8}

	_, err := FoldAdd(diagnostic.Location{}, a, b)
	require.Error(t, err)

	diag, ok := err.(*diagnostic.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diagnostic.CodeOverflowAddition, diag.Code)
}

func TestFoldAddInRange(t *testing.T) {
	a := ConstInt{big.NewInt(100), false, 8}
	b := ConstInt{big.NewInt(50), false, 8}

	r, err := FoldAdd(diagnostic.Location{}, a, b)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), r.Value)
}

func TestFoldDivByZero(t *testing.T) {
	a := ConstInt{big.NewInt(10), false, 8}
	z := ConstInt{big.NewInt(0), false, 8}

	_, err := FoldDiv(diagnostic.Location{}, a, z)
	require.Error(t, err)
}

func TestFoldNegSignedOverflow(t *testing.T) {
	// i8 range is [-128,127]; negating -128 overflows.
	a := ConstInt{big.NewInt(-128), true, 8}

	_, err := FoldNeg(diagnostic.Location{}, a)
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeOverflowNegation, diag.Code)
}

func TestRangeCount(t *testing.T) {
	r := ConstRange{Start: big.NewInt(2), End: big.NewInt(5), Bitlength: 8}
	assert.Equal(t, big.NewInt(3), r.Count())

	ri := ConstRangeInclusive{Start: big.NewInt(2), End: big.NewInt(5), Bitlength: 8}
	assert.Equal(t, big.NewInt(4), ri.Count())
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(big.NewInt(255), false, 8))
	assert.False(t, InRange(big.NewInt(256), false, 8))
	assert.True(t, InRange(big.NewInt(-128), true, 8))
	assert.False(t, InRange(big.NewInt(-129), true, 8))
}
