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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeEquality(t *testing.T) {
	assert.True(t, IntegerUnsigned{8}.Equal(IntegerUnsigned{8}))
	assert.False(t, IntegerUnsigned{8}.Equal(IntegerUnsigned{16}))
	assert.False(t, IntegerUnsigned{8}.Equal(IntegerSigned{8}))

	s1 := Structure{Identifier: "Foo", UniqueID: 1}
	s2 := Structure{Identifier: "Foo", UniqueID: 2}

	assert.False(t, s1.Equal(s2), "structures must compare by unique id, not name")
	assert.True(t, s1.Equal(Structure{Identifier: "Bar", UniqueID: 1}),
		"structures with the same unique id are equal despite differing shape")
}

func TestArrayWidth(t *testing.T) {
	arr := Array{Element: IntegerUnsigned{32}, Size: 4}
	assert.Equal(t, uint(4), arr.Width())

	tup := Tuple{Elements: []Type{IntegerUnsigned{8}, Boolean{}, Field{}}}
	assert.Equal(t, uint(3), tup.Width())
}

func TestValidIntegerBitlength(t *testing.T) {
	assert.True(t, ValidIntegerBitlength(1))
	assert.True(t, ValidIntegerBitlength(8))
	assert.True(t, ValidIntegerBitlength(248))
	assert.False(t, ValidIntegerBitlength(0))
	assert.False(t, ValidIntegerBitlength(7))
	assert.False(t, ValidIntegerBitlength(250))
	assert.False(t, ValidIntegerBitlength(256))
}

func TestNextUniqueIDMonotonic(t *testing.T) {
	a := NextUniqueID()
	b := NextUniqueID()

	assert.Less(t, a, b)
}
