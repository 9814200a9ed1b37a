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
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/field"
)

// Scalar is a single wire value (spec.md §3): the concrete witness value
// the VM computed, the symbolic LinearCombination the ConstraintSystem
// already knows it equals, and the semantic type it was produced under.
// Invariant: a Boolean-typed Scalar has already been constrained to
// {0,1}; an IntegerUnsigned/IntegerSigned-typed Scalar has already been
// range-constrained to its declared bitlength; a Field-typed Scalar
// carries no bit constraint.
type Scalar struct {
	Value field.Element
	LC    LinearCombination
	Type  ast.Type
}

// NewConst builds a Scalar for a compile-time constant: its
// LinearCombination depends on no allocated variable.
func NewConst(v field.Element, t ast.Type) Scalar {
	return Scalar{Value: v, LC: Const(v), Type: t}
}

// NewVar allocates a fresh witness variable for v and returns the Scalar
// referencing it.
func NewVar(cs *ConstraintSystem, v field.Element, t ast.Type) Scalar {
	idx := cs.Allocate(v)

	return Scalar{Value: v, LC: Var(idx, cs.Engine()), Type: t}
}

// IntShape reports the signedness/bitlength of an integer type, or
// (false, 0) for anything else — mirrors bytecode.intShape, duplicated
// here rather than imported so circuit stays free of a dependency on the
// emitter package.
func IntShape(t ast.Type) (signed bool, bitlength uint) {
	switch it := t.(type) {
	case ast.IntegerSigned:
		return true, it.Bitlength
	case ast.IntegerUnsigned:
		return false, it.Bitlength
	default:
		return false, 0
	}
}
