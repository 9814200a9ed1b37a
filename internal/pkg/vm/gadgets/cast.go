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
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
)

func intType(signed bool, bitlength uint) ast.Type {
	if signed {
		return ast.IntegerSigned{Bitlength: bitlength}
	}

	return ast.IntegerUnsigned{Bitlength: bitlength}
}

// Cast re-types x to the declared target. A widening integer cast simply
// re-uses x's existing bits and range-checks them again at the new,
// larger width, so the invariant "every integer-typed Scalar carries a
// range constraint at its own declared width" still holds after the
// cast; S has already rejected any narrowing cast reaching here. A cast
// ToField drops the bit-range constraint entirely (spec.md §4.4's Cast
// instruction).
func Cast(cs *circuit.ConstraintSystem, namespace string, x circuit.Scalar, signed bool, bitlength uint, toField bool) (circuit.Scalar, error) {
	if toField {
		return circuit.Scalar{Value: x.Value, LC: x.LC, Type: ast.Field{}}, nil
	}

	retyped := circuit.Scalar{Value: x.Value, LC: x.LC, Type: intType(signed, bitlength)}

	return RangeCheck(cs, namespace, retyped, signed, bitlength)
}
