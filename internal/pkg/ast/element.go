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

import "github.com/zinc-lang/zinc/internal/diagnostic"

// PlaceProjectionKind distinguishes the two ways a Place can be narrowed:
// into a tuple/structure field, or into an array element.
type PlaceProjectionKind uint8

const (
	// ProjectField narrows a Place by a tuple index or structure field
	// name.
	ProjectField PlaceProjectionKind = iota
	// ProjectIndex narrows a Place by an array index expression.
	ProjectIndex
)

// PlaceProjection is one step of a Place's lvalue path.
type PlaceProjection struct {
	Kind  PlaceProjectionKind
	Field string // valid when Kind == ProjectField
	// Index, when Kind == ProjectIndex, is deliberately left generic
	// (an Element) since an index expression need not be a folded
	// constant.
	Index Element
}

// Place is an lvalue path into a named binding, optionally narrowed by
// field/index projections (spec.md §3's glossary "Place").
type Place struct {
	Name        string
	NameType    Type
	Mutable     bool
	Projections []PlaceProjection
}

// ElementKind tags which variant of the semantic Element sum type a
// value holds.
type ElementKind uint8

const (
	// KindValue is a type-only value: its type is known but it carries
	// no constant payload (e.g. a runtime variable read).
	KindValue ElementKind = iota
	// KindConstant is a compile-time-evaluable value.
	KindConstant
	// KindType is a first-class reference to a type (only valid in
	// specific syntactic positions, e.g. the RHS of `as` or a `let`'s
	// type annotation).
	KindType
	// KindPlace is an lvalue path; required on the LHS of assignment.
	KindPlace
	// KindPath is an unresolved or partially-resolved `::` path prior to
	// final resolution into one of the other kinds.
	KindPath
	// KindModule is a reference to a module namespace.
	KindModule
)

// Element is the semantic evaluation of an expression or path fragment
// (spec.md §3): exactly one of a type-only Value, a compile-time
// Constant, a Type, an assignable Place, an unresolved Path, or a
// Module. Operators are defined over (subsets of) these variants.
type Element struct {
	Kind ElementKind
	Typ  Type // populated for KindValue, KindConstant, KindPlace
	Const Constant // populated for KindConstant
	Place Place // populated for KindPlace
	Path  []string // populated for KindPath
	Module *Scope // populated for KindModule or a resolved namespace
}

// IsEvaluable reports whether this Element can serve as an operand to an
// arithmetic/comparison/logical operator: spec.md §3 "many operators
// require both operands to be evaluable (Value or Constant)".
func (e Element) IsEvaluable() bool {
	return e.Kind == KindValue || e.Kind == KindConstant
}

// TypeOf returns this element's semantic type; panics for KindPath/
// KindModule/KindType, which have no scalar type (callers must check
// Kind first, matching go-corset's convention of unchecked downcasts on
// already-discriminated values).
func (e Element) TypeOf() Type {
	switch e.Kind {
	case KindValue, KindConstant:
		return e.Typ
	case KindPlace:
		return e.Place.NameType
	default:
		panic("element has no scalar type")
	}
}

// RequireEvaluable produces an OperatorOperandMismatch diagnostic if e is
// not a Value or Constant; `operand` names which operand position (e.g.
// "first", "second") and `op` the operator, matching spec.md §7's
// "first or second operand of a specific operator expected kind X, found
// Y" phrasing.
func RequireEvaluable(at diagnostic.Location, op, operand string, e Element) error {
	if e.IsEvaluable() {
		return nil
	}

	return diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at,
		"%s operand of %q expected a value, found %s", operand, op, kindName(e.Kind))
}

// RequirePlace produces a diagnostic if e is not a Place; used by
// assignment, which requires its LHS to be an lvalue (spec.md §3).
func RequirePlace(at diagnostic.Location, e Element) (Place, error) {
	if e.Kind != KindPlace {
		return Place{}, diagnostic.New(diagnostic.CodeOperatorOperandMismatch, at,
			"left-hand side of assignment expected a place, found %s", kindName(e.Kind))
	}

	return e.Place, nil
}

func kindName(k ElementKind) string {
	switch k {
	case KindValue:
		return "a value"
	case KindConstant:
		return "a constant"
	case KindType:
		return "a type"
	case KindPlace:
		return "a place"
	case KindPath:
		return "an unresolved path"
	case KindModule:
		return "a module"
	default:
		return "an element"
	}
}
