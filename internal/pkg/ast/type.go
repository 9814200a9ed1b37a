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
	"fmt"
	"math/big"
)

// Type is the closed variant of semantic types from spec.md §3. It is a
// sealed interface (the `isType` marker) so the compiler enforces
// exhaustive handling at every type switch, in the spirit of go-corset's
// own `pkg/corset/ast.Type` interface.
type Type interface {
	isType()
	// String renders the type the way diagnostics quote it, e.g. "u8",
	// "field", "[bool; 4]".
	String() string
	// Width is the number of Scalar-granularity stack slots this type
	// occupies (primitives = 1, aggregates sum their fields), used by the
	// bytecode emitter's Store/Load length field.
	Width() uint
	// Equal performs nominal type equality; for Structure/Enumeration this
	// compares unique ids, never field shape (spec.md §3: "equality is by
	// id, not by structural shape").
	Equal(Type) bool
}

// Unit is the type of statements and the implicit else-branch.
type Unit struct{}

func (Unit) isType()         {}
func (Unit) String() string  { return "()" }
func (Unit) Width() uint     { return 0 }
func (Unit) Equal(t Type) bool {
	_, ok := t.(Unit)
	return ok
}

// Boolean is the type of `true`/`false` and every comparison result.
type Boolean struct{}

func (Boolean) isType()        {}
func (Boolean) String() string { return "bool" }
func (Boolean) Width() uint    { return 1 }
func (Boolean) Equal(t Type) bool {
	_, ok := t.(Boolean)
	return ok
}

// IntegerUnsigned is `u1`..`u248` (bit-width step 8, plus the special
// single-bit `u1`).
type IntegerUnsigned struct {
	Bitlength uint
}

func (IntegerUnsigned) isType() {}
func (t IntegerUnsigned) String() string { return fmt.Sprintf("u%d", t.Bitlength) }
func (IntegerUnsigned) Width() uint      { return 1 }
func (t IntegerUnsigned) Equal(o Type) bool {
	u, ok := o.(IntegerUnsigned)
	return ok && u.Bitlength == t.Bitlength
}

// IntegerSigned is `i8`..`i248`.
type IntegerSigned struct {
	Bitlength uint
}

func (IntegerSigned) isType() {}
func (t IntegerSigned) String() string { return fmt.Sprintf("i%d", t.Bitlength) }
func (IntegerSigned) Width() uint      { return 1 }
func (t IntegerSigned) Equal(o Type) bool {
	s, ok := o.(IntegerSigned)
	return ok && s.Bitlength == t.Bitlength
}

// Field is the prime-field scalar type: a 254-bit value with no declared
// bit-width range constraint.
type Field struct{}

func (Field) isType()        {}
func (Field) String() string { return "field" }
func (Field) Width() uint    { return 1 }
func (Field) Equal(t Type) bool {
	_, ok := t.(Field)
	return ok
}

// ValidIntegerBitlength reports whether n is a legal IntegerUnsigned or
// IntegerSigned bit-width: 1, or a multiple of 8 up to 248.
func ValidIntegerBitlength(n uint) bool {
	return n == 1 || (n >= 8 && n <= 248 && n%8 == 0)
}

// Array is a fixed-size homogeneous sequence.
type Array struct {
	Element Type
	Size    uint
}

func (Array) isType() {}
func (t Array) String() string { return fmt.Sprintf("[%s; %d]", t.Element, t.Size) }
func (t Array) Width() uint    { return t.Element.Width() * t.Size }
func (t Array) Equal(o Type) bool {
	a, ok := o.(Array)
	return ok && a.Size == t.Size && a.Element.Equal(t.Element)
}

// Tuple is a fixed, heterogeneous, positionally-indexed aggregate.
type Tuple struct {
	Elements []Type
}

func (Tuple) isType() {}
func (t Tuple) String() string {
	s := "("
	for i, e := range t.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}
func (t Tuple) Width() uint {
	var w uint
	for _, e := range t.Elements {
		w += e.Width()
	}
	return w
}
func (t Tuple) Equal(o Type) bool {
	u, ok := o.(Tuple)
	if !ok || len(u.Elements) != len(t.Elements) {
		return false
	}
	for i := range t.Elements {
		if !t.Elements[i].Equal(u.Elements[i]) {
			return false
		}
	}
	return true
}

// StructureField is one named, typed field of a Structure.
type StructureField struct {
	Name string
	Type Type
}

// Structure is a named, nominally-typed aggregate. Two Structure values
// are equal only if UniqueID matches, never by comparing Fields (spec.md
// §3).
type Structure struct {
	Identifier string
	UniqueID   uint64
	Fields     []StructureField
	// Scope is the implementation scope shared with any `impl` block
	// targeting this structure (spec.md §3, §4.2, design note "Shared
	// structure/enum scopes").
	Scope *Scope
}

func (Structure) isType()          {}
func (t Structure) String() string { return t.Identifier }
func (t Structure) Width() uint {
	var w uint
	for _, f := range t.Fields {
		w += f.Type.Width()
	}
	return w
}
func (t Structure) Equal(o Type) bool {
	s, ok := o.(Structure)
	return ok && s.UniqueID == t.UniqueID
}

// FieldType looks up a field by name, returning its type and position.
func (t Structure) FieldType(name string) (Type, int, bool) {
	for i, f := range t.Fields {
		if f.Name == name {
			return f.Type, i, true
		}
	}
	return nil, -1, false
}

// EnumerationVariant is one named, constant-valued variant of an
// Enumeration.
type EnumerationVariant struct {
	Name  string
	Value *big.Int
}

// Enumeration is a named, nominally-typed closed set of integer-valued
// variants, represented at runtime as an IntegerUnsigned of Bitlength
// bits. Equality is by UniqueID, as with Structure.
type Enumeration struct {
	Identifier string
	UniqueID   uint64
	Variants   []EnumerationVariant
	Bitlength  uint
	Scope      *Scope
}

func (Enumeration) isType()          {}
func (t Enumeration) String() string { return t.Identifier }
func (Enumeration) Width() uint      { return 1 }
func (t Enumeration) Equal(o Type) bool {
	e, ok := o.(Enumeration)
	return ok && e.UniqueID == t.UniqueID
}

// VariantByName looks up an enumeration variant by name.
func (t Enumeration) VariantByName(name string) (*big.Int, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// FunctionVariant distinguishes where a Function's implementation lives.
type FunctionVariant uint8

const (
	// UserDefined functions are declared with `fn` in source.
	UserDefined FunctionVariant = iota
	// BuiltIn functions are compiler intrinsics (e.g. `dbg!`, `assert`).
	BuiltIn
	// StandardLibrary functions are resolved from the fixed `std::...`
	// namespace (spec.md §9 "Supplemented Features").
	StandardLibrary
)

// FunctionSignature is a function's type: its (possibly empty) `self`
// receiver, parameter types in order, and return type.
type FunctionSignature struct {
	HasSelf    bool
	Parameters []Type
	Return     Type
}

func (s FunctionSignature) String() string {
	str := "("
	if s.HasSelf {
		str += "self"
	}
	for i, p := range s.Parameters {
		if i > 0 || s.HasSelf {
			str += ", "
		}
		str += p.String()
	}
	return str + ") -> " + s.Return.String()
}

// Function is the type of a named callable: a user function, an intrinsic,
// or a standard-library entry.
type Function struct {
	Identifier string
	UniqueID   uint64
	Variant    FunctionVariant
	Signature  FunctionSignature
}

func (Function) isType()          {}
func (t Function) String() string { return "fn " + t.Identifier + t.Signature.String() }
func (Function) Width() uint      { return 0 }
func (t Function) Equal(o Type) bool {
	f, ok := o.(Function)
	return ok && f.UniqueID == t.UniqueID
}

// StringType is the compile-time-only type of string literals: it never
// reaches the VM (spec.md §4.1).
type StringType struct{}

func (StringType) isType()        {}
func (StringType) String() string { return "str" }
func (StringType) Width() uint    { return 0 }
func (StringType) Equal(t Type) bool {
	_, ok := t.(StringType)
	return ok
}

// IsInteger reports whether t is IntegerUnsigned or IntegerSigned.
func IsInteger(t Type) bool {
	switch t.(type) {
	case IntegerUnsigned, IntegerSigned:
		return true
	default:
		return false
	}
}

// IntegerBitlength returns the declared bit-width of an integer type and
// whether it is signed. Panics if t is not an integer type; callers must
// guard with IsInteger first (mirroring go-corset's own "AsUnderlying" /
// "AsInteger" unchecked-downcast convention for already-validated types).
func IntegerBitlength(t Type) (bitlength uint, signed bool) {
	switch it := t.(type) {
	case IntegerUnsigned:
		return it.Bitlength, false
	case IntegerSigned:
		return it.Bitlength, true
	default:
		panic(fmt.Sprintf("not an integer type: %s", t))
	}
}
