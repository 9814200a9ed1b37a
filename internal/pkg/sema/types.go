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

package sema

import (
	"strconv"
	"strings"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// resolveType turns a syntactic TypeExpr into a semantic Type, resolving
// named user types (struct/enum) through scope and folding array sizes as
// constants (spec.md §4.2: array sizes are constant-folded).
func (a *Analyzer) resolveType(scope *ast.Scope, te parser.TypeExpr) (ast.Type, error) {
	switch t := te.(type) {
	case parser.NamedTypeExpr:
		return a.resolveNamedType(scope, t)
	case parser.ArrayTypeExpr:
		elem, err := a.resolveType(scope, t.Element)
		if err != nil {
			return nil, err
		}

		size, err := a.evalConstIntExpr(scope, t.Size)
		if err != nil {
			return nil, err
		}

		if !size.Value.IsUint64() {
			return nil, diagnostic.New(diagnostic.CodeInvalidCast, t.At, "array size must be a non-negative integer")
		}

		return ast.Array{Element: elem, Size: uint(size.Value.Uint64())}, nil
	case parser.TupleTypeExpr:
		elems := make([]ast.Type, len(t.Elements))

		for i, te := range t.Elements {
			el, err := a.resolveType(scope, te)
			if err != nil {
				return nil, err
			}

			elems[i] = el
		}

		return ast.Tuple{Elements: elems}, nil
	default:
		panic("unreachable type expression")
	}
}

// builtinIntegerType parses `u1`..`u248`/`i8`..`i248` names into their
// semantic types, validating the declared bitlength against spec.md §3's
// {1..248, step 8} alphabet.
func builtinIntegerType(name string) (ast.Type, bool) {
	if len(name) < 2 {
		return nil, false
	}

	var signed bool

	switch name[0] {
	case 'u':
		signed = false
	case 'i':
		signed = true
	default:
		return nil, false
	}

	n, err := strconv.ParseUint(name[1:], 10, 32)
	if err != nil {
		return nil, false
	}

	bitlength := uint(n)
	if !ast.ValidIntegerBitlength(bitlength) {
		return nil, false
	}

	if signed {
		return ast.IntegerSigned{Bitlength: bitlength}, true
	}

	return ast.IntegerUnsigned{Bitlength: bitlength}, true
}

func (a *Analyzer) resolveNamedType(scope *ast.Scope, t parser.NamedTypeExpr) (ast.Type, error) {
	switch t.Name {
	case "bool":
		return ast.Boolean{}, nil
	case "field":
		return ast.Field{}, nil
	case "str":
		return ast.StringType{}, nil
	}

	if it, ok := builtinIntegerType(t.Name); ok {
		return it, nil
	}

	segments := strings.Split(t.Name, "::")

	item, err := scope.ResolvePath(t.At, segments)
	if err != nil {
		return nil, err
	}

	if item.Kind != ast.ItemType {
		return nil, diagnostic.New(diagnostic.CodeUndeclaredItem, t.At, "%q does not name a type", t.Name)
	}

	return item.Type, nil
}
