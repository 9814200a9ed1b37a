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

	"github.com/dolthub/swiss"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

// ItemKind distinguishes the five things a Scope can bind a name to
// (spec.md §3 "Scope").
type ItemKind uint8

const (
	// ItemVariable is a `let`-bound local.
	ItemVariable ItemKind = iota
	// ItemConstant is a `const`-bound compile-time value.
	ItemConstant
	// ItemStatic is a `static`-bound value.
	ItemStatic
	// ItemType is a `struct`/`enum`/`type` declaration.
	ItemType
	// ItemModule is a `mod` declaration, introducing a namespace.
	ItemModule
)

// Item is one binding held in a Scope.
type Item struct {
	Kind ItemKind
	// Type is this item's semantic type. For ItemModule, Type is nil and
	// Namespace is populated instead.
	Type Type
	// Mutable records whether a variable was declared `let mut`.
	Mutable bool
	// DeclaredAt is the source location of the declaration, used to build
	// the "previous declaration" reference on a RedeclaredItem error.
	DeclaredAt diagnostic.Location
	// Namespace is the child scope introduced by a module, structure, or
	// enumeration declaration. Nil for plain variables/constants.
	Namespace *Scope
}

// IsNamespace reports whether this item introduces a child namespace that
// `::` path resolution can walk into.
func (i Item) IsNamespace() bool {
	return i.Namespace != nil
}

// Scope is one node of the scope tree described in spec.md §3 and in
// Design Note "Scope trees with parent pointers": a symbol table with a
// link to its lexical parent. Only modules, structures, and enumerations
// introduce a new namespace scope; blocks introduce a new plain scope for
// shadowing but are otherwise unremarkable.
//
// The name→Item map is backed by github.com/dolthub/swiss (adopted from
// the mna-nenuphar example repo's use of the same library for its
// interned global table) rather than a plain Go map, since a Scope is
// write-once-per-name but read on every subsequent identifier lookup -
// exactly the access pattern a swiss table is tuned for.
type Scope struct {
	parent *Scope
	items  *swiss.Map[string, Item]
	// Name identifies this scope in path resolution error messages (e.g.
	// a module or structure identifier); the root scope has Name "".
	Name string
}

// NewScope constructs a fresh scope with the given parent (nil for the
// root/global scope).
func NewScope(parent *Scope, name string) *Scope {
	return &Scope{parent: parent, items: swiss.NewMap[string, Item](8), Name: name}
}

// Parent returns this scope's lexical parent, or nil at the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Declare binds name to item in this scope. Redeclaration within the
// *same* scope is rejected (spec.md §3 invariant: "no name redeclared in
// the same scope"); shadowing a name bound in an ancestor scope is fine.
func (s *Scope) Declare(name string, item Item) error {
	if prior, ok := s.items.Get(name); ok {
		return diagnostic.New(diagnostic.CodeRedeclaredItem, item.DeclaredAt,
			"item %q already declared in this scope", name).
			WithReference(prior.DeclaredAt, "previous declaration of %q", name)
	}

	s.items.Put(name, item)

	return nil
}

// Resolve looks up name in this scope, walking parent links outward until
// found or the root is exhausted.
func (s *Scope) Resolve(name string) (Item, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if item, ok := cur.items.Get(name); ok {
			return item, true
		}
	}

	return Item{}, false
}

// ResolveLocal looks up name only within this scope, without consulting
// parents; used when resolving the tail of a `::` path, where the
// preceding segment already pinned a specific namespace.
func (s *Scope) ResolveLocal(name string) (Item, bool) {
	return s.items.Get(name)
}

// ResolvePath resolves a `A::B::C`-style path starting from this scope.
// Each non-final segment must resolve to a namespace-introducing item;
// resolving into a non-namespace produces ItemIsNotNamespace (spec.md
// §4.2).
func (s *Scope) ResolvePath(at diagnostic.Location, segments []string) (Item, error) {
	if len(segments) == 0 {
		panic("empty path")
	}

	item, ok := s.Resolve(segments[0])
	if !ok {
		return Item{}, diagnostic.New(diagnostic.CodeUndeclaredItem, at,
			"undeclared item %q", segments[0])
	}

	cur := item

	for _, seg := range segments[1:] {
		if !cur.IsNamespace() {
			return Item{}, diagnostic.New(diagnostic.CodeItemIsNotNamespace, at,
				"%q is not a namespace", seg)
		}

		next, ok := cur.Namespace.ResolveLocal(seg)
		if !ok {
			return Item{}, diagnostic.New(diagnostic.CodeUndeclaredItem, at,
				"undeclared item %q", seg)
		}

		cur = next
	}

	return cur, nil
}

// String renders the scope's identity for debugging.
func (s *Scope) String() string {
	if s.Name == "" {
		return "<root>"
	}

	return fmt.Sprintf("<scope %s>", s.Name)
}
