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

// Package storage implements a contract's persistent state (spec.md §3/§4.4:
// "Storage is a Merkle tree whose leaves are the contract's field values").
//
// Grounded on go-corset's register abstraction (pkg/schema/register.Register:
// a fixed, named, fixed-width slot within a module) generalized here to a
// fixed-arity array of field-value leaves, each authenticated by a Merkle
// path instead of being a trace column. A Keeper is the external bridge to
// wherever a real deployment keeps contract state (spec.md's "blockchain
// wallet/signer integrations" are explicitly out of scope, so Keeper is left
// as an interface with no shipped implementation).
package storage

import (
	"fmt"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/field"
)

// Storage is a fixed-depth binary Merkle tree of field-element leaves. Depth
// is chosen at construction time to fit a contract's declared storage
// layout; reads and writes below address the 2^Depth leaves directly.
type Storage struct {
	engine field.Engine
	depth  uint
	leaves []field.Element
	nodes  [][]field.Element // nodes[0] is the leaf level, nodes[Depth] the root
	dirty  bool
}

// New allocates an all-zero Merkle tree with 2^depth leaves.
func New(engine field.Engine, depth uint) *Storage {
	size := uint(1) << depth
	leaves := make([]field.Element, size)

	for i := range leaves {
		leaves[i] = engine.Zero()
	}

	s := &Storage{engine: engine, depth: depth, leaves: leaves}
	s.rebuild()

	return s
}

// Depth returns the tree's fixed depth.
func (s *Storage) Depth() uint {
	return s.depth
}

// Size returns the number of addressable leaves, 2^Depth.
func (s *Storage) Size() uint {
	return uint(len(s.leaves))
}

// Read returns the current value at index, or a diagnostic.CodeIndexOutOfRange
// error if index is outside the tree.
func (s *Storage) Read(index uint) (field.Element, error) {
	if index >= s.Size() {
		return field.Element{}, diagnostic.New(diagnostic.CodeIndexOutOfRange, diagnostic.Location{},
			fmt.Sprintf("storage index %d out of range (size %d)", index, s.Size()))
	}

	return s.leaves[index], nil
}

// Write sets the value at index, marking the tree dirty so Root recomputes
// lazily on next access.
func (s *Storage) Write(index uint, value field.Element) error {
	if index >= s.Size() {
		return diagnostic.New(diagnostic.CodeIndexOutOfRange, diagnostic.Location{},
			fmt.Sprintf("storage index %d out of range (size %d)", index, s.Size()))
	}

	s.leaves[index] = value
	s.dirty = true

	return nil
}

// Root returns the tree's current root commitment, rebuilding first if any
// leaf has changed since the last Root call.
func (s *Storage) Root() field.Element {
	if s.dirty {
		s.rebuild()
	}

	return s.nodes[s.depth][0]
}

// Path returns index's Merkle authentication path: one sibling hash per tree
// level, leaf-to-root order.
func (s *Storage) Path(index uint) ([]field.Element, error) {
	if index >= s.Size() {
		return nil, diagnostic.New(diagnostic.CodeIndexOutOfRange, diagnostic.Location{},
			fmt.Sprintf("storage index %d out of range (size %d)", index, s.Size()))
	}

	if s.dirty {
		s.rebuild()
	}

	path := make([]field.Element, s.depth)
	idx := index

	for level := uint(0); level < s.depth; level++ {
		sibling := idx ^ 1
		path[level] = s.nodes[level][sibling]
		idx >>= 1
	}

	return path, nil
}

// rebuild recomputes every internal node from the current leaves. A node's
// value is hash(left, right), implemented with the same additive
// two-operand scheme hash gadgets use elsewhere in this VM (see
// gadgets.Pedersen's doc comment): a deliberately simplified binding
// commitment rather than a cryptographic compression function, since this
// package has no circuit to prove inside - only the witness-side tree needs
// to exist.
func (s *Storage) rebuild() {
	levels := make([][]field.Element, s.depth+1)
	levels[0] = s.leaves

	for level := uint(0); level < s.depth; level++ {
		cur := levels[level]
		next := make([]field.Element, len(cur)/2)

		for i := range next {
			left, right := cur[2*i], cur[2*i+1]
			next[i] = combine(s.engine, left, right)
		}

		levels[level+1] = next
	}

	s.nodes = levels
	s.dirty = false
}

// combine is the tree's node-hash function: a fixed non-commutative
// weighting of both children, distinct from gadgets.Pedersen's generator
// sequence so a storage commitment can't be confused with a library-call
// digest.
func combine(engine field.Engine, left, right field.Element) field.Element {
	three := engine.FromUint64(3)
	five := engine.FromUint64(5)

	return left.Mul(three).Add(right.Mul(five))
}

// Keeper bridges a contract's Storage to wherever a deployment persists it
// across invocations (spec.md's external contract-DB integration). Left
// unimplemented beyond this interface: spec.md §1 puts blockchain
// wallet/signer/deployment integrations out of scope, and a real Keeper
// would need one of those to know where a given contract's tree lives.
type Keeper interface {
	// Load fetches the named contract's current Storage, or a fresh
	// zero-valued tree of the given depth if none exists yet.
	Load(contract string, depth uint) (*Storage, error)
	// Commit persists a contract's Storage after a successful run.
	Commit(contract string, s *Storage) error
}
