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

// Package vm implements the constraint-generating virtual machine (V):
// an interpreter that, for each bytecode.Instruction, both computes a
// witness value and extends a circuit.ConstraintSystem, under a
// control-flow condition stack that makes branches both executed but
// selectively effective (spec.md §4.4).
//
// Grounded on go-corset's own schema/trace execution split (pkg/air
// evaluates a constraint system's columns against a concrete trace);
// generalized here to a single-pass stack-machine interpreter since
// Zinc's VM has no separate "trace" artifact — the witness and the
// constraint system are built together, instruction by instruction.
package vm

import (
	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
	"github.com/zinc-lang/zinc/internal/pkg/vm/storage"
)

// Frame is one call-stack entry: the data-stack offset a function's
// locals (including its parameters, bound to slots 0..Width) are based
// at, and the instruction to resume at on Return.
type Frame struct {
	Base          uint
	ReturnAddress uint64
}

// loopFrame tracks an in-progress Loop instruction's remaining
// iterations, so EndLoop can jump back into the body without the VM
// recursing (spec.md's Loop/EndLoop pair compiles a `for` into a single
// re-executed instruction range rather than per-iteration unrolled
// bytecode).
type loopFrame struct {
	bodyStart      uint64
	iteration      uint64
	iterationsCount uint64
	isReversed     bool
	indexSigned    bool
	indexBitlength uint
	indexSlot      uint
}

// branchFrame remembers an If's original condition and the selector
// active before it, so a later Else can compute `parent ∧ ¬condition`
// without re-deriving either (spec.md §4.4's branching state machine).
type branchFrame struct {
	parent    circuit.Scalar
	condition circuit.Scalar
}

// ExecutionState is the VM's complete mutable state (spec.md §3). A
// fresh ExecutionState is constructed per program execution.
type ExecutionState struct {
	// EvaluationStack holds intermediate expression values (spec.md's
	// `Cell = Value(Scalar) | Address(usize)`); this implementation's
	// bytecode never needs the Address variant explicitly, since G
	// already lowers addressing into ordinary arithmetic on plain
	// integer-typed Scalars (see places.go's emitIndex) - the
	// evaluation stack only ever holds Value cells in practice.
	EvaluationStack []circuit.Scalar
	// DataStack holds every active frame's locals, contiguously; a
	// frame's own slots are DataStack[frame.Base:] relative-indexed by
	// Load/Store's Index field. Grown lazily on first access past its
	// current length (the program carries no separate per-function
	// frame-size table; Load/Store's own indices are self-describing).
	DataStack []circuit.Scalar
	// Globals holds `static` item storage, a separate address space
	// from locals (LoadGlobal/StoreGlobal), grown the same way.
	Globals []circuit.Scalar
	Frames  []Frame

	conditionStack []circuit.Scalar
	branchFrames   []branchFrame
	loopFrames     []loopFrame

	InstructionCounter uint64
	// Storage is the contract Merkle tree (non-nil only for contract
	// programs; spec.md §4.4's "Storage is a Merkle tree whose leaves
	// are the contract's field values").
	Storage  *storage.Storage
	Location diagnostic.Location
}

func (s *ExecutionState) push(v circuit.Scalar) {
	s.EvaluationStack = append(s.EvaluationStack, v)
}

func (s *ExecutionState) pop() (circuit.Scalar, error) {
	if len(s.EvaluationStack) == 0 {
		return circuit.Scalar{}, diagnostic.New(diagnostic.CodeStackUnderflow, s.Location, "evaluation stack underflow")
	}

	v := s.EvaluationStack[len(s.EvaluationStack)-1]
	s.EvaluationStack = s.EvaluationStack[:len(s.EvaluationStack)-1]

	return v, nil
}

// popN pops n values, restoring their original push order (index 0 is
// the earliest-pushed of the n).
func (s *ExecutionState) popN(n uint) ([]circuit.Scalar, error) {
	out := make([]circuit.Scalar, n)

	for i := int(n) - 1; i >= 0; i-- {
		v, err := s.pop()
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (s *ExecutionState) currentFrame() (*Frame, error) {
	if len(s.Frames) == 0 {
		return nil, diagnostic.New(diagnostic.CodeFrameMismatch, s.Location, "no active frame")
	}

	return &s.Frames[len(s.Frames)-1], nil
}

// ensureCapacity grows *slice (the data stack or the globals) so indices
// [0, upto) are addressable, zero-filling any newly-created slots (read
// before a Store reaches them only in a malformed program).
func (s *ExecutionState) ensureCapacity(slice *[]circuit.Scalar, upto uint) {
	for uint(len(*slice)) < upto {
		*slice = append(*slice, circuit.Scalar{})
	}
}

// currentSelector returns the condition stack's top (the active branch
// selector), or the always-on selector 1 when no If is open.
func (s *ExecutionState) currentSelector(cs *circuit.ConstraintSystem) circuit.Scalar {
	if len(s.conditionStack) == 0 {
		return circuit.NewConst(cs.Engine().One(), ast.Boolean{})
	}

	return s.conditionStack[len(s.conditionStack)-1]
}
