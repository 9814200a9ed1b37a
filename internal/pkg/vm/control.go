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

package vm

import (
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
	"github.com/zinc-lang/zinc/internal/pkg/vm/gadgets"
)

func loopIndexType(signed bool, bitlength uint) ast.Type {
	if signed {
		return ast.IntegerSigned{Bitlength: bitlength}
	}

	return ast.IntegerUnsigned{Bitlength: bitlength}
}

// writeLoopIndex allocates a fresh, range-checked Scalar for a loop
// iteration's index value and writes it directly into the current
// frame's indexSlot, unconditionally (not branch-masked: which iteration
// of a Loop runs is a circuit-level constant fixed by G's constant-
// propagation pass, never a runtime branch condition - design note
// "Constant propagation before emission").
func (vm *VM) writeLoopIndex(lf loopFrame, iteration uint64) error {
	s := vm.state

	frame, err := s.currentFrame()
	if err != nil {
		return err
	}

	value := iteration
	if lf.isReversed {
		value = lf.iterationsCount - 1 - iteration
	}

	typ := loopIndexType(lf.indexSigned, lf.indexBitlength)
	scalar := circuit.NewVar(vm.cs, vm.cs.Engine().FromUint64(value), typ)

	checked, err := gadgets.RangeCheck(vm.cs, vm.label()+".loopidx", scalar, lf.indexSigned, lf.indexBitlength)
	if err != nil {
		return err
	}

	slot := frame.Base + lf.indexSlot
	s.ensureCapacity(&s.DataStack, slot+1)
	s.DataStack[slot] = checked

	return nil
}

// enterLoop begins a Loop: if its iteration count is zero, the body never
// runs and execution jumps straight past the matching EndLoop; otherwise
// the first iteration's index is written and the instruction counter
// falls through to the body (bodyStart = Loop's own address + 1).
func (vm *VM) enterLoop(in bytecode.Loop) error {
	s := vm.state
	bodyStart := s.InstructionCounter + 1

	if in.IterationsCount == 0 {
		s.InstructionCounter = bodyStart + uint64(in.BodyLength) + 1
		return nil
	}

	lf := loopFrame{
		bodyStart:       bodyStart,
		iteration:       0,
		iterationsCount: in.IterationsCount,
		isReversed:      in.IsReversed,
		indexSigned:     in.IndexSigned,
		indexBitlength:  in.IndexBitlength,
		indexSlot:       in.IndexSlot,
	}

	if err := vm.writeLoopIndex(lf, 0); err != nil {
		return err
	}

	s.loopFrames = append(s.loopFrames, lf)
	s.InstructionCounter = bodyStart

	return nil
}

// stepLoop handles EndLoop: either re-enters the body with the next
// iteration's index, or pops the loopFrame and falls through once
// exhausted (design note "Loop/EndLoop via a loop-frame stack, not
// recursion" - this composes correctly with Call/Return since both drive
// the same global InstructionCounter).
func (vm *VM) stepLoop() error {
	s := vm.state

	if len(s.loopFrames) == 0 {
		return errFrameMismatch(s, "EndLoop without a matching Loop")
	}

	top := len(s.loopFrames) - 1
	lf := s.loopFrames[top]
	lf.iteration++

	if lf.iteration >= lf.iterationsCount {
		s.loopFrames = s.loopFrames[:top]
		s.InstructionCounter++

		return nil
	}

	if err := vm.writeLoopIndex(lf, lf.iteration); err != nil {
		return err
	}

	s.loopFrames[top] = lf
	s.InstructionCounter = lf.bodyStart

	return nil
}

// execCall binds Width already-materialized argument scalars as the
// callee's first local slots and jumps to its address, pushing a Frame
// that remembers where to resume (spec.md §4.4's Call/Return pair).
func (vm *VM) execCall(in bytecode.Call) error {
	s := vm.state

	args, err := s.popN(in.Width)
	if err != nil {
		return err
	}

	base := uint(len(s.DataStack))
	s.DataStack = append(s.DataStack, args...)
	s.Frames = append(s.Frames, Frame{Base: base, ReturnAddress: s.InstructionCounter + 1})
	s.InstructionCounter = in.Addr

	return nil
}

// execReturn pops the current frame, discards its locals, and pushes its
// N result scalars back onto the caller's evaluation stack.
func (vm *VM) execReturn(in bytecode.Return) error {
	s := vm.state

	vals, err := s.popN(in.N)
	if err != nil {
		return err
	}

	if len(s.Frames) == 0 {
		return errFrameMismatch(s, "Return with no active frame")
	}

	top := len(s.Frames) - 1
	frame := s.Frames[top]

	s.Frames = s.Frames[:top]
	s.DataStack = s.DataStack[:frame.Base]
	s.InstructionCounter = frame.ReturnAddress

	for _, v := range vals {
		s.push(v)
	}

	return nil
}
