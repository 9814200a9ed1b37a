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
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
	"github.com/zinc-lang/zinc/internal/pkg/vm/gadgets"
	"github.com/zinc-lang/zinc/internal/pkg/vm/storage"
)

// VM executes a bytecode.Program against a concrete input, producing both
// its public output and the accumulated circuit.ConstraintSystem that
// output is consistent with (spec.md §3's V: "a virtual machine that
// executes a program and, side by side, builds an arithmetic circuit its
// execution satisfies").
type VM struct {
	engine field.Engine
	prog   *bytecode.Program
	cs     *circuit.ConstraintSystem
	state  *ExecutionState
}

// New constructs a VM ready to Run prog once.
func New(engine field.Engine, prog *bytecode.Program) *VM {
	return &VM{
		engine: engine,
		prog:   prog,
		cs:     circuit.NewConstraintSystem(engine),
	}
}

// ConstraintSystem exposes the circuit accumulated by the most recent Run,
// for a caller that wants to inspect or Check it afterwards.
func (vm *VM) ConstraintSystem() *circuit.ConstraintSystem {
	return vm.cs
}

// Run executes the program from its EntryPoint with input bound as the
// entry function's arguments, returning the public output scalars. store,
// if non-nil, backs Storage-touching opcodes for a contract invocation;
// pass nil when running a plain circuit.
func (vm *VM) Run(input []circuit.Scalar, store *storage.Storage) ([]circuit.Scalar, error) {
	vm.state = &ExecutionState{
		DataStack:          append([]circuit.Scalar{}, input...),
		Frames:             []Frame{{Base: 0, ReturnAddress: 0}},
		InstructionCounter: vm.prog.EntryPoint,
		Storage:            store,
	}

	for {
		if vm.state.InstructionCounter >= uint64(len(vm.prog.Instructions)) {
			return nil, diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location,
				"instruction counter ran off the end of the program")
		}

		instr := vm.prog.Instructions[vm.state.InstructionCounter]

		before := vm.cs.Len()

		out, halted, err := vm.step(instr)
		if err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{
			"instruction": fmt.Sprintf("%T", instr),
			"constraints": vm.cs.Len(),
			"rowsAdded":   vm.cs.Len() - before,
		}).Trace("executed instruction")

		if halted {
			return out, nil
		}
	}
}

// step executes a single instruction, advancing InstructionCounter unless
// the instruction itself redirects it (Loop/EndLoop/Call/Return). It
// returns (output, true, nil) only for Exit.
func (vm *VM) step(instr bytecode.Instruction) (output []circuit.Scalar, halted bool, err error) {
	s := vm.state
	cs := vm.cs
	ns := vm.label()

	advance := true

	switch in := instr.(type) {
	case bytecode.Push:
		v, t, perr := vm.pushValue(in)
		if perr != nil {
			return nil, false, perr
		}

		s.push(circuit.NewConst(v, t))

	case bytecode.Arith:
		if err = vm.execArith(in, ns); err != nil {
			return nil, false, err
		}

	case bytecode.Shl:
		x, perr := s.pop()
		if perr != nil {
			return nil, false, perr
		}

		r, gerr := gadgets.Shl(cs, ns, x, in.Amount, in.Signed, in.Bitlength)
		if gerr != nil {
			return nil, false, gerr
		}

		s.push(r)

	case bytecode.Shr:
		x, perr := s.pop()
		if perr != nil {
			return nil, false, perr
		}

		r, gerr := gadgets.Shr(cs, ns, x, in.Amount, in.Signed, in.Bitlength)
		if gerr != nil {
			return nil, false, gerr
		}

		s.push(r)

	case bytecode.Cast:
		x, perr := s.pop()
		if perr != nil {
			return nil, false, perr
		}

		r, gerr := gadgets.Cast(cs, ns, x, in.Signed, in.Bitlength, in.ToField)
		if gerr != nil {
			return nil, false, gerr
		}

		s.push(r)

	case bytecode.If:
		b, perr := s.pop()
		if perr != nil {
			return nil, false, perr
		}

		if err = s.enterIf(cs, ns, b); err != nil {
			return nil, false, err
		}

	case bytecode.Else:
		if err = s.enterElse(cs, ns); err != nil {
			return nil, false, err
		}

	case bytecode.EndIf:
		if err = s.exitIf(); err != nil {
			return nil, false, err
		}

	case bytecode.Loop:
		advance = false

		if ferr := vm.enterLoop(in); ferr != nil {
			return nil, false, ferr
		}

	case bytecode.EndLoop:
		advance = false

		if ferr := vm.stepLoop(); ferr != nil {
			return nil, false, ferr
		}

	case bytecode.Call:
		advance = false

		if cerr := vm.execCall(in); cerr != nil {
			return nil, false, cerr
		}

	case bytecode.Return:
		advance = false

		if rerr := vm.execReturn(in); rerr != nil {
			return nil, false, rerr
		}

	case bytecode.Exit:
		vals, perr := s.popN(in.N)
		if perr != nil {
			return nil, false, perr
		}

		return vals, true, nil

	case bytecode.Load:
		frame, ferr := s.currentFrame()
		if ferr != nil {
			return nil, false, ferr
		}

		if err = vm.execLoad(&s.DataStack, frame.Base, in.Index, in.Length); err != nil {
			return nil, false, err
		}

	case bytecode.Store:
		frame, ferr := s.currentFrame()
		if ferr != nil {
			return nil, false, ferr
		}

		if err = vm.execStore(&s.DataStack, ns, frame.Base, in.Index, in.Length); err != nil {
			return nil, false, err
		}

	case bytecode.LoadGlobal:
		if err = vm.execLoad(&s.Globals, 0, in.Index, in.Length); err != nil {
			return nil, false, err
		}

	case bytecode.StoreGlobal:
		if err = vm.execStore(&s.Globals, ns, 0, in.Index, in.Length); err != nil {
			return nil, false, err
		}

	case bytecode.LoadByIndex:
		if err = vm.execLoadByIndex(in.ElementLength); err != nil {
			return nil, false, err
		}

	case bytecode.StoreByIndex:
		if err = vm.execStoreByIndex(ns, in.ElementLength); err != nil {
			return nil, false, err
		}

	case bytecode.Slice:
		if err = vm.execSlice(in); err != nil {
			return nil, false, err
		}

	case bytecode.Assert:
		if err = vm.execAssert(in, ns); err != nil {
			return nil, false, err
		}

	case bytecode.Dbg:
		if err = vm.execDbg(in); err != nil {
			return nil, false, err
		}

	case bytecode.LibCall:
		if err = vm.execLibCall(in, ns); err != nil {
			return nil, false, err
		}

	case bytecode.FileMarker:
		s.Location.File = in.File
	case bytecode.FunctionMarker:
		// no ExecutionState field tracks the function name; retained for a
		// future disassembler, not consulted here.
	case bytecode.LineMarker:
		s.Location.Line = in.Line
	case bytecode.ColumnMarker:
		s.Location.Column = in.Column

	default:
		return nil, false, diagnostic.New(diagnostic.CodeMalformedBytecode, s.Location, "unrecognized instruction")
	}

	if advance {
		s.InstructionCounter++
	}

	return nil, false, nil
}

// label derives this step's constraint-namespace prefix from the current
// source location, so every constraint this instruction adds can be traced
// back to a file:line:column (spec.md §5's labeling requirement).
func (vm *VM) label() string {
	loc := vm.state.Location

	var b strings.Builder

	b.WriteString("pc")
	b.WriteString(loc.String())

	return b.String()
}

// pushValue converts a Push instruction's folded compile-time constant
// into a concrete field.Element, the only Constant variants G ever
// materializes directly (places.go only ever emits Push for
// ConstBool/ConstInt/ConstField; aggregates are built field-by-field).
func (vm *VM) pushValue(in bytecode.Push) (field.Element, ast.Type, error) {
	engine := vm.engine

	switch c := in.Value.(type) {
	case ast.ConstBool:
		if c.Value {
			return engine.One(), in.Type, nil
		}

		return engine.Zero(), in.Type, nil
	case ast.ConstInt:
		return engine.FromBigInt(c.Value), in.Type, nil
	case ast.ConstField:
		return engine.FromBigInt(c.Value), in.Type, nil
	default:
		return field.Element{}, nil, diagnostic.New(diagnostic.CodeMalformedBytecode, vm.state.Location,
			"Push of an unsupported constant kind %T", in.Value)
	}
}

// unaryOps names the OpKinds that consume exactly one evaluation-stack
// operand; every other OpKind is binary.
var unaryOps = map[bytecode.OpKind]bool{
	bytecode.OpNeg:    true,
	bytecode.OpBitNot: true,
	bytecode.OpLogNot: true,
}

// execArith dispatches an Arith instruction to its gadgets function by
// OpKind (spec.md §4.4's fixed opcode-to-gadget mapping).
func (vm *VM) execArith(in bytecode.Arith, ns string) error {
	s := vm.state

	if unaryOps[in.Op] {
		x, err := s.pop()
		if err != nil {
			return err
		}

		r, err := vm.execUnaryArith(in, ns, x)
		if err != nil {
			return err
		}

		s.push(r)

		return nil
	}

	r, err := s.pop()
	if err != nil {
		return err
	}

	l, err := s.pop()
	if err != nil {
		return err
	}

	result, err := vm.execBinaryArith(in, ns, l, r)
	if err != nil {
		return err
	}

	s.push(result)

	return nil
}
