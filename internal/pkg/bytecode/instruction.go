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

// Package bytecode implements Zinc's bytecode emitter (G): deterministic
// lowering of a sema.Program's typed function bodies into a flat
// Instruction vector plus a function address table (spec.md §2, §4.3).
//
// Grounded on go-corset's own "machine instruction" shape in
// pkg/asm/instruction.go: a closed Instruction interface implemented by
// one small struct per opcode, dispatched by type switch rather than a
// byte tag + field union, matching the style already used throughout
// this module for ast.Type/ast.Constant/parser.Declaration.
package bytecode

import "github.com/zinc-lang/zinc/internal/pkg/ast"

// Instruction is the closed variant of every bytecode opcode spec.md §3
// names. The VM (V) dispatches on its dynamic type with an exhaustive
// type switch (design note "Dynamic dispatch avoidance").
type Instruction interface {
	isInstruction()
}

// Push materializes a compile-time constant onto the evaluation stack.
type Push struct {
	Value ast.Constant
	Type  ast.Type
}

func (Push) isInstruction() {}

// OpKind names an arithmetic/logical/comparison/bitwise operator lowered
// from parser.OperatorKind into a single-opcode form.
type OpKind uint8

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogAnd
	OpLogOr
	OpLogXor
	OpLogNot
)

// Arith covers every binary/unary arithmetic, bitwise, comparison, and
// logical opcode. Signed/Bitlength describe the *operand* type (both
// operands share it, per S's same-signedness-and-bitlength rule), which
// the VM's gadgets (internal/pkg/vm/gadgets) need to size their
// bit-decomposition range checks (spec.md §4.4).
type Arith struct {
	Op        OpKind
	IsField   bool
	Signed    bool
	Bitlength uint
}

func (Arith) isInstruction() {}

// Shl/Shr shift by a compile-time-constant amount (S already rejected any
// non-constant shift count).
type Shl struct {
	Amount    uint64
	Signed    bool
	Bitlength uint
}

func (Shl) isInstruction() {}

// Shr is the right-shift counterpart of Shl.
type Shr struct {
	Amount    uint64
	Signed    bool
	Bitlength uint
}

func (Shr) isInstruction() {}

// Cast converts the top-of-stack value's declared width/signedness,
// re-using its existing bits for a widening cast (spec.md §4.4); S has
// already rejected any narrowing cast reaching here. ToField marks a
// cast that drops the bit-range constraint entirely.
type Cast struct {
	Signed    bool
	Bitlength uint
	ToField   bool
}

func (Cast) isInstruction() {}

// If reads the top of the evaluation stack as a boolean and pushes
// current_selector ∧ b onto the VM's condition stack (spec.md §4.4).
type If struct{}

func (If) isInstruction() {}

// Else replaces the top condition-stack selector with
// current_selector ∧ ¬b_original.
type Else struct{}

func (Else) isInstruction() {}

// EndIf pops the condition stack.
type EndIf struct{}

func (EndIf) isInstruction() {}

// Loop begins a loop body of a pre-computed, constant iteration count
// (design note "Constant propagation before emission"). The index
// variable's slot receives each successive value before the body re-runs.
type Loop struct {
	IterationsCount uint64
	IsReversed      bool
	IndexSigned     bool
	IndexBitlength  uint
	// IndexSlot is the data-stack slot the per-iteration index value is
	// stored into before each pass through the body.
	IndexSlot uint
	// BodyLength is the instruction count of the loop body, letting the
	// VM re-execute it in place rather than re-jumping through Call/Return.
	BodyLength uint
}

func (Loop) isInstruction() {}

// EndLoop marks the end of a Loop's body, not named in spec.md's prose
// but required so the VM's dispatch loop knows where an iteration ends
// without pre-scanning for BodyLength (kept anyway, for a human disassembly
// to find the matching boundary without arithmetic on raw offsets).
type EndLoop struct{}

func (EndLoop) isInstruction() {}

// Call invokes the function at Addr with Argc arguments already on the
// evaluation stack, pushing a new Frame.
type Call struct {
	Addr  uint64
	Argc  uint
	Width uint
}

func (Call) isInstruction() {}

// Return pops the current frame, returning N scalars.
type Return struct {
	N uint
}

func (Return) isInstruction() {}

// Exit halts execution, reading N scalars from the top of the evaluation
// stack as the program's public output.
type Exit struct {
	N uint
}

func (Exit) isInstruction() {}

// Load pushes Length scalars starting at the local data-stack slot Index
// (relative to the current frame's base) onto the evaluation stack.
type Load struct {
	Index  uint
	Length uint
}

func (Load) isInstruction() {}

// Store pops Length scalars and writes them to the local slot Index,
// conditionally selected against the current branch selector (design
// note "Branch-masked side effects"): new = selector*computed +
// (1-selector)*previous.
type Store struct {
	Index  uint
	Length uint
}

func (Store) isInstruction() {}

// LoadGlobal/StoreGlobal are Load/Store's module-level-static counterparts.
type LoadGlobal struct {
	Index  uint
	Length uint
}

func (LoadGlobal) isInstruction() {}

// StoreGlobal is the global counterpart of Store.
type StoreGlobal struct {
	Index  uint
	Length uint
}

func (StoreGlobal) isInstruction() {}

// LoadByIndex indexes into an array already addressed on the stack,
// reading Length scalars per element.
type LoadByIndex struct {
	ElementLength uint
}

func (LoadByIndex) isInstruction() {}

// StoreByIndex is the write counterpart of LoadByIndex, masked exactly
// like Store.
type StoreByIndex struct {
	ElementLength uint
}

func (StoreByIndex) isInstruction() {}

// Slice narrows an addressed array to [Offset, Offset+Length).
type Slice struct {
	Offset        uint
	Length        uint
	ElementLength uint
}

func (Slice) isInstruction() {}

// Assert pops a boolean value v and enforces (v ∨ ¬selector) ≠ 0 (spec.md
// §4.4); Message, if present, is surfaced in AssertionError before
// constraint generation runs. IsRequire marks a `require(cond, msg)`
// statement, which always carries a message (internal/pkg/parser's
// AssertStmt parses `require` as sugar for a mandatory-message assert
// directly - SPEC_FULL.md §9; this instruction makes no distinction
// between the two at emission beyond carrying IsRequire through).
type Assert struct {
	Message   *string
	IsRequire bool
}

func (Assert) isInstruction() {}

// Dbg consumes Argc already-pushed operands and formats them against
// Format's `{}` placeholders. It never reaches a store site, so it has no
// effect on the witness or R1CS even under an active selector (spec.md
// §8's dbg! round-trip property).
type Dbg struct {
	Format string
	Argc   uint
}

func (Dbg) isInstruction() {}

// LibCall invokes one of the fixed set of library gadgets (hashes,
// signature verification, field inverse, array helpers) named in
// spec.md §3/§4.4.
type LibCall struct {
	Name LibFunc
	Argc uint
}

func (LibCall) isInstruction() {}

// LibFunc enumerates the closed set of library calls the VM's
// internal/pkg/vm/gadgets package implements.
type LibFunc uint8

const (
	LibBlake2s LibFunc = iota
	LibBlake2sMultiInput
	LibSha256
	LibPedersen
	LibSchnorrVerify
	LibFFInvert
	LibArrayPad
	LibArrayTruncate
	LibArrayReverse
)

// nativeLibFuncs maps a std::... native's declared identifier
// (internal/pkg/sema/natives.go) to the LibCall it lowers to. Only the
// fixed-arity natives are listed; see natives.go's doc comment for why
// the variadic/array ones aren't exposed on the std:: call surface.
var nativeLibFuncs = map[string]LibFunc{
	"blake2s":        LibBlake2s,
	"sha256":         LibSha256,
	"schnorr_verify": LibSchnorrVerify,
	"invert":         LibFFInvert,
}

// FileMarker/FunctionMarker/LineMarker/ColumnMarker update
// ExecutionState.Location for error reporting; they have no witness or
// constraint-system effect.
type FileMarker struct{ File string }

func (FileMarker) isInstruction() {}

// FunctionMarker records the currently executing function's name.
type FunctionMarker struct{ Name string }

func (FunctionMarker) isInstruction() {}

// LineMarker records the currently executing source line.
type LineMarker struct{ Line uint }

func (LineMarker) isInstruction() {}

// ColumnMarker records the currently executing source column.
type ColumnMarker struct{ Column uint }

func (ColumnMarker) isInstruction() {}
