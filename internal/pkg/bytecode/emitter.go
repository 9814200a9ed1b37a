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

package bytecode

import (
	"fmt"
	"math/big"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
	"github.com/zinc-lang/zinc/internal/pkg/sema"
)

// Emitter lowers a sema.Program into a bytecode.Program. It re-walks each
// function's raw parser.Block (retained on sema.Function.Body.Source)
// against the scope sema already resolved (sema.Program.Root), rather
// than re-deriving types from scratch: S has already proven every program
// it accepts well-typed, so G's walk is unchecked by design (an
// inconsistency here is a compiler bug, not a user error) and concerns
// itself only with *where* each value lives (stack slot vs constant vs
// function address), not whether the program is well-typed.
//
// Grounded on go-corset's own multi-stage IR lowering (pkg/ir/hir ->
// pkg/ir/mir -> pkg/ir/air), where each stage re-walks the previous
// stage's expression shape rather than inheriting a fully pre-resolved
// tree; this emitter plays the same role for Zinc's single G stage.
type Emitter struct {
	prog *sema.Program
	out  []Instruction

	// addrs maps a function's unique id to its address. Pass 1 assigns a
	// placeholder address to every function before any body is emitted,
	// so forward/mutually-recursive calls resolve.
	addrs map[uint64]uint64

	// globalsByKey maps a `static` item's declaration site to its
	// assigned StoreGlobal/LoadGlobal data-stack slot, assigned on first
	// reference and stable across every function that touches it.
	globalsByKey map[string]localSlot
	nextGlobal   uint
}

// Emit lowers prog into a flat bytecode.Program. entryName selects the
// function serialized as Program.EntryPoint ("main" for a circuit).
func Emit(prog *sema.Program, entryName string) (*Program, error) {
	e := &Emitter{
		prog:         prog,
		addrs:        make(map[uint64]uint64),
		globalsByKey: make(map[string]localSlot),
	}

	// Pass 1: reserve every function's address, in the deterministic
	// declaration order sema.AnalyzeProgram preserved (spec.md §5: "this
	// forbids iteration over unordered containers during emission").
	cursor := uint64(0)
	bodies := make([]int, len(prog.Functions))

	for i, fn := range prog.Functions {
		e.addrs[fn.UniqueID] = cursor
		bodies[i] = int(cursor)
		cursor += e.estimateLen(fn)
	}

	// Pass 2: emit each function body in place at its reserved address.
	var entryID uint64

	entryFound := false

	for _, fn := range prog.Functions {
		// estimateLen over-counts, so the previous body usually ends short
		// of this function's reserved address: fill the gap with markers,
		// which have no witness or constraint effect.
		for uint64(len(e.out)) < e.addrs[fn.UniqueID] {
			e.emit(FunctionMarker{Name: fn.Name})
		}

		start := len(e.out)

		if err := e.emitFunction(fn); err != nil {
			return nil, err
		}
		// Reconcile the real start offset against the address table: after
		// padding it can only differ when estimateLen under-counted the
		// previous body. That is asserted here rather than silently drifting.
		if uint64(start) != e.addrs[fn.UniqueID] {
			return nil, fmt.Errorf("bytecode: internal address-table drift for function %q", fn.Name)
		}

		if fn.Name == entryName {
			entryID = fn.UniqueID
			entryFound = true
		}
	}

	if !entryFound {
		return nil, fmt.Errorf("bytecode: no function named %q to serve as entry point", entryName)
	}

	var in, output ast.Type
	if entryFn := e.findFunction(entryID); entryFn != nil {
		if len(entryFn.Sig.Parameters) > 0 {
			in = entryFn.Sig.Parameters[0]
		}

		output = entryFn.Sig.Return
	}

	return &Program{
		Instructions: e.out,
		Functions:    e.addrs,
		EntryPoint:   e.addrs[entryID],
		InputType:    in,
		OutputType:   output,
	}, nil
}

func (e *Emitter) findFunction(id uint64) *sema.Function {
	for _, fn := range e.prog.Functions {
		if fn.UniqueID == id {
			return fn
		}
	}

	return nil
}

// estimateLen is a conservative worst-case instruction count for fn's
// body, used only to pre-assign addresses before any code is emitted
// (every real construct emits at most this many instructions per AST
// node it descends into; actual emission may emit fewer, e.g. a cast
// between identical types still emits one Cast). It intentionally
// over-counts rather than under-counts: Emit pads each gap up to the next
// reserved address and asserts the true offset matches, and addresses are
// only ever used as jump targets, so slack between functions is harmless,
// not illegal — but it must never
// be a *under*-estimate, which would corrupt every later function's
// address. A fixed generous per-node constant keeps this simple,
// mirroring go-corset's own two-pass "reserve then fill" address tables
// in pkg/asm/compiler/branch_table.go.
func (e *Emitter) estimateLen(fn *sema.Function) uint64 {
	return uint64(4 + 8*countNodes(fn.Body.Source))
}

func countNodes(b *parser.Block) int {
	n := 1
	for _, s := range b.Statements {
		n += countStmtNodes(s)
	}

	if b.Tail != nil {
		n += len(b.Tail.Objects) + 1
	}

	return n
}

func countStmtNodes(s parser.Statement) int {
	switch st := s.(type) {
	case parser.LetStmt:
		return len(st.Value.Objects) + 2
	case parser.ConstStmt:
		return 1
	case parser.ExprStmt:
		return len(st.Value.Objects) + 1
	case parser.ReturnStmt:
		n := 1
		if st.Value != nil {
			n += len(st.Value.Objects)
		}

		return n
	case parser.AssertStmt:
		return len(st.Cond.Objects) + 2
	case parser.DbgStmt:
		n := 1
		for _, a := range st.Args {
			n += len(a.Objects)
		}

		return n
	case *parser.IfExpr:
		n := len(st.Cond.Objects) + 3 + countNodes(st.Then)
		if st.Else != nil {
			n += countNodes(st.Else)
		}

		return n
	case parser.MatchExpr:
		n := len(st.Scrutinee.Objects) + 1
		for _, arm := range st.Arms {
			n += countNodes(arm.Body) + 4
		}

		return n
	case parser.ForStmt:
		return len(st.Range.Objects) + countNodes(st.Body) + 4
	case parser.WhileStmt:
		return len(st.Cond.Objects) + countNodes(st.Body) + 4
	default:
		return 1
	}
}

// env is one level of the emitter's local stack-slot environment, a
// parallel structure to ast.Scope that sema built and discarded: sema
// only needed *types* per name, while G additionally needs a concrete
// data-stack slot, so it rebuilds its own chain while walking the same
// source blocks sema already validated.
type env struct {
	parent *env
	slots  map[string]localSlot
}

type localSlot struct {
	index uint
	width uint
	typ   ast.Type
}

func newEnv(parent *env) *env { return &env{parent: parent, slots: make(map[string]localSlot)} }

func (e *env) declare(name string, slot localSlot) { e.slots[name] = slot }

func (e *env) lookup(name string) (localSlot, bool) {
	for s := e; s != nil; s = s.parent {
		if ls, ok := s.slots[name]; ok {
			return ls, true
		}
	}

	return localSlot{}, false
}

// fnCtx carries the per-function emission state threaded through every
// statement/expression helper.
type fnCtx struct {
	e        *Emitter
	fn       *sema.Function
	nextSlot uint
}

func (e *Emitter) emit(instrs ...Instruction) { e.out = append(e.out, instrs...) }

func (e *Emitter) emitFunction(fn *sema.Function) error {
	e.emit(FunctionMarker{Name: fn.Name})

	fc := &fnCtx{e: e, fn: fn}
	top := newEnv(nil)

	for i, name := range fn.ParamNames {
		t := fn.Sig.Parameters[i]
		slot := fc.nextSlot
		fc.nextSlot += t.Width()
		top.declare(name, localSlot{index: slot, width: t.Width(), typ: t})
	}

	return fc.emitBlock(top, fn.Body.Source)
}

func (fc *fnCtx) emitBlock(parent *env, b *parser.Block) error {
	inner := newEnv(parent)

	for _, stmt := range b.Statements {
		if err := fc.emitStmt(inner, stmt); err != nil {
			return err
		}
	}

	if b.Tail != nil {
		_, err := fc.emitExpr(inner, *b.Tail)
		return err
	}

	return nil
}

func (fc *fnCtx) emitStmt(scope *env, stmt parser.Statement) error {
	e := fc.e

	switch s := stmt.(type) {
	case parser.LetStmt:
		val, err := fc.emitExpr(scope, s.Value)
		if err != nil {
			return err
		}

		slot := fc.nextSlot
		fc.nextSlot += val.width()
		scope.declare(s.Name, localSlot{index: slot, width: val.width(), typ: val.resultType()})
		e.emit(Store{Index: slot, Length: val.width()})

		return nil
	case parser.ConstStmt:
		// Purely compile-time; nothing to emit (already folded by S).
		return nil
	case parser.ExprStmt:
		_, err := fc.emitExpr(scope, s.Value)
		return err
	case parser.ReturnStmt:
		n := uint(0)

		if s.Value != nil {
			val, err := fc.emitExpr(scope, *s.Value)
			if err != nil {
				return err
			}

			n = val.width()
		}

		e.emit(Return{N: n})

		return nil
	case parser.AssertStmt:
		if _, err := fc.emitExpr(scope, s.Cond); err != nil {
			return err
		}

		e.emit(Assert{Message: s.Message, IsRequire: s.IsRequire})

		return nil
	case parser.DbgStmt:
		for _, a := range s.Args {
			if _, err := fc.emitExpr(scope, a); err != nil {
				return err
			}
		}

		e.emit(Dbg{Format: s.Format, Argc: uint(len(s.Args))})

		return nil
	case *parser.IfExpr:
		return fc.emitIf(scope, s)
	case parser.MatchExpr:
		return fc.emitMatch(scope, s)
	case parser.ForStmt:
		return fc.emitFor(scope, s)
	case parser.WhileStmt:
		return fc.emitWhile(scope, s)
	default:
		return fmt.Errorf("bytecode: unreachable statement kind %T", stmt)
	}
}

func (fc *fnCtx) emitIf(scope *env, s *parser.IfExpr) error {
	e := fc.e

	if _, err := fc.emitExpr(scope, s.Cond); err != nil {
		return err
	}

	e.emit(If{})

	if err := fc.emitBlock(scope, s.Then); err != nil {
		return err
	}

	if s.Else != nil {
		e.emit(Else{})

		if err := fc.emitBlock(scope, s.Else); err != nil {
			return err
		}
	}

	e.emit(EndIf{})

	return nil
}

// emitMatch lowers a match into a chain of If/Else, one per non-wildcard
// arm tested by equality (or range-membership), mirroring exactly the
// evaluation order spec.md's match-exhaustiveness rule already fixed at
// S: arms are evaluated top-to-bottom and the first matching pattern's
// body runs, which an If/Else-if chain reproduces directly.
func (fc *fnCtx) emitMatch(scope *env, s parser.MatchExpr) error {
	e := fc.e

	scrutSlot := fc.nextSlot

	val, err := fc.emitExpr(scope, s.Scrutinee)
	if err != nil {
		return err
	}

	fc.nextSlot += val.width()
	e.emit(Store{Index: scrutSlot, Length: val.width()})

	depth := 0

	for _, arm := range s.Arms {
		if arm.Wildcard {
			if err := fc.emitBlock(scope, arm.Body); err != nil {
				return err
			}

			continue
		}

		e.emit(Load{Index: scrutSlot, Length: val.width()})

		if val.typ.Equal(ast.Boolean{}) {
			e.emit(Push{Value: ast.ConstBool{Value: arm.BoolValue}, Type: ast.Boolean{}})
			e.emit(Arith{Op: OpEq})
		} else {
			signed, bitlen := intShape(val.typ)
			if arm.RangeValid {
				e.emit(Push{Value: ast.ConstInt{Value: arm.RangeLow, IsSigned: signed, Bitlength: bitlen}, Type: val.typ})
				e.emit(Arith{Op: OpGe, Signed: signed, Bitlength: bitlen})

				e.emit(Load{Index: scrutSlot, Length: val.width()})
				e.emit(Push{Value: ast.ConstInt{Value: arm.RangeHigh, IsSigned: signed, Bitlength: bitlen}, Type: val.typ})
				e.emit(Arith{Op: OpLe, Signed: signed, Bitlength: bitlen})
				e.emit(Arith{Op: OpLogAnd})
			} else {
				e.emit(Push{Value: ast.ConstInt{Value: arm.IntValue, IsSigned: signed, Bitlength: bitlen}, Type: val.typ})
				e.emit(Arith{Op: OpEq, Signed: signed, Bitlength: bitlen})
			}
		}

		e.emit(If{})

		if err := fc.emitBlock(scope, arm.Body); err != nil {
			return err
		}

		e.emit(Else{})
		depth++
	}

	for i := 0; i < depth; i++ {
		e.emit(EndIf{})
	}

	return nil
}

// emitFor lowers a `for i in lo..hi { body }` over a range already
// folded to a constant by S into a Loop instruction whose iteration
// count is known at emit time (design note "Constant propagation before
// emission"). The body is emitted once, between Loop and EndLoop, and the
// VM runs it IterationsCount times. No statement in the body is treated
// as a guard: a `while` inside it is lowered like any other while and
// does not mask or stop the remaining iterations.
func (fc *fnCtx) emitFor(scope *env, s parser.ForStmt) error {
	e := fc.e

	rangeVal, err := fc.emitExpr(scope, s.Range)
	if err != nil {
		return err
	}

	var (
		lo, hi    *ast.ConstInt
		inclusive bool
	)

	switch c := rangeVal.constant.(type) {
	case ast.ConstRange:
		lo = &ast.ConstInt{Value: c.Start, IsSigned: c.IsSigned, Bitlength: c.Bitlength}
		hi = &ast.ConstInt{Value: c.End, IsSigned: c.IsSigned, Bitlength: c.Bitlength}
	case ast.ConstRangeInclusive:
		lo = &ast.ConstInt{Value: c.Start, IsSigned: c.IsSigned, Bitlength: c.Bitlength}
		hi = &ast.ConstInt{Value: c.End, IsSigned: c.IsSigned, Bitlength: c.Bitlength}
		inclusive = true
	default:
		return fmt.Errorf("bytecode: for-loop range did not fold to a constant range")
	}

	count := new(big.Int).Sub(hi.Value, lo.Value)
	if inclusive {
		count.Add(count, big.NewInt(1))
	}

	indexSlot := fc.nextSlot
	fc.nextSlot += 1

	inner := newEnv(scope)
	inner.declare(s.Index, localSlot{index: indexSlot, width: 1, typ: lo.Type()})

	e.emit(Loop{
		IterationsCount: count.Uint64(),
		IndexSigned:     lo.IsSigned,
		IndexBitlength:  lo.Bitlength,
		IndexSlot:       indexSlot,
	})

	bodyStart := len(e.out)

	if err := fc.emitBlock(inner, s.Body); err != nil {
		return err
	}

	loopIdx := findLastLoop(e.out, bodyStart)
	if loopIdx >= 0 {
		l := e.out[loopIdx].(Loop)
		l.BodyLength = uint(len(e.out) - bodyStart)
		e.out[loopIdx] = l
	}

	e.emit(EndLoop{})

	return nil
}

func findLastLoop(out []Instruction, before int) int {
	for i := before - 1; i >= 0; i-- {
		if _, ok := out[i].(Loop); ok {
			return i
		}
	}

	return -1
}

// emitWhile lowers a standalone `while cond { body }` as a single
// If-guarded pass: cond is evaluated once and the body's effects are
// masked by it, between If and EndIf. No Loop is emitted, so the body
// runs at most once whatever cond later becomes; S accepts any boolean
// cond and does not bound or reject a while.
func (fc *fnCtx) emitWhile(scope *env, s parser.WhileStmt) error {
	e := fc.e

	if _, err := fc.emitExpr(scope, s.Cond); err != nil {
		return err
	}

	e.emit(If{})

	if err := fc.emitBlock(scope, s.Body); err != nil {
		return err
	}

	e.emit(EndIf{})

	return nil
}

