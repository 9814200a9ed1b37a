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

// Package sema implements Zinc's semantic analyzer (S): scoped symbol
// resolution, type checking, constant folding, and match exhaustiveness.
// It turns a parser.Program into a typed Program the bytecode emitter (G)
// can lower without re-deriving any of these decisions.
//
// Grounded on go-corset's pkg/corset/compiler: a declaration-kind-dispatch
// type checker (typing.go) built over a scope tree (scope.go), adapted here
// to Zinc's much smaller, non-generic type system and single-file module
// model.
package sema

import (
	"go.uber.org/multierr"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

// Analyzer drives semantic analysis of a single compilation unit. A fresh
// Analyzer should be constructed per program: it owns the root Scope and
// therefore the monotonic type-id assignments made while processing it.
type Analyzer struct {
	root *ast.Scope
	// functions maps a function's unique id to its typed body, populated as
	// each fn declaration is checked. AnalyzeProgram hands the emitter (G)
	// these bodies as the Program.Functions slice, in `order`.
	functions map[uint64]*Function
	// order preserves declaration order for deterministic emission (§5:
	// "this forbids iteration over unordered containers during emission").
	order []uint64
	// constVals retains the folded value of every const/static declaration,
	// keyed by its declaration site, so a later reference can be folded
	// further (array sizes, range bounds, match patterns) without
	// re-walking the declaring scope to find which Scope originally bound
	// it (ast.Scope.Resolve does not expose that).
	constVals map[diagnostic.Location]ast.Constant
	// currentReturn/currentReturnAt track the declared return type of the
	// function body currently being checked, consulted by every `return`
	// statement within it (stmt.go's checkReturn).
	currentReturn   ast.Type
	currentReturnAt diagnostic.Location
}

// Function is a fully type-checked function: its signature (already
// recorded in the owning Scope's Item) plus its checked body. ParamNames
// is retained alongside Sig.Parameters (which carries only resolved
// types, no names) purely so the bytecode emitter (G) can re-derive a
// parameter's stack slot from its source name when it re-walks Body.Source.
type Function struct {
	Name       string
	UniqueID   uint64
	Variant    ast.FunctionVariant
	Sig        ast.FunctionSignature
	ParamNames []string
	Body       *Block
	HasSelf    bool
}

// New constructs an Analyzer with a fresh root scope.
func New() *Analyzer {
	a := &Analyzer{
		root:      ast.NewScope(nil, "<root>"),
		functions: make(map[uint64]*Function),
		constVals: make(map[diagnostic.Location]ast.Constant),
	}

	registerStandardLibrary(a.root)

	return a
}

// Program is the complete output of semantic analysis: the root scope
// (carrying every resolved struct/enum/function shape, consulted again by
// the bytecode emitter (G) when it re-walks a function's raw parser.Block
// to resolve names, per spec.md §2's "AST -> typed AST + symbol tables")
// plus every checked function body, in declaration order.
type Program struct {
	Root      *ast.Scope
	Functions []*Function
	// ConstVals is the folded value of every const/static declaration,
	// keyed by its declaration site (ast.Item.DeclaredAt), letting the
	// bytecode emitter (G) recover a global's compile-time value without
	// re-running constant folding.
	ConstVals map[diagnostic.Location]ast.Constant
}

// AnalyzeProgram type-checks an entire parsed program, returning the
// resolved Program or the accumulated errors. Checking a single top-level
// item stops at its first error, but each top-level declaration is
// checked independently and their errors are collected with multierr so
// one bad function doesn't hide errors in the next.
func AnalyzeProgram(prog *parser.Program) (*Program, error) {
	a := New()

	var errs error

	// Pass 1: declare every top-level name's *shape* (struct/enum fields,
	// function signatures) before checking any body, so forward references
	// and mutual recursion resolve.
	for _, d := range prog.Declarations {
		if err := a.declareShape(a.root, d); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	// Pass 2: check bodies against the now-complete top-level scope.
	for _, d := range prog.Declarations {
		if err := a.checkBody(a.root, d); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		return nil, errs
	}

	fns := make([]*Function, 0, len(a.order))
	for _, id := range a.order {
		fns = append(fns, a.functions[id])
	}

	return &Program{Root: a.root, Functions: fns, ConstVals: a.constVals}, nil
}

// requireBoolean checks e has Boolean type, used by if/while/assert/match
// guard positions throughout stmt.go.
func requireBoolean(at diagnostic.Location, what string, t ast.Type) error {
	if _, ok := t.(ast.Boolean); ok {
		return nil
	}

	return diagnostic.New(diagnostic.CodeConditionalExpectedBooleanCondition, at,
		"%s must be a boolean, found %s", what, t.String())
}
