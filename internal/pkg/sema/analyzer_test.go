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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/parser"
)

func analyze(t *testing.T, src string) ([]*Function, error) {
	t.Helper()

	prog, err := parser.Parse(diagnostic.NewSource("test.zn", []byte(src)))
	require.NoError(t, err, "parse failed")

	out, err := AnalyzeProgram(prog)
	if err != nil {
		return nil, err
	}

	return out.Functions, nil
}

func firstDiag(t *testing.T, err error) *diagnostic.Diagnostic {
	t.Helper()

	if d, ok := err.(*diagnostic.Diagnostic); ok {
		return d
	}

	// multierr accumulates *diagnostic.Diagnostic values; unwrap the first.
	for _, e := range unwrapMulti(err) {
		if d, ok := e.(*diagnostic.Diagnostic); ok {
			return d
		}
	}

	t.Fatalf("expected a *diagnostic.Diagnostic, got %T: %v", err, err)

	return nil
}

func unwrapMulti(err error) []error {
	type multi interface{ Errors() []error }
	if m, ok := err.(multi); ok {
		return m.Errors()
	}

	return []error{err}
}

func TestAnalyzeSimpleFunction(t *testing.T) {
	fns, err := analyze(t, `
		fn add(a: u32, b: u32) -> u32 {
			a + b
		}
	`)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, "add", fns[0].Name)
}

func TestAnalyzeUntypedLiteralWidensToParameterType(t *testing.T) {
	_, err := analyze(t, `
		fn identity(x: u8) -> u8 {
			x
		}

		fn use_it() -> u8 {
			identity(5)
		}
	`)
	require.NoError(t, err)
}

func TestAnalyzeReturnTypeMismatch(t *testing.T) {
	_, err := analyze(t, `
		fn bad() -> u8 {
			true
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeReturnTypeMismatch, firstDiag(t, err).Code)
}

func TestAnalyzeOverflowingAddition(t *testing.T) {
	_, err := analyze(t, `
		fn overflow() -> u8 {
			const x: u8 = 250;
			const y: u8 = 250;
			x + y
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeOverflowAddition, firstDiag(t, err).Code)
}

func TestAnalyzeDivisionByZeroConst(t *testing.T) {
	_, err := analyze(t, `
		const X: u32 = 1 / 0;
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeDivisionByZeroConst, firstDiag(t, err).Code)
}

func TestAnalyzeIfElseUnitBranches(t *testing.T) {
	_, err := analyze(t, `
		fn f(c: bool) {
			if c {
				let x: u8 = 1;
			} else {
				let y: u32 = 1;
				y;
			}
		}
	`)
	// Both branches are Unit-typed statement blocks (no tail), so this
	// should actually succeed; kept as a baseline "if/else with no tail
	// values" sanity check.
	require.NoError(t, err)
}

func TestAnalyzeMatchNotExhaustive(t *testing.T) {
	_, err := analyze(t, `
		fn f(x: u8) -> u8 {
			match x {
				0 => 1,
				1 => 2,
			}
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeMatchNotExhaustive, firstDiag(t, err).Code)
}

func TestAnalyzeMatchWithWildcardIsExhaustive(t *testing.T) {
	_, err := analyze(t, `
		fn f(x: u8) -> u8 {
			match x {
				0 => 1,
				_ => 2,
			}
		}
	`)
	require.NoError(t, err)
}

func TestAnalyzeMatchDuplicatePattern(t *testing.T) {
	_, err := analyze(t, `
		fn f(x: bool) -> u8 {
			match x {
				true => 1,
				true => 2,
				false => 3,
			}
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeMatchDuplicatePattern, firstDiag(t, err).Code)
}

func TestAnalyzeForLoopRequiresConstantRange(t *testing.T) {
	_, err := analyze(t, `
		fn f(n: u32) {
			for i in 0..n {
				dbg!("{}", i);
			}
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeNonConstantLoopBound, firstDiag(t, err).Code)
}

func TestAnalyzeForLoopOverConstantRange(t *testing.T) {
	_, err := analyze(t, `
		fn f() -> u32 {
			let mut total: u32 = 0;
			for i in 0..4 {
				total += 1;
			}
			total
		}
	`)
	require.NoError(t, err)
}

func TestAnalyzeStructFieldAccess(t *testing.T) {
	fns, err := analyze(t, `
		struct Point {
			x: u32,
			y: u32,
		}

		fn sum(p: Point) -> u32 {
			p.x + p.y
		}
	`)
	require.NoError(t, err)
	require.Len(t, fns, 1)
}

func TestAnalyzeStructFieldMismatch(t *testing.T) {
	_, err := analyze(t, `
		struct Point {
			x: u32,
		}

		fn bad(p: Point) -> u32 {
			p.z
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeStructureFieldMismatch, firstDiag(t, err).Code)
}

func TestAnalyzeEnumVariantConstant(t *testing.T) {
	_, err := analyze(t, `
		enum Color {
			Red,
			Green,
			Blue,
		}

		fn f() -> Color {
			Color::Green
		}
	`)
	require.NoError(t, err)
}

func TestAnalyzeImplMethodCall(t *testing.T) {
	_, err := analyze(t, `
		struct Point {
			x: u32,
			y: u32,
		}

		impl Point {
			fn sum(self) -> u32 {
				self.x + self.y
			}
		}

		fn f(p: Point) -> u32 {
			Point::sum(p)
		}
	`)
	require.NoError(t, err)
}

func TestAnalyzeNarrowingCastRejected(t *testing.T) {
	_, err := analyze(t, `
		fn bad(x: u32) -> u8 {
			x as u8
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeNarrowingCastRejected, firstDiag(t, err).Code)
}

func TestAnalyzeAssignToImmutableRejected(t *testing.T) {
	_, err := analyze(t, `
		fn bad() {
			let x: u8 = 1;
			x = 2;
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeOperatorOperandMismatch, firstDiag(t, err).Code)
}

func TestAnalyzeFieldArithmeticRejectsSubtraction(t *testing.T) {
	_, err := analyze(t, `
		fn bad(a: field, b: field) -> field {
			a - b
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeOperatorOperandMismatch, firstDiag(t, err).Code)
}

func TestAnalyzeStandardLibraryCallResolves(t *testing.T) {
	fns, err := analyze(t, `
		fn digest(x: field) -> field {
			std::crypto::blake2s(x)
		}

		fn inv(x: field) -> field {
			std::ff::invert(x)
		}
	`)
	require.NoError(t, err)
	require.Len(t, fns, 2)
}

func TestAnalyzeStandardLibraryCallArgumentMismatch(t *testing.T) {
	_, err := analyze(t, `
		fn bad(x: field, y: field) -> field {
			std::crypto::blake2s(x, y)
		}
	`)
	require.Error(t, err)
	assert.Equal(t, diagnostic.CodeFunctionArgumentMismatch, firstDiag(t, err).Code)
}
