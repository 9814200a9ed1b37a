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

package diagnostic

import (
	"fmt"
	"strings"
)

// Code classifies a Diagnostic into the error taxonomy of spec.md §7. Each
// stage of the pipeline raises diagnostics from exactly one of these
// families.
type Code string

// The error taxonomy. Families are grouped by pipeline stage; within a
// stage, codes are deliberately specific so that a test can assert on
// `diag.Code` rather than parsing `diag.Message`.
const (
	// File errors.
	CodeFileNotFound  Code = "FileNotFound"
	CodeFileUnreadable Code = "FileUnreadable"

	// Lexical errors.
	CodeUnterminatedComment Code = "UnterminatedComment"
	CodeUnterminatedString  Code = "UnterminatedString"
	CodeInvalidCharacter    Code = "InvalidCharacter"
	CodeUnexpectedEOF       Code = "UnexpectedEOF"
	CodeInvalidDigit        Code = "InvalidDigit"

	// Syntax errors.
	CodeExpectedOneOf Code = "ExpectedOneOf"

	// Semantic errors (largest family).
	CodeOperatorOperandMismatch        Code = "OperatorOperandMismatch"
	CodeUndeclaredItem                 Code = "UndeclaredItem"
	CodeRedeclaredItem                 Code = "RedeclaredItem"
	CodeItemIsNotNamespace              Code = "ItemIsNotNamespace"
	CodeMatchNotExhaustive               Code = "MatchNotExhaustive"
	CodeMatchDuplicatePattern            Code = "MatchDuplicatePattern"
	CodeMatchUnreachableBranch           Code = "MatchUnreachableBranch"
	CodeOverflowAddition                 Code = "OverflowAddition"
	CodeOverflowSubtraction              Code = "OverflowSubtraction"
	CodeOverflowMultiplication           Code = "OverflowMultiplication"
	CodeOverflowCasting                  Code = "OverflowCasting"
	CodeOverflowNegation                 Code = "OverflowNegation"
	CodeDivisionByZeroConst              Code = "DivisionByZeroConst"
	CodeConditionalBranchTypesMismatch   Code = "ConditionalBranchTypesMismatch"
	CodeConditionalExpectedBooleanCondition Code = "ConditionalExpectedBooleanCondition"
	CodeStructureFieldMismatch           Code = "StructureFieldMismatch"
	CodeFunctionArgumentMismatch         Code = "FunctionArgumentMismatch"
	CodeReturnTypeMismatch               Code = "ReturnTypeMismatch"
	CodeInvalidCast                      Code = "InvalidCast"
	CodeInvalidSelfPosition              Code = "InvalidSelfPosition"
	CodeNarrowingCastRejected            Code = "NarrowingCastRejected"
	CodeNonConstantLoopBound             Code = "NonConstantLoopBound"
	CodeNonConstantShiftAmount           Code = "NonConstantShiftAmount"

	// Bytecode errors.
	CodeMalformedBytecode Code = "MalformedBytecode"
	CodeIndexOutOfRange   Code = "IndexOutOfRange"
	CodeStackUnderflow    Code = "StackUnderflow"
	CodeFrameMismatch     Code = "FrameMismatch"

	// Runtime (VM) errors.
	CodeAssertionError      Code = "AssertionError"
	CodeDivisionByZero      Code = "DivisionByZero"
	CodeValueOverflow       Code = "ValueOverflow"
	CodeUnsatisfiedConstraint Code = "UnsatisfiedConstraint"
	CodeSynthesisError      Code = "SynthesisError"

	// Wire-format errors.
	CodeInvalidInput Code = "InvalidInput"
)

// Diagnostic is a structured compiler error. It is produced as a value
// first (per spec.md §4.5: "errors are produced as structured values first
// and formatted only at the system boundary") and only rendered to text by
// the Render function in render.go.
type Diagnostic struct {
	Code    Code
	At      Location
	Message string
	// Reference, if non-nil, points to a "see also" location, e.g. a
	// previous declaration or the declared return type.
	Reference        *Location
	ReferenceMessage string
	// Help is an optional one-line suggestion appended to the report.
	Help string
}

// New constructs a Diagnostic with no reference location.
func New(code Code, at Location, message string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, At: at, Message: fmt.Sprintf(message, args...)}
}

// WithReference attaches a "see also" location to a diagnostic.
func (d *Diagnostic) WithReference(at Location, message string, args ...any) *Diagnostic {
	ref := at
	d.Reference = &ref
	d.ReferenceMessage = fmt.Sprintf(message, args...)

	return d
}

// WithHelp attaches a help hint to a diagnostic.
func (d *Diagnostic) WithHelp(help string, args ...any) *Diagnostic {
	d.Help = fmt.Sprintf(help, args...)
	return d
}

// Error implements the standard error interface with an unadorned,
// single-line rendering; use Render (render.go) for the full multi-line,
// optionally colored report.
func (d *Diagnostic) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s: %s", d.At, d.Code, d.Message)

	if d.Reference != nil {
		fmt.Fprintf(&b, " (see also %s: %s)", *d.Reference, d.ReferenceMessage)
	}

	return b.String()
}
