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

// Package diagnostic provides source locations and structured, renderable
// compiler errors shared by every stage of the Zinc pipeline.
package diagnostic

import "fmt"

// Location identifies a single position within a source file: the file it
// came from, and the 1-based line/column within that file.
type Location struct {
	File   string
	Line   uint
	Column uint
}

// String renders a location as "file:line:column".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsZero reports whether this location was never set.
func (l Location) IsZero() bool {
	return l.Line == 0 && l.Column == 0
}

// Span is a contiguous rune range `[Start,End)` within a Source's rune
// buffer, used to slice out the offending text when rendering a diagnostic.
type Span struct {
	Start uint
	End   uint
}

// Length returns the number of runes covered by this span.
func (s Span) Length() uint {
	return s.End - s.Start
}
