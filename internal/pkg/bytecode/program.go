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

import "github.com/zinc-lang/zinc/internal/pkg/ast"

// Program is the complete output of the emitter (G): a flat instruction
// vector addressable by zero-based index, plus the header fields spec.md
// §6 requires a serialized bytecode file to carry.
type Program struct {
	Instructions []Instruction
	// Functions maps a function's unique id (ast.Function.UniqueID) to
	// its address, the zero-based instruction index execution jumps to
	// on Call.
	Functions map[uint64]uint64
	// EntryPoint is the address of the function Emit was given by name
	// (`main` for circuits); Functions itself is keyed by unique id, not
	// by name.
	EntryPoint uint64
	// InputType/OutputType/StorageType are the descriptors the wire codec
	// (internal/pkg/wire) uses to build an input template and validate a
	// public output (spec.md §6). StorageType is nil for circuits.
	InputType   ast.Type
	OutputType  ast.Type
	StorageType ast.Type
}
