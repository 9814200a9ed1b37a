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

import "github.com/zinc-lang/zinc/internal/pkg/ast"

// registerStandardLibrary declares the fixed `std::...` namespace (spec.md
// §9 "Supplemented Features"): a nested module scope per
// original_source/ namespace, each member a StandardLibrary-variant
// ast.Function that the bytecode emitter (internal/pkg/bytecode/places.go)
// lowers directly to a LibCall instead of an ordinary user Call.
//
// Grounded on go-corset's pkg/corset/compiler/natives.go and
// intrinsics.go, which resolve a closed set of built-in/intrinsic names
// into typed signatures the same way, ahead of type-checking any call
// site against them.
//
// std::array::pad/truncate/reverse and the variadic
// std::crypto::blake2s_multi/pedersen are implemented as VM-level LibCall
// gadgets (internal/pkg/vm/gadgets, internal/pkg/vm/dispatch.go,
// already built and tested) but are deliberately not declared here: each
// one's result type depends on a compile-time array length that isn't
// one of its scalar arguments (e.g. pad's target length fixes its
// return array's Size), and spec.md's type system has no mechanism to
// express a signature whose return type depends on a value rather than
// being fixed at declaration. Exposing them as ordinary `std::` calls
// would need a form of dependent or generic typing this spec doesn't
// have; recorded as an open question rather than wired around silently.
func registerStandardLibrary(root *ast.Scope) {
	std := ast.NewScope(root, "std")
	_ = root.Declare("std", ast.Item{Kind: ast.ItemModule, Namespace: std})

	crypto := ast.NewScope(std, "std::crypto")
	_ = std.Declare("crypto", ast.Item{Kind: ast.ItemModule, Namespace: crypto})

	ff := ast.NewScope(std, "std::ff")
	_ = std.Declare("ff", ast.Item{Kind: ast.ItemModule, Namespace: ff})

	declareNative(crypto, "blake2s", ast.FunctionSignature{
		Parameters: []ast.Type{ast.Field{}},
		Return:     ast.Field{},
	})
	declareNative(crypto, "sha256", ast.FunctionSignature{
		Parameters: []ast.Type{ast.Field{}},
		Return:     ast.Field{},
	})
	declareNative(crypto, "schnorr_verify", ast.FunctionSignature{
		Parameters: []ast.Type{ast.Field{}, ast.Field{}, ast.Field{}, ast.Field{}},
		Return:     ast.Boolean{},
	})
	declareNative(ff, "invert", ast.FunctionSignature{
		Parameters: []ast.Type{ast.Field{}},
		Return:     ast.Field{},
	})
}

// declareNative binds name within scope to a fresh StandardLibrary
// Function of the given signature. Natives have no source location, so
// DeclaredAt is left zero; nothing ever produces a "previous declaration"
// reference against one since the fixed namespace below never
// redeclares a name against itself.
func declareNative(scope *ast.Scope, name string, sig ast.FunctionSignature) {
	fn := ast.Function{Identifier: name, UniqueID: ast.NextUniqueID(), Variant: ast.StandardLibrary, Signature: sig}
	_ = scope.Declare(name, ast.Item{Kind: ast.ItemConstant, Type: fn})
}
