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
	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/ast"
)

// resolveGlobal resolves a path operand (e.g. `Counter::LIMIT`, or a bare
// top-level name) against the scope S already built, reusing
// ast.Scope.ResolvePath rather than re-implementing namespace walking.
// The zero diagnostic.Location is fine here: S has already validated
// every path in the program resolves, so any error surfacing from this
// call is an emitter bug, not a user-facing diagnostic.
func (e *Emitter) resolveGlobal(path []string) (ast.Item, error) {
	return e.prog.Root.ResolvePath(diagnostic.Location{}, path)
}

// globalSlotFor assigns (or recalls) the StoreGlobal/LoadGlobal data-stack
// slot backing a `static` item, identified by its declaration site so
// that two different statics named the same locally (e.g. inside two
// different `impl` namespaces) never collide.
func (e *Emitter) globalSlotFor(name string, item ast.Item) (localSlot, error) {
	if s, ok := e.globalsByKey[name]; ok {
		return s, nil
	}

	width := item.Type.Width()
	slot := localSlot{index: e.nextGlobal, width: width, typ: item.Type}
	e.nextGlobal += width
	e.globalsByKey[name] = slot

	return slot, nil
}
