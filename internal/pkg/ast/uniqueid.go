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

package ast

import "go.uber.org/atomic"

// typeCounter is the single monotonically increasing type index required
// by spec.md §5: "a single monotonically increasing type index maps each
// newly declared composite type to a unique id; it is initialized empty at
// compile start and is the only mutable global — its updates are
// sequential and must happen-before any lookup of the newly-assigned id."
// go.uber.org/atomic gives us that happens-before guarantee without
// reaching for a mutex, and forbids the counter ever being read/written
// as a plain int that could tear under -race.
var typeCounter atomic.Uint64

// NextUniqueID allocates and returns the next globally unique type id.
// IDs start at 1 so that 0 can be used as a "no id assigned" sentinel.
func NextUniqueID() uint64 {
	return typeCounter.Add(1)
}

// ResetUniqueIDs rewinds the counter to zero. Only ever called at the
// start of a fresh compilation (e.g. between independent test cases); it
// must never be called concurrently with NextUniqueID.
func ResetUniqueIDs() {
	typeCounter.Store(0)
}
