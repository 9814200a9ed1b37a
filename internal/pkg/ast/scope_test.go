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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

func TestDeclareAndResolve(t *testing.T) {
	root := NewScope(nil, "")

	err := root.Declare("x", Item{Kind: ItemVariable, Type: IntegerUnsigned{8}})
	require.NoError(t, err)

	item, ok := root.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, IntegerUnsigned{8}, item.Type)
}

func TestRedeclarationRejected(t *testing.T) {
	root := NewScope(nil, "")

	require.NoError(t, root.Declare("x", Item{Kind: ItemVariable, Type: Boolean{}}))

	err := root.Declare("x", Item{Kind: ItemVariable, Type: Boolean{}})
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeRedeclaredItem, diag.Code)
	assert.NotNil(t, diag.Reference, "redeclaration must reference the earlier declaration")
}

func TestChildScopeResolvesParent(t *testing.T) {
	root := NewScope(nil, "")
	require.NoError(t, root.Declare("x", Item{Kind: ItemVariable, Type: Boolean{}}))

	child := NewScope(root, "block")

	_, ok := child.Resolve("x")
	assert.True(t, ok, "child scope should see parent bindings")

	_, ok = child.ResolveLocal("x")
	assert.False(t, ok, "ResolveLocal must not walk to the parent")
}

func TestResolvePathThroughNamespace(t *testing.T) {
	root := NewScope(nil, "")
	modScope := NewScope(root, "m")
	require.NoError(t, modScope.Declare("empty", Item{Kind: ItemType, Type: Unit{}}))
	require.NoError(t, root.Declare("m", Item{Kind: ItemModule, Namespace: modScope}))

	item, err := root.ResolvePath(diagnostic.Location{}, []string{"m", "empty"})
	require.NoError(t, err)
	assert.Equal(t, Unit{}, item.Type)

	_, err = root.ResolvePath(diagnostic.Location{}, []string{"m", "empty", "nope"})
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeItemIsNotNamespace, diag.Code)
}
