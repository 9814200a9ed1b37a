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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

func tokenKinds(t *testing.T, src string) []Kind {
	t.Helper()

	toks, err := Tokenize(diagnostic.NewSource("test.zn", []byte(src)))
	require.NoError(t, err)

	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}

	return kinds
}

func TestLexSimpleFunction(t *testing.T) {
	kinds := tokenKinds(t, `fn main() -> u8 { if true { 42 } else { 69 } }`)
	assert.Equal(t, []Kind{
		KwFn, Ident, LParen, RParen, Arrow, Ident, LBrace,
		KwIf, True, LBrace, IntLiteral, RBrace,
		KwElse, LBrace, IntLiteral, RBrace, RBrace, EOF,
	}, kinds)
}

func TestLexNumericLiteralsWithSeparators(t *testing.T) {
	toks, err := Tokenize(diagnostic.NewSource("t.zn", []byte("0b1010_1111 0o17 0xFF_00 1_000_000")))
	require.NoError(t, err)

	var texts []string
	for _, tok := range toks {
		if tok.Kind == IntLiteral {
			texts = append(texts, tok.Text)
		}
	}

	assert.Equal(t, []string{"0b10101111", "0o17", "0xFF00", "1000000"}, texts)
}

func TestLexInvalidDigitInHex(t *testing.T) {
	_, err := Tokenize(diagnostic.NewSource("t.zn", []byte("0xFG")))
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeInvalidDigit, diag.Code)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Tokenize(diagnostic.NewSource("t.zn", []byte(`"hello`)))
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeUnterminatedString, diag.Code)
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, err := Tokenize(diagnostic.NewSource("t.zn", []byte(`/* never closes`)))
	require.Error(t, err)

	diag := err.(*diagnostic.Diagnostic)
	assert.Equal(t, diagnostic.CodeUnterminatedComment, diag.Code)
}

func TestLexOperatorsLongestMatchFirst(t *testing.T) {
	toks, err := Tokenize(diagnostic.NewSource("t.zn", []byte("..= .. <<= << <= <")))
	require.NoError(t, err)

	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind != EOF {
			kinds = append(kinds, tok.Kind)
		}
	}

	assert.Equal(t, []Kind{DotDotEq, DotDot, ShlEq, Shl, Le, Lt}, kinds)
}

func TestLexLocationsTrackLineColumn(t *testing.T) {
	toks, err := Tokenize(diagnostic.NewSource("t.zn", []byte("let x\n  = 1;")))
	require.NoError(t, err)

	// `=` is on line 2, column 3.
	for _, tok := range toks {
		if tok.Kind == Assign {
			assert.Equal(t, uint(2), tok.At.Line)
			assert.Equal(t, uint(3), tok.At.Column)

			return
		}
	}

	t.Fatal("assign token not found")
}
