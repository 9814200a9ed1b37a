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

import "strings"

// isIdentStart reports whether r can begin an identifier or keyword.
func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isIdentContinue reports whether r can continue an identifier.
func isIdentContinue(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// isDecimalDigit reports whether r is 0-9.
func isDecimalDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// digitAlphabets gives each recognized numeric-literal base its allowed
// digit alphabet, for the "digit not in the expected alphabet" lexical
// error (spec.md §4.1/§7).
var digitAlphabets = map[rune]string{
	'b': "01",
	'o': "01234567",
	'x': "0123456789abcdefABCDEF",
}

// isDigitInBase reports whether r is a valid digit for the given base
// prefix rune ('b', 'o', 'x'), or decimal if prefix is 0.
func isDigitInBase(prefix, r rune) bool {
	if prefix == 0 {
		return isDecimalDigit(r)
	}

	return strings.ContainsRune(digitAlphabets[prefix], r)
}

// alphabetDescription renders the expected-alphabet set for an error
// message, e.g. "0-1" for binary, "0-9, a-f, A-F" for hex.
func alphabetDescription(prefix rune) string {
	switch prefix {
	case 'b':
		return "0-1"
	case 'o':
		return "0-7"
	case 'x':
		return "0-9, a-f, A-F"
	default:
		return "0-9"
	}
}
