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
	"strings"

	"github.com/zinc-lang/zinc/internal/diagnostic"
)

// Lexer converts one source file's rune buffer into a Token stream,
// stopping at the first lexical error encountered (spec.md §7: "Lexical
// ... errors are fatal at their stage").
type Lexer struct {
	src    *diagnostic.Source
	runes  []rune
	pos    uint
	line   uint
	column uint
}

// New constructs a Lexer over src.
func New(src *diagnostic.Source) *Lexer {
	return &Lexer{src: src, runes: src.Contents(), line: 1, column: 1}
}

// Tokenize scans the entire source, returning its full Token stream (with
// a trailing EOF token) or the first lexical error.
func Tokenize(src *diagnostic.Source) ([]Token, error) {
	l := New(src)

	var tokens []Token

	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, tok)

		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) here() diagnostic.Location {
	return diagnostic.Location{File: l.src.Name(), Line: l.line, Column: l.column}
}

func (l *Lexer) peek() rune {
	if l.pos >= uint(len(l.runes)) {
		return 0
	}

	return l.runes[l.pos]
}

func (l *Lexer) peekAt(off uint) rune {
	if l.pos+off >= uint(len(l.runes)) {
		return 0
	}

	return l.runes[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.runes[l.pos]
	l.pos++

	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	return r
}

func (l *Lexer) eof() bool {
	return l.pos >= uint(len(l.runes))
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}

	at := l.here()

	if l.eof() {
		return Token{Kind: EOF, At: at}, nil
	}

	r := l.peek()

	switch {
	case isIdentStart(r):
		return l.scanIdentOrKeyword(at)
	case isDecimalDigit(r):
		return l.scanNumber(at)
	case r == '"':
		return l.scanString(at)
	default:
		return l.scanOperator(at)
	}
}

// skipTrivia consumes whitespace and comments; block comments that never
// close are an UnterminatedComment lexical error.
func (l *Lexer) skipTrivia() error {
	for !l.eof() {
		r := l.peek()

		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			at := l.here()
			l.advance()
			l.advance()

			closed := false

			for !l.eof() {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()

					closed = true

					break
				}

				l.advance()
			}

			if !closed {
				return diagnostic.New(diagnostic.CodeUnterminatedComment, at, "unterminated block comment")
			}
		default:
			return nil
		}
	}

	return nil
}

func (l *Lexer) scanIdentOrKeyword(at diagnostic.Location) (Token, error) {
	start := l.pos

	for !l.eof() && isIdentContinue(l.peek()) {
		l.advance()
	}

	text := string(l.runes[start:l.pos])

	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Text: text, At: at}, nil
	}

	return Token{Kind: Ident, Text: text, At: at}, nil
}

// scanNumber handles decimal/binary/octal/hexadecimal integer literals
// with `_` digit separators (spec.md §4.1). The returned Token.Text is the
// literal with separators stripped and (for non-decimal bases) the base
// prefix retained, so the parser can feed it directly to (*big.Int).SetString.
func (l *Lexer) scanNumber(at diagnostic.Location) (Token, error) {
	var prefix rune // 0 for decimal, else 'b'/'o'/'x'

	start := l.pos

	if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'o' || l.peekAt(1) == 'x') {
		prefix = l.peekAt(1)
		l.advance()
		l.advance()
	}

	var b strings.Builder

	sawDigit := false

	for !l.eof() {
		r := l.peek()

		if r == '_' {
			l.advance()
			continue
		}

		if isDigitInBase(prefix, r) {
			b.WriteRune(r)
			sawDigit = true
			l.advance()

			continue
		}

		if isIdentContinue(r) {
			// Something from an unexpected alphabet directly following
			// digits, e.g. `0x1g` or `12abc`.
			return Token{}, diagnostic.New(diagnostic.CodeInvalidDigit, l.here(),
				"invalid digit %q in numeric literal; expected %s", string(r), alphabetDescription(prefix))
		}

		break
	}

	if !sawDigit {
		return Token{}, diagnostic.New(diagnostic.CodeInvalidDigit, at,
			"numeric literal has no digits")
	}

	_ = start

	text := b.String()
	if prefix != 0 {
		text = "0" + string(prefix) + text
	}

	return Token{Kind: IntLiteral, Text: text, At: at}, nil
}

// scanString scans a compile-time-only string literal (spec.md §4.1:
// "String literals are compile-time-only values and cannot appear in
// runtime expressions" — that restriction is enforced at S, not here).
func (l *Lexer) scanString(at diagnostic.Location) (Token, error) {
	l.advance() // opening quote

	var b strings.Builder

	for {
		if l.eof() {
			return Token{}, diagnostic.New(diagnostic.CodeUnterminatedString, at, "unterminated string literal")
		}

		r := l.advance()

		if r == '"' {
			return Token{Kind: StringLiteral, Text: b.String(), At: at}, nil
		}

		if r == '\\' {
			if l.eof() {
				return Token{}, diagnostic.New(diagnostic.CodeUnterminatedString, at, "unterminated string literal")
			}

			esc := l.advance()

			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '"':
				b.WriteRune('"')
			case '\\':
				b.WriteRune('\\')
			default:
				return Token{}, diagnostic.New(diagnostic.CodeInvalidCharacter, l.here(),
					"invalid escape sequence \\%c", esc)
			}

			continue
		}

		b.WriteRune(r)
	}
}

// operators lists multi-character operators longest-match-first so e.g.
// `..=` is not mis-lexed as `..` followed by `=`.
var operators = []struct {
	text string
	kind Kind
}{
	{"<<=", ShlEq}, {">>=", ShrEq}, {"..=", DotDotEq},
	{"==", EqEq}, {"!=", NotEq}, {"<=", Le}, {">=", Ge},
	{"&&", AndAnd}, {"||", OrOr}, {"^^", XorXor},
	{"<<", Shl}, {">>", Shr}, {"..", DotDot}, {"::", ColonColon},
	{"->", Arrow}, {"=>", FatArrow},
	{"+=", PlusEq}, {"-=", MinusEq}, {"*=", StarEq}, {"/=", SlashEq},
	{"%=", PercentEq}, {"|=", PipeEq}, {"^=", CaretEq}, {"&=", AmpEq},
	{"=", Assign}, {"<", Lt}, {">", Gt}, {"!", Not},
	{"&", Amp}, {"|", Pipe}, {"^", Caret}, {"~", Tilde},
	{"+", Plus}, {"-", Minus}, {"*", Star}, {"/", Slash}, {"%", Percent},
	{".", Dot}, {":", Colon}, {",", Comma}, {";", Semicolon},
	{"(", LParen}, {")", RParen}, {"{", LBrace}, {"}", RBrace},
	{"[", LBracket}, {"]", RBracket},
}

func (l *Lexer) scanOperator(at diagnostic.Location) (Token, error) {
	remaining := string(l.runes[l.pos:min(l.pos+3, uint(len(l.runes)))])

	for _, op := range operators {
		if strings.HasPrefix(remaining, op.text) {
			for range op.text {
				l.advance()
			}

			return Token{Kind: op.kind, Text: op.text, At: at}, nil
		}
	}

	bad := l.advance()

	return Token{}, diagnostic.New(diagnostic.CodeInvalidCharacter, at, "invalid character %q", string(bad))
}
