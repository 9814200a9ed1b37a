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
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Renderer produces the multi-line, optionally ANSI-colored diagnostic
// reports described in spec.md §6 ("Diagnostic text"): `error:`, a
// ` --> file:line:column` pointer, the offending source line, a caret
// underline, and an optional `help:` line. Colorization is disabled
// automatically when stdout is not a terminal, mirroring the
// `term.IsTerminal` check go-corset performs before entering its
// interactive terminal views.
type Renderer struct {
	color bool
	errTag,
	arrowTag,
	helpTag *color.Color
}

// NewRenderer constructs a Renderer. When forceColor is nil, colorization
// follows whether os.Stdout is attached to a terminal; pass a non-nil bool
// to override that detection (useful for tests, which always want
// deterministic plain-text output).
func NewRenderer(forceColor *bool) *Renderer {
	enabled := term.IsTerminal(int(os.Stdout.Fd()))
	if forceColor != nil {
		enabled = *forceColor
	}

	r := &Renderer{
		color:    enabled,
		errTag:   color.New(color.FgRed, color.Bold),
		arrowTag: color.New(color.FgBlue, color.Bold),
		helpTag:  color.New(color.FgGreen, color.Bold),
	}
	r.errTag.EnableColor()
	r.arrowTag.EnableColor()
	r.helpTag.EnableColor()

	if !enabled {
		r.errTag.DisableColor()
		r.arrowTag.DisableColor()
		r.helpTag.DisableColor()
	}

	return r
}

// Render formats a Diagnostic against its source file into the stable,
// multi-line diagnostic format.
func (r *Renderer) Render(d *Diagnostic, src *Source) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", r.errTag.Sprint("error:"), d.Message)
	fmt.Fprintf(&b, "%s %s\n", r.arrowTag.Sprint("   -->"), d.At)

	if src != nil {
		r.renderSnippet(&b, src, d.At)
	}

	if d.Reference != nil {
		fmt.Fprintf(&b, "%s %s: %s\n", r.arrowTag.Sprint("   -->"), *d.Reference, d.ReferenceMessage)
	}

	if d.Help != "" {
		fmt.Fprintf(&b, "%s %s\n", r.helpTag.Sprint("help:"), d.Help)
	}

	return b.String()
}

func (r *Renderer) renderSnippet(b *strings.Builder, src *Source, at Location) {
	line := src.lineAt(at.Line)
	fmt.Fprintf(b, "%4d | %s\n", at.Line, line)

	pad := strings.Repeat(" ", int(at.Column)-1)
	fmt.Fprintf(b, "     | %s%s\n", pad, r.errTag.Sprint("^"))
}

// lineAt returns the text of the given 1-based line number.
func (s *Source) lineAt(number uint) string {
	lineNo := uint(1)
	start := 0

	for i, r := range s.contents {
		if lineNo == number && r == '\n' {
			return string(s.contents[start:i])
		} else if r == '\n' {
			lineNo++
			start = i + 1
		}
	}

	if lineNo == number {
		return string(s.contents[start:])
	}

	return ""
}
