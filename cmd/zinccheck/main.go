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

// Command zinccheck is a smoke-test driver for a compiled Zinc bytecode
// program: it loads a .zbin file, decodes a JSON input witness against
// the program's declared input shape, runs it through the VM, checks the
// resulting constraint system is satisfied, and prints the JSON-encoded
// public output.
//
// This is deliberately not a full CLI product (spec.md §1 places the
// `debug`/`build`/`run`/`test` binaries out of scope): a single flag set,
// no subcommands, stdlib `flag` rather than go-corset's cobra stack (see
// DESIGN.md for that dependency's drop justification).
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/zinc-lang/zinc/internal/pkg/bytecode/binfile"
	"github.com/zinc-lang/zinc/internal/pkg/field"
	"github.com/zinc-lang/zinc/internal/pkg/vm"
	"github.com/zinc-lang/zinc/internal/pkg/wire"
)

func main() {
	progPath := flag.String("program", "", "path to a compiled .zbin bytecode file")
	inputPath := flag.String("input", "", "path to a JSON input witness")
	printTemplate := flag.Bool("template", false, "print the program's input template and exit")
	flag.Parse()

	if *progPath == "" {
		fmt.Fprintln(os.Stderr, "zinccheck: -program is required")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*progPath)
	if err != nil {
		log.WithError(err).Fatal("reading bytecode file")
	}

	var file binfile.File
	if err := file.UnmarshalBinary(raw); err != nil {
		log.WithError(err).Fatal("decoding bytecode file")
	}

	prog := &file.Program

	if *printTemplate {
		tmpl, err := wire.Template(prog.InputType)
		if err != nil {
			log.WithError(err).Fatal("building input template")
		}

		os.Stdout.Write(tmpl)

		return
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "zinccheck: -input is required unless -template is set")
		os.Exit(1)
	}

	inputRaw, err := os.ReadFile(*inputPath)
	if err != nil {
		log.WithError(err).Fatal("reading input witness")
	}

	engine := field.BLS12377{}
	machine := vm.New(engine, prog)

	input, err := wire.Decode(machine.ConstraintSystem(), prog.InputType, inputRaw)
	if err != nil {
		log.WithError(err).Fatal("decoding input witness")
	}

	output, err := machine.Run(input, nil)
	if err != nil {
		log.WithError(err).Fatal("running program")
	}

	if err := machine.ConstraintSystem().Check(); err != nil {
		log.WithError(err).Fatal("constraint system is unsatisfied")
	}

	encoded, err := wire.Encode(engine, prog.OutputType, output)
	if err != nil {
		log.WithError(err).Fatal("encoding output")
	}

	os.Stdout.Write(encoded)
	fmt.Println()
}
