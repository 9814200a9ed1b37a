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

// Package binfile implements the on-disk encoding of a compiled Zinc
// bytecode.Program (spec.md §6): a hand-rolled big-endian Header, carrying
// a magic identifier and version pair so a corrupt or foreign file is
// rejected before a full decode is attempted, followed by a gob-encoded
// payload.
//
// Grounded on go-corset's pkg/binfile/binfile.go: same Header shape, same
// split between a hand-rolled prefix (so the magic bytes and version can
// be read without pulling in gob at all) and a gob-encoded body. Adapted
// here to wrap a bytecode.Program instead of an asm.MacroHirProgram.
package binfile

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/zinc-lang/zinc/internal/pkg/ast"
	"github.com/zinc-lang/zinc/internal/pkg/bytecode"
)

// ZINCBIN is the 8-byte magic identifier every Zinc bytecode file begins
// with, distinguishing it from an unrelated or corrupted file before any
// version check runs.
var ZINCBIN = [8]byte{'z', 'i', 'n', 'c', 'b', 'i', 'n', 0}

// BINFILE_MAJOR_VERSION is the major version of the on-disk format. A
// reader rejects any file whose major version differs, since the payload
// encoding itself may have changed.
const BINFILE_MAJOR_VERSION uint16 = 1

// BINFILE_MINOR_VERSION is the minor version; a file with a lower minor
// version remains readable (additive-only changes), but a file produced
// by this version may carry fields an older reader does not know about.
const BINFILE_MINOR_VERSION uint16 = 0

func init() {
	// The gob encoder must be told about every concrete implementation of
	// the closed Instruction/Constant/Type interfaces it will be asked to
	// encode, since it otherwise only knows the static field type declared
	// on Program/Instruction (an interface, which carries no concrete type
	// information of its own).
	gob.Register(bytecode.Push{})
	gob.Register(bytecode.Arith{})
	gob.Register(bytecode.Shl{})
	gob.Register(bytecode.Shr{})
	gob.Register(bytecode.Cast{})
	gob.Register(bytecode.If{})
	gob.Register(bytecode.Else{})
	gob.Register(bytecode.EndIf{})
	gob.Register(bytecode.Loop{})
	gob.Register(bytecode.EndLoop{})
	gob.Register(bytecode.Call{})
	gob.Register(bytecode.Return{})
	gob.Register(bytecode.Exit{})
	gob.Register(bytecode.Load{})
	gob.Register(bytecode.Store{})
	gob.Register(bytecode.LoadGlobal{})
	gob.Register(bytecode.StoreGlobal{})
	gob.Register(bytecode.LoadByIndex{})
	gob.Register(bytecode.StoreByIndex{})
	gob.Register(bytecode.Slice{})
	gob.Register(bytecode.Assert{})
	gob.Register(bytecode.Dbg{})
	gob.Register(bytecode.LibCall{})
	gob.Register(bytecode.FileMarker{})
	gob.Register(bytecode.FunctionMarker{})
	gob.Register(bytecode.LineMarker{})
	gob.Register(bytecode.ColumnMarker{})

	gob.Register(ast.Unit{})
	gob.Register(ast.Boolean{})
	gob.Register(ast.IntegerUnsigned{})
	gob.Register(ast.IntegerSigned{})
	gob.Register(ast.Field{})
	gob.Register(ast.Array{})
	gob.Register(ast.Tuple{})
	gob.Register(ast.Structure{})
	gob.Register(ast.Enumeration{})
	gob.Register(ast.Function{})
	gob.Register(ast.StringType{})

	gob.Register(ast.ConstBool{})
	gob.Register(ast.ConstInt{})
	gob.Register(ast.ConstField{})
	gob.Register(ast.ConstRange{})
	gob.Register(ast.ConstRangeInclusive{})
	gob.Register(ast.ConstTuple{})
	gob.Register(ast.ConstArray{})
	gob.Register(ast.ConstStructure{})
}

// Header is the fixed-layout prefix of every Zinc bytecode file.
type Header struct {
	Identifier   [8]byte
	MajorVersion uint16
	MinorVersion uint16
	// MetaData is an optional JSON blob (source path, compiler version,
	// build timestamp); empty when absent.
	MetaData []byte
}

// IsCompatible reports whether this header can be decoded by the current
// implementation: the magic identifier must match exactly, the major
// version must match exactly, and the minor version must be no greater
// than what this implementation understands.
func (h *Header) IsCompatible() bool {
	return h.Identifier == ZINCBIN &&
		h.MajorVersion == BINFILE_MAJOR_VERSION &&
		h.MinorVersion <= BINFILE_MINOR_VERSION
}

// MarshalBinary encodes the Header, not via gob so the magic bytes and
// version remain readable without decoding the rest of the file.
func (h *Header) MarshalBinary() ([]byte, error) {
	var (
		buffer     bytes.Buffer
		majorBytes [2]byte
		minorBytes [2]byte
		metaLength [4]byte
	)

	binary.BigEndian.PutUint16(majorBytes[:], h.MajorVersion)
	binary.BigEndian.PutUint16(minorBytes[:], h.MinorVersion)
	binary.BigEndian.PutUint32(metaLength[:], uint32(len(h.MetaData)))

	buffer.Write(h.Identifier[:])
	buffer.Write(majorBytes[:])
	buffer.Write(minorBytes[:])
	buffer.Write(metaLength[:])
	buffer.Write(h.MetaData)

	return buffer.Bytes(), nil
}

// UnmarshalBinary decodes a Header from the front of buffer, consuming
// exactly the bytes MarshalBinary would have written.
func (h *Header) UnmarshalBinary(buffer *bytes.Buffer) error {
	var (
		majorBytes      [2]byte
		minorBytes      [2]byte
		metaLengthBytes [4]byte
	)

	if n, err := buffer.Read(h.Identifier[:]); err != nil {
		return err
	} else if n != len(h.Identifier) {
		return errors.New("binfile: malformed file (short identifier)")
	}

	if n, err := buffer.Read(majorBytes[:]); err != nil {
		return err
	} else if n != len(majorBytes) {
		return errors.New("binfile: malformed file (short major version)")
	}

	if n, err := buffer.Read(minorBytes[:]); err != nil {
		return err
	} else if n != len(minorBytes) {
		return errors.New("binfile: malformed file (short minor version)")
	}

	if n, err := buffer.Read(metaLengthBytes[:]); err != nil {
		return err
	} else if n != len(metaLengthBytes) {
		return errors.New("binfile: malformed file (short metadata length)")
	}

	metaLength := binary.BigEndian.Uint32(metaLengthBytes[:])
	metaBytes := make([]byte, metaLength)

	if n, err := buffer.Read(metaBytes); err != nil {
		return err
	} else if uint32(n) != metaLength {
		return errors.New("binfile: malformed file (short metadata)")
	}

	h.MajorVersion = binary.BigEndian.Uint16(majorBytes[:])
	h.MinorVersion = binary.BigEndian.Uint16(minorBytes[:])
	h.MetaData = metaBytes

	return nil
}

// File is the complete on-disk representation of a compiled Zinc program:
// a Header followed by the gob-encoded bytecode.Program.
type File struct {
	Header  Header
	Program bytecode.Program
}

// New wraps a freshly emitted bytecode.Program into a File ready for
// serialization, stamping the header at the current version. metadata is
// an optional JSON blob stored verbatim (nil for none).
func New(prog *bytecode.Program, metadata []byte) *File {
	return &File{
		Header:  Header{Identifier: ZINCBIN, MajorVersion: BINFILE_MAJOR_VERSION, MinorVersion: BINFILE_MINOR_VERSION, MetaData: metadata},
		Program: *prog,
	}
}

// IsBinaryFile reports whether data begins with the Zinc bytecode magic
// identifier, without attempting a full decode.
func IsBinaryFile(data []byte) bool {
	var id [8]byte

	buffer := bytes.NewBuffer(data)
	if _, err := buffer.Read(id[:]); err != nil {
		return false
	}

	return id == ZINCBIN
}

// MarshalBinary encodes the complete File: Header followed by a
// gob-encoded Program.
func (f *File) MarshalBinary() ([]byte, error) {
	var buffer bytes.Buffer

	headerBytes, err := f.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	buffer.Write(headerBytes)

	encoder := gob.NewEncoder(&buffer)
	if err := encoder.Encode(&f.Program); err != nil {
		return nil, fmt.Errorf("binfile: encoding program: %w", err)
	}

	return buffer.Bytes(), nil
}

// UnmarshalBinary decodes a File previously produced by MarshalBinary.
func (f *File) UnmarshalBinary(data []byte) error {
	buffer := bytes.NewBuffer(data)

	if err := f.Header.UnmarshalBinary(buffer); err != nil {
		return err
	}

	if !f.Header.IsCompatible() {
		return fmt.Errorf("binfile: incompatible file (v%d.%d, expected v%d.%d)",
			f.Header.MajorVersion, f.Header.MinorVersion, BINFILE_MAJOR_VERSION, BINFILE_MINOR_VERSION)
	}

	decoder := gob.NewDecoder(buffer)
	if err := decoder.Decode(&f.Program); err != nil {
		return fmt.Errorf("binfile: decoding program: %w", err)
	}

	return nil
}
