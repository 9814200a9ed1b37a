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

// Package circuit implements the rank-1 constraint system the VM (V)
// builds up as it executes (spec.md §3's "ExecutionState", §4.4, §5's
// "the constraint system is a shared, mutable collaborator owned
// exclusively by the VM for the duration of execution"). It is the
// foundation layer both internal/pkg/vm (the dispatch loop) and
// internal/pkg/vm/gadgets (per-opcode constraint synthesis) build on,
// kept dependency-free of either so neither imports the other.
//
// Grounded on go-corset's own schema/constraint split (pkg/air.Schema
// accumulates vanishing/range/lookup constraints; pkg/air/gadgets
// synthesizes them) generalized here from an AIR polynomial system to an
// R1CS (A*B=C) system, since spec.md §1 targets "an arithmetic-circuit/
// R1CS VM" rather than go-corset's own trace/column arithmetization.
package circuit

import (
	"fmt"

	"github.com/zinc-lang/zinc/internal/pkg/field"
)

// Term is one coefficient*variable addend of a LinearCombination.
// Variable 0 is reserved for the constant wire (always 1); every other
// index names a value allocated via ConstraintSystem.Allocate.
type Term struct {
	Coefficient field.Element
	Variable    int
}

// LinearCombination is a sum of Terms: the symbolic counterpart of a
// Scalar's concrete Value, carried so the R1CS can be checked (and,
// eventually, handed to an out-of-scope proving system) independently of
// the witness that satisfies it.
type LinearCombination []Term

// Const builds a LinearCombination that is the fixed value v, with no
// dependency on any allocated variable.
func Const(v field.Element) LinearCombination {
	return LinearCombination{{Coefficient: v, Variable: 0}}
}

// Var builds a LinearCombination that is exactly variable idx.
func Var(idx int, engine field.Engine) LinearCombination {
	return LinearCombination{{Coefficient: engine.One(), Variable: idx}}
}

// Add concatenates two linear combinations (their sum).
func (lc LinearCombination) Add(other LinearCombination) LinearCombination {
	out := make(LinearCombination, 0, len(lc)+len(other))
	out = append(out, lc...)
	out = append(out, other...)

	return out
}

// Scale multiplies every term's coefficient by c.
func (lc LinearCombination) Scale(c field.Element) LinearCombination {
	out := make(LinearCombination, len(lc))
	for i, t := range lc {
		out[i] = Term{Coefficient: t.Coefficient.Mul(c), Variable: t.Variable}
	}

	return out
}

// Neg negates every term's coefficient.
func (lc LinearCombination) Neg() LinearCombination {
	out := make(LinearCombination, len(lc))
	for i, t := range lc {
		out[i] = Term{Coefficient: t.Coefficient.Neg(), Variable: t.Variable}
	}

	return out
}

// Sub subtracts other from lc.
func (lc LinearCombination) Sub(other LinearCombination) LinearCombination {
	return lc.Add(other.Neg())
}

// Evaluate computes the linear combination's value against cs's current
// witness assignment.
func (lc LinearCombination) Evaluate(cs *ConstraintSystem) field.Element {
	acc := cs.engine.Zero()
	for _, t := range lc {
		acc = acc.Add(t.Coefficient.Mul(cs.witness[t.Variable]))
	}

	return acc
}

// Constraint is a single rank-1 constraint A*B = C, labeled with the
// hierarchical namespace of the instruction/gadget that produced it.
type Constraint struct {
	A, B, C LinearCombination
	Label   string
}

// ConstraintSystem accumulates the growing R1CS as the VM executes. A
// fresh ConstraintSystem should be constructed per program execution; it
// owns both the witness vector (concrete values) and the constraint list
// (their symbolic relationships), kept in lock-step so Check can
// re-verify the trace independently of the VM's own bookkeeping.
type ConstraintSystem struct {
	engine      field.Engine
	witness     []field.Element
	constraints []Constraint
	// nsCounters backs Namespace's per-parent uniqueness guarantee
	// (spec.md §5: "labels must be unique within a parent namespace... by
	// deriving a per-instruction counter"), grounded on go-corset's own
	// column-handle naming convention (pkg/air/gadgets/bitwidth.go's
	// "%s:u%d" handles).
	nsCounters map[string]uint64
}

// NewConstraintSystem constructs an empty ConstraintSystem over engine,
// with variable 0 pre-allocated to the constant wire (always 1).
func NewConstraintSystem(engine field.Engine) *ConstraintSystem {
	cs := &ConstraintSystem{engine: engine, nsCounters: make(map[string]uint64)}
	cs.witness = append(cs.witness, engine.One())

	return cs
}

// Engine returns the prime-field engine this system computes over.
func (cs *ConstraintSystem) Engine() field.Engine { return cs.engine }

// Allocate adds a new witness value, returning its variable index.
func (cs *ConstraintSystem) Allocate(value field.Element) int {
	cs.witness = append(cs.witness, value)

	return len(cs.witness) - 1
}

// AddConstraint records a*b=c under a fresh label derived from
// namespace, and returns that label (useful for a caller that wants to
// reference the constraint it just added, e.g. in an error message).
func (cs *ConstraintSystem) AddConstraint(namespace string, a, b, c LinearCombination) string {
	label := cs.Namespace(namespace)
	cs.constraints = append(cs.constraints, Constraint{A: a, B: b, C: c, Label: label})

	return label
}

// Namespace derives a fresh, unique hierarchical label under parent.
func (cs *ConstraintSystem) Namespace(parent string) string {
	n := cs.nsCounters[parent]
	cs.nsCounters[parent] = n + 1

	return fmt.Sprintf("%s#%d", parent, n)
}

// Constraints returns every constraint accumulated so far.
func (cs *ConstraintSystem) Constraints() []Constraint { return cs.constraints }

// Len reports how many constraints have been accumulated.
func (cs *ConstraintSystem) Len() int { return len(cs.constraints) }

// Check re-evaluates every accumulated constraint against the current
// witness, returning the first violation found. This is a sanity check
// for tests and tooling, not the proving step itself (out of scope per
// spec.md §1's "trusted-setup/proof-generation wrapper").
func (cs *ConstraintSystem) Check() error {
	for _, c := range cs.constraints {
		a := c.A.Evaluate(cs)
		b := c.B.Evaluate(cs)
		want := c.C.Evaluate(cs)

		if !a.Mul(b).Equal(want) {
			return fmt.Errorf("circuit: constraint %q violated", c.Label)
		}
	}

	return nil
}
