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

package vm

import (
	"github.com/zinc-lang/zinc/internal/diagnostic"
	"github.com/zinc-lang/zinc/internal/pkg/vm/circuit"
	"github.com/zinc-lang/zinc/internal/pkg/vm/gadgets"
)

func errFrameMismatch(s *ExecutionState, message string) error {
	return diagnostic.New(diagnostic.CodeFrameMismatch, s.Location, message)
}

// maskedWrite computes selector*next + (1-selector)*previous: a Store only
// takes effect when the active branch selector is 1, but every branch's
// instructions still execute and still extend the constraint system
// (spec.md §4.4: "branches are both executed but selectively effective").
func maskedWrite(cs *circuit.ConstraintSystem, namespace string, selector, next, previous circuit.Scalar) (circuit.Scalar, error) {
	engine := cs.Engine()

	taken, err := gadgets.Mul(cs, namespace+".taken", selector, next)
	if err != nil {
		return circuit.Scalar{}, err
	}

	notSelector := circuit.NewVar(cs, engine.One().Sub(selector.Value), selector.Type)
	cs.AddConstraint(namespace+".not", circuit.Const(engine.One()).Sub(selector.LC), circuit.Const(engine.One()), notSelector.LC)

	kept, err := gadgets.Mul(cs, namespace+".kept", notSelector, previous)
	if err != nil {
		return circuit.Scalar{}, err
	}

	result := circuit.NewVar(cs, taken.Value.Add(kept.Value), previous.Type)
	cs.AddConstraint(namespace+".sum", taken.LC.Add(kept.LC), circuit.Const(engine.One()), result.LC)

	return result, nil
}

// enterIf pushes a new branch level: the new selector is parent∧condition
// (an AND via plain multiplication, since both operands are already
// boolean-constrained), and the branchFrame lets a later Else recompute the
// complementary selector without re-deriving the parent.
func (s *ExecutionState) enterIf(cs *circuit.ConstraintSystem, namespace string, condition circuit.Scalar) error {
	parent := s.currentSelector(cs)

	next, err := gadgets.Mul(cs, namespace+".if", parent, condition)
	if err != nil {
		return err
	}

	s.branchFrames = append(s.branchFrames, branchFrame{parent: parent, condition: condition})
	s.conditionStack = append(s.conditionStack, next)

	return nil
}

// enterElse replaces the top selector with parent∧¬condition.
func (s *ExecutionState) enterElse(cs *circuit.ConstraintSystem, namespace string) error {
	if len(s.branchFrames) == 0 {
		return errFrameMismatch(s, "Else without a matching If")
	}

	bf := s.branchFrames[len(s.branchFrames)-1]
	notCondition := gadgets.Not(cs, namespace+".not", bf.condition)

	next, err := gadgets.Mul(cs, namespace+".else", bf.parent, notCondition)
	if err != nil {
		return err
	}

	s.conditionStack[len(s.conditionStack)-1] = next

	return nil
}

// exitIf pops both the branch frame and its selector, returning control to
// the enclosing branch (or the unconditional selector 1 at depth 0).
func (s *ExecutionState) exitIf() error {
	if len(s.branchFrames) == 0 || len(s.conditionStack) == 0 {
		return errFrameMismatch(s, "EndIf without a matching If")
	}

	s.branchFrames = s.branchFrames[:len(s.branchFrames)-1]
	s.conditionStack = s.conditionStack[:len(s.conditionStack)-1]

	return nil
}
