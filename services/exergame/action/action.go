// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package action

import (
	"fmt"

	"github.com/cogment/cogment-exergame/utils"
)

type Kind int

const (
	Continuous Kind = iota // Vector of floats, PPO style policies
	Discrete               // Single index, DQN style policies
)

func (kind Kind) String() string {
	return [...]string{
		"continuous",
		"discrete",
	}[kind]
}

// Adjustment is the typed record of parameter deltas carried by an action
type Adjustment interface {
	Validate() error
}

// Action is what the policy service decides for one control cycle
type Action struct {
	Kind       Kind
	Vector     []float64
	Index      int
	Adjustment Adjustment

	// Optional policy outputs
	LogProb *float64
	QValue  *float64
	Epsilon *float64
}

func NewContinuous(vector []float64, adjustment Adjustment) Action {
	v := make([]float64, len(vector))
	copy(v, vector)
	return Action{
		Kind:       Continuous,
		Vector:     v,
		Adjustment: adjustment,
	}
}

func NewDiscrete(index int, adjustment Adjustment) Action {
	return Action{
		Kind:       Discrete,
		Index:      index,
		Adjustment: adjustment,
	}
}

// Value returns the i-th element of a continuous action, 0 when missing
func (a Action) Value(i int) float64 {
	if a.Kind != Continuous || i < 0 || i >= len(a.Vector) {
		return 0
	}
	return utils.Finite(a.Vector[i])
}

// Payload is the representation of the action sent back in training transitions
func (a Action) Payload() interface{} {
	if a.Kind == Discrete {
		return a.Index
	}
	return a.Vector
}

func (a Action) Validate() error {
	switch a.Kind {
	case Continuous:
		if !utils.IsFinite(a.Vector...) {
			return NewInvalidActionError("non finite action vector %v", a.Vector)
		}
	case Discrete:
		if a.Index < 0 {
			return NewInvalidActionError("negative action index %d", a.Index)
		}
	default:
		return NewInvalidActionError("unknown action kind %d", a.Kind)
	}
	if a.Adjustment == nil {
		return NewInvalidActionError("missing adjustments")
	}
	return a.Adjustment.Validate()
}

func (a Action) String() string {
	if a.Kind == Discrete {
		return fmt.Sprintf("discrete(%d)", a.Index)
	}
	return fmt.Sprintf("continuous(%v)", a.Vector)
}
