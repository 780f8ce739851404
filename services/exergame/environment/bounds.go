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

package environment

import (
	"fmt"

	"github.com/cogment/cogment-exergame/utils"
)

// Bounds is an inclusive [Min, Max] range for an adjustable parameter
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (b Bounds) Valid() bool {
	return utils.IsFinite(b.Min, b.Max) && b.Min <= b.Max
}

func (b Bounds) Clamp(v float64) float64 {
	return utils.Clamp(v, b.Min, b.Max)
}

func (b Bounds) Contains(v float64) bool {
	return utils.IsFinite(v) && v >= b.Min && v <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%v, %v]", b.Min, b.Max)
}

// InvalidBoundsError is raised when a configured range is unusable
type InvalidBoundsError struct {
	Parameter string
	Bounds    Bounds
}

func NewInvalidBoundsError(parameter string, bounds Bounds) *InvalidBoundsError {
	return &InvalidBoundsError{Parameter: parameter, Bounds: bounds}
}

func (err *InvalidBoundsError) Error() string {
	return fmt.Sprintf("invalid bounds %s for parameter [%s]", err.Bounds, err.Parameter)
}

// Parameter is a mutable game parameter constrained by bounds
type Parameter struct {
	Name   string
	Value  float64
	Bounds Bounds
}

// Adjust adds delta to the parameter value and clamps the result
func (p *Parameter) Adjust(delta float64) float64 {
	p.Value = p.Bounds.Clamp(p.Value + utils.Finite(delta))
	return p.Value
}

func (p *Parameter) Set(v float64) float64 {
	p.Value = p.Bounds.Clamp(v)
	return p.Value
}

// Order restores upper - lower >= margin with each value kept inside its own bounds.
// lower is re-derived from upper first, upper is raised only when lower cannot go low enough.
// ok is false when the two ranges cannot hold an ordered pair.
func Order(lower, upper float64, lowerBounds, upperBounds Bounds, margin float64) (float64, float64, bool) {
	lower = lowerBounds.Clamp(lower)
	upper = upperBounds.Clamp(upper)
	if upper-lower >= margin {
		return lower, upper, true
	}
	lower = lowerBounds.Clamp(upper - margin)
	if upper-lower >= margin {
		return lower, upper, true
	}
	upper = upperBounds.Clamp(lower + margin)
	return lower, upper, upper-lower >= margin
}
