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

package sampler

import (
	"github.com/cogment/cogment-exergame/utils"
)

// StateVector is the fixed length numeric state sent to the policy service
type StateVector []float64

func (s StateVector) At(i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func (s StateVector) Clone() StateVector {
	if s == nil {
		return nil
	}
	c := make(StateVector, len(s))
	copy(c, s)
	return c
}

// Shape declares the length of a mini-game state
type Shape struct {
	Length int
	// Truncate drops the values beyond Length, otherwise they are kept
	Truncate bool
}

// Fit pads values with zeros up to the shape length, non finite values are replaced by 0
func Fit(values []float64, shape Shape) StateVector {
	size := len(values)
	if size < shape.Length {
		size = shape.Length
	} else if shape.Truncate && size > shape.Length {
		size = shape.Length
	}
	state := make(StateVector, size)
	for i := 0; i < size && i < len(values); i++ {
		state[i] = utils.Finite(values[i])
	}
	return state
}

// Collector reads the current telemetry, it must not block
type Collector func() []float64

type Sampler struct {
	shape   Shape
	collect Collector
}

func New(shape Shape, collect Collector) *Sampler {
	return &Sampler{
		shape:   shape,
		collect: collect,
	}
}

func (s *Sampler) Shape() Shape {
	return s.shape
}

func (s *Sampler) Sample() StateVector {
	var values []float64
	if s.collect != nil {
		values = s.collect()
	}
	return Fit(values, s.shape)
}
