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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitPadsWithZeros(t *testing.T) {
	state := Fit([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, Shape{Length: 12})

	assert.Len(t, state, 12)
	assert.Equal(t, StateVector{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0, 0}, state)
}

func TestFitKeepsExcessUnlessTruncating(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.Equal(t, StateVector{1, 2, 3, 4}, Fit(values, Shape{Length: 3}))
	assert.Equal(t, StateVector{1, 2, 3}, Fit(values, Shape{Length: 3, Truncate: true}))
}

func TestFitReplacesNonFinite(t *testing.T) {
	state := Fit([]float64{math.NaN(), math.Inf(1), 2}, Shape{Length: 3})

	assert.Equal(t, StateVector{0, 0, 2}, state)
}

func TestSamplerWithoutCollector(t *testing.T) {
	s := New(Shape{Length: 7}, nil)

	assert.Equal(t, make(StateVector, 7), s.Sample())
	assert.Equal(t, 7, s.Shape().Length)
}

func TestSamplerReturnsFreshVectors(t *testing.T) {
	values := []float64{0.5, 0.25}
	s := New(Shape{Length: 3}, func() []float64 { return values })

	first := s.Sample()
	values[0] = 1
	second := s.Sample()

	assert.Equal(t, StateVector{0.5, 0.25, 0}, first)
	assert.Equal(t, StateVector{1, 0.25, 0}, second)
}

func TestStateVectorAt(t *testing.T) {
	s := StateVector{1, 2}

	assert.Equal(t, 2.0, s.At(1))
	assert.Equal(t, 0.0, s.At(2))
	assert.Equal(t, 0.0, s.At(-1))

	c := s.Clone()
	c[0] = 3
	assert.Equal(t, 1.0, s[0])
	assert.Nil(t, StateVector(nil).Clone())
}
