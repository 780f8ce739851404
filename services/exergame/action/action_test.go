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
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinuousCopiesVector(t *testing.T) {
	vector := []float64{1, 2, 3}
	a := NewContinuous(vector, &BubbleAdjustment{})
	vector[0] = 42

	assert.Equal(t, Continuous, a.Kind)
	assert.Equal(t, 1.0, a.Value(0))
	assert.Equal(t, 0.0, a.Value(7))
	assert.Equal(t, []float64{1, 2, 3}, a.Payload())
	assert.NoError(t, a.Validate())
}

func TestDiscrete(t *testing.T) {
	a := NewDiscrete(4, &LightAdjustment{})

	assert.Equal(t, "discrete", a.Kind.String())
	assert.Equal(t, 4, a.Payload())
	assert.Equal(t, 0.0, a.Value(0))
	assert.NoError(t, a.Validate())

	a.Index = -1
	assert.Error(t, a.Validate())
}

func TestMissingAdjustment(t *testing.T) {
	err := NewContinuous([]float64{0}, nil).Validate()

	var invalidErr *InvalidActionError
	assert.True(t, errors.As(err, &invalidErr))
}

func TestNonFinite(t *testing.T) {
	assert.Error(t, NewContinuous([]float64{math.NaN()}, &BubbleAdjustment{}).Validate())
	assert.Error(t, NewContinuous([]float64{0}, &BubbleAdjustment{SpawnRate: math.Inf(1)}).Validate())
	assert.Error(t, NewContinuous([]float64{0}, &PoseAdjustment{GapChange: math.NaN()}).Validate())
}

func TestLightAdjustmentValidate(t *testing.T) {
	assert.NoError(t, (&LightAdjustment{}).Validate())
	assert.NoError(t, (&LightAdjustment{LightStates: []int{-1, 0, 1, 2}}).Validate())
	assert.Error(t, (&LightAdjustment{LightStates: []int{0, 1}}).Validate())
	assert.Error(t, (&LightAdjustment{LightStates: []int{0, 1, 3, 0}}).Validate())
	assert.Error(t, (&LightAdjustment{LightStates: []int{-2, 1, 1, 0}}).Validate())
}
