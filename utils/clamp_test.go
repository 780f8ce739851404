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

package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-3, 0, 1))
	assert.Equal(t, 1.0, Clamp(12, 0, 1))
	assert.Equal(t, 0.2, Clamp(math.NaN(), 0.2, 1))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
	assert.Equal(t, 0.0, Clamp01(math.Inf(-1)))
}

func TestGuardedDiv(t *testing.T) {
	assert.Equal(t, 3.0, GuardedDiv(3, 0, 1))
	assert.Equal(t, 0.5, GuardedDiv(1, 2, 1))
	assert.Equal(t, 0.0, GuardedDiv(math.NaN(), 2, 1))
	assert.Equal(t, 0.0, GuardedDiv(math.Inf(1), 2, 1))
	assert.InDelta(t, 1e4, GuardedDiv(1, 0, 1e-4), 1e-6)
}

func TestFinite(t *testing.T) {
	assert.Equal(t, 0.0, Finite(math.NaN()))
	assert.Equal(t, 2.5, Finite(2.5))
	assert.True(t, IsFinite(1, 2, 3))
	assert.False(t, IsFinite(1, math.Inf(-1)))
}
