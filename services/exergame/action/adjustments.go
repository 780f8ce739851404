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

// InvalidActionError is raised when a decoded action can't be applied
type InvalidActionError struct {
	Message string
}

func NewInvalidActionError(format string, a ...interface{}) *InvalidActionError {
	return &InvalidActionError{Message: fmt.Sprintf(format, a...)}
}

func (err *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s", err.Message)
}

// BubbleAdjustment holds the bubble popping deltas
type BubbleAdjustment struct {
	BubbleSize   float64 `json:"bubble_size"`
	PositiveProb float64 `json:"positive_prob"`
	NegativeProb float64 `json:"negative_prob"`
	SpawnRate    float64 `json:"spawn_rate"`
}

func (adj *BubbleAdjustment) Validate() error {
	if !utils.IsFinite(adj.BubbleSize, adj.PositiveProb, adj.NegativeProb, adj.SpawnRate) {
		return NewInvalidActionError("non finite bubble adjustment %+v", *adj)
	}
	return nil
}

// LightCount is the number of colored lights in the lantern game
const LightCount = 4

// KeepLight marks a light whose state is left unchanged
const KeepLight = -1

// LightAdjustment holds the lantern tossing deltas
type LightAdjustment struct {
	// Either empty or one entry per light, KeepLight or a light state
	LightStates      []int   `json:"light_states"`
	LightSpeedChange float64 `json:"light_speed_change"`
	SpawnRateChange  float64 `json:"spawn_rate_change"`
}

func (adj *LightAdjustment) Validate() error {
	if !utils.IsFinite(adj.LightSpeedChange, adj.SpawnRateChange) {
		return NewInvalidActionError("non finite light adjustment %+v", *adj)
	}
	if len(adj.LightStates) != 0 && len(adj.LightStates) != LightCount {
		return NewInvalidActionError(
			"expected %d light states, got %d",
			LightCount,
			len(adj.LightStates),
		)
	}
	for lightIdx, state := range adj.LightStates {
		if state < KeepLight || state > 2 {
			return NewInvalidActionError("invalid state %d for light #%d", state, lightIdx)
		}
	}
	return nil
}

// PoseAdjustment holds the pose matching deltas
type PoseAdjustment struct {
	UpperThresholdChange float64 `json:"upper_threshold_change"`
	LowerThresholdChange float64 `json:"lower_threshold_change"`
	GapChange            float64 `json:"gap_change"`
	DifficultyChange     float64 `json:"difficulty_change"`
}

func (adj *PoseAdjustment) Validate() error {
	if !utils.IsFinite(
		adj.UpperThresholdChange,
		adj.LowerThresholdChange,
		adj.GapChange,
		adj.DifficultyChange,
	) {
		return NewInvalidActionError("non finite pose adjustment %+v", *adj)
	}
	return nil
}
