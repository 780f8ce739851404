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

package bubble

import (
	"math"

	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
)

// Rewards builds the bubble popping reward table, range checks depend on the configured maxima
func Rewards(cfg environment.DifficultyConfig) reward.Table {
	inRange := func(idx int, parameter string) func(reward.Input) float64 {
		b := rangeCheck(cfg, parameter)
		return func(in reward.Input) float64 {
			value := in.Action.Value(idx)
			if parameter == NumBubbles {
				value = math.Round(value)
			}
			return reward.RangeCheck(value, b.Min, b.Max)
		}
	}
	return reward.Table{
		{Name: "spawn_area_range", Weight: 1, Value: inRange(0, SpawnArea)},
		{Name: "bubble_speed_range", Weight: 1, Value: inRange(1, BubbleSpeed)},
		{Name: "bubble_lifetime_range", Weight: 1, Value: inRange(2, BubbleLifetime)},
		{Name: "spawn_height_range", Weight: 1, Value: inRange(3, SpawnHeight)},
		{Name: "num_bubbles_range", Weight: 1, Value: inRange(4, NumBubbles)},
		{Name: "bubble_size_range", Weight: 1, Value: inRange(5, BubbleSize)},
		{Name: "success", Weight: 2, Value: reward.NextAt(successRateIdx)},
		{Name: "hand_speed", Weight: 0.5, Value: reward.NextAt(handSpeedIdx)},
		{Name: "fatigue", Weight: -1, Value: reward.NextAt(fatigueIdx)},
	}
}
