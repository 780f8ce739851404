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

package lantern

import (
	"math"

	"github.com/cogment/cogment-exergame/services/exergame/reward"
)

// Number of lanterns in the air above which the player is considered overloaded
const overloadLanterns = 3

// overload reads the raw count from the telemetry, the state feature saturates at MaxLanterns
func overload(telemetry Telemetry) func(reward.Input) float64 {
	return func(reward.Input) float64 {
		return math.Max(0, float64(telemetry.Frame().ActiveLanterns-overloadLanterns))
	}
}

func balancedLimbs(in reward.Input) float64 {
	active := 0.0
	for limbIdx := limbsIdx; limbIdx < limbsIdx+LimbCount; limbIdx++ {
		active += in.Next.At(limbIdx)
	}
	return reward.Indicator(active >= 2 && active <= 3)
}

// Rewards builds the lantern tossing reward table over the frames of telemetry
func Rewards(telemetry Telemetry) reward.Table {
	return reward.Table{
		{Name: "score", Weight: 2, Value: reward.ScoreDelta},
		{Name: "overload", Weight: -0.5, Value: overload(telemetry)},
		{Name: "balanced_limbs", Weight: 1, Value: balancedLimbs},
		{Name: "fatigue", Weight: -1.5, Value: reward.Fatigue},
		{Name: "engagement", Weight: 1, Value: reward.Engagement},
		{Name: "elapsed", Weight: -0.01, Value: reward.ElapsedSeconds},
	}
}
