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

package posematch

import (
	"github.com/cogment/cogment-exergame/services/exergame/reward"
)

func similarityBonus(in reward.Input) float64 {
	sum := 0.0
	for i := historyIdx; i < historyIdx+HistorySize; i++ {
		sum += in.Next.At(i)
	}
	avg := sum / HistorySize
	switch {
	case avg > 0.8:
		return 2
	case avg > 0.7:
		return 1
	case avg < 0.5:
		return -1
	default:
		return 0
	}
}

var Rewards = reward.Table{
	{Name: "score", Weight: 3, Value: reward.ScoreDelta},
	{Name: "similarity", Weight: 1, Value: similarityBonus},
	{Name: "fatigue", Weight: -2, Value: reward.Fatigue},
	{Name: "engagement", Weight: 1.5, Value: reward.Engagement},
	{Name: "success", Weight: 1, Value: reward.SuccessRate},
}
