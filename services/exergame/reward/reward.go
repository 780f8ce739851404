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

package reward

import (
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/cogment/cogment-exergame/utils"
)

// Input gathers everything a reward term may look at
type Input struct {
	Prev       sampler.StateVector
	Action     action.Action
	Next       sampler.StateVector
	ScoreDelta float64
	Metrics    metrics.Metrics
	Elapsed    time.Duration
}

// Term is a named reward component, its contribution is Weight * Value(input)
type Term struct {
	Name   string
	Weight float64
	Value  func(Input) float64
}

func (term Term) contribution(in Input) float64 {
	if term.Value == nil {
		return 0
	}
	return utils.Finite(term.Weight * term.Value(in))
}

// Table is a per mini-game list of weighted reward terms
type Table []Term

// Reward sums the weighted terms, it has no side effect
func (table Table) Reward(in Input) float64 {
	total := 0.0
	for _, term := range table {
		total += term.contribution(in)
	}
	return total
}

// Breakdown returns the contribution of each term by name
func (table Table) Breakdown(in Input) map[string]float64 {
	breakdown := make(map[string]float64, len(table))
	for _, term := range table {
		breakdown[term.Name] += term.contribution(in)
	}
	return breakdown
}

// RangeCheck is 1 when min <= value <= max and -1 otherwise
func RangeCheck(value float64, min float64, max float64) float64 {
	if utils.IsFinite(value) && value >= min && value <= max {
		return 1
	}
	return -1
}

// Indicator is 1 when the condition holds, 0 otherwise
func Indicator(condition bool) float64 {
	if condition {
		return 1
	}
	return 0
}

// Common terms

func ScoreDelta(in Input) float64 {
	return in.ScoreDelta
}

func Fatigue(in Input) float64 {
	return in.Metrics.Fatigue
}

func Engagement(in Input) float64 {
	return in.Metrics.Engagement
}

func SuccessRate(in Input) float64 {
	return in.Metrics.SuccessRate
}

func ElapsedSeconds(in Input) float64 {
	return in.Elapsed.Seconds()
}

// NextAt reads an element of the state sampled after the action was applied
func NextAt(i int) func(Input) float64 {
	return func(in Input) float64 {
		return in.Next.At(i)
	}
}
