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

package metrics

import (
	"fmt"
	"math"
	"sync"

	"github.com/cogment/cogment-exergame/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "metrics")

const (
	weightsTolerance = 1e-6
	velocityEpsilon  = 1e-4
	neutralSuccess   = 0.5
)

// Ratio is a guarded num / max(1, den) ratio, clamped to [0, 1]
type Ratio struct {
	Num float64
	Den float64
}

func (r Ratio) Value() float64 {
	return utils.Clamp01(utils.GuardedDiv(r.Num, r.Den, 1))
}

// Counters are the raw per-tick quantities a mini-game feeds to the engine
type Counters struct {
	Errors Ratio
	// Movement is a normalized movement quality score in [0, 1]
	Movement float64
	Time     Ratio

	Task     Ratio
	Active   Ratio
	Reaction Ratio

	Accuracy   Ratio
	Smoothness Ratio
	Attempts   Ratio
}

// Metrics is the derived player condition, every field lies in [0, 1]
type Metrics struct {
	Fatigue     float64 `json:"fatigue"`
	Engagement  float64 `json:"engagement"`
	SuccessRate float64 `json:"success_rate"`
}

type FatigueWeights struct {
	Error    float64
	Movement float64
	Time     float64
}

type EngagementWeights struct {
	Task     float64
	Active   float64
	Rest     float64
	Reaction float64
}

type SuccessWeights struct {
	Accuracy   float64
	Smoothness float64
	// UseAttempts computes the success rate as successful / total attempts instead
	UseAttempts bool
}

// Weights is a per mini-game weight table, each group sums to 1
type Weights struct {
	Fatigue    FatigueWeights
	Engagement EngagementWeights
	Success    SuccessWeights
}

func checkSum(group string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if !utils.IsFinite(w) || w < 0 {
			return fmt.Errorf("invalid %s weight %v", group, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightsTolerance {
		return fmt.Errorf("%s weights sum to %v instead of 1", group, sum)
	}
	return nil
}

func (w Weights) Validate() error {
	err := checkSum("fatigue", w.Fatigue.Error, w.Fatigue.Movement, w.Fatigue.Time)
	if err != nil {
		return err
	}
	err = checkSum(
		"engagement",
		w.Engagement.Task,
		w.Engagement.Active,
		w.Engagement.Rest,
		w.Engagement.Reaction,
	)
	if err != nil {
		return err
	}
	if !w.Success.UseAttempts {
		return checkSum("success", w.Success.Accuracy, w.Success.Smoothness)
	}
	return nil
}

// VelocityScore is the average over the max of the given velocities, 1 when no velocity is available
func VelocityScore(velocities []float64) float64 {
	if len(velocities) == 0 {
		return 1
	}
	sum := 0.0
	max := 0.0
	for _, v := range velocities {
		v = math.Abs(utils.Finite(v))
		sum += v
		if v > max {
			max = v
		}
	}
	avg := sum / float64(len(velocities))
	return utils.Clamp01(utils.GuardedDiv(avg, max, velocityEpsilon))
}

// Compute derives the metrics from the counters, it is pure
func Compute(w Weights, c Counters) Metrics {
	movement := utils.Clamp01(c.Movement)
	fatigue := utils.Clamp01(
		w.Fatigue.Error*c.Errors.Value() +
			w.Fatigue.Movement*(1-movement) +
			w.Fatigue.Time*c.Time.Value(),
	)

	engagement := utils.Clamp01(
		w.Engagement.Task*c.Task.Value() +
			w.Engagement.Active*c.Active.Value() +
			w.Engagement.Rest*(1-fatigue) +
			w.Engagement.Reaction*c.Reaction.Value(),
	)

	var success float64
	if w.Success.UseAttempts {
		if c.Attempts.Den <= 0 {
			success = neutralSuccess
		} else {
			success = c.Attempts.Value()
		}
	} else {
		success = utils.Clamp01(
			w.Success.Accuracy*c.Accuracy.Value() +
				w.Success.Smoothness*c.Smoothness.Value(),
		)
	}

	return Metrics{
		Fatigue:     fatigue,
		Engagement:  engagement,
		SuccessRate: success,
	}
}

// Engine keeps the latest and previous metrics of a mini-game instance
type Engine struct {
	mu       sync.RWMutex
	weights  Weights
	current  Metrics
	previous Metrics
}

func NewEngine(weights Weights) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		weights: weights,
	}, nil
}

func MustNewEngine(weights Weights) *Engine {
	engine, err := NewEngine(weights)
	if err != nil {
		log.WithField("error", err).Panic("invalid metrics weights")
	}
	return engine
}

func (e *Engine) Update(counters Counters) Metrics {
	m := Compute(e.weights, counters)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.previous = e.current
	e.current = m
	return m
}

func (e *Engine) Current() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Previous is only meant for reward shaping
func (e *Engine) Previous() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.previous
}

func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = Metrics{}
	e.previous = Metrics{}
}
