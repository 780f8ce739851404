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
	"fmt"
	"math"
	"sync"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/utils"
	"github.com/sirupsen/logrus"
)

// Adjustable parameters
const (
	SpawnArea      = "spawn_area"
	BubbleSpeed    = "bubble_speed"
	BubbleLifetime = "bubble_lifetime"
	SpawnHeight    = "spawn_height"
	NumBubbles     = "num_bubbles"
	BubbleSize     = "bubble_size"
	PositiveProb   = "positive_prob"
	NegativeProb   = "negative_prob"
	SpawnRate      = "spawn_rate"
)

// Fallback bounds used when the difficulty config doesn't define valid ones
var fallbackBounds = map[string]environment.Bounds{
	SpawnArea:      {Min: 0, Max: 5},
	BubbleSpeed:    {Min: 0.3, Max: 1},
	BubbleLifetime: {Min: 1, Max: 10},
	SpawnHeight:    {Min: 0, Max: 3},
	NumBubbles:     {Min: 1, Max: 5},
	BubbleSize:     {Min: 0.2, Max: 1},
	PositiveProb:   {Min: 0, Max: 1},
	NegativeProb:   {Min: 0, Max: 1},
	SpawnRate:      {Min: 0, Max: 1},
}

// spawnRateSpeedFactor couples spawn rate deltas to the bubble speed
const spawnRateSpeedFactor = 0.1

func bounds(cfg environment.DifficultyConfig, parameter string) environment.Bounds {
	return cfg.Bound(parameter, fallbackBounds[parameter])
}

// Environment holds the mutable bubble popping parameters
type Environment struct {
	mu     sync.RWMutex
	values map[string]float64
}

func defaultValues() map[string]float64 {
	return map[string]float64{
		SpawnArea:      3,
		BubbleSpeed:    1,
		BubbleLifetime: 5,
		SpawnHeight:    2,
		NumBubbles:     5,
		BubbleSize:     0.5,
		PositiveProb:   0.5,
		NegativeProb:   0.5,
		SpawnRate:      0.5,
	}
}

func NewEnvironment() *Environment {
	return &Environment{values: defaultValues()}
}

func (e *Environment) Get(parameter string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.values[parameter]
}

// NumBubbles is the maximum number of simultaneous bubbles
func (e *Environment) NumBubbles() int {
	return int(math.Round(e.Get(NumBubbles)))
}

func (e *Environment) Parameters() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	parameters := make(map[string]float64, len(e.values))
	for name, value := range e.values {
		parameters[name] = value
	}
	return parameters
}

func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = defaultValues()
}

func (e *Environment) adjust(cfg environment.DifficultyConfig, parameter string, delta float64) {
	p := environment.Parameter{
		Name:   parameter,
		Value:  e.values[parameter],
		Bounds: bounds(cfg, parameter),
	}
	e.values[parameter] = p.Adjust(delta)
}

// Apply updates the parameters from the action adjustments
func (e *Environment) Apply(a action.Action, cfg environment.DifficultyConfig) error {
	adjustment, ok := a.Adjustment.(*action.BubbleAdjustment)
	if !ok {
		return action.NewInvalidActionError("expected bubble adjustments, got %T", a.Adjustment)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if adjustment.BubbleSize != 0 {
		e.adjust(cfg, BubbleSize, adjustment.BubbleSize)
	}

	e.adjust(cfg, PositiveProb, adjustment.PositiveProb)
	e.adjust(cfg, NegativeProb, adjustment.NegativeProb)

	if adjustment.SpawnRate != 0 {
		e.adjust(cfg, BubbleSpeed, adjustment.SpawnRate*spawnRateSpeedFactor)
		e.adjust(cfg, SpawnRate, adjustment.SpawnRate)
	}

	// Keep the parameters that are not adjusted within their bounds
	e.adjust(cfg, BubbleLifetime, 0)
	e.values[NumBubbles] = math.Round(bounds(cfg, NumBubbles).Clamp(e.values[NumBubbles]))

	log.WithFields(logrus.Fields{
		"game":          Name,
		"speed":         e.values[BubbleSpeed],
		"size":          e.values[BubbleSize],
		"lifetime":      e.values[BubbleLifetime],
		"num_bubbles":   e.values[NumBubbles],
		"positive_prob": e.values[PositiveProb],
		"negative_prob": e.values[NegativeProb],
	}).Debug("environment updated")
	return nil
}

func (e *Environment) String() string {
	return fmt.Sprintf("%v", e.Parameters())
}

// rangeCheck is the reward bounds of an action element
func rangeCheck(cfg environment.DifficultyConfig, parameter string) environment.Bounds {
	b := bounds(cfg, parameter)
	switch parameter {
	case BubbleLifetime, NumBubbles:
		return environment.Bounds{Min: 1, Max: b.Max}
	default:
		return environment.Bounds{Min: 0, Max: b.Max}
	}
}

func smoothness(leftVelocity float64, rightVelocity float64) float64 {
	return 1 / (1 + math.Abs(utils.Finite(leftVelocity)-utils.Finite(rightVelocity)))
}
