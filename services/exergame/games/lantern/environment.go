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
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/sirupsen/logrus"
)

type LightState int

const (
	Red LightState = iota
	Orange
	Green
)

func (state LightState) String() string {
	return [...]string{
		"red",
		"orange",
		"green",
	}[state]
}

// Adjustable parameters
const (
	MinLightTime = "min_light_time"
	MaxLightTime = "max_light_time"
	SpawnRate    = "spawn_rate"
)

var fallbackBounds = map[string]environment.Bounds{
	MinLightTime: {Min: 0.5, Max: 5},
	MaxLightTime: {Min: 1, Max: 8},
	SpawnRate:    {Min: 0.5, Max: 5},
}

// Deltas below this magnitude are ignored
const changeThreshold = 0.01

func bounds(cfg environment.DifficultyConfig, parameter string) environment.Bounds {
	return cfg.Bound(parameter, fallbackBounds[parameter])
}

// Environment holds the lights and their timings
type Environment struct {
	mu            sync.RWMutex
	lights        [action.LightCount]LightState
	values        map[string]float64
	speedAdjusted bool
}

func defaultValues() map[string]float64 {
	return map[string]float64{
		MinLightTime: 1,
		MaxLightTime: 3,
		SpawnRate:    2,
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

func (e *Environment) Lights() [action.LightCount]LightState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lights
}

func (e *Environment) SetLight(lightIdx int, state LightState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lights[lightIdx] = state
}

func (e *Environment) AnyGreen() bool {
	for _, state := range e.Lights() {
		if state == Green {
			return true
		}
	}
	return false
}

// Interval is the delay between two control cycles, it follows the light timings once the policy changed them
func (e *Environment) Interval(fallback time.Duration) time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.speedAdjusted {
		return fallback
	}
	seconds := (e.values[MinLightTime] + e.values[MaxLightTime]) / 2
	return time.Duration(seconds * float64(time.Second))
}

func (e *Environment) Parameters() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	parameters := make(map[string]float64, len(e.values)+len(e.lights))
	for name, value := range e.values {
		parameters[name] = value
	}
	for lightIdx, state := range e.lights {
		parameters[lightName(lightIdx)] = float64(state)
	}
	return parameters
}

func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = defaultValues()
	e.lights = [action.LightCount]LightState{}
	e.speedAdjusted = false
}

func (e *Environment) adjust(cfg environment.DifficultyConfig, parameter string, delta float64) {
	p := environment.Parameter{
		Name:   parameter,
		Value:  e.values[parameter],
		Bounds: bounds(cfg, parameter),
	}
	e.values[parameter] = p.Adjust(delta)
}

// orderLightTimes re-derives the min light time from the max one, the fallback ranges
// are used when the configured ones cannot be ordered
func (e *Environment) orderLightTimes(cfg environment.DifficultyConfig) {
	minTime, maxTime, ok := environment.Order(
		e.values[MinLightTime], e.values[MaxLightTime],
		bounds(cfg, MinLightTime), bounds(cfg, MaxLightTime),
		0,
	)
	if !ok {
		log.WithFields(logrus.Fields{
			"game":       Name,
			MinLightTime: bounds(cfg, MinLightTime),
			MaxLightTime: bounds(cfg, MaxLightTime),
		}).Warn("configured light time ranges cannot be ordered, using the default ranges")
		minTime, maxTime, _ = environment.Order(
			minTime, maxTime,
			fallbackBounds[MinLightTime], fallbackBounds[MaxLightTime],
			0,
		)
	}
	e.values[MinLightTime] = minTime
	e.values[MaxLightTime] = maxTime
}

// Apply overrides the lights and updates their timings from the action adjustments
func (e *Environment) Apply(a action.Action, cfg environment.DifficultyConfig) error {
	adjustment, ok := a.Adjustment.(*action.LightAdjustment)
	if !ok {
		return action.NewInvalidActionError("expected light adjustments, got %T", a.Adjustment)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for lightIdx, state := range adjustment.LightStates {
		if state == action.KeepLight {
			continue
		}
		e.lights[lightIdx] = LightState(state)
	}

	if math.Abs(adjustment.LightSpeedChange) > changeThreshold {
		e.adjust(cfg, MinLightTime, adjustment.LightSpeedChange)
		e.adjust(cfg, MaxLightTime, adjustment.LightSpeedChange)
		if e.values[MinLightTime] > e.values[MaxLightTime] {
			e.orderLightTimes(cfg)
		}
		e.speedAdjusted = true
	}

	if math.Abs(adjustment.SpawnRateChange) > changeThreshold {
		e.adjust(cfg, SpawnRate, adjustment.SpawnRateChange)
	}

	log.WithFields(logrus.Fields{
		"game":       Name,
		"action":     a.Index,
		"lights":     e.lights,
		"min_time":   e.values[MinLightTime],
		"max_time":   e.values[MaxLightTime],
		"spawn_rate": e.values[SpawnRate],
	}).Debug("environment updated")
	return nil
}

func lightName(lightIdx int) string {
	return fmt.Sprintf("light_%d", lightIdx)
}
