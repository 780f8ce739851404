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
	"math"
	"sync"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/sirupsen/logrus"
)

// Adjustable parameters
const (
	UpperThreshold = "upper_threshold"
	LowerThreshold = "lower_threshold"
	Gap            = "gap_between_actions"
	Difficulty     = "difficulty_level"
)

var fallbackBounds = map[string]environment.Bounds{
	UpperThreshold: {Min: 70, Max: 95},
	LowerThreshold: {Min: 50, Max: 80},
	Gap:            {Min: 2, Max: 10},
}

const (
	MaxDifficulty = 2
	// Difficulty changes by one level when the action exceeds this magnitude
	difficultyStep = 0.3
	// Margin restored between the thresholds when they cross
	thresholdMargin = 5
)

// Animations played at each difficulty level
var Animations = [MaxDifficulty + 1][]string{
	{"arms_up", "t_pose", "hands_on_hips"},
	{"side_bend", "squat", "lunge_left", "lunge_right"},
	{"jumping_jack", "knee_raise", "star_pose", "warrior"},
}

var difficultyNames = [MaxDifficulty + 1]string{"Easy", "Medium", "Hard"}

func bounds(cfg environment.DifficultyConfig, parameter string) environment.Bounds {
	return cfg.Bound(parameter, fallbackBounds[parameter])
}

// Environment holds the scoring thresholds and the animation settings
type Environment struct {
	mu     sync.RWMutex
	values map[string]float64
}

func defaultValues() map[string]float64 {
	return map[string]float64{
		UpperThreshold: 80,
		LowerThreshold: 70,
		Gap:            5,
		Difficulty:     0,
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

// Thresholds returns the upper and lower similarity thresholds, in percent
func (e *Environment) Thresholds() (float64, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.values[UpperThreshold], e.values[LowerThreshold]
}

func (e *Environment) GapBetweenActions() time.Duration {
	return time.Duration(e.Get(Gap) * float64(time.Second))
}

func (e *Environment) DifficultyLevel() int {
	return int(e.Get(Difficulty))
}

func (e *Environment) DifficultyName() string {
	return difficultyNames[e.DifficultyLevel()]
}

func (e *Environment) Animations() []string {
	return Animations[e.DifficultyLevel()]
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

// orderThresholds re-derives the lower threshold from the upper one, the fallback ranges
// are used when the configured ones cannot be ordered
func (e *Environment) orderThresholds(cfg environment.DifficultyConfig) {
	lower, upper, ok := environment.Order(
		e.values[LowerThreshold], e.values[UpperThreshold],
		bounds(cfg, LowerThreshold), bounds(cfg, UpperThreshold),
		thresholdMargin,
	)
	if !ok {
		log.WithFields(logrus.Fields{
			"game":         Name,
			LowerThreshold: bounds(cfg, LowerThreshold),
			UpperThreshold: bounds(cfg, UpperThreshold),
		}).Warn("configured threshold ranges cannot be ordered, using the default ranges")
		lower, upper, _ = environment.Order(
			lower, upper,
			fallbackBounds[LowerThreshold], fallbackBounds[UpperThreshold],
			thresholdMargin,
		)
	}
	e.values[LowerThreshold] = lower
	e.values[UpperThreshold] = upper
}

// Apply updates the thresholds, the gap between animations and the difficulty level
func (e *Environment) Apply(a action.Action, cfg environment.DifficultyConfig) error {
	adjustment, ok := a.Adjustment.(*action.PoseAdjustment)
	if !ok {
		return action.NewInvalidActionError("expected pose adjustments, got %T", a.Adjustment)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.adjust(cfg, UpperThreshold, adjustment.UpperThresholdChange)
	e.adjust(cfg, LowerThreshold, adjustment.LowerThresholdChange)
	if e.values[LowerThreshold] >= e.values[UpperThreshold] {
		e.orderThresholds(cfg)
	}

	e.adjust(cfg, Gap, adjustment.GapChange)

	previous := e.values[Difficulty]
	switch {
	case adjustment.DifficultyChange > difficultyStep:
		e.values[Difficulty] = math.Min(MaxDifficulty, previous+1)
	case adjustment.DifficultyChange < -difficultyStep:
		e.values[Difficulty] = math.Max(0, previous-1)
	}

	fields := logrus.Fields{
		"game":       Name,
		"upper":      e.values[UpperThreshold],
		"lower":      e.values[LowerThreshold],
		"gap":        e.values[Gap],
		"difficulty": difficultyNames[int(e.values[Difficulty])],
	}
	if previous != e.values[Difficulty] {
		log.WithFields(fields).Info("difficulty level switched")
	} else {
		log.WithFields(fields).Debug("environment updated")
	}
	return nil
}
