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

package environment

import (
	"fmt"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "environment")

// DifficultyConfig is the read-only per mini-game configuration.
// Enabled is optional, a missing value means the mini-game is enabled.
type DifficultyConfig struct {
	Game            string            `yaml:"game_name" json:"game_name"`
	Enabled         *bool             `yaml:"enabled" json:"enabled,omitempty"`
	Difficulty      string            `yaml:"difficulty" json:"difficulty"`
	TargetScore     float64           `yaml:"target_score" json:"target_score"`
	TimeLimit       float64           `yaml:"time_limit" json:"time_limit"`
	GuidanceEnabled bool              `yaml:"guidance_enabled" json:"guidance_enabled"`
	Bounds          map[string]Bounds `yaml:"bounds" json:"bounds"`
}

const (
	Easy   = "Easy"
	Medium = "Medium"
	Hard   = "Hard"
)

func (cfg DifficultyConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Level is the numeric difficulty level fed to the policy
func (cfg DifficultyConfig) Level() float64 {
	switch cfg.Difficulty {
	case Easy:
		return 0.5
	case Hard:
		return 1.5
	default:
		return 1
	}
}

// Bound returns the configured bounds for a parameter or the fallback when missing or invalid
func (cfg DifficultyConfig) Bound(parameter string, fallback Bounds) Bounds {
	configured, ok := cfg.Bounds[parameter]
	if !ok {
		return fallback
	}
	if !configured.Valid() {
		log.WithFields(logrus.Fields{
			"game":     cfg.Game,
			"fallback": fallback.String(),
		}).Warn(NewInvalidBoundsError(parameter, configured).Error())
		return fallback
	}
	return configured
}

func (cfg DifficultyConfig) TimeLimitOr(fallback time.Duration) time.Duration {
	if cfg.TimeLimit <= 0 {
		return fallback
	}
	return time.Duration(cfg.TimeLimit * float64(time.Second))
}

func (cfg DifficultyConfig) TargetScoreOr(fallback float64) float64 {
	if cfg.TargetScore <= 0 {
		return fallback
	}
	return cfg.TargetScore
}

// WithDefaults fills the missing fields of cfg from defaults
func (cfg DifficultyConfig) WithDefaults(defaults DifficultyConfig) (DifficultyConfig, error) {
	merged := cfg
	if cfg.Bounds != nil || defaults.Bounds != nil {
		merged.Bounds = make(map[string]Bounds, len(cfg.Bounds))
		for name, bounds := range cfg.Bounds {
			merged.Bounds[name] = bounds
		}
	}
	err := mergo.Merge(&merged, defaults)
	if err != nil {
		return cfg, fmt.Errorf("unable to merge the difficulty config of [%s]: %w", cfg.Game, err)
	}
	return merged, nil
}

// Provider gives access to the difficulty config of a mini-game
type Provider interface {
	DifficultyConfig(game string) (DifficultyConfig, bool)
}

// Adapter applies actions to the mutable parameters of a mini-game
type Adapter interface {
	Apply(a action.Action, cfg DifficultyConfig) error
	Parameters() map[string]float64
}
