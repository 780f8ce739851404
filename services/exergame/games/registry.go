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

package games

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/games/bubble"
	"github.com/cogment/cogment-exergame/services/exergame/games/lantern"
	"github.com/cogment/cogment-exergame/services/exergame/games/posematch"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
)

type UnknownGameError struct {
	Name  string
	Known []string
}

func NewUnknownGameError(name string, known []string) *UnknownGameError {
	return &UnknownGameError{Name: name, Known: known}
}

func (err *UnknownGameError) Error() string {
	return fmt.Sprintf("unknown mini-game [%s], expected one of %v", err.Name, err.Known)
}

// Options drive the simulated telemetry of a mini-game instance
type Options struct {
	// Interval between two control cycles, the game default is used when zero
	Interval time.Duration
	// Skill of the simulated player in [0, 1]
	Skill float64
	Seed  int64
	// Tick of the telemetry simulation
	Tick time.Duration
}

var DefaultOptions = Options{
	Skill: 0.7,
	Seed:  1,
	Tick:  100 * time.Millisecond,
}

// Instance is a mini-game along with the simulation producing its telemetry
type Instance struct {
	Game policy.Game
	// Simulate runs until the context is done
	Simulate func(ctx context.Context)
}

type Factory func(cfg environment.DifficultyConfig, options Options) Instance

type registration struct {
	defaults environment.DifficultyConfig
	factory  Factory
}

// Registry maps mini-game names to their factories and default difficulty configs
type Registry struct {
	registrations map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{registrations: map[string]registration{}}
}

func (r *Registry) Register(name string, defaults environment.DifficultyConfig, factory Factory) {
	r.registrations[name] = registration{defaults: defaults, factory: factory}
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.registrations))
	for name := range r.registrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the default difficulty configs of every registered mini-game
func (r *Registry) Defaults() environment.StaticProvider {
	defaults := environment.StaticProvider{}
	for name, registration := range r.registrations {
		defaults[name] = registration.defaults
	}
	return defaults
}

// Config resolves the difficulty config of a mini-game, falling back on its defaults
func (r *Registry) Config(name string, provider environment.Provider) (environment.DifficultyConfig, error) {
	registration, ok := r.registrations[name]
	if !ok {
		return environment.DifficultyConfig{}, NewUnknownGameError(name, r.Names())
	}
	if provider == nil {
		return registration.defaults, nil
	}
	cfg, ok := provider.DifficultyConfig(name)
	if !ok {
		return registration.defaults, nil
	}
	return cfg.WithDefaults(registration.defaults)
}

func (r *Registry) Create(name string, provider environment.Provider, options Options) (Instance, error) {
	cfg, err := r.Config(name, provider)
	if err != nil {
		return Instance{}, err
	}
	if options.Tick <= 0 {
		options.Tick = DefaultOptions.Tick
	}
	return r.registrations[name].factory(cfg, options), nil
}

func newBubble(cfg environment.DifficultyConfig, options Options) Instance {
	env := bubble.NewEnvironment()
	simulator := bubble.NewSimulator(env, options.Skill, options.Seed)
	return Instance{
		Game: bubble.New(simulator, env, cfg, options.Interval),
		Simulate: func(ctx context.Context) {
			simulator.Run(ctx, options.Tick)
		},
	}
}

func newLantern(cfg environment.DifficultyConfig, options Options) Instance {
	env := lantern.NewEnvironment()
	simulator := lantern.NewSimulator(env, options.Skill, options.Seed)
	return Instance{
		Game: lantern.New(simulator, env, cfg, options.Interval),
		Simulate: func(ctx context.Context) {
			simulator.Run(ctx, options.Tick)
		},
	}
}

func newPoseMatch(cfg environment.DifficultyConfig, options Options) Instance {
	env := posematch.NewEnvironment()
	scorer := posematch.NewScorer(env)
	simulator := posematch.NewSimulator(env, scorer, options.Skill, options.Seed)
	return Instance{
		Game: posematch.New(scorer, env, cfg, options.Interval),
		Simulate: func(ctx context.Context) {
			simulator.Run(ctx, options.Tick)
		},
	}
}

// DefaultRegistry knows every mini-game of the suite
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(bubble.Name, bubble.DefaultConfig, newBubble)
	r.Register(lantern.Name, lantern.DefaultConfig, newLantern)
	r.Register(posematch.Name, posematch.DefaultConfig, newPoseMatch)
	return r
}
