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
	"context"
	"math"
	"math/rand"
	"time"
)

// Simulator is a synthetic player imitating the animations played by the environment.
// It feeds its similarities to a Scorer.
type Simulator struct {
	env       *Environment
	scorer    *Scorer
	rand      *rand.Rand
	skill     float64
	animation string
	untilNext time.Duration
	onPose    time.Duration
}

func NewSimulator(env *Environment, scorer *Scorer, skill float64, seed int64) *Simulator {
	return &Simulator{
		env:    env,
		scorer: scorer,
		rand:   rand.New(rand.NewSource(seed)),
		skill:  math.Max(0, math.Min(1, skill)),
	}
}

// Step advances the simulation by dt, it isn't safe for concurrent use
func (s *Simulator) Step(dt time.Duration) {
	s.untilNext -= dt
	if s.untilNext <= 0 || s.animation == "" {
		animations := s.env.Animations()
		s.animation = animations[s.rand.Intn(len(animations))]
		s.untilNext = s.env.GapBetweenActions()
		s.onPose = 0
	}
	s.onPose += dt

	// The player needs some time to match a new pose, harder levels lower the reachable similarity
	ramp := 1 - math.Exp(-s.onPose.Seconds())
	level := float64(s.env.DifficultyLevel()) / MaxDifficulty
	target := s.skill * (1 - 0.25*level)
	similarity := target*ramp + 0.05*s.rand.NormFloat64()

	s.scorer.Observe(similarity, s.animation, dt)
}

// Run steps the simulation every tick until the context is done
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(tick)
		}
	}
}
