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
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Simulator is a synthetic player popping bubbles spawned from the environment parameters.
// It stands in for the headset telemetry when running without a device.
type Simulator struct {
	mu      sync.Mutex
	env     *Environment
	rand    *rand.Rand
	skill   float64
	frame   Frame
	pending float64
	phase   float64
}

func NewSimulator(env *Environment, skill float64, seed int64) *Simulator {
	return &Simulator{
		env:   env,
		rand:  rand.New(rand.NewSource(seed)),
		skill: math.Max(0, math.Min(1, skill)),
	}
}

func (s *Simulator) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = Frame{}
	s.pending = 0
	s.phase = 0
}

// Step advances the simulation by dt
func (s *Simulator) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seconds := dt.Seconds()
	s.frame.Elapsed += dt
	s.phase += seconds

	speed := s.env.Get(BubbleSpeed)
	size := s.env.Get(BubbleSize)
	height := s.env.Get(SpawnHeight)
	area := s.env.Get(SpawnArea)

	// Spawn rate is expressed in bubbles per second, capped by the number of simultaneous bubbles
	s.pending += s.env.Get(SpawnRate) * seconds * float64(s.env.NumBubbles())
	for s.pending >= 1 {
		s.pending--
		s.frame.TotalBubbles++

		// Bigger and slower bubbles are easier to pop
		chance := s.skill * (0.5 + 0.5*size) / (0.5 + 0.5*speed)
		if s.rand.Float64() < chance {
			s.frame.Popped++
		}
		s.frame.BubblePosition = [3]float64{
			(s.rand.Float64() - 0.5) * area,
			s.rand.Float64() * height,
			1 + s.rand.Float64(),
		}
	}

	fatigue := 1 - math.Exp(-s.frame.Elapsed.Seconds()/300)
	effort := s.skill * (1 - 0.5*fatigue)
	s.frame.MaxHandHeight = 1.2 + 0.6*effort + 0.05*s.rand.NormFloat64()
	s.frame.ArmExtension = 0.4 + 0.3*effort + 0.05*s.rand.NormFloat64()
	s.frame.StepLength = 0.2 + 0.3*effort*math.Abs(math.Sin(s.phase))
	s.frame.LeftHandVelocity = math.Abs(speed*effort*math.Sin(s.phase) + 0.1*s.rand.NormFloat64())
	s.frame.RightHandVelocity = math.Abs(speed*effort*math.Cos(s.phase) + 0.1*s.rand.NormFloat64())
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
