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
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Seconds a limb holds a lantern before tossing it
const holdTime = 1.5

type heldLantern struct {
	limb Limb
	held float64
}

// Simulator is a synthetic player tossing lanterns toward the lights.
// Lights change on their own after a random delay between the min and max light times.
type Simulator struct {
	mu         sync.Mutex
	env        *Environment
	rand       *rand.Rand
	skill      float64
	frame      Frame
	pending    float64
	lanterns   []heldLantern
	lightTimes [LimbCount]float64
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
	s.lanterns = nil
	s.lightTimes = [LimbCount]float64{}
}

func (s *Simulator) updateLights(seconds float64) {
	minTime := s.env.Get(MinLightTime)
	maxTime := s.env.Get(MaxLightTime)
	for lightIdx := range s.lightTimes {
		s.lightTimes[lightIdx] -= seconds
		if s.lightTimes[lightIdx] > 0 {
			continue
		}
		s.env.SetLight(lightIdx, LightState(s.rand.Intn(3)))
		s.lightTimes[lightIdx] = minTime + s.rand.Float64()*(maxTime-minTime)
	}
}

// Step advances the simulation by dt
func (s *Simulator) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seconds := dt.Seconds()
	s.frame.Elapsed += dt
	s.updateLights(seconds)

	// The spawn rate is the delay in seconds between two lanterns
	if s.env.AnyGreen() {
		s.pending += seconds / s.env.Get(SpawnRate)
	}
	for s.pending >= 1 && len(s.lanterns) < MaxLanterns {
		s.pending--
		s.lanterns = append(s.lanterns, heldLantern{limb: Limb(s.rand.Intn(LimbCount))})
	}
	if len(s.lanterns) >= MaxLanterns {
		s.pending = 0
	}

	lights := s.env.Lights()
	remaining := s.lanterns[:0]
	for _, lantern := range s.lanterns {
		lantern.held += seconds
		if lantern.held < holdTime {
			remaining = append(remaining, lantern)
			continue
		}
		// A skilled player waits for the green light
		if lights[lantern.limb] == Green || s.rand.Float64() > s.skill {
			if lights[lantern.limb] == Green {
				s.frame.Hits++
			} else {
				s.frame.Misses++
			}
			continue
		}
		remaining = append(remaining, lantern)
	}
	s.lanterns = remaining

	s.frame.ActiveLanterns = len(s.lanterns)
	for limbIdx := range s.frame.Limbs {
		s.frame.Limbs[limbIdx].Active = false
		s.frame.Limbs[limbIdx].Position = [3]float64{
			float64(limbIdx%2)*0.4 - 0.2 + 0.05*s.rand.NormFloat64(),
			1 - float64(limbIdx%3)*0.4 + 0.05*s.rand.NormFloat64(),
			0.3 + 0.05*s.rand.NormFloat64(),
		}
	}
	for _, lantern := range s.lanterns {
		s.frame.Limbs[lantern.limb].Active = true
	}
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
