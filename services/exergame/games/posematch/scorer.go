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

	"github.com/cogment/cogment-exergame/utils"
)

const (
	HistorySize = 5

	// Dwell time above the upper threshold to score a point
	aboveDwell = time.Second
	// Dwell time below the lower threshold to lose a point
	belowDwell = 2 * time.Second
)

// Frame is a snapshot of the pose matching progress
type Frame struct {
	Similarity float64
	History    []float64
	Score      int
	Successes  int
	Failures   int
	TimeAbove  time.Duration
	TimeBelow  time.Duration
	Animation  string
	Elapsed    time.Duration
}

func (f Frame) AverageSimilarity() float64 {
	if len(f.History) == 0 {
		return 0
	}
	sum := 0.0
	for _, similarity := range f.History {
		sum += similarity
	}
	return sum / float64(len(f.History))
}

// Scorer turns a stream of pose similarities into a score using dwell times around the thresholds.
// A point is won once per stay above the upper threshold and lost once per stay below the lower threshold.
type Scorer struct {
	mu          sync.Mutex
	env         *Environment
	frame       Frame
	scoredAbove bool
	scoredBelow bool
}

func NewScorer(env *Environment) *Scorer {
	return &Scorer{env: env}
}

// Observe records the similarity, in [0, 1], measured over the last dt
func (s *Scorer) Observe(similarity float64, animation string, dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	similarity = utils.Clamp01(similarity)
	s.frame.Similarity = similarity
	s.frame.Animation = animation
	s.frame.Elapsed += dt

	s.frame.History = append(s.frame.History, similarity)
	if len(s.frame.History) > HistorySize {
		s.frame.History = s.frame.History[len(s.frame.History)-HistorySize:]
	}

	upper, lower := s.env.Thresholds()
	percent := similarity * 100

	if percent >= upper {
		s.frame.TimeAbove += dt
		s.frame.TimeBelow = 0
		if s.frame.TimeAbove >= aboveDwell && !s.scoredAbove {
			s.frame.Score++
			s.frame.Successes++
			s.scoredAbove = true
			s.scoredBelow = false
		}
	} else {
		s.scoredAbove = false
		s.frame.TimeAbove = 0
	}

	if percent <= lower {
		s.frame.TimeBelow += dt
		s.frame.TimeAbove = 0
		if s.frame.TimeBelow >= belowDwell && !s.scoredBelow {
			s.frame.Score = int(math.Max(0, float64(s.frame.Score-1)))
			s.frame.Failures++
			s.scoredBelow = true
			s.scoredAbove = false
		}
	} else {
		s.scoredBelow = false
		s.frame.TimeBelow = 0
	}
}

func (s *Scorer) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.frame
	frame.History = append([]float64(nil), s.frame.History...)
	return frame
}

func (s *Scorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = Frame{}
	s.scoredAbove = false
	s.scoredBelow = false
}
