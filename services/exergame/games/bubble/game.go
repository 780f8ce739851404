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
	"math"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "bubble")

const Name = "bubble_pop"

const (
	StateLength     = 13
	MinActionLength = 7

	DefaultInterval    = 25 * time.Second
	DefaultTargetScore = 30
	DefaultTimeLimit   = 180 * time.Second

	// Reference duration of a session for the fatigue and engagement ratios
	sessionDuration = 180 * time.Second
	// Reaction time (in seconds per popped bubble) considered as fully engaged
	maxReactionTime = 3.0
)

// State vector layout
const (
	maxHandHeightIdx = iota
	armExtensionIdx
	stepLengthIdx
	handSpeedIdx
	smoothnessIdx
	bubbleXIdx
	bubbleYIdx
	bubbleZIdx
	bubbleSpeedIdx
	spawnAreaIdx
	successRateIdx
	fatigueIdx
	levelIdx
)

var Weights = metrics.Weights{
	Fatigue:    metrics.FatigueWeights{Error: 0.5, Movement: 0.3, Time: 0.2},
	Engagement: metrics.EngagementWeights{Task: 0.5, Active: 0.3, Reaction: 0.2},
	Success:    metrics.SuccessWeights{Accuracy: 0.6, Smoothness: 0.4},
}

var DefaultConfig = environment.DifficultyConfig{
	Game:        Name,
	Difficulty:  environment.Medium,
	TargetScore: DefaultTargetScore,
	TimeLimit:   DefaultTimeLimit.Seconds(),
}

// Frame is a snapshot of the player and bubbles telemetry
type Frame struct {
	MaxHandHeight     float64
	ArmExtension      float64
	StepLength        float64
	LeftHandVelocity  float64
	RightHandVelocity float64
	BubblePosition    [3]float64
	Popped            int
	TotalBubbles      int
	Elapsed           time.Duration
}

// Telemetry is the source of the bubble popping frames
type Telemetry interface {
	Frame() Frame
}

type resetter interface {
	Reset()
}

// Game is the bubble popping mini-game as seen by the adaptive loop
type Game struct {
	telemetry Telemetry
	env       *Environment
	config    environment.DifficultyConfig
	interval  time.Duration
	sampler   *sampler.Sampler
	rewards   reward.Table
}

func New(telemetry Telemetry, env *Environment, cfg environment.DifficultyConfig, interval time.Duration) *Game {
	if interval <= 0 {
		interval = DefaultInterval
	}
	g := &Game{
		telemetry: telemetry,
		env:       env,
		config:    cfg,
		interval:  interval,
	}
	g.sampler = sampler.New(sampler.Shape{Length: StateLength}, g.collect)
	g.rewards = Rewards(cfg)
	return g
}

func counters(f Frame) metrics.Counters {
	errors := math.Max(0, float64(f.TotalBubbles-f.Popped))
	elapsed := f.Elapsed.Seconds()
	popped := float64(f.Popped)
	total := float64(f.TotalBubbles)
	return metrics.Counters{
		Errors:     metrics.Ratio{Num: errors, Den: total},
		Movement:   metrics.VelocityScore([]float64{f.LeftHandVelocity, f.RightHandVelocity}),
		Time:       metrics.Ratio{Num: elapsed, Den: sessionDuration.Seconds()},
		Task:       metrics.Ratio{Num: popped, Den: total},
		Active:     metrics.Ratio{Num: elapsed, Den: sessionDuration.Seconds()},
		Reaction:   metrics.Ratio{Num: elapsed / math.Max(1, popped), Den: maxReactionTime},
		Accuracy:   metrics.Ratio{Num: popped, Den: total},
		Smoothness: metrics.Ratio{Num: smoothness(f.LeftHandVelocity, f.RightHandVelocity), Den: 1},
	}
}

func (g *Game) collect() []float64 {
	f := g.telemetry.Frame()
	m := metrics.Compute(Weights, counters(f))
	return []float64{
		f.MaxHandHeight,
		f.ArmExtension,
		f.StepLength,
		(f.LeftHandVelocity + f.RightHandVelocity) * 0.5,
		smoothness(f.LeftHandVelocity, f.RightHandVelocity),
		f.BubblePosition[0],
		f.BubblePosition[1],
		f.BubblePosition[2],
		g.env.Get(BubbleSpeed),
		g.env.Get(SpawnArea),
		m.SuccessRate,
		m.Fatigue,
		g.config.Level(),
	}
}

func (g *Game) Name() string {
	return Name
}

func (g *Game) Interval() time.Duration {
	return g.interval
}

func (g *Game) Weights() metrics.Weights {
	return Weights
}

func (g *Game) Thresholds() episode.Thresholds {
	return episode.Thresholds{
		Win:       g.config.TargetScoreOr(DefaultTargetScore),
		TimeLimit: g.config.TimeLimitOr(DefaultTimeLimit),
	}
}

func (g *Game) Rewards() reward.Table {
	return g.rewards
}

func (g *Game) Codec() policy.Codec {
	return Codec{}
}

func (g *Game) Sample() sampler.StateVector {
	return g.sampler.Sample()
}

func (g *Game) Counters() metrics.Counters {
	return counters(g.telemetry.Frame())
}

func (g *Game) Score() float64 {
	return float64(g.telemetry.Frame().Popped)
}

func (g *Game) Apply(a action.Action) error {
	return g.env.Apply(a, g.config)
}

func (g *Game) Parameters() map[string]float64 {
	return g.env.Parameters()
}

// SessionLog is only archived locally, the bubble service doesn't store sessions
func (g *Game) SessionLog(state sampler.StateVector, m metrics.Metrics) interface{} {
	f := g.telemetry.Frame()
	return map[string]interface{}{
		"time":          f.Elapsed.Seconds(),
		"state":         state,
		"popped":        f.Popped,
		"total_bubbles": f.TotalBubbles,
		"fatigue":       m.Fatigue,
		"engagement":    m.Engagement,
		"success_rate":  m.SuccessRate,
		"parameters":    g.env.Parameters(),
	}
}

func (g *Game) Reset() {
	g.env.Reset()
	if r, ok := g.telemetry.(resetter); ok {
		r.Reset()
	}
}
