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
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/cogment/cogment-exergame/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "posematch")

const Name = "pose_match"

const (
	StateLength = HistorySize + 2

	DefaultInterval    = 5 * time.Second
	DefaultTargetScore = 30
	DefaultTimeLimit   = 180 * time.Second

	// Score at which the normalized score feature saturates
	scoreScale = 50.0
)

// State vector layout
const (
	historyIdx    = 0
	scoreIdx      = historyIdx + HistorySize
	difficultyIdx = scoreIdx + 1
)

var Weights = metrics.Weights{
	Fatigue:    metrics.FatigueWeights{Movement: 0.5, Time: 0.5},
	Engagement: metrics.EngagementWeights{Task: 0.5, Active: 0.3, Rest: 0.2},
	Success:    metrics.SuccessWeights{UseAttempts: true},
}

var DefaultConfig = environment.DifficultyConfig{
	Game:        Name,
	Difficulty:  environment.Easy,
	TargetScore: DefaultTargetScore,
	TimeLimit:   DefaultTimeLimit.Seconds(),
}

// Telemetry is the source of the pose matching frames, usually a Scorer
type Telemetry interface {
	Frame() Frame
}

type resetter interface {
	Reset()
}

// Game is the pose matching mini-game as seen by the adaptive loop
type Game struct {
	telemetry Telemetry
	env       *Environment
	config    environment.DifficultyConfig
	interval  time.Duration
	sampler   *sampler.Sampler
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
	return g
}

func counters(f Frame) metrics.Counters {
	similarity := f.AverageSimilarity()
	return metrics.Counters{
		Movement: similarity,
		Time:     metrics.Ratio{Num: f.Elapsed.Seconds(), Den: DefaultTimeLimit.Seconds()},
		Task:     metrics.Ratio{Num: similarity, Den: 1},
		Active:   metrics.Ratio{Num: float64(f.Score), Den: DefaultTargetScore},
		Attempts: metrics.Ratio{Num: float64(f.Successes), Den: float64(f.Successes + f.Failures)},
	}
}

func (g *Game) collect() []float64 {
	f := g.telemetry.Frame()
	state := make([]float64, HistorySize, StateLength)
	copy(state, f.History)
	return append(
		state,
		utils.Clamp01(float64(f.Score)/scoreScale),
		float64(g.env.DifficultyLevel())/MaxDifficulty,
	)
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
	return Rewards
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
	return float64(g.telemetry.Frame().Score)
}

func (g *Game) Apply(a action.Action) error {
	return g.env.Apply(a, g.config)
}

func (g *Game) Parameters() map[string]float64 {
	return g.env.Parameters()
}

type sessionLog struct {
	Time              float64 `json:"time"`
	SimilarityCurrent float64 `json:"similarity_current"`
	SimilarityAverage float64 `json:"similarity_avg_5s"`
	Score             int     `json:"score"`
	DifficultyLevel   int     `json:"difficulty_level"`
	UpperThreshold    float64 `json:"upper_threshold"`
	LowerThreshold    float64 `json:"lower_threshold"`
	GapBetweenActions float64 `json:"gap_between_actions"`
	CurrentAnimation  string  `json:"current_animation"`
	Fatigue           float64 `json:"fatigue"`
	Engagement        float64 `json:"engagement"`
	SuccessRate       float64 `json:"success_rate"`
	TimeAbove         float64 `json:"time_above_threshold"`
	TimeBelow         float64 `json:"time_below_threshold"`
}

func (g *Game) SessionLog(_ sampler.StateVector, m metrics.Metrics) interface{} {
	f := g.telemetry.Frame()
	upper, lower := g.env.Thresholds()
	return sessionLog{
		Time:              f.Elapsed.Seconds(),
		SimilarityCurrent: f.Similarity,
		SimilarityAverage: f.AverageSimilarity(),
		Score:             f.Score,
		DifficultyLevel:   g.env.DifficultyLevel(),
		UpperThreshold:    upper,
		LowerThreshold:    lower,
		GapBetweenActions: g.env.Get(Gap),
		CurrentAnimation:  f.Animation,
		Fatigue:           m.Fatigue,
		Engagement:        m.Engagement,
		SuccessRate:       m.SuccessRate,
		TimeAbove:         f.TimeAbove.Seconds(),
		TimeBelow:         f.TimeBelow.Seconds(),
	}
}

func (g *Game) Reset() {
	g.env.Reset()
	if r, ok := g.telemetry.(resetter); ok {
		r.Reset()
	}
}
