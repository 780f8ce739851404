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
	"math"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/cogment/cogment-exergame/utils"
	"github.com/openlyinc/pointy"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "lantern")

const Name = "lantern_toss"

const (
	StateLength = 10

	DefaultInterval    = 5 * time.Second
	DefaultTargetScore = 20
	DefaultLoseScore   = -10
	DefaultTimeLimit   = 120 * time.Second

	// Maximum number of lanterns in the air
	MaxLanterns = 5
	// Score at which the normalized score feature saturates
	scoreScale = 20.0
)

// State vector layout
const (
	limbsIdx          = 0
	lightsIdx         = limbsIdx + LimbCount
	activeLanternsIdx = lightsIdx + action.LightCount
	scoreIdx          = activeLanternsIdx + 1
)

type Limb int

const (
	LeftHand Limb = iota
	LeftLeg
	RightLeg
	RightHand
)

const LimbCount = 4

func (limb Limb) String() string {
	return [...]string{
		"left_hand",
		"left_leg",
		"right_leg",
		"right_hand",
	}[limb]
}

var Weights = metrics.Weights{
	Fatigue:    metrics.FatigueWeights{Error: 0.6, Time: 0.4},
	Engagement: metrics.EngagementWeights{Task: 0.5, Active: 0.3, Rest: 0.2},
	Success:    metrics.SuccessWeights{UseAttempts: true},
}

var DefaultConfig = environment.DifficultyConfig{
	Game:        Name,
	Difficulty:  environment.Medium,
	TargetScore: DefaultTargetScore,
	TimeLimit:   DefaultTimeLimit.Seconds(),
}

// LimbState is the tracked position of a limb and whether it currently holds a lantern
type LimbState struct {
	Position [3]float64
	Active   bool
}

// Frame is a snapshot of the lantern tossing telemetry
type Frame struct {
	Limbs          [LimbCount]LimbState
	Hits           int
	Misses         int
	ActiveLanterns int
	Elapsed        time.Duration
}

func (f Frame) Score() float64 {
	return float64(f.Hits - f.Misses)
}

func (f Frame) ActiveLimbs() int {
	count := 0
	for _, limb := range f.Limbs {
		if limb.Active {
			count++
		}
	}
	return count
}

// Telemetry is the source of the lantern tossing frames
type Telemetry interface {
	Frame() Frame
}

type resetter interface {
	Reset()
}

// Game is the lantern tossing mini-game as seen by the adaptive loop
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
	g.rewards = Rewards(telemetry)
	return g
}

func counters(f Frame) metrics.Counters {
	score := f.Score()
	return metrics.Counters{
		Errors:   metrics.Ratio{Num: math.Max(0, -score), Den: float64(f.ActiveLanterns) + math.Abs(score)},
		Time:     metrics.Ratio{Num: f.Elapsed.Seconds(), Den: DefaultTimeLimit.Seconds()},
		Task:     metrics.Ratio{Num: math.Max(0, score), Den: scoreScale},
		Active:   metrics.Ratio{Num: float64(f.ActiveLimbs()), Den: LimbCount},
		Attempts: metrics.Ratio{Num: float64(f.Hits), Den: float64(f.Hits + f.Misses)},
	}
}

func (g *Game) collect() []float64 {
	f := g.telemetry.Frame()
	state := make([]float64, 0, StateLength)
	for _, limb := range f.Limbs {
		state = append(state, reward.Indicator(limb.Active))
	}
	for _, light := range g.env.Lights() {
		state = append(state, float64(light))
	}
	return append(
		state,
		utils.Clamp01(float64(f.ActiveLanterns)/MaxLanterns),
		utils.Clamp(f.Score()/scoreScale, -1, 1),
	)
}

func (g *Game) Name() string {
	return Name
}

func (g *Game) Interval() time.Duration {
	return g.env.Interval(g.interval)
}

func (g *Game) Weights() metrics.Weights {
	return Weights
}

func (g *Game) Thresholds() episode.Thresholds {
	return episode.Thresholds{
		Win:       g.config.TargetScoreOr(DefaultTargetScore),
		Lose:      pointy.Float64(DefaultLoseScore),
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
	return g.telemetry.Frame().Score()
}

func (g *Game) Apply(a action.Action) error {
	return g.env.Apply(a, g.config)
}

func (g *Game) Parameters() map[string]float64 {
	return g.env.Parameters()
}

type limbLog struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Active bool    `json:"active"`
}

type sessionLog struct {
	Time           float64            `json:"time"`
	State          []float64          `json:"state"`
	Limbs          map[string]limbLog `json:"limbs"`
	LightStates    []string           `json:"light_states"`
	ActiveLanterns int                `json:"active_lanterns"`
	Score          float64            `json:"score"`
	Fatigue        float64            `json:"fatigue"`
	Engagement     float64            `json:"engagement"`
}

func (g *Game) SessionLog(state sampler.StateVector, m metrics.Metrics) interface{} {
	f := g.telemetry.Frame()
	limbs := make(map[string]limbLog, LimbCount)
	for limbIdx, limb := range f.Limbs {
		limbs[Limb(limbIdx).String()] = limbLog{
			X:      limb.Position[0],
			Y:      limb.Position[1],
			Z:      limb.Position[2],
			Active: limb.Active,
		}
	}
	lights := []string{}
	for _, light := range g.env.Lights() {
		lights = append(lights, light.String())
	}
	return sessionLog{
		Time:           f.Elapsed.Seconds(),
		State:          state,
		Limbs:          limbs,
		LightStates:    lights,
		ActiveLanterns: f.ActiveLanterns,
		Score:          f.Score(),
		Fatigue:        m.Fatigue,
		Engagement:     m.Engagement,
	}
}

func (g *Game) Reset() {
	g.env.Reset()
	if r, ok := g.telemetry.(resetter); ok {
		r.Reset()
	}
}
