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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/openlyinc/pointy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poseAction(adjustment action.PoseAdjustment) action.Action {
	return action.NewContinuous([]float64{0, 0, 0, 0}, &adjustment)
}

func observeFor(scorer *Scorer, similarity float64, duration time.Duration) {
	const tick = 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < duration; elapsed += tick {
		scorer.Observe(similarity, "arms_up", tick)
	}
}

func TestZeroAdjustmentKeepsParameters(t *testing.T) {
	env := NewEnvironment()
	before := env.Parameters()

	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{}), DefaultConfig))
	assert.Equal(t, before, env.Parameters())
}

func TestThresholdsStayOrdered(t *testing.T) {
	env := NewEnvironment()

	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{
		UpperThresholdChange: -20,
		LowerThresholdChange: 20,
	}), DefaultConfig))
	upper, lower := env.Thresholds()
	assert.Equal(t, 70.0, upper)
	assert.Equal(t, 65.0, lower)

	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{GapChange: 20}), DefaultConfig))
	assert.Equal(t, 10*time.Second, env.GapBetweenActions())

	// The re-derived lower threshold stays in its configured range, the upper one makes room
	cfg := DefaultConfig
	cfg.Bounds = map[string]environment.Bounds{
		UpperThreshold: {Min: 60, Max: 95},
		LowerThreshold: {Min: 58, Max: 80},
	}
	env.Reset()
	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{
		UpperThresholdChange: -100,
		LowerThresholdChange: 100,
	}), cfg))
	upper, lower = env.Thresholds()
	assert.Equal(t, 63.0, upper)
	assert.Equal(t, 58.0, lower)

	// Ranges that cannot be ordered fall back on the default ones
	cfg.Bounds = map[string]environment.Bounds{
		UpperThreshold: {Min: 40, Max: 45},
		LowerThreshold: {Min: 50, Max: 80},
	}
	env.Reset()
	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{}), cfg))
	upper, lower = env.Thresholds()
	assert.Equal(t, 70.0, upper)
	assert.Equal(t, 50.0, lower)
}

func TestDifficultySwitching(t *testing.T) {
	env := NewEnvironment()

	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{DifficultyChange: 0.3}), DefaultConfig))
	assert.Equal(t, 0, env.DifficultyLevel())

	for i := 0; i < 3; i++ {
		require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{DifficultyChange: 0.9}), DefaultConfig))
	}
	assert.Equal(t, MaxDifficulty, env.DifficultyLevel())
	assert.Equal(t, "Hard", env.DifficultyName())
	assert.Equal(t, Animations[MaxDifficulty], env.Animations())

	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{DifficultyChange: -0.5}), DefaultConfig))
	assert.Equal(t, 1, env.DifficultyLevel())

	env.Reset()
	assert.Equal(t, 0, env.DifficultyLevel())
}

func TestApplyRejectsForeignAdjustment(t *testing.T) {
	var invalidErr *action.InvalidActionError
	err := NewEnvironment().Apply(action.NewDiscrete(0, &action.LightAdjustment{}), DefaultConfig)
	assert.True(t, errors.As(err, &invalidErr))
}

func TestScorerDwellTimes(t *testing.T) {
	scorer := NewScorer(NewEnvironment())

	// Not long enough above the upper threshold
	observeFor(scorer, 0.9, 500*time.Millisecond)
	assert.Equal(t, 0, scorer.Frame().Score)

	observeFor(scorer, 0.9, 600*time.Millisecond)
	assert.Equal(t, 1, scorer.Frame().Score)

	// Staying above doesn't score again
	observeFor(scorer, 0.9, 3*time.Second)
	assert.Equal(t, 1, scorer.Frame().Score)

	// Leaving and coming back scores again
	observeFor(scorer, 0.75, 500*time.Millisecond)
	observeFor(scorer, 0.9, 1100*time.Millisecond)
	assert.Equal(t, 2, scorer.Frame().Score)

	observeFor(scorer, 0.4, 2100*time.Millisecond)
	frame := scorer.Frame()
	assert.Equal(t, 1, frame.Score)
	assert.Equal(t, 2, frame.Successes)
	assert.Equal(t, 1, frame.Failures)
	assert.Len(t, frame.History, HistorySize)
	assert.InDelta(t, 0.4, frame.AverageSimilarity(), 1e-9)
}

func TestScoreFloor(t *testing.T) {
	scorer := NewScorer(NewEnvironment())

	observeFor(scorer, 0.1, 2100*time.Millisecond)
	assert.Equal(t, 0, scorer.Frame().Score)
	assert.Equal(t, 1, scorer.Frame().Failures)

	scorer.Reset()
	assert.Equal(t, Frame{}, scorer.Frame())
}

func TestSample(t *testing.T) {
	env := NewEnvironment()
	scorer := NewScorer(env)
	g := New(scorer, env, DefaultConfig, 0)

	state := g.Sample()
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0}, []float64(state))

	// Between the thresholds, neither scoring nor losing points
	scorer.Observe(0.75, "arms_up", time.Second)
	scorer.Observe(0.76, "arms_up", time.Second)
	require.NoError(t, env.Apply(poseAction(action.PoseAdjustment{DifficultyChange: 1}), DefaultConfig))

	state = g.Sample()
	require.Len(t, state, StateLength)
	assert.Equal(t, []float64{0.75, 0.76, 0, 0, 0}, []float64(state[:HistorySize]))
	assert.Equal(t, 0.5, state[difficultyIdx])

	thresholds := g.Thresholds()
	assert.Equal(t, 30.0, thresholds.Win)
	assert.Nil(t, thresholds.Lose)

	m := metrics.Compute(Weights, g.Counters())
	assert.Equal(t, 0.5, m.SuccessRate)
}

func TestDecodeAction(t *testing.T) {
	codec := Codec{}

	a, err := codec.DecodeAction([]byte(`{
		"action": [0.1, -0.2, 0.3, 0.5],
		"adjustments": {"upper_threshold_change": 0.1, "lower_threshold_change": -0.2, "gap_change": 0.3, "difficulty_change": 0.5},
		"log_prob": -0.7
	}`))
	require.NoError(t, err)
	assert.Equal(t, action.Continuous, a.Kind)
	require.NotNil(t, a.LogProb)
	assert.Equal(t, -0.7, *a.LogProb)
	assert.Equal(t, 0.5, a.Adjustment.(*action.PoseAdjustment).DifficultyChange)

	var malformedErr *policy.MalformedResponseError
	_, err = codec.DecodeAction([]byte(`{"action": [0, 0, 0, 0], "adjustments": {}}`))
	assert.True(t, errors.As(err, &malformedErr))

	_, err = codec.DecodeAction([]byte(`{"action": [0, 0], "adjustments": {}, "log_prob": 0}`))
	assert.True(t, errors.As(err, &malformedErr))
}

func TestEncodeTraining(t *testing.T) {
	batch := []experience.Transition{{
		State:     make([]float64, StateLength),
		Action:    poseAction(action.PoseAdjustment{}),
		NextState: make([]float64, StateLength),
		LogProb:   pointy.Float64(-0.3),
	}}

	body, err := json.Marshal(Codec{}.EncodeTraining(batch, 1))
	require.NoError(t, err)

	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, 64.0, payload["batch_size"])
	assert.Equal(t, 10.0, payload["epochs"])
	assert.NotContains(t, payload, "update_target")
	transition := payload["transitions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, -0.3, transition["log_prob"])
}

func TestRewards(t *testing.T) {
	in := reward.Input{
		Next:       []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0, 0},
		ScoreDelta: 1,
		Metrics:    metrics.Metrics{Fatigue: 0.5, Engagement: 0.2, SuccessRate: 0.4},
	}
	breakdown := Rewards.Breakdown(in)
	assert.Equal(t, 3.0, breakdown["score"])
	assert.Equal(t, 2.0, breakdown["similarity"])
	assert.Equal(t, -1.0, breakdown["fatigue"])
	assert.InDelta(t, 0.3, breakdown["engagement"], 1e-9)
	assert.Equal(t, 0.4, breakdown["success"])

	in.Next = []float64{0.75, 0.75, 0.75, 0.75, 0.75, 0, 0}
	assert.Equal(t, 1.0, Rewards.Breakdown(in)["similarity"])
	in.Next = []float64{0.6, 0.6, 0.6, 0.6, 0.6, 0, 0}
	assert.Equal(t, 0.0, Rewards.Breakdown(in)["similarity"])
	in.Next = []float64{0.2, 0.2, 0, 0, 0, 0, 0}
	assert.Equal(t, -1.0, Rewards.Breakdown(in)["similarity"])
}

func TestSessionLog(t *testing.T) {
	env := NewEnvironment()
	scorer := NewScorer(env)
	g := New(scorer, env, DefaultConfig, 0)
	scorer.Observe(0.85, "t_pose", 500*time.Millisecond)

	body, err := json.Marshal(g.SessionLog(g.Sample(), metrics.Metrics{}))
	require.NoError(t, err)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, 0.85, entry["similarity_current"])
	assert.Equal(t, "t_pose", entry["current_animation"])
	assert.Equal(t, 80.0, entry["upper_threshold"])
	assert.Equal(t, 0.5, entry["time_above_threshold"])
}

func TestSimulatorScores(t *testing.T) {
	env := NewEnvironment()
	scorer := NewScorer(env)
	sim := NewSimulator(env, scorer, 1, 3)
	for i := 0; i < 600; i++ {
		sim.Step(100 * time.Millisecond)
	}
	frame := scorer.Frame()
	assert.Equal(t, time.Minute, frame.Elapsed)
	assert.Greater(t, frame.Successes, 0)
	assert.Contains(t, Animations[0], frame.Animation)
}
