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
	"errors"
	"testing"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTelemetry struct {
	frame Frame
}

func (t *fixedTelemetry) Frame() Frame {
	return t.frame
}

func (t *fixedTelemetry) Reset() {
	t.frame = Frame{}
}

func zeroAction() action.Action {
	return action.NewContinuous(make([]float64, MinActionLength), &action.BubbleAdjustment{})
}

func TestZeroAdjustmentKeepsParameters(t *testing.T) {
	env := NewEnvironment()
	before := env.Parameters()

	require.NoError(t, env.Apply(zeroAction(), DefaultConfig))
	assert.Equal(t, before, env.Parameters())
}

func TestAdjustmentsAreClamped(t *testing.T) {
	env := NewEnvironment()
	cfg := DefaultConfig
	cfg.Bounds = map[string]environment.Bounds{
		BubbleSize: {Min: 0.3, Max: 0.8},
	}

	a := action.NewContinuous(make([]float64, MinActionLength), &action.BubbleAdjustment{
		BubbleSize:   2,
		PositiveProb: -3,
		NegativeProb: 0.25,
		SpawnRate:    0.2,
	})
	require.NoError(t, env.Apply(a, cfg))

	assert.Equal(t, 0.8, env.Get(BubbleSize))
	assert.Equal(t, 0.0, env.Get(PositiveProb))
	assert.Equal(t, 0.75, env.Get(NegativeProb))
	assert.InDelta(t, 0.7, env.Get(SpawnRate), 1e-9)
	// Bubble speed is already at its max
	assert.Equal(t, 1.0, env.Get(BubbleSpeed))

	a = action.NewContinuous(make([]float64, MinActionLength), &action.BubbleAdjustment{SpawnRate: -0.5})
	require.NoError(t, env.Apply(a, cfg))
	assert.InDelta(t, 0.95, env.Get(BubbleSpeed), 1e-9)
	assert.InDelta(t, 0.2, env.Get(SpawnRate), 1e-9)

	env.Reset()
	assert.Equal(t, defaultValues(), env.Parameters())
}

func TestApplyRejectsForeignAdjustment(t *testing.T) {
	env := NewEnvironment()
	a := action.NewDiscrete(1, &action.LightAdjustment{})

	var invalidErr *action.InvalidActionError
	assert.True(t, errors.As(env.Apply(a, DefaultConfig), &invalidErr))
}

func TestDecodeAction(t *testing.T) {
	codec := Codec{}

	a, err := codec.DecodeAction([]byte(`{
		"action": [1, 0.5, 4, 1, 3.2, 0.4, 0.1],
		"adjustments": {"bubble_size": 0.1, "positive_prob": 0, "negative_prob": 0, "spawn_rate": 0},
		"log_prob": -1.2
	}`))
	require.NoError(t, err)
	assert.Equal(t, action.Continuous, a.Kind)
	assert.Len(t, a.Vector, 7)
	require.NotNil(t, a.LogProb)
	assert.Equal(t, -1.2, *a.LogProb)
	assert.Equal(t, 0.1, a.Adjustment.(*action.BubbleAdjustment).BubbleSize)

	var malformedErr *policy.MalformedResponseError
	_, err = codec.DecodeAction([]byte(`{"action": [1, 2, 3], "adjustments": {}}`))
	assert.True(t, errors.As(err, &malformedErr))

	_, err = codec.DecodeAction([]byte(`{"action": [1, 2, 3, 4, 5, 6, 7]}`))
	assert.True(t, errors.As(err, &malformedErr))

	_, err = codec.DecodeAction([]byte(`not json`))
	assert.True(t, errors.As(err, &malformedErr))
}

func TestSampleLength(t *testing.T) {
	telemetry := &fixedTelemetry{frame: Frame{
		MaxHandHeight:     1.5,
		LeftHandVelocity:  0.4,
		RightHandVelocity: 0.6,
		BubblePosition:    [3]float64{0.1, 1.2, 1.5},
		Popped:            3,
		TotalBubbles:      4,
		Elapsed:           30 * time.Second,
	}}
	g := New(telemetry, NewEnvironment(), DefaultConfig, 0)

	state := g.Sample()
	require.Len(t, state, StateLength)
	assert.Equal(t, 1.5, state[maxHandHeightIdx])
	assert.InDelta(t, 0.5, state[handSpeedIdx], 1e-9)
	assert.Equal(t, 1.0, state[bubbleSpeedIdx])
	assert.Equal(t, 3.0, state[spawnAreaIdx])
	assert.Equal(t, 1.0, state[levelIdx])
	assert.Equal(t, 3.0, g.Score())
	assert.Equal(t, DefaultInterval, g.Interval())

	thresholds := g.Thresholds()
	assert.Equal(t, float64(DefaultTargetScore), thresholds.Win)
	assert.Nil(t, thresholds.Lose)
	assert.Equal(t, DefaultTimeLimit, thresholds.TimeLimit)

	g.Reset()
	assert.Equal(t, 0.0, g.Score())
}

func TestRewardRangeChecks(t *testing.T) {
	table := Rewards(DefaultConfig)

	inRange := action.NewContinuous([]float64{1, 0.5, 4, 1, 3.2, 0.4, 0}, &action.BubbleAdjustment{})
	outOfRange := action.NewContinuous([]float64{9, 2, 0, -1, 0.2, 3, 0}, &action.BubbleAdjustment{})

	breakdown := table.Breakdown(reward.Input{Action: inRange})
	for _, name := range []string{
		"spawn_area_range", "bubble_speed_range", "bubble_lifetime_range",
		"spawn_height_range", "num_bubbles_range", "bubble_size_range",
	} {
		assert.Equal(t, 1.0, breakdown[name], name)
	}

	breakdown = table.Breakdown(reward.Input{Action: outOfRange})
	for _, name := range []string{
		"spawn_area_range", "bubble_speed_range", "bubble_lifetime_range",
		"spawn_height_range", "num_bubbles_range", "bubble_size_range",
	} {
		assert.Equal(t, -1.0, breakdown[name], name)
	}

	next := make([]float64, StateLength)
	next[successRateIdx] = 0.5
	next[handSpeedIdx] = 0.4
	next[fatigueIdx] = 0.3
	breakdown = table.Breakdown(reward.Input{Action: inRange, Next: next})
	assert.Equal(t, 1.0, breakdown["success"])
	assert.InDelta(t, 0.2, breakdown["hand_speed"], 1e-9)
	assert.InDelta(t, -0.3, breakdown["fatigue"], 1e-9)
}

func TestSimulatorProducesBubbles(t *testing.T) {
	env := NewEnvironment()
	sim := NewSimulator(env, 0.8, 42)

	for i := 0; i < 100; i++ {
		sim.Step(100 * time.Millisecond)
	}
	frame := sim.Frame()
	assert.Equal(t, 10*time.Second, frame.Elapsed)
	assert.Greater(t, frame.TotalBubbles, 0)
	assert.LessOrEqual(t, frame.Popped, frame.TotalBubbles)

	sim.Reset()
	assert.Equal(t, Frame{}, sim.Frame())
}
