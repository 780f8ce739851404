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
	"errors"
	"testing"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/environment"
	"github.com/cogment/cogment-exergame/services/exergame/games/bubble"
	"github.com/cogment/cogment-exergame/services/exergame/games/lantern"
	"github.com/cogment/cogment-exergame/services/exergame/games/posematch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bubble_pop", "lantern_toss", "pose_match"}, DefaultRegistry().Names())
}

func TestWeightsAreValid(t *testing.T) {
	registry := DefaultRegistry()
	for _, name := range registry.Names() {
		instance, err := registry.Create(name, nil, DefaultOptions)
		require.NoError(t, err)
		assert.NoError(t, instance.Game.Weights().Validate(), name)
		assert.Equal(t, name, instance.Game.Name())
		assert.NotNil(t, instance.Simulate)
	}
}

func TestStateLengths(t *testing.T) {
	registry := DefaultRegistry()
	expected := map[string]int{
		bubble.Name:    bubble.StateLength,
		lantern.Name:   lantern.StateLength,
		posematch.Name: posematch.StateLength,
	}
	for name, length := range expected {
		instance, err := registry.Create(name, nil, DefaultOptions)
		require.NoError(t, err)
		assert.Len(t, instance.Game.Sample(), length, name)
	}
}

func TestUnknownGame(t *testing.T) {
	_, err := DefaultRegistry().Create("whack_a_mole", nil, DefaultOptions)

	var unknownErr *UnknownGameError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "whack_a_mole", unknownErr.Name)
}

func TestConfigFromProvider(t *testing.T) {
	registry := DefaultRegistry()
	provider := environment.StaticProvider{
		bubble.Name: {Game: bubble.Name, TargetScore: 10, TimeLimit: 60},
	}

	instance, err := registry.Create(bubble.Name, provider, Options{Interval: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 10.0, instance.Game.Thresholds().Win)
	assert.Equal(t, time.Minute, instance.Game.Thresholds().TimeLimit)
	assert.Equal(t, time.Second, instance.Game.Interval())

	cfg, err := registry.Config(lantern.Name, provider)
	require.NoError(t, err)
	assert.Equal(t, lantern.DefaultConfig, cfg)
}
