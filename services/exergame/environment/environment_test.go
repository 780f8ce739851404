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

package environment

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	b := Bounds{Min: 0.2, Max: 1}

	assert.True(t, b.Valid())
	assert.Equal(t, 0.2, b.Clamp(-1))
	assert.Equal(t, 1.0, b.Clamp(3))
	assert.Equal(t, 0.5, b.Clamp(0.5))
	assert.True(t, b.Contains(1))
	assert.False(t, b.Contains(1.01))

	assert.False(t, Bounds{Min: 2, Max: 1}.Valid())
	assert.False(t, Bounds{Min: math.NaN(), Max: 1}.Valid())
}

func TestParameterAdjust(t *testing.T) {
	p := Parameter{Name: "bubble_size", Value: 0.5, Bounds: Bounds{Min: 0.2, Max: 1}}

	assert.Equal(t, 0.5, p.Adjust(0))
	assert.Equal(t, 1.0, p.Adjust(2))
	assert.Equal(t, 0.2, p.Adjust(-5))
	assert.Equal(t, 0.2, p.Adjust(math.NaN()))
	assert.Equal(t, 0.7, p.Set(0.7))
}

func TestOrder(t *testing.T) {
	var tests = []struct {
		name          string
		lower, upper  float64
		lowerBounds   Bounds
		upperBounds   Bounds
		margin        float64
		expectedLower float64
		expectedUpper float64
		expectedOk    bool
	}{
		{"ordered", 70, 80, Bounds{50, 80}, Bounds{70, 95}, 5, 70, 80, true},
		{"lower re-derived", 80, 70, Bounds{50, 80}, Bounds{70, 95}, 5, 65, 70, true},
		{"upper raised", 80, 60, Bounds{58, 80}, Bounds{60, 95}, 5, 58, 63, true},
		{"no margin", 10, 8, Bounds{0.5, 10}, Bounds{1, 8}, 0, 8, 8, true},
		{"unorderable", 10, 8, Bounds{9, 10}, Bounds{1, 8}, 0, 9, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper, ok := Order(tt.lower, tt.upper, tt.lowerBounds, tt.upperBounds, tt.margin)
			assert.Equal(t, tt.expectedOk, ok)
			assert.Equal(t, tt.expectedLower, lower)
			assert.Equal(t, tt.expectedUpper, upper)
			assert.True(t, tt.lowerBounds.Contains(lower))
			assert.True(t, tt.upperBounds.Contains(upper))
		})
	}
}

func TestBoundFallback(t *testing.T) {
	fallback := Bounds{Min: 1, Max: 10}
	cfg := DifficultyConfig{
		Game: "bubble_pop",
		Bounds: map[string]Bounds{
			"lifetime": {Min: 2, Max: 8},
			"broken":   {Min: 5, Max: 1},
		},
	}

	assert.Equal(t, Bounds{Min: 2, Max: 8}, cfg.Bound("lifetime", fallback))
	assert.Equal(t, fallback, cfg.Bound("broken", fallback))
	assert.Equal(t, fallback, cfg.Bound("missing", fallback))

	var invalidErr *InvalidBoundsError
	assert.True(t, errors.As(NewInvalidBoundsError("broken", Bounds{Min: 5, Max: 1}), &invalidErr))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 0.5, DifficultyConfig{Difficulty: Easy}.Level())
	assert.Equal(t, 1.0, DifficultyConfig{Difficulty: Medium}.Level())
	assert.Equal(t, 1.5, DifficultyConfig{Difficulty: Hard}.Level())
	assert.Equal(t, 1.0, DifficultyConfig{}.Level())
}

func TestDefaultsAccessors(t *testing.T) {
	assert.Equal(t, 180*time.Second, DifficultyConfig{}.TimeLimitOr(180*time.Second))
	assert.Equal(t, 90*time.Second, DifficultyConfig{TimeLimit: 90}.TimeLimitOr(180*time.Second))
	assert.Equal(t, 30.0, DifficultyConfig{}.TargetScoreOr(30))
	assert.Equal(t, 12.0, DifficultyConfig{TargetScore: 12}.TargetScoreOr(30))
}

func TestWithDefaultsKeepsMissingBoundsNil(t *testing.T) {
	defaults := DifficultyConfig{Game: "pose_match", Difficulty: Easy, TargetScore: 30}

	merged, err := DifficultyConfig{Game: "pose_match"}.WithDefaults(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, merged)
	assert.Nil(t, merged.Bounds)

	defaults.Bounds = map[string]Bounds{"gap_between_actions": {Min: 2, Max: 10}}
	merged, err = DifficultyConfig{Game: "pose_match"}.WithDefaults(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults.Bounds, merged.Bounds)

	// The merged bounds are a copy of the defaults
	merged.Bounds["gap_between_actions"] = Bounds{Min: 0, Max: 1}
	assert.Equal(t, Bounds{Min: 2, Max: 10}, defaults.Bounds["gap_between_actions"])
}

var testDefaults = StaticProvider{
	"bubble_pop": {
		Game:        "bubble_pop",
		Difficulty:  Medium,
		TargetScore: 30,
		TimeLimit:   180,
		Bounds: map[string]Bounds{
			"bubble_speed": {Min: 0.3, Max: 1},
			"bubble_size":  {Min: 0.2, Max: 1},
		},
	},
	"lantern_toss": {
		Game:        "lantern_toss",
		TargetScore: 20,
	},
}

const testDifficultyFile = `
games:
  - game_name: bubble_pop
    difficulty: Hard
    bounds:
      bubble_speed:
        min: 0.5
        max: 2
  - game_name: pose_match
    enabled: false
    target_score: 25
`

func TestLoadProvider(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/exergame/difficulty.yaml", []byte(testDifficultyFile), 0644))

	provider, err := LoadProvider(fs, "/etc/exergame/difficulty.yaml", testDefaults)
	require.NoError(t, err)

	bubble, ok := provider.DifficultyConfig("bubble_pop")
	require.True(t, ok)
	assert.Equal(t, Hard, bubble.Difficulty)
	assert.Equal(t, 30.0, bubble.TargetScore)
	assert.Equal(t, Bounds{Min: 0.5, Max: 2}, bubble.Bounds["bubble_speed"])
	assert.Equal(t, Bounds{Min: 0.2, Max: 1}, bubble.Bounds["bubble_size"])

	lantern, ok := provider.DifficultyConfig("lantern_toss")
	require.True(t, ok)
	assert.Equal(t, 20.0, lantern.TargetScore)

	pose, ok := provider.DifficultyConfig("pose_match")
	require.True(t, ok)
	assert.Equal(t, 25.0, pose.TargetScore)
	assert.False(t, pose.IsEnabled())
	assert.True(t, bubble.IsEnabled())

	_, ok = provider.DifficultyConfig("unknown")
	assert.False(t, ok)

	// The defaults are left untouched
	assert.Equal(t, Medium, testDefaults["bubble_pop"].Difficulty)
	assert.Equal(t, Bounds{Min: 0.3, Max: 1}, testDefaults["bubble_pop"].Bounds["bubble_speed"])
}

func TestLoadProviderExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory available")
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(
		fs,
		filepath.Join(home, "difficulty.yaml"),
		[]byte(testDifficultyFile),
		0644,
	))

	provider, err := LoadProvider(fs, "~"+string(os.PathSeparator)+"difficulty.yaml", nil)
	require.NoError(t, err)
	assert.Len(t, provider, 2)
}

func TestLoadProviderErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadProvider(fs, "/missing.yaml", testDefaults)
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("games: [[["), 0644))
	_, err = LoadProvider(fs, "/bad.yaml", testDefaults)
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/anonymous.yaml", []byte("games:\n  - difficulty: Easy\n"), 0644))
	_, err = LoadProvider(fs, "/anonymous.yaml", testDefaults)
	assert.Error(t, err)
}
