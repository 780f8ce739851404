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

package services

import (
	"testing"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)

	level, err = parseLogLevel(LogLevelOff)
	assert.NoError(t, err)
	assert.Equal(t, logrus.PanicLevel, level)

	_, err = parseLogLevel("fatal")
	assert.Error(t, err)
}

func TestConfigureLogInvalidFormat(t *testing.T) {
	cfg := viper.New()
	cfg.Set(servicesLogLevelKey, "info")
	cfg.Set(servicesLogFormatKey, "xml")
	assert.Error(t, configureLog(cfg))
}

func testSessionViper() *viper.Viper {
	cfg := viper.New()
	defaults := exergame.DefaultOptions
	cfg.Set(sessionPolicyEndpointKey, defaults.PolicyEndpoint)
	cfg.Set(sessionGamesKey, defaults.Games)
	cfg.Set(sessionTrainingKey, defaults.Training)
	cfg.Set(sessionBatchThresholdKey, defaults.BatchThreshold)
	cfg.Set(sessionIntervalKey, defaults.Interval)
	cfg.Set(sessionWebPortKey, defaults.WebPort)
	cfg.Set(sessionRequestTimeoutKey, defaults.RequestTimeout)
	cfg.Set(sessionSkillKey, defaults.Skill)
	cfg.Set(sessionSeedKey, defaults.Seed)
	return cfg
}

func TestSessionOptions(t *testing.T) {
	cfg := testSessionViper()
	cfg.Set(sessionIntervalKey, "2s")
	cfg.Set(sessionGamesKey, []string{"lantern_toss"})

	options, err := sessionOptions(cfg)
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, options.Interval)
	assert.Equal(t, []string{"lantern_toss"}, options.Games)
	assert.Equal(t, exergame.DefaultOptions.PolicyEndpoint, options.PolicyEndpoint)
	assert.Equal(t, exergame.DefaultOptions.BatchThreshold, options.BatchThreshold)
}

func TestSessionOptionsInvalid(t *testing.T) {
	var tests = []struct {
		key   string
		value interface{}
	}{
		{sessionPolicyEndpointKey, ""},
		{sessionGamesKey, []string{}},
		{sessionBatchThresholdKey, 0},
		{sessionIntervalKey, "-1s"},
		{sessionRequestTimeoutKey, "0s"},
		{sessionSkillKey, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := testSessionViper()
			cfg.Set(tt.key, tt.value)
			_, err := sessionOptions(cfg)
			assert.Error(t, err)
		})
	}
}
