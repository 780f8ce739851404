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
	"context"
	"errors"
	"fmt"

	"github.com/cogment/cogment-exergame/cmd/services/utils"
	"github.com/cogment/cogment-exergame/services/exergame"
	"github.com/cogment/cogment-exergame/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sessionViper = viper.New()

const sessionPolicyEndpointKey = "policy_endpoint"
const sessionPolicyEndpointEnv = "EXERGAME_POLICY_ENDPOINT"
const sessionGamesKey = "games"
const sessionGamesEnv = "EXERGAME_GAMES"
const sessionDifficultyFileKey = "difficulty_file"
const sessionDifficultyFileEnv = "EXERGAME_DIFFICULTY_FILE"
const sessionTrainingKey = "training"
const sessionTrainingEnv = "EXERGAME_TRAINING"
const sessionBatchThresholdKey = "batch_threshold"
const sessionBatchThresholdEnv = "EXERGAME_BATCH_THRESHOLD"
const sessionIntervalKey = "interval"
const sessionIntervalEnv = "EXERGAME_INTERVAL"
const sessionWebPortKey = "web_port"
const sessionWebPortEnv = "EXERGAME_WEB_PORT"
const sessionArchiveFileKey = "archive_file"
const sessionArchiveFileEnv = "EXERGAME_ARCHIVE_FILE"
const sessionSecretKey = "secret"
const sessionSecretEnv = "EXERGAME_SECRET"
const sessionIDKey = "session_id"
const sessionIDEnv = "EXERGAME_SESSION_ID"
const sessionRequestTimeoutKey = "request_timeout"
const sessionRequestTimeoutEnv = "EXERGAME_REQUEST_TIMEOUT"
const sessionSkillKey = "skill"
const sessionSkillEnv = "EXERGAME_SIMULATED_SKILL"
const sessionSeedKey = "seed"
const sessionSeedEnv = "EXERGAME_SIMULATED_SEED"

func sessionOptions(cfg *viper.Viper) (exergame.Options, error) {
	options := exergame.Options{
		PolicyEndpoint: cfg.GetString(sessionPolicyEndpointKey),
		Games:          cfg.GetStringSlice(sessionGamesKey),
		DifficultyFile: cfg.GetString(sessionDifficultyFileKey),
		Training:       cfg.GetBool(sessionTrainingKey),
		BatchThreshold: cfg.GetInt(sessionBatchThresholdKey),
		Interval:       cfg.GetDuration(sessionIntervalKey),
		WebPort:        cfg.GetUint(sessionWebPortKey),
		ArchiveFile:    cfg.GetString(sessionArchiveFileKey),
		Secret:         cfg.GetString(sessionSecretKey),
		SessionID:      cfg.GetString(sessionIDKey),
		RequestTimeout: cfg.GetDuration(sessionRequestTimeoutKey),
		Skill:          cfg.GetFloat64(sessionSkillKey),
		Seed:           cfg.GetInt64(sessionSeedKey),
	}
	if options.PolicyEndpoint == "" {
		return options, fmt.Errorf("invalid argument \"--%s\" specified, expected a non empty url", sessionPolicyEndpointKey)
	}
	if len(options.Games) == 0 {
		return options, fmt.Errorf("invalid argument \"--%s\" specified, expected at least one mini-game", sessionGamesKey)
	}
	if options.BatchThreshold <= 0 {
		return options, fmt.Errorf(
			"invalid argument \"--%s\" specified, expected a strictly positive number",
			sessionBatchThresholdKey,
		)
	}
	if options.Interval < 0 {
		return options, fmt.Errorf("invalid argument \"--%s\" specified, expected a positive duration", sessionIntervalKey)
	}
	if options.RequestTimeout <= 0 {
		return options, fmt.Errorf(
			"invalid argument \"--%s\" specified, expected a strictly positive duration",
			sessionRequestTimeoutKey,
		)
	}
	if options.Skill < 0 || options.Skill > 1 {
		return options, fmt.Errorf("invalid argument \"--%s\" specified, expected a value in [0, 1]", sessionSkillKey)
	}
	return options, nil
}

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"adaptive_difficulty"},
	Short:   "Run the adaptive difficulty sessions of the mini-games",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		err := configureLog(servicesViper)
		if err != nil {
			return err
		}

		options, err := sessionOptions(sessionViper)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"version": version.Version,
			"hash":    version.Hash,
		}).Info("starting the adaptive difficulty service")

		ctx := utils.ContextWithUserTermination(context.Background())

		err = exergame.Run(ctx, options)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("interrupted by user")
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	defaults := exergame.DefaultOptions

	sessionViper.SetDefault(sessionPolicyEndpointKey, defaults.PolicyEndpoint)
	_ = sessionViper.BindEnv(sessionPolicyEndpointKey, sessionPolicyEndpointEnv)
	sessionCmd.Flags().String(
		sessionPolicyEndpointKey,
		sessionViper.GetString(sessionPolicyEndpointKey),
		"Base url of the policy service",
	)

	sessionViper.SetDefault(sessionGamesKey, defaults.Games)
	_ = sessionViper.BindEnv(sessionGamesKey, sessionGamesEnv)
	sessionCmd.Flags().StringSlice(
		sessionGamesKey,
		sessionViper.GetStringSlice(sessionGamesKey),
		"Mini-games to run",
	)

	sessionViper.SetDefault(sessionDifficultyFileKey, defaults.DifficultyFile)
	_ = sessionViper.BindEnv(sessionDifficultyFileKey, sessionDifficultyFileEnv)
	sessionCmd.Flags().String(
		sessionDifficultyFileKey,
		sessionViper.GetString(sessionDifficultyFileKey),
		"Yaml file overriding the difficulty configs of the mini-games",
	)

	sessionViper.SetDefault(sessionTrainingKey, defaults.Training)
	_ = sessionViper.BindEnv(sessionTrainingKey, sessionTrainingEnv)
	sessionCmd.Flags().Bool(
		sessionTrainingKey,
		sessionViper.GetBool(sessionTrainingKey),
		"Send the collected transitions to the policy for training",
	)

	sessionViper.SetDefault(sessionBatchThresholdKey, defaults.BatchThreshold)
	_ = sessionViper.BindEnv(sessionBatchThresholdKey, sessionBatchThresholdEnv)
	sessionCmd.Flags().Int(
		sessionBatchThresholdKey,
		sessionViper.GetInt(sessionBatchThresholdKey),
		"Number of buffered transitions triggering a training request",
	)

	sessionViper.SetDefault(sessionIntervalKey, defaults.Interval)
	_ = sessionViper.BindEnv(sessionIntervalKey, sessionIntervalEnv)
	sessionCmd.Flags().Duration(
		sessionIntervalKey,
		sessionViper.GetDuration(sessionIntervalKey),
		"Interval between two difficulty adjustments, 0 uses each mini-game's own interval",
	)

	sessionViper.SetDefault(sessionWebPortKey, defaults.WebPort)
	_ = sessionViper.BindEnv(sessionWebPortKey, sessionWebPortEnv)
	sessionCmd.Flags().Uint(
		sessionWebPortKey,
		sessionViper.GetUint(sessionWebPortKey),
		"The http port of the sessions api, 0 disables it",
	)

	sessionViper.SetDefault(sessionArchiveFileKey, defaults.ArchiveFile)
	_ = sessionViper.BindEnv(sessionArchiveFileKey, sessionArchiveFileEnv)
	sessionCmd.Flags().String(
		sessionArchiveFileKey,
		sessionViper.GetString(sessionArchiveFileKey),
		"File archiving the session logs and episode outcomes",
	)

	sessionViper.SetDefault(sessionSecretKey, defaults.Secret)
	_ = sessionViper.BindEnv(sessionSecretKey, sessionSecretEnv)
	sessionCmd.Flags().String(
		sessionSecretKey,
		sessionViper.GetString(sessionSecretKey),
		"Secret used to sign the policy requests",
	)

	sessionViper.SetDefault(sessionIDKey, defaults.SessionID)
	_ = sessionViper.BindEnv(sessionIDKey, sessionIDEnv)
	sessionCmd.Flags().String(
		sessionIDKey,
		sessionViper.GetString(sessionIDKey),
		"Identifier of the player session, generated when empty",
	)

	sessionViper.SetDefault(sessionRequestTimeoutKey, defaults.RequestTimeout)
	_ = sessionViper.BindEnv(sessionRequestTimeoutKey, sessionRequestTimeoutEnv)
	sessionCmd.Flags().Duration(
		sessionRequestTimeoutKey,
		sessionViper.GetDuration(sessionRequestTimeoutKey),
		"Timeout of the policy requests",
	)

	sessionViper.SetDefault(sessionSkillKey, defaults.Skill)
	_ = sessionViper.BindEnv(sessionSkillKey, sessionSkillEnv)
	sessionCmd.Flags().Float64(
		sessionSkillKey,
		sessionViper.GetFloat64(sessionSkillKey),
		"Skill of the simulated player in [0, 1]",
	)

	sessionViper.SetDefault(sessionSeedKey, defaults.Seed)
	_ = sessionViper.BindEnv(sessionSeedKey, sessionSeedEnv)
	sessionCmd.Flags().Int64(
		sessionSeedKey,
		sessionViper.GetInt64(sessionSeedKey),
		"Random seed of the simulated player",
	)

	// Don't sort alphabetically, keep insertion order
	sessionCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = sessionViper.BindPFlags(sessionCmd.Flags())
}
