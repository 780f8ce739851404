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

package client

import (
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// outcomesViper represents the configuration of the `exergame client outcomes` command
var outcomesViper = viper.New()

const outcomesArchiveFileKey = "archive_file"

func init() {
	outcomesViper.SetDefault(outcomesArchiveFileKey, "")
	outcomesCmd.Flags().String(
		outcomesArchiveFileKey,
		outcomesViper.GetString(outcomesArchiveFileKey),
		"Read the outcomes from an archive file instead of the sessions api",
	)

	// Bind "cobra" flags defined in the CLI with viper
	_ = outcomesViper.BindPFlags(outcomesCmd.Flags())
}

var outcomesCmd = &cobra.Command{
	Use:     "outcomes GAME",
	Aliases: []string{"results"},
	Short:   "List the archived episode outcomes of a mini-game",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		game := args[0]
		var outcomes []episode.Outcome
		if archiveFile := outcomesViper.GetString(outcomesArchiveFileKey); archiveFile != "" {
			outcomes, err = archivedOutcomes(archiveFile, game)
		} else {
			outcomes, err = fetchOutcomes(createClient(), game)
		}
		if err != nil {
			return err
		}

		switch consoleOutputFormat {
		case text:
			renderOutcomes(cmd.OutOrStdout(), game, outcomes)
		case json:
			return renderJSON(cmd.OutOrStdout(), outcomes)
		}
		return nil
	},
}
