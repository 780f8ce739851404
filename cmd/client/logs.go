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
	"fmt"

	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// logsViper represents the configuration of the `exergame client logs` command
var logsViper = viper.New()

const (
	logsLimitKey       = "limit"
	logsArchiveFileKey = "archive_file"
)

func init() {
	logsViper.SetDefault(logsLimitKey, 20)
	logsCmd.Flags().Uint(
		logsLimitKey,
		logsViper.GetUint(logsLimitKey),
		"Maximum number of session logs to retrieve",
	)

	logsViper.SetDefault(logsArchiveFileKey, "")
	logsCmd.Flags().String(
		logsArchiveFileKey,
		logsViper.GetString(logsArchiveFileKey),
		"Read the session logs from an archive file instead of the sessions api",
	)

	// Don't sort alphabetically, keep insertion order
	logsCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = logsViper.BindPFlags(logsCmd.Flags())
}

var logsCmd = &cobra.Command{
	Use:   "logs GAME",
	Short: "List the last archived session logs of a mini-game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		limit := logsViper.GetUint(logsLimitKey)
		if limit == 0 {
			return fmt.Errorf(
				"invalid argument \"--%s\" specified, expected a strictly positive number",
				logsLimitKey,
			)
		}

		game := args[0]
		var entries []recorder.Entry
		if archiveFile := logsViper.GetString(logsArchiveFileKey); archiveFile != "" {
			entries, err = archivedEntries(archiveFile, game, limit)
		} else {
			entries, err = fetchEntries(createClient(), game, limit)
		}
		if err != nil {
			return err
		}

		switch consoleOutputFormat {
		case text:
			renderEntries(cmd.OutOrStdout(), game, entries)
		case json:
			return renderJSON(cmd.OutOrStdout(), entries)
		}
		return nil
	},
}
