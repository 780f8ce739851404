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
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status [GAME]",
	Aliases: []string{"ps"},
	Short:   "Show the state of the running sessions",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat()
		if err != nil {
			return err
		}

		client := createClient()

		var snapshots []policy.Snapshot
		if len(args) == 1 {
			snapshot, err := fetchSession(client, args[0])
			if err != nil {
				return err
			}
			snapshots = []policy.Snapshot{snapshot}
		} else {
			snapshots, err = fetchSessions(client)
			if err != nil {
				return err
			}
		}

		switch consoleOutputFormat {
		case text:
			renderSessions(cmd.OutOrStdout(), snapshots)
		case json:
			return renderJSON(cmd.OutOrStdout(), snapshots)
		}
		return nil
	},
}
