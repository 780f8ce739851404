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
	"io"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetBorder(false)
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(header)
	return table
}

func colorizeStatus(status string) string {
	switch status {
	case "running", "won":
		return color.GreenString(status)
	case "lost":
		return color.RedString(status)
	case "stopped":
		return color.YellowString(status)
	default:
		return status
	}
}

func renderSessions(out io.Writer, snapshots []policy.Snapshot) {
	table := newTable(out, []string{
		"game",
		"status",
		"episode",
		"cycle",
		"score",
		"elapsed",
		"fatigue",
		"engagement",
		"success",
		"buffered",
		"flushes",
		"last error",
	})
	for _, snapshot := range snapshots {
		table.Append([]string{
			snapshot.Game,
			colorizeStatus(snapshot.Status),
			colorizeStatus(snapshot.Episode),
			humanize.Comma(int64(snapshot.Cycle)),
			humanize.FtoaWithDigits(snapshot.Score, 2),
			secondsDuration(snapshot.ElapsedSeconds).String(),
			humanize.FtoaWithDigits(snapshot.Metrics.Fatigue, 3),
			humanize.FtoaWithDigits(snapshot.Metrics.Engagement, 3),
			humanize.FtoaWithDigits(snapshot.Metrics.SuccessRate, 3),
			fmt.Sprintf("%d", snapshot.Buffered),
			fmt.Sprintf("%d", snapshot.Flushes),
			snapshot.LastError,
		})
	}
	table.SetCaption(true, fmt.Sprintf("%d sessions", len(snapshots)))
	table.Render()
}

func renderEntries(out io.Writer, game string, entries []recorder.Entry) {
	table := newTable(out, []string{
		"seq",
		"episode id",
		"time",
		"data",
	})
	for _, entry := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", entry.Seq),
			entry.EpisodeID,
			humanize.Time(entry.Time),
			string(entry.Data),
		})
	}
	table.SetCaption(true, fmt.Sprintf("%d session logs retrieved for [%s]", len(entries), game))
	table.Render()
}

func renderOutcomes(out io.Writer, game string, outcomes []episode.Outcome) {
	table := newTable(out, []string{
		"episode id",
		"result",
		"reason",
		"score",
		"elapsed",
		"ended",
	})
	won := 0
	for _, outcome := range outcomes {
		if outcome.Result == episode.Won.String() {
			won++
		}
		table.Append([]string{
			outcome.EpisodeID,
			colorizeStatus(outcome.Result),
			outcome.Reason,
			humanize.FtoaWithDigits(outcome.Score, 2),
			outcome.Elapsed.Round(time.Second).String(),
			humanize.Time(outcome.EndedAt),
		})
	}
	table.SetCaption(true, fmt.Sprintf("%d/%d episodes won for [%s]", won, len(outcomes), game))
	table.Render()
}
