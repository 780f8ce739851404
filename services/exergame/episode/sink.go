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

package episode

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// ResultSink is notified exactly once per finished episode
type ResultSink interface {
	ShowResult(outcome Outcome)
}

// ResultSinkFunc adapts a function to a ResultSink
type ResultSinkFunc func(outcome Outcome)

func (f ResultSinkFunc) ShowResult(outcome Outcome) {
	f(outcome)
}

// MultiSink forwards outcomes to several sinks
type MultiSink []ResultSink

func (sinks MultiSink) ShowResult(outcome Outcome) {
	for _, sink := range sinks {
		if sink != nil {
			sink.ShowResult(outcome)
		}
	}
}

// ConsoleSink prints the episode results for the player
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) ShowResult(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	banner := color.New(color.FgRed, color.Bold)
	if outcome.State == Won {
		banner = color.New(color.FgGreen, color.Bold)
	}
	_, _ = banner.Fprintf(s.out, "[%s] You %s!", outcome.Game, outcomeVerb(outcome.State))
	fmt.Fprintf(
		s.out,
		" %s, score %s after %s (ended %s)\n",
		outcome.Reason,
		humanize.Ftoa(outcome.Score),
		outcome.Elapsed.Round(time.Second),
		humanize.Time(outcome.EndedAt),
	)
}

func outcomeVerb(state State) string {
	if state == Won {
		return "win"
	}
	return "lose"
}
