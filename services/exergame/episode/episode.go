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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "episode")

type State int

const (
	Running State = iota // Episode is being played
	Won                  // Target score reached
	Lost                 // Time limit or score floor reached
)

func (state State) String() string {
	return [...]string{
		"running",
		"won",
		"lost",
	}[state]
}

func (state State) IsTerminal() bool {
	return state != Running
}

// Thresholds are the termination conditions of a mini-game
type Thresholds struct {
	Win float64
	// Lose is optional, nil means the score can't make the player lose
	Lose      *float64
	TimeLimit time.Duration
}

// Outcome describes a finished episode
type Outcome struct {
	Game      string        `json:"game"`
	EpisodeID string        `json:"episode_id"`
	State     State         `json:"-"`
	Result    string        `json:"result"`
	Reason    string        `json:"reason"`
	Score     float64       `json:"score"`
	Elapsed   time.Duration `json:"elapsed"`
	EndedAt   time.Time     `json:"ended_at"`
}

// Clock returns the current time, injectable for tests
type Clock func() time.Time

// Machine tracks the state of the current episode, terminal states are latched
type Machine struct {
	mu sync.Mutex

	game       string
	thresholds Thresholds
	clock      Clock
	onTerminal func(Outcome)

	episodeID string
	startedAt time.Time
	state     State
	outcome   Outcome
}

func NewMachine(game string, thresholds Thresholds, onTerminal func(Outcome), clock Clock) *Machine {
	if clock == nil {
		clock = time.Now
	}
	m := &Machine{
		game:       game,
		thresholds: thresholds,
		clock:      clock,
		onTerminal: onTerminal,
	}
	m.Reset()
	return m
}

// Evaluate updates the episode state from the current score
func (m *Machine) Evaluate(score float64) State {
	m.mu.Lock()
	if m.state.IsTerminal() {
		state := m.state
		m.mu.Unlock()
		return state
	}

	now := m.clock()
	elapsed := now.Sub(m.startedAt)

	var reason string
	switch {
	case score >= m.thresholds.Win:
		m.state = Won
		reason = "target score reached"
	case m.thresholds.TimeLimit > 0 && elapsed >= m.thresholds.TimeLimit:
		m.state = Lost
		reason = "time limit reached"
	case m.thresholds.Lose != nil && score <= *m.thresholds.Lose:
		m.state = Lost
		reason = "score floor reached"
	default:
		m.mu.Unlock()
		return Running
	}

	m.outcome = Outcome{
		Game:      m.game,
		EpisodeID: m.episodeID,
		State:     m.state,
		Result:    m.state.String(),
		Reason:    reason,
		Score:     score,
		Elapsed:   elapsed,
		EndedAt:   now,
	}
	state := m.state
	outcome := m.outcome
	m.mu.Unlock()

	log.WithFields(logrus.Fields{
		"game":       outcome.Game,
		"episode_id": outcome.EpisodeID,
		"result":     outcome.Result,
		"reason":     outcome.Reason,
		"score":      outcome.Score,
	}).Info("episode ended")

	if m.onTerminal != nil {
		m.onTerminal(outcome)
	}
	return state
}

// Reset starts a new episode
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodeID = uuid.NewString()
	m.startedAt = m.clock()
	m.state = Running
	m.outcome = Outcome{}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) EpisodeID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.episodeID
}

func (m *Machine) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

// Elapsed is frozen once the episode is over
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.IsTerminal() {
		return m.outcome.Elapsed
	}
	return m.clock().Sub(m.startedAt)
}

func (m *Machine) Outcome() (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome, m.state.IsTerminal()
}

func (m *Machine) Thresholds() Thresholds {
	return m.thresholds
}
