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

package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cogment/cogment-exergame/services/exergame/games"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "session")

var ErrSessionStopped = errors.New("session is not running")

// Session is a mini-game instance driven by its policy client
type Session struct {
	client   *policy.Client
	simulate func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	resetCh chan struct{}
}

func (s *Session) Name() string {
	return s.client.Game().Name()
}

func (s *Session) Client() *policy.Client {
	return s.client
}

func (s *Session) setRun(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
	s.running = cancel != nil
}

func (s *Session) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.cancel()
	return true
}

func (s *Session) reset() {
	select {
	case s.resetCh <- struct{}{}:
	default:
	}
	s.stop()
}

func (s *Session) runEpisode(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.setRun(cancel)
	defer s.setRun(nil)

	simulationDone := make(chan struct{})
	if s.simulate != nil {
		go func() {
			defer close(simulationDone)
			s.simulate(runCtx)
		}()
	} else {
		close(simulationDone)
	}

	err := s.client.Run(runCtx)
	cancel()
	<-simulationDone

	log := log.WithField("game", s.Name())
	if err != nil && ctx.Err() == nil {
		log.Info("session stopped")
	}
}

// run plays episodes until the context is done, a new episode only starts on reset
func (s *Session) run(ctx context.Context) error {
	for {
		s.runEpisode(ctx)
		select {
		case <-ctx.Done():
			s.client.WaitDetached()
			return nil
		case <-s.resetCh:
			s.client.WaitDetached()
			s.client.Reset()
			log.WithField("game", s.Name()).Info("session reset")
		}
	}
}

// Manager runs a set of independent sessions, one per mini-game
type Manager struct {
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Add registers a session, simulate is optional and runs alongside each episode
func (m *Manager) Add(client *policy.Client, simulate func(ctx context.Context)) *Session {
	s := &Session{
		client:   client,
		simulate: simulate,
		resetCh:  make(chan struct{}, 1),
	}
	m.sessions[s.Name()] = s
	return s
}

func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) session(game string) (*Session, error) {
	s, ok := m.sessions[game]
	if !ok {
		return nil, games.NewUnknownGameError(game, m.Names())
	}
	return s, nil
}

// Run blocks until the context is done
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range m.sessions {
		s := s
		g.Go(func() error {
			return s.run(ctx)
		})
	}
	return g.Wait()
}

func (m *Manager) List() []policy.Snapshot {
	snapshots := []policy.Snapshot{}
	for _, name := range m.Names() {
		snapshots = append(snapshots, m.sessions[name].client.Snapshot())
	}
	return snapshots
}

func (m *Manager) Get(game string) (policy.Snapshot, error) {
	s, err := m.session(game)
	if err != nil {
		return policy.Snapshot{}, err
	}
	return s.client.Snapshot(), nil
}

// Reset abandons the current episode, if any, and starts a new one
func (m *Manager) Reset(game string) error {
	s, err := m.session(game)
	if err != nil {
		return err
	}
	s.reset()
	return nil
}

// Stop abandons the current episode, the session waits for a reset
func (m *Manager) Stop(game string) error {
	s, err := m.session(game)
	if err != nil {
		return err
	}
	if !s.stop() {
		return ErrSessionStopped
	}
	return nil
}
