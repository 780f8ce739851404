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

package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "policy")

type clientStatus int

const (
	idle             clientStatus = iota // Waiting for the next cycle
	awaitingAction                       // Policy request in flight
	applying                             // Action being applied to the game
	awaitingTrainAck                     // Final training request in flight
	stopped                              // Loop is not running
)

func (status clientStatus) String() string {
	return [...]string{
		"idle",
		"awaiting_action",
		"applying",
		"awaiting_train_ack",
		"stopped",
	}[status]
}

const (
	DefaultFinalFlushTimeout = 10 * time.Second
	DefaultSessionLogTimeout = 2 * time.Second
)

type Options struct {
	SessionID string
	// Training enables the shipping of transitions to the training endpoint
	Training          bool
	Threshold         int
	FinalFlushTimeout time.Duration
	SessionLogTimeout time.Duration
	SessionLoggers    []SessionLogger
	Sink              episode.ResultSink
	Clock             episode.Clock
}

var DefaultOptions = Options{
	SessionID:         "",
	Training:          true,
	Threshold:         experience.DefaultThreshold,
	FinalFlushTimeout: DefaultFinalFlushTimeout,
	SessionLogTimeout: DefaultSessionLogTimeout,
}

// CycleResult reports what happened during one control cycle
type CycleResult struct {
	Cycle   int
	Applied bool
	Reward  float64
	Episode episode.State
	Err     error
}

// Snapshot is a point in time view of a client, served by the status API
type Snapshot struct {
	Game           string             `json:"game"`
	EpisodeID      string             `json:"episode_id"`
	Status         string             `json:"status"`
	Episode        string             `json:"episode"`
	Cycle          int                `json:"cycle"`
	Score          float64            `json:"score"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	Metrics        metrics.Metrics    `json:"metrics"`
	Buffered       int                `json:"buffered"`
	Flushing       bool               `json:"flushing"`
	Flushes        int                `json:"flushes"`
	LastReward     float64            `json:"last_reward"`
	LastError      string             `json:"last_error,omitempty"`
	IntervalMs     int64              `json:"interval_ms"`
	Parameters     map[string]float64 `json:"parameters"`
}

// Client drives the adaptive difficulty loop of one mini-game instance
type Client struct {
	// protects status, cycle, previous values and last results
	mu sync.RWMutex

	game      Game
	codec     Codec
	transport *Transport
	options   Options

	engine  *metrics.Engine
	buffer  *experience.Buffer
	machine *episode.Machine

	status     clientStatus
	cycle      int
	prevState  sampler.StateVector
	prevAction *action.Action
	prevScore  float64
	lastReward float64
	lastErr    error

	flushes  sync.WaitGroup
	detached sync.WaitGroup
}

func NewClient(game Game, transport *Transport, options Options) (*Client, error) {
	engine, err := metrics.NewEngine(game.Weights())
	if err != nil {
		return nil, err
	}
	if options.FinalFlushTimeout <= 0 {
		options.FinalFlushTimeout = DefaultFinalFlushTimeout
	}
	if options.SessionLogTimeout <= 0 {
		options.SessionLogTimeout = DefaultSessionLogTimeout
	}

	c := &Client{
		game:      game,
		codec:     game.Codec(),
		transport: transport,
		options:   options,
		engine:    engine,
		buffer:    experience.NewBuffer(options.Threshold),
		status:    stopped,
		prevScore: game.Score(),
	}
	c.machine = episode.NewMachine(game.Name(), game.Thresholds(), c.onTerminal, options.Clock)
	return c, nil
}

func (c *Client) onTerminal(outcome episode.Outcome) {
	if c.options.Sink != nil {
		c.options.Sink.ShowResult(outcome)
	}
}

func (c *Client) Game() Game {
	return c.game
}

func (c *Client) Buffer() *experience.Buffer {
	return c.buffer
}

func (c *Client) Episode() *episode.Machine {
	return c.machine
}

func (c *Client) setStatus(status clientStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Client) logger(cycle int) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"game":       c.game.Name(),
		"episode_id": c.machine.EpisodeID(),
		"cycle":      cycle,
	})
}

// Run executes control cycles until the episode ends or ctx is canceled
func (c *Client) Run(ctx context.Context) error {
	if c.machine.State().IsTerminal() {
		c.logger(c.Cycle()).Warn("episode already over, reset it before running")
		return nil
	}
	c.setStatus(idle)
	c.logger(0).WithField("interval", c.game.Interval()).Info("starting the adaptive loop")

	timer := time.NewTimer(c.game.Interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.setStatus(stopped)
			return ctx.Err()
		case <-timer.C:
		}

		result := c.RunCycle(ctx)
		if result.Episode.IsTerminal() {
			c.endEpisode()
			return nil
		}

		// The interval can be changed by the applied action
		timer.Reset(c.game.Interval())
	}
}

// RunCycle executes a single sample, query, apply, reward, record, flush sequence
func (c *Client) RunCycle(ctx context.Context) CycleResult {
	c.mu.Lock()
	c.cycle++
	cycle := c.cycle
	c.mu.Unlock()
	log := c.logger(cycle)

	state := c.game.Sample()
	m := c.engine.Update(c.game.Counters())
	c.logSession(ctx, state, m)

	c.setStatus(awaitingAction)
	body, err := c.transport.Post(ctx, c.game.Name(), c.codec.ActionPath(), c.codec.EncodeQuery(Query{
		SessionID: c.options.SessionID,
		State:     state,
		Metrics:   m,
		Training:  c.options.Training,
	}))
	if err != nil {
		return c.skip(ctx, log, cycle, err)
	}

	a, err := c.codec.DecodeAction(body)
	if err == nil {
		err = a.Validate()
	}
	if err != nil {
		return c.skip(ctx, log, cycle, err)
	}

	// Abandon the cycle without side effects on cancellation
	if ctx.Err() != nil {
		return c.skip(ctx, log, cycle, ctx.Err())
	}

	c.setStatus(applying)
	err = c.game.Apply(a)
	if err != nil {
		return c.skip(ctx, log, cycle, err)
	}

	next := c.game.Sample()
	score := c.game.Score()

	c.mu.Lock()
	scoreDelta := score - c.prevScore
	c.prevScore = score
	c.mu.Unlock()

	r := c.game.Rewards().Reward(reward.Input{
		Prev:       state,
		Action:     a,
		Next:       next,
		ScoreDelta: scoreDelta,
		Metrics:    m,
		Elapsed:    c.machine.Elapsed(),
	})

	episodeState := c.machine.Evaluate(score)
	done := episodeState.IsTerminal()

	c.mu.Lock()
	if c.prevState != nil && c.prevAction != nil {
		c.buffer.Append(experience.Transition{
			State:     c.prevState,
			Action:    *c.prevAction,
			Reward:    r,
			NextState: state,
			Done:      done,
			LogProb:   c.prevAction.LogProb,
		})
	}
	c.prevState = state
	c.prevAction = &a
	c.lastReward = r
	c.lastErr = nil
	c.status = idle
	c.mu.Unlock()

	if c.options.Training && !done && c.buffer.Ready() {
		c.flushAsync(ctx)
	}

	log.WithFields(logrus.Fields{
		"action":  a.String(),
		"reward":  r,
		"score":   score,
		"episode": episodeState.String(),
	}).Debug("cycle completed")

	return CycleResult{
		Cycle:   cycle,
		Applied: true,
		Reward:  r,
		Episode: episodeState,
	}
}

func (c *Client) skip(ctx context.Context, log *logrus.Entry, cycle int, err error) CycleResult {
	var episodeState episode.State
	if ctx.Err() != nil {
		log.WithField("error", err).Debug("cycle abandoned")
		episodeState = c.machine.State()
	} else {
		log.WithField("error", err).Warn("cycle skipped")
		// Time keeps running even when the policy service is unreachable
		episodeState = c.machine.Evaluate(c.game.Score())
	}

	c.mu.Lock()
	c.lastErr = err
	c.status = idle
	c.mu.Unlock()

	return CycleResult{
		Cycle:   cycle,
		Applied: false,
		Episode: episodeState,
		Err:     err,
	}
}

func (c *Client) logSession(ctx context.Context, state sampler.StateVector, m metrics.Metrics) {
	if len(c.options.SessionLoggers) == 0 {
		return
	}
	entry := c.game.SessionLog(state, m)
	if entry == nil {
		return
	}
	record := SessionRecord{
		Game:      c.game.Name(),
		EpisodeID: c.machine.EpisodeID(),
		Time:      time.Now(),
		Path:      c.codec.SessionLogPath(),
		Entry:     entry,
	}
	for _, logger := range c.options.SessionLoggers {
		c.detached.Add(1)
		go func(logger SessionLogger) {
			defer c.detached.Done()
			logCtx, cancel := context.WithTimeout(ctx, c.options.SessionLogTimeout)
			defer cancel()
			_ = logger.LogSession(logCtx, record)
		}(logger)
	}
}

type trainer struct {
	client *Client
}

func (t trainer) Train(ctx context.Context, batch []experience.Transition) error {
	c := t.client
	flushIndex := c.buffer.FlushCount() + 1
	_, err := c.transport.Post(ctx, c.game.Name(), c.codec.TrainPath(), c.codec.EncodeTraining(batch, flushIndex))
	return err
}

func (c *Client) flushAsync(ctx context.Context) {
	c.flushes.Add(1)
	go func() {
		defer c.flushes.Done()
		err := c.buffer.Flush(ctx, trainer{client: c})
		if err != nil && !errors.Is(err, experience.ErrFlushInProgress) {
			c.logger(c.Cycle()).WithField("error", err).Warn("training flush failed, transitions kept")
		}
	}()
}

func (c *Client) endEpisode() {
	log := c.logger(c.Cycle())
	c.flushes.Wait()

	if c.options.Training && c.buffer.Len() > 0 {
		c.setStatus(awaitingTrainAck)
		ctx, cancel := context.WithTimeout(context.Background(), c.options.FinalFlushTimeout)
		defer cancel()
		err := c.buffer.Flush(ctx, trainer{client: c})
		if err != nil {
			log.WithFields(logrus.Fields{
				"error": err,
				"kept":  c.buffer.Len(),
			}).Warn("final training flush failed")
		}
	}
	c.setStatus(stopped)
}

// Reset starts a new episode, it must not be called while Run is executing
func (c *Client) Reset() {
	c.flushes.Wait()
	c.machine.Reset()
	c.engine.Reset()
	c.buffer.Clear()
	c.game.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycle = 0
	c.prevState = nil
	c.prevAction = nil
	c.prevScore = c.game.Score()
	c.lastReward = 0
	c.lastErr = nil
	c.status = stopped
}

// WaitDetached waits for the in-flight session logs and training flushes
func (c *Client) WaitDetached() {
	c.flushes.Wait()
	c.detached.Wait()
}

func (c *Client) Cycle() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycle
}

func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	status := c.status
	cycle := c.cycle
	lastReward := c.lastReward
	lastErr := c.lastErr
	c.mu.RUnlock()

	snapshot := Snapshot{
		Game:           c.game.Name(),
		EpisodeID:      c.machine.EpisodeID(),
		Status:         status.String(),
		Episode:        c.machine.State().String(),
		Cycle:          cycle,
		Score:          c.game.Score(),
		ElapsedSeconds: c.machine.Elapsed().Seconds(),
		Metrics:        c.engine.Current(),
		Buffered:       c.buffer.Len(),
		Flushing:       c.buffer.Flushing(),
		Flushes:        c.buffer.FlushCount(),
		LastReward:     lastReward,
		IntervalMs:     c.game.Interval().Milliseconds(),
		Parameters:     c.game.Parameters(),
	}
	if lastErr != nil {
		snapshot.LastError = lastErr.Error()
	}
	return snapshot
}
