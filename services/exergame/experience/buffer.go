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

package experience

import (
	"context"
	"errors"
	"sync"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "experience")

// DefaultThreshold is the number of transitions triggering a training flush
const DefaultThreshold = 5

// ErrFlushInProgress is returned when a flush is requested while another one is in flight
var ErrFlushInProgress = errors.New("a flush is already in progress")

// Transition is a single (state, action, reward, next state) experience
type Transition struct {
	ID        string
	State     sampler.StateVector
	Action    action.Action
	Reward    float64
	NextState sampler.StateVector
	Done      bool
	LogProb   *float64
}

// Trainer ships a batch of transitions to the training service
type Trainer interface {
	Train(ctx context.Context, batch []Transition) error
}

// Buffer is the ordered list of transitions awaiting a training request
type Buffer struct {
	// protects transitions, flushing and flushCount
	mu          sync.Mutex
	threshold   int
	transitions []Transition
	flushing    bool
	flushCount  int
}

func NewBuffer(threshold int) *Buffer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Buffer{
		threshold:   threshold,
		transitions: []Transition{},
	}
}

func (b *Buffer) Threshold() int {
	return b.threshold
}

func (b *Buffer) Append(transition Transition) {
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitions = append(b.transitions, transition)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transitions)
}

// Ready is true when the buffer reached its threshold and no flush is in flight
func (b *Buffer) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.flushing && len(b.transitions) >= b.threshold
}

func (b *Buffer) Flushing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushing
}

// FlushCount is the number of successful flushes
func (b *Buffer) FlushCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushCount
}

func (b *Buffer) Snapshot() []Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := make([]Transition, len(b.transitions))
	copy(snapshot, b.transitions)
	return snapshot
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitions = []Transition{}
}

// Flush sends the buffered transitions to the trainer.
//
// The lock is not held during the call, transitions appended meanwhile are kept.
// On success exactly the flushed transitions are removed, on failure nothing is.
func (b *Buffer) Flush(ctx context.Context, trainer Trainer) error {
	b.mu.Lock()
	if b.flushing {
		b.mu.Unlock()
		return ErrFlushInProgress
	}
	if len(b.transitions) == 0 {
		b.mu.Unlock()
		return nil
	}
	batch := make([]Transition, len(b.transitions))
	copy(batch, b.transitions)
	b.flushing = true
	b.mu.Unlock()

	err := trainer.Train(ctx, batch)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushing = false
	if err != nil {
		log.WithFields(logrus.Fields{
			"error": err,
			"kept":  len(b.transitions),
		}).Warn("unable to flush transitions")
		return err
	}
	b.flushCount++
	if len(b.transitions) < len(batch) || b.transitions[0].ID != batch[0].ID {
		// The buffer was cleared during the flush
		return nil
	}
	remaining := make([]Transition, len(b.transitions)-len(batch))
	copy(remaining, b.transitions[len(batch):])
	b.transitions = remaining
	log.WithField("flushed", len(batch)).Debug("transitions flushed")
	return nil
}
