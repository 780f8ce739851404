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
	"fmt"
	"testing"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTrainer struct {
	mock.Mock
}

func (m *MockTrainer) Train(ctx context.Context, batch []Transition) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func fakeTransition(reward float64) Transition {
	return Transition{
		State:     sampler.StateVector{0, 1},
		Action:    action.NewDiscrete(1, &action.LightAdjustment{}),
		Reward:    reward,
		NextState: sampler.StateVector{1, 0},
	}
}

func newSut(threshold int) (*Buffer, *MockTrainer) {
	return NewBuffer(threshold), new(MockTrainer)
}

func TestDefaultThreshold(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, DefaultThreshold, b.Threshold())
}

func TestAppendAssignsIDs(t *testing.T) {
	b, _ := newSut(5)
	b.Append(fakeTransition(1))
	b.Append(Transition{ID: "fixed"})

	snapshot := b.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.NotEmpty(t, snapshot[0].ID)
	assert.Equal(t, "fixed", snapshot[1].ID)
}

func TestReadyAtThreshold(t *testing.T) {
	b, _ := newSut(5)
	for i := 0; i < 4; i++ {
		b.Append(fakeTransition(float64(i)))
		assert.False(t, b.Ready())
	}
	b.Append(fakeTransition(4))
	assert.True(t, b.Ready())
}

func TestFlushSuccessEmptiesBuffer(t *testing.T) {
	b, trainer := newSut(5)
	for i := 0; i < 5; i++ {
		b.Append(fakeTransition(float64(i)))
	}

	trainer.On("Train", mock.Anything, mock.MatchedBy(func(batch []Transition) bool {
		return len(batch) == 5 && batch[0].Reward == 0 && batch[4].Reward == 4
	})).Return(nil).Once()

	assert.NoError(t, b.Flush(context.Background(), trainer))
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, b.FlushCount())
	trainer.AssertExpectations(t)
}

func TestFlushFailureKeepsBuffer(t *testing.T) {
	b, trainer := newSut(5)
	for i := 0; i < 5; i++ {
		b.Append(fakeTransition(float64(i)))
	}

	trainer.On("Train", mock.Anything, mock.Anything).Return(fmt.Errorf("service unavailable")).Once()

	assert.Error(t, b.Flush(context.Background(), trainer))
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 0, b.FlushCount())
	assert.False(t, b.Flushing())
	trainer.AssertExpectations(t)
}

func TestFlushEmptyIsNoop(t *testing.T) {
	b, trainer := newSut(5)

	assert.NoError(t, b.Flush(context.Background(), trainer))
	trainer.AssertNotCalled(t, "Train", mock.Anything, mock.Anything)
}

// blockingTrainer lets the test interleave appends with an in-flight flush
type blockingTrainer struct {
	started chan struct{}
	release chan error
}

func (bt *blockingTrainer) Train(_ context.Context, _ []Transition) error {
	close(bt.started)
	return <-bt.release
}

func TestAppendDuringFlushIsKept(t *testing.T) {
	b, _ := newSut(2)
	b.Append(fakeTransition(0))
	b.Append(fakeTransition(1))

	trainer := &blockingTrainer{started: make(chan struct{}), release: make(chan error)}
	done := make(chan error)
	go func() {
		done <- b.Flush(context.Background(), trainer)
	}()

	<-trainer.started
	assert.True(t, b.Flushing())
	assert.False(t, b.Ready())
	assert.True(t, errors.Is(b.Flush(context.Background(), trainer), ErrFlushInProgress))

	b.Append(fakeTransition(2))
	trainer.release <- nil
	assert.NoError(t, <-done)

	snapshot := b.Snapshot()
	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2.0, snapshot[0].Reward)
}

func TestClearDuringFlush(t *testing.T) {
	b, _ := newSut(2)
	b.Append(fakeTransition(0))
	b.Append(fakeTransition(1))

	trainer := &blockingTrainer{started: make(chan struct{}), release: make(chan error)}
	done := make(chan error)
	go func() {
		done <- b.Flush(context.Background(), trainer)
	}()

	<-trainer.started
	b.Clear()
	b.Append(fakeTransition(3))
	trainer.release <- nil
	assert.NoError(t, <-done)

	assert.Equal(t, 1, b.Len())
}
