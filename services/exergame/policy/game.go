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
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
	"github.com/cogment/cogment-exergame/services/exergame/metrics"
	"github.com/cogment/cogment-exergame/services/exergame/reward"
	"github.com/cogment/cogment-exergame/services/exergame/sampler"
)

// Query is the input of a policy request
type Query struct {
	SessionID string
	State     sampler.StateVector
	Metrics   metrics.Metrics
	Training  bool
}

// Codec translates between the control loop and the wire format of a policy service
type Codec interface {
	ActionPath() string
	TrainPath() string
	// SessionLogPath is empty when the service doesn't store session logs
	SessionLogPath() string
	EncodeQuery(query Query) interface{}
	DecodeAction(body []byte) (action.Action, error)
	EncodeTraining(batch []experience.Transition, flushIndex int) interface{}
}

// Game is a mini-game instance driven by a Client
type Game interface {
	Name() string
	Interval() time.Duration
	Weights() metrics.Weights
	Thresholds() episode.Thresholds
	Rewards() reward.Table
	Codec() Codec

	// Sample must not block
	Sample() sampler.StateVector
	Counters() metrics.Counters
	Score() float64
	Apply(a action.Action) error
	Parameters() map[string]float64
	// SessionLog returns nil when nothing should be logged
	SessionLog(state sampler.StateVector, m metrics.Metrics) interface{}
	Reset()
}
