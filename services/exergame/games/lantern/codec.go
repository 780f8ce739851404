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

package lantern

import (
	"fmt"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/openlyinc/pointy"
)

const (
	ActionPath     = "/dqn_action"
	TrainPath      = "/dqn_train"
	SessionLogPath = "/store_rogl_session"

	numUpdates = 5
	// The target network is updated every targetUpdatePeriod flushes
	targetUpdatePeriod = 10
)

// Codec speaks the discrete DQN protocol
type Codec struct{}

func (Codec) ActionPath() string {
	return ActionPath
}

func (Codec) TrainPath() string {
	return TrainPath
}

func (Codec) SessionLogPath() string {
	return SessionLogPath
}

func (Codec) EncodeQuery(query policy.Query) interface{} {
	return policy.QueryPayload{
		State:      query.State,
		Fatigue:    query.Metrics.Fatigue,
		Engagement: query.Metrics.Engagement,
		Training:   pointy.Bool(query.Training),
		SessionID:  query.SessionID,
	}
}

func (Codec) DecodeAction(body []byte) (action.Action, error) {
	adjustment := &action.LightAdjustment{}
	response, err := policy.DecodeActionResponse(ActionPath, body, adjustment)
	if err != nil {
		return action.Action{}, err
	}
	if response.ActionIndex == nil {
		return action.Action{}, policy.NewMalformedResponseError(ActionPath, fmt.Errorf("missing action_index"))
	}
	if *response.ActionIndex < 0 {
		return action.Action{}, policy.NewMalformedResponseError(
			ActionPath,
			fmt.Errorf("invalid action_index %d", *response.ActionIndex),
		)
	}
	return response.WithPolicyOutputs(action.NewDiscrete(*response.ActionIndex, adjustment)), nil
}

func (Codec) EncodeTraining(batch []experience.Transition, flushIndex int) interface{} {
	return policy.TrainingPayload{
		Transitions:  policy.EncodeTransitions(batch),
		NumUpdates:   pointy.Int(numUpdates),
		UpdateTarget: pointy.Bool(flushIndex%targetUpdatePeriod == 0),
	}
}
