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

package bubble

import (
	"fmt"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/openlyinc/pointy"
)

const (
	ActionPath = "/ppo_action"
	TrainPath  = "/ppo_train"
)

// Codec speaks the continuous PPO protocol
type Codec struct{}

func (Codec) ActionPath() string {
	return ActionPath
}

func (Codec) TrainPath() string {
	return TrainPath
}

func (Codec) SessionLogPath() string {
	return ""
}

func (Codec) EncodeQuery(query policy.Query) interface{} {
	return policy.QueryPayload{
		State:      query.State,
		Fatigue:    query.Metrics.Fatigue,
		Engagement: query.Metrics.Engagement,
		Success:    pointy.Float64(query.Metrics.SuccessRate),
		SessionID:  query.SessionID,
	}
}

func (Codec) DecodeAction(body []byte) (action.Action, error) {
	adjustment := &action.BubbleAdjustment{}
	response, err := policy.DecodeActionResponse(ActionPath, body, adjustment)
	if err != nil {
		return action.Action{}, err
	}
	if len(response.Action) < MinActionLength {
		return action.Action{}, policy.NewMalformedResponseError(
			ActionPath,
			fmt.Errorf("expected at least %d action values, got %d", MinActionLength, len(response.Action)),
		)
	}
	return response.WithPolicyOutputs(action.NewContinuous(response.Action, adjustment)), nil
}

func (Codec) EncodeTraining(batch []experience.Transition, _ int) interface{} {
	return policy.TrainingPayload{
		Transitions: policy.EncodeTransitions(batch),
	}
}
