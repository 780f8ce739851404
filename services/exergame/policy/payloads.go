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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cogment/cogment-exergame/services/exergame/action"
	"github.com/cogment/cogment-exergame/services/exergame/experience"
)

// QueryPayload is the JSON body of an action request
type QueryPayload struct {
	State      []float64 `json:"state"`
	Fatigue    float64   `json:"fatigue"`
	Engagement float64   `json:"engagement"`
	Success    *float64  `json:"success,omitempty"`
	Training   *bool     `json:"training,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
}

// ActionResponse is the JSON body answered by the policy service
type ActionResponse struct {
	Action      []float64       `json:"action"`
	ActionIndex *int            `json:"action_index"`
	Adjustments json.RawMessage `json:"adjustments"`
	LogProb     *float64        `json:"log_prob"`
	QValue      *float64        `json:"q_value"`
	Epsilon     *float64        `json:"epsilon"`
}

// TransitionPayload is the JSON representation of a transition
type TransitionPayload struct {
	State     []float64   `json:"state"`
	Action    interface{} `json:"action"`
	Reward    float64     `json:"reward"`
	NextState []float64   `json:"next_state"`
	Done      bool        `json:"done"`
	LogProb   *float64    `json:"log_prob,omitempty"`
}

// TrainingPayload is the JSON body of a training request
type TrainingPayload struct {
	Transitions  []TransitionPayload `json:"transitions"`
	BatchSize    *int                `json:"batch_size,omitempty"`
	Epochs       *int                `json:"epochs,omitempty"`
	NumUpdates   *int                `json:"num_updates,omitempty"`
	UpdateTarget *bool               `json:"update_target,omitempty"`
}

func EncodeTransitions(batch []experience.Transition) []TransitionPayload {
	payloads := make([]TransitionPayload, 0, len(batch))
	for _, transition := range batch {
		payloads = append(payloads, TransitionPayload{
			State:     transition.State,
			Action:    transition.Action.Payload(),
			Reward:    transition.Reward,
			NextState: transition.NextState,
			Done:      transition.Done,
			LogProb:   transition.LogProb,
		})
	}
	return payloads
}

// DecodeActionResponse parses a policy response and its adjustments into adjustment
func DecodeActionResponse(path string, body []byte, adjustment action.Adjustment) (ActionResponse, error) {
	response := ActionResponse{}
	err := json.Unmarshal(body, &response)
	if err != nil {
		return response, NewMalformedResponseError(path, err)
	}

	trimmed := bytes.TrimSpace(response.Adjustments)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return response, NewMalformedResponseError(path, fmt.Errorf("missing adjustments"))
	}
	err = json.Unmarshal(trimmed, adjustment)
	if err != nil {
		return response, NewMalformedResponseError(path, fmt.Errorf("invalid adjustments: %w", err))
	}
	err = adjustment.Validate()
	if err != nil {
		return response, NewMalformedResponseError(path, err)
	}
	return response, nil
}

// WithPolicyOutputs copies the optional policy outputs of the response to the action
func (response ActionResponse) WithPolicyOutputs(a action.Action) action.Action {
	a.LogProb = response.LogProb
	a.QValue = response.QValue
	a.Epsilon = response.Epsilon
	return a
}
