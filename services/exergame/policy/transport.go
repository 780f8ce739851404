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
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const DefaultRequestTimeout = 5 * time.Second

// Transport posts JSON payloads to the policy service
type Transport struct {
	client    *resty.Client
	sessionID string
	secret    string
}

func NewTransport(endpoint string, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	client := resty.New()
	client.SetHostURL(endpoint)
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	return &Transport{
		client: client,
	}
}

// WithSigning signs every request with a session token when secret is not empty
func (t *Transport) WithSigning(sessionID string, secret string) *Transport {
	t.sessionID = sessionID
	t.secret = secret
	return t
}

// Client exposes the underlying resty client
func (t *Transport) Client() *resty.Client {
	return t.client
}

func (t *Transport) Post(ctx context.Context, game string, path string, body interface{}) ([]byte, error) {
	request := t.client.R().SetContext(ctx).SetBody(body)
	if t.secret != "" {
		token, err := MakeAndSerializeToken(t.sessionID, game, t.secret)
		if err != nil {
			return nil, fmt.Errorf("unable to sign request to [%s]: %w", path, err)
		}
		request.SetAuthToken(token)
	}

	start := time.Now()
	response, err := request.Post(path)
	if err != nil {
		return nil, fmt.Errorf("request to [%s] failed: %w", path, err)
	}
	log.WithFields(logrus.Fields{
		"game":    game,
		"path":    path,
		"status":  response.StatusCode(),
		"latency": time.Since(start).Milliseconds(),
	}).Trace("policy request")

	if !response.IsSuccess() {
		return nil, NewPolicyRequestError(path, response.StatusCode(), response.String())
	}
	return response.Body(), nil
}
