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

package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Message string `json:"message"`
}

type apiMessage struct {
	Message string `json:"message"`
}

func createClient() *resty.Client {
	return resty.New().
		SetHostURL(clientViper.GetString(clientEndpointKey)).
		SetTimeout(clientViper.GetDuration(clientTimeoutKey))
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timeout (%v) exceeded", clientViper.GetDuration(clientTimeoutKey))
		}
		return err
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Message, resp.StatusCode())
		}
		return fmt.Errorf("unexpected response status %d", resp.StatusCode())
	}
	return nil
}

func sessionPath(game string) string {
	return "/sessions/" + url.PathEscape(game)
}

func fetchSessions(client *resty.Client) ([]policy.Snapshot, error) {
	snapshots := []policy.Snapshot{}
	resp, err := client.R().
		SetResult(&snapshots).
		SetError(&apiError{}).
		Get("/sessions")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func fetchSession(client *resty.Client, game string) (policy.Snapshot, error) {
	snapshot := policy.Snapshot{}
	resp, err := client.R().
		SetResult(&snapshot).
		SetError(&apiError{}).
		Get(sessionPath(game))
	if err := checkResponse(resp, err); err != nil {
		return policy.Snapshot{}, err
	}
	return snapshot, nil
}

func resetSession(client *resty.Client, game string) (string, error) {
	message := apiMessage{}
	resp, err := client.R().
		SetResult(&message).
		SetError(&apiError{}).
		Post(sessionPath(game) + "/reset")
	if err := checkResponse(resp, err); err != nil {
		return "", err
	}
	return message.Message, nil
}

func stopSession(client *resty.Client, game string) (string, error) {
	message := apiMessage{}
	resp, err := client.R().
		SetResult(&message).
		SetError(&apiError{}).
		Delete(sessionPath(game))
	if err := checkResponse(resp, err); err != nil {
		return "", err
	}
	return message.Message, nil
}

func fetchEntries(client *resty.Client, game string, limit uint) ([]recorder.Entry, error) {
	entries := []recorder.Entry{}
	resp, err := client.R().
		SetQueryParam("limit", strconv.FormatUint(uint64(limit), 10)).
		SetResult(&entries).
		SetError(&apiError{}).
		Get(sessionPath(game) + "/logs")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return entries, nil
}

func fetchOutcomes(client *resty.Client, game string) ([]episode.Outcome, error) {
	outcomes := []episode.Outcome{}
	resp, err := client.R().
		SetResult(&outcomes).
		SetError(&apiError{}).
		Get(sessionPath(game) + "/outcomes")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}
