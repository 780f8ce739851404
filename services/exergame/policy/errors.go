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
	"errors"
	"fmt"
)

// PolicyRequestError is raised when the policy service answers with a non 2xx status
type PolicyRequestError struct {
	Path       string
	StatusCode int
	Body       string
}

func NewPolicyRequestError(path string, statusCode int, body string) *PolicyRequestError {
	return &PolicyRequestError{Path: path, StatusCode: statusCode, Body: body}
}

func (err *PolicyRequestError) Error() string {
	return fmt.Sprintf("request to [%s] failed with status %d: %s", err.Path, err.StatusCode, err.Body)
}

// MalformedResponseError is raised when a policy response can't be decoded
type MalformedResponseError struct {
	Path string
	Err  error
}

func NewMalformedResponseError(path string, err error) *MalformedResponseError {
	return &MalformedResponseError{Path: path, Err: err}
}

func (err *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from [%s]: %s", err.Path, err.Err)
}

func (err *MalformedResponseError) Unwrap() error {
	return err.Err
}

// ErrUnexpected is raised when something unexpected occur, it shouldn't be raised by users input
var ErrUnexpected = errors.New("Unexpected Error")
