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

package recorder

import (
	"errors"
	"fmt"
)

type UnexpectedError struct {
	Err error
}

func NewUnexpectedError(format string, a ...interface{}) *UnexpectedError {
	return &UnexpectedError{Err: fmt.Errorf(format, a...)}
}

func (err *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected archive error: %s", err.Err)
}

func (err *UnexpectedError) Unwrap() error {
	return err.Err
}

var ErrUnknownGame = errors.New("no archived data for this mini-game")
