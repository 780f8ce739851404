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
	"time"

	"github.com/sirupsen/logrus"
)

// SessionRecord is a single session log entry of a mini-game
type SessionRecord struct {
	Game      string      `json:"game"`
	EpisodeID string      `json:"episode_id"`
	Time      time.Time   `json:"time"`
	Path      string      `json:"-"`
	Entry     interface{} `json:"entry"`
}

// SessionLogger is a best-effort sink for session logs
type SessionLogger interface {
	LogSession(ctx context.Context, record SessionRecord) error
}

// HTTPSessionLogger posts session logs to the policy service
type HTTPSessionLogger struct {
	transport *Transport
}

func NewHTTPSessionLogger(transport *Transport) *HTTPSessionLogger {
	return &HTTPSessionLogger{transport: transport}
}

func (l *HTTPSessionLogger) LogSession(ctx context.Context, record SessionRecord) error {
	if record.Path == "" {
		return nil
	}
	_, err := l.transport.Post(ctx, record.Game, record.Path, record.Entry)
	if err != nil {
		log.WithFields(logrus.Fields{
			"game":  record.Game,
			"error": err,
		}).Debug("unable to store session log")
	}
	return err
}
