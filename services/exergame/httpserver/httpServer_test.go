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

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/games"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/cogment/cogment-exergame/services/exergame/session"
	"github.com/cogment/cogment-exergame/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) List() []policy.Snapshot {
	args := m.Called()
	return args.Get(0).([]policy.Snapshot)
}

func (m *MockSessionManager) Get(game string) (policy.Snapshot, error) {
	args := m.Called(game)
	return args.Get(0).(policy.Snapshot), args.Error(1)
}

func (m *MockSessionManager) Reset(game string) error {
	args := m.Called(game)
	return args.Error(0)
}

func (m *MockSessionManager) Stop(game string) error {
	args := m.Called(game)
	return args.Error(0)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Entries(game string, limit int) ([]recorder.Entry, error) {
	args := m.Called(game, limit)
	return args.Get(0).([]recorder.Entry), args.Error(1)
}

func (m *MockArchive) Outcomes(game string) ([]episode.Outcome, error) {
	args := m.Called(game)
	return args.Get(0).([]episode.Outcome), args.Error(1)
}

func request(server *Server, method string, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	server.Handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestInfo(t *testing.T) {
	server := New(0, &MockSessionManager{}, nil)

	w := request(server, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)

	info := map[string]string{}
	decode(t, w, &info)
	assert.Equal(t, version.Version, info["version"])
	assert.Equal(t, version.Hash, info["version_hash"])
	assert.NotEmpty(t, info["message"])
}

func TestListAndGetSessions(t *testing.T) {
	manager := &MockSessionManager{}
	snapshot := policy.Snapshot{Game: "bubble_pop", Status: "idle", Episode: "running", Cycle: 3}
	manager.On("List").Return([]policy.Snapshot{snapshot})
	manager.On("Get", "bubble_pop").Return(snapshot, nil)
	manager.On("Get", "whack_a_mole").Return(policy.Snapshot{}, games.NewUnknownGameError("whack_a_mole", nil))
	server := New(0, manager, nil)

	w := request(server, http.MethodGet, "/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	snapshots := []policy.Snapshot{}
	decode(t, w, &snapshots)
	assert.Equal(t, []policy.Snapshot{snapshot}, snapshots)

	w = request(server, http.MethodGet, "/sessions/bubble_pop")
	require.Equal(t, http.StatusOK, w.Code)
	got := policy.Snapshot{}
	decode(t, w, &got)
	assert.Equal(t, snapshot, got)

	w = request(server, http.MethodGet, "/sessions/whack_a_mole")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := map[string]string{}
	decode(t, w, &body)
	assert.Contains(t, body["message"], "whack_a_mole")

	manager.AssertExpectations(t)
}

func TestResetAndStop(t *testing.T) {
	manager := &MockSessionManager{}
	manager.On("Reset", "lantern_toss").Return(nil)
	manager.On("Stop", "lantern_toss").Return(nil).Once()
	manager.On("Stop", "lantern_toss").Return(session.ErrSessionStopped)
	server := New(0, manager, nil)

	w := request(server, http.MethodPost, "/sessions/lantern_toss/reset")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = request(server, http.MethodDelete, "/sessions/lantern_toss")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = request(server, http.MethodDelete, "/sessions/lantern_toss")
	assert.Equal(t, http.StatusConflict, w.Code)

	manager.AssertExpectations(t)
}

func TestArchiveRoutes(t *testing.T) {
	archive := &MockArchive{}
	entries := []recorder.Entry{{Seq: 1, Game: "pose_match", Time: time.Unix(1000, 0).UTC(), Data: json.RawMessage(`{"score":1}`)}}
	archive.On("Entries", "pose_match", 20).Return(entries, nil)
	archive.On("Entries", "pose_match", 2).Return(entries, nil)
	archive.On("Entries", "bubble_pop", 20).Return([]recorder.Entry{}, recorder.ErrUnknownGame)
	archive.On("Outcomes", "pose_match").Return([]episode.Outcome{{Game: "pose_match", Result: "won", Score: 30}}, nil)
	server := New(0, &MockSessionManager{}, archive)

	w := request(server, http.MethodGet, "/sessions/pose_match/logs")
	require.Equal(t, http.StatusOK, w.Code)
	got := []recorder.Entry{}
	decode(t, w, &got)
	assert.Equal(t, entries, got)

	w = request(server, http.MethodGet, "/sessions/pose_match/logs?limit=2")
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(server, http.MethodGet, "/sessions/pose_match/logs?limit=many")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(server, http.MethodGet, "/sessions/bubble_pop/logs")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(server, http.MethodGet, "/sessions/pose_match/outcomes")
	require.Equal(t, http.StatusOK, w.Code)
	outcomes := []episode.Outcome{}
	decode(t, w, &outcomes)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "won", outcomes[0].Result)

	archive.AssertExpectations(t)
}

func TestNoArchive(t *testing.T) {
	server := New(0, &MockSessionManager{}, nil)

	w := request(server, http.MethodGet, "/sessions/pose_match/outcomes")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	server := New(0, &MockSessionManager{}, nil)

	w := request(server, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(server, http.MethodPut, "/sessions")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
