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
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cogment/cogment-exergame/services/exergame/episode"
	"github.com/cogment/cogment-exergame/services/exergame/games"
	"github.com/cogment/cogment-exergame/services/exergame/policy"
	"github.com/cogment/cogment-exergame/services/exergame/recorder"
	"github.com/cogment/cogment-exergame/services/exergame/session"
	"github.com/cogment/cogment-exergame/version"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "httpserver")

const defaultEntriesLimit = 20

// SessionManager controls the running mini-game sessions
type SessionManager interface {
	List() []policy.Snapshot
	Get(game string) (policy.Snapshot, error)
	Reset(game string) error
	Stop(game string) error
}

// Archive gives access to the recorded session logs and outcomes
type Archive interface {
	Entries(game string, limit int) ([]recorder.Entry, error)
	Outcomes(game string) ([]episode.Outcome, error)
}

type Server struct {
	http.Server
	sessions SessionManager
	archive  Archive

	gin *gin.Engine
}

// New creates the status and control server, archive is optional
func New(port uint, sessions SessionManager, archive Archive) *Server {
	// Debug mode can be helpful during development
	gin.SetMode(gin.ReleaseMode)

	ginEngine := gin.New()

	server := &Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: ginEngine,
		},
		sessions: sessions,
		archive:  archive,
		gin:      ginEngine,
	}

	server.gin.HandleMethodNotAllowed = true

	// Allows all origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true

	server.gin.Use(cors.New(corsConfig))

	// Use a custom error handler
	server.gin.Use(ginErrorHandlerMiddleware)

	// Use the custom logger middleware
	server.gin.Use(ginLoggerMiddleware)

	// Recovery middleware recovers from any panics and writes a 500 if there was one.
	server.gin.Use(gin.Recovery())

	server.gin.GET("/", server.getInfo)

	sessionsGroup := server.gin.Group("/sessions")
	sessionsGroup.GET("", server.listSessions)
	sessionsGroup.GET("/:game", server.getSession)
	sessionsGroup.POST("/:game/reset", server.resetSession)
	sessionsGroup.DELETE("/:game", server.stopSession)
	sessionsGroup.GET("/:game/logs", server.listLogs)
	sessionsGroup.GET("/:game/outcomes", server.listOutcomes)

	ginEngine.NoRoute(func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusNotFound, fmt.Errorf("not found"))
	})

	ginEngine.NoMethod(func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	})

	return server
}

type response struct {
	Message string `json:"message"`
}

type InfoResponse struct {
	response
	Version     string `json:"version"`
	VersionHash string `json:"version_hash"`
}

func (server *Server) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		response: response{
			Message: "This is the Cogment Exergame adaptive difficulty service",
		},
		Version:     version.Version,
		VersionHash: version.Hash,
	})
}

func sessionError(err error) error {
	var unknownErr *games.UnknownGameError
	if errors.As(err, &unknownErr) {
		return wrapError(http.StatusNotFound, err)
	}
	if errors.Is(err, session.ErrSessionStopped) {
		return wrapError(http.StatusConflict, err)
	}
	if errors.Is(err, recorder.ErrUnknownGame) {
		return wrapError(http.StatusNotFound, err)
	}
	return wrapError(http.StatusInternalServerError, err)
}

func (server *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, server.sessions.List())
}

func (server *Server) getSession(c *gin.Context) {
	snapshot, err := server.sessions.Get(c.Param("game"))
	if err != nil {
		abortWithError(c, sessionError(err))
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (server *Server) resetSession(c *gin.Context) {
	game := c.Param("game")
	err := server.sessions.Reset(game)
	if err != nil {
		abortWithError(c, sessionError(err))
		return
	}
	log.WithField("game", game).Info("session reset requested")
	c.JSON(http.StatusAccepted, response{Message: fmt.Sprintf("Session [%s] reset", game)})
}

func (server *Server) stopSession(c *gin.Context) {
	game := c.Param("game")
	err := server.sessions.Stop(game)
	if err != nil {
		abortWithError(c, sessionError(err))
		return
	}
	log.WithField("game", game).Info("session stop requested")
	c.JSON(http.StatusAccepted, response{Message: fmt.Sprintf("Session [%s] stopped", game)})
}

func (server *Server) checkArchive(c *gin.Context) bool {
	if server.archive == nil {
		abortWithError(c, wrapError(http.StatusNotFound, fmt.Errorf("no archive configured")))
		return false
	}
	return true
}

func (server *Server) listLogs(c *gin.Context) {
	if !server.checkArchive(c) {
		return
	}
	limit := defaultEntriesLimit
	if limitQuery, ok := c.GetQuery("limit"); ok {
		var err error
		limit, err = strconv.Atoi(limitQuery)
		if err != nil {
			abortWithError(c, wrapError(http.StatusBadRequest, fmt.Errorf("invalid limit %q", limitQuery)))
			return
		}
	}
	entries, err := server.archive.Entries(c.Param("game"), limit)
	if err != nil {
		abortWithError(c, sessionError(err))
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (server *Server) listOutcomes(c *gin.Context) {
	if !server.checkArchive(c) {
		return
	}
	outcomes, err := server.archive.Outcomes(c.Param("game"))
	if err != nil {
		abortWithError(c, sessionError(err))
		return
	}
	c.JSON(http.StatusOK, outcomes)
}
