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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type httpError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e httpError) Error() string {
	return e.Message
}

func (e httpError) Unwrap() error {
	return e.Err
}

func wrapError(statusCode int, err error) error {
	return httpError{
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// ginErrorHandlerMiddleware renders the errors attached to the context as {"message": ...}
func ginErrorHandlerMiddleware(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	statusCode := c.Writer.Status()
	last := c.Errors.Last()
	entry := log.WithFields(logrus.Fields{
		"status": statusCode,
		"errors": len(c.Errors),
	})
	if game := c.Param("game"); game != "" {
		entry = entry.WithField("game", game)
	}
	if statusCode >= http.StatusInternalServerError {
		entry.WithField("error", last.Err).Error("request failed")
	} else {
		entry.WithField("error", last.Err).Debug("request rejected")
	}

	body := gin.H{"message": last.Error()}
	if len(c.Errors) > 1 {
		body["errors"] = c.Errors.Errors()
	}
	c.JSON(statusCode, body)
}

// abortWithError aborts the request with the status code of err, 500 if it isn't an httpError
func abortWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	if httpErr, ok := err.(httpError); ok {
		statusCode = httpErr.StatusCode
	}
	_ = c.AbortWithError(statusCode, err)
}
