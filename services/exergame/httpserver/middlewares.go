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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLoggerMiddleware logs every request, tagged with the mini-game it targets
func ginLoggerMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := logrus.Fields{
		"status":     c.Writer.Status(),
		"latency_ms": time.Since(start).Milliseconds(),
		"client_ip":  c.ClientIP(),
	}
	if game := c.Param("game"); game != "" {
		fields["game"] = game
	}
	if size := c.Writer.Size(); size > 0 {
		fields["size"] = size
	}
	entry := log.WithFields(fields)

	switch status := c.Writer.Status(); {
	case status >= http.StatusInternalServerError:
		entry.Errorf("%s %s failed", c.Request.Method, route)
	case status >= http.StatusBadRequest:
		entry.Warnf("%s %s rejected", c.Request.Method, route)
	default:
		entry.Debugf("%s %s", c.Request.Method, route)
	}
}
