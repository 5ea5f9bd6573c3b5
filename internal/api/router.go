// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api contains the HTTP surface of the server: the single page view
// and the JSON routes it calls. Every request is bound to a browser session
// through a cookie; the session's controller does the actual work.
//
// Functions:
//   - NewRouter: Builds the gin engine with tracing, CORS and all routes.
//   - Handlers.Page: Serves the rendered page at "/".
//   - Handlers.ModelRouter: Lists the supported target models.
//   - Handlers.SessionRouter: Session snapshot, model selection, upload, reset,
//     prompt copy, seek and preview playback.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/services"
)

// Handlers binds the routes to the session registry.
type Handlers struct {
	Sessions        *services.SessionService
	CopyResetMillis int // Passed to the page so the client-side marker matches the server.
}

// NewHandlers is the constructor for Handlers.
func NewHandlers(sessions *services.SessionService, copyResetMillis int) *Handlers {
	return &Handlers{Sessions: sessions, CopyResetMillis: copyResetMillis}
}

// NewRouter builds the gin engine serving the page and the API.
//
// Inputs:
//   - h: The route handlers.
//   - serviceName: The name reported by the tracing middleware.
//
// Outputs:
//   - *gin.Engine: Ready to be used as an http.Handler.
func NewRouter(h *Handlers, serviceName string) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.Sessions.Len()})
	})
	h.Page(r)

	apiV1 := r.Group("/api/v1")
	{
		h.ModelRouter(apiV1)
		h.SessionRouter(apiV1)
	}
	return r
}
