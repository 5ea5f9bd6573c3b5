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

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
)

// statusFor maps a controller error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrBusy), errors.Is(err, model.ErrInvalidTransition), errors.Is(err, session.ErrStaleAttempt):
		return http.StatusConflict
	case errors.Is(err, model.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrNoPreview), errors.Is(err, model.ErrNoAnalysisResponse):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidTimecode),
		errors.Is(err, model.ErrUnknownTargetModel),
		errors.Is(err, model.ErrSegmentOutOfRange),
		errors.Is(err, model.ErrStreamInterrupted):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// abortWithError logs err and writes it as a JSON error body.
func abortWithError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else {
		slog.InfoContext(c.Request.Context(), "request rejected", "path", c.FullPath(), "status", code, "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": model.UserMessage(err)})
}
