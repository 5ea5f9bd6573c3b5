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
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
)

const (
	// SessionCookie carries the browser session id.
	SessionCookie = "cineprompt_session"

	sessionKey = "session"

	// multipartOverhead is the body allowance on top of the file limit for
	// multipart boundaries and part headers.
	multipartOverhead = 1 << 20
)

type modelRequest struct {
	Model string `json:"model" binding:"required"`
}

type seekRequest struct {
	Time string `json:"time" binding:"required"`
}

// withSession resolves the session cookie to a controller, creating a new
// session when the cookie is missing or refers to an evicted one.
func (h *Handlers) withSession(c *gin.Context) {
	id, _ := c.Cookie(SessionCookie)
	ctrl, created := h.Sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, ctrl.ID(), 0, "/", "", false, true)
	}
	c.Set(sessionKey, ctrl)
	c.Next()
}

func controller(c *gin.Context) *session.Controller {
	return c.MustGet(sessionKey).(*session.Controller)
}

func writeSnapshot(c *gin.Context, code int, ctrl *session.Controller) {
	c.JSON(code, NewSessionView(ctrl.ID(), ctrl.Snapshot()))
}

// ModelRouter lists the supported target models.
func (h *Handlers) ModelRouter(r *gin.RouterGroup) {
	r.GET("/models", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"models": model.TargetModels(), "default": model.DefaultTargetModel})
	})
}

// SessionRouter registers the routes operating on the caller's session.
func (h *Handlers) SessionRouter(r *gin.RouterGroup) {
	s := r.Group("/session", h.withSession)
	{
		// Handler for GET /session
		s.GET("", func(c *gin.Context) {
			writeSnapshot(c, http.StatusOK, controller(c))
		})

		// Handler for POST /session/model {"model": "Veo 3"}
		s.POST("/model", func(c *gin.Context) {
			var req modelRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			target, err := model.ParseTargetModel(req.Model)
			if err != nil {
				abortWithError(c, err)
				return
			}
			ctrl := controller(c)
			if err := ctrl.SelectModel(target); err != nil {
				abortWithError(c, err)
				return
			}
			writeSnapshot(c, http.StatusOK, ctrl)
		})

		// Handler for POST /session/upload (multipart, field "file")
		s.POST("/upload", h.upload)

		// Handler for POST /session/reset
		s.POST("/reset", func(c *gin.Context) {
			ctrl := controller(c)
			if err := ctrl.Reset(); err != nil {
				abortWithError(c, err)
				return
			}
			writeSnapshot(c, http.StatusOK, ctrl)
		})

		// Handler for POST /session/segments/:index/copy
		s.POST("/segments/:index/copy", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil {
				abortWithError(c, model.ErrSegmentOutOfRange)
				return
			}
			text, err := controller(c).CopySegmentPrompt(c.Request.Context(), index)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"index": index, "text": text})
		})

		// Handler for POST /session/seek {"time": "0:01:12"}
		s.POST("/seek", func(c *gin.Context) {
			var req seekRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			seconds, err := controller(c).Seek(req.Time)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"seconds": seconds})
		})

		// Handler for GET /session/preview
		s.GET("/preview", func(c *gin.Context) {
			snap := controller(c).Snapshot()
			if !snap.HasPreview() {
				abortWithError(c, model.ErrNoPreview)
				return
			}
			c.Header("Content-Type", snap.Preview.MIMEType)
			http.ServeContent(c.Writer, c.Request, snap.Preview.Name, time.Time{}, bytes.NewReader(snap.Preview.Data))
		})
	}
}

// upload accepts one clip, reads it within the request and hands the
// analysis to the background. It answers 202 with the snapshot once the
// session is ANALYZING.
func (h *Handlers) upload(c *gin.Context) {
	ctrl := controller(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, model.MaxUploadBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			if rerr := ctrl.RejectUpload(model.ErrFileTooLarge); rerr != nil {
				abortWithError(c, rerr)
				return
			}
			abortWithError(c, model.ErrFileTooLarge)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := ctrl.Start(newFormFile(header))
	if err != nil {
		abortWithError(c, err)
		return
	}
	payload, err := attempt.Encode()
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.Sessions.Analyze(attempt, payload)
	writeSnapshot(c, http.StatusAccepted, ctrl)
}
