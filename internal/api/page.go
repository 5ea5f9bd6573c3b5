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
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	View            SessionView
	Models          []model.TargetModel
	MaxUploadMB     int64
	CopyResetMillis int
}

// Page serves the rendered view of the caller's session at "/".
func (h *Handlers) Page(r gin.IRouter) {
	r.GET("/", h.withSession, func(c *gin.Context) {
		ctrl := controller(c)
		data := pageData{
			View:            NewSessionView(ctrl.ID(), ctrl.Snapshot()),
			Models:          model.TargetModels(),
			MaxUploadMB:     model.MaxUploadBytes / (1024 * 1024),
			CopyResetMillis: h.CopyResetMillis,
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Header("Cache-Control", "no-store")
		c.Status(http.StatusOK)
		if err := pageTemplate.Execute(c.Writer, data); err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to render page", "session", ctrl.ID(), "error", err)
		}
	})
}
