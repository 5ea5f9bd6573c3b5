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

// Package api_test contains the test suite for the HTTP surface. Requests are
// served by the real router against an in-memory session registry and a fake
// analyzer.
package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-cineprompt/internal/api"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/services"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
	test "github.com/jaycherian/gcp-go-cineprompt/internal/testutil"
)

var mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42")

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T, analyzer session.Analyzer) (*client, *services.SessionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := services.NewSessionService(analyzer, time.Hour, session.Options{})
	t.Cleanup(svc.Close)
	return &client{t: t, router: api.NewRouter(api.NewHandlers(svc, 2000), "cineprompt-test")}, svc
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == api.SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postJSON(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// upload posts data as the "file" part. An empty contentType leaves the
// multipart default of application/octet-stream.
func (c *client) upload(name, contentType string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	var (
		part io.Writer
		err  error
	)
	if contentType == "" {
		part, err = w.CreateFormFile("file", name)
	} else {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err = w.CreatePart(h)
	}
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *client) snapshot() api.SessionView {
	c.t.Helper()
	rec := c.get("/api/v1/session")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var v api.SessionView
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (c *client) waitFor(status model.AnalysisStatus) api.SessionView {
	c.t.Helper()
	var v api.SessionView
	require.Eventually(c.t, func() bool {
		v = c.snapshot()
		return v.Status == status
	}, 2*time.Second, 10*time.Millisecond)
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthzAndModels(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{})

	rec := c.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.get("/api/v1/models")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Models  []model.TargetModel `json:"models"`
		Default model.TargetModel   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.TargetModels(), body.Models)
	assert.Equal(t, model.TargetVeo3, body.Default)
}

func TestSessionCookie(t *testing.T) {
	c, svc := newClient(t, &test.FakeAnalyzer{})

	first := c.snapshot()
	require.NotNil(t, c.cookie)
	assert.Equal(t, first.ID, c.cookie.Value)
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, model.StatusIdle, first.Status)
	assert.Equal(t, model.TargetVeo3, first.SelectedModel)
	assert.Equal(t, session.NoCopy, first.CopiedIndex)

	rec := c.get("/api/v1/session")
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, svc.Len())

	// A stale cookie gets a fresh session.
	c.cookie = &http.Cookie{Name: api.SessionCookie, Value: "evicted"}
	again := c.snapshot()
	assert.NotEqual(t, "evicted", again.ID)
	assert.Equal(t, 2, svc.Len())
}

func TestSelectModel(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{})

	rec := c.postJSON("/api/v1/session/model", map[string]string{"model": "Runway Gen-3"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TargetRunwayGen3, c.snapshot().SelectedModel)

	rec = c.postJSON("/api/v1/session/model", map[string]string{"model": "Kling"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.TargetRunwayGen3, c.snapshot().SelectedModel)

	rec = c.postJSON("/api/v1/session/model", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCompletes(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
	c, _ := newClient(t, analyzer)
	c.postJSON("/api/v1/session/model", map[string]string{"model": "Sora 2"})

	rec := c.upload("clip.mp4", "video/mp4", mp4Bytes)
	require.Equal(t, http.StatusAccepted, rec.Code)

	v := c.waitFor(model.StatusCompleted)
	assert.Equal(t, model.GetExampleAnalysis(), v.Result)
	assert.Empty(t, v.Error)
	assert.Equal(t, model.TargetSora2, v.AttemptModel)
	require.NotNil(t, v.Preview)
	assert.Equal(t, "clip.mp4", v.Preview.Name)
	assert.Equal(t, int64(len(mp4Bytes)), v.Preview.Size)
	assert.Equal(t, api.PreviewPath, v.Preview.URL)

	assert.Equal(t, 1, analyzer.CallCount())
	assert.Equal(t, []model.TargetModel{model.TargetSora2}, analyzer.Targets)
	assert.Equal(t, test.GetTestVideoPayload(), analyzer.Payloads[0])
}

func TestUploadWhileBusy(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis(), Gate: make(chan struct{})}
	c, _ := newClient(t, analyzer)

	rec := c.upload("clip.mp4", "video/mp4", mp4Bytes)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted api.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, model.StatusAnalyzing, accepted.Status)

	rec = c.upload("other.mp4", "video/mp4", mp4Bytes)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.postJSON("/api/v1/session/reset", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(analyzer.Gate)
	c.waitFor(model.StatusCompleted)
	assert.Equal(t, 1, analyzer.CallCount())
}

func TestUploadRejected(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		data        []byte
		code        int
		message     string
	}{
		{
			name:        "too large",
			file:        "huge.mp4",
			contentType: "video/mp4",
			data:        make([]byte, model.MaxUploadBytes+1),
			code:        http.StatusRequestEntityTooLarge,
			message:     model.MsgFileTooLarge,
		},
		{
			name:        "not a video",
			file:        "notes.txt",
			contentType: "text/plain",
			data:        []byte("hello"),
			code:        http.StatusUnsupportedMediaType,
			message:     model.MsgUnsupportedMedia,
		},
		{
			name:    "unrecognized bytes",
			file:    "blob.bin",
			data:    []byte("not a container"),
			code:    http.StatusUnsupportedMediaType,
			message: model.MsgUnsupportedMedia,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
			c, _ := newClient(t, analyzer)

			rec := c.upload(tt.file, tt.contentType, tt.data)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, errorBody(t, rec))

			v := c.snapshot()
			assert.Equal(t, model.StatusError, v.Status)
			assert.Equal(t, tt.message, v.Error)
			assert.Nil(t, v.Result)
			assert.Equal(t, 0, analyzer.CallCount())
		})
	}
}

func TestUploadSniffsContentType(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
	c, _ := newClient(t, analyzer)

	rec := c.upload("clip", "", mp4Bytes)
	require.Equal(t, http.StatusAccepted, rec.Code)
	c.waitFor(model.StatusCompleted)
	require.Len(t, analyzer.Payloads, 1)
	assert.True(t, strings.HasPrefix(analyzer.Payloads[0].MIMEType, "video/"))
}

func TestUploadWithoutFile(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/upload", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	rec := c.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.StatusIdle, c.snapshot().Status)
}

func TestAnalysisFailureIsReported(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{Err: model.ErrInvalidStructure})

	rec := c.upload("clip.mp4", "video/mp4", mp4Bytes)
	require.Equal(t, http.StatusAccepted, rec.Code)

	v := c.waitFor(model.StatusError)
	assert.Equal(t, model.MsgInvalidStructure, v.Error)
	assert.Nil(t, v.Result)
}

func TestCompletedSessionRoutes(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{Result: model.GetExampleAnalysis()})
	require.Equal(t, http.StatusAccepted, c.upload("clip.mp4", "video/mp4", mp4Bytes).Code)
	c.waitFor(model.StatusCompleted)
	example := model.GetExampleAnalysis()

	t.Run("copy", func(t *testing.T) {
		rec := c.postJSON("/api/v1/session/segments/1/copy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, example.Segments[1].AIPrompt, body.Text)
		assert.Equal(t, 1, c.snapshot().CopiedIndex)

		assert.Equal(t, http.StatusBadRequest, c.postJSON("/api/v1/session/segments/99/copy", nil).Code)
		assert.Equal(t, http.StatusBadRequest, c.postJSON("/api/v1/session/segments/x/copy", nil).Code)
	})

	t.Run("seek", func(t *testing.T) {
		rec := c.postJSON("/api/v1/session/seek", map[string]string{"time": example.Segments[1].StartTime})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Seconds float64 `json:"seconds"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 4.0, body.Seconds)
		v := c.snapshot()
		assert.Equal(t, 4.0, v.Playback.Position)
		assert.True(t, v.Playback.Playing)

		rec = c.postJSON("/api/v1/session/seek", map[string]string{"time": "soon"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 4.0, c.snapshot().Playback.Position)
	})

	t.Run("preview", func(t *testing.T) {
		rec := c.get(api.PreviewPath)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		assert.Equal(t, mp4Bytes, rec.Body.Bytes())

		req := httptest.NewRequest(http.MethodGet, api.PreviewPath, nil)
		req.Header.Set("Range", "bytes=4-7")
		rec = c.do(req)
		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "ftyp", rec.Body.String())
	})

	t.Run("page", func(t *testing.T) {
		rec := c.get("/")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Temporal Breakdown")
		assert.Contains(t, body, `data-status="COMPLETED"`)
		assert.Contains(t, body, api.PreviewPath)
	})

	t.Run("reset", func(t *testing.T) {
		rec := c.postJSON("/api/v1/session/reset", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := c.snapshot()
		assert.Equal(t, model.StatusIdle, v.Status)
		assert.Nil(t, v.Result)
		assert.Nil(t, v.Preview)
		assert.Equal(t, session.NoCopy, v.CopiedIndex)

		assert.Equal(t, http.StatusNotFound, c.get(api.PreviewPath).Code)
		assert.Equal(t, http.StatusNotFound, c.postJSON("/api/v1/session/seek", map[string]string{"time": "1"}).Code)
	})
}

func TestIdlePage(t *testing.T) {
	c, _ := newClient(t, &test.FakeAnalyzer{})

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "START DECONSTRUCTION")
	for _, m := range model.TargetModels() {
		assert.Contains(t, body, string(m))
	}
	require.NotNil(t, c.cookie)
}
