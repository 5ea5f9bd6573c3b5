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
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
)

// PreviewPath is where a session's uploaded clip is served.
const PreviewPath = "/api/v1/session/preview"

// PreviewView describes the playable clip without its bytes.
type PreviewView struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// SessionView is the JSON rendering of a session snapshot.
type SessionView struct {
	ID            string                  `json:"id"`
	Status        model.AnalysisStatus    `json:"status"`
	SelectedModel model.TargetModel       `json:"selectedModel"`
	Attempt       uint64                  `json:"attempt"`
	AttemptModel  model.TargetModel       `json:"attemptModel,omitempty"`
	Result        *model.AnalysisResponse `json:"result,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Preview       *PreviewView            `json:"preview,omitempty"`
	CopiedIndex   int                     `json:"copiedIndex"`
	Playback      session.Playback        `json:"playback"`
}

// NewSessionView renders a snapshot of the session id.
func NewSessionView(id string, s session.State) SessionView {
	v := SessionView{
		ID:            id,
		Status:        s.Status,
		SelectedModel: s.SelectedModel,
		Attempt:       s.Attempt,
		AttemptModel:  s.AttemptModel,
		Result:        s.Result,
		Error:         s.Error,
		CopiedIndex:   s.CopiedIndex,
		Playback:      s.Playback,
	}
	if s.HasPreview() {
		v.Preview = &PreviewView{
			Name:     s.Preview.Name,
			MIMEType: s.Preview.MIMEType,
			Size:     s.Preview.Size(),
			URL:      PreviewPath,
		}
	}
	return v
}
