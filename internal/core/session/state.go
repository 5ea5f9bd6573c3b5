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

// Package session holds the per-browser-session view state of the
// application: which target model is selected, where the current upload
// attempt stands, the last result or error, the preview clip, the "copied"
// marker and the playback position.
//
// All mutation goes through Transition, a pure function from (State, Event)
// to State. The Controller owns one State, serializes access to it and runs
// the side effects (reading the clip, calling the analyzer, timers).
package session

import (
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// NoCopy is the CopiedIndex value when no segment is marked as copied.
const NoCopy = -1

// Playback is the requested position of the preview player.
type Playback struct {
	Position float64 `json:"position"` // Seconds from the start of the clip.
	Playing  bool    `json:"playing"`
}

// State is the complete view state of one session. Values are treated as
// immutable; Transition returns a modified copy.
type State struct {
	Status        model.AnalysisStatus    `json:"status"`
	SelectedModel model.TargetModel       `json:"selectedModel"`
	Attempt       uint64                  `json:"attempt"`      // Token of the latest attempt; zero before the first.
	AttemptModel  model.TargetModel       `json:"attemptModel"` // Target model captured when the attempt started.
	Result        *model.AnalysisResponse `json:"result,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Preview       *model.VideoFile        `json:"-"`
	CopiedIndex   int                     `json:"copiedIndex"`
	Playback      Playback                `json:"playback"`
}

// NewState returns the initial state: idle, default target model, nothing
// copied.
func NewState() State {
	return State{
		Status:        model.StatusIdle,
		SelectedModel: model.DefaultTargetModel,
		CopiedIndex:   NoCopy,
	}
}

// Busy reports whether an attempt is in flight.
func (s State) Busy() bool {
	return s.Status.InFlight()
}

// HasPreview reports whether a clip is available for playback.
func (s State) HasPreview() bool {
	return s.Preview != nil && len(s.Preview.Data) > 0
}
