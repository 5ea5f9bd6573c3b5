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

package session

import (
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// ErrStaleAttempt is returned by Transition for a completion that belongs to
// an attempt other than the current one. Callers drop such events.
var ErrStaleAttempt = errors.New("stale attempt")

// Event is something that happened to a session. The set of events is closed.
type Event interface {
	eventName() string
}

// ModelSelected changes the target model used by the next attempt.
type ModelSelected struct{ Model model.TargetModel }

// UploadRejected records an upload refused by input validation.
type UploadRejected struct{ Err error }

// UploadStarted begins a new attempt. Preview is the clip kept for playback.
type UploadStarted struct {
	Attempt uint64
	Preview *model.VideoFile
}

// PayloadEncoded reports that the clip was read and encoded. Preview carries
// the bytes for playback.
type PayloadEncoded struct {
	Attempt uint64
	Preview *model.VideoFile
}

// AnalysisSucceeded delivers the validated analysis for an attempt.
type AnalysisSucceeded struct {
	Attempt uint64
	Result  *model.AnalysisResponse
}

// AttemptFailed ends an attempt with an error.
type AttemptFailed struct {
	Attempt uint64
	Err     error
}

// ResetRequested returns the session to idle.
type ResetRequested struct{}

// PromptCopied marks a segment's prompt as copied.
type PromptCopied struct{ Index int }

// CopyMarkerExpired clears the copied marker.
type CopyMarkerExpired struct{}

// Seeked moves the preview player and starts playback.
type Seeked struct{ Seconds float64 }

func (ModelSelected) eventName() string     { return "model-selected" }
func (UploadRejected) eventName() string    { return "upload-rejected" }
func (UploadStarted) eventName() string     { return "upload-started" }
func (PayloadEncoded) eventName() string    { return "payload-encoded" }
func (AnalysisSucceeded) eventName() string { return "analysis-succeeded" }
func (AttemptFailed) eventName() string     { return "attempt-failed" }
func (ResetRequested) eventName() string    { return "reset-requested" }
func (PromptCopied) eventName() string      { return "prompt-copied" }
func (CopyMarkerExpired) eventName() string { return "copy-marker-expired" }
func (Seeked) eventName() string            { return "seeked" }

// EventName returns a short stable name for logging.
func EventName(e Event) string {
	if e == nil {
		return "nil"
	}
	return e.eventName()
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s while %s", model.ErrInvalidTransition, e.eventName(), s.Status)
}

// Transition applies e to s and returns the new state. It has no side
// effects. On error the returned state equals s.
//
// Status changes:
//
//	IDLE|COMPLETED|ERROR -> UPLOADING   (UploadStarted)
//	IDLE|COMPLETED|ERROR -> ERROR       (UploadRejected)
//	UPLOADING            -> ANALYZING   (PayloadEncoded)
//	UPLOADING|ANALYZING  -> ERROR       (AttemptFailed)
//	ANALYZING            -> COMPLETED   (AnalysisSucceeded)
//	IDLE|COMPLETED|ERROR -> IDLE        (ResetRequested)
func Transition(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case ModelSelected:
		if _, err := model.ParseTargetModel(string(ev.Model)); err != nil {
			return s, err
		}
		s.SelectedModel = ev.Model
		return s, nil

	case UploadRejected:
		if s.Busy() {
			return s, model.ErrBusy
		}
		s.Status = model.StatusError
		s.Result = nil
		s.Error = model.UserMessage(ev.Err)
		return s, nil

	case UploadStarted:
		if s.Busy() {
			return s, model.ErrBusy
		}
		if ev.Attempt <= s.Attempt {
			return s, fmt.Errorf("%w: attempt %d is not newer than %d", model.ErrInvalidTransition, ev.Attempt, s.Attempt)
		}
		s.Status = model.StatusUploading
		s.Attempt = ev.Attempt
		s.AttemptModel = s.SelectedModel
		s.Result = nil
		s.Error = ""
		s.Preview = ev.Preview
		s.CopiedIndex = NoCopy
		s.Playback = Playback{}
		return s, nil

	case PayloadEncoded:
		if ev.Attempt != s.Attempt {
			return s, ErrStaleAttempt
		}
		if s.Status != model.StatusUploading {
			return s, invalid(s, e)
		}
		s.Status = model.StatusAnalyzing
		if ev.Preview != nil {
			s.Preview = ev.Preview
		}
		return s, nil

	case AnalysisSucceeded:
		if ev.Attempt != s.Attempt {
			return s, ErrStaleAttempt
		}
		if s.Status != model.StatusAnalyzing {
			return s, invalid(s, e)
		}
		if ev.Result == nil {
			return s, fmt.Errorf("%w: %w", model.ErrInvalidStructure, model.ErrNoAnalysisResponse)
		}
		s.Status = model.StatusCompleted
		s.Result = ev.Result
		s.Error = ""
		return s, nil

	case AttemptFailed:
		if ev.Attempt != s.Attempt {
			return s, ErrStaleAttempt
		}
		if !s.Busy() {
			return s, invalid(s, e)
		}
		s.Status = model.StatusError
		s.Result = nil
		s.Error = model.UserMessage(ev.Err)
		return s, nil

	case ResetRequested:
		if s.Busy() {
			return s, model.ErrBusy
		}
		s.Status = model.StatusIdle
		s.Result = nil
		s.Error = ""
		s.Preview = nil
		s.CopiedIndex = NoCopy
		s.Playback = Playback{}
		return s, nil

	case PromptCopied:
		if s.Result == nil || ev.Index < 0 || ev.Index >= len(s.Result.Segments) {
			return s, fmt.Errorf("%w: %d", model.ErrSegmentOutOfRange, ev.Index)
		}
		s.CopiedIndex = ev.Index
		return s, nil

	case CopyMarkerExpired:
		s.CopiedIndex = NoCopy
		return s, nil

	case Seeked:
		if !s.HasPreview() {
			return s, model.ErrNoPreview
		}
		if ev.Seconds < 0 {
			return s, fmt.Errorf("%w: negative offset", model.ErrInvalidTimecode)
		}
		s.Playback = Playback{Position: ev.Seconds, Playing: true}
		return s, nil
	}
	return s, fmt.Errorf("%w: unknown event %T", model.ErrInvalidTransition, e)
}
