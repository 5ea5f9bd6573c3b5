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

package model

import "errors"

// Maximum accepted upload, in bytes.
const MaxUploadBytes int64 = 25 * 1024 * 1024

// User facing messages. They are stored in the session state as-is.
const (
	MsgFileTooLarge      = "Sequence too heavy for micro-frame analysis. Keep under 25MB."
	MsgUnsupportedMedia  = "Only video files can be deconstructed. Please pick a video clip."
	MsgStreamInterrupted = "Data stream interrupted during read."
	MsgInvalidStructure  = "Analysis failed to generate a valid structure. Please try a different sequence or target model."
	MsgGenericFailure    = "Forensic analysis engine encountered a temporal error."
)

var (
	// Input validation.
	ErrFileTooLarge       = errors.New(MsgFileTooLarge)
	ErrUnsupportedMedia   = errors.New(MsgUnsupportedMedia)
	ErrUnknownTargetModel = errors.New("unknown target model")

	// Local read failure.
	ErrStreamInterrupted = errors.New(MsgStreamInterrupted)

	// The remote call succeeded but returned unusable data.
	ErrInvalidStructure = errors.New(MsgInvalidStructure)

	// Controller guards.
	ErrBusy               = errors.New("an analysis is already in progress")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrInvalidTimecode    = errors.New("invalid timecode")
	ErrNoPreview          = errors.New("no video loaded")
	ErrSegmentOutOfRange  = errors.New("segment index out of range")
	ErrNoAnalysisResponse = errors.New("no analysis available")
)

// UserMessage returns the text stored in the session for a failed attempt.
// Known failure kinds map to their fixed message, anything else surfaces its
// own message, falling back to a generic one when it has none.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidStructure):
		return MsgInvalidStructure
	case errors.Is(err, ErrStreamInterrupted):
		return MsgStreamInterrupted
	case errors.Is(err, ErrFileTooLarge):
		return MsgFileTooLarge
	case errors.Is(err, ErrUnsupportedMedia):
		return MsgUnsupportedMedia
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgGenericFailure
}
