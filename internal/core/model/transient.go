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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains structures that only live in memory for
// the duration of an upload attempt. None of them are persisted.
package model

import "strings"

// VideoPayload is the encoded form of an uploaded clip handed to the analysis
// workflow.
type VideoPayload struct {
	Data     string // Base64 (standard encoding) of the raw file bytes.
	MIMEType string // e.g. "video/mp4".
}

// VideoFile is the raw uploaded clip kept by a session for preview playback.
type VideoFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the number of bytes held by the file.
func (v *VideoFile) Size() int64 {
	if v == nil {
		return 0
	}
	return int64(len(v.Data))
}

// IsVideoMIMEType reports whether the MIME type belongs to the video/* family.
func IsVideoMIMEType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/")
}
