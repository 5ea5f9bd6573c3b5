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

// AnalysisStatus is the lifecycle of a single session. Exactly one value is
// live at a time and it decides which part of the page is rendered.
type AnalysisStatus string

const (
	StatusIdle      AnalysisStatus = "IDLE"
	StatusUploading AnalysisStatus = "UPLOADING"
	StatusAnalyzing AnalysisStatus = "ANALYZING"
	StatusCompleted AnalysisStatus = "COMPLETED"
	StatusError     AnalysisStatus = "ERROR"
)

// InFlight reports whether an attempt is currently running.
func (s AnalysisStatus) InFlight() bool {
	return s == StatusUploading || s == StatusAnalyzing
}

// Terminal reports whether the status ends an attempt.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}
