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

// Package model defines the data structures shared by the analysis workflow,
// the session controller and the HTTP layer. This file holds the analysis
// result shapes returned by the generative model and the validation rules a
// response must satisfy before it is handed to a session.
package model

import (
	"fmt"
	"strings"
)

// TargetModel is the destination video-generation model a replication prompt
// is written for. Its string value is embedded in the prompt sent to Gemini
// and shown in the UI.
type TargetModel string

const (
	TargetSora2            TargetModel = "Sora 2"
	TargetVeo3             TargetModel = "Veo 3"
	TargetLumaDreamMachine TargetModel = "Luma Dream Machine"
	TargetRunwayGen3       TargetModel = "Runway Gen-3"
)

// DefaultTargetModel is selected for every new session.
const DefaultTargetModel = TargetVeo3

// TargetModels returns the supported target models in display order.
func TargetModels() []TargetModel {
	return []TargetModel{TargetSora2, TargetVeo3, TargetLumaDreamMachine, TargetRunwayGen3}
}

// ParseTargetModel converts a user supplied value into a TargetModel.
func ParseTargetModel(in string) (TargetModel, error) {
	for _, m := range TargetModels() {
		if string(m) == strings.TrimSpace(in) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTargetModel, in)
}

// String implements fmt.Stringer.
func (t TargetModel) String() string {
	return string(t)
}

// MotionIntensity classifies how much movement a segment contains.
type MotionIntensity string

const (
	MotionLow    MotionIntensity = "Low"
	MotionMedium MotionIntensity = "Medium"
	MotionHigh   MotionIntensity = "High"
)

// MotionIntensities returns the allowed motion intensity values. The same list
// is used as the enum of the response schema.
func MotionIntensities() []MotionIntensity {
	return []MotionIntensity{MotionLow, MotionMedium, MotionHigh}
}

// Valid reports whether the intensity is one of the allowed values.
func (m MotionIntensity) Valid() bool {
	for _, v := range MotionIntensities() {
		if v == m {
			return true
		}
	}
	return false
}

// VideoSegment is one detected shot of the source video. Segments are produced
// as part of an AnalysisResponse and never mutated afterwards; their order is
// the temporal order of the source video.
type VideoSegment struct {
	StartTime            string          `json:"startTime"`                // Time string, e.g. "00:04" or "0:01:12".
	EndTime              string          `json:"endTime"`                  // Time string, same format as StartTime.
	Description          string          `json:"description"`              // Human readable summary of the shot.
	CameraMovement       string          `json:"cameraMovement,omitempty"` // Optional free-form camera movement note.
	FrameByFrameAnalysis string          `json:"frameByFrameAnalysis"`     // Movement progression across frames.
	CameraTechnical      string          `json:"cameraTechnical"`          // Lens, aperture and camera path.
	LightingTechnical    string          `json:"lightingTechnical"`        // Light positioning and color temperature.
	Composition          string          `json:"composition,omitempty"`    // Framing and visual balance.
	MotionIntensity      MotionIntensity `json:"motionIntensity,omitempty"`
	AIPrompt             string          `json:"aiPrompt"` // Replication prompt for the target model.
}

// AnalysisResponse is the top level result of a video analysis.
type AnalysisResponse struct {
	OverallStyle string          `json:"overallStyle"`
	Segments     []*VideoSegment `json:"segments"`
}

// Validate checks that every required field is present and non-empty. A
// response that fails validation is never handed to a session.
func (r *AnalysisResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty response", ErrInvalidStructure)
	}
	if strings.TrimSpace(r.OverallStyle) == "" {
		return fmt.Errorf("%w: missing overallStyle", ErrInvalidStructure)
	}
	if len(r.Segments) == 0 {
		return fmt.Errorf("%w: missing segments", ErrInvalidStructure)
	}
	for i, s := range r.Segments {
		if err := s.validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

func (s *VideoSegment) validate() error {
	if s == nil {
		return fmt.Errorf("%w: null segment", ErrInvalidStructure)
	}
	required := []struct {
		name  string
		value string
	}{
		{"startTime", s.StartTime},
		{"endTime", s.EndTime},
		{"description", s.Description},
		{"frameByFrameAnalysis", s.FrameByFrameAnalysis},
		{"cameraTechnical", s.CameraTechnical},
		{"lightingTechnical", s.LightingTechnical},
		{"aiPrompt", s.AIPrompt},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidStructure, f.name)
		}
	}
	if s.MotionIntensity != "" && !s.MotionIntensity.Valid() {
		return fmt.Errorf("%w: motionIntensity %q", ErrInvalidStructure, s.MotionIntensity)
	}
	return nil
}
