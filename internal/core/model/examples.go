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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides factory functions for hardcoded example instances
// of the analysis models. They back the test fixtures and the canned responses
// used when exercising the workflow without a live model.
package model

// GetExampleSegment creates a sample VideoSegment carrying every field the
// response schema asks for.
//
// Outputs:
//   - *VideoSegment: A pointer to a hardcoded segment.
func GetExampleSegment() *VideoSegment {
	return &VideoSegment{
		StartTime:            "00:00",
		EndTime:              "00:04",
		Description:          "Rain-soaked alley, a courier sprints toward camera",
		FrameByFrameAnalysis: "Frames 1-12: the courier enters from deep background, puddles splash on each stride. Frames 13-48: the camera drifts backwards, neon reflections smear across the wet asphalt as the runner closes distance.",
		CameraTechnical:      "35mm anamorphic, f/1.8, handheld with a slow pull-back matching the runner's speed",
		LightingTechnical:    "Magenta neon key from camera left, cyan rim from signage behind, teal/orange grade",
		Composition:          "Centered subject, alley walls converge to a vanishing point behind the head",
		MotionIntensity:      MotionHigh,
		AIPrompt:             "Start state: a courier in a yellow rain jacket at the far end of a neon alley. The camera pulls back on a handheld rig as the courier sprints forward, water spraying from each footfall. End state: the courier fills the frame, breath visible, neon streaks across the lens.",
	}
}

// GetExampleAnalysis creates a sample AnalysisResponse with two segments in
// temporal order.
//
// Outputs:
//   - *AnalysisResponse: A pointer to a hardcoded, valid response.
func GetExampleAnalysis() *AnalysisResponse {
	second := &VideoSegment{
		StartTime:            "00:04",
		EndTime:              "00:09",
		Description:          "Close-up of the courier checking a cracked phone screen",
		FrameByFrameAnalysis: "The phone rises into frame, rain beads roll down the glass, the courier's eyes flick up toward an off-screen noise.",
		CameraTechnical:      "85mm, f/2, locked-off tripod, subtle focus pull from phone to eyes",
		LightingTechnical:    "Phone screen acts as a cool key, warm practical bounce fills the shadow side",
		Composition:          "Tight two-thirds framing, phone in the lower third",
		MotionIntensity:      MotionLow,
		AIPrompt:             "Start state: a rain-soaked phone enters the lower frame. Focus racks from the cracked screen to the courier's eyes. End state: the courier looks up, startled, rain still falling.",
	}
	return &AnalysisResponse{
		OverallStyle: "Neo-noir urban thriller with saturated neon, wet surfaces and restless handheld energy.",
		Segments:     []*VideoSegment{GetExampleSegment(), second},
	}
}
