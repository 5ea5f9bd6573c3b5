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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file holds the
// context keys shared by the analysis commands and the response schema the
// model is constrained to.
package commands

import (
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// Context keys used by the video analysis chain.
const (
	ParamTargetModel = "__TARGET_MODEL__" // model.TargetModel the prompt is written for.
	ParamPayload     = "__PAYLOAD__"      // model.VideoPayload being analyzed.
	ParamPrompt      = "__PROMPT__"       // Rendered prompt text.
	ParamAnalysis    = "__ANALYSIS__"     // Parsed *model.AnalysisResponse.
)

func describedString(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// AnalysisResponseSchema returns the structured output schema for a video
// breakdown. The aiPrompt description names the target model.
func AnalysisResponseSchema(target model.TargetModel) *genai.Schema {
	intensities := make([]string, 0, len(model.MotionIntensities()))
	for _, m := range model.MotionIntensities() {
		intensities = append(intensities, string(m))
	}

	segment := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"startTime":            {Type: genai.TypeString},
			"endTime":              {Type: genai.TypeString},
			"description":          {Type: genai.TypeString},
			"frameByFrameAnalysis": describedString("Detailed description of movement progression across frames."),
			"cameraTechnical":      describedString("Lens, aperture, and precise camera pathing data."),
			"lightingTechnical":    describedString("Technical light positioning and color temperature analysis."),
			"composition":          describedString("Framing, geometry, and visual balance details."),
			"motionIntensity":      {Type: genai.TypeString, Enum: intensities},
			"aiPrompt":             describedString("The final, master-engineered prompt for " + target.String() + "."),
		},
		PropertyOrdering: []string{
			"startTime", "endTime", "description", "frameByFrameAnalysis", "cameraTechnical",
			"lightingTechnical", "composition", "motionIntensity", "aiPrompt",
		},
		Required: []string{
			"startTime", "endTime", "description", "frameByFrameAnalysis",
			"cameraTechnical", "lightingTechnical", "aiPrompt",
		},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallStyle": describedString("A comprehensive summary of the visual language and cinematic soul of the video."),
			"segments":     {Type: genai.TypeArray, Items: segment},
		},
		PropertyOrdering: []string{"overallStyle", "segments"},
		Required:         []string{"segments", "overallStyle"},
	}
}
