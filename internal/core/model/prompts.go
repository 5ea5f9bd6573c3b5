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

// DefaultAnalysisPrompt is the instruction sent alongside the video. It is a
// text/template rendered with AnalysisPromptParams and can be overridden by
// the `prompt_templates.analysis` configuration value.
const DefaultAnalysisPrompt = `Act as a Forensics Cinematographer and Senior AI Prompt Engineer. Your task is to perform an exhaustive frame-by-frame deconstruction of this video to create high-fidelity replication prompts.

STRICT REQUIREMENTS:
1. **Temporal Segmentation**: Identify every distinct camera or action shift. Do not skip transitions; analyze the 'energy' of the motion between key moments.
2. **Frame-by-Frame Scrub**: In the 'frameByFrameAnalysis', describe the physics of the scene. Mention how light hits surfaces as they move, the inertia of the camera, and micro-expressions or background shifts.
3. **Technical Metadata**:
   - **Camera**: Specific lens choice (e.g., 35mm anamorphic), aperture (f/1.8 for shallow DOF), and the exact physical path (e.g., 'subtle handheld jitter with a slow push-in').
   - **Lighting**: Map the light sources. Identify key, fill, and rim lights. Mention the 'Color Science' (e.g., teal/orange, high-contrast noir).
   - **Materiality**: Describe how textures (fabric, skin, metal) react to the environment's physics.
4. **Model Specifics**:
   - For {{.TargetModel}}: If it's Sora 2, emphasize complex interaction between multiple characters and their environment with perfect temporal consistency.
   - If it's Veo 3, focus on creative aesthetic control, lighting nuances, and high-quality cinematic grain.
   - The 'aiPrompt' must be a master-class narrative that guides the AI model through the entire duration of the segment, specifying the 'start state' and the 'end state' of the motion.

Return the analysis in the requested JSON format.`

// AnalysisPromptParams are the values available to the analysis prompt template.
type AnalysisPromptParams struct {
	TargetModel TargetModel
}
