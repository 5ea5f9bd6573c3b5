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
// Responsibility (COR) pattern's Command interface. This file defines the
// command that sends the clip and the prompt to the generative model.
//
// The clip travels inline as a blob next to the prompt, and the model is
// asked for JSON constrained by AnalysisResponseSchema. Exactly one request is
// made; a failure is recorded unchanged so callers can surface the service's
// own message.
package commands

import (
	"encoding/base64"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/cor"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// AnalysisGenerator is a command that asks a generative model for a
// cinematographic breakdown of a video payload.
type AnalysisGenerator struct {
	cor.BaseCommand
	generativeAIModel        cloud.ContentGenerator // The rate-limited generative model client.
	thinkingBudget           int32                  // Reasoning token budget; zero keeps the model default.
	geminiInputTokenCounter  metric.Int64Counter    // OTel counter for input tokens.
	geminiOutputTokenCounter metric.Int64Counter    // OTel counter for output tokens.
}

// NewAnalysisGenerator is the constructor for the AnalysisGenerator command.
//
// Inputs:
//   - name: The command name, used for tracing and metrics.
//   - generativeAIModel: The model wrapper requests go through.
//   - thinkingBudget: Token budget for model reasoning; zero leaves it unset.
func NewAnalysisGenerator(name string, generativeAIModel cloud.ContentGenerator, thinkingBudget int32) *AnalysisGenerator {
	out := &AnalysisGenerator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		thinkingBudget:    thinkingBudget,
	}
	out.InputParamName = ParamPayload

	// Initialize OpenTelemetry counters for monitoring Gemini API usage for this specific command.
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

// IsExecutable requires both the payload and the rendered prompt.
func (g *AnalysisGenerator) IsExecutable(context cor.Context) bool {
	return g.BaseCommand.IsExecutable(context) && context.Get(ParamPrompt) != nil
}

// GenerateConfig returns the per-request overrides for a target model.
func (g *AnalysisGenerator) GenerateConfig(target model.TargetModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   AnalysisResponseSchema(target),
	}
	if g.thinkingBudget > 0 {
		out.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](g.thinkingBudget)}
	}
	return out
}

// Execute decodes the payload, issues the request, and places the raw JSON
// text in the chain's output slot.
func (g *AnalysisGenerator) Execute(context cor.Context) {
	payload, ok := context.Get(g.GetInputParam()).(model.VideoPayload)
	if !ok {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), fmt.Errorf("%w: missing video payload", model.ErrStreamInterrupted))
		return
	}
	prompt, _ := context.Get(ParamPrompt).(string)
	target, _ := context.Get(ParamTargetModel).(model.TargetModel)

	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), fmt.Errorf("%w: %v", model.ErrStreamInterrupted, err))
		return
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				cloud.NewInlineData(data, payload.MIMEType),
				cloud.NewTextPart(prompt),
			},
			Role: "user",
		},
	}

	out, err := cloud.GenerateMultiModalResponse(
		context.GetContext(),
		g.geminiInputTokenCounter,
		g.geminiOutputTokenCounter,
		g.generativeAIModel,
		contents,
		g.GenerateConfig(target))
	if err != nil {
		g.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(g.GetName(), err)
		return
	}

	g.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(g.GetOutputParam(), out)
}
