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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// video analysis workflow behind every upload attempt.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/commands"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/cor"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// VideoAnalysisWorkflow turns an encoded clip into a validated
// AnalysisResponse. It is structured as a Chain of Responsibility (cor.Chain):
// render the prompt, call the model, then parse and validate the JSON.
//
// A single workflow is shared by all sessions; each call gets its own
// cor.Context.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	genaiModel     cloud.ContentGenerator
	promptTemplate *template.Template
	thinkingBudget int32
	chain          cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the workflow by invoking the underlying chain.
func (w *VideoAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up this workflow.
func (w *VideoAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Render the forensics prompt for the target model.
	out.AddCommand(commands.NewAnalysisPromptBuilder("analysis-prompt-builder", w.promptTemplate))

	// Step 2: Send the clip and the prompt to the model, constrained to the
	// response schema. The raw JSON text becomes the next command's input.
	out.AddCommand(commands.NewAnalysisGenerator("analysis-generator", w.genaiModel, w.thinkingBudget))

	// Step 3: Parse and validate the JSON into a model.AnalysisResponse stored
	// under commands.ParamAnalysis.
	out.AddCommand(commands.NewAnalysisJsonToStruct("analysis-json-to-struct", commands.ParamAnalysis))

	w.chain = out
}

// Analyze runs one analysis attempt.
//
// Inputs:
//   - ctx: Request context; cancellation aborts the chain between commands.
//   - payload: The base64 encoded clip and its MIME type.
//   - target: The video generation model the prompts are written for.
//
// Returns:
//   - The validated response, or an error. A model failure is returned as the
//     service reported it; an unusable answer wraps model.ErrInvalidStructure.
func (w *VideoAnalysisWorkflow) Analyze(ctx context.Context, payload model.VideoPayload, target model.TargetModel) (*model.AnalysisResponse, error) {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(commands.ParamTargetModel, target)
	chCtx.Add(commands.ParamPayload, payload)

	w.Execute(chCtx)

	if err := chCtx.Err(); err != nil {
		w.GetErrorCounter().Add(ctx, 1)
		slog.ErrorContext(ctx, "video analysis failed", "target_model", target, "error", err)
		return nil, err
	}
	out, ok := chCtx.Get(commands.ParamAnalysis).(*model.AnalysisResponse)
	if !ok || out == nil {
		w.GetErrorCounter().Add(ctx, 1)
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidStructure, model.ErrNoAnalysisResponse)
	}
	w.GetSuccessCounter().Add(ctx, 1)
	slog.InfoContext(ctx, "video analysis completed", "target_model", target, "segments", len(out.Segments))
	return out, nil
}

// NewVideoAnalysisWorkflow is the constructor for the VideoAnalysisWorkflow.
//
// Inputs:
//   - promptTemplate: Template text rendered with model.AnalysisPromptParams;
//     empty selects model.DefaultAnalysisPrompt.
//   - genaiModel: The model requests are sent to.
//   - thinkingBudget: Reasoning token budget; zero leaves the model default.
//
// Returns:
//   - The workflow, or an error if the template does not parse.
func NewVideoAnalysisWorkflow(promptTemplate string, genaiModel cloud.ContentGenerator, thinkingBudget int32) (*VideoAnalysisWorkflow, error) {
	if promptTemplate == "" {
		promptTemplate = model.DefaultAnalysisPrompt
	}
	tmpl, err := template.New("analysis-template").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis prompt template: %w", err)
	}
	w := &VideoAnalysisWorkflow{
		BaseCommand:    *cor.NewBaseCommand("video-analysis-pipeline"),
		genaiModel:     genaiModel,
		promptTemplate: tmpl,
		thinkingBudget: thinkingBudget,
	}
	w.initializeChain()
	return w, nil
}

// NewVideoAnalysisPipeline wires the workflow to a configured agent model.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: The initialized GenAI clients.
//   - agentModelName: The agent model config to use (e.g., "forensic-pro").
func NewVideoAnalysisPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) (*VideoAnalysisWorkflow, error) {

	genaiModel, ok := serviceClients.AgentModels[agentModelName]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", agentModelName)
	}
	return NewVideoAnalysisWorkflow(
		config.PromptTemplates.AnalysisPrompt,
		genaiModel,
		config.AgentModels[agentModelName].ThinkingBudget)
}
