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
// command that renders the analysis prompt for the selected target model.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/cor"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// AnalysisPromptBuilder renders the prompt template with the target model and
// stores the text under ParamPrompt.
type AnalysisPromptBuilder struct {
	cor.BaseCommand
	template *template.Template // The Go template for building the prompt.
}

// NewAnalysisPromptBuilder is the constructor for the AnalysisPromptBuilder command.
//
// Inputs:
//   - name: The command name, used for tracing and metrics.
//   - template: A parsed template executed with model.AnalysisPromptParams.
func NewAnalysisPromptBuilder(name string, template *template.Template) *AnalysisPromptBuilder {
	out := &AnalysisPromptBuilder{
		BaseCommand: *cor.NewBaseCommand(name),
		template:    template,
	}
	out.InputParamName = ParamTargetModel
	out.OutputParamName = ParamPrompt
	return out
}

// Execute renders the template. A missing or mistyped target model is an error.
func (p *AnalysisPromptBuilder) Execute(context cor.Context) {
	target, ok := context.Get(p.GetInputParam()).(model.TargetModel)
	if !ok {
		p.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(p.GetName(), fmt.Errorf("%w: missing target model", model.ErrUnknownTargetModel))
		return
	}

	var buffer bytes.Buffer
	if err := p.template.Execute(&buffer, model.AnalysisPromptParams{TargetModel: target}); err != nil {
		p.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(p.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	p.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(p.GetOutputParam(), buffer.String())
}
