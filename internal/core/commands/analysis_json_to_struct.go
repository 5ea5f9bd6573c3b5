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
// command that turns the model's JSON text into a validated AnalysisResponse.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/cor"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// AnalysisJsonToStruct is a command that parses a JSON string into an
// AnalysisResponse struct and validates it.
type AnalysisJsonToStruct struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewAnalysisJsonToStruct is the constructor for the AnalysisJsonToStruct command.
//
// Inputs:
//   - name: The command name.
//   - outputParamName: The context key the parsed response is stored under.
func NewAnalysisJsonToStruct(name string, outputParamName string) *AnalysisJsonToStruct {
	out := AnalysisJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

// Execute parses and validates the response. Any failure is reported as
// model.ErrInvalidStructure.
func (s *AnalysisJsonToStruct) Execute(context cor.Context) {
	in, _ := context.Get(s.GetInputParam()).(string)

	doc := &model.AnalysisResponse{}
	if err := json.Unmarshal([]byte(in), doc); err != nil {
		slog.ErrorContext(context.GetContext(), "failed to parse analysis response", "error", err, "length", len(in))
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("%w: %v", model.ErrInvalidStructure, err))
		return
	}
	if err := doc.Validate(); err != nil {
		slog.ErrorContext(context.GetContext(), "analysis response failed validation", "error", err)
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), doc)
	context.Add(cor.CtxOut, doc)
}
