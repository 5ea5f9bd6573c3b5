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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the standard Generative AI client.
// The wrapper uses the Decorator pattern to add client-side rate limiting to
// the generative model: requests wait for a token from a limiter before they
// are sent, so a burst of uploads cannot exceed the configured quota.
//
// A request is sent exactly once. Failures are handed back to the caller
// unchanged; there is no retry loop.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps a model name, its generation config
//     and the SDK's Models handle together with a rate limiter.
//
// Interfaces:
//   - ContentGenerator: The single method the analysis workflow depends on.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the capability the analysis commands need from a model.
// QuotaAwareGenerativeAIModel implements it; tests substitute a fake.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GetModelName() string
}

// QuotaAwareGenerativeAIModel is a decorator around `genai.Models` that binds
// a model name and its base generation config, and rate limits every call.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Base configuration applied to every request.
	ModelName               string                       // e.g. "gemini-3-pro-preview".
	ModelHandle             *genai.Models                // The SDK handle used to issue requests.
	RateLimit               *rate.Limiter                // Token bucket refilled once per second.
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - wrapped: The base generation config for the model.
//   - name: The model name passed to the SDK.
//   - modelHandle: The SDK's Models service.
//   - requestsPerSecond: The burst size of the limiter. Values below one are treated as one.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GetModelName returns the model name requests are sent to.
func (q *QuotaAwareGenerativeAIModel) GetModelName() string {
	return q.ModelName
}

// GenerateContent waits for the rate limiter and then issues a single request.
// Per-request settings in `overrides` (response schema, MIME type) are layered
// on top of the base configuration; the base config itself is never mutated.
//
// Inputs:
//   - ctx: The context for the request. Cancelling it abandons the wait and the call.
//   - contents: The multi-modal prompt.
//   - overrides: Optional request-specific configuration.
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the AI model if successful.
//   - error: The limiter or SDK error, unchanged.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, contents []*genai.Content, overrides *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if q.ModelHandle == nil {
		return nil, fmt.Errorf("model %s has no client handle", q.ModelName)
	}
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, contents, MergeGenerateContentConfig(q.GenerativeContentConfig, overrides))
}

// MergeGenerateContentConfig returns a copy of base with the non-zero fields
// of overrides applied.
func MergeGenerateContentConfig(base, overrides *genai.GenerateContentConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{}
	if base != nil {
		*out = *base
	}
	if overrides == nil {
		return out
	}
	if overrides.ResponseMIMEType != "" {
		out.ResponseMIMEType = overrides.ResponseMIMEType
	}
	if overrides.ResponseSchema != nil {
		out.ResponseSchema = overrides.ResponseSchema
	}
	if overrides.ThinkingConfig != nil {
		out.ThinkingConfig = overrides.ThinkingConfig
	}
	if overrides.SystemInstruction != nil {
		out.SystemInstruction = overrides.SystemInstruction
	}
	return out
}
