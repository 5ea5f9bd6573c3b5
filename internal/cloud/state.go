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
// This file is responsible for initializing and holding the client objects
// needed to talk to the Gemini API. It acts as a dependency injection
// container: a single `ServiceClients` struct is created at startup and passed
// to the workflows that need a model.
//
// Logic Flow:
//  1. The `NewCloudServiceClients` function is called at application startup.
//  2. It creates a GenAI client, either against the Gemini API with an API key
//     read from the environment, or against Vertex AI when configured.
//  3. It then builds a rate-limited model wrapper for every configured agent model.
//  4. Everything is bundled into a single `ServiceClients` struct.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/genai"
)

// ServiceClients is a struct that acts as a central container for the clients
// that interact with external Google services.
type ServiceClients struct {
	GenAIClient *genai.Client                           // Client for Google's Generative AI services.
	AgentModels map[string]*QuotaAwareGenerativeAIModel // Configured models keyed by logical name.
}

// Close releases client resources. The GenAI client holds no connection that
// needs closing, so this only drops the references.
func (c *ServiceClients) Close() {
	c.AgentModels = nil
	c.GenAIClient = nil
}

// ClientConfig builds the GenAI client configuration. Vertex AI is used when it
// is enabled and a project is set. Otherwise the Gemini API is used with the
// key read from the environment variable named in the configuration; a
// missing key is left for the SDK to report.
func ClientConfig(config *Config) *genai.ClientConfig {
	if config.Application.UseVertexAI && config.Application.GoogleProjectId != "" {
		return &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
	}
	return &genai.ClientConfig{
		APIKey:  os.Getenv(config.Application.APIKeyEnv),
		Backend: genai.BackendGeminiAPI,
	}
}

// NewGenerateContentConfig converts a model configuration into the base
// generation config applied to every request for that model. The thinking
// budget is not part of it; callers pass it per request.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.Temperature > 0 {
		out.Temperature = genai.Ptr[float32](values.Temperature)
	}
	if values.TopP > 0 {
		out.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.SystemInstructions != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return out
}

// NewCloudServiceClients is a factory function that initializes the GenAI
// client and the configured models.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if the client fails to initialize (e.g. no API key).
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	gc, err := genai.NewClient(ctx, ClientConfig(config))
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		agentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, gc.Models, values.RateLimit)
		slog.Info("configured agent model", "key", amKey, "model", values.Model, "rate_limit", values.RateLimit)
	}

	return &ServiceClients{
		GenAIClient: gc,
		AgentModels: agentModels,
	}, nil
}
