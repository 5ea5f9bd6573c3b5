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
// This file contains general-purpose utility functions that support the cloud package.
// These helpers cover hierarchical configuration loading, file system checks,
// and single-shot interaction with the Generative AI API.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable.
//   - GenerateMultiModalResponse: Sends one request to the model, records token usage
//     and returns the concatenated response text.
//   - ResponseText: Extracts the non-thought text of the first candidate.
//   - NewTextPart, NewInlineData: Factory functions for genai.Part values.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// Cloud Constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime-specific configuration file paths
// derived from the EnvConfigFilePrefix and EnvConfigRuntime variables. The
// runtime defaults to "test".
func ConfigFiles() (base string, env string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	env = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, env
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. Missing files are skipped, so defaults already present in
// baseConfig survive.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
//
// Outputs:
//   - error: The first decode failure, if any.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	for _, fileName := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(fileName) {
			slog.Debug("configuration file not found, skipping", "file", fileName)
			continue
		}
		if _, err := toml.DecodeFile(fileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", fileName, err)
		}
		slog.Info("loaded configuration file", "file", fileName)
	}
	return nil
}

// GenerateMultiModalResponse executes a single multi-modal request against a
// generative model and records token usage.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - model: The model to call.
//   - contents: The prompt contents (text, inline video).
//   - config: Request-specific generation settings.
//
// Outputs:
//   - string: The concatenated text content from the model's response.
//   - error: The error returned by the model, unchanged.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model ContentGenerator,
	contents []*genai.Content,
	config *genai.GenerateContentConfig) (string, error) {
	resp, err := model.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("model returned an empty response")
	}
	if usage := resp.UsageMetadata; usage != nil {
		inputTokenCounter.Add(ctx, int64(usage.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(usage.CandidatesTokenCount))
	}
	return ResponseText(resp), nil
}

// ResponseText concatenates the text parts of the first candidate, skipping
// thought summaries, and strips a surrounding markdown code fence.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	value := strings.TrimSpace(sb.String())
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}

// NewTextPart is a simple factory function for creating a text part.
func NewTextPart(in string) *genai.Part {
	return &genai.Part{Text: in}
}

// NewInlineData is a simple factory function for creating an inline binary part.
//
// Inputs:
//   - data: The raw bytes, sent base64 encoded by the SDK.
//   - mimeType: The MIME type of the data (e.g., "video/mp4").
func NewInlineData(data []byte, mimeType string) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}
}
