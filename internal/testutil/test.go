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

// Package test holds shared fixtures for the test suites: the test
// configuration, sample analysis data, and in-memory fakes for the model and
// the analyzer.
package test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// StateManager caches the test configuration for the whole run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// GetTestAnalysisJSON returns a well-formed model answer describing the
// example analysis, as the generator would return it.
func GetTestAnalysisJSON() string {
	out, err := json.Marshal(model.GetExampleAnalysis())
	if err != nil {
		panic(err)
	}
	return string(out)
}

// GetTestVideoPayload returns a tiny encoded "clip". The bytes are not a real
// video; nothing in the analysis path decodes them beyond base64.
func GetTestVideoPayload() model.VideoPayload {
	return model.VideoPayload{
		Data:     base64.StdEncoding.EncodeToString([]byte("\x00\x00\x00\x18ftypmp42")),
		MIMEType: "video/mp4",
	}
}

// FakeGenerator is a cloud.ContentGenerator that answers from memory and
// records what it was asked.
type FakeGenerator struct {
	mu       sync.Mutex
	Text     string // Returned as the single candidate part.
	Err      error  // Returned instead of a response when set.
	Calls    int
	Contents [][]*genai.Content
	Configs  []*genai.GenerateContentConfig
}

// NewFakeGenerator returns a generator answering with text.
func NewFakeGenerator(text string) *FakeGenerator {
	return &FakeGenerator{Text: text}
}

// GenerateContent implements cloud.ContentGenerator.
func (f *FakeGenerator) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Contents = append(f.Contents, contents)
	f.Configs = append(f.Configs, config)
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.Text}}, Role: "model"},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(len(contents)),
			CandidatesTokenCount: int32(len(f.Text)),
		},
	}, nil
}

// GetModelName implements cloud.ContentGenerator.
func (f *FakeGenerator) GetModelName() string {
	return "fake-gemini"
}

// CallCount returns the number of requests received so far.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// FakeAnalyzer is a session analyzer that answers from memory. When Gate is
// set, Analyze blocks until a value is received or the context ends.
type FakeAnalyzer struct {
	mu       sync.Mutex
	Result   *model.AnalysisResponse
	Err      error
	Gate     chan struct{}
	Calls    int
	Targets  []model.TargetModel
	Payloads []model.VideoPayload
}

// Analyze records the request and returns the configured outcome.
func (f *FakeAnalyzer) Analyze(ctx context.Context, payload model.VideoPayload, target model.TargetModel) (*model.AnalysisResponse, error) {
	f.mu.Lock()
	f.Calls++
	f.Targets = append(f.Targets, target)
	f.Payloads = append(f.Payloads, payload)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Result, f.Err
}

// CallCount returns the number of Analyze calls so far.
func (f *FakeAnalyzer) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// ConfigDir returns the repository's configs directory. Tests run from their
// package directory, so the module root is found by walking up to go.mod.
func ConfigDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "configs"
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "configs")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "configs"
		}
		dir = parent
	}
}

// SetupOS configures the necessary environment variables that the configuration
// loader (`cloud.LoadConfig`) depends on. By setting these variables, we can
// direct the loader to use the test-specific configuration files (e.g.,
// `configs/.env.test.toml`) instead of production or development ones.
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	// Set the directory where the configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	// Set the runtime environment identifier to "test". This causes the loader
	// to look for a file named ".env.test.toml" for overrides.
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
// It ensures that the configuration is loaded from TOML files only once and
// is cached in the package-level `state` variable for subsequent calls.
// This is the primary way tests should retrieve their configuration.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	// Check if the config is already cached.
	if state.config == nil {
		// If not cached, set up the OS environment for the test configuration.
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		// Create a new, empty config struct.
		config := cloud.NewConfig()
		// Load the configuration from the TOML files into the struct.
		// `LoadConfig` handles the hierarchical loading (base file + test override).
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		// Cache the loaded config in our state manager.
		state.config = config
	}
	// Return the cached configuration.
	return state.config
}
