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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the HTTP server, the Gemini models, logging and prompt templates.
//
// Structs:
//   - PromptTemplates: Holds the text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for a generative model used for analysis.
//   - Logging: Log file rotation and console format settings.
//   - Sessions: Lifetime settings for in-memory browser sessions.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that returns a Config populated with defaults.
package cloud

import (
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// DefaultAgentModel is the logical name of the model used for video analysis.
const DefaultAgentModel = "forensic-pro"

// DefaultSafetySettings defines the default content safety thresholds for GenAI models.
// Uploaded clips are user footage, so nothing is blocked on our side.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the templates for different types of prompts.
type PromptTemplates struct {
	AnalysisPrompt string `toml:"analysis"` // The template for the video deconstruction prompt. Empty means built-in.
}

// VertexAiLLMModel represents the configuration for a generative model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Gemini model.
	SystemInstructions string  `toml:"system_instructions"` // Optional system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter; zero leaves the service default.
	TopP               float32 `toml:"top_p"`               // The top_p parameter; zero leaves the service default.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the output; zero leaves the service default.
	ThinkingBudget     int32   `toml:"thinking_budget"`     // Token budget for model reasoning, sent per request; zero leaves it unset.
	OutputFormat       string  `toml:"output_format"`       // The desired output MIME type.
	RateLimit          int     `toml:"rate_limit"`          // Burst size of the request limiter, refilled once per second.
}

// Logging holds the log output settings.
type Logging struct {
	File       string `toml:"file"`         // Path of the rotated log file. Empty disables file logging.
	Format     string `toml:"format"`       // "json" (Cloud Logging layout) or "text" (colored console).
	Level      string `toml:"level"`        // debug, info, warn or error.
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotation threshold.
	MaxBackups int    `toml:"max_backups"`  // Rotated files kept.
	MaxAgeDays int    `toml:"max_age_days"` // Days a rotated file is kept.
}

// Sessions holds the lifetime settings of in-memory browser sessions.
type Sessions struct {
	IdleTimeoutMinutes int    `toml:"idle_timeout_minutes"` // Idle sessions older than this are evicted.
	SweepSchedule      string `toml:"sweep_schedule"`       // Cron spec for the eviction job.
	CopyResetMillis    int    `toml:"copy_reset_millis"`    // How long the "copied" marker stays visible.
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // Optional Google Cloud project; enables Vertex AI and GCP exporters.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location used with Vertex AI.
		CredentialsFile string `toml:"credentials_file"`  // Optional service account key for the telemetry exporters.
		UseVertexAI     bool   `toml:"use_vertex_ai"`     // Route model calls through Vertex AI instead of the Gemini API.
		APIKeyEnv       string `toml:"api_key_env"`       // Environment variable holding the Gemini API key.
		ListenAddress   string `toml:"listen_address"`    // Address the HTTP server binds to.
	} `toml:"application"`
	Logging         Logging                     `toml:"logging"`          // Log output configuration.
	Sessions        Sessions                    `toml:"sessions"`         // Session lifetime configuration.
	PromptTemplates PromptTemplates             `toml:"prompt_templates"` // Prompt templates configuration.
	AgentModels     map[string]VertexAiLLMModel `toml:"agent_models"`     // Generative models keyed by a logical name (e.g., "forensic-pro").
}

// NewConfig is a constructor function that creates a new Config instance with
// defaults in place. Values decoded from TOML files overwrite these defaults.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	c := &Config{
		Logging: Logging{
			File:       "app.log",
			Format:     "json",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Sessions: Sessions{
			IdleTimeoutMinutes: 60,
			SweepSchedule:      "@every 1m",
			CopyResetMillis:    2000,
		},
		PromptTemplates: PromptTemplates{AnalysisPrompt: model.DefaultAnalysisPrompt},
		AgentModels: map[string]VertexAiLLMModel{
			DefaultAgentModel: {
				Model:          "gemini-3-pro-preview",
				ThinkingBudget: 8000,
				OutputFormat:   "application/json",
				RateLimit:      5,
			},
		},
	}
	c.Application.Name = "cineprompt"
	c.Application.GoogleLocation = "us-central1"
	c.Application.APIKeyEnv = "API_KEY"
	c.Application.ListenAddress = ":8080"
	return c
}
