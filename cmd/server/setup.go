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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/services"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/workflow"
)

// StateManager holds the process wide components built at startup.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	workflow *workflow.VideoAnalysisWorkflow
	sessions *services.SessionService
}

var state = &StateManager{}

// SetupOS points the configuration loader at configDir and runtime.
func SetupOS(configDir, runtime string) (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, configDir)
	if err != nil {
		return err
	}
	// The config loader looks for ".env.<runtime>.toml" to override base settings.
	err = os.Setenv(cloud.EnvConfigRuntime, runtime)
	return err
}

// GetConfig loads the configuration once and caches it.
func GetConfig(configDir, runtime string) (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(configDir, runtime); err != nil {
			return nil, fmt.Errorf("failed to setup os for config loading: %w", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// InitState builds the GenAI clients, the analysis workflow and the session
// registry.
func InitState(ctx context.Context) error {
	config := state.config
	if config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	analysis, err := workflow.NewVideoAnalysisPipeline(config, cloudClients, cloud.DefaultAgentModel)
	if err != nil {
		return err
	}
	state.workflow = analysis

	idle := time.Duration(config.Sessions.IdleTimeoutMinutes) * time.Minute
	state.sessions = services.NewSessionService(analysis, idle, session.Options{
		CopyReset: time.Duration(config.Sessions.CopyResetMillis) * time.Millisecond,
		Logger:    slog.Default(),
	})
	return nil
}

// CloseState stops background analyses and releases the clients.
func CloseState() {
	if state.sessions != nil {
		state.sessions.Close()
	}
	if state.cloud != nil {
		state.cloud.Close()
	}
}
