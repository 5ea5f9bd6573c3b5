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
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/services"
)

// SetupListeners starts the background jobs that run beside the HTTP
// server. The returned function stops them.
func SetupListeners(s *StateManager) (stop func(), err error) {
	// Idle browser sessions hold their clip in memory until evicted.
	sweeper, err := services.NewSweeper(s.sessions, s.config.Sessions.SweepSchedule)
	if err != nil {
		return nil, err
	}
	sweeper.Start()
	return sweeper.Stop, nil
}
