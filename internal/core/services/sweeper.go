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

// Package services contains the business logic behind the HTTP surface.
// This file, `sweeper.go`, schedules SessionService.Sweep with robfig/cron.
package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepJob is a cron.Job evicting idle sessions.
type SweepJob struct {
	service *SessionService
	now     func() time.Time
}

// NewSweepJob returns a job sweeping service against the wall clock.
func NewSweepJob(service *SessionService) *SweepJob {
	return &SweepJob{service: service, now: time.Now}
}

// Run implements cron.Job.
func (j *SweepJob) Run() {
	evicted := j.service.Sweep(j.now())
	if evicted > 0 {
		slog.Info("session sweep completed", "evicted", evicted, "live", j.service.Len())
	}
}

// Sweeper owns the cron scheduler running the sweep job.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper registers a SweepJob for service under the cron spec, e.g.
// "@every 1m".
func NewSweeper(service *SessionService, spec string) (*Sweeper, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(NewSweepJob(service))); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	slog.Info("session sweeper registered", "schedule", spec)
	return &Sweeper{cron: c}, nil
}

// Start runs the scheduler in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits up to ten seconds for a running sweep.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		slog.Warn("session sweeper stop timed out")
	}
}
