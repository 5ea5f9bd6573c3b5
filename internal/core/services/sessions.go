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
// This file, `sessions.go`, defines the SessionService, an in-memory registry
// mapping browser session ids to their controllers. Idle sessions are evicted
// by a scheduled sweep; nothing is persisted.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
)

// SessionService owns every live session controller and the background
// analyses they start.
type SessionService struct {
	analyzer    session.Analyzer // Shared by all sessions.
	idleTimeout time.Duration    // Sessions idle for longer are evicted by Sweep.
	options     session.Options  // Template for new controllers.

	mu       sync.RWMutex
	sessions map[string]*session.Controller

	ctx    context.Context // Parent of every background analysis.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionService is the constructor for SessionService.
//
// Inputs:
//   - analyzer: The analysis workflow shared by all sessions.
//   - idleTimeout: How long a session may stay untouched before eviction.
//   - options: Controller options (clock, copy reset delay, logger).
func NewSessionService(analyzer session.Analyzer, idleTimeout time.Duration, options session.Options) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		analyzer:    analyzer,
		idleTimeout: idleTimeout,
		options:     options,
		sessions:    make(map[string]*session.Controller),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Create registers a new session under a random id.
func (s *SessionService) Create() *session.Controller {
	id := uuid.NewString()
	c := session.NewController(id, s.analyzer, s.options)

	s.mu.Lock()
	s.sessions[id] = c
	s.mu.Unlock()

	slog.Info("session created", "session", id)
	return c
}

// Get returns the session registered under id.
func (s *SessionService) Get(id string) (*session.Controller, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	return c, ok
}

// GetOrCreate returns the session registered under id, or a new one when the
// id is unknown (for example after eviction). created reports which.
func (s *SessionService) GetOrCreate(id string) (c *session.Controller, created bool) {
	if c, ok := s.Get(id); ok {
		return c, false
	}
	return s.Create(), true
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle since before now minus the idle timeout. Busy
// sessions are kept regardless of age. It returns the number evicted.
func (s *SessionService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTimeout)

	var evicted []*session.Controller
	s.mu.Lock()
	for id, c := range s.sessions {
		if c.Busy() || c.LastActive().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted = append(evicted, c)
	}
	s.mu.Unlock()

	for _, c := range evicted {
		c.Close()
		slog.Info("session evicted", "session", c.ID(), "last_active", c.LastActive())
	}
	return len(evicted)
}

// Analyze runs an encoded attempt in the background. The analysis outlives
// the HTTP request that started it and is canceled by Close.
func (s *SessionService) Analyze(attempt *session.Attempt, payload model.VideoPayload) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := attempt.Analyze(s.ctx, payload); err != nil {
			slog.Warn("analysis attempt failed", "attempt", attempt.Token(), "error", err)
		}
	}()
}

// Close cancels background analyses, waits for them, and closes every
// session.
func (s *SessionService) Close() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.sessions {
		c.Close()
		delete(s.sessions, id)
	}
}
