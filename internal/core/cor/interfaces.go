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

// Package cor is a small chain-of-responsibility framework. A workflow is a
// Chain of Commands sharing one Context; each command reads its input from
// the context, writes its output back, and records failures as errors keyed
// by its name.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Keys used by BaseChain to pipe one command's output into the next one's
// input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of one workflow run.
type Context interface {
	// SetContext replaces the Go context carrying cancellation and the
	// current span.
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores value under key and returns the receiver for chaining.
	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records err under key, usually the failing command's name.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	// Err returns the recorded errors joined into one, or nil when the
	// workflow succeeded.
	Err() error
}

// Executable is anything that runs against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a workflow.
type Command interface {
	Executable

	GetName() string

	// GetInputParam and GetOutputParam name the context keys the command
	// reads from and writes to.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable reports whether the context holds what Execute needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs commands in order. A Chain is itself a Command so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure keeps the chain running after a command records an
	// error. By default the chain stops at the first failure.
	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
