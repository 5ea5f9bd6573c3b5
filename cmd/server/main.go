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

// Package main is the entry point of the CinePrompt server. It loads the
// configuration, sets up logging and telemetry, builds the analysis workflow
// and the session registry, and serves the page and API with gin until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-cineprompt/internal/api"
	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
	"github.com/jaycherian/gcp-go-cineprompt/internal/telemetry"
)

var version = "dev" // Overwritten at build time

type serverOptions struct {
	configDir string
	runtime   string
	addr      string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &serverOptions{}
	rootCmd := &cobra.Command{
		Use:   "cineprompt",
		Short: "Cinematographic breakdowns of short video clips",
		Long: `cineprompt serves a single page where a short clip is uploaded, analyzed
by Gemini and broken down into segments with lighting, camera and composition
notes plus a replication prompt for a chosen video generation model.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&opts.configDir, "config-dir", envOr(cloud.EnvConfigFilePrefix, "configs"), "Directory holding .env.toml and its runtime overrides")
	rootCmd.Flags().StringVar(&opts.runtime, "runtime", envOr(cloud.EnvConfigRuntime, "local"), "Runtime whose .env.<runtime>.toml overrides the base config")
	rootCmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides application.listen_address)")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cineprompt version %s\n", version)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runServer(parent context.Context, opts *serverOptions) error {
	// Create a new context that can be cancelled. This is the root context for the application.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	config, err := GetConfig(opts.configDir, opts.runtime)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		config.Application.ListenAddress = opts.addr
	}

	logCloser := telemetry.SetupLogging(config.Logging)
	defer logCloser.Close()
	slog.Info("Logging initialized", "version", version, "runtime", opts.runtime)

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to setup OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	slog.Info("Tracing initialized")

	if err := InitState(ctx); err != nil {
		return err
	}
	defer CloseState()
	slog.Info("Initialized State")

	stopListeners, err := SetupListeners(state)
	if err != nil {
		return err
	}
	defer stopListeners()

	handlers := api.NewHandlers(state.sessions, config.Sessions.CopyResetMillis)
	srv := &http.Server{
		Addr:         config.Application.ListenAddress,
		Handler:      api.NewRouter(handlers, config.Application.Name),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Server Ready", "address", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	slog.Info("Server exiting")
	return nil
}
