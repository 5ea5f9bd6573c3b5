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

// Package telemetry sets up logging, tracing and metrics. This file installs
// the OpenTelemetry tracer and meter providers. With a Google project
// configured, spans go to Cloud Trace and metrics to Cloud Monitoring.
package telemetry

import (
	"context"
	"errors"
	"log/slog"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"google.golang.org/api/option"

	"github.com/jaycherian/gcp-go-cineprompt/internal/cloud"
)

// SetupOpenTelemetry installs the global propagator, tracer provider and
// meter provider. The returned shutdown flushes and stops them; call it on
// exit.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.Application.Name),
		),
	)
	// Off GCP the detector reports a partial resource; that is not fatal.
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		slog.Error("resource.New failed", "error", err)
		return nil, err
	}

	// W3C trace context and baggage unless OTEL_PROPAGATORS says otherwise.
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	// No project: providers without exporters.
	if config.Application.GoogleProjectId == "" {
		tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		mp := metric.NewMeterProvider(metric.WithResource(res))
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown, mp.Shutdown)
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		slog.Info("telemetry exporters disabled, no google project configured")
		return shutdown, nil
	}

	// Application default credentials unless a key file is configured.
	var clientOpts []option.ClientOption
	if config.Application.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.Application.CredentialsFile))
	}

	traceExporter, err := telemetryexporter.New(
		telemetryexporter.WithProjectID(config.Application.GoogleProjectId),
		telemetryexporter.WithTraceClientOptions(clientOpts),
	)
	if err != nil {
		slog.Error("unable to set up trace exporter", "error", err)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mExporter, err := mexporter.New(
		mexporter.WithProjectID(config.Application.GoogleProjectId),
		mexporter.WithMonitoringClientOptions(clientOpts...),
	)
	if err != nil {
		slog.Error("failed to create metric exporter", "error", err)
		return nil, errors.Join(err, shutdown(ctx))
	}

	mProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(mExporter)),
		metric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
