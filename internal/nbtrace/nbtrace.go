// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package nbtrace wraps OpenTelemetry span creation for scheduler tasks.
// A nil tracer is always safe to use: every helper degrades to a no-op
// span so the scheduler can run untraced in tests and single-host setups.
package nbtrace

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTask begins a span for one scheduler task (a job's build or test
// step on a given host), tagged with job/host/step attributes.
func StartTask(ctx context.Context, tracer trace.Tracer, job, host, step string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("panic during task span start", "error", r, "job", job)
		}
	}()

	return tracer.Start(ctx, "nbuild.task", trace.WithAttributes(
		attribute.String("job", job),
		attribute.String("host", host),
		attribute.String("step", step),
	))
}

// EndTask ends span, recording err on it first when non-nil. Safe to call
// with a nil span.
func EndTask(span trace.Span, err error) {
	if span == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("panic during task span end", "error", r)
		}
	}()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
