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

// Package nbmetrics collects Prometheus-compatible metrics for job builds
// and tests, exposed over OpenTelemetry's Prometheus bridge.
package nbmetrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Collector records warning/error counts and build durations for every
// job a loop runs, keyed by job name and host.
type Collector struct {
	meter metric.Meter

	warningsTotal metric.Int64Counter
	errorsTotal   metric.Int64Counter
	buildDuration metric.Float64Histogram

	exporter *prometheus.Exporter
	provider *sdkmetric.MeterProvider
}

// NewCollector creates a Collector backed by a fresh Prometheus exporter
// registered with the default Prometheus registry. Call Handler to expose
// the scrape endpoint and Shutdown to release the provider on exit.
func NewCollector() (*Collector, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("nbuild")

	c := &Collector{meter: meter, exporter: exporter, provider: provider}

	c.warningsTotal, err = meter.Int64Counter(
		"nbuild_job_warnings_total",
		metric.WithDescription("Total compiler/test warnings observed per job"),
		metric.WithUnit("{warning}"),
	)
	if err != nil {
		return nil, err
	}

	c.errorsTotal, err = meter.Int64Counter(
		"nbuild_job_errors_total",
		metric.WithDescription("Total compiler/test errors observed per job"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	c.buildDuration, err = meter.Float64Histogram(
		"nbuild_build_duration_seconds",
		metric.WithDescription("Wall-clock duration of a job's build step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// RecordBuild records a completed build step's warning/error counts and
// duration, tagged with the job name and host it ran on.
func (c *Collector) RecordBuild(ctx context.Context, job, host string, nWarnings, nErrors int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("host", host),
	)
	if nWarnings > 0 {
		c.warningsTotal.Add(ctx, int64(nWarnings), attrs)
	}
	if nErrors > 0 {
		c.errorsTotal.Add(ctx, int64(nErrors), attrs)
	}
	c.buildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTest records a completed test step's warning/error counts, tagged
// with job and host like RecordBuild plus step="test", and without a
// duration histogram entry.
func (c *Collector) RecordTest(ctx context.Context, job, host string, nWarnings, nErrors int) {
	attrs := metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("host", host),
		attribute.String("step", "test"),
	)
	if nWarnings > 0 {
		c.warningsTotal.Add(ctx, int64(nWarnings), attrs)
	}
	if nErrors > 0 {
		c.errorsTotal.Add(ctx, int64(nErrors), attrs)
	}
}

// Handler returns the HTTP handler that serves the Prometheus scrape
// endpoint for every metric this Collector has registered.
func (c *Collector) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown releases the meter provider's resources.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}
