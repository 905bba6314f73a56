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

// Package log is the coordinator-owned structured logging sink: an
// append-only file with concurrent writes serialised through slog.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// Custom log levels extending slog's standard levels.
const (
	// LevelTrace is more verbose than Debug; used for raw remote-command
	// stdout/stderr capture (ssh, scp, vboxmanage, cmake...).
	LevelTrace = slog.Level(-8)
)

// Standard field keys for structured logging, consistent across every
// component so a single coordinator log can be grepped by loop/job/host.
const (
	FlowIDKey   = "flow_id"
	LoopIDKey   = "loop_id"
	JobIDKey    = "job_id"
	JobNameKey  = "job_name"
	HostKey     = "host"
	StepKey     = "step"
	DurationKey = "duration_ms"
	EventKey    = "event"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output. The coordinator log is
	// base64-embedded into the Report at loop_end, so this should be a
	// single append-only *os.File guarded by the caller against concurrent
	// writers -- slog itself serialises each Handle() call but a
	// multi-writer fan-in still needs a shared file handle.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - NBUILD_DEBUG: true/1 to enable debug level and source logging (takes precedence)
//   - NBUILD_LOG_LEVEL: trace, debug, info, warn, error
//   - NBUILD_LOG_FORMAT: json, text (default: json)
//   - NBUILD_LOG_SOURCE: 1 to enable source file/line (default: 0)
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("NBUILD_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	if debug == "" {
		if level := os.Getenv("NBUILD_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("NBUILD_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("NBUILD_LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithFlow returns a logger annotated with the flow id for every subsequent entry.
func WithFlow(logger *slog.Logger, flowID string) *slog.Logger {
	return logger.With(slog.String(FlowIDKey, flowID))
}

// WithLoop returns a logger annotated with the current loop id.
func WithLoop(logger *slog.Logger, loopID uint32) *slog.Logger {
	return logger.With(slog.Uint64(LoopIDKey, uint64(loopID)))
}

// WithJob returns a logger annotated with job id/name context.
func WithJob(logger *slog.Logger, jobID uint32, jobName string) *slog.Logger {
	return logger.With(slog.Uint64(JobIDKey, uint64(jobID)), slog.String(JobNameKey, jobName))
}

// WithHost returns a logger annotated with the runner host name.
func WithHost(logger *slog.Logger, host string) *slog.Logger {
	return logger.With(slog.String(HostKey, host))
}

// Attr creates a new attribute with the given key and value.
func Attr(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// String creates a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int creates an int attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Bool creates a bool attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value int64) slog.Attr {
	return slog.Int64(key+"_ms", value)
}

// SanitizeSecret completely redacts a secret value (used for Login.Pass
// whenever a command line or log line would otherwise embed it).
func SanitizeSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

// Trace logs a message at trace level with optional attributes.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if !logger.Enabled(nil, LevelTrace) {
		return
	}
	logger.LogAttrs(nil, LevelTrace, msg, attrs...)
}
