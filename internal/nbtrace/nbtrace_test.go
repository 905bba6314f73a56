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

package nbtrace

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestStartEndTaskWithNilTracerIsNoop(t *testing.T) {
	ctx, span := StartTask(context.Background(), nil, "linux-debug", "host-a", "build")
	if ctx == nil {
		t.Fatal("context must not be nil")
	}
	EndTask(span, nil)
	EndTask(span, errors.New("boom"))
}

func TestStartEndTaskWithRealTracer(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	tracer := tp.Tracer("test")

	ctx, span := StartTask(context.Background(), tracer, "linux-debug", "host-a", "build")
	if ctx == nil || span == nil {
		t.Fatal("expected non-nil context and span")
	}
	EndTask(span, errors.New("link error"))
}
