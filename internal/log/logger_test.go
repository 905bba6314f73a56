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

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithFlow(logger, "flow-1").Info("staging started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "flow-1", line[FlowIDKey])
	assert.Equal(t, "staging started", line["msg"])
}

func TestFromEnvDebug(t *testing.T) {
	t.Setenv("NBUILD_DEBUG", "1")
	cfg := FromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.AddSource)
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "", SanitizeSecret(""))
	assert.Equal(t, "[REDACTED]", SanitizeSecret("hunter2"))
}

func TestWithJobAndHost(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})
	WithHost(WithJob(logger, 3, "debug-x64"), "ubuntu").Info("build started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(3), line[JobIDKey])
	assert.Equal(t, "debug-x64", line[JobNameKey])
	assert.Equal(t, "ubuntu", line[HostKey])
}
