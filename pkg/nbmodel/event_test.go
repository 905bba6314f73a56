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

package nbmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventNotDone(t *testing.T) {
	e := NewEvent("configure")
	assert.False(t, e.IsDone())
	assert.Equal(t, NoLoop, e.LoopID)
	assert.Equal(t, int64(-1), e.Seconds)
}

func TestEventBeginFinish(t *testing.T) {
	e := NewEvent("build")
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e.Begin(3, start)
	require.Equal(t, uint32(3), e.LoopID)
	require.False(t, e.IsDone())

	e.Finish(true, "", start.Add(5*time.Second))
	assert.True(t, e.IsDone())
	assert.Equal(t, int64(5), e.Seconds)
	assert.Empty(t, e.Error)
}

func TestEventFinishZeroDurationFloor(t *testing.T) {
	e := NewEvent("fast-step")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e.Begin(0, now)
	e.Finish(true, "", now)
	assert.Equal(t, int64(1), e.Seconds, "sub-second completions are bumped to 1 second")
}

func TestEventFinishFailurePreservesError(t *testing.T) {
	e := NewEvent("test")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e.Begin(1, now)
	e.Finish(false, "3 tests failed", now.Add(2*time.Second))
	assert.True(t, e.IsDone())
	assert.Equal(t, "3 tests failed", e.Error)
}

func TestEventStateProjection(t *testing.T) {
	e := NewEvent("configure")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e.Begin(2, now)
	e.Finish(true, "", now.Add(10*time.Second))

	st := e.State()
	assert.True(t, st.Done)
	assert.Equal(t, uint32(2), st.LoopID)
	assert.Equal(t, int64(10), st.Seconds)
}
