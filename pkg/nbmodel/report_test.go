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

func TestNewReportStartsAtNoLoop(t *testing.T) {
	r := NewReport("svn://repo/trunk", 42)
	assert.Equal(t, NoLoop, r.CurrentLoop)
	assert.Empty(t, r.Loops)
	assert.Equal(t, uint32(42), r.RepoVers)
}

func TestLoopIncrAdvancesWithoutAppending(t *testing.T) {
	r := NewReport("svn://repo/trunk", 1)
	id0 := r.LoopIncr()
	assert.Equal(t, uint32(0), id0)
	assert.Empty(t, r.Loops, "LoopIncr alone must not append a Loop record")

	id1 := r.LoopIncr()
	assert.Equal(t, uint32(1), id1)
}

func TestLoopInitAndEndMaintainLengthInvariant(t *testing.T) {
	r := NewReport("svn://repo/trunk", 1)
	r.LoopIncr()
	now := time.Now()
	r.LoopInit(now)
	require.Len(t, r.Loops, 1)
	assert.Equal(t, int(r.CurrentLoop)+1, len(r.Loops))

	r.LoopEnd(now.Add(time.Minute), "bG9n")
	assert.Equal(t, "bG9n", r.Loops[r.CurrentLoop].LogB64)
	assert.False(t, r.Loops[r.CurrentLoop].End.IsZero())
}

func TestJobEventsForCreatesAndReuses(t *testing.T) {
	r := NewReport("svn://repo/trunk", 1)
	je := r.JobEventsFor(7, "builder-a")
	require.NotNil(t, je)
	assert.Len(t, r.Jobs, 1)

	again := r.JobEventsFor(7, "builder-a")
	assert.Same(t, &r.Jobs[0], again)

	other := r.JobEventsFor(7, "builder-b")
	assert.Len(t, r.Jobs, 2)
	assert.NotSame(t, je, other)
}

func TestAllJobStepsDone(t *testing.T) {
	r := NewReport("svn://repo/trunk", 1)
	je := r.JobEventsFor(1, "builder-a")
	assert.False(t, r.AllJobStepsDone())

	now := time.Now()
	buildEv := je.Steps[StepBuild]
	buildEv.Begin(0, now)
	buildEv.Finish(true, "", now.Add(time.Second))
	je.Steps[StepBuild] = buildEv
	assert.False(t, r.AllJobStepsDone(), "test step still pending")

	testEv := je.Steps[StepTest]
	testEv.Begin(0, now)
	testEv.Finish(true, "", now.Add(time.Second))
	je.Steps[StepTest] = testEv
	assert.True(t, r.AllJobStepsDone())
}
