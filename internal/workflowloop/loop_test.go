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

package workflowloop

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

func TestDeriveFlowID(t *testing.T) {
	assert.Equal(t, "workflow", deriveFlowID("/etc/nbuild/workflow.json"))
	assert.Equal(t, "my-flow", deriveFlowID("my-flow.json"))
}

func TestStageAndRecordMarksEachTargetDone(t *testing.T) {
	events := make(map[string]nbmodel.Event)
	targets := []nbmodel.Target{{Name: "src"}, {Name: "src/sub"}}

	var got []nbmodel.Target
	err := stageAndRecord(events, targets, 3, func(pending []nbmodel.Target) error {
		got = pending
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, targets, got)

	for _, tgt := range targets {
		e := events[tgt.Name]
		assert.True(t, e.IsDone())
		assert.Equal(t, uint32(3), e.LoopID)
		assert.Empty(t, e.Error)
	}
}

func TestStageAndRecordPropagatesAndRecordsFailure(t *testing.T) {
	events := make(map[string]nbmodel.Event)
	targets := []nbmodel.Target{{Name: "src"}}
	boom := errors.New("fetch failed")

	err := stageAndRecord(events, targets, 0, func(pending []nbmodel.Target) error { return boom })
	assert.ErrorIs(t, err, boom)

	e := events["src"]
	assert.True(t, e.IsDone())
	assert.Equal(t, "fetch failed", e.Error)
}

func TestStageAndRecordSkipsAlreadyDoneTargets(t *testing.T) {
	done := nbmodel.NewEvent("src")
	done.Begin(0, time.Now())
	done.Finish(true, "", time.Now())

	events := map[string]nbmodel.Event{"src": done}
	targets := []nbmodel.Target{{Name: "src"}}

	called := false
	err := stageAndRecord(events, targets, 1, func(pending []nbmodel.Target) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, uint32(0), events["src"].LoopID)
}

func TestStageAndRecordOnlyFetchesPendingTargets(t *testing.T) {
	done := nbmodel.NewEvent("src")
	done.Begin(0, time.Now())
	done.Finish(true, "", time.Now())

	events := map[string]nbmodel.Event{"src": done}
	targets := []nbmodel.Target{{Name: "src"}, {Name: "new"}}

	var got []nbmodel.Target
	err := stageAndRecord(events, targets, 1, func(pending []nbmodel.Target) error {
		got = pending
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []nbmodel.Target{{Name: "new"}}, got)
	assert.Equal(t, uint32(0), events["src"].LoopID)
	assert.Equal(t, uint32(1), events["new"].LoopID)
}

func TestRunEventBeginsAndFinishes(t *testing.T) {
	e := nbmodel.NewEvent("build_file")
	runEvent(&e, 1, func() error { return nil })
	assert.True(t, e.IsDone())
	assert.Equal(t, uint32(1), e.LoopID)
}

func TestRunEventSkipsAlreadyDoneEvent(t *testing.T) {
	e := nbmodel.NewEvent("build_file")
	e.Begin(0, time.Now())
	e.Finish(true, "", time.Now())

	called := false
	runEvent(&e, 1, func() error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.Equal(t, uint32(0), e.LoopID)
}

func TestErrMsg(t *testing.T) {
	assert.Empty(t, errMsg(nil))
	assert.Equal(t, "boom", errMsg(errors.New("boom")))
}
