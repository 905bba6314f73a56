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

package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

func TestBuildQueueAssignsFirstMatchingHostOnly(t *testing.T) {
	hosts := []nbmodel.Host{
		{Name: "a", Generators: []string{"Ninja"}, Tags: []string{"linux"}},
		{Name: "b", Generators: []string{"Xcode"}, Tags: []string{"macos"}},
		{Name: "c", Generators: []string{"Ninja"}, Tags: []string{"linux", "gpu"}},
	}
	jobs := []nbmodel.Job{{ID: 0, Name: "linux-debug", Generator: "Ninja", Tags: []string{"linux"}}}

	q := buildQueue(jobs, hosts, nil)
	assert.Len(t, q, 1)
	assert.Equal(t, taskPending, q[0].state)
	assert.Equal(t, "linux-debug", q[0].job.Name)
	assert.Equal(t, "a", q[0].host.Name)
}

func TestBuildQueueSkipsJobWithNoMatchingHost(t *testing.T) {
	hosts := []nbmodel.Host{{Name: "a", Generators: []string{"Xcode"}, Tags: []string{"macos"}}}
	jobs := []nbmodel.Job{{ID: 0, Name: "linux-debug", Generator: "Ninja", Tags: []string{"linux"}}}

	q := buildQueue(jobs, hosts, nil)
	assert.Empty(t, q)
}

func TestBuildQueuePrefersReportRecordedHostOverFirstHost(t *testing.T) {
	hosts := []nbmodel.Host{
		{Name: "a", Generators: []string{"Ninja"}, Tags: []string{"linux"}},
		{Name: "c", Generators: []string{"Ninja"}, Tags: []string{"linux", "gpu"}},
	}
	jobs := []nbmodel.Job{{ID: 0, Name: "linux-debug", Generator: "Ninja", Tags: []string{"linux"}}}
	rpt := &nbmodel.Report{Jobs: []nbmodel.JobEvents{nbmodel.NewJobEvents(0, "c")}}

	q := buildQueue(jobs, hosts, rpt)
	assert.Len(t, q, 1)
	assert.Equal(t, "c", q[0].host.Name)
}

func TestBuildQueueIgnoresRecordedHostNoLongerInNetwork(t *testing.T) {
	hosts := []nbmodel.Host{{Name: "a", Generators: []string{"Ninja"}, Tags: []string{"linux"}}}
	jobs := []nbmodel.Job{{ID: 0, Name: "linux-debug", Generator: "Ninja", Tags: []string{"linux"}}}
	rpt := &nbmodel.Report{Jobs: []nbmodel.JobEvents{nbmodel.NewJobEvents(0, "gone")}}

	q := buildQueue(jobs, hosts, rpt)
	assert.Len(t, q, 1)
	assert.Equal(t, "a", q[0].host.Name)
}

func TestDistinctHostsDedupes(t *testing.T) {
	h := nbmodel.Host{Name: "a"}
	q := []*task{{host: h}, {host: h}}
	assert.Len(t, distinctHosts(q), 1)
}

func TestNextTaskForHostSkipsOtherHostsAndMarksRunning(t *testing.T) {
	var mu sync.Mutex
	q := []*task{
		{host: nbmodel.Host{Name: "a"}, state: taskPending},
		{host: nbmodel.Host{Name: "b"}, state: taskPending},
	}

	got := nextTaskForHost(&mu, q, "b")
	assert.Equal(t, "b", got.host.Name)
	assert.Equal(t, taskRunning, got.state)
	assert.Equal(t, taskPending, q[0].state)
}

func TestNextTaskForHostReturnsNilWhenExhausted(t *testing.T) {
	var mu sync.Mutex
	q := []*task{{host: nbmodel.Host{Name: "a"}, state: taskDone}}
	assert.Nil(t, nextTaskForHost(&mu, q, "a"))
}

func TestErrMsg(t *testing.T) {
	assert.Equal(t, "", errMsg(nil))
}
