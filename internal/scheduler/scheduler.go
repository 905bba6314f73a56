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

// Package scheduler runs one loop's selected jobs against the hosts that
// can build them: one worker per distinct host, pulling tasks off a
// shared, mutex-guarded queue until it is empty.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frang75/nbuild/internal/builddriver"
	"github.com/frang75/nbuild/internal/lifecycle"
	"github.com/frang75/nbuild/internal/match"
	"github.com/frang75/nbuild/internal/nbmetrics"
	"github.com/frang75/nbuild/internal/nbtrace"
	"github.com/frang75/nbuild/internal/report"
	"github.com/frang75/nbuild/pkg/nbmodel"
	"go.opentelemetry.io/otel/trace"
)

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskDone
)

// task is one job×host build-then-test unit. One is created per
// (selected job, matching host) pair for a loop.
type task struct {
	job   nbmodel.Job
	host  nbmodel.Host
	state taskState
}

// Config bundles everything a Run call needs: the jobs a loop selected,
// the hosts able to run them, and the Report those runs mutate.
type Config struct {
	Drive      nbmodel.Drive
	Hosts      []nbmodel.Host
	Jobs       []nbmodel.Job
	TestTargets []nbmodel.Target
	Report     *nbmodel.Report
	WorkPaths  nbmodel.WorkPaths
	FlowID     string

	Metrics *nbmetrics.Collector
	Tracer  trace.Tracer
	BootOpts lifecycle.Options
	Logger  *slog.Logger
}

// Run boots every distinct host a selected job can run on, then drives
// one worker goroutine per host pulling build/test tasks off a shared
// queue until it's empty, and shuts down any host nbuild itself booted.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := buildQueue(cfg.Jobs, cfg.Hosts, cfg.Report)
	if len(q) == 0 {
		return nil
	}

	hostsInUse := distinctHosts(q)
	bootStates := make(map[string]lifecycle.RunState, len(hostsInUse))
	for _, h := range hostsInUse {
		bootStates[h.Name] = lifecycle.Boot(ctx, h, cfg.Hosts, cfg.BootOpts)
	}
	defer func() {
		for _, h := range hostsInUse {
			lifecycle.Shutdown(context.Background(), h, bootStates[h.Name])
		}
	}()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hostsInUse {
		h := h
		if !bootStates[h.Name].Up() {
			logger.Warn("skipping unreachable host", "host", h.Name)
			continue
		}
		g.Go(func() error {
			return runHostWorker(gctx, cfg, &mu, q, h)
		})
	}
	return g.Wait()
}

// buildQueue creates one pending task per job, assigning each job to
// exactly one host: the host already recorded for it in rpt (a previous
// partial run), or, absent that, the first host in workflow-declared
// order that matches. A job with no matching host is skipped.
func buildQueue(jobs []nbmodel.Job, hosts []nbmodel.Host, rpt *nbmodel.Report) []*task {
	var q []*task
	for _, j := range jobs {
		h, ok := recordedHost(rpt, j.ID, hosts)
		if !ok {
			h, ok = match.FirstHost(hosts, j)
		}
		if !ok {
			continue
		}
		q = append(q, &task{job: j, host: h, state: taskPending})
	}
	return q
}

// recordedHost returns the host previously assigned to jobID in rpt, if
// any JobEvents entry names one that still exists in hosts.
func recordedHost(rpt *nbmodel.Report, jobID uint32, hosts []nbmodel.Host) (nbmodel.Host, bool) {
	if rpt == nil {
		return nbmodel.Host{}, false
	}
	for _, je := range rpt.Jobs {
		if je.JobID == jobID {
			return nbmodel.HostByName(hosts, je.Host)
		}
	}
	return nbmodel.Host{}, false
}

func distinctHosts(q []*task) []nbmodel.Host {
	seen := make(map[string]bool)
	var out []nbmodel.Host
	for _, t := range q {
		if !seen[t.host.Name] {
			seen[t.host.Name] = true
			out = append(out, t.host)
		}
	}
	return out
}

// nextTaskForHost returns the first PENDING task assigned to host and
// marks it RUNNING, or nil when none remain.
func nextTaskForHost(mu *sync.Mutex, q []*task, hostName string) *task {
	mu.Lock()
	defer mu.Unlock()
	for _, t := range q {
		if t.state == taskPending && t.host.Name == hostName {
			t.state = taskRunning
			return t
		}
	}
	return nil
}

// runHostWorker repeatedly pulls the next pending task for host and
// executes build-then-test until the queue holds none left for it.
func runHostWorker(ctx context.Context, cfg Config, mu *sync.Mutex, q []*task, host nbmodel.Host) error {
	driver := builddriver.New(host)
	for {
		t := nextTaskForHost(mu, q, host.Name)
		if t == nil {
			return nil
		}
		runTask(ctx, cfg, mu, driver, t)
		mu.Lock()
		t.state = taskDone
		mu.Unlock()
	}
}

func runTask(ctx context.Context, cfg Config, mu *sync.Mutex, driver *builddriver.Driver, t *task) {
	mu.Lock()
	je := cfg.Report.JobEventsFor(t.job.ID, t.host.Name)
	buildEvent := je.Steps[nbmodel.StepBuild]
	buildEvent.Begin(cfg.Report.CurrentLoop, time.Now())
	je.Steps[nbmodel.StepBuild] = buildEvent
	mu.Unlock()

	spanCtx, span := nbtrace.StartTask(ctx, cfg.Tracer, t.job.Name, t.host.Name, string(nbmodel.StepBuild))
	result, err := driver.RunBuild(spanCtx, cfg.Drive, t.job, cfg.WorkPaths, cfg.FlowID)
	nbtrace.EndTask(span, err)

	mu.Lock()
	je = cfg.Report.JobEventsFor(t.job.ID, t.host.Name)
	buildEvent = je.Steps[nbmodel.StepBuild]
	buildEvent.Finish(err == nil, errMsg(err), time.Now())
	je.Steps[nbmodel.StepBuild] = buildEvent
	mu.Unlock()

	if cfg.Metrics != nil {
		cfg.Metrics.RecordBuild(ctx, t.job.Name, t.host.Name, result.Build.NWarnings, result.Build.NErrors, buildEvent.End.Sub(buildEvent.Init))
	}

	if err != nil || !report.JobCanTest(*je, result.Build.NErrors) {
		return
	}

	mu.Lock()
	testEvent := je.Steps[nbmodel.StepTest]
	testEvent.Begin(cfg.Report.CurrentLoop, time.Now())
	je.Steps[nbmodel.StepTest] = testEvent
	mu.Unlock()

	spanCtx, span = nbtrace.StartTask(ctx, cfg.Tracer, t.job.Name, t.host.Name, string(nbmodel.StepTest))
	testResult, testErr := driver.RunTest(spanCtx, t.job, cfg.TestTargets, cfg.FlowID)
	nbtrace.EndTask(span, testErr)

	mu.Lock()
	je = cfg.Report.JobEventsFor(t.job.ID, t.host.Name)
	testEvent = je.Steps[nbmodel.StepTest]
	testEvent.Finish(testErr == nil, errMsg(testErr), time.Now())
	je.Steps[nbmodel.StepTest] = testEvent
	mu.Unlock()

	if cfg.Metrics != nil {
		cfg.Metrics.RecordTest(ctx, t.job.Name, t.host.Name, testResult.Test.NWarnings, testResult.Test.NErrors)
	}
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
