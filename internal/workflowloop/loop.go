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

// Package workflowloop drives one invocation of the coordinator: load
// configuration, resolve the revision under build, stage and package
// it, run the scheduler over whatever jobs are due, and persist the
// Report. It is the only caller that mutates a Report directly.
package workflowloop

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/frang75/nbuild/internal/lifecycle"
	"github.com/frang75/nbuild/internal/nbconfig"
	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/internal/nblock"
	"github.com/frang75/nbuild/internal/nbmetrics"
	"github.com/frang75/nbuild/internal/nbrepo"
	"github.com/frang75/nbuild/internal/report"
	"github.com/frang75/nbuild/internal/scheduler"
	"github.com/frang75/nbuild/internal/staging"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Config bundles everything one loop invocation needs: the two
// configuration files the CLI was pointed at, the optional force
// pattern, and the ambient collaborators (logger, tracer, metrics,
// boot tuning) the caller wires up.
type Config struct {
	NetworkPath  string
	WorkflowPath string
	ForcePattern string // -j; empty means no forced jobs

	// TmpRoot is the coordinator-local scratch root; defaults to
	// os.TempDir() if empty.
	TmpRoot string
	// FlowID namespaces this workflow's drive and lockfile paths;
	// defaults to the workflow file's base name, extension stripped.
	FlowID string

	Metrics  *nbmetrics.Collector
	Tracer   trace.Tracer
	BootOpts lifecycle.Options
	Logger   *slog.Logger

	// LogBuffer, if set, is read after the loop completes and
	// base64-embedded into the Report's Loop record, matching the
	// coordinator-log-in-report convention of step 8. Callers wire
	// their slog handler's Output to also write here.
	LogBuffer *bytes.Buffer
}

// Run executes one loop: steps 1-8. The returned int is the process
// exit code: 1 for configuration or revision-resolution failure (steps
// 1-2, including an invalid -j pattern), for a lockfile that is held or
// cannot be taken (step 5), and for a Report that cannot be loaded or
// saved (steps 6 and 8); 0 otherwise. Failures inside the loop body
// (step 7) are recorded on the Report instead of surfaced as a process
// error.
func Run(ctx context.Context, cfg Config) (int, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tmpRoot := cfg.TmpRoot
	if tmpRoot == "" {
		tmpRoot = os.TempDir()
	}
	flowID := cfg.FlowID
	if flowID == "" {
		flowID = deriveFlowID(cfg.WorkflowPath)
	}

	// Step 1: load and validate network.json/workflow.json.
	network, err := nbconfig.LoadNetwork(cfg.NetworkPath)
	if err != nil {
		return 1, err
	}
	workflow, err := nbconfig.LoadWorkflow(cfg.WorkflowPath)
	if err != nil {
		return 1, err
	}

	var forcePattern *regexp.Regexp
	if cfg.ForcePattern != "" {
		forcePattern, err = regexp.Compile(cfg.ForcePattern)
		if err != nil {
			return 1, fmt.Errorf("workflowloop: invalid -j pattern: %w", err)
		}
	}

	repoClient := nbrepo.New(workflow.RepoURL, workflow.Global.RepoUser, workflow.Global.RepoPass)

	// Step 2: resolve the revision under build — the highest revision
	// across the repository's HEAD and every target, per build target.
	rev, err := resolveRevision(ctx, repoClient)
	if err != nil {
		return 1, err
	}

	// Step 3: read the project version at rev. A missing or unreadable
	// version file doesn't abort the loop; it just leaves Version
	// empty for whatever consumes it downstream (the report page).
	version := ""
	if workflow.Version != "" {
		if v, verr := repoClient.Cat(ctx, workflow.Version, rev); verr == nil {
			version = v
		} else {
			logger.Warn("version file unreadable", "path", workflow.Version, "error", verr)
		}
	}

	// Step 4: documentation revision. Doc generation is an external
	// collaborator (the ndoc HTML generator); this loop only tracks
	// whether a doc event is in play for the can-start-jobs gate, and
	// a workflow with no doc target never tracks one.
	const docTracked = false

	// Step 5: derive WorkPaths and acquire the per-flow lockfile.
	wpaths := nbmodel.DeriveWorkPaths(tmpRoot, network.Drive.Root, flowID, rev)
	flowDir := filepath.Join(tmpRoot, flowID)
	lock := nblock.New(flowDir)
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, nblock.ErrLocked) {
			return 1, fmt.Errorf("workflowloop: another nbuild is running for flow %s", flowID)
		}
		return 1, fmt.Errorf("workflowloop: acquiring lockfile: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("releasing lockfile", "error", err)
		}
	}()

	// Step 6: load or initialise the Report.
	driveClient := nbexec.New(network.Drive.Login)
	store := report.NewDriveStore(driveClient)
	rpt, found, err := store.Load(ctx, wpaths.ReportPath())
	if err != nil {
		return 1, fmt.Errorf("workflowloop: loading report: %w", err)
	}
	if found {
		rpt.LoopIncr()
	} else {
		rpt = nbmodel.NewReport(workflow.RepoURL, rev)
		rpt.LoopIncr()
	}
	rpt.Version = version

	now := time.Now()
	rpt.LoopInit(now)

	// Step 7: stage, package, gate, and run the scheduler. Failures
	// here are recorded on the Report and logged, never returned —
	// the next loop retries whatever didn't finish.
	if err := runLoopBody(ctx, cfg, logger, network, workflow, repoClient, rpt, wpaths, rev, flowID, forcePattern, docTracked); err != nil {
		logger.Error("loop body did not complete cleanly", "error", err)
	}

	// Step 8: close out the loop and persist.
	logB64 := ""
	if cfg.LogBuffer != nil {
		logB64 = base64.StdEncoding.EncodeToString(cfg.LogBuffer.Bytes())
	}
	rpt.LoopEnd(time.Now(), logB64)
	if err := store.Save(ctx, wpaths.ReportPath(), rpt); err != nil {
		return 1, fmt.Errorf("workflowloop: persisting report: %w", err)
	}

	return 0, nil
}

// resolveRevision returns the repository revision under build: the
// highest last-changed revision at HEAD visible to the coordinator.
// Per-target revisions never exceed HEAD's, so HEAD alone already is
// the maximum every target resolves to.
func resolveRevision(ctx context.Context, repoClient nbrepo.Client) (uint32, error) {
	rev, err := repoClient.Version(ctx)
	if err != nil {
		return 0, &nberrors.RepositoryError{Reason: "resolving revision under build", Cause: err}
	}
	return rev, nil
}

// runLoopBody implements step 7: stage sources and tests, emit
// build.txt, package and upload both trees, then — if every staging
// prerequisite is done — select or force this loop's jobs and run them.
func runLoopBody(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	network nbmodel.Network,
	workflow nbmodel.Workflow,
	repoClient nbrepo.Client,
	rpt *nbmodel.Report,
	wpaths nbmodel.WorkPaths,
	rev uint32,
	flowID string,
	forcePattern *regexp.Regexp,
	docTracked bool,
) error {
	ignore, err := staging.CompileIgnore(workflow.Ignore)
	if err != nil {
		return fmt.Errorf("compiling ignore patterns: %w", err)
	}
	limiter := staging.NewLimiter(20, 20)

	clangFormatFile, err := staging.FindClangFormatFile(ctx, repoClient, workflow.SrcTargets, rev, wpaths.LocalSrc)
	if err != nil {
		logger.Warn("locating .clang-format", "error", err)
	}
	clangFormatDir := ""
	if clangFormatFile != "" {
		clangFormatDir = filepath.Dir(clangFormatFile)
	}

	if err := stageAndRecord(rpt.SrcTargets, workflow.SrcTargets, rpt.CurrentLoop, func(pending []nbmodel.Target) error {
		_, err := staging.StageTargets(ctx, repoClient, workflow.Global, ignore, rev, clangFormatDir, pending, wpaths.LocalSrc, limiter)
		return err
	}); err != nil {
		logger.Error("staging sources", "error", err)
	}

	if err := stageAndRecord(rpt.TestTargets, workflow.TestTargets, rpt.CurrentLoop, func(pending []nbmodel.Target) error {
		_, err := staging.StageTargets(ctx, repoClient, workflow.Global, ignore, rev, clangFormatDir, pending, wpaths.LocalTest, limiter)
		return err
	}); err != nil {
		logger.Error("staging tests", "error", err)
	}

	runEvent(&rpt.BuildFile, rpt.CurrentLoop, func() error {
		return staging.WriteBuildFile(wpaths.LocalSrc, workflow.Build, rev)
	})

	runEvent(&rpt.SrcTar, rpt.CurrentLoop, func() error {
		return staging.UploadTar(ctx, network.Drive, wpaths.LocalSrc, wpaths.LocalSrc+".tar.gz", wpaths.DriveSrc)
	})
	runEvent(&rpt.TestTar, rpt.CurrentLoop, func() error {
		return staging.UploadTar(ctx, network.Drive, wpaths.LocalTest, wpaths.LocalTest+".tar.gz", wpaths.DriveTest)
	})

	// Documentation generation is delegated to the external ndoc
	// collaborator; this loop neither runs nor blocks on it.

	if !report.CanStartJobs(rpt, docTracked) {
		return nil
	}

	jobs := report.SelectJobs(rpt, workflow.Jobs)
	if forcePattern != nil {
		jobs = append(jobs, report.ForceJobs(rpt, workflow.Jobs, forcePattern, time.Now())...)
	}
	if len(jobs) == 0 {
		return nil
	}

	return scheduler.Run(ctx, scheduler.Config{
		Drive:       network.Drive,
		Hosts:       network.Hosts,
		Jobs:        jobs,
		TestTargets: workflow.TestTargets,
		Report:      rpt,
		WorkPaths:   wpaths,
		FlowID:      flowID,
		Metrics:     cfg.Metrics,
		Tracer:      cfg.Tracer,
		BootOpts:    cfg.BootOpts,
		Logger:      logger,
	})
}

// stageAndRecord begins one event per not-yet-done target in targets
// (creating it in events if this is its first loop), runs fetch once
// for the whole pending batch, and finishes every one of those events
// with fetch's outcome. Targets already done for this repo revision are
// left untouched and excluded from the batch fetch sees, so a loop with
// no input change restages nothing. staging.StageTargets doesn't report
// per-target success independent of a batch failure, so every target in
// one batch shares that batch's event.
func stageAndRecord(events map[string]nbmodel.Event, targets []nbmodel.Target, loopID uint32, fetch func(pending []nbmodel.Target) error) error {
	pending := pendingTargets(events, targets)
	if len(pending) == 0 {
		return nil
	}

	now := time.Now()
	for _, t := range pending {
		e, ok := events[t.Name]
		if !ok {
			e = nbmodel.NewEvent(t.Name)
		}
		e.Begin(loopID, now)
		events[t.Name] = e
	}

	err := fetch(pending)

	end := time.Now()
	for _, t := range pending {
		e := events[t.Name]
		e.Finish(err == nil, errMsg(err), end)
		events[t.Name] = e
	}
	return err
}

// pendingTargets returns the subset of targets whose event isn't
// already done.
func pendingTargets(events map[string]nbmodel.Event, targets []nbmodel.Target) []nbmodel.Target {
	var out []nbmodel.Target
	for _, t := range targets {
		if e, ok := events[t.Name]; ok && e.IsDone() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// runEvent begins e, runs fn, and finishes e with fn's outcome. Already
// done events are left alone and fn never runs.
func runEvent(e *nbmodel.Event, loopID uint32, fn func() error) {
	if e.IsDone() {
		return
	}
	now := time.Now()
	e.Begin(loopID, now)
	err := fn()
	e.Finish(err == nil, errMsg(err), time.Now())
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// deriveFlowID derives a stable flow identifier from a workflow.json
// path when the caller doesn't supply one explicitly.
func deriveFlowID(workflowPath string) string {
	base := filepath.Base(workflowPath)
	return base[:len(base)-len(filepath.Ext(base))]
}
