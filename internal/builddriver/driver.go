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

package builddriver

import (
	"context"
	"fmt"

	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Step captures one build or test step's raw log plus the warning/error
// lines extracted from it.
type Step struct {
	Log       string
	Warnings  string
	Errors    string
	NWarnings int
	NErrors   int
}

// BuildResult is the full outcome of running one job's build on one
// host: configure, compile, install.
type BuildResult struct {
	ConfigureLog string
	Build        Step
	InstallLog   string
}

// TestResult is the outcome of running one job's test targets on one
// host, after a successful BuildResult.
type TestResult struct {
	Test Step
}

// Driver runs CMake build/test steps for one job against one host.
type Driver struct {
	host   nbmodel.Host
	client nbexec.Client
}

// New returns a Driver bound to host, using an nbexec.Client dialed
// against the host's Login.
func New(host nbmodel.Host) *Driver {
	return &Driver{host: host, client: nbexec.New(host.Login)}
}

// RunBuild stages the source package, configures, builds and installs
// job on the driver's host, then copies the install tree to the drive.
// A non-nil error is always a *nberrors.BuildStepError or
// *nberrors.TransientIOError, matching host_run_build's ok/error_msg
// contract.
func (d *Driver) RunBuild(ctx context.Context, drive nbmodel.Drive, job nbmodel.Job, wpaths nbmodel.WorkPaths, flowID string) (BuildResult, error) {
	var result BuildResult

	gen := ParseGenerator(job.Generator)
	if gen == GeneratorUnknown {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepBuild), Reason: fmt.Sprintf("unknown generator %q", job.Generator)}
	}

	hp := deriveHostPaths(d.host, flowID, job)

	if err := d.prepareFlowDir(ctx, hp); err != nil {
		return result, &nberrors.TransientIOError{Op: "create build directories", Cause: err}
	}

	if err := d.stageSource(ctx, drive, wpaths, hp); err != nil {
		return result, &nberrors.TransientIOError{Op: "stage source package", Cause: err}
	}

	vers := cmakeVersion(ctx, d.client)

	configureLog, err := d.configure(ctx, job, gen, hp)
	result.ConfigureLog = configureLog
	if err != nil {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepBuild), Reason: "cmake configure failed", Cause: err}
	}

	buildStep, err := d.build(ctx, job, gen, hp)
	result.Build = buildStep
	if err != nil {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepBuild), Reason: "cmake build failed", Cause: err}
	}
	if buildStep.NErrors > 0 {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepBuild), Reason: fmt.Sprintf("build with %d errors", buildStep.NErrors)}
	}

	installLog, err := d.install(ctx, job, gen, vers, hp)
	result.InstallLog = installLog
	if err != nil {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepBuild), Reason: "cmake install failed", Cause: err}
	}

	if err := d.copyInstallToDrive(ctx, drive, job, hp, wpaths, flowID); err != nil {
		return result, &nberrors.TransientIOError{Op: "copy install tree to drive", Cause: err}
	}

	return result, nil
}

// RunTest executes every test target's Executable on the driver's
// host, against the install tree a prior RunBuild produced.
func (d *Driver) RunTest(ctx context.Context, job nbmodel.Job, tests []nbmodel.Target, flowID string) (TestResult, error) {
	var result TestResult
	gen := ParseGenerator(job.Generator)
	hp := deriveHostPaths(d.host, flowID, job)

	step, err := d.runTests(ctx, job, gen, hp, tests)
	result.Test = step
	if err != nil {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepTest), Reason: "test execution failed", Cause: err}
	}
	if step.NErrors > 0 {
		return result, &nberrors.BuildStepError{JobName: job.Name, Step: string(nbmodel.StepTest), Reason: fmt.Sprintf("tests with %d failures", step.NErrors)}
	}
	return result, nil
}

func (d *Driver) prepareFlowDir(ctx context.Context, hp hostPaths) error {
	if err := nbexec.CreateDir(ctx, d.client, d.host.WorkPath); err != nil {
		return err
	}
	exists, err := nbexec.DirExists(ctx, d.client, hp.flow)
	if err != nil {
		return err
	}
	if exists {
		if err := nbexec.DeleteDir(ctx, d.client, hp.flow); err != nil {
			return err
		}
	}
	return nbexec.CreateDir(ctx, d.client, hp.flow)
}

func (d *Driver) stageSource(ctx context.Context, drive nbmodel.Drive, wpaths nbmodel.WorkPaths, hp hostPaths) error {
	if err := nbexec.Copy(ctx, drive.Login, d.host.Login, wpaths.DriveRoot, sourceTarName, hp.flow, sourceTarName); err != nil {
		return err
	}
	if err := nbexec.CreateDir(ctx, d.client, hp.src); err != nil {
		return err
	}
	tarpath := hostJoin(d.host.Login, hp.flow, sourceTarName)
	return nbexec.Untar(ctx, d.client, hp.src, tarpath)
}
