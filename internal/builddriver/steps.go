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
	"strings"

	"github.com/frang75/nbuild/internal/lifecycle"
	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

func (d *Driver) configure(ctx context.Context, job nbmodel.Job, gen Generator, hp hostPaths) (string, error) {
	if err := nbexec.CreateDir(ctx, d.client, hp.build); err != nil {
		return "", err
	}

	envvars := cmakeEnvVars(d.host, job.Tags, gen, noParallelism)
	opts := configureOptions(d.host, job, gen)

	cmd := fmt.Sprintf("cmake -S %s -B %s -G %q %s", hp.src, hp.build, job.Generator, opts)
	if envvars != "" {
		cmd = envvars + shellSep(d.host.Login) + cmd
	}

	res, err := d.client.Run(ctx, cmd)
	if err != nil {
		return res.Combined(), err
	}
	if res.ExitCode != 0 {
		return res.Combined(), fmt.Errorf("cmake configure exit %d", res.ExitCode)
	}
	return res.Combined(), nil
}

func (d *Driver) build(ctx context.Context, job nbmodel.Job, gen Generator, hp hostPaths) (Step, error) {
	var step Step

	envvars := cmakeEnvVars(d.host, job.Tags, gen, 4)
	opts := buildOptions(job, gen)

	cmd := fmt.Sprintf("cmake --build %s %s", hp.build, opts)
	if envvars != "" {
		cmd = envvars + shellSep(d.host.Login) + cmd
	}

	res, err := d.client.Run(ctx, cmd)
	step.Log = res.Combined()
	if err != nil {
		return step, err
	}

	if d.host.Login.Platform == nbmodel.PlatformMacOS && lifecycle.HostMacOSVersion(d.host.Name) >= lifecycle.MacOSSonoma {
		step.Log = strings.ReplaceAll(step.Log, "➜", "->")
	}

	step.Warnings, step.NWarnings = extractLines(step.Log, buildWarnMarkers...)
	step.Errors, step.NErrors = extractLines(step.Log, buildErrorMarkers...)
	if res.ExitCode != 0 && step.NErrors == 0 {
		step.NErrors = 1
	}
	return step, nil
}

func (d *Driver) install(ctx context.Context, job nbmodel.Job, gen Generator, vers cmakeVers, hp hostPaths) (string, error) {
	var cmd string
	if vers.gte(3, 15, 0) {
		cmd = fmt.Sprintf("cmake --install %s %s", hp.build, installOptions(job, gen, hp.install))
	} else {
		cmd = nativeInstallCommand(job, gen, hp.install)
		if cmd == "" {
			return "", fmt.Errorf("no supported native install for generator %q", job.Generator)
		}
	}

	res, err := d.client.Run(ctx, cmd)
	if err != nil {
		return res.Combined(), err
	}
	if res.ExitCode != 0 {
		return res.Combined(), fmt.Errorf("cmake install exit %d", res.ExitCode)
	}
	return res.Combined(), nil
}

// nativeInstallCommand is the pre-CMake-3.15 install fallback, driving
// the generator's own build tool instead of "cmake --install".
func nativeInstallCommand(job nbmodel.Job, gen Generator, instPath string) string {
	switch gen {
	case GeneratorNinja:
		return fmt.Sprintf("DESTDIR=%s ninja install", instPath)
	case GeneratorUnixMakefiles:
		return fmt.Sprintf("DESTDIR=%s make install", instPath)
	case GeneratorXcode:
		return fmt.Sprintf("DESTDIR=%s xcodebuild -target install -config %s", instPath, job.Config)
	default:
		return ""
	}
}

func (d *Driver) copyInstallToDrive(ctx context.Context, drive nbmodel.Drive, job nbmodel.Job, hp hostPaths, wpaths nbmodel.WorkPaths, flowID string) error {
	tarname := job.Name + "-install.tar.gz"
	local := nbexec.New(d.host.Login)
	res, err := local.Run(ctx, fmt.Sprintf("tar -czf %s -C %s .", hostJoin(d.host.Login, hp.flow, tarname), hp.install))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("tar install tree exit %d", res.ExitCode)
	}
	return nbexec.Copy(ctx, d.host.Login, drive.Login, hp.flow, tarname, wpaths.DriveRoot, tarname)
}

func (d *Driver) runTests(ctx context.Context, job nbmodel.Job, gen Generator, hp hostPaths, tests []nbmodel.Target) (Step, error) {
	var step Step
	envvars := testEnvVars(d.host, gen, hp.install)

	var log string
	for _, test := range tests {
		if test.Executable == "" {
			continue
		}
		exe := hostJoin(d.host.Login, hp.build, job.Config, "bin", test.Executable)
		cmd := exe
		if envvars != "" {
			cmd = envvars + shellSep(d.host.Login) + exe
		}
		res, err := d.client.Run(ctx, cmd)
		if err != nil {
			return step, fmt.Errorf("%s: fatal error running test: %w", test.Executable, err)
		}
		log += res.Combined() + "\n"
	}

	step.Log = log
	step.Warnings, step.NWarnings = extractLines(log, testWarnMarkers...)
	step.Errors, step.NErrors = extractLines(log, testErrorMarkers...)
	return step, nil
}

func shellSep(login nbmodel.Login) string {
	if login.IsWindows() {
		return "&"
	}
	return ";"
}
