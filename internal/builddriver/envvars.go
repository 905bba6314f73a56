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
	"fmt"
	"strings"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

const noParallelism = ^uint32(0)

// cmakeEnvVars composes the shell prefix that must run before cmake on
// host: a MinGW PATH override, a parallel-build-level override, and on
// Windows+Ninja the compiler/arch vcvars script. The pieces are joined
// with "&" on Windows and ";" elsewhere, matching how each platform's
// shell chains commands.
func cmakeEnvVars(host nbmodel.Host, tags []string, g Generator, njobs uint32) string {
	sep := ";"
	if host.Login.IsWindows() {
		sep = "&"
	}

	var parts []string

	if g == GeneratorMinGW && host.Login.IsWindows() {
		parts = append(parts, fmt.Sprintf(`PATH=%s\bin;%%PATH%%`, host.MinGWPath))
	}

	if njobs != noParallelism {
		if host.Login.IsWindows() {
			parts = append(parts, fmt.Sprintf("set CMAKE_BUILD_PARALLEL_LEVEL=%d", njobs))
		} else {
			parts = append(parts, fmt.Sprintf("export CMAKE_BUILD_PARALLEL_LEVEL=%d", njobs))
		}
	}

	if ninjaOnWindows(g, host.Login) {
		arch := ""
		if hasTag(tags, "x64") {
			arch = "x64"
		} else if hasTag(tags, "x86") {
			arch = "x86"
		}
		if arch != "" {
			if script, ok := vsVarsScript(tags, arch); ok {
				parts = append(parts, script)
			}
		}
	}

	return strings.Join(parts, sep)
}

// configureOptions composes the cmake configure-time flags: the job's
// free-form options, -DCMAKE_BUILD_TYPE for single-config generators,
// the MSVC compiler override for Ninja-on-Windows, and -A for VS
// Win32/x64 architecture selection.
func configureOptions(host nbmodel.Host, job nbmodel.Job, g Generator) string {
	var b strings.Builder
	if job.Options != "" {
		b.WriteString(job.Options)
		b.WriteString(" ")
	}

	if !g.MultiConfig() {
		fmt.Fprintf(&b, "-DCMAKE_BUILD_TYPE=%s ", job.Config)
	}

	if ninjaOnWindows(g, host.Login) {
		b.WriteString("-DCMAKE_C_COMPILER=cl -DCMAKE_CXX_COMPILER=cl ")
	}

	if g == GeneratorVSMSBuild {
		if hasTag(job.Tags, "x64") {
			b.WriteString("-A x64 ")
		} else if hasTag(job.Tags, "x86") {
			b.WriteString("-A Win32 ")
		}
	}

	return strings.TrimSpace(b.String())
}

// buildOptions composes the cmake --build flags: multi-config
// generators need an explicit --config, single-config generators
// baked the configuration in at configure time.
func buildOptions(job nbmodel.Job, g Generator) string {
	if g.MultiConfig() {
		return fmt.Sprintf("--config %s", job.Config)
	}
	return ""
}

// installOptions composes the cmake --install flags.
func installOptions(job nbmodel.Job, g Generator, instPath string) string {
	if g.MultiConfig() {
		return fmt.Sprintf("--config %s --prefix %s", job.Config, instPath)
	}
	return fmt.Sprintf("--prefix %s", instPath)
}

// testEnvVars composes the shell prefix a test executable needs so it
// can find the libraries just installed, varying by platform loader
// conventions.
func testEnvVars(host nbmodel.Host, g Generator, instPath string) string {
	switch host.Login.Platform {
	case nbmodel.PlatformWindows:
		p := fmt.Sprintf(`PATH=%s\bin;`, instPath)
		if g == GeneratorMinGW {
			p += fmt.Sprintf(`%s\bin;`, host.MinGWPath)
		}
		return p + "%PATH%"
	case nbmodel.PlatformMacOS:
		return fmt.Sprintf("export DYLD_LIBRARY_PATH=%s/bin:$DYLD_LIBRARY_PATH", instPath)
	default:
		return fmt.Sprintf("export LD_LIBRARY_PATH=%s/bin:$LD_LIBRARY_PATH", instPath)
	}
}
