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

// Package builddriver runs the configure/build/install/test steps of a
// job on a host, using CMake as the universal build front end.
package builddriver

import (
	"strings"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Generator identifies one of the CMake generators a job may request.
type Generator int

const (
	GeneratorUnknown Generator = iota
	GeneratorVSMSBuild
	GeneratorNinja
	GeneratorNinjaMultiConfig
	GeneratorMinGW
	GeneratorMSYS
	GeneratorUnixMakefiles
	GeneratorXcode
)

// ParseGenerator classifies a job's free-text "generator" field. Visual
// Studio generators carry a version/arch suffix ("Visual Studio 17 2022"),
// so any "Visual Studio" prefix counts.
func ParseGenerator(name string) Generator {
	switch {
	case strings.HasPrefix(name, "Visual Studio"):
		return GeneratorVSMSBuild
	case name == "Ninja Multi-Config":
		return GeneratorNinjaMultiConfig
	case name == "Ninja":
		return GeneratorNinja
	case name == "MinGW Makefiles":
		return GeneratorMinGW
	case name == "MSYS Makefiles":
		return GeneratorMSYS
	case name == "Unix Makefiles":
		return GeneratorUnixMakefiles
	case name == "Xcode":
		return GeneratorXcode
	default:
		return GeneratorUnknown
	}
}

// MultiConfig reports whether a generator builds all configurations
// from one configure pass, selecting Debug/Release at build/install
// time rather than at configure time.
func (g Generator) MultiConfig() bool {
	switch g {
	case GeneratorVSMSBuild, GeneratorNinjaMultiConfig, GeneratorXcode:
		return true
	default:
		return false
	}
}

// ninjaOnWindows reports whether generator+login need the Visual Studio
// compiler/env wiring Ninja itself doesn't provide on Windows.
func ninjaOnWindows(g Generator, login nbmodel.Login) bool {
	return (g == GeneratorNinja || g == GeneratorNinjaMultiConfig) && login.IsWindows()
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// vsVarsScript maps a job's compiler/arch tags to the vcvarsall-style
// helper script name the coordinator's Windows hosts expose.
func vsVarsScript(tags []string, arch string) (string, bool) {
	versions := []string{"2022", "2019", "2017", "2015", "2013", "2012", "2010"}
	for _, v := range versions {
		if hasTag(tags, "msvc"+v) {
			return "vs" + v + "_" + arch + "_vars", true
		}
	}
	return "", false
}
