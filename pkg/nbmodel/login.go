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

// Package nbmodel holds the data model shared by every orchestrator
// component: Login, Drive, Host, Target, Job, WorkPaths, Event, Report.
package nbmodel

// Platform is the OS family a Login or Host runs.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
)

// Login holds credentials and reachability for one host. Immutable after
// Load. Localhost is taken as written in network.json; nothing compares IP
// against the coordinator's own network addresses.
type Login struct {
	IP         string   `json:"ip"`
	User       string   `json:"user"`
	Pass       string   `json:"pass"`
	Platform   Platform `json:"platform"`
	Localhost  bool     `json:"localhost"`
	UseSSHPass bool     `json:"use_sshpass"`
}

// IsWindows reports whether the login's target platform is Windows.
func (l Login) IsWindows() bool { return l.Platform == PlatformWindows }

// IsPOSIX reports whether the login's target platform uses POSIX shell
// quoting (Linux or macOS).
func (l Login) IsPOSIX() bool { return l.Platform == PlatformLinux || l.Platform == PlatformMacOS }
