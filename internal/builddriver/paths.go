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
	"strings"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

// hostPaths are the job's working directories on the runner host itself,
// distinct from nbmodel.WorkPaths (which are coordinator/drive-side).
type hostPaths struct {
	flow    string
	src     string
	build   string
	install string
}

func hostJoin(login nbmodel.Login, elems ...string) string {
	sep := "/"
	if login.IsWindows() {
		sep = `\`
	}
	return strings.Join(elems, sep)
}

func deriveHostPaths(host nbmodel.Host, flowID string, job nbmodel.Job) hostPaths {
	flow := hostJoin(host.Login, host.WorkPath, flowID, job.Name)
	return hostPaths{
		flow:    flow,
		src:     hostJoin(host.Login, flow, "src"),
		build:   hostJoin(host.Login, flow, "build"),
		install: hostJoin(host.Login, flow, "install"),
	}
}

// sourceTarName is the archive name staged onto every host, matching
// the single tar the drive holds for every job in a loop.
const sourceTarName = "src.tar.gz"
