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

package nbmodel

import (
	"fmt"
	"path"
)

// WorkPaths are the derived staging paths for one flow+revision.
// Invariant: every drive-side path includes the repo revision so
// different revisions cannot collide.
type WorkPaths struct {
	// Coordinator-local tmp roots.
	LocalSrc string
	LocalTest string
	LocalDoc string

	// Drive-side roots, keyed by <flowid>/r<repo_vers>.
	DriveRoot string
	DriveSrc  string
	DriveTest string
	DriveInf  string
}

// DeriveWorkPaths computes WorkPaths for one flow+revision, matching the
// layout "<drive>/<flowid>/r<rev>/...".
func DeriveWorkPaths(tmpRoot, driveRoot, flowID string, repoVers uint32) WorkPaths {
	localBase := path.Join(tmpRoot, flowID, fmt.Sprintf("r%d", repoVers))
	driveBase := path.Join(driveRoot, flowID, fmt.Sprintf("r%d", repoVers))
	return WorkPaths{
		LocalSrc:  path.Join(localBase, "src"),
		LocalTest: path.Join(localBase, "test"),
		LocalDoc:  path.Join(localBase, "doc"),
		DriveRoot: driveBase,
		DriveSrc:  path.Join(driveBase, "src.tar.gz"),
		DriveTest: path.Join(driveBase, "test.tar.gz"),
		DriveInf:  path.Join(driveBase, "inf"),
	}
}

// ReportPath returns the on-disk path of the Report document for this
// flow+revision: "<drive>/<flowid>/r<rev>/inf/report.json".
func (w WorkPaths) ReportPath() string {
	return path.Join(w.DriveInf, "report.json")
}
