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

import "fmt"

// Network is the parsed form of network.json: the drive and the full
// fleet of runner hosts.
type Network struct {
	Drive Drive  `json:"drive"`
	Hosts []Host `json:"hosts"`
}

// Validate checks the cross-cutting invariants of network.json: the
// drive must be Linux-hosted and host names/types must be well-formed.
func (n Network) Validate() error {
	if err := n.Drive.Validate(); err != nil {
		return err
	}
	if err := CheckHostConfig(n.Hosts); err != nil {
		return err
	}
	return nil
}

// GlobalConfig carries project metadata and repository/documentation/
// hosting credentials shared by every target and job in a workflow.
type GlobalConfig struct {
	Project     string `json:"project"`
	Description string `json:"description"`
	CopyrightFrom int  `json:"copyright_from"`
	CopyrightTo   int  `json:"copyright_to"`
	Author      string `json:"author"`
	License     string `json:"license"`

	RepoUser string `json:"repo_user,omitempty"`
	RepoPass string `json:"repo_pass,omitempty"`

	DocURL     string `json:"doc_url,omitempty"`
	FileDocURL string `json:"file_doc_url,omitempty"`
}

// Workflow is the parsed form of workflow.json: the repository to poll,
// the targets to stage, and the jobs to run against it.
type Workflow struct {
	Global  GlobalConfig `json:"global"`
	RepoURL string       `json:"repo_url"`

	// Version is the repo-relative path of the file C8 reads the build's
	// version string from (e.g. "VERSION").
	Version string `json:"version"`
	// Build is the filename C3 writes the staged revision number into
	// (e.g. "build.txt").
	Build string `json:"build"`

	// Ignore holds regular expressions matched against repository-
	// relative paths; matching entries are skipped while staging.
	Ignore []string `json:"ignore"`

	SrcTargets  []Target `json:"sources"`
	TestTargets []Target `json:"tests"`
	Jobs        []Job    `json:"jobs"`
}

// Validate checks that job names are unique and priorities fall in the
// documented 1..50 range.
func (w Workflow) Validate() error {
	seen := make(map[string]struct{}, len(w.Jobs))
	for _, j := range w.Jobs {
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("duplicate job name: %s", j.Name)
		}
		seen[j.Name] = struct{}{}
		if j.Priority < 1 || j.Priority > 50 {
			return fmt.Errorf("job %s: priority %d out of range [1,50]", j.Name, j.Priority)
		}
	}
	return nil
}

