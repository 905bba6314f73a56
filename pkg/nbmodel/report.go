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

import "time"

// JobStep names the two-stage pipeline every Job goes through on a Host:
// build, then test.
type JobStep string

const (
	StepBuild JobStep = "build"
	StepTest  JobStep = "test"
)

// DocEvents groups the sub-events of documentation generation: ndoc
// (count discovered), en/es (per-locale generation), copy (staging into
// the drive doc tree), upload (publish).
type DocEvents struct {
	NDoc  Event `json:"ndoc"`
	En    Event `json:"en"`
	Es    Event `json:"es"`
	Copy  Event `json:"copy"`
	Upload Event `json:"upload"`
}

// NewDocEvents returns a fresh, never-run DocEvents group.
func NewDocEvents() DocEvents {
	return DocEvents{
		NDoc:   NewEvent("ndoc"),
		En:     NewEvent("en"),
		Es:     NewEvent("es"),
		Copy:   NewEvent("copy"),
		Upload: NewEvent("upload"),
	}
}

// JobEvents is the per-Job, per-Host event pair: build then test.
type JobEvents struct {
	JobID uint32           `json:"job_id"`
	Host  string           `json:"host"`
	Steps map[JobStep]Event `json:"steps"`
}

// NewJobEvents returns a fresh JobEvents for the given job/host with both
// steps never-run.
func NewJobEvents(jobID uint32, host string) JobEvents {
	return JobEvents{
		JobID: jobID,
		Host:  host,
		Steps: map[JobStep]Event{
			StepBuild: NewEvent(string(StepBuild)),
			StepTest:  NewEvent(string(StepTest)),
		},
	}
}

// Report is the crash-safe, idempotent persistence record for one flow's
// single repository revision. It is the only durable state the workflow
// loop depends on to resume after a restart.
type Report struct {
	RepoURL  string `json:"repo_url"`
	RepoVers uint32 `json:"repo_vers"`
	// Version is the project version string read from the workflow-
	// configured version file at RepoVers; empty if unreadable or
	// unconfigured.
	Version string `json:"version,omitempty"`

	CurrentLoop uint32 `json:"current_loop"`
	Loops       []Loop `json:"loops"`

	// Source and test target staging events, keyed by Target.Name.
	SrcTargets  map[string]Event `json:"src_targets"`
	TestTargets map[string]Event `json:"test_targets"`

	// Packaging events.
	SrcTar  Event `json:"src_tar"`
	TestTar Event `json:"test_tar"`

	// Per-repo-relative-file build-file emission (e.g. build.txt).
	BuildFile Event `json:"build_file"`

	Doc DocEvents `json:"doc"`

	// Per job, per host, per step.
	Jobs []JobEvents `json:"jobs"`
}

// NewReport returns an empty Report for the given repository at the
// given revision, with CurrentLoop at NoLoop (never run).
func NewReport(repoURL string, repoVers uint32) *Report {
	return &Report{
		RepoURL:     repoURL,
		RepoVers:    repoVers,
		CurrentLoop: NoLoop,
		SrcTargets:  make(map[string]Event),
		TestTargets: make(map[string]Event),
		SrcTar:      NewEvent("src_tar"),
		TestTar:     NewEvent("test_tar"),
		BuildFile:   NewEvent("build_file"),
		Doc:         NewDocEvents(),
	}
}

// LoopIncr advances the loop counter without appending a Loop record.
// It runs once per invocation, before LoopInit: a freshly created Report
// (CurrentLoop == NoLoop) moves to loop 0, a loaded one to its next loop.
func (r *Report) LoopIncr() uint32 {
	if r.CurrentLoop == NoLoop {
		r.CurrentLoop = 0
	} else {
		r.CurrentLoop++
	}
	return r.CurrentLoop
}

// LoopInit appends a new Loop record stamped with now, keeping
// len(loops) == current_loop+1 until LoopEnd closes it out.
func (r *Report) LoopInit(now time.Time) {
	r.Loops = append(r.Loops, Loop{Init: now})
}

// LoopEnd stamps the current loop's end time and embeds the
// base64-encoded coordinator log captured for this invocation.
func (r *Report) LoopEnd(now time.Time, logB64 string) {
	r.Loops[r.CurrentLoop].End = now
	r.Loops[r.CurrentLoop].LogB64 = logB64
}

// JobEventsFor returns the JobEvents for (jobID, host), creating and
// appending one if it does not yet exist.
func (r *Report) JobEventsFor(jobID uint32, host string) *JobEvents {
	for i := range r.Jobs {
		if r.Jobs[i].JobID == jobID && r.Jobs[i].Host == host {
			return &r.Jobs[i]
		}
	}
	r.Jobs = append(r.Jobs, NewJobEvents(jobID, host))
	return &r.Jobs[len(r.Jobs)-1]
}

// AllJobStepsDone reports whether every job/host pair on file has
// completed both its build and test steps.
func (r *Report) AllJobStepsDone() bool {
	for _, je := range r.Jobs {
		for _, step := range []JobStep{StepBuild, StepTest} {
			if !je.Steps[step].IsDone() {
				return false
			}
		}
	}
	return true
}
