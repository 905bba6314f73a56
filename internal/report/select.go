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

package report

import (
	"regexp"
	"time"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

// doneBeforeCurrentLoop reports whether e is done and terminated in a
// loop strictly earlier than the report's current one. A task that
// just finished in the current loop still blocks job start, so the
// same success isn't counted twice in one loop.
func doneBeforeCurrentLoop(r *nbmodel.Report, e nbmodel.Event) bool {
	return e.IsDone() && e.LoopID < r.CurrentLoop
}

// CanStartJobs reports whether every prerequisite staging event — all
// source and test targets, build_file, src_tar, and the doc event when
// a doc revision is tracked — finished in a previous loop.
func CanStartJobs(r *nbmodel.Report, docTracked bool) bool {
	for _, e := range r.SrcTargets {
		if !doneBeforeCurrentLoop(r, e) {
			return false
		}
	}
	for _, e := range r.TestTargets {
		if !doneBeforeCurrentLoop(r, e) {
			return false
		}
	}
	if !doneBeforeCurrentLoop(r, r.BuildFile) {
		return false
	}
	if !doneBeforeCurrentLoop(r, r.SrcTar) {
		return false
	}
	if docTracked && !doneBeforeCurrentLoop(r, r.Doc.NDoc) {
		return false
	}
	return true
}

// jobPending reports whether any step of je is not yet done.
func jobPending(je nbmodel.JobEvents) bool {
	for _, step := range []nbmodel.JobStep{nbmodel.StepBuild, nbmodel.StepTest} {
		if !je.Steps[step].IsDone() {
			return true
		}
	}
	return false
}

// SelectJobs picks the smallest priority tier (1..50) among jobs that
// still have pending work and returns every job in that tier. The
// scheduler runs at most one priority tier per loop.
func SelectJobs(r *nbmodel.Report, jobs []nbmodel.Job) []nbmodel.Job {
	pending := make(map[uint32]bool, len(r.Jobs))
	for _, je := range r.Jobs {
		if jobPending(je) {
			pending[je.JobID] = true
		}
	}
	// A job never yet attempted has no JobEvents entry at all, and so
	// counts as pending too.
	attempted := make(map[uint32]bool, len(r.Jobs))
	for _, je := range r.Jobs {
		attempted[je.JobID] = true
	}

	best := -1
	for _, j := range jobs {
		isPending := pending[j.ID] || !attempted[j.ID]
		if !isPending {
			continue
		}
		if best == -1 || j.Priority < best {
			best = j.Priority
		}
	}
	if best == -1 {
		return nil
	}

	var selected []nbmodel.Job
	for _, j := range jobs {
		isPending := pending[j.ID] || !attempted[j.ID]
		if isPending && j.Priority == best {
			selected = append(selected, j)
		}
	}
	return selected
}

// ForceJobs selects every workflow job whose name matches pattern,
// ignoring done-ness, and resets each selected job's build/test step
// init-timestamps on r so the scheduler re-runs them regardless of
// prior completion.
func ForceJobs(r *nbmodel.Report, jobs []nbmodel.Job, pattern *regexp.Regexp, now time.Time) []nbmodel.Job {
	var selected []nbmodel.Job
	for _, j := range jobs {
		if !pattern.MatchString(j.Name) {
			continue
		}
		selected = append(selected, j)
		// Re-arm every host this job has ever run on; hosts it hasn't
		// reached yet get fresh JobEvents the scheduler will create.
		for i := range r.Jobs {
			if r.Jobs[i].JobID != j.ID {
				continue
			}
			for _, step := range []nbmodel.JobStep{nbmodel.StepBuild, nbmodel.StepTest} {
				ev := r.Jobs[i].Steps[step]
				ev.Begin(r.CurrentLoop, now)
				r.Jobs[i].Steps[step] = ev
			}
		}
	}
	return selected
}

// JobCanTest reports whether je's build step finished cleanly enough
// to let the test step run: done, no execution error, and the caller-
// supplied compile-error count was zero.
func JobCanTest(je nbmodel.JobEvents, buildErrors int) bool {
	build := je.Steps[nbmodel.StepBuild]
	return build.IsDone() && build.Error == "" && buildErrors == 0
}
