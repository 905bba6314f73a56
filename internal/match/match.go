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

// Package match is the pure predicate deciding which hosts can run a
// given job.
package match

import "github.com/frang75/nbuild/pkg/nbmodel"

// Job reports whether host can run job: host must carry job's
// generator and every tag job requires.
func Job(host nbmodel.Host, job nbmodel.Job) bool {
	if !host.HasGenerator(job.Generator) {
		return false
	}
	return host.HasAllTags(job.Tags)
}

// Hosts returns every host in hosts able to run job, in input order.
func Hosts(hosts []nbmodel.Host, job nbmodel.Job) []nbmodel.Host {
	var matched []nbmodel.Host
	for _, h := range hosts {
		if Job(h, job) {
			matched = append(matched, h)
		}
	}
	return matched
}

// FirstHost returns the first host able to run job, mirroring
// host_match_job's single-match semantics.
func FirstHost(hosts []nbmodel.Host, job nbmodel.Job) (nbmodel.Host, bool) {
	for _, h := range hosts {
		if Job(h, job) {
			return h, true
		}
	}
	return nbmodel.Host{}, false
}
