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

import "strings"

// extractLines pulls out every line of log containing one of markers,
// returning the matching lines joined back together and their count.
// Build logs use this to collect "warning:"/"error:" lines; test logs
// use it for "[WARN]"/"[FAIL]" markers.
func extractLines(log string, markers ...string) (matched string, count int) {
	if log == "" {
		return "", 0
	}
	var b strings.Builder
	for _, line := range strings.Split(log, "\n") {
		for _, m := range markers {
			if strings.Contains(line, m) {
				b.WriteString(line)
				b.WriteString("\n")
				count++
				break
			}
		}
	}
	return b.String(), count
}

var buildWarnMarkers = []string{"warning:", "warning LNK"}
var buildErrorMarkers = []string{"error:", "error LNK"}
var testWarnMarkers = []string{"[WARN]"}
var testErrorMarkers = []string{"[FAIL]"}
