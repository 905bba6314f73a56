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

package nblock

import (
	"os"
	"syscall"
)

// IsProcessRunning reports whether a process with the given PID exists.
// Lock.Acquire does not call it: whether the lock is live is decided by
// flock alone.
func IsProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes for existence
	// without actually delivering a signal.
	return proc.Signal(syscall.Signal(0)) == nil
}

// IsNbuildProcess reports whether the given PID's command line looks like
// an nbuild coordinator invocation, guarding against misreading a stale
// lockfile whose PID was recycled by an unrelated process.
func IsNbuildProcess(pid int) bool {
	return isNbuildProcess(pid)
}

// ProcessCommand returns the command line of the process, best-effort.
func ProcessCommand(pid int) (string, error) {
	return getProcessCommand(pid)
}
