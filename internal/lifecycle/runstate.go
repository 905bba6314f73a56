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

// Package lifecycle boots and shuts down the virtualised and bare-metal
// hosts a workflow schedules jobs onto. A host that answers a ping is
// left alone; one that doesn't is booted through its
// Host.Type-specific path and, if it is a virtual machine nbuild itself
// started, shut back down once the loop is done with it.
package lifecycle

// RunState is the outcome of one Boot call: why a host did or didn't
// come up, and — symmetrically — whether Shutdown should act on it.
type RunState string

const (
	StateNotInit       RunState = "not_init"
	StateAlreadyUp     RunState = "already_running"
	StateUnreachable   RunState = "unreachable"

	StateVBoxHostDown       RunState = "vbox_host_down"
	StateVBoxHostSSH        RunState = "vbox_host_ssh"
	StateVBoxHostVBoxManage RunState = "vbox_host_vboxmanage"
	StateVBoxWakeUp         RunState = "vbox_wake_up"
	StateVBoxTimeout        RunState = "vbox_timeout"

	StateUTMHostDown RunState = "utm_host_down"
	StateUTMHostSSH  RunState = "utm_host_ssh"
	StateUTMWakeUp   RunState = "utm_wake_up"
	StateUTMTimeout  RunState = "utm_timeout"

	StateVMwareHostDown RunState = "vmware_host_down"
	StateVMwareHostSSH  RunState = "vmware_host_ssh"
	StateVMwareWakeUp   RunState = "vmware_wake_up"
	StateVMwareTimeout  RunState = "vmware_timeout"

	StateMacOSUnknownVersion     RunState = "macos_unknown_version"
	StateMacOSNotBootable        RunState = "macos_not_bootable"
	StateMacOSWakeUp             RunState = "macos_wake_up"
	StateMacOSCantBootFromVolume RunState = "macos_cant_boot_from_volume"
	StateMacOSTimeout            RunState = "macos_timeout"
)

// BootedByUs reports whether this RunState is one Shutdown acts on: the
// VirtualBox, UTM and VMware wake-up and timeout states, i.e. a virtual
// machine nbuild itself started. A host nbuild didn't start is never put
// back to sleep, and neither is a macOS volume boot (StateMacOSWakeUp).
func (s RunState) BootedByUs() bool {
	switch s {
	case StateVBoxWakeUp, StateVBoxTimeout,
		StateUTMWakeUp, StateUTMTimeout,
		StateVMwareWakeUp, StateVMwareTimeout:
		return true
	default:
		return false
	}
}

// Up reports whether the host is known reachable after Boot returned.
func (s RunState) Up() bool {
	switch s {
	case StateAlreadyUp, StateVBoxWakeUp, StateUTMWakeUp, StateVMwareWakeUp, StateMacOSWakeUp:
		return true
	default:
		return false
	}
}
