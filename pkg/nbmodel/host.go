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

// HostType is the tagged variant of a runner host. The string-typed type
// field on Host is a tagged variant; the parser rejects unknown tags.
type HostType string

const (
	HostMetal  HostType = "metal"
	HostVBox   HostType = "vbox"
	HostUTM    HostType = "utm"
	HostVMware HostType = "vmware"
	HostMacOS  HostType = "macos"
)

// ValidHostType reports whether t is one of the five recognised variants.
func ValidHostType(t HostType) bool {
	switch t {
	case HostMetal, HostVBox, HostUTM, HostVMware, HostMacOS:
		return true
	default:
		return false
	}
}

// Drive is the shared storage node. Must be Linux.
type Drive struct {
	Name  string `json:"name"`
	Root  string `json:"root"`
	Login Login  `json:"login"`
}

// Validate enforces the Drive-must-be-Linux invariant.
func (d Drive) Validate() error {
	if d.Login.Platform != PlatformLinux {
		return fmt.Errorf("drive %q must be a Linux host, got platform %q", d.Name, d.Login.Platform)
	}
	return nil
}

// Host is a runner descriptor.
type Host struct {
	Name     string   `json:"name"`
	Type     HostType `json:"type"`
	WorkPath string   `json:"workpath"`

	// Virtualisation keys, populated only for the matching Type.
	VBoxUUID   string `json:"vbox_uuid,omitempty"`
	VBoxHost   string `json:"vbox_host,omitempty"`
	UTMUUID    string `json:"utm_uuid,omitempty"`
	UTMHost    string `json:"utm_host,omitempty"`
	VMwarePath string `json:"vmware_path,omitempty"`
	VMwareHost string `json:"vmware_host,omitempty"`
	MacOSHost  string `json:"macos_host,omitempty"`   // name of the physical Mac hosting this volume
	MacOSVol   string `json:"macos_volume,omitempty"`  // boot volume name on that physical Mac

	MinGWPath string `json:"mingw_path,omitempty"`

	Login      Login    `json:"login"`
	Generators []string `json:"generators"`
	Tags       []string `json:"tags"`
}

// HasGenerator reports whether the host supports the given generator.
func (h Host) HasGenerator(generator string) bool {
	for _, g := range h.Generators {
		if g == generator {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the host carries every tag in tags.
func (h Host) HasAllTags(tags []string) bool {
	have := make(map[string]struct{}, len(h.Tags))
	for _, t := range h.Tags {
		have[t] = struct{}{}
	}
	for _, want := range tags {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

// HasTag reports whether the host carries a single tag.
func (h Host) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CheckHostConfig validates the cross-cutting invariants across a host
// list: names must be unique (duplicates are fatal) and every Type must
// be a recognised tagged variant.
func CheckHostConfig(hosts []Host) error {
	seen := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if _, dup := seen[h.Name]; dup {
			return fmt.Errorf("duplicate host name: %s", h.Name)
		}
		seen[h.Name] = struct{}{}
		if !ValidHostType(h.Type) {
			return fmt.Errorf("host %s: unknown type %q", h.Name, h.Type)
		}
	}
	return nil
}

// HostByName looks up a host by its unique name.
func HostByName(hosts []Host, name string) (Host, bool) {
	for _, h := range hosts {
		if h.Name == name {
			return h, true
		}
	}
	return Host{}, false
}
