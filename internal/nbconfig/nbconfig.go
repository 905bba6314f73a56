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

// Package nbconfig loads and validates network.json and workflow.json,
// the two files that describe the hosts an invocation can schedule
// against and the jobs it should run on them.
package nbconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/frang75/nbuild/internal/lifecycle"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// networkFile is the on-disk shape of network.json: the same fields as
// nbmodel.Network plus a per-macOS-host version string nbconfig folds
// into the lifecycle package's lookup table after validation.
type networkFile struct {
	Drive nbmodel.Drive  `json:"drive"`
	Hosts []hostWithVers `json:"hosts"`
}

type hostWithVers struct {
	nbmodel.Host
	MacOSVersion string `json:"macos_version,omitempty"`
}

// LoadNetwork reads and validates network.json at path, registering
// every macOS host's declared version with the lifecycle package so
// Boot/CanBootDirect decisions can use it.
func LoadNetwork(path string) (nbmodel.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nbmodel.Network{}, fmt.Errorf("nbconfig: reading %s: %w", path, err)
	}

	var nf networkFile
	if err := json.Unmarshal(raw, &nf); err != nil {
		return nbmodel.Network{}, fmt.Errorf("nbconfig: parsing %s: %w", path, err)
	}

	hosts := make([]nbmodel.Host, len(nf.Hosts))
	for i, h := range nf.Hosts {
		hosts[i] = h.Host
		if h.Host.Type == nbmodel.HostMacOS && h.MacOSVersion != "" {
			lifecycle.RegisterMacOSVersion(h.Host.Name, parseMacOSVersion(h.MacOSVersion))
		}
	}

	network := nbmodel.Network{Drive: nf.Drive, Hosts: hosts}
	if err := network.Validate(); err != nil {
		return nbmodel.Network{}, fmt.Errorf("nbconfig: %s: %w", path, err)
	}
	return network, nil
}

// LoadWorkflow reads and validates workflow.json at path, assigning
// stable numeric ids to jobs in declaration order.
func LoadWorkflow(path string) (nbmodel.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nbmodel.Workflow{}, fmt.Errorf("nbconfig: reading %s: %w", path, err)
	}

	var wf nbmodel.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nbmodel.Workflow{}, fmt.Errorf("nbconfig: parsing %s: %w", path, err)
	}

	nbmodel.AssignJobIDs(wf.Jobs)
	if err := wf.Validate(); err != nil {
		return nbmodel.Workflow{}, fmt.Errorf("nbconfig: %s: %w", path, err)
	}
	return wf, nil
}

var macOSVersionNames = map[string]lifecycle.MacOSVersion{
	"leopard":      lifecycle.MacOSLeopard,
	"snow_leopard": lifecycle.MacOSSnowLeopard,
	"lion":         lifecycle.MacOSLion,
	"mountain_lion": lifecycle.MacOSMountainLion,
	"mavericks":    lifecycle.MacOSMavericks,
	"yosemite":     lifecycle.MacOSYosemite,
	"el_capitan":   lifecycle.MacOSElCapitan,
	"sierra":       lifecycle.MacOSSierra,
	"high_sierra":  lifecycle.MacOSHighSierra,
	"mojave":       lifecycle.MacOSMojave,
	"catalina":     lifecycle.MacOSCatalina,
	"big_sur":      lifecycle.MacOSBigSur,
	"monterey":     lifecycle.MacOSMonterey,
	"ventura":      lifecycle.MacOSVentura,
	"sonoma":       lifecycle.MacOSSonoma,
	"sequoia":      lifecycle.MacOSSequoia,
}

func parseMacOSVersion(name string) lifecycle.MacOSVersion {
	return macOSVersionNames[name]
}
