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

package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// bidiIsolateRange covers U+2068 FIRST STRONG ISOLATE and U+2069 POP
// DIRECTIONAL ISOLATE, the two codepoints Apple's diskutil wraps around
// a volume name for bidirectional-text display.
var bidiIsolateRange = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x2068, Hi: 0x2069, Stride: 1}},
}

// MacOSVersion is the ordinal macOS release table: a host's macos_version
// only matters relative to other versions, never as an absolute string.
type MacOSVersion int

const (
	MacOSUnknown MacOSVersion = iota
	MacOSLeopard
	MacOSSnowLeopard
	MacOSLion
	MacOSMountainLion
	MacOSMavericks
	MacOSYosemite
	MacOSElCapitan
	MacOSSierra
	MacOSHighSierra
	MacOSMojave
	MacOSCatalina
	MacOSBigSur
	MacOSMonterey
	MacOSVentura
	MacOSSonoma
	MacOSSequoia
)

// CanBootDirect reports whether a volume running `from` can chain-boot
// a volume carrying `to`, honouring Apple's APFS/HFS+ boot-volume
// compatibility split at Big Sur.
func CanBootDirect(from, to MacOSVersion) bool {
	if from >= MacOSBigSur {
		return true
	}
	if to <= MacOSCatalina {
		return true
	}
	return false
}

// bidiIsolates strips Apple's bidirectional-text isolate codepoints
// (U+2068 FIRST STRONG ISOLATE, U+2069 POP DIRECTIONAL ISOLATE) that
// `diskutil list` wraps around volume names containing non-Latin
// scripts or spaces.
var bidiIsolates = runes.Remove(runes.In(bidiIsolateRange))

func stripBidiIsolates(s string) string {
	out, _, err := transform.String(bidiIsolates, s)
	if err != nil {
		return s
	}
	return out
}

// diskFromVolume scans `diskutil list` output for the device slot three
// tokens after the named volume.
func diskFromVolume(diskutilOutput, volume string) string {
	aliases := map[string]bool{
		volume:                                true,
		"/Volumes/" + volume:                  true,
		"⁨" + volume + "⁩":           true,
		"⁨/Volumes/" + volume + "⁩":  true,
	}

	fields := strings.Fields(diskutilOutput)
	foundVolume := false
	posDisk := 0
	for _, raw := range fields {
		token := stripBidiIsolates(raw)
		if foundVolume {
			posDisk++
			if strings.HasPrefix(token, "disk") {
				if posDisk == 3 {
					return token
				}
				foundVolume = false
				posDisk = 0
			}
		} else if aliases[token] {
			foundVolume = true
		}
	}
	return ""
}

func bootMacOS(ctx context.Context, host nbmodel.Host, hosts []nbmodel.Host, opts Options) RunState {
	aliveHost, aliveOK := macOSAlive(ctx, hosts, host.MacOSHost)
	if !aliveOK {
		return StateUnreachable
	}

	aliveVers := hostMacOSVersion(aliveHost)
	hostVers := hostMacOSVersion(host)
	if aliveVers == MacOSUnknown || hostVers == MacOSUnknown {
		return StateMacOSUnknownVersion
	}
	if !CanBootDirect(aliveVers, hostVers) {
		return StateMacOSNotBootable
	}
	return bootFromBless(ctx, aliveHost, host, opts)
}

// macOSAlive returns the Host sharing physical machine macosHost that
// currently answers a ping — the volume macOS is actually booted into.
func macOSAlive(ctx context.Context, hosts []nbmodel.Host, macosHost string) (nbmodel.Host, bool) {
	for _, h := range hosts {
		if h.Type != nbmodel.HostMacOS || h.MacOSHost != macosHost {
			continue
		}
		if nbexec.New(h.Login).Ping(ctx) {
			return h, true
		}
	}
	return nbmodel.Host{}, false
}

// hostMacOSVersion is resolved by nbconfig from the host's declared
// macos_version field; lifecycle only consumes the ordinal.
func hostMacOSVersion(h nbmodel.Host) MacOSVersion {
	return macOSVersions[h.Name]
}

// macOSVersions is populated by nbconfig at load time from network.json
// (the ordinal is not itself part of nbmodel.Host to keep the model
// free of lifecycle-only lookup tables).
var macOSVersions = map[string]MacOSVersion{}

// RegisterMacOSVersion records the ordinal macOS release for a host
// name, called once by nbconfig while parsing network.json.
func RegisterMacOSVersion(hostName string, v MacOSVersion) {
	macOSVersions[hostName] = v
}

// HostMacOSVersion exposes the registered ordinal for a host name to
// other packages (the build driver uses it to decide whether a build
// log needs the Sonoma+ arrow-glyph substitution).
func HostMacOSVersion(hostName string) MacOSVersion {
	return macOSVersions[hostName]
}

// bootFromBless reboots the physical Mac `from` into the boot volume
// `to`, using diskutil+bless the way the original coordinator did.
func bootFromBless(ctx context.Context, from, to nbmodel.Host, opts Options) RunState {
	client := nbexec.New(from.Login)

	res, err := client.Run(ctx, "diskutil list")
	if err != nil || res.ExitCode != 0 {
		return StateMacOSCantBootFromVolume
	}
	disk := diskFromVolume(res.Stdout, to.MacOSVol)
	if disk == "" {
		return StateMacOSCantBootFromVolume
	}

	volumePath := "/Volumes/" + to.MacOSVol
	devicePath := "/dev/" + disk

	mountRes, err := client.Run(ctx, fmt.Sprintf("diskutil mount -mountPoint %s %s", shq(volumePath), shq(devicePath)))
	if err != nil || mountRes.ExitCode != 0 {
		return StateMacOSCantBootFromVolume
	}

	blessRes, err := client.Run(ctx, fmt.Sprintf("sudo bless --mount %s --setBoot --nextonly", shq(volumePath)))
	if err != nil || blessRes.ExitCode != 0 {
		return StateMacOSCantBootFromVolume
	}

	_, _ = client.Run(ctx, "sudo reboot")

	if pollUntilReachable(ctx, to.Login, opts) {
		return StateMacOSWakeUp
	}
	return StateMacOSTimeout
}
