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
	"time"

	"github.com/frang75/nbuild/internal/log"
	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Options tunes the boot-wait polling loop. Zero value uses the
// production defaults; tests shrink PingTimeout/PollInterval.
type Options struct {
	PingTimeout  time.Duration
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	return o
}

// Boot brings host up if it isn't already reachable, dispatching on its
// Type. hosts is the full network so the boot can find the physical
// machine hosting a virtualised runner.
func Boot(ctx context.Context, host nbmodel.Host, hosts []nbmodel.Host, opts Options) RunState {
	opts = opts.withDefaults()
	client := nbexec.New(host.Login)

	if client.Ping(ctx) {
		return StateAlreadyUp
	}

	switch host.Type {
	case nbmodel.HostMetal:
		return StateUnreachable
	case nbmodel.HostVBox:
		return bootVBox(ctx, host, hosts, opts)
	case nbmodel.HostUTM:
		return bootUTM(ctx, host, hosts, opts)
	case nbmodel.HostVMware:
		return bootVMware(ctx, host, hosts, opts)
	case nbmodel.HostMacOS:
		return bootMacOS(ctx, host, hosts, opts)
	default:
		return StateUnreachable
	}
}

// pollUntilReachable polls host.Login until it answers or opts.PingTimeout
// elapses, matching the original coordinator's i_ping_with_timeout.
// Windows runners answer ping before their services are ready, so we
// pad with an extra sleep once reachable.
func pollUntilReachable(ctx context.Context, login nbmodel.Login, opts Options) bool {
	client := nbexec.New(login)
	deadline := time.Now().Add(opts.PingTimeout)
	for {
		if client.Ping(ctx) {
			if login.IsWindows() {
				select {
				case <-time.After(15 * time.Second):
				case <-ctx.Done():
				}
			}
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-time.After(opts.PollInterval):
		case <-ctx.Done():
			return false
		}
	}
}

func bootVBox(ctx context.Context, host nbmodel.Host, hosts []nbmodel.Host, opts Options) RunState {
	phost, ok := nbmodel.HostByName(hosts, host.VBoxHost)
	if !ok {
		return StateUnreachable
	}
	plogin := phost.Login
	pclient := nbexec.New(plogin)

	log.New(nil).Info(fmt.Sprintf("booting %s (%s) from %s (%s)", host.Name, host.Login.IP, host.VBoxHost, plogin.IP))

	res, err := pclient.Run(ctx, fmt.Sprintf("VBoxManage startvm %s --type headless", shq(host.VBoxUUID)))
	if err == nil && res.ExitCode == 0 {
		if pollUntilReachable(ctx, host.Login, opts) {
			return StateVBoxWakeUp
		}
		return StateVBoxTimeout
	}

	if pclient.Ping(ctx) {
		if !vboxManageAvailable(ctx, pclient) {
			return StateVBoxHostVBoxManage
		}
		return StateVBoxHostSSH
	}
	return StateVBoxHostDown
}

func bootUTM(ctx context.Context, host nbmodel.Host, hosts []nbmodel.Host, opts Options) RunState {
	phost, ok := nbmodel.HostByName(hosts, host.UTMHost)
	if !ok {
		return StateUnreachable
	}
	plogin := phost.Login
	pclient := nbexec.New(plogin)

	log.New(nil).Info(fmt.Sprintf("booting %s (%s) from %s (%s)", host.Name, host.Login.IP, host.UTMHost, plogin.IP))

	ok2 := utmStart(ctx, plogin, host.UTMUUID)
	if ok2 {
		if pollUntilReachable(ctx, host.Login, opts) {
			return StateUTMWakeUp
		}
		return StateUTMTimeout
	}

	if pclient.Ping(ctx) {
		return StateUTMHostSSH
	}
	return StateUTMHostDown
}

func bootVMware(ctx context.Context, host nbmodel.Host, hosts []nbmodel.Host, opts Options) RunState {
	phost, ok := nbmodel.HostByName(hosts, host.VMwareHost)
	if !ok {
		return StateUnreachable
	}
	plogin := phost.Login
	pclient := nbexec.New(plogin)

	log.New(nil).Info(fmt.Sprintf("booting %s (%s) from %s (%s)", host.Name, host.Login.IP, host.VMwareHost, plogin.IP))

	if plogin.Platform != nbmodel.PlatformMacOS {
		if pclient.Ping(ctx) {
			return StateVMwareHostSSH
		}
		return StateVMwareHostDown
	}

	res, err := pclient.Run(ctx, fmt.Sprintf("vmrun start %s nogui", shq(host.VMwarePath)))
	if err == nil && res.ExitCode == 0 {
		if pollUntilReachable(ctx, host.Login, opts) {
			return StateVMwareWakeUp
		}
		return StateVMwareTimeout
	}

	if pclient.Ping(ctx) {
		return StateVMwareHostSSH
	}
	return StateVMwareHostDown
}

// vboxManageAvailable probes whether VBoxManage is installed on the
// physical host, distinguishing a reachable-but-misconfigured host
// (StateVBoxHostVBoxManage) from a reachable host with a broken SSH
// shell for our purposes (StateVBoxHostSSH).
func vboxManageAvailable(ctx context.Context, client nbexec.Client) bool {
	res, err := client.Run(ctx, "VBoxManage --version")
	return err == nil && res.ExitCode == 0
}

// utmStart stages and one-shot-loads a launchd script that invokes
// utmctl, since UTM (as of the releases this was grounded on) does not
// support starting a VM over a plain SSH-issued utmctl call.
func utmStart(ctx context.Context, plogin nbmodel.Login, utmUUID string) bool {
	if plogin.Platform != nbmodel.PlatformMacOS {
		return false
	}
	const scriptPath = "/tmp"
	const scriptName = "nbuild_utm_launch.plist"

	script := utmLaunchdScript(utmUUID)
	if err := nbexec.WriteFile(ctx, nbexec.New(plogin), scriptPath, scriptName, script); err != nil {
		return false
	}

	full := scriptPath + "/" + scriptName
	client := nbexec.New(plogin)
	_, _ = client.Run(ctx, fmt.Sprintf("launchctl load %s", shq(full)))
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
	}
	_, _ = client.Run(ctx, fmt.Sprintf("launchctl unload %s", shq(full)))
	return true
}

func utmLaunchdScript(utmUUID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.frang75.nbuild.onetimejob</string>
    <key>ProgramArguments</key>
    <array>
        <string>/Applications/UTM.app/Contents/MacOS/utmctl</string>
        <string>start</string>
        <string>%s</string>
    </array>
    <key>StartInterval</key>
    <integer>1</integer>
    <key>RunAtLoad</key>
    <true/>
    <key>AbandonProcessGroup</key>
    <true/>
</dict>
</plist>
`, utmUUID)
}

func shq(s string) string {
	return "'" + s + "'"
}
