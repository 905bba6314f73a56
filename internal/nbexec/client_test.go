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

package nbexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

func TestComposeCommandLocalhost(t *testing.T) {
	login := nbmodel.Login{Localhost: true}
	cmd, shell := composeCommand(login, "echo hi")
	assert.Equal(t, "echo hi", cmd)
	assert.Equal(t, []string{"/bin/sh", "-c"}, shell)
}

func TestComposeCommandRemoteLinuxCertAuth(t *testing.T) {
	login := nbmodel.Login{IP: "10.0.0.5", User: "builder", Platform: nbmodel.PlatformLinux}
	cmd, _ := composeCommand(login, "ls")
	assert.Equal(t, "ssh builder@10.0.0.5 'ls'", cmd)
}

func TestComposeCommandRemoteLinuxSSHPass(t *testing.T) {
	login := nbmodel.Login{IP: "10.0.0.5", User: "builder", Pass: "s3cret", Platform: nbmodel.PlatformLinux, UseSSHPass: true}
	cmd, _ := composeCommand(login, "ls")
	assert.Equal(t, "sshpass -p 's3cret' ssh builder@10.0.0.5 'ls'", cmd)
}

func TestComposeCommandRemoteWindows(t *testing.T) {
	login := nbmodel.Login{IP: "10.0.0.9", User: "ci", Platform: nbmodel.PlatformWindows}
	cmd, _ := composeCommand(login, "dir")
	assert.Equal(t, `ssh ci@10.0.0.9 "dir"`, cmd)
}

func TestShellQuoteEscapesSingleQuote(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestRunLocalCommand(t *testing.T) {
	c := New(nbmodel.Login{Localhost: true})
	res, err := c.Run(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
}

func TestRunLocalCommandNonZeroExit(t *testing.T) {
	c := New(nbmodel.Login{Localhost: true})
	res, err := c.Run(context.Background(), "exit 7")
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestPingLocalhostAlwaysTrue(t *testing.T) {
	c := New(nbmodel.Login{Localhost: true})
	assert.True(t, c.Ping(context.Background()))
}

func TestResultCombinedFoldsStderr(t *testing.T) {
	r := Result{Stdout: "ok", Stderr: "something went quite wrong here"}
	assert.Contains(t, r.Combined(), "stderr:")

	short := Result{Stdout: "ok", Stderr: "x"}
	assert.Equal(t, "ok", short.Combined())
}
