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

// Package nbexec runs shell commands on a Host, local or remote, behind
// one seam so every other component (lifecycle, staging, builddriver)
// issues the same Run/Ping calls and file helpers (Copy, FileExists,
// WriteFile, ...) whether the target is "this machine" or an
// SSH-reachable runner.
package nbexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Result is the captured outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Combined returns stdout with a trailing "stderr:" section appended when
// stderr carried more than a few bytes, matching the original coordinator's
// i_ssh_command behaviour of folding a non-trivial stderr into the log.
func (r Result) Combined() string {
	if len(r.Stderr) > 10 {
		return r.Stdout + "\nstderr:\n" + r.Stderr
	}
	return r.Stdout
}

// Client issues commands and simple file operations against one Login.
type Client interface {
	// Run executes cmd on the target and returns its captured output.
	// A non-zero exit code is not itself an error: callers inspect
	// Result.ExitCode (build/test steps rely on this to distinguish
	// "ran and failed" from "could not run").
	Run(ctx context.Context, cmd string) (Result, error)

	// Ping reports whether the target answers, used by lifecycle's
	// boot-wait loop.
	Ping(ctx context.Context) bool
}

// client is the default Client, composing local exec.Command dispatch
// with SSH command composition for remote logins.
type client struct {
	login nbmodel.Login
}

// New returns a Client for the given login.
func New(login nbmodel.Login) Client {
	return &client{login: login}
}

// Run implements Client.
func (c *client) Run(ctx context.Context, cmd string) (Result, error) {
	start := time.Now()
	composed, shellArgs := composeCommand(c.login, cmd)

	command := exec.CommandContext(ctx, shellArgs[0], append(append([]string{}, shellArgs[1:]...), composed)...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	res := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if err == nil {
		res.ExitCode = 0
		return res, nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, nberrors.Wrapf(err, "exec %q", cmd)
}

// Ping implements Client. Localhost logins are always reachable; remote
// logins get a single ICMP echo ("ping -c 1") sent from the coordinator,
// bounded to 10 seconds (the long boot-wait polling loop lives in the
// lifecycle package, not here).
func (c *client) Ping(ctx context.Context) bool {
	if c.login.Localhost {
		return true
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	local := New(nbmodel.Login{Localhost: true})
	res, err := local.Run(pingCtx, fmt.Sprintf("ping -c 1 %s", shellQuote(c.login.IP)))
	return err == nil && res.ExitCode == 0
}

func asExitError(err error, out **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*out = ee
	}
	return ok
}

// composeCommand builds the shell invocation for a command: a localhost
// login runs the command verbatim through the host shell; a remote login
// wraps it in an ssh invocation, quoted per target platform, optionally
// fronted by sshpass when certificate auth is not configured.
func composeCommand(login nbmodel.Login, cmd string) (string, []string) {
	if login.Localhost {
		return cmd, []string{"/bin/sh", "-c"}
	}

	var ssh string
	if login.IsWindows() {
		ssh = fmt.Sprintf("ssh %s@%s %q", login.User, login.IP, cmd)
	} else if login.UseSSHPass {
		ssh = fmt.Sprintf("sshpass -p %s ssh %s@%s %s", shellQuote(login.Pass), login.User, login.IP, shellQuote(cmd))
	} else {
		ssh = fmt.Sprintf("ssh %s@%s %s", login.User, login.IP, shellQuote(cmd))
	}
	return ssh, []string{"/bin/sh", "-c"}
}

// shellQuote wraps s in single quotes, escaping any embedded single
// quote the POSIX way: close, escaped quote, reopen.
func shellQuote(s string) string {
	escaped := ""
	for _, r := range s {
		if r == '\'' {
			escaped += `'\''`
		} else {
			escaped += string(r)
		}
	}
	return "'" + escaped + "'"
}
