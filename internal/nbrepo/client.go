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

// Package nbrepo talks to the repository the workflow tracks. It shells
// the coordinator's local svn client, never the target hosts — repository
// queries run on the coordinator, only the checkout itself lands on a
// runner.
package nbrepo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Client queries and checks out one repository.
type Client interface {
	// Version returns the last-changed revision at HEAD.
	Version(ctx context.Context) (uint32, error)

	// List returns the repo-relative entry names at path, at revision.
	List(ctx context.Context, path string, revision uint32) ([]string, error)

	// Cat returns path's content at revision.
	Cat(ctx context.Context, path string, revision uint32) (string, error)

	// IsDir reports whether path is a directory at revision.
	IsDir(ctx context.Context, path string, revision uint32) (bool, error)

	// Checkout exports revision into dest on the given login.
	Checkout(ctx context.Context, login nbmodel.Login, revision uint32, dest string) error
}

type svnClient struct {
	repoURL string
	user    string
	pass    string
	local   nbexec.Client
}

// New returns an svn-backed Client for repoURL, authenticating as
// user/pass.
func New(repoURL, user, pass string) Client {
	return &svnClient{
		repoURL: repoURL,
		user:    user,
		pass:    pass,
		local:   nbexec.New(nbmodel.Login{Localhost: true}),
	}
}

func (c *svnClient) run(ctx context.Context, cmd string) (nbexec.Result, error) {
	res, err := c.local.Run(ctx, cmd)
	if err != nil {
		return res, &nberrors.RepositoryError{URL: c.repoURL, Reason: "exec failed", Cause: err}
	}
	return res, nil
}

func (c *svnClient) Version(ctx context.Context) (uint32, error) {
	cmd := fmt.Sprintf(
		"svn info --show-item last-changed-revision --non-interactive --no-auth-cache --username %s --password %s %s -r HEAD",
		shQuote(c.user), shQuote(c.pass), shQuote(c.repoURL),
	)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return 0, err
	}
	if res.ExitCode != 0 {
		return 0, &nberrors.RepositoryError{URL: c.repoURL, Reason: res.Combined()}
	}
	vers, convErr := strconv.ParseUint(strings.TrimSpace(res.Stdout), 10, 32)
	if convErr != nil {
		return 0, &nberrors.RepositoryError{URL: c.repoURL, Reason: "unparsable revision", Cause: convErr}
	}
	return uint32(vers), nil
}

func (c *svnClient) List(ctx context.Context, path string, revision uint32) ([]string, error) {
	cmd := fmt.Sprintf(
		"svn list --non-interactive --no-auth-cache --username %s --password %s %s -r %d",
		shQuote(c.user), shQuote(c.pass), shQuote(joinRepoPath(c.repoURL, path)), revision,
	)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &nberrors.RepositoryError{URL: c.repoURL, Reason: res.Combined()}
	}
	var entries []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

func (c *svnClient) Cat(ctx context.Context, path string, revision uint32) (string, error) {
	cmd := fmt.Sprintf(
		"svn cat --non-interactive --no-auth-cache --username %s --password %s %s -r %d",
		shQuote(c.user), shQuote(c.pass), shQuote(joinRepoPath(c.repoURL, path)), revision,
	)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &nberrors.RepositoryError{URL: c.repoURL, Reason: res.Combined()}
	}
	return res.Stdout, nil
}

func (c *svnClient) IsDir(ctx context.Context, path string, revision uint32) (bool, error) {
	cmd := fmt.Sprintf(
		"svn info --non-interactive --no-auth-cache --username %s --password %s %s -r %d",
		shQuote(c.user), shQuote(c.pass), shQuote(joinRepoPath(c.repoURL, path)), revision,
	)
	res, err := c.run(ctx, cmd)
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, &nberrors.RepositoryError{URL: c.repoURL, Reason: res.Combined()}
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		left, right, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(left), "node kind") {
			return strings.EqualFold(strings.TrimSpace(right), "directory"), nil
		}
	}
	return false, nil
}

func (c *svnClient) Checkout(ctx context.Context, login nbmodel.Login, revision uint32, dest string) error {
	cmd := fmt.Sprintf(
		"svn checkout --username %s --password %s --non-interactive --no-auth-cache %s %s -r %d",
		shQuote(c.user), shQuote(c.pass), shQuote(c.repoURL), shQuote(dest), revision,
	)
	remote := nbexec.New(login)
	res, err := remote.Run(ctx, cmd)
	if err != nil {
		return &nberrors.RepositoryError{URL: c.repoURL, Reason: "checkout exec failed", Cause: err}
	}
	if res.ExitCode != 0 {
		return &nberrors.RepositoryError{URL: c.repoURL, Reason: res.Combined()}
	}
	return nil
}

func joinRepoPath(repoURL, sub string) string {
	if sub == "" {
		return repoURL
	}
	return strings.TrimRight(repoURL, "/") + "/" + strings.TrimLeft(sub, "/")
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
