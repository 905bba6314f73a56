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

// Package staging fetches a workflow's source and test targets from the
// repository, applying a legal header and clang-format where configured,
// and packages the result for upload to the drive.
package staging

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/frang75/nbuild/internal/nbrepo"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// maxConcurrentFetches bounds how many repo_cat calls one target may have
// in flight, independent of the rate limiter's pace. StageTargets stages
// all its targets concurrently, each with its own bound.
const maxConcurrentFetches = 8

// Result is the per-target outcome the report surfaces: whether a legal
// header or the formatter touched at least one of its files.
type Result struct {
	Legalized bool
	Formatted bool
}

// NewLimiter builds a token-bucket limiter pacing repository fetches,
// shared across every target a staging run processes.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// StageTargets fetches every target's files into destRoot. ignore holds
// compiled ignore_regex patterns matched against repository-relative
// paths; a match skips the file entirely.
func StageTargets(ctx context.Context, repo nbrepo.Client, global nbmodel.GlobalConfig, ignore []*regexp.Regexp, repoVers uint32, clangFormatDir string, targets []nbmodel.Target, destRoot string, limiter *rate.Limiter) (map[string]Result, error) {
	results := make(map[string]Result, len(targets))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			r, err := stageOneTarget(gctx, repo, global, ignore, repoVers, clangFormatDir, target, destRoot, limiter)
			if err != nil {
				return fmt.Errorf("staging %s: %w", target.Name, err)
			}
			resultsMu.Lock()
			results[target.Name] = r
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func ignoreMatch(patterns []*regexp.Regexp, relPath string) bool {
	for _, re := range patterns {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// stageOneTarget resolves target (file or directory) and fetches every
// non-ignored file beneath it, fanning fetches out over a bounded
// errgroup paced by limiter.
func stageOneTarget(ctx context.Context, repo nbrepo.Client, global nbmodel.GlobalConfig, ignore []*regexp.Regexp, repoVers uint32, clangFormatDir string, target nbmodel.Target, destRoot string, limiter *rate.Limiter) (Result, error) {
	var result Result
	var resultMu sync.Mutex

	dest := target.Dest
	if dest == "" {
		dest = target.Name
	}

	isDir, err := repo.IsDir(ctx, target.Name, repoVers)
	if err != nil {
		return result, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	fetch := func(repoRelPath, destPath string) {
		g.Go(func() error {
			if ignoreMatch(ignore, repoRelPath) {
				return nil
			}
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			legalized, formatted, err := stageFile(gctx, repo, global, repoVers, clangFormatDir, repoRelPath, destPath, target)
			if err != nil {
				return err
			}
			resultMu.Lock()
			result.Legalized = result.Legalized || legalized
			result.Formatted = result.Formatted || formatted
			resultMu.Unlock()
			return nil
		})
	}

	var walk func(src, destSub string) error
	walk = func(src, destSub string) error {
		entries, err := repo.List(gctx, src, repoVers)
		if err != nil {
			return fmt.Errorf("listing %s: %w", src, err)
		}
		for _, entry := range entries {
			name := strings.TrimSuffix(entry, "/")
			entrySrc := path.Join(src, name)
			entryDest := path.Join(destSub, name)
			if strings.HasSuffix(entry, "/") {
				if err := walk(entrySrc, entryDest); err != nil {
					return err
				}
				continue
			}
			fetch(entrySrc, path.Join(destRoot, entryDest))
		}
		return nil
	}

	if isDir {
		if err := walk(target.Name, dest); err != nil {
			return result, err
		}
	} else {
		fetch(target.Name, path.Join(destRoot, dest))
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// stageFile fetches one repository file, optionally prepends a legal
// header, optionally runs it through clang-format, and writes the
// result to destPath.
func stageFile(ctx context.Context, repo nbrepo.Client, global nbmodel.GlobalConfig, repoVers uint32, clangFormatDir, repoRelPath, destPath string, target nbmodel.Target) (legalized, formatted bool, err error) {
	content, err := repo.Cat(ctx, repoRelPath, repoVers)
	if err != nil {
		return false, false, fmt.Errorf("fetching %s: %w", repoRelPath, err)
	}
	data := []byte(content)

	ext := strings.TrimPrefix(path.Ext(destPath), ".")
	filename := path.Base(destPath)

	if target.Legal && IsSourceFile(ext) {
		header := LegalHeader(global, ext, repoRelPath, filename, time.Now())
		data = append([]byte(header), data...)
		legalized = true
	}

	if target.Format && clangFormatDir != "" && IsSourceFile(ext) {
		out, ferr := RunClangFormat(ctx, clangFormatDir, filename, data)
		if ferr == nil {
			data = out
			formatted = true
		}
	}

	if err := os.MkdirAll(path.Dir(destPath), 0o755); err != nil {
		return legalized, formatted, fmt.Errorf("creating %s: %w", path.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return legalized, formatted, fmt.Errorf("writing %s: %w", destPath, err)
	}
	return legalized, formatted, nil
}

// CompileIgnore compiles every pattern in patterns, stopping at the
// first invalid regular expression.
func CompileIgnore(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("staging: invalid ignore pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
