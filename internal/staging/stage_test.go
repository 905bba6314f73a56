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

package staging

import (
	"context"
	"os"
	"path"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

// fakeRepo is an in-memory nbrepo.Client backed by a flat file map,
// directories inferred from path prefixes.
type fakeRepo struct {
	files map[string]string // repo-relative path -> content
}

func (f *fakeRepo) Version(ctx context.Context) (uint32, error) { return 7, nil }

func (f *fakeRepo) List(ctx context.Context, p string, revision uint32) ([]string, error) {
	seen := make(map[string]bool)
	var entries []string
	prefix := p
	if prefix != "" {
		prefix += "/"
	}
	for name := range f.files {
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		rest := name[len(prefix):]
		if idx := indexByte(rest, '/'); idx >= 0 {
			dir := rest[:idx+1]
			if !seen[dir] {
				seen[dir] = true
				entries = append(entries, dir)
			}
			continue
		}
		if !seen[rest] {
			seen[rest] = true
			entries = append(entries, rest)
		}
	}
	return entries, nil
}

func (f *fakeRepo) Cat(ctx context.Context, p string, revision uint32) (string, error) {
	return f.files[p], nil
}

func (f *fakeRepo) IsDir(ctx context.Context, p string, revision uint32) (bool, error) {
	if _, ok := f.files[p]; ok {
		return false, nil
	}
	return true, nil
}

func (f *fakeRepo) Checkout(ctx context.Context, login nbmodel.Login, revision uint32, dest string) error {
	return nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func TestStageTargetsFetchesDirectoryRecursively(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{
		"src/a.cpp":       "int a();\n",
		"src/sub/b.cpp":   "int b();\n",
		"src/.clang-format": "BasedOnStyle: LLVM\n",
	}}
	destRoot := t.TempDir()
	target := nbmodel.Target{Name: "src"}

	results, err := StageTargets(context.Background(), repo, nbmodel.GlobalConfig{}, nil, 7, "", []nbmodel.Target{target}, destRoot, NewLimiter(1000, 1000))
	require.NoError(t, err)
	assert.Contains(t, results, "src")

	_, err = os.Stat(path.Join(destRoot, "src", "a.cpp"))
	assert.NoError(t, err)
	_, err = os.Stat(path.Join(destRoot, "src", "sub", "b.cpp"))
	assert.NoError(t, err)
}

func TestStageTargetsSkipsIgnoredPaths(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{
		"src/a.cpp":      "int a();\n",
		"src/vendor/c.cpp": "int c();\n",
	}}
	destRoot := t.TempDir()
	ignore := []*regexp.Regexp{regexp.MustCompile("vendor/")}

	_, err := StageTargets(context.Background(), repo, nbmodel.GlobalConfig{}, ignore, 7, "", []nbmodel.Target{{Name: "src"}}, destRoot, NewLimiter(1000, 1000))
	require.NoError(t, err)

	_, err = os.Stat(path.Join(destRoot, "src", "a.cpp"))
	assert.NoError(t, err)
	_, err = os.Stat(path.Join(destRoot, "src", "vendor", "c.cpp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStageTargetsAppliesLegalHeader(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"src/a.cpp": "int a();\n"}}
	destRoot := t.TempDir()
	target := nbmodel.Target{Name: "src/a.cpp", Legal: true}
	global := nbmodel.GlobalConfig{Project: "nbuild", Author: "A.", CopyrightFrom: 2026}

	results, err := StageTargets(context.Background(), repo, global, nil, 7, "", []nbmodel.Target{target}, destRoot, NewLimiter(1000, 1000))
	require.NoError(t, err)
	assert.True(t, results["src/a.cpp"].Legalized)

	data, err := os.ReadFile(path.Join(destRoot, "src/a.cpp"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "nbuild")
	assert.Contains(t, string(data), "int a();")
}

func TestCompileIgnoreRejectsInvalidRegex(t *testing.T) {
	_, err := CompileIgnore([]string{"["})
	assert.Error(t, err)
}
