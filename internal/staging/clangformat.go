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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/frang75/nbuild/internal/nbrepo"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// FindClangFormatFile looks for a target literally named ".clang-format"
// among srcTargets and, if present, fetches it and writes it to cwd —
// clang-format only looks for its style file in the current working
// directory, not alongside the file being formatted.
func FindClangFormatFile(ctx context.Context, repo nbrepo.Client, srcTargets []nbmodel.Target, repoVers uint32, cwd string) (string, error) {
	for _, target := range srcTargets {
		if filepath.Base(target.Name) != ".clang-format" {
			continue
		}
		content, err := repo.Cat(ctx, target.Name, repoVers)
		if err != nil {
			return "", fmt.Errorf("staging: fetching %s: %w", target.Name, err)
		}
		dest := path.Join(cwd, ".clang-format")
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("staging: writing %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", nil
}

// RunClangFormat pipes data through "clang-format -style=file" in dir
// (so it picks up dir's .clang-format), pretending the input came from
// assumeFilename so language detection works on streamed content.
func RunClangFormat(ctx context.Context, dir, assumeFilename string, data []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "clang-format", "-style=file", "-assume-filename="+assumeFilename)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("staging: clang-format %s: %w: %s", assumeFilename, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
