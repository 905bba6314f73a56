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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

func TestFindClangFormatFileWritesToCwd(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"src/.clang-format": "BasedOnStyle: LLVM\n"}}
	cwd := t.TempDir()
	targets := []nbmodel.Target{{Name: "src/.clang-format"}, {Name: "src/a.cpp"}}

	dest, err := FindClangFormatFile(context.Background(), repo, targets, 7, cwd)
	require.NoError(t, err)
	assert.Equal(t, path.Join(cwd, ".clang-format"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LLVM")
}

func TestFindClangFormatFileReturnsEmptyWhenAbsent(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"src/a.cpp": "int a();\n"}}
	dest, err := FindClangFormatFile(context.Background(), repo, []nbmodel.Target{{Name: "src/a.cpp"}}, 7, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, dest)
}
