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
	"archive/tar"
	"os"
	"path"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarWritesRelativeEntries(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(path.Join(srcRoot, "sub"), 0o755))
	require.NoError(t, os.WriteFile(path.Join(srcRoot, "sub", "a.txt"), []byte("hello"), 0o644))

	tarPath := path.Join(t.TempDir(), "out.tar.gz")
	require.NoError(t, Tar(srcRoot, tarPath))

	f, err := os.Open(tarPath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	assert.Contains(t, names, "sub/a.txt")
}

func TestWriteBuildFile(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, WriteBuildFile(srcRoot, "build.txt", 42))

	data, err := os.ReadFile(path.Join(srcRoot, "build.txt"))
	require.NoError(t, err)
	assert.Equal(t, "42\n", string(data))
}

func TestWriteBuildFileDefaultsFilename(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, WriteBuildFile(srcRoot, "", 1))
	_, err := os.Stat(path.Join(srcRoot, "build.txt"))
	assert.NoError(t, err)
}
