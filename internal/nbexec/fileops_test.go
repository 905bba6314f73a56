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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

func TestCreateDirAndDirExists(t *testing.T) {
	ctx := context.Background()
	c := New(nbmodel.Login{Localhost: true})
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	ok, err := DirExists(ctx, c, dir)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, CreateDir(ctx, c, dir))

	ok, err = DirExists(ctx, c, dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteFileAndFileCat(t *testing.T) {
	ctx := context.Background()
	c := New(nbmodel.Login{Localhost: true})
	dir := t.TempDir()

	require.NoError(t, WriteFile(ctx, c, dir, "report.json", `{"ok":true}`))

	exists, err := FileExists(ctx, c, dir, "report.json")
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := FileCat(ctx, c, dir, "report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, content)
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()
	c := New(nbmodel.Login{Localhost: true})
	dir := t.TempDir()
	require.NoError(t, WriteFile(ctx, c, dir, "x.txt", "hi"))

	require.NoError(t, DeleteFile(ctx, c, filepath.Join(dir, "x.txt")))

	exists, err := FileExists(ctx, c, dir, "x.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCopyLocalToLocal(t *testing.T) {
	ctx := context.Background()
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("payload"), 0o644))

	local := nbmodel.Login{Localhost: true}
	require.NoError(t, Copy(ctx, local, local, srcDir, "a.txt", dstDir, "b.txt"))

	data, err := os.ReadFile(filepath.Join(dstDir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
