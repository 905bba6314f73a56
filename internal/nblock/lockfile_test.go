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

package nblock

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	require.NoError(t, l.Acquire())

	pid, err := l.Owner()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, l.Release())
	_, err = os.Stat(l.path)
	assert.True(t, os.IsNotExist(err))
}

func TestLockSecondAcquireFails(t *testing.T) {
	dir := t.TempDir()
	first := New(dir)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := New(dir)
	err := second.Acquire()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLockReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
	require.NoError(t, l.Release())
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(1<<30))
}
