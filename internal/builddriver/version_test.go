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

package builddriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCMakeVersion(t *testing.T) {
	out := "cmake version 3.27.4\n\nCMake suite maintained and supported by Kitware (kitware.com/cmake).\n"
	v := parseCmakeVersion(out)
	assert.Equal(t, cmakeVers{3, 27, 4}, v)
}

func TestParseCMakeVersionMalformed(t *testing.T) {
	v := parseCmakeVersion("not a cmake output")
	assert.Equal(t, cmakeVers{}, v)
}

func TestCMakeVersGte(t *testing.T) {
	v := cmakeVers{3, 15, 0}
	assert.True(t, v.gte(3, 15, 0))
	assert.True(t, v.gte(3, 14, 9))
	assert.False(t, v.gte(3, 16, 0))
	assert.False(t, v.gte(4, 0, 0))
}

func TestCMakeVersString(t *testing.T) {
	assert.Equal(t, "3.27.4", cmakeVers{3, 27, 4}.String())
}
