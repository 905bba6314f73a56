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
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/frang75/nbuild/internal/nbexec"
)

// cmakeVers is a parsed "cmake version X.Y.Z" triple.
type cmakeVers struct {
	major, minor, patch int
}

func (v cmakeVers) gte(major, minor, patch int) bool {
	if v.major != major {
		return v.major > major
	}
	if v.minor != minor {
		return v.minor > minor
	}
	return v.patch >= patch
}

// cmakeVersion runs "cmake --version" on client and parses the leading
// triple. A malformed or empty reply parses as 0.0.0, which the caller
// treats as "pre--install, use the native build tool".
func cmakeVersion(ctx context.Context, client nbexec.Client) cmakeVers {
	res, err := client.Run(ctx, "cmake --version")
	if err != nil || res.ExitCode != 0 {
		return cmakeVers{}
	}
	return parseCmakeVersion(res.Stdout)
}

func parseCmakeVersion(out string) cmakeVers {
	const marker = "cmake version "
	idx := strings.Index(out, marker)
	if idx < 0 {
		return cmakeVers{}
	}
	rest := out[idx+len(marker):]
	end := strings.IndexAny(rest, "\n \r")
	if end >= 0 {
		rest = rest[:end]
	}
	parts := strings.SplitN(rest, ".", 3)
	var v cmakeVers
	if len(parts) > 0 {
		v.major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		v.minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		v.patch, _ = strconv.Atoi(parts[2])
	}
	return v
}

func (v cmakeVers) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}
