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
	"fmt"
	"os"
	"path"
)

// WriteBuildFile writes filename under srcRoot containing repoVers as a
// single line, the revision marker jobs read back from the install tree.
func WriteBuildFile(srcRoot, filename string, repoVers uint32) error {
	if filename == "" {
		filename = "build.txt"
	}
	dest := path.Join(srcRoot, filename)
	if err := os.MkdirAll(path.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("staging: creating %s: %w", path.Dir(dest), err)
	}
	if err := os.WriteFile(dest, []byte(fmt.Sprintf("%d\n", repoVers)), 0o644); err != nil {
		return fmt.Errorf("staging: writing %s: %w", dest, err)
	}
	return nil
}
