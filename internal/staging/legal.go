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
	"net/http"
	"strings"
	"time"

	"github.com/frang75/nbuild/pkg/nbmodel"
)

var sourceExtensions = map[string]bool{
	"h": true, "hxx": true, "hpp": true,
	"inl": true, "ixx": true, "ipp": true,
	"c": true, "cpp": true, "m": true, "def": true,
}

// isHeaderExt reports whether ext is one of the three extensions that
// get a documentation-site URL appended to their legal header.
func isHeaderExt(ext string) bool {
	return ext == "h" || ext == "hxx" || ext == "hpp"
}

// IsSourceFile reports whether ext (no leading dot) is one of the
// extensions that receive a legal header and a clang-format pass.
func IsSourceFile(ext string) bool {
	return sourceExtensions[ext]
}

// docHeadClient probes a doc-site URL for existence with a bounded HEAD
// request; a non-2xx response or any error means "doesn't exist".
var docHeadClient = &http.Client{Timeout: 5 * time.Second}

func docURLExists(url string) bool {
	resp, err := docHeadClient.Head(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// LegalHeader builds the C block comment to prepend to a source file:
// project/description, copyright year range, author, license lines, the
// file name, and — for header extensions — a documentation URL when it
// resolves.
func LegalHeader(global nbmodel.GlobalConfig, ext, repoRelPath, filename string, now time.Time) string {
	var b strings.Builder
	b.WriteString("/*\n")
	fmt.Fprintf(&b, " * %s %s\n", global.Project, global.Description)

	year := now.Year()
	if year == global.CopyrightFrom {
		fmt.Fprintf(&b, " * %d %s\n", global.CopyrightFrom, global.Author)
	} else {
		fmt.Fprintf(&b, " * %d-%d %s\n", global.CopyrightFrom, year, global.Author)
	}

	if global.License != "" {
		for _, line := range strings.Split(global.License, "\n") {
			fmt.Fprintf(&b, " * %s\n", line)
		}
	}

	b.WriteString(" *\n")
	fmt.Fprintf(&b, " * File: %s\n", filename)

	if global.DocURL != "" && global.FileDocURL != "" && isHeaderExt(ext) {
		stem := strings.TrimSuffix(repoRelPath, "."+ext)
		if idx := strings.LastIndexByte(stem, '/'); idx >= 0 {
			stem = stem[idx+1:]
		}
		url := fmt.Sprintf("%s/%s/%s.html", global.DocURL, global.FileDocURL, stem)
		if docURLExists(url) {
			fmt.Fprintf(&b, " * %s\n", url)
		}
	}

	b.WriteString(" *\n")
	b.WriteString(" */\n\n")
	return b.String()
}
