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

package lifecycle

import (
	"context"

	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Shutdown powers host back down if, and only if, state indicates nbuild
// itself booted it this loop.
func Shutdown(ctx context.Context, host nbmodel.Host, state RunState) bool {
	if !state.BootedByUs() {
		return false
	}
	client := nbexec.New(host.Login)
	res, err := client.Run(ctx, "sudo shutdown -h now")
	return err == nil && res.ExitCode == 0
}
