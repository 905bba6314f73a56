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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanBootDirect(t *testing.T) {
	assert.True(t, CanBootDirect(MacOSBigSur, MacOSSequoia), "Big Sur+ can boot anything")
	assert.True(t, CanBootDirect(MacOSCatalina, MacOSMojave), "anything can boot Catalina and lower")
	assert.False(t, CanBootDirect(MacOSCatalina, MacOSSequoia), "pre-BigSur can't chain-boot a BigSur+ volume")
}

func TestDiskFromVolumePlainName(t *testing.T) {
	output := `
/dev/disk2 (synthesized):
   #:                       TYPE NAME                    SIZE       IDENTIFIER
   0:      GUID_partition_scheme                        +500.0 GB   disk2
   1:                        EFI EFI                     314.6 MB   disk2s1
   2:                 Apple_APFS Container disk3         499.7 GB   disk2s2

/dev/disk3 (synthesized):
   #:                       TYPE NAME                    SIZE       IDENTIFIER
   0:      APFS Container Scheme -                      +499.7 GB   disk3
   1:                APFS Volume Sequoia                 10.7 GB    disk3s1
`
	disk := diskFromVolume(output, "Sequoia")
	assert.Equal(t, "disk3s1", disk)
}

func TestDiskFromVolumeBidiIsolated(t *testing.T) {
	output := "APFS Volume ⁨Sequoia⁩ 10.7 GB disk3s1"
	disk := diskFromVolume(output, "Sequoia")
	assert.Equal(t, "disk3s1", disk)
}

func TestDiskFromVolumeNotFound(t *testing.T) {
	assert.Equal(t, "", diskFromVolume("nothing relevant here", "Sequoia"))
}

func TestStripBidiIsolates(t *testing.T) {
	assert.Equal(t, "Sequoia", stripBidiIsolates("⁨Sequoia⁩"))
}
