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

// Package report persists the crash-safe nbmodel.Report document and
// implements the loop/event/job-selection operations the workflow loop
// drives it with.
//
// # Interface hierarchy
//
// Following the segregation the controller backend uses: EventStore is
// the minimal capability (Load/Save) every store must offer; Persister
// is an optional capability a future write-behind backend could add.
// The only backend this package ships is JSON-on-Drive, but callers
// accept EventStore so a second backend never requires touching them.
package report

import (
	"context"
	"encoding/json"
	"path"

	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// EventStore is the minimal required capability: load and save the
// Report document for one flow+revision.
type EventStore interface {
	Load(ctx context.Context, path string) (*nbmodel.Report, bool, error)
	Save(ctx context.Context, path string, r *nbmodel.Report) error
}

// Persister is an optional capability for stores that buffer writes and
// need an explicit flush; the JSON-on-drive store below does not need
// one since every Save is a synchronous round trip.
type Persister interface {
	Flush(ctx context.Context) error
}

// driveStore is the only EventStore this package ships: the Report
// round-trips through encoding/json to a single file on the Drive host.
type driveStore struct {
	client nbexec.Client
}

// NewDriveStore returns an EventStore that persists through client,
// which must be dialed against the Drive's Login.
func NewDriveStore(client nbexec.Client) EventStore {
	return &driveStore{client: client}
}

// Load reads the Report at reportPath. The second return is false (with
// a nil error) when the file does not yet exist, signalling the caller
// to create a fresh Report instead.
func (s *driveStore) Load(ctx context.Context, reportPath string) (*nbmodel.Report, bool, error) {
	dir, file := path.Split(reportPath)
	exists, err := nbexec.FileExists(ctx, s.client, dir, file)
	if err != nil {
		return nil, false, nberrors.Wrap(err, "checking report existence")
	}
	if !exists {
		return nil, false, nil
	}

	raw, err := nbexec.FileCat(ctx, s.client, dir, file)
	if err != nil {
		return nil, false, nberrors.Wrap(err, "reading report")
	}

	var r nbmodel.Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, false, nberrors.Wrap(err, "parsing report JSON")
	}
	return &r, true, nil
}

// Save writes r to reportPath as JSON, overwriting any prior content.
func (s *driveStore) Save(ctx context.Context, reportPath string, r *nbmodel.Report) error {
	dir, file := path.Split(reportPath)
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nberrors.Wrap(err, "encoding report JSON")
	}
	if err := nbexec.CreateDir(ctx, s.client, dir); err != nil {
		return nberrors.Wrap(err, "creating report directory")
	}
	if err := nbexec.WriteFile(ctx, s.client, dir, file, string(body)); err != nil {
		return nberrors.Wrap(err, "writing report")
	}
	return nil
}
