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
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/frang75/nbuild/internal/nbexec"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// Tar walks srcRoot and writes a gzip-compressed tar archive of its
// contents to tarPath, with entry names relative to srcRoot.
func Tar(srcRoot, tarPath string) error {
	out, err := os.Create(tarPath)
	if err != nil {
		return fmt.Errorf("staging: creating %s: %w", tarPath, err)
	}
	defer out.Close()

	gz, _ := gzip.NewWriterLevel(out, gzip.DefaultCompression)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	return filepath.Walk(srcRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

// UploadTar tars srcRoot to a temporary local path and SCPs it onto
// drive at driveTarPath (e.g. "<drive>/<flowid>/r<rev>/src.tar.gz").
func UploadTar(ctx context.Context, drive nbmodel.Drive, srcRoot, localTarPath, driveTarPath string) error {
	if err := Tar(srcRoot, localTarPath); err != nil {
		return fmt.Errorf("staging: packaging %s: %w", srcRoot, err)
	}
	if err := nbexec.CreateDir(ctx, nbexec.New(drive.Login), path.Dir(driveTarPath)); err != nil {
		return fmt.Errorf("staging: preparing drive dir for %s: %w", driveTarPath, err)
	}
	if err := nbexec.Upload(ctx, drive.Login, localTarPath, driveTarPath, false); err != nil {
		return fmt.Errorf("staging: uploading %s: %w", localTarPath, err)
	}
	return nil
}
