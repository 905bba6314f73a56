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
	"fmt"
	"path"

	"github.com/frang75/nbuild/internal/nberrors"
	"github.com/frang75/nbuild/pkg/nbmodel"
)

// DirExists reports whether dir exists on the target (ssh_dir_exists).
func DirExists(ctx context.Context, c Client, dir string) (bool, error) {
	res, err := c.Run(ctx, fmt.Sprintf("test -d %s", shellQuote(dir)))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// FileExists reports whether path/filename exists on the target
// (ssh_file_exists).
func FileExists(ctx context.Context, c Client, dir, filename string) (bool, error) {
	full := path.Join(dir, filename)
	res, err := c.Run(ctx, fmt.Sprintf("test -f %s", shellQuote(full)))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// CreateDir makes dir (and parents) on the target (ssh_create_dir).
func CreateDir(ctx context.Context, c Client, dir string) error {
	res, err := c.Run(ctx, fmt.Sprintf("mkdir -p %s", shellQuote(dir)))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("mkdir -p %s: %s", dir, res.Combined()))
	}
	return nil
}

// DeleteFile removes a single file on the target (ssh_delete_file).
func DeleteFile(ctx context.Context, c Client, path string) error {
	res, err := c.Run(ctx, fmt.Sprintf("rm -f %s", shellQuote(path)))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("rm -f %s: %s", path, res.Combined()))
	}
	return nil
}

// DeleteDir removes a directory tree on the target (ssh_delete_dir).
func DeleteDir(ctx context.Context, c Client, dir string) error {
	res, err := c.Run(ctx, fmt.Sprintf("rm -rf %s", shellQuote(dir)))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("rm -rf %s: %s", dir, res.Combined()))
	}
	return nil
}

// FileCat reads a remote file's contents (ssh_file_cat).
func FileCat(ctx context.Context, c Client, dir, filename string) (string, error) {
	full := path.Join(dir, filename)
	res, err := c.Run(ctx, fmt.Sprintf("cat %s", shellQuote(full)))
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nberrors.New(fmt.Sprintf("cat %s: %s", full, res.Combined()))
	}
	return res.Stdout, nil
}

// WriteFile writes content to dir/filename on the target via printf, so
// the file holds exactly content with no trailing newline added,
// matching ssh_to_file/ssh_create_file.
func WriteFile(ctx context.Context, c Client, dir, filename, content string) error {
	full := path.Join(dir, filename)
	cmd := fmt.Sprintf("printf '%%s' %s > %s", shellQuote(content), shellQuote(full))
	res, err := c.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("write %s: %s", full, res.Combined()))
	}
	return nil
}

// Copy copies fromPath/fromFilename on fromLogin to toPath/toFilename on
// toLogin (ssh_copy). When both ends are localhost it is a plain local
// copy; otherwise it shells out to scp, the same dispatch the original
// coordinator used for ssh_scp/ssh_upload.
func Copy(ctx context.Context, fromLogin, toLogin nbmodel.Login, fromPath, fromFilename, toPath, toFilename string) error {
	src := path.Join(fromPath, fromFilename)
	dst := path.Join(toPath, toFilename)

	if fromLogin.Localhost && toLogin.Localhost {
		local := New(nbmodel.Login{Localhost: true})
		res, err := local.Run(ctx, fmt.Sprintf("cp -a %s %s", shellQuote(src), shellQuote(dst)))
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return nberrors.New(fmt.Sprintf("cp %s -> %s: %s", src, dst, res.Combined()))
		}
		return nil
	}

	return scp(ctx, fromLogin, toLogin, src, dst, false)
}

// Upload pushes a local path onto a remote login (ssh_upload).
func Upload(ctx context.Context, toLogin nbmodel.Login, localPath, remotePath string, recursive bool) error {
	return scp(ctx, nbmodel.Login{Localhost: true}, toLogin, localPath, remotePath, recursive)
}

func scp(ctx context.Context, fromLogin, toLogin nbmodel.Login, src, dst string, recursive bool) error {
	target := nbmodel.Login{Localhost: true}
	endpoint := func(l nbmodel.Login, p string) string {
		if l.Localhost {
			return p
		}
		return fmt.Sprintf("%s@%s:%s", l.User, l.IP, p)
	}

	flags := "-p"
	if recursive {
		flags = "-rp"
	}

	var cmd string
	switch {
	case !fromLogin.Localhost && toLogin.UseSSHPass:
		cmd = fmt.Sprintf("sshpass -p %s scp %s %s %s", shellQuote(fromLogin.Pass), flags, endpoint(fromLogin, src), endpoint(toLogin, dst))
	case !toLogin.Localhost && toLogin.UseSSHPass:
		cmd = fmt.Sprintf("sshpass -p %s scp %s %s %s", shellQuote(toLogin.Pass), flags, endpoint(fromLogin, src), endpoint(toLogin, dst))
	default:
		cmd = fmt.Sprintf("scp %s %s %s", flags, endpoint(fromLogin, src), endpoint(toLogin, dst))
	}

	c := New(target)
	res, err := c.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("scp %s -> %s: %s", src, dst, res.Combined()))
	}
	return nil
}

// Untar extracts tarpath into destPath on the target (ssh_cmake_untar).
func Untar(ctx context.Context, c Client, destPath, tarpath string) error {
	if err := CreateDir(ctx, c, destPath); err != nil {
		return err
	}
	res, err := c.Run(ctx, fmt.Sprintf("tar -xzf %s -C %s", shellQuote(tarpath), shellQuote(destPath)))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return nberrors.New(fmt.Sprintf("untar %s -> %s: %s", tarpath, destPath, res.Combined()))
	}
	return nil
}
