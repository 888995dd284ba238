// Copyright 2024 The rubisco-sub001 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/otiai10/copy"
	"github.com/ulikunitz/xz"
	"github.com/worldline-go/klient"

	"github.com/cppp-project/rubisco-sub001/internal/errors"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/tmp"
	"github.com/cppp-project/rubisco-sub001/internal/types"
)

// archiveExtensions lists the archive-type values this backend
// recognizes.
var archiveExtensions = map[string]bool{
	"tar": true, "tar.gz": true, "tgz": true, "tar.xz": true, "txz": true,
	"zip": true, "7z": true,
}

// ArchiveBackend downloads ref's remote URL to a registered temp file,
// extracts it by ref.ArchiveType into a scratch directory, and promotes
// that scratch directory's single top-level entry (if there is exactly
// one and it's a directory) to destPath.
type ArchiveBackend struct {
	// Registry is the temp-resource registry backing downloads and
	// scratch extraction directories. Nil uses tmp.Default.
	Registry *tmp.Registry
}

var _ Backend = (*ArchiveBackend)(nil)

func (b *ArchiveBackend) registry() *tmp.Registry {
	if b.Registry != nil {
		return b.Registry
	}
	return tmp.Default
}

// Fetch implements Backend. officialURL is unused: an archive has no
// remote-tracking state to rewire the way a git working tree does.
func (b *ArchiveBackend) Fetch(ctx context.Context, ref *project.SubpackageRef, destPath, resolvedURL, officialURL string, opts Options) (Outcome, error) {
	const op = errors.Op("fetch.ArchiveBackend.Fetch")
	pr := printer.FromContextOrDie(ctx)

	if !archiveExtensions[strings.ToLower(ref.ArchiveType)] {
		return Failed, errors.E(op, errors.Validation, fmt.Errorf("unsupported archive-type %q", ref.ArchiveType))
	}

	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		entries, _ := os.ReadDir(destPath)
		if len(entries) > 0 {
			if opts.Strict {
				return Failed, errors.E(op, errors.Exist, types.UniquePath(destPath),
					fmt.Errorf("destination already populated"))
			}
			answer := make(chan bool, 1)
			pr.Event(printer.Event{Kind: printer.EventOverwriteRequired, Name: destPath, Answer: answer})
			if !<-answer {
				return AlreadyPresent, nil
			}
			if err := os.RemoveAll(destPath); err != nil {
				return Failed, errors.E(op, errors.OS, err)
			}
		}
	}

	reg := b.registry()

	downloaded, releaseDownload, err := reg.File("", "rubisco-archive-")
	if err != nil {
		return Failed, errors.E(op, errors.OS, err)
	}
	defer releaseDownload()

	if err := downloadFile(ctx, resolvedURL, downloaded); err != nil {
		return Failed, errors.E(op, errors.Network, errors.Repo(resolvedURL), err)
	}

	scratch, releaseScratch, err := reg.Dir("", "rubisco-extract-")
	if err != nil {
		return Failed, errors.E(op, errors.OS, err)
	}
	defer releaseScratch()

	if err := extractArchive(ctx, ref.ArchiveType, downloaded, scratch); err != nil {
		return Failed, errors.E(op, errors.Archive, errors.Repo(resolvedURL), err)
	}

	root, err := promoteSingleDir(scratch)
	if err != nil {
		return Failed, errors.E(op, errors.Archive, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Failed, errors.E(op, errors.OS, err)
	}
	if err := copy.Copy(root, destPath); err != nil {
		_ = os.RemoveAll(destPath)
		return Failed, errors.E(op, errors.OS, err)
	}

	pr.Printf("Fetched %q into %s\n", ref.Name, destPath)
	return Fetched, nil
}

// downloadClient is the shared HTTP client for archive downloads. Unlike
// the mirror prober's client, retries stay enabled: a flaky download is
// worth retrying, a reachability probe is not.
var downloadClient = sync.OnceValues(func() (*klient.Client, error) {
	return klient.New(
		klient.WithDisableBaseURLCheck(true),
		klient.WithDisableEnvValues(true),
	)
})

// downloadFile streams url's body into dest, failing on any HTTP status
// >= 400.
func downloadFile(ctx context.Context, url, dest string) error {
	client, err := downloadClient()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

// extractArchive dispatches to the extractor matching archiveType.
func extractArchive(ctx context.Context, archiveType, src, destDir string) error {
	switch strings.ToLower(archiveType) {
	case "tar":
		return extractTar(src, destDir, func(r io.Reader) (io.Reader, error) { return r, nil })
	case "tar.gz", "tgz":
		return extractTar(src, destDir, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) })
	case "tar.xz", "txz":
		return extractTar(src, destDir, func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) })
	case "zip":
		return extractZip(src, destDir)
	case "7z":
		return extract7z(ctx, src, destDir)
	default:
		return fmt.Errorf("unsupported archive type %q", archiveType)
	}
}

func extractTar(src, destDir string, wrap func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := wrap(f)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeExtractedFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		}
	}
}

func extractZip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeExtractedFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extract7z shells out to the external 7z binary, since no pack
// dependency implements 7z extraction (a Subprocess-kind dependency, not
// a library gap; see DESIGN.md).
func extract7z(ctx context.Context, src, destDir string) error {
	cmd := exec.CommandContext(ctx, "7z", "x", "-y", "-o"+destDir, src)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if isExecNotFound(err, &execErr) {
			return fmt.Errorf("7z binary not found: %w", err)
		}
		return fmt.Errorf("7z x %s: %s: %w", src, out, err)
	}
	return nil
}

func isExecNotFound(err error, execErr **exec.Error) bool {
	as, ok := err.(*exec.Error)
	if !ok {
		return false
	}
	*execErr = as
	return as.Err == exec.ErrNotFound
}

func writeExtractedFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

// safeJoin joins destDir and name, rejecting an entry that would escape
// destDir via ".." path components (a malicious or corrupt archive).
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	cleanDir := filepath.Clean(destDir) + string(os.PathSeparator)
	if target != filepath.Clean(destDir) && !strings.HasPrefix(target, cleanDir) {
		return "", fmt.Errorf("archive entry %q escapes destination directory", name)
	}
	return target, nil
}

// promoteSingleDir returns scratch's single top-level directory if that's
// the archive's only top-level entry, else scratch itself.
func promoteSingleDir(scratch string) (string, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(scratch, entries[0].Name()), nil
	}
	return scratch, nil
}
