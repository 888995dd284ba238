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

package fetch_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cppp-project/rubisco-sub001/internal/fetch"
	"github.com/cppp-project/rubisco-sub001/internal/printer"
	"github.com/cppp-project/rubisco-sub001/internal/printer/fake"
	"github.com/cppp-project/rubisco-sub001/internal/project"
	"github.com/cppp-project/rubisco-sub001/internal/tmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tarGzBytes(t *testing.T, topDir string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		full := filepath.Join(topDir, name)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: full, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestArchiveBackendPromotesSingleTopLevelDir(t *testing.T) {
	archive := tarGzBytes(t, "single-root", map[string]string{"a.txt": "hello"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "sub")
	ref := &project.SubpackageRef{Name: "sub", Kind: project.KindArchive, URL: srv.URL, ArchiveType: "tar.gz"}

	b := &fetch.ArchiveBackend{Registry: &tmp.Registry{}}
	outcome, err := b.Fetch(fake.CtxWithNilPrinter(), ref, dest, srv.URL, srv.URL, fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, fetch.Fetched, outcome)

	content, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
	_, err = os.Stat(filepath.Join(dest, "single-root"))
	assert.True(t, os.IsNotExist(err), "single top-level dir should have been promoted away")
}

func TestArchiveBackendZipMultipleTopLevelEntries(t *testing.T) {
	archive := zipBytes(t, map[string]string{"one.txt": "1", "two.txt": "2"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "sub")
	ref := &project.SubpackageRef{Name: "sub", Kind: project.KindArchive, URL: srv.URL, ArchiveType: "zip"}

	b := &fetch.ArchiveBackend{Registry: &tmp.Registry{}}
	outcome, err := b.Fetch(fake.CtxWithNilPrinter(), ref, dest, srv.URL, srv.URL, fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, fetch.Fetched, outcome)

	for _, name := range []string{"one.txt", "two.txt"} {
		_, err := os.Stat(filepath.Join(dest, name))
		assert.NoError(t, err)
	}
}

func TestArchiveBackendStrictFailsOnExistingDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "existing.txt"), []byte("x"), 0o644))

	ref := &project.SubpackageRef{Name: "sub", Kind: project.KindArchive, URL: "http://example.invalid/a.tar.gz", ArchiveType: "tar.gz"}
	b := &fetch.ArchiveBackend{Registry: &tmp.Registry{}}
	outcome, err := b.Fetch(fake.CtxWithNilPrinter(), ref, dest, ref.URL, ref.URL, fetch.Options{Strict: true})
	require.Error(t, err)
	assert.Equal(t, fetch.Failed, outcome)
}

func TestArchiveBackendNonStrictDeclinedOverwriteKeepsAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "existing.txt"), []byte("x"), 0o644))

	ref := &project.SubpackageRef{Name: "sub", Kind: project.KindArchive, URL: "http://example.invalid/a.tar.gz", ArchiveType: "tar.gz"}
	b := &fetch.ArchiveBackend{Registry: &tmp.Registry{}}
	// The default printer answers EventOverwriteRequired "no".
	ctx := printer.WithContext(context.Background(), printer.New(io.Discard, io.Discard))
	outcome, err := b.Fetch(ctx, ref, dest, ref.URL, ref.URL, fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, fetch.AlreadyPresent, outcome)
}

func TestArchiveBackendRejectsUnsupportedType(t *testing.T) {
	ref := &project.SubpackageRef{Name: "sub", Kind: project.KindArchive, URL: "http://example.invalid/a.rar", ArchiveType: "rar"}
	b := &fetch.ArchiveBackend{Registry: &tmp.Registry{}}
	outcome, err := b.Fetch(fake.CtxWithNilPrinter(), ref, t.TempDir()+"/sub", ref.URL, ref.URL, fetch.Options{})
	require.Error(t, err)
	assert.Equal(t, fetch.Failed, outcome)
}
