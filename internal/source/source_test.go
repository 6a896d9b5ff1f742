package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v66/github"

	"github.com/avezina/shiplift/internal/logging"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		name  string
	}{
		{"https://github.com/acme/shop", "acme", "shop"},
		{"https://github.com/acme/shop.git", "acme", "shop"},
		{"git@github.com:acme/shop.git", "acme", "shop"},
	}
	for _, tt := range tests {
		repo, err := ParseRepo(tt.url)
		if err != nil {
			t.Errorf("ParseRepo(%q): %v", tt.url, err)
			continue
		}
		if repo.Owner != tt.owner || repo.Name != tt.name {
			t.Errorf("ParseRepo(%q) = %s, want %s/%s", tt.url, repo, tt.owner, tt.name)
		}
	}

	if _, err := ParseRepo("not a url"); err == nil {
		t.Error("expected error for junk input")
	}
}

type archiveEntry struct {
	name string
	body string
	mode int64
}

func makeArchive(t *testing.T, commit string, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if commit != "" {
		err := tw.WriteHeader(&tar.Header{
			Typeflag:   tar.TypeXGlobalHeader,
			PAXRecords: map[string]string{"comment": commit},
		})
		if err != nil {
			t.Fatalf("write pax header: %v", err)
		}
	}
	for _, e := range entries {
		mode := e.mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{Name: e.name, Mode: mode, Size: int64(len(e.body))}
		if e.body == "" && e.name[len(e.name)-1] == '/' {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.name, err)
		}
		if hdr.Typeflag != tar.TypeDir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body %s: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func writeArchiveFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.tar.gz")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestExtractArchiveStripsTopDir(t *testing.T) {
	data := makeArchive(t, "0123456789abcdef0123456789abcdef01234567", []archiveEntry{
		{name: "acme-shop-0123456/", body: ""},
		{name: "acme-shop-0123456/index.php", body: "<?php echo 'hi';"},
		{name: "acme-shop-0123456/app/", body: ""},
		{name: "acme-shop-0123456/app/Kernel.php", body: "<?php"},
	})
	dest := t.TempDir()

	revision, err := extractArchive(writeArchiveFile(t, data), dest)
	if err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if revision != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("revision = %q", revision)
	}

	got, err := os.ReadFile(filepath.Join(dest, "index.php"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(got) != "<?php echo 'hi';" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "app", "Kernel.php")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "acme-shop-0123456")); !os.IsNotExist(err) {
		t.Error("top-level directory was not stripped")
	}
}

func TestExtractArchiveRevisionFromDirName(t *testing.T) {
	data := makeArchive(t, "", []archiveEntry{
		{name: "acme-shop-ab12cd3/", body: ""},
		{name: "acme-shop-ab12cd3/composer.json", body: "{}"},
	})
	revision, err := extractArchive(writeArchiveFile(t, data), t.TempDir())
	if err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if revision != "ab12cd3" {
		t.Errorf("revision = %q, want ab12cd3", revision)
	}
}

func TestExtractArchiveRejectsTraversal(t *testing.T) {
	data := makeArchive(t, "", []archiveEntry{
		{name: "top/", body: ""},
		{name: "top/../../evil.sh", body: "#!/bin/sh"},
	})
	if _, err := extractArchive(writeArchiveFile(t, data), t.TempDir()); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestExtractArchivePreservesExecutableBit(t *testing.T) {
	data := makeArchive(t, "", []archiveEntry{
		{name: "top/", body: ""},
		{name: "top/artisan", body: "#!/usr/bin/env php", mode: 0o755},
	})
	dest := t.TempDir()
	if _, err := extractArchive(writeArchiveFile(t, data), dest); err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	info, err := os.Stat(filepath.Join(dest, "artisan"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("executable bit lost, mode = %v", info.Mode())
	}
}

func TestFetchDownloadsAndUnpacks(t *testing.T) {
	archive := makeArchive(t, "feedfacefeedfacefeedfacefeedfacefeedface", []archiveEntry{
		{name: "acme-shop-feedfac/", body: ""},
		{name: "acme-shop-feedfac/public/index.php", body: "<?php"},
	})

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/acme/shop/tarball/main", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/codeload/acme-shop.tar.gz", http.StatusFound)
	})
	mux.HandleFunc("/codeload/acme-shop.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	client := github.NewClient(nil)
	client.BaseURL, _ = url.Parse(srv.URL + "/")

	dest := t.TempDir()
	fetcher := NewFetcher(client, logging.DefaultLogger())
	revision, err := fetcher.Fetch(context.Background(), Repo{Owner: "acme", Name: "shop"}, "main", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if revision != "feedfacefeedfacefeedfacefeedfacefeedface" {
		t.Errorf("revision = %q", revision)
	}
	if _, err := os.Stat(filepath.Join(dest, "public", "index.php")); err != nil {
		t.Errorf("extracted tree incomplete: %v", err)
	}
}
