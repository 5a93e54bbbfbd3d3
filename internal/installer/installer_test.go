package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type archiveEntry struct {
	name string
	data string
	mode os.FileMode
}

func makeTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     int64(e.mode),
			Size:     int64(len(e.data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(e.data)); err != nil {
			t.Fatalf("write tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	return buf.Bytes()
}

func makeZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		hdr.SetMode(e.mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

func serveArchive(t *testing.T, path string, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstallExtractsTarGz(t *testing.T) {
	payload := makeTarGz(t, []archiveEntry{
		{name: "bin/idevice_id", data: "fake binary", mode: 0o755},
		{name: "share/doc.txt", data: "docs", mode: 0o644},
	})
	srv := serveArchive(t, "/toolset.tar.gz", payload)

	dest := filepath.Join(t.TempDir(), "tools")
	res, err := Install(context.Background(), Options{URL: srv.URL + "/toolset.tar.gz", Dir: dest})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(res.Files) != 2 || res.Files[0] != "bin/idevice_id" || res.Files[1] != "share/doc.txt" {
		t.Fatalf("unexpected file list: %v", res.Files)
	}
	data, err := os.ReadFile(filepath.Join(dest, "bin", "idevice_id"))
	if err != nil {
		t.Fatalf("read extracted tool: %v", err)
	}
	if string(data) != "fake binary" {
		t.Fatalf("unexpected tool content: %q", data)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dest, "bin", "idevice_id"))
		if err != nil {
			t.Fatalf("stat extracted tool: %v", err)
		}
		if info.Mode()&0o111 == 0 {
			t.Fatalf("expected executable bit to survive extraction, got %v", info.Mode())
		}
	}
}

func TestInstallSniffsZipWithoutExtension(t *testing.T) {
	payload := makeZip(t, []archiveEntry{
		{name: "idevicesyslog.exe", data: "fake exe", mode: 0o644},
	})
	srv := serveArchive(t, "/download", payload)

	dest := filepath.Join(t.TempDir(), "tools")
	res, err := Install(context.Background(), Options{URL: srv.URL + "/download", Dir: dest})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "idevicesyslog.exe" {
		t.Fatalf("unexpected file list: %v", res.Files)
	}
	if _, err := os.Stat(filepath.Join(dest, "idevicesyslog.exe")); err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
}

func TestInstallVerifiesChecksum(t *testing.T) {
	payload := makeTarGz(t, []archiveEntry{{name: "ideviceinfo", data: "x", mode: 0o755}})
	srv := serveArchive(t, "/toolset.tgz", payload)
	sum := sha256.Sum256(payload)

	dest := filepath.Join(t.TempDir(), "tools")
	if _, err := Install(context.Background(), Options{
		URL:    srv.URL + "/toolset.tgz",
		Dir:    dest,
		SHA256: hex.EncodeToString(sum[:]),
	}); err != nil {
		t.Fatalf("Install with matching checksum: %v", err)
	}

	_, err := Install(context.Background(), Options{
		URL:    srv.URL + "/toolset.tgz",
		Dir:    filepath.Join(t.TempDir(), "other"),
		SHA256: strings.Repeat("0", 64),
	})
	if err == nil || !strings.Contains(err.Error(), "sha256 mismatch") {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestInstallRejectsMalformedChecksum(t *testing.T) {
	payload := makeTarGz(t, []archiveEntry{{name: "ideviceinfo", data: "x", mode: 0o755}})
	srv := serveArchive(t, "/toolset.tgz", payload)

	_, err := Install(context.Background(), Options{
		URL:    srv.URL + "/toolset.tgz",
		Dir:    filepath.Join(t.TempDir(), "tools"),
		SHA256: "not-hex",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid sha256") {
		t.Fatalf("expected invalid checksum error, got %v", err)
	}
}

func TestInstallRejectsTraversal(t *testing.T) {
	payload := makeTarGz(t, []archiveEntry{
		{name: "../evil.txt", data: "escape", mode: 0o644},
	})
	srv := serveArchive(t, "/toolset.tar.gz", payload)

	parent := t.TempDir()
	dest := filepath.Join(parent, "tools")
	if _, err := Install(context.Background(), Options{URL: srv.URL + "/toolset.tar.gz", Dir: dest}); err == nil {
		t.Fatalf("expected traversal entry to be rejected")
	}
	if _, err := os.Stat(filepath.Join(parent, "evil.txt")); !os.IsNotExist(err) {
		t.Fatalf("traversal entry escaped the tool dir: %v", err)
	}
}

func TestInstallRefusesNonEmptyDirWithoutForce(t *testing.T) {
	payload := makeTarGz(t, []archiveEntry{{name: "idevice_id", data: "new", mode: 0o755}})
	srv := serveArchive(t, "/toolset.tar.gz", payload)

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "old.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed tool dir: %v", err)
	}

	_, err := Install(context.Background(), Options{URL: srv.URL + "/toolset.tar.gz", Dir: dest})
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected non-empty dir refusal, got %v", err)
	}

	if _, err := Install(context.Background(), Options{URL: srv.URL + "/toolset.tar.gz", Dir: dest, Force: true}); err != nil {
		t.Fatalf("Install with force: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "idevice_id")); err != nil {
		t.Fatalf("forced install did not extract: %v", err)
	}
}

func TestInstallReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := Install(context.Background(), Options{
		URL: srv.URL + "/toolset.tar.gz",
		Dir: filepath.Join(t.TempDir(), "tools"),
	})
	if err == nil || !strings.Contains(err.Error(), "download toolset archive") {
		t.Fatalf("expected download failure, got %v", err)
	}
}
