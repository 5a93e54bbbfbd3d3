// Package installer downloads device toolset release archives and unpacks
// them into idcap's tool directory.
package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	downloadTimeout = 2 * time.Minute
	// maxArchiveBytes caps how much of a release archive is read into memory.
	maxArchiveBytes = 256 << 20
)

type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatZip
	formatTarGz
)

// Options describes one toolset install request.
type Options struct {
	// URL is the release archive to download (.zip or .tar.gz/.tgz).
	URL string
	// SHA256 is an optional hex digest the downloaded archive must match.
	SHA256 string
	// Dir is the tool directory the archive is extracted into.
	Dir string
	// Force allows extraction into a non-empty tool directory.
	Force bool
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Result reports what an install produced.
type Result struct {
	Dir   string
	Files []string
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: downloadTimeout}
}

// Install downloads the archive named by opts.URL, verifies its checksum when
// one is given, and extracts it into opts.Dir. The system PATH is never
// touched; callers decide whether to point idcap at the directory.
func Install(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("archive url is required")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("tool dir is required")
	}
	dest := filepath.Clean(opts.Dir)
	if !opts.Force {
		busy, err := dirHasEntries(dest)
		if err != nil {
			return nil, errors.Wrap(err, "inspect tool dir")
		}
		if busy {
			return nil, errors.Errorf("tool dir %s is not empty (rerun with --force to overwrite)", dest)
		}
	}
	payload, err := fetchArchive(ctx, opts.client(), opts.URL)
	if err != nil {
		return nil, errors.Wrap(err, "download toolset archive")
	}
	if strings.TrimSpace(opts.SHA256) != "" {
		if err := verifyChecksum(payload, opts.SHA256); err != nil {
			return nil, err
		}
	}
	format, err := detectFormat(opts.URL, payload)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, errors.Wrap(err, "create tool dir")
	}
	var files []string
	switch format {
	case formatZip:
		files, err = extractZip(dest, payload)
	case formatTarGz:
		files, err = extractTarGz(dest, payload)
	}
	if err != nil {
		return nil, errors.Wrap(err, "extract toolset archive")
	}
	sort.Strings(files)
	return &Result{Dir: dest, Files: files}, nil
}

func fetchArchive(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxArchiveBytes {
		return nil, errors.Errorf("archive too large (>%d bytes)", maxArchiveBytes)
	}
	return body, nil
}

func verifyChecksum(payload []byte, want string) error {
	want = strings.ToLower(strings.TrimSpace(want))
	if decoded, err := hex.DecodeString(want); err != nil || len(decoded) != sha256.Size {
		return errors.Errorf("invalid sha256 %q (want %d hex characters)", want, sha256.Size*2)
	}
	sum := sha256.Sum256(payload)
	if got := hex.EncodeToString(sum[:]); got != want {
		return errors.Errorf("sha256 mismatch: archive is %s, expected %s", got, want)
	}
	return nil
}

func detectFormat(url string, payload []byte) (archiveFormat, error) {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGz, nil
	}
	switch {
	case bytes.HasPrefix(payload, []byte("PK\x03\x04")):
		return formatZip, nil
	case bytes.HasPrefix(payload, []byte{0x1f, 0x8b}):
		return formatTarGz, nil
	}
	return formatUnknown, errors.Errorf("unsupported archive format for %s (want .zip or .tar.gz)", url)
}

func extractTarGz(dest string, payload []byte) ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	var files []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimLeft(strings.TrimSpace(hdr.Name), "/")
		if name == "" {
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			target, err := safeJoin(dest, name)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			target, err := safeJoin(dest, name)
			if err != nil {
				return nil, err
			}
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return nil, err
			}
			files = append(files, name)
		}
	}
}

func extractZip(dest string, payload []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range zr.File {
		name := strings.TrimLeft(strings.TrimSpace(entry.Name), "/")
		if name == "" {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, err
		}
		writeErr := writeEntry(target, rc, entry.Mode())
		_ = rc.Close()
		if writeErr != nil {
			return nil, writeErr
		}
		files = append(files, name)
	}
	return files, nil
}

func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", errors.Errorf("absolute archive entry %q", name)
	}
	if strings.Contains(name, "..") {
		return "", errors.Errorf("invalid archive entry %q", name)
	}
	target := filepath.Join(dest, filepath.Clean(name))
	cleanDest := filepath.Clean(dest)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", errors.Errorf("archive entry %q escapes tool dir", name)
	}
	return target, nil
}

// writeEntry writes one archive entry, keeping the executable bit so
// extracted tools remain runnable.
func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if mode&0o111 != 0 {
		perm = 0o755
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(target, perm)
}

func dirHasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
