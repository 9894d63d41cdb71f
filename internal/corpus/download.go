package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type DownloadOptions struct {
	URL     string
	OutPath string
	// SHA256 is the expected hex digest. Empty disables verification.
	SHA256 string
	// Force downloads even when OutPath already exists.
	Force  bool
	Client *http.Client
	Stdout io.Writer
}

type DownloadResult struct {
	Path    string
	Bytes   int64
	SHA256  string
	Skipped bool
}

// ErrChecksumMismatch is returned when the downloaded file does not hash to
// the expected digest.
var ErrChecksumMismatch = errors.New("checksum mismatch")

var shaHexPattern = regexp.MustCompile(`(?i)^[a-f0-9]{64}$`)

// progressEvery throttles progress lines.
var progressEvery = 700 * time.Millisecond

func Download(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	if opts.URL == "" {
		return DownloadResult{}, fmt.Errorf("url is required")
	}
	if opts.OutPath == "" {
		return DownloadResult{}, fmt.Errorf("out path is required")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 0}
	}

	expected := strings.ToLower(strings.TrimSpace(opts.SHA256))
	if expected != "" && !isSHA256Hex(expected) {
		return DownloadResult{}, fmt.Errorf("invalid sha256 %q", opts.SHA256)
	}

	if dir := filepath.Dir(opts.OutPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return DownloadResult{}, fmt.Errorf("create out dir: %w", err)
		}
	}

	if !opts.Force {
		ok, err := existingMatches(opts.OutPath, expected)
		if err != nil {
			return DownloadResult{}, err
		}
		if ok {
			fi, _ := os.Stat(opts.OutPath)
			fmt.Fprintf(opts.Stdout, "skip %s (already present)\n", opts.OutPath)
			return DownloadResult{Path: opts.OutPath, Bytes: fi.Size(), SHA256: expected, Skipped: true}, nil
		}
	}

	fmt.Fprintf(opts.Stdout, "download %s -> %s\n", opts.URL, opts.OutPath)
	actual, n, err := downloadWithProgress(ctx, opts.Client, opts.URL, opts.OutPath, opts.Stdout)
	if err != nil {
		return DownloadResult{}, err
	}
	if expected != "" {
		if actual != expected {
			_ = os.Remove(opts.OutPath)
			return DownloadResult{}, fmt.Errorf("%w for %s: expected %s got %s", ErrChecksumMismatch, opts.OutPath, expected, actual)
		}
		fmt.Fprintf(opts.Stdout, "verified %s (sha256=%s)\n", opts.OutPath, actual)
	}

	return DownloadResult{Path: opts.OutPath, Bytes: n, SHA256: actual}, nil
}

// existingMatches reports whether path already holds the wanted file. With no
// expected digest any non-empty regular file matches.
func existingMatches(path, expected string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat existing file: %w", err)
	}
	if fi.IsDir() {
		return false, fmt.Errorf("expected file at %s, found directory", path)
	}
	if expected == "" {
		return fi.Size() > 0, nil
	}
	actual, err := fileSHA256(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}

func downloadWithProgress(ctx context.Context, client *http.Client, url, outPath string, stdout io.Writer) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("download failed for %s: %s", url, resp.Status)
	}

	tmp := outPath + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	mw := io.MultiWriter(fh, h)

	var written int64
	buf := make([]byte, 64*1024)
	total := resp.ContentLength
	lastPrint := time.Now()
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			wn, writeErr := mw.Write(buf[:n])
			if writeErr != nil {
				_ = fh.Close()
				_ = os.Remove(tmp)
				return "", 0, fmt.Errorf("write temp file: %w", writeErr)
			}
			written += int64(wn)
			if time.Since(lastPrint) > progressEvery {
				if total > 0 {
					pct := float64(written) * 100 / float64(total)
					fmt.Fprintf(stdout, "  progress: %.1f%% (%d/%d bytes)\n", pct, written, total)
				} else {
					fmt.Fprintf(stdout, "  progress: %d bytes\n", written)
				}
				lastPrint = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = fh.Close()
			_ = os.Remove(tmp)
			return "", 0, fmt.Errorf("download read failed: %w", readErr)
		}
	}

	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("move temp file into place: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), written, nil
}

func isSHA256Hex(v string) bool {
	return shaHexPattern.MatchString(v)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
