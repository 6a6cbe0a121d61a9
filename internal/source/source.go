// Package source locates the raw incident workbook, downloading and caching
// it when it lives behind a URL.
package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/edudanger-cli/internal/utils"
)

// maxDownload caps the size of a downloaded payload.
const maxDownload = 512 << 20

// Local is a workbook already on disk.
type Local struct {
	Path string
}

func (l Local) String() string { return l.Path }

// Locate checks that the file exists and is a regular file.
func (l Local) Locate(ctx context.Context) (string, error) {
	fi, err := os.Stat(l.Path)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("source %s is a directory", l.Path)
	}
	return l.Path, nil
}

// Remote downloads the workbook once into CacheDir and reuses that copy until
// Refresh is called.
type Remote struct {
	URL      string
	File     string
	CacheDir string
	Username string
	Password string
	Client   *retryablehttp.Client
	Log      zerolog.Logger
}

func (r *Remote) String() string { return r.URL }

// Path is where the cached workbook lives.
func (r *Remote) Path() string {
	return filepath.Join(r.CacheDir, r.File)
}

// Locate returns the cached workbook path, downloading it on first use.
func (r *Remote) Locate(ctx context.Context) (string, error) {
	p := r.Path()
	if fi, err := os.Stat(p); err == nil && fi.Size() > 0 {
		r.Log.Debug().Str("path", p).Msg("using cached workbook")
		return p, nil
	}
	if err := r.Download(ctx); err != nil {
		return "", err
	}
	return p, nil
}

// Download fetches the payload and writes the workbook into the cache,
// replacing any previous copy.
func (r *Remote) Download(ctx context.Context) error {
	if r.URL == "" {
		return errors.New("no source url configured")
	}
	if r.File == "" {
		return errors.New("no source file name configured")
	}
	client := r.Client
	if client == nil {
		client = NewClient(ClientOptions{Log: r.Log})
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if r.Username != "" || r.Password != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", r.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("download %s: unexpected status %s: %s", r.URL, resp.Status, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	if len(body) > maxDownload {
		return fmt.Errorf("download %s: payload exceeds %d bytes", r.URL, maxDownload)
	}
	data, err := extract(body, r.File)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
		return fmt.Errorf("mkdir cache dir: %w", err)
	}
	if err := utils.SafeWriteFile(r.Path(), data); err != nil {
		return err
	}
	r.Log.Info().Str("url", r.URL).Str("path", r.Path()).Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).Msg("workbook downloaded")
	return nil
}

// Refresh drops the cached copy so the next Locate downloads again.
func (r *Remote) Refresh() error {
	if err := os.Remove(r.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cached workbook: %w", err)
	}
	return nil
}

// extract returns the named entry when body is an archive wrapping it
// (Kaggle serves datasets zipped); otherwise body is the workbook itself.
func extract(body []byte, name string) ([]byte, error) {
	if !bytes.HasPrefix(body, []byte("PK\x03\x04")) {
		if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			return nil, fmt.Errorf("downloaded payload is not a workbook or archive")
		}
		return body, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	isWorkbook := false
	for _, f := range zr.File {
		if f.Name == "xl/workbook.xml" {
			isWorkbook = true
		}
		if path.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, maxDownload))
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		return b, nil
	}
	if isWorkbook {
		return body, nil
	}
	return nil, fmt.Errorf("archive does not contain %s", name)
}
