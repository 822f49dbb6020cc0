package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/scrape"
)

// ImageDownloader optionally mirrors listing images to local disk. Downloads
// are best effort; a failed image is logged and skipped.
type ImageDownloader struct {
	dir      string
	maxBytes int64
	client   *http.Client
	log      *zap.Logger
}

// NewImageDownloader builds a downloader that writes under dir.
func NewImageDownloader(dir string, maxBytes int64, log *zap.Logger) *ImageDownloader {
	return &ImageDownloader{
		dir:      dir,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// Download saves every image of rec under dir/<ad id>/ and returns the local
// paths of the images that were stored.
func (d *ImageDownloader) Download(ctx context.Context, rec scrape.ListingRecord) []string {
	if len(rec.Images) == 0 {
		return nil
	}

	id := rec.ID
	if id == "" {
		id = "unknown"
	}
	dir := filepath.Join(d.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.log.Warn("image dir creation failed", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var saved []string
	for i, src := range rec.Images {
		path := filepath.Join(dir, fmt.Sprintf("%03d.jpg", i+1))
		if err := d.fetchOne(ctx, src, path); err != nil {
			d.log.Warn("image download failed", zap.String("src", src), zap.Error(err))
			continue
		}
		saved = append(saved, path)
	}
	return saved
}

func (d *ImageDownloader) fetchOne(ctx context.Context, src, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("not an image: %s", ct)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, d.maxBytes)); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
