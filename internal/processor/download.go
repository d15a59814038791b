package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// DownloadChunkSize bounds the memory used while streaming an asset to disk
const DownloadChunkSize = 32 * 1024

// tempPattern names downloaded assets inside the temp directory
const tempPattern = "kicad-repo-sync-*.download"

// Download streams url into a new temporary file under dir. The caller must
// invoke cleanup once done with the file; on error nothing is left on disk.
func Download(ctx context.Context, client *http.Client, dir, url string) (string, func(), error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpPath := f.Name()
	remove := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.Warnf("Failed to remove temp file %s: %v", tmpPath, rmErr)
		}
	}

	n, err := fetchTo(ctx, client, url, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err != nil {
		remove()
		return "", nil, err
	}

	logrus.Debugf("Downloaded %s (%s) to %s", url, humanize.Bytes(uint64(n)), tmpPath)
	return tmpPath, remove, nil
}

func fetchTo(ctx context.Context, client *http.Client, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("failed to download %s: unexpected status %s", url, resp.Status)
	}

	// Hide ReaderFrom/WriterTo so the copy honors the chunk size
	buf := make([]byte, DownloadChunkSize)
	n, err := io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{resp.Body}, buf)
	if err != nil {
		return n, fmt.Errorf("failed to download %s: %w", url, err)
	}

	return n, nil
}
