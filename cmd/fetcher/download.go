package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var errNoSpreadsheet = errors.New("no spreadsheet link on page")

// pageLink is one anchor collected from the rendered page
type pageLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// pickSpreadsheet prefers the first .xlsx link and falls back to the first
// .xls one.
func pickSpreadsheet(links []pageLink) (pageLink, error) {
	var legacy *pageLink
	for i, l := range links {
		name := strings.ToLower(fileNameFromURL(l.Href))
		switch {
		case strings.HasSuffix(name, ".xlsx"):
			return l, nil
		case strings.HasSuffix(name, ".xls") && legacy == nil:
			legacy = &links[i]
		}
	}
	if legacy != nil {
		return *legacy, nil
	}
	return pageLink{}, errNoSpreadsheet
}

// fileNameFromURL returns the last path segment of raw, ignoring the query
func fileNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	return path.Base(u.Path)
}

func isLegacyWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xls")
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// downloadFile streams src into dest through a temp file in the same
// directory, so a failed download never leaves a truncated workbook behind.
func downloadFile(ctx context.Context, client *http.Client, src, dest string, logger *slog.Logger) (string, error) {
	logger.Info("Downloading incident log", slog.String("url", src), slog.String("destination", dest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", src, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed for %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status for %s: %s", src, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if written == 0 {
		return "", fmt.Errorf("empty response from %s", src)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move download into place: %w", err)
	}

	logger.Info("File downloaded successfully",
		slog.String("file", filepath.Base(dest)),
		slog.Int64("size_bytes", written),
		slog.Float64("size_mb", float64(written)/1024/1024))
	return dest, nil
}
