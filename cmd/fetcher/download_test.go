package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/internal/shared/testutil"
)

func TestPickSpreadsheet(t *testing.T) {
	tests := []struct {
		name    string
		links   []pageLink
		want    string
		wantErr bool
	}{
		{
			name: "xlsx preferred over earlier xls",
			links: []pageLink{
				{Href: "https://example.org/files/GSAF5.xls"},
				{Href: "https://example.org/files/GSAF5.xlsx?v=3"},
			},
			want: "https://example.org/files/GSAF5.xlsx?v=3",
		},
		{
			name:  "legacy only",
			links: []pageLink{{Href: "https://example.org/GSAF5.XLS"}},
			want:  "https://example.org/GSAF5.XLS",
		},
		{
			name:    "nothing",
			links:   []pageLink{{Href: "https://example.org/about.html"}},
			wantErr: true,
		},
		{
			name:    "empty page",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickSpreadsheet(tt.links)
			if tt.wantErr {
				assert.ErrorIs(t, err, errNoSpreadsheet)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Href)
		})
	}
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "GSAF5.xlsx", fileNameFromURL("https://example.org/files/GSAF5.xlsx?download=1"))
	assert.Equal(t, "GSAF5.xls", fileNameFromURL("/GSAF5.xls"))
	assert.True(t, isLegacyWorkbook("GSAF5.XLS"))
	assert.False(t, isLegacyWorkbook("GSAF5.xlsx"))
}

func TestDownloadFile(t *testing.T) {
	workbook, err := os.ReadFile(testutil.WriteIncidentWorkbook(t))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/GSAF5.xlsx":
			_, _ = w.Write(workbook)
		case "/empty.xlsx":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	logger, _ := testutil.NewTestLogger(t)
	client := newHTTPClient(5 * time.Second)
	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		dest := filepath.Join(dir, "GSAF5.xlsx")
		got, err := downloadFile(context.Background(), client, srv.URL+"/GSAF5.xlsx", dest, logger)
		require.NoError(t, err)
		assert.Equal(t, dest, got)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, workbook, data)
	})

	for _, name := range []string{"missing.xlsx", "empty.xlsx"} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(dir, name)
			_, err := downloadFile(context.Background(), client, srv.URL+"/"+name, dest, logger)
			assert.Error(t, err)
			assert.NoFileExists(t, dest)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are removed")
}
