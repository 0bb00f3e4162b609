package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0", "1AbC-dEf_123", true},
		{"https://docs.google.com/spreadsheets/d/xyz789/export?format=csv", "xyz789", true},
		{"https://docs.google.com/document/d/1AbC/edit", "", false},
		{"not a url at all", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := ExtractSpreadsheetID(tt.url)
		assert.Equal(t, tt.wantOK, ok, "url=%q", tt.url)
		assert.Equal(t, tt.wantID, id, "url=%q", tt.url)
	}
}

func TestFetchExportsBuildCorrectURLs(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.String())
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	t.Setenv("SHEETS_BASE_URL", server.URL)
	client := NewSheetsClient(discardLogger())

	_, err := client.FetchCSVExport(context.Background(), "abc123")
	require.NoError(t, err)
	_, err = client.FetchArchiveExport(context.Background(), "abc123")
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "/spreadsheets/d/abc123/export?format=csv", paths[0])
	assert.Equal(t, "/spreadsheets/d/abc123/export?format=zip", paths[1])
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	t.Setenv("SHEETS_BASE_URL", server.URL)
	client := NewSheetsClient(discardLogger())

	_, err := client.Download(context.Background(), server.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchStopsRedirectLoops(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path, http.StatusFound)
	}))
	defer server.Close()

	t.Setenv("SHEETS_BASE_URL", server.URL)
	client := NewSheetsClient(discardLogger())

	_, err := client.Download(context.Background(), server.URL+"/loop")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "redirect"))
}
