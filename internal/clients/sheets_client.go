package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout  = 30 * time.Second
	maxRedirects    = 5
	maxDownloadSize = 50 * 1024 * 1024 // hard cap on any single fetch
)

// spreadsheetIDPattern extracts the document identifier from a sharing URL.
var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)

// SheetsClient fetches remote spreadsheet exports. All requests share one
// bounded-timeout HTTP client with a capped redirect chain.
type SheetsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewSheetsClient builds the client. SHEETS_BASE_URL overrides the export
// host for tests and self-hosted mirrors.
func NewSheetsClient(logger *logrus.Logger) *SheetsClient {
	baseURL := os.Getenv("SHEETS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://docs.google.com"
	}

	timeout := defaultTimeout
	if v := os.Getenv("HTTP_FETCH_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			timeout = d
		}
	}

	return &SheetsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger: logger.WithField("component", "sheets_client"),
	}
}

// ExtractSpreadsheetID pulls the document identifier out of a sharing URL.
func ExtractSpreadsheetID(sharingURL string) (string, bool) {
	m := spreadsheetIDPattern.FindStringSubmatch(sharingURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FetchCSVExport downloads the plain-text tabular export of a spreadsheet.
func (c *SheetsClient) FetchCSVExport(ctx context.Context, spreadsheetID string) ([]byte, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv", c.baseURL, spreadsheetID)
	return c.fetch(ctx, url, "text/csv")
}

// FetchArchiveExport downloads the zipped HTML+asset export of a spreadsheet.
func (c *SheetsClient) FetchArchiveExport(ctx context.Context, spreadsheetID string) ([]byte, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=zip", c.baseURL, spreadsheetID)
	return c.fetch(ctx, url, "application/zip")
}

// Download fetches an arbitrary image URL referenced from a source cell.
func (c *SheetsClient) Download(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, "")
}

func (c *SheetsClient) fetch(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "catalog-import-service/1.0")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("Fetch failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, err
	}
	return body, nil
}
