package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"catalog-import-service/internal/clients"
)

// SheetSource fetches a remote spreadsheet's plain CSV export and defers to
// the delimited-file adapter for parsing.
type SheetSource struct {
	ctx        context.Context
	client     *clients.SheetsClient
	sharingURL string
}

// NewSheetSource wraps a sharing URL for CSV-export ingestion.
func NewSheetSource(ctx context.Context, client *clients.SheetsClient, sharingURL string) *SheetSource {
	return &SheetSource{ctx: ctx, client: client, sharingURL: sharingURL}
}

// Open resolves the spreadsheet identifier, fetches the export, and rejects
// markup error pages masquerading as tabular text.
func (s *SheetSource) Open() ([]string, []Row, map[int]ImageRef, error) {
	id, ok := clients.ExtractSpreadsheetID(s.sharingURL)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: no /spreadsheets/d/ identifier in %q", ErrInvalidSourceURL, s.sharingURL)
	}

	body, err := s.client.FetchCSVExport(s.ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err)
	}
	if len(body) == 0 || looksLikeMarkup(body) {
		return nil, nil, nil, fmt.Errorf("%w: export for %s is not tabular text", ErrRemoteFetchFailed, id)
	}

	csvSrc := NewCSVSource(bytes.NewReader(body), CSVOptions{})
	return csvSrc.Open()
}

// looksLikeMarkup detects an HTML error page returned in place of a CSV
// export (the usual symptom of a sheet that is not shared publicly).
func looksLikeMarkup(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// Close is a no-op; the CSV export is held in memory only.
func (s *SheetSource) Close() error { return nil }
