// Package source normalizes the supported import inputs — uploaded delimited
// files, XLSX workbooks, a remote spreadsheet's CSV export, or its zipped
// HTML+image export — into one shape: a heading row, an ordered list of data
// rows, and a sparse map from row index to an embedded image reference.
package source

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnreadable means the input could not be opened or is not
	// well-formed for its declared kind. Fatal, raised before any row runs.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrInvalidSourceURL means no spreadsheet identifier could be extracted
	// from a sharing URL.
	ErrInvalidSourceURL = errors.New("invalid source url")
	// ErrRemoteFetchFailed means the remote export was missing or came back
	// as a markup error page instead of tabular data.
	ErrRemoteFetchFailed = errors.New("remote fetch failed")
)

// Row is one data row. Index is the zero-based position among data rows and
// correlates rows with embedded images from archive exports.
type Row struct {
	Index int
	Cells []string
}

// ImageRef points at the image embedded for one row. Exactly one of Path
// (a file inside the adapter's scratch directory) or URL is set.
type ImageRef struct {
	Path string
	URL  string
	Name string
}

// Source is an opened import input. Close releases any scratch storage the
// adapter owns; it must be called on every exit path of a run.
type Source interface {
	// Open returns headings, data rows and the embedded-image map.
	Open() (headings []string, rows []Row, images map[int]ImageRef, err error)
	Close() error
}

// normalizeHeadings lower-cases and trims the heading row and rejects
// duplicates, which would make column classification ambiguous.
func normalizeHeadings(raw []string) ([]string, error) {
	headings := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, h := range raw {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			if _, dup := seen[h]; dup {
				return nil, fmt.Errorf("%w: duplicate heading %q", ErrSourceUnreadable, h)
			}
			seen[h] = struct{}{}
		}
		headings[i] = h
	}
	return headings, nil
}

// ReconcileShape pads short rows with empty cells and truncates long ones so
// every row lines up with the heading count. Shape mismatches are never an
// error.
func ReconcileShape(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	if len(cells) > width {
		return cells[:width]
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
