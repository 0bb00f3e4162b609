package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"catalog-import-service/internal/clients"
	"catalog-import-service/internal/schema"
)

// positionPattern matches loose image files named by spreadsheet position,
// e.g. "cell-r4c2.png". Used only when no inline <img> matched a row.
var positionPattern = regexp.MustCompile(`r(\d+)c(\d+)`)

// ArchiveSource ingests a remote spreadsheet's zipped HTML export: one markup
// document plus any embedded images as separate files. It owns a scratch
// directory for the extracted bundle, removed on Close.
type ArchiveSource struct {
	ctx         context.Context
	client      *clients.SheetsClient
	sharingURL  string
	scratchRoot string
	scratchDir  string
}

// NewArchiveSource wraps a sharing URL for archive-export ingestion. The
// scratch root is where the per-run extraction directory is created.
func NewArchiveSource(ctx context.Context, client *clients.SheetsClient, sharingURL, scratchRoot string) *ArchiveSource {
	return &ArchiveSource{ctx: ctx, client: client, sharingURL: sharingURL, scratchRoot: scratchRoot}
}

// Open fetches and extracts the bundle, then reads its markup table.
func (s *ArchiveSource) Open() ([]string, []Row, map[int]ImageRef, error) {
	id, ok := clients.ExtractSpreadsheetID(s.sharingURL)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: no /spreadsheets/d/ identifier in %q", ErrInvalidSourceURL, s.sharingURL)
	}

	body, err := s.client.FetchArchiveExport(s.ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err)
	}
	if len(body) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty archive export for %s", ErrRemoteFetchFailed, id)
	}

	dir, err := os.MkdirTemp(s.scratchRoot, "import-archive-")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: cannot create scratch directory: %v", ErrSourceUnreadable, err)
	}
	s.scratchDir = dir

	if err := extractZip(body, dir); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	htmlPath, err := findMarkupDocument(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	return parseMarkupTable(htmlPath)
}

// Close removes the scratch directory and everything extracted into it.
func (s *ArchiveSource) Close() error {
	if s.scratchDir == "" {
		return nil
	}
	err := os.RemoveAll(s.scratchDir)
	s.scratchDir = ""
	return err
}

// extractZip unpacks the bundle, refusing entries that would escape dest.
func extractZip(data []byte, dest string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("not a zip archive: %v", err)
	}
	for _, entry := range zr.File {
		target := filepath.Join(dest, filepath.Clean(entry.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction directory", entry.Name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// findMarkupDocument locates the single HTML document in the bundle.
func findMarkupDocument(dir string) (string, error) {
	var found string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".html" || ext == ".htm" {
			if found == "" {
				found = path
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: archive contains no markup document", ErrSourceUnreadable)
	}
	return found, nil
}

// tableRow is one <tr> flattened to trimmed cell text plus any inline image
// references found inside its cells.
type tableRow struct {
	cells  []string
	images []string // first image src per row, in document order
}

// parseMarkupTable reads the exported table. The first row containing at
// least one recognized canonical heading becomes the header; spreadsheet
// chrome rows (column letters, row numbers) are skipped around it.
func parseMarkupTable(htmlPath string) ([]string, []Row, map[int]ImageRef, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: cannot parse markup: %v", ErrSourceUnreadable, err)
	}

	tableRows := collectTableRows(doc)
	if len(tableRows) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: markup contains no table rows", ErrSourceUnreadable)
	}

	headerIdx := -1
	for i, tr := range tableRows {
		if isLabelRow(tr.cells) {
			continue
		}
		if containsCanonicalHeading(tr.cells) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil, nil, fmt.Errorf("%w: no header row with recognized columns", ErrSourceUnreadable)
	}

	headings, err := normalizeHeadings(tableRows[headerIdx].cells)
	if err != nil {
		return nil, nil, nil, err
	}

	bundleDir := filepath.Dir(htmlPath)
	images := make(map[int]ImageRef)
	var rows []Row

	for i := headerIdx + 1; i < len(tableRows); i++ {
		tr := tableRows[i]
		if !isDataRow(tr.cells) {
			continue
		}
		idx := len(rows)
		rows = append(rows, Row{Index: idx, Cells: tr.cells})

		for _, src := range tr.images {
			ref, ok := resolveBundleImage(bundleDir, src)
			if !ok {
				continue
			}
			images[idx] = ref
			break
		}
	}

	if len(images) == 0 {
		matchLooseImages(bundleDir, htmlPath, len(rows), images)
	}

	return headings, rows, images, nil
}

// collectTableRows walks the document and flattens every <tr>.
func collectTableRows(doc *html.Node) []tableRow {
	var out []tableRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			out = append(out, flattenRow(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// flattenRow turns a <tr> into trimmed cell text, stripping tag markup, and
// collects inline image sources per cell.
func flattenRow(tr *html.Node) tableRow {
	var row tableRow
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		var text strings.Builder
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				text.WriteString(n.Data)
			}
			if n.Type == html.ElementNode && n.Data == "img" {
				for _, attr := range n.Attr {
					if attr.Key == "src" && attr.Val != "" {
						row.images = append(row.images, attr.Val)
					}
				}
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
		walk(c)
		row.cells = append(row.cells, strings.TrimSpace(text.String()))
	}
	return row
}

// isLabelRow reports whether every non-empty cell looks like spreadsheet
// chrome: a short alphabetic column letter or a bare row number.
func isLabelRow(cells []string) bool {
	nonEmpty := 0
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		nonEmpty++
		if !isShortAlphabetic(cell) && !isNumeric(cell) {
			return false
		}
	}
	return nonEmpty > 0
}

// isDataRow keeps rows with at least two non-empty cells. A row whose only
// content is its leading row-number token never passes this bar, so
// spreadsheet chrome below the header is dropped here too.
func isDataRow(cells []string) bool {
	nonEmpty := 0
	for _, cell := range cells {
		if cell != "" {
			nonEmpty++
		}
	}
	return nonEmpty >= 2
}

func containsCanonicalHeading(cells []string) bool {
	for _, cell := range cells {
		if cell != "" && schema.IsCanonical(cell) {
			return true
		}
	}
	return false
}

func isShortAlphabetic(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// resolveBundleImage maps an <img> src to a file inside the extracted bundle.
func resolveBundleImage(bundleDir, src string) (ImageRef, bool) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return ImageRef{URL: src, Name: filepath.Base(src)}, true
	}
	clean := filepath.Clean(src)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return ImageRef{}, false
	}
	path := filepath.Join(bundleDir, clean)
	if _, err := os.Stat(path); err != nil {
		return ImageRef{}, false
	}
	return ImageRef{Path: path, Name: filepath.Base(path)}, true
}

// matchLooseImages assigns bundle images to rows by the r<row>c<col> filename
// convention when the markup carried no usable inline references. The row
// token is the 1-based data-row position below the header: r1 is the first
// data row.
func matchLooseImages(bundleDir, htmlPath string, rowCount int, images map[int]ImageRef) {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(bundleDir, entry.Name())
		if path == htmlPath || !isImageFilename(entry.Name()) {
			continue
		}
		m := positionPattern.FindStringSubmatch(strings.ToLower(entry.Name()))
		if m == nil {
			continue
		}
		var rowNum int
		fmt.Sscanf(m[1], "%d", &rowNum)
		idx := rowNum - 1
		if idx < 0 || idx >= rowCount {
			continue
		}
		if _, taken := images[idx]; taken {
			continue
		}
		images[idx] = ImageRef{Path: path, Name: entry.Name()}
	}
}

func isImageFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
