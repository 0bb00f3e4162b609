package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads an uploaded Excel workbook. The first sheet is used unless
// a sheet named "Products" exists, mirroring the generated import template.
type XLSXSource struct {
	reader io.Reader
}

// NewXLSXSource wraps an uploaded workbook.
func NewXLSXSource(r io.Reader) *XLSXSource {
	return &XLSXSource{reader: r}
}

// Open reads the workbook's product sheet into headings and rows.
func (s *XLSXSource) Open() ([]string, []Row, map[int]ImageRef, error) {
	f, err := excelize.OpenReader(s.reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: cannot open workbook: %v", ErrSourceUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrSourceUnreadable)
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: cannot read sheet %q: %v", ErrSourceUnreadable, sheetName, err)
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: sheet %q is empty", ErrSourceUnreadable, sheetName)
	}

	// The XLSX template marks required columns with a trailing " *".
	first := records[0]
	for i := range first {
		first[i] = strings.TrimSuffix(strings.TrimSpace(first[i]), " *")
	}
	headings, err := normalizeHeadings(first)
	if err != nil {
		return nil, nil, nil, err
	}

	var rows []Row
	index := 0
	for _, record := range records[1:] {
		if len(record) <= 1 && (len(record) == 0 || strings.TrimSpace(record[0]) == "") {
			continue
		}
		rows = append(rows, Row{Index: index, Cells: record})
		index++
	}

	return headings, rows, map[int]ImageRef{}, nil
}

// Close is a no-op; workbook uploads own no scratch storage.
func (s *XLSXSource) Close() error { return nil }
