package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryMessage(t *testing.T) {
	r := &ImportResult{Created: 3, Updated: 2}
	assert.Equal(t, "Import completed: 3 products added, 2 products updated.", r.Summary())

	r = &ImportResult{Created: 1, ImagesResolved: 4, ImagesFailed: 1, PagesGenerated: 1, TranslationsWritten: 2}
	summary := r.Summary()
	assert.Contains(t, summary, "Import completed: 1 products added, 0 products updated.")
	assert.Contains(t, summary, "Images processed: 4, failed: 1")
	assert.Contains(t, summary, "Product pages created: 1")
	assert.Contains(t, summary, "Translations written: 2")
}

func TestAddDiagnostic(t *testing.T) {
	r := &ImportResult{}
	r.AddDiagnostic(4, DiagnosticWarning, "CREATE_FAILED", "boom")

	assert.Len(t, r.Diagnostics, 1)
	assert.Equal(t, 4, r.Diagnostics[0].Row)
	assert.Equal(t, DiagnosticWarning, r.Diagnostics[0].Severity)
}

func TestProductImportColumnsRequired(t *testing.T) {
	var required []string
	for _, col := range ProductImportColumns() {
		if col.Required {
			required = append(required, col.Name)
		}
	}
	assert.Equal(t, []string{"psku", "pname"}, required)
}
