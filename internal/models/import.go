package models

import "fmt"

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// DiagnosticSeverity mirrors the log level a diagnostic was emitted at.
type DiagnosticSeverity string

const (
	DiagnosticInfo    DiagnosticSeverity = "INFO"
	DiagnosticWarning DiagnosticSeverity = "WARNING"
)

// RowDiagnostic records a per-row outcome that did not stop the run.
type RowDiagnostic struct {
	Row      int                `json:"row"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
}

// ImportResult is the summary of one import run. A run that completes always
// produces a result; per-row failures only move counters and add diagnostics.
type ImportResult struct {
	RowsRead              int             `json:"rowsRead"`
	Created               int             `json:"created"`
	Updated               int             `json:"updated"`
	SkippedEmpty          int             `json:"skippedEmpty"`
	ImagesResolved        int             `json:"imagesResolved"`
	ImagesFailed          int             `json:"imagesFailed"`
	PagesGenerated        int             `json:"pagesGenerated"`
	TranslationsWritten   int             `json:"translationsWritten"`
	AttributesApplied     int             `json:"attributesApplied"`
	Diagnostics           []RowDiagnostic `json:"diagnostics,omitempty"`
	ProcessingMs          int64           `json:"processingMs"`
	DeadlineExceeded      bool            `json:"deadlineExceeded,omitempty"`
}

// AddDiagnostic appends a per-row diagnostic message.
func (r *ImportResult) AddDiagnostic(row int, severity DiagnosticSeverity, code, message string) {
	r.Diagnostics = append(r.Diagnostics, RowDiagnostic{
		Row:      row,
		Severity: severity,
		Code:     code,
		Message:  message,
	})
}

// Summary renders the human-readable completion message.
func (r *ImportResult) Summary() string {
	msg := fmt.Sprintf("Import completed: %d products added, %d products updated.", r.Created, r.Updated)
	if r.ImagesResolved > 0 || r.ImagesFailed > 0 {
		msg += fmt.Sprintf(" Images processed: %d", r.ImagesResolved)
		if r.ImagesFailed > 0 {
			msg += fmt.Sprintf(", failed: %d", r.ImagesFailed)
		}
	}
	if r.PagesGenerated > 0 {
		msg += fmt.Sprintf(" Product pages created: %d", r.PagesGenerated)
	}
	if r.TranslationsWritten > 0 {
		msg += fmt.Sprintf(" Translations written: %d", r.TranslationsWritten)
	}
	return msg
}

// ImportSettings is the persisted configuration surface for import runs.
type ImportSettings struct {
	Delimiter       string `json:"delimiter"`
	Enclosure       string `json:"enclosure"`
	MaxLineLength   int    `json:"maxLineLength"`
	MaxRunSeconds   int    `json:"maxRunSeconds"`
	DefaultImageID  string `json:"defaultImageId"`
	ValidateHeaders bool   `json:"validateHeaders"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "psku", Description: "Unique product SKU (natural key)", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "pname", Description: "Product name", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "pdesc", Description: "Short description", Required: false, Type: "string", Example: "A comfortable tee"},
		{Name: "pdetail", Description: "Detail text", Required: false, Type: "string", Example: ""},
		{Name: "pprice", Description: "Price", Required: false, Type: "number", Example: "29.99"},
		{Name: "psaleprice", Description: "Sale price", Required: false, Type: "number", Example: ""},
		{Name: "ppriceminimum", Description: "Minimum price", Required: false, Type: "number", Example: ""},
		{Name: "ppricemaximum", Description: "Maximum price", Required: false, Type: "number", Example: ""},
		{Name: "ppricesuggestions", Description: "Suggested price list", Required: false, Type: "string", Example: "10,20,50"},
		{Name: "pcustomerprice", Description: "Allow customer-set price (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pqty", Description: "Stock quantity", Required: false, Type: "number", Example: "100"},
		{Name: "pqtyunlim", Description: "Unlimited quantity (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pnoqty", Description: "Hide quantity selector (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pmaxqty", Description: "Maximum order quantity", Required: false, Type: "number", Example: ""},
		{Name: "pqtysteps", Description: "Quantity step size", Required: false, Type: "number", Example: ""},
		{Name: "pqtylabel", Description: "Quantity label", Required: false, Type: "string", Example: "pcs"},
		{Name: "pallowdecimalqty", Description: "Allow decimal quantity (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pbackorder", Description: "Allow back order (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pfeatured", Description: "Featured flag (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pactive", Description: "Active flag (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "ptaxable", Description: "Taxable flag (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "pshippable", Description: "Shippable flag (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "pexclusive", Description: "Exclusive flag (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pcreateuseraccount", Description: "Create user account on purchase (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pautocheckout", Description: "Auto checkout (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "pseperateship", Description: "Ships separately (1/0)", Required: false, Type: "boolean", Example: "0"},
		{Name: "ppackagedata", Description: "Packaging data", Required: false, Type: "string", Example: ""},
		{Name: "plength", Description: "Length", Required: false, Type: "number", Example: ""},
		{Name: "pwidth", Description: "Width", Required: false, Type: "number", Example: ""},
		{Name: "pheight", Description: "Height", Required: false, Type: "number", Example: ""},
		{Name: "pweight", Description: "Weight", Required: false, Type: "number", Example: ""},
		{Name: "pnumberitems", Description: "Number of items", Required: false, Type: "number", Example: ""},
		{Name: "pproductgroups", Description: "Comma-separated group names, created on demand", Required: false, Type: "string", Example: "Shirts, Sale"},
		{Name: "imagefile", Description: "Image URL or staged filename", Required: false, Type: "string", Example: "tshirt-blue.jpg"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
