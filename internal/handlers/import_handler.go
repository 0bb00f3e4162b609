package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-import-service/internal/clients"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/events"
	"catalog-import-service/internal/importer"
	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
	"catalog-import-service/internal/source"
)

const maxUploadSize = 20 << 20 // 20 MB upload cap

type ImportHandler struct {
	repo      *repository.CatalogRepository
	sheets    *clients.SheetsClient
	publisher *events.Publisher
	logger    *logrus.Logger
	cfg       *config.Config
}

func NewImportHandler(repo *repository.CatalogRepository, sheets *clients.SheetsClient, publisher *events.Publisher, logger *logrus.Logger, cfg *config.Config) *ImportHandler {
	return &ImportHandler{
		repo:      repo,
		sheets:    sheets,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// remoteImportRequest is the body of a remote spreadsheet import.
type remoteImportRequest struct {
	URL string `json:"url" binding:"required"`
	// Archive selects the zipped HTML+image export, which carries embedded
	// row images the plain CSV export cannot.
	Archive bool `json:"archive"`
}

// ImportFile ingests an uploaded CSV or Excel file
// POST /api/v1/catalog/import
func (h *ImportHandler) ImportFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d MB upload limit", maxUploadSize>>20),
			},
		})
		return
	}

	settings := h.loadSettings()

	var src source.Source
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv", ".txt":
		src = source.NewCSVSource(file, source.CSVOptions{
			Delimiter:     settings.Delimiter,
			MaxLineLength: settings.MaxLineLength,
		})
	case ".xlsx":
		src = source.NewXLSXSource(file)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNSUPPORTED_FORMAT",
				Message: "Supported formats: .csv, .txt, .xlsx",
			},
		})
		return
	}

	h.runImport(c, src, settings)
}

// ImportRemote ingests a shared remote spreadsheet by URL
// POST /api/v1/catalog/import/remote
func (h *ImportHandler) ImportRemote(c *gin.Context) {
	var req remoteImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: "Request body must carry a spreadsheet sharing URL",
				Field:   "url",
			},
		})
		return
	}

	settings := h.loadSettings()

	var src source.Source
	if req.Archive {
		src = source.NewArchiveSource(c.Request.Context(), h.sheets, req.URL, h.cfg.ScratchDir)
	} else {
		src = source.NewSheetSource(c.Request.Context(), h.sheets, req.URL)
	}

	h.runImport(c, src, settings)
}

// runImport executes the pipeline against an opened source and writes the
// HTTP response, mapping source acquisition failures to status codes.
func (h *ImportHandler) runImport(c *gin.Context, src source.Source, settings models.ImportSettings) {
	imp := importer.New(h.repo, h.sheets, h.publisher, h.logger, importer.OptionsFromSettings(settings))

	result, err := imp.Run(c.Request.Context(), src)
	if err != nil {
		status, code := http.StatusInternalServerError, "IMPORT_FAILED"
		switch {
		case errors.Is(err, source.ErrInvalidSourceURL):
			status, code = http.StatusBadRequest, "INVALID_SOURCE_URL"
		case errors.Is(err, source.ErrRemoteFetchFailed):
			status, code = http.StatusBadGateway, "REMOTE_FETCH_FAILED"
		case errors.Is(err, source.ErrSourceUnreadable):
			status, code = http.StatusUnprocessableEntity, "SOURCE_UNREADABLE"
		}
		h.logger.WithError(err).Error("Import run failed")
		c.JSON(status, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: code, Message: err.Error()},
		})
		return
	}

	h.publisher.ImportCompleted(result)

	message := result.Summary()
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: &message,
	})
}

// GetSettings returns the persisted import settings
// GET /api/v1/catalog/import/settings
func (h *ImportHandler) GetSettings(c *gin.Context) {
	settings := h.loadSettings()
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

// UpdateSettings persists the import settings
// PUT /api/v1/catalog/import/settings
func (h *ImportHandler) UpdateSettings(c *gin.Context) {
	settings := h.loadSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	if settings.MaxLineLength < 0 || settings.MaxRunSeconds < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_SETTINGS",
				Message: "Line length and run budget must not be negative",
			},
		})
		return
	}

	if err := h.repo.SaveSettings(settings); err != nil {
		h.logger.WithError(err).Error("Failed to save import settings")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "SETTINGS_SAVE_FAILED", Message: "Failed to save settings"},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

func (h *ImportHandler) loadSettings() models.ImportSettings {
	settings, err := h.repo.GetSettings(h.cfg.ImportSettings())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load persisted settings, using defaults")
		return h.cfg.ImportSettings()
	}
	return settings
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/catalog/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Catalog Import Instructions")

	f.SetCellValue("Instructions", "A3", "MATCHING:")
	f.SetCellValue("Instructions", "A4", "Rows are matched to existing products by psku. A row with a new SKU creates a product;")
	f.SetCellValue("Instructions", "A5", "a row with a known SKU updates it. Empty cells never overwrite existing values.")

	f.SetCellValue("Instructions", "A7", "IMAGES:")
	f.SetCellValue("Instructions", "A8", "imagefile accepts an http(s) URL or a bare filename. Filenames only match images")
	f.SetCellValue("Instructions", "A9", "already staged through the image upload endpoint; local paths are never read.")

	f.SetCellValue("Instructions", "A11", "ATTRIBUTES AND TRANSLATIONS:")
	f.SetCellValue("Instructions", "A12", "pa_<handle> columns carry comma-separated attribute values; attr_<handle> columns are")
	f.SetCellValue("Instructions", "A13", "assigned verbatim. Columns like 'pname - ru' translate a field for that locale.")

	f.SetCellValue("Instructions", "A15", "Column Definitions:")
	f.SetCellValue("Instructions", "A16", "Column")
	f.SetCellValue("Instructions", "B16", "Description")
	f.SetCellValue("Instructions", "C16", "Required")
	f.SetCellValue("Instructions", "D16", "Type")
	f.SetCellValue("Instructions", "E16", "Example")

	for i, col := range template.Columns {
		row := i + 17
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.xlsx")

	f.Write(c.Writer)
}
