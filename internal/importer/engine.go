// Package importer reconciles normalized source rows against the catalog:
// create or update by SKU, resolve images, assign attributes and groups, and
// propagate localized text. Row failures are absorbed; only source
// acquisition can fail a run.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
	"catalog-import-service/internal/schema"
	"catalog-import-service/internal/source"
)

// Fetcher downloads image bytes referenced from source cells.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Events receives per-product notifications. Implementations must be safe to
// skip: a nil Events disables publishing.
type Events interface {
	ProductCreated(p *models.Product)
	ProductUpdated(p *models.Product)
}

// Options tunes one import run.
type Options struct {
	// ValidateRequired gates rows on the required template columns. The
	// gate ships disabled: historically imports accepted sparse rows and
	// turning this on is an operator decision, not a default.
	ValidateRequired bool
	// DefaultImageID names a stored asset applied when no image resolves.
	DefaultImageID string
	// MaxRunSeconds bounds the whole run; 0 means no deadline.
	MaxRunSeconds int
}

// OptionsFromSettings derives run options from the persisted settings
// surface, so the dashboard's validateHeaders switch reaches the row gate.
func OptionsFromSettings(settings models.ImportSettings) Options {
	return Options{
		ValidateRequired: settings.ValidateHeaders,
		DefaultImageID:   settings.DefaultImageID,
		MaxRunSeconds:    settings.MaxRunSeconds,
	}
}

// Importer runs the reconciliation pipeline. Construct with New.
type Importer struct {
	catalog repository.Catalog
	fetcher Fetcher
	events  Events
	logger  *logrus.Entry
	opts    Options
}

func New(catalog repository.Catalog, fetcher Fetcher, events Events, logger *logrus.Logger, opts Options) *Importer {
	return &Importer{
		catalog: catalog,
		fetcher: fetcher,
		events:  events,
		logger:  logger.WithField("component", "importer"),
		opts:    opts,
	}
}

// Run ingests one source end to end. The returned error is non-nil only for
// source acquisition failures; everything after the heading row is absorbed
// into the result's counters and diagnostics.
func (imp *Importer) Run(ctx context.Context, src source.Source) (*models.ImportResult, error) {
	defer src.Close()

	start := time.Now()

	headings, rows, images, err := src.Open()
	if err != nil {
		return nil, err
	}

	if imp.opts.MaxRunSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(imp.opts.MaxRunSeconds)*time.Second)
		defer cancel()
	}

	fm := schema.Classify(headings)
	cache := newRunCache(imp.catalog)
	result := &models.ImportResult{}

	for _, row := range rows {
		if ctx.Err() != nil {
			result.DeadlineExceeded = true
			imp.logger.WithField("rows_remaining", len(rows)-row.Index).
				Warn("Run deadline exceeded, stopping batch")
			break
		}
		result.RowsRead++

		var embedded *source.ImageRef
		if ref, ok := images[row.Index]; ok {
			embedded = &ref
		}
		imp.processRow(ctx, fm, row, embedded, cache, result)
	}

	result.ProcessingMs = time.Since(start).Milliseconds()
	imp.logger.WithFields(logrus.Fields{
		"rows_read": result.RowsRead,
		"created":   result.Created,
		"updated":   result.Updated,
		"skipped":   result.SkippedEmpty,
	}).Info(result.Summary())

	return result, nil
}

// processRow drives the per-row state machine. Every exit lands the row in
// exactly one of created/updated/skippedEmpty.
func (imp *Importer) processRow(ctx context.Context, fm *schema.FieldMap, row source.Row, embedded *source.ImageRef, cache *runCache, result *models.ImportResult) {
	cells := source.ReconcileShape(row.Cells, len(fm.Headings))

	sku := fm.Cell(cells, schema.FieldSKU)
	name := fm.Cell(cells, schema.FieldName)

	if sku == "" && name == "" {
		result.SkippedEmpty++
		result.AddDiagnostic(row.Index, models.DiagnosticInfo, "ROW_EMPTY", "row has no SKU and no name, skipped")
		return
	}

	if imp.opts.ValidateRequired {
		if missing := imp.missingRequired(fm, cells); missing != "" {
			result.SkippedEmpty++
			result.AddDiagnostic(row.Index, models.DiagnosticWarning, "ROW_INVALID", "required column "+missing+" is empty")
			return
		}
	}

	product, err := imp.catalog.FindBySKU(sku)
	if err != nil {
		result.SkippedEmpty++
		result.AddDiagnostic(row.Index, models.DiagnosticWarning, "LOOKUP_FAILED", err.Error())
		imp.logger.WithError(err).WithField("sku", sku).Warn("SKU lookup failed")
		return
	}

	created := product == nil
	if created {
		product = imp.buildProduct(fm, cells, sku, name)

		file, hadRef := imp.resolveImage(ctx, fm, cells, embedded, result)
		if file != nil {
			product.ImageFileID = &file.ID
		} else {
			if hadRef {
				result.ImagesFailed++
			}
			imp.applyDefaultImage(product)
		}

		if err := imp.catalog.CreateProduct(product); err != nil {
			result.SkippedEmpty++
			result.AddDiagnostic(row.Index, models.DiagnosticWarning, "CREATE_FAILED", err.Error())
			imp.logger.WithError(err).WithField("sku", sku).Warn("Create failed")
			return
		}
		result.Created++
	} else {
		imp.applyOverlay(product, fm, cells)

		if err := imp.catalog.SaveProduct(product); err != nil {
			result.SkippedEmpty++
			result.AddDiagnostic(row.Index, models.DiagnosticWarning, "UPDATE_FAILED", err.Error())
			imp.logger.WithError(err).WithField("sku", sku).Warn("Update failed")
			return
		}

		file, hadRef := imp.resolveImage(ctx, fm, cells, embedded, result)
		switch {
		case file != nil:
			product.ImageFileID = &file.ID
			if err := imp.catalog.SaveProduct(product); err != nil {
				imp.logger.WithError(err).WithField("sku", sku).Warn("Image assignment failed")
			}
		case hadRef:
			result.ImagesFailed++
		case product.ImageFileID == nil:
			if imp.applyDefaultImage(product) {
				if err := imp.catalog.SaveProduct(product); err != nil {
					imp.logger.WithError(err).WithField("sku", sku).Warn("Default image assignment failed")
				}
			}
		}
		result.Updated++
	}

	result.AttributesApplied += imp.applyAttributes(product, fm, cells, cache, row.Index, result)
	imp.applyGroups(product, fm, cells, cache, row.Index, result)

	if product.PageID == nil {
		pageCreated, err := imp.catalog.GeneratePage(product)
		if err != nil {
			result.AddDiagnostic(row.Index, models.DiagnosticWarning, "PAGE_FAILED", err.Error())
			imp.logger.WithError(err).WithField("sku", sku).Warn("Page generation failed")
		} else if pageCreated {
			result.PagesGenerated++
		}
	}

	result.TranslationsWritten += imp.propagateLocales(product, fm, cells, cache, row.Index, result)

	if imp.events != nil {
		if created {
			imp.events.ProductCreated(product)
		} else {
			imp.events.ProductUpdated(product)
		}
	}
}

// missingRequired returns the first required template column that is present
// in the source but empty for this row, "" when the row passes.
func (imp *Importer) missingRequired(fm *schema.FieldMap, cells []string) string {
	for _, col := range models.ProductImportColumns() {
		if !col.Required {
			continue
		}
		if _, present := fm.Canonical[col.Name]; !present {
			continue
		}
		if fm.Cell(cells, col.Name) == "" {
			return col.Name
		}
	}
	return ""
}

// buildProduct populates a fresh record from the full canonical field set.
// Absent columns fall back to zero values, except Active: a source that never
// mentions pactive imports visible products.
func (imp *Importer) buildProduct(fm *schema.FieldMap, cells []string, sku, name string) *models.Product {
	p := &models.Product{
		SKU:    sku,
		Name:   name,
		Desc:   fm.Cell(cells, schema.FieldDesc),
		Detail: fm.Cell(cells, schema.FieldDetail),

		Price:            fm.Cell(cells, schema.FieldPrice),
		SalePrice:        fm.Cell(cells, schema.FieldSalePrice),
		PriceMaximum:     fm.Cell(cells, schema.FieldPriceMaximum),
		PriceMinimum:     fm.Cell(cells, schema.FieldPriceMinimum),
		PriceSuggestions: fm.Cell(cells, schema.FieldPriceSuggestions),

		Qty:         fm.Cell(cells, schema.FieldQty),
		MaxQty:      fm.Cell(cells, schema.FieldMaxQty),
		QtySteps:    fm.Cell(cells, schema.FieldQtySteps),
		QtyLabel:    fm.Cell(cells, schema.FieldQtyLabel),
		NumberItems: fm.Cell(cells, schema.FieldNumberItems),

		Length:      fm.Cell(cells, schema.FieldLength),
		Width:       fm.Cell(cells, schema.FieldWidth),
		Height:      fm.Cell(cells, schema.FieldHeight),
		Weight:      fm.Cell(cells, schema.FieldWeight),
		PackageData: fm.Cell(cells, schema.FieldPackageData),

		Featured:           parseFlag(fm.Cell(cells, schema.FieldFeatured)),
		Taxable:            parseFlag(fm.Cell(cells, schema.FieldTaxable)),
		Shippable:          parseFlag(fm.Cell(cells, schema.FieldShippable)),
		Exclusive:          parseFlag(fm.Cell(cells, schema.FieldExclusive)),
		NoQty:              parseFlag(fm.Cell(cells, schema.FieldNoQty)),
		QtyUnlimited:       parseFlag(fm.Cell(cells, schema.FieldQtyUnlimited)),
		AllowBackOrder:     parseFlag(fm.Cell(cells, schema.FieldBackOrder)),
		AllowDecimalQty:    parseFlag(fm.Cell(cells, schema.FieldAllowDecimalQty)),
		AllowCustomerPrice: parseFlag(fm.Cell(cells, schema.FieldCustomerPrice)),
		CreatesUserAccount: parseFlag(fm.Cell(cells, schema.FieldUserAccount)),
		AutoCheckout:       parseFlag(fm.Cell(cells, schema.FieldAutoCheckout)),
		SeparateShip:       parseFlag(fm.Cell(cells, schema.FieldSeparateShip)),
	}

	if _, present := fm.Canonical[schema.FieldActive]; present {
		p.Active = parseFlag(fm.Cell(cells, schema.FieldActive))
	} else {
		p.Active = true
	}

	return p
}

// applyOverlay merges a row into an existing record: only non-empty cells
// overwrite. Empty and absent cells leave the stored value untouched, which
// is what keeps an empty price cell from zeroing a price.
func (imp *Importer) applyOverlay(p *models.Product, fm *schema.FieldMap, cells []string) {
	overlay := func(field string, dst *string) {
		if v := fm.Cell(cells, field); v != "" {
			*dst = v
		}
	}
	overlayFlag := func(field string, dst *bool) {
		if v := fm.Cell(cells, field); v != "" {
			*dst = parseFlag(v)
		}
	}

	overlay(schema.FieldName, &p.Name)
	overlay(schema.FieldDesc, &p.Desc)
	overlay(schema.FieldDetail, &p.Detail)

	overlay(schema.FieldPrice, &p.Price)
	overlay(schema.FieldSalePrice, &p.SalePrice)
	overlay(schema.FieldPriceMaximum, &p.PriceMaximum)
	overlay(schema.FieldPriceMinimum, &p.PriceMinimum)
	overlay(schema.FieldPriceSuggestions, &p.PriceSuggestions)

	overlay(schema.FieldQty, &p.Qty)
	overlay(schema.FieldMaxQty, &p.MaxQty)
	overlay(schema.FieldQtySteps, &p.QtySteps)
	overlay(schema.FieldQtyLabel, &p.QtyLabel)
	overlay(schema.FieldNumberItems, &p.NumberItems)

	overlay(schema.FieldLength, &p.Length)
	overlay(schema.FieldWidth, &p.Width)
	overlay(schema.FieldHeight, &p.Height)
	overlay(schema.FieldWeight, &p.Weight)
	overlay(schema.FieldPackageData, &p.PackageData)

	overlayFlag(schema.FieldFeatured, &p.Featured)
	overlayFlag(schema.FieldActive, &p.Active)
	overlayFlag(schema.FieldTaxable, &p.Taxable)
	overlayFlag(schema.FieldShippable, &p.Shippable)
	overlayFlag(schema.FieldExclusive, &p.Exclusive)
	overlayFlag(schema.FieldNoQty, &p.NoQty)
	overlayFlag(schema.FieldQtyUnlimited, &p.QtyUnlimited)
	overlayFlag(schema.FieldBackOrder, &p.AllowBackOrder)
	overlayFlag(schema.FieldAllowDecimalQty, &p.AllowDecimalQty)
	overlayFlag(schema.FieldCustomerPrice, &p.AllowCustomerPrice)
	overlayFlag(schema.FieldUserAccount, &p.CreatesUserAccount)
	overlayFlag(schema.FieldAutoCheckout, &p.AutoCheckout)
	overlayFlag(schema.FieldSeparateShip, &p.SeparateShip)
}

// applyGroups replaces the product's group memberships from the
// comma-separated group column. Groups are created on demand.
func (imp *Importer) applyGroups(p *models.Product, fm *schema.FieldMap, cells []string, cache *runCache, rowIdx int, result *models.ImportResult) {
	raw := fm.Cell(cells, schema.FieldProductGroups)
	if raw == "" {
		return
	}

	var groups []*models.ProductGroup
	seen := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		group, err := cache.Group(name)
		if err != nil {
			result.AddDiagnostic(rowIdx, models.DiagnosticWarning, "GROUP_FAILED", err.Error())
			imp.logger.WithError(err).WithField("group", name).Warn("Group resolution failed")
			return
		}
		groups = append(groups, group)
	}

	if len(groups) == 0 {
		return
	}
	if err := imp.catalog.SetProductGroups(p, groups); err != nil {
		result.AddDiagnostic(rowIdx, models.DiagnosticWarning, "GROUP_FAILED", err.Error())
		imp.logger.WithError(err).WithField("sku", p.SKU).Warn("Group assignment failed")
	}
}

// applyDefaultImage assigns the configured fallback asset. Returns true when
// an assignment was made.
func (imp *Importer) applyDefaultImage(p *models.Product) bool {
	if imp.opts.DefaultImageID == "" {
		return false
	}
	id, err := uuid.Parse(imp.opts.DefaultImageID)
	if err != nil {
		imp.logger.WithField("default_image_id", imp.opts.DefaultImageID).
			Warn("Configured default image id is not a UUID")
		return false
	}
	p.ImageFileID = &id
	return true
}

// parseFlag interprets the spreadsheet checkbox conventions.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
