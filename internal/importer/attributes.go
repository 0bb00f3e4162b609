package importer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/schema"
)

var titleCaser = cases.Title(language.Und)

// applyAttributes assigns the row's attribute columns to the product and
// returns how many assignments landed. Any failure stops attribute work for
// this row and reports zero applied; the row itself continues.
func (imp *Importer) applyAttributes(p *models.Product, fm *schema.FieldMap, cells []string, cache *runCache, rowIdx int, result *models.ImportResult) int {
	applied, err := imp.assignAttributes(p, fm, cells, cache)
	if err != nil {
		result.AddDiagnostic(rowIdx, models.DiagnosticWarning, "ATTRIBUTES_FAILED", err.Error())
		imp.logger.WithError(err).WithField("sku", p.SKU).Warn("No attributes applied for this row")
		return 0
	}
	return applied
}

func (imp *Importer) assignAttributes(p *models.Product, fm *schema.FieldMap, cells []string, cache *runCache) (int, error) {
	applied := 0

	for handle, idx := range fm.MultiValueAttributes {
		raw := fm.At(cells, idx)
		if raw == "" {
			continue
		}
		key, err := cache.AttributeKey(handle)
		if err != nil {
			return applied, err
		}
		if key == nil {
			continue
		}

		values := normalizeAttributeValues(raw)
		if len(values) == 0 {
			continue
		}

		if key.Type == models.AttributeTypeSelect {
			optionValues := make([]string, 0, len(values))
			for _, v := range values {
				option, err := imp.catalog.FindOrCreateOption(key, v)
				if err != nil {
					return applied, err
				}
				optionValues = append(optionValues, option.Value)
			}
			if err := imp.catalog.SetAttributeValue(p.ID, key.ID, strings.Join(optionValues, ", ")); err != nil {
				return applied, err
			}
		} else {
			if err := imp.catalog.SetAttributeValue(p.ID, key.ID, strings.Join(values, ", ")); err != nil {
				return applied, err
			}
		}
		applied++
	}

	for handle, idx := range fm.LegacyAttributes {
		raw := fm.At(cells, idx)
		if raw == "" {
			continue
		}
		key, err := cache.AttributeKey(handle)
		if err != nil {
			return applied, err
		}
		if key == nil {
			continue
		}
		// Legacy columns are assigned verbatim, no normalization.
		if err := imp.catalog.SetAttributeValue(p.ID, key.ID, raw); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// normalizeAttributeValues splits a comma-separated cell into title-cased,
// de-duplicated values. "gold, silver, Gold" yields ["Gold", "Silver"].
func normalizeAttributeValues(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		v := titleCaser.String(strings.ToLower(token))
		if seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}
