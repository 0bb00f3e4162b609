package importer

import (
	"strings"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/schema"
)

// localeRegions maps 2-letter source column codes to full region locales.
// Codes missing from the table pass through unchanged.
var localeRegions = map[string]string{
	"cs": "cs_CZ",
	"da": "da_DK",
	"de": "de_DE",
	"el": "el_GR",
	"en": "en_US",
	"es": "es_ES",
	"fi": "fi_FI",
	"fr": "fr_FR",
	"it": "it_IT",
	"ja": "ja_JP",
	"nb": "nb_NO",
	"nl": "nl_NL",
	"pl": "pl_PL",
	"pt": "pt_PT",
	"ru": "ru_RU",
	"sv": "sv_SE",
	"tr": "tr_TR",
	"zh": "zh_CN",
}

// fieldEntities maps localizable source fields to translation entity tags.
var fieldEntities = map[string]models.TranslationEntity{
	schema.FieldName:   models.TranslationEntityName,
	schema.FieldDesc:   models.TranslationEntityShortDesc,
	schema.FieldDetail: models.TranslationEntityLongDesc,
}

// NormalizeLocale expands a 2-letter code to its language_REGION form.
func NormalizeLocale(code string) string {
	if full, ok := localeRegions[strings.ToLower(code)]; ok {
		return full
	}
	return code
}

// propagateLocales upserts translations for every locale column with content
// and keeps each locale's presentation page in step. Best-effort per
// product+locale; returns the number of translations written.
func (imp *Importer) propagateLocales(p *models.Product, fm *schema.FieldMap, cells []string, cache *runCache, rowIdx int, result *models.ImportResult) int {
	written := 0

	for code, fields := range fm.Locales {
		locale := NormalizeLocale(code)
		wroteAny := false
		localizedTitle := ""

		for field, idx := range fields {
			text := fm.At(cells, idx)
			if text == "" {
				continue
			}
			entity, ok := fieldEntities[field]
			if !ok {
				continue
			}

			_, err := imp.catalog.UpsertTranslation(&models.Translation{
				ProductID: p.ID,
				Entity:    entity,
				Locale:    locale,
				Text:      text,
			})
			if err != nil {
				result.AddDiagnostic(rowIdx, models.DiagnosticWarning, "TRANSLATION_FAILED", err.Error())
				imp.logger.WithError(err).WithFields(map[string]interface{}{
					"sku":    p.SKU,
					"locale": locale,
				}).Warn("Translation write failed")
				continue
			}
			written++
			wroteAny = true
			if entity == models.TranslationEntityName {
				localizedTitle = text
			}
		}

		if wroteAny {
			imp.syncLocalizedPage(p, locale, localizedTitle, cache)
		}
	}

	return written
}

// syncLocalizedPage updates the translated page's title, or duplicates the
// canonical page under the locale's section when no translated counterpart
// exists yet. An empty title means the row carried no localized name: an
// existing page keeps its translated title, a fresh duplicate starts from
// the canonical name. Failures are logged per product+locale, never fatal.
func (imp *Importer) syncLocalizedPage(p *models.Product, locale, title string, cache *runCache) {
	log := imp.logger.WithFields(map[string]interface{}{"sku": p.SKU, "locale": locale})

	section, err := cache.Section(locale)
	if err != nil {
		log.WithError(err).Warn("Locale section lookup failed")
		return
	}
	if section == nil {
		log.Info("No site section for locale, localized page skipped")
		return
	}

	page, err := imp.catalog.FindPage(p.ID, locale)
	if err != nil {
		log.WithError(err).Warn("Localized page lookup failed")
		return
	}

	if page != nil {
		if title == "" {
			return
		}
		page.Title = title
		if err := imp.catalog.SavePage(page); err != nil {
			log.WithError(err).Warn("Localized page update failed")
		}
		return
	}

	canonical, err := imp.catalog.FindPage(p.ID, "")
	if err != nil || canonical == nil {
		if err != nil {
			log.WithError(err).Warn("Canonical page lookup failed")
		}
		return
	}

	if title == "" {
		title = p.Name
	}
	localized := &models.Page{
		ProductID: p.ID,
		Locale:    locale,
		SectionID: &section.ID,
		Title:     title,
		Path:      "/" + strings.ReplaceAll(strings.ToLower(locale), "_", "-") + canonical.Path,
	}
	if err := imp.catalog.SavePage(localized); err != nil {
		log.WithError(err).Warn("Localized page creation failed")
	}
}
