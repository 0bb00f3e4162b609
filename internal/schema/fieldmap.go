// Package schema classifies spreadsheet headings into the typed FieldMap the
// import pipeline works from. Classification happens once per run, on the
// heading row; row processing never inspects heading strings again.
package schema

import (
	"regexp"
	"strings"
)

// Canonical commerce columns recognized by exact, case-insensitive match.
const (
	FieldSKU              = "psku"
	FieldName             = "pname"
	FieldDesc             = "pdesc"
	FieldDetail           = "pdetail"
	FieldPrice            = "pprice"
	FieldSalePrice        = "psaleprice"
	FieldPriceMaximum     = "ppricemaximum"
	FieldPriceMinimum     = "ppriceminimum"
	FieldPriceSuggestions = "ppricesuggestions"
	FieldCustomerPrice    = "pcustomerprice"
	FieldQty              = "pqty"
	FieldQtyUnlimited     = "pqtyunlim"
	FieldNoQty            = "pnoqty"
	FieldMaxQty           = "pmaxqty"
	FieldQtySteps         = "pqtysteps"
	FieldQtyLabel         = "pqtylabel"
	FieldAllowDecimalQty  = "pallowdecimalqty"
	FieldBackOrder        = "pbackorder"
	FieldFeatured         = "pfeatured"
	FieldActive           = "pactive"
	FieldTaxable          = "ptaxable"
	FieldShippable        = "pshippable"
	FieldExclusive        = "pexclusive"
	FieldUserAccount      = "pcreateuseraccount"
	FieldAutoCheckout     = "pautocheckout"
	FieldSeparateShip     = "pseperateship"
	FieldPackageData      = "ppackagedata"
	FieldLength           = "plength"
	FieldWidth            = "pwidth"
	FieldHeight           = "pheight"
	FieldWeight           = "pweight"
	FieldNumberItems      = "pnumberitems"
	FieldProductGroups    = "pproductgroups"
	FieldImageFile        = "imagefile"
)

const (
	// LegacyAttributePrefix marks free-form attribute columns assigned verbatim.
	LegacyAttributePrefix = "attr_"
	// MultiValueAttributePrefix marks comma-separated attribute columns.
	MultiValueAttributePrefix = "pa_"
)

// localePattern matches "<field> - <2-letter locale>" translation columns for
// the three localizable text fields.
var localePattern = regexp.MustCompile(`^(pname|pdesc|pdetail)\s*-\s*([a-z]{2})$`)

var canonicalFields = map[string]struct{}{
	FieldSKU: {}, FieldName: {}, FieldDesc: {}, FieldDetail: {},
	FieldPrice: {}, FieldSalePrice: {}, FieldPriceMaximum: {}, FieldPriceMinimum: {},
	FieldPriceSuggestions: {}, FieldCustomerPrice: {},
	FieldQty: {}, FieldQtyUnlimited: {}, FieldNoQty: {}, FieldMaxQty: {},
	FieldQtySteps: {}, FieldQtyLabel: {}, FieldAllowDecimalQty: {}, FieldBackOrder: {},
	FieldFeatured: {}, FieldActive: {}, FieldTaxable: {}, FieldShippable: {},
	FieldExclusive: {}, FieldUserAccount: {}, FieldAutoCheckout: {},
	FieldSeparateShip: {}, FieldPackageData: {},
	FieldLength: {}, FieldWidth: {}, FieldHeight: {}, FieldWeight: {},
	FieldNumberItems: {}, FieldProductGroups: {}, FieldImageFile: {},
}

// LocaleFields maps a locale code to field→column-index for pname/pdesc/pdetail.
type LocaleFields map[string]int

// FieldMap is the classification of one heading row. All indexes are
// positions into the (shape-reconciled) cell slice of each data row.
type FieldMap struct {
	// Canonical maps a canonical field name to its column index.
	Canonical map[string]int
	// LegacyAttributes maps an attribute handle (prefix stripped) to its column.
	LegacyAttributes map[string]int
	// MultiValueAttributes maps a lower-cased attribute handle to its column.
	MultiValueAttributes map[string]int
	// Locales maps a 2-letter locale code to its translated field columns.
	Locales map[string]LocaleFields
	// Headings holds the normalized (lower-cased) heading row.
	Headings []string
}

// IsCanonical reports whether the heading names a recognized commerce column.
func IsCanonical(heading string) bool {
	_, ok := canonicalFields[strings.ToLower(strings.TrimSpace(heading))]
	return ok
}

// Classify buckets every heading. Unknown headings are ignored so new columns
// in a sheet never break existing imports.
func Classify(headings []string) *FieldMap {
	fm := &FieldMap{
		Canonical:            make(map[string]int),
		LegacyAttributes:     make(map[string]int),
		MultiValueAttributes: make(map[string]int),
		Locales:              make(map[string]LocaleFields),
		Headings:             make([]string, len(headings)),
	}

	for i, raw := range headings {
		h := strings.ToLower(strings.TrimSpace(raw))
		fm.Headings[i] = h

		if _, ok := canonicalFields[h]; ok {
			fm.Canonical[h] = i
			continue
		}
		if strings.HasPrefix(h, LegacyAttributePrefix) {
			handle := strings.TrimPrefix(h, LegacyAttributePrefix)
			if handle != "" {
				fm.LegacyAttributes[handle] = i
			}
			continue
		}
		if strings.HasPrefix(h, MultiValueAttributePrefix) {
			handle := strings.ToLower(strings.TrimPrefix(h, MultiValueAttributePrefix))
			if handle != "" {
				fm.MultiValueAttributes[handle] = i
			}
			continue
		}
		if m := localePattern.FindStringSubmatch(h); m != nil {
			field, locale := m[1], m[2]
			if fm.Locales[locale] == nil {
				fm.Locales[locale] = make(LocaleFields)
			}
			fm.Locales[locale][field] = i
		}
		// Anything else is deliberately ignored.
	}

	return fm
}

// Cell returns the canonical field's trimmed cell value, or "" when the
// column is absent from the source.
func (fm *FieldMap) Cell(cells []string, field string) string {
	idx, ok := fm.Canonical[field]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// At returns the trimmed cell at an arbitrary column index.
func (fm *FieldMap) At(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
