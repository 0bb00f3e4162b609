package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "ru_RU", NormalizeLocale("ru"))
	assert.Equal(t, "de_DE", NormalizeLocale("DE"))
	assert.Equal(t, "xx", NormalizeLocale("xx"), "unknown codes pass through")
}

func TestTranslationsUpserted(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sections["ru_RU"] = &models.PageSection{ID: uuid.New(), Locale: "ru_RU", Name: "Products (RU)"}

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname", "pname - ru", "pdesc - ru"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Синяя футболка", "Хлопковая футболка"}),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TranslationsWritten)

	p := catalog.products["TSH-001"]
	name := catalog.translations[p.ID.String()+"|name|ru_RU"]
	require.NotNil(t, name)
	assert.Equal(t, "Синяя футболка", name.Text)

	desc := catalog.translations[p.ID.String()+"|short-description|ru_RU"]
	require.NotNil(t, desc)
	assert.Equal(t, "Хлопковая футболка", desc.Text)

	// Localized page duplicated from the canonical one, titled with the
	// translated name.
	localized := catalog.pages[p.ID.String()+"|ru_RU"]
	require.NotNil(t, localized)
	assert.Equal(t, "Синяя футболка", localized.Title)
}

func TestLocalizedPageTitleUpdatedInPlace(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sections["ru_RU"] = &models.PageSection{ID: uuid.New(), Locale: "ru_RU", Name: "Products (RU)"}

	imp := newTestImporter(catalog, nil, Options{})
	headings := []string{"psku", "pname", "pname - ru"}

	_, err := imp.Run(context.Background(), &stubSource{
		headings: headings,
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Старое имя"}),
	})
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	firstPage := catalog.pages[p.ID.String()+"|ru_RU"]
	require.NotNil(t, firstPage)

	_, err = imp.Run(context.Background(), &stubSource{
		headings: headings,
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Новое имя"}),
	})
	require.NoError(t, err)

	secondPage := catalog.pages[p.ID.String()+"|ru_RU"]
	require.NotNil(t, secondPage)
	assert.Equal(t, "Новое имя", secondPage.Title)
	assert.Equal(t, firstPage.ID, secondPage.ID, "existing localized pages update in place")
}

func TestDescOnlyRunKeepsTranslatedPageTitle(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sections["ru_RU"] = &models.PageSection{ID: uuid.New(), Locale: "ru_RU", Name: "Products (RU)"}

	imp := newTestImporter(catalog, nil, Options{})

	_, err := imp.Run(context.Background(), &stubSource{
		headings: []string{"psku", "pname", "pname - ru"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Синяя футболка"}),
	})
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	require.Equal(t, "Синяя футболка", catalog.pages[p.ID.String()+"|ru_RU"].Title)

	// A later run that only refreshes the localized description must not
	// clobber the translated page title with the canonical name.
	_, err = imp.Run(context.Background(), &stubSource{
		headings: []string{"psku", "pname", "pdesc - ru"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Хлопковая футболка"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Синяя футболка", catalog.pages[p.ID.String()+"|ru_RU"].Title)
}

func TestDescOnlyRunTitlesNewPageFromCanonicalName(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sections["ru_RU"] = &models.PageSection{ID: uuid.New(), Locale: "ru_RU", Name: "Products (RU)"}

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname", "pdesc - ru"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Хлопковая футболка"}),
	}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	localized := catalog.pages[p.ID.String()+"|ru_RU"]
	require.NotNil(t, localized)
	assert.Equal(t, "Blue Tee", localized.Title)
}

func TestMissingSectionSkipsLocalizedPage(t *testing.T) {
	catalog := newFakeCatalog()

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname", "pdetail - fr"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Détails du produit"}),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TranslationsWritten, "translations still land without a section")
	p := catalog.products["TSH-001"]
	assert.Nil(t, catalog.pages[p.ID.String()+"|fr_FR"])
}

func TestEmptyLocaleCellsWriteNothing(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.sections["ru_RU"] = &models.PageSection{ID: uuid.New(), Locale: "ru_RU", Name: "Products (RU)"}

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname", "pname - ru"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", ""}),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TranslationsWritten)
	assert.Empty(t, catalog.translations)
}
