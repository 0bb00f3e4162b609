package importer

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/source"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestImporter(catalog *fakeCatalog, fetcher Fetcher, opts Options) *Importer {
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	return New(catalog, fetcher, nil, testLogger(), opts)
}

func TestRunCreatesProducts(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{
		headings: []string{"psku", "pname", "pprice", "pqty"},
		rows: rowsOf(
			[]string{"TSH-001", "Blue Tee", "29.99", "100"},
			[]string{"TSH-002", "Red Tee", "24.99", "50"},
		),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.SkippedEmpty)
	assert.True(t, src.closed)

	p := catalog.products["TSH-001"]
	require.NotNil(t, p)
	assert.Equal(t, "Blue Tee", p.Name)
	assert.Equal(t, "29.99", p.Price)
	assert.Equal(t, "100", p.Qty)
	// No pactive column in the source: imported products are visible.
	assert.True(t, p.Active)
}

func TestRunSkipsRowsWithoutKeyAndName(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{
		headings: []string{"psku", "pname", "pprice"},
		rows: rowsOf(
			[]string{"", "", "9.99"},
			[]string{"TSH-001", "Blue Tee", "29.99"},
		),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.SkippedEmpty)
	assert.Equal(t, result.RowsRead, result.Created+result.Updated+result.SkippedEmpty)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "ROW_EMPTY", result.Diagnostics[0].Code)
}

func TestUpdateMergeIsSparse(t *testing.T) {
	catalog := newFakeCatalog()
	require.NoError(t, catalog.CreateProduct(productFixture("TSH-001", "Old Name", "10.00")))

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname", "pprice", "pdesc"},
		rows: rowsOf(
			// Empty price cell must not zero the stored price.
			[]string{"TSH-001", "New Name", "", "Fresh copy"},
		),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Created)

	p := catalog.products["TSH-001"]
	assert.Equal(t, "New Name", p.Name)
	assert.Equal(t, "10.00", p.Price)
	assert.Equal(t, "Fresh copy", p.Desc)
}

func TestBooleanOverlayOnlyOnContent(t *testing.T) {
	catalog := newFakeCatalog()
	fixture := productFixture("TSH-001", "Tee", "10.00")
	fixture.Featured = true
	fixture.Taxable = true
	require.NoError(t, catalog.CreateProduct(fixture))

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pfeatured", "ptaxable"},
		rows: rowsOf(
			[]string{"TSH-001", "", "0"},
		),
	}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	assert.True(t, p.Featured, "empty cell must leave the flag untouched")
	assert.False(t, p.Taxable, "explicit 0 must clear the flag")
}

func TestRunIsIdempotent(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	headings := []string{"psku", "pname", "pprice", "pproductgroups"}
	rows := rowsOf(
		[]string{"TSH-001", "Blue Tee", "29.99", "Shirts, Sale"},
		[]string{"TSH-002", "Red Tee", "24.99", "Shirts"},
	)

	first, err := imp.Run(context.Background(), &stubSource{headings: headings, rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 2, first.PagesGenerated)

	before := *catalog.products["TSH-001"]

	second, err := imp.Run(context.Background(), &stubSource{headings: headings, rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)
	assert.Equal(t, 0, second.PagesGenerated, "existing pages must not be regenerated")

	after := catalog.products["TSH-001"]
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Price, after.Price)
	assert.Len(t, catalog.groups, 2, "groups must not duplicate on re-run")
}

func TestRowShapeIsReconciled(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{
		headings: []string{"psku", "pname", "pprice"},
		rows: rowsOf(
			[]string{"TSH-001", "Short Row"},
			[]string{"TSH-002", "Long Row", "9.99", "overflow", "ignored"},
		),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, "", catalog.products["TSH-001"].Price)
	assert.Equal(t, "9.99", catalog.products["TSH-002"].Price)
}

func TestCreateFailureIsAbsorbed(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failCreate = true
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{
		headings: []string{"psku", "pname"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee"}),
	}

	result, err := imp.Run(context.Background(), src)
	require.NoError(t, err, "row failures never fail the run")

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.SkippedEmpty)
	assert.Equal(t, result.RowsRead, result.Created+result.Updated+result.SkippedEmpty)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "CREATE_FAILED", result.Diagnostics[0].Code)
}

func TestSourceFailureIsFatal(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{err: source.ErrSourceUnreadable}
	result, err := imp.Run(context.Background(), src)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, source.ErrSourceUnreadable)
	assert.True(t, src.closed)
}

func TestDefaultImageAppliedOnCreate(t *testing.T) {
	catalog := newFakeCatalog()
	defaultID := uuid.New()
	imp := newTestImporter(catalog, nil, Options{DefaultImageID: defaultID.String()})

	src := &stubSource{
		headings: []string{"psku", "pname"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee"}),
	}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	require.NotNil(t, p.ImageFileID)
	assert.Equal(t, defaultID, *p.ImageFileID)
}

func TestDefaultImageNeverOverwritesOnUpdate(t *testing.T) {
	catalog := newFakeCatalog()
	existing := uuid.New()
	fixture := productFixture("TSH-001", "Tee", "10.00")
	fixture.ImageFileID = &existing
	require.NoError(t, catalog.CreateProduct(fixture))

	imp := newTestImporter(catalog, nil, Options{DefaultImageID: uuid.New().String()})
	src := &stubSource{
		headings: []string{"psku", "pname"},
		rows:     rowsOf([]string{"TSH-001", "Tee"}),
	}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	require.NotNil(t, p.ImageFileID)
	assert.Equal(t, existing, *p.ImageFileID)
}

func TestValidateRequiredGate(t *testing.T) {
	headings := []string{"psku", "pname"}
	rows := rowsOf([]string{"", "Nameless SKU"})

	// Gate off (the default): the row creates a product with an empty SKU.
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})
	result, err := imp.Run(context.Background(), &stubSource{headings: headings, rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	// Gate on: the row is rejected with a diagnostic.
	catalog = newFakeCatalog()
	imp = newTestImporter(catalog, nil, Options{ValidateRequired: true})
	result, err = imp.Run(context.Background(), &stubSource{headings: headings, rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.SkippedEmpty)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "ROW_INVALID", result.Diagnostics[0].Code)
}

func TestRunStopsWhenBudgetExpires(t *testing.T) {
	catalog := newFakeCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Expire the budget while the first row is mid-flight.
	catalog.onCreate = cancel

	imp := newTestImporter(catalog, nil, Options{MaxRunSeconds: 60})
	src := &stubSource{
		headings: []string{"psku", "pname"},
		rows: rowsOf(
			[]string{"TSH-001", "Blue Tee"},
			[]string{"TSH-002", "Red Tee"},
			[]string{"TSH-003", "Green Tee"},
		),
	}

	result, err := imp.Run(ctx, src)
	require.NoError(t, err, "an expired budget is not a run failure")

	assert.True(t, result.DeadlineExceeded)
	assert.Equal(t, 1, result.RowsRead, "unprocessed rows are not counted as read")
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, result.RowsRead, result.Created+result.Updated+result.SkippedEmpty)

	assert.NotNil(t, catalog.products["TSH-001"], "the committed row stands")
	assert.Nil(t, catalog.products["TSH-002"])
	assert.Nil(t, catalog.products["TSH-003"])
}

func TestRunWithExpiredContextReadsNothing(t *testing.T) {
	catalog := newFakeCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := newTestImporter(catalog, nil, Options{})
	src := &stubSource{
		headings: []string{"psku", "pname"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee"}),
	}

	result, err := imp.Run(ctx, src)
	require.NoError(t, err)

	assert.True(t, result.DeadlineExceeded)
	assert.Equal(t, 0, result.RowsRead)
	assert.Empty(t, catalog.products)
	assert.True(t, src.closed)
}

func TestOptionsFromSettings(t *testing.T) {
	opts := OptionsFromSettings(models.ImportSettings{
		ValidateHeaders: true,
		DefaultImageID:  "some-id",
		MaxRunSeconds:   45,
	})

	assert.True(t, opts.ValidateRequired, "the settings switch must reach the row gate")
	assert.Equal(t, "some-id", opts.DefaultImageID)
	assert.Equal(t, 45, opts.MaxRunSeconds)

	opts = OptionsFromSettings(models.ImportSettings{})
	assert.False(t, opts.ValidateRequired)
}

func TestGroupsAssigned(t *testing.T) {
	catalog := newFakeCatalog()
	imp := newTestImporter(catalog, nil, Options{})

	src := &stubSource{
		headings: []string{"psku", "pname", "pproductgroups"},
		rows:     rowsOf([]string{"TSH-001", "Blue Tee", "Shirts, Sale, shirts"}),
	}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	p := catalog.products["TSH-001"]
	assert.ElementsMatch(t, []string{"Shirts", "Sale"}, catalog.memberships[p.ID])
}
